// Package memory provides map-backed repositories used when no database is
// configured and by tests.
package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/campus-transport/internal/repository"
)

// Store holds every collection behind a single lock.
type Store struct {
	mu          sync.RWMutex
	users       []*userRecord
	resets      map[string]*resetRecord
	vehicles    []*vehicleRecord
	drivers     []*driverRecord
	trips       []*tripRecord
	events      []*eventRecord
	maintenance []*maintenanceRecord
	audit       []*auditRecord
	now         func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		resets: make(map[string]*resetRecord),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// NewRepositories returns a repository bundle backed by a fresh store.
func NewRepositories() repository.Repositories {
	return NewStore().Repositories()
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:          &userRepo{s},
		PasswordResets: &resetRepo{s},
		Vehicles:       &vehicleRepo{s},
		Drivers:        &driverRepo{s},
		Trips:          &tripRepo{s},
		Schedule:       &scheduleRepo{s},
		Maintenance:    &maintenanceRepo{s},
		Audit:          &auditRepo{s},
	}
}

func newID() string {
	return uuid.NewString()
}

func page[T any](items []T, limit, offset, defaultLimit int) []T {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func contains[T comparable](set []T, v T) bool {
	if len(set) == 0 {
		return true
	}
	for _, candidate := range set {
		if candidate == v {
			return true
		}
	}
	return false
}

func matchesSearch(term *string, fields ...string) bool {
	if term == nil || strings.TrimSpace(*term) == "" {
		return true
	}
	needle := strings.ToLower(strings.TrimSpace(*term))
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func eqPtr(filter *string, value string) bool {
	return filter == nil || *filter == value
}

func eqOptPtr(filter *string, value *string) bool {
	if filter == nil {
		return true
	}
	return value != nil && *value == *filter
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
