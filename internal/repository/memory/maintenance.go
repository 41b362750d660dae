package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
)

type maintenanceRecord struct{ domain.MaintenanceTicket }

func cloneMaintenance(t domain.MaintenanceTicket) domain.MaintenanceTicket {
	t.OdometerKm = copyPtr(t.OdometerKm)
	t.Cost = copyPtr(t.Cost)
	t.CompletedAt = copyPtr(t.CompletedAt)
	return t
}

type maintenanceRepo struct{ s *Store }

func (r *maintenanceRepo) Create(_ context.Context, t *domain.MaintenanceTicket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.maintenance {
		if rec.Reference == t.Reference {
			return fmt.Errorf("%w: maintenance_tickets_reference_key", repository.ErrDuplicate)
		}
	}
	now := r.s.now()
	t.ID = newID()
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.maintenance = append(r.s.maintenance, &maintenanceRecord{cloneMaintenance(*t)})
	return nil
}

func (r *maintenanceRepo) Update(_ context.Context, t *domain.MaintenanceTicket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.maintenance {
		if rec.ID == t.ID {
			t.Reference = rec.Reference
			t.VehicleID = rec.VehicleID
			t.ReportedBy = rec.ReportedBy
			t.CreatedAt = rec.CreatedAt
			t.UpdatedAt = r.s.now()
			rec.MaintenanceTicket = cloneMaintenance(*t)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *maintenanceRepo) GetByID(_ context.Context, id string) (*domain.MaintenanceTicket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rec := range r.s.maintenance {
		if rec.ID == id {
			t := cloneMaintenance(rec.MaintenanceTicket)
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *maintenanceRepo) List(_ context.Context, filter repository.MaintenanceFilter) ([]domain.MaintenanceTicket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.MaintenanceTicket
	// newest first; reverse insertion order breaks timestamp ties
	for i := len(r.s.maintenance) - 1; i >= 0; i-- {
		rec := r.s.maintenance[i]
		if !eqPtr(filter.VehicleID, rec.VehicleID) || !eqPtr(filter.ReportedBy, rec.ReportedBy) {
			continue
		}
		if !contains(filter.Statuses, rec.Status) || !contains(filter.Priorities, rec.Priority) {
			continue
		}
		if filter.CreatedFrom != nil && rec.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && !rec.CreatedAt.Before(*filter.CreatedTo) {
			continue
		}
		result = append(result, cloneMaintenance(rec.MaintenanceTicket))
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, filter.Limit, filter.Offset, 20), nil
}
