package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
)

type userRecord struct{ domain.User }

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.users {
		if strings.EqualFold(rec.Email, user.Email) {
			return fmt.Errorf("%w: users_email_key", repository.ErrDuplicate)
		}
	}
	now := r.s.now()
	user.ID = newID()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users = append(r.s.users, &userRecord{*user})
	return nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var target *userRecord
	for _, rec := range r.s.users {
		if rec.ID == user.ID {
			target = rec
		} else if strings.EqualFold(rec.Email, user.Email) {
			return fmt.Errorf("%w: users_email_key", repository.ErrDuplicate)
		}
	}
	if target == nil {
		return repository.ErrNotFound
	}
	user.CreatedAt = target.CreatedAt
	user.UpdatedAt = r.s.now()
	target.User = *user
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rec := range r.s.users {
		if rec.ID == id {
			u := rec.User
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rec := range r.s.users {
		if strings.EqualFold(rec.Email, email) {
			u := rec.User
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.User
	for _, rec := range r.s.users {
		if filter.Role != nil && rec.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && rec.Active != *filter.Active {
			continue
		}
		if !matchesSearch(filter.SearchTerm, rec.Name, rec.Email) {
			continue
		}
		result = append(result, rec.User)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return page(result, filter.Limit, filter.Offset, 50), nil
}
