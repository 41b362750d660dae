package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
)

type driverRecord struct{ domain.Driver }

func cloneDriver(d domain.Driver) domain.Driver {
	d.UserID = copyPtr(d.UserID)
	return d
}

type driverRepo struct{ s *Store }

func (r *driverRepo) checkUnique(d *domain.Driver) error {
	for _, rec := range r.s.drivers {
		if rec.ID == d.ID {
			continue
		}
		if strings.EqualFold(rec.LicenseNumber, d.LicenseNumber) {
			return fmt.Errorf("%w: drivers_license_number_key", repository.ErrDuplicate)
		}
		if d.UserID != nil && rec.UserID != nil && *rec.UserID == *d.UserID {
			return fmt.Errorf("%w: drivers_user_id_key", repository.ErrDuplicate)
		}
	}
	return nil
}

func (r *driverRepo) Create(_ context.Context, d *domain.Driver) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d.ID = ""
	if err := r.checkUnique(d); err != nil {
		return err
	}
	now := r.s.now()
	d.ID = newID()
	d.CreatedAt, d.UpdatedAt = now, now
	r.s.drivers = append(r.s.drivers, &driverRecord{cloneDriver(*d)})
	return nil
}

func (r *driverRepo) Update(_ context.Context, d *domain.Driver) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.drivers {
		if rec.ID != d.ID {
			continue
		}
		if err := r.checkUnique(d); err != nil {
			return err
		}
		d.CreatedAt = rec.CreatedAt
		d.UpdatedAt = r.s.now()
		rec.Driver = cloneDriver(*d)
		return nil
	}
	return repository.ErrNotFound
}

func (r *driverRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, rec := range r.s.drivers {
		if rec.ID == id {
			r.s.drivers = append(r.s.drivers[:i], r.s.drivers[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *driverRepo) GetByID(_ context.Context, id string) (*domain.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rec := range r.s.drivers {
		if rec.ID == id {
			d := cloneDriver(rec.Driver)
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *driverRepo) GetByUserID(_ context.Context, userID string) (*domain.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rec := range r.s.drivers {
		if rec.UserID != nil && *rec.UserID == userID {
			d := cloneDriver(rec.Driver)
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *driverRepo) List(_ context.Context, filter repository.DriverFilter) ([]domain.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Driver
	for _, rec := range r.s.drivers {
		if !contains(filter.Statuses, rec.Status) || !eqPtr(filter.Campus, rec.Campus) {
			continue
		}
		if !matchesSearch(filter.SearchTerm, rec.Name, rec.LicenseNumber, rec.Phone) {
			continue
		}
		result = append(result, cloneDriver(rec.Driver))
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return page(result, filter.Limit, filter.Offset, 50), nil
}
