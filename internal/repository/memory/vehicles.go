package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
)

type vehicleRecord struct{ domain.Vehicle }

func cloneVehicle(v domain.Vehicle) domain.Vehicle {
	v.LastServiceAt = copyPtr(v.LastServiceAt)
	return v
}

type vehicleRepo struct{ s *Store }

func (r *vehicleRepo) checkUnique(v *domain.Vehicle) error {
	for _, rec := range r.s.vehicles {
		if rec.ID == v.ID {
			continue
		}
		if strings.EqualFold(rec.Code, v.Code) {
			return fmt.Errorf("%w: vehicles_code_key", repository.ErrDuplicate)
		}
		if strings.EqualFold(rec.PlateNumber, v.PlateNumber) {
			return fmt.Errorf("%w: vehicles_plate_number_key", repository.ErrDuplicate)
		}
	}
	return nil
}

func (r *vehicleRepo) Create(_ context.Context, v *domain.Vehicle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v.ID = ""
	if err := r.checkUnique(v); err != nil {
		return err
	}
	now := r.s.now()
	v.ID = newID()
	v.CreatedAt, v.UpdatedAt = now, now
	r.s.vehicles = append(r.s.vehicles, &vehicleRecord{cloneVehicle(*v)})
	return nil
}

func (r *vehicleRepo) Update(_ context.Context, v *domain.Vehicle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.vehicles {
		if rec.ID != v.ID {
			continue
		}
		if err := r.checkUnique(v); err != nil {
			return err
		}
		v.CreatedAt = rec.CreatedAt
		v.UpdatedAt = r.s.now()
		rec.Vehicle = cloneVehicle(*v)
		return nil
	}
	return repository.ErrNotFound
}

func (r *vehicleRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, rec := range r.s.vehicles {
		if rec.ID == id {
			r.s.vehicles = append(r.s.vehicles[:i], r.s.vehicles[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *vehicleRepo) GetByID(_ context.Context, id string) (*domain.Vehicle, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rec := range r.s.vehicles {
		if rec.ID == id {
			v := cloneVehicle(rec.Vehicle)
			return &v, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *vehicleRepo) List(_ context.Context, filter repository.VehicleFilter) ([]domain.Vehicle, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Vehicle
	for _, rec := range r.s.vehicles {
		if !contains(filter.Types, rec.Type) || !contains(filter.Statuses, rec.Status) {
			continue
		}
		if !eqPtr(filter.Campus, rec.Campus) {
			continue
		}
		if !matchesSearch(filter.SearchTerm, rec.Code, rec.PlateNumber, rec.Notes) {
			continue
		}
		result = append(result, cloneVehicle(rec.Vehicle))
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return page(result, filter.Limit, filter.Offset, 50), nil
}
