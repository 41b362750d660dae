package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
)

type tripRecord struct{ domain.TripRequest }

func cloneTrip(t domain.TripRequest) domain.TripRequest {
	t.PreferredVehicleType = copyPtr(t.PreferredVehicleType)
	t.DecidedBy = copyPtr(t.DecidedBy)
	t.ScheduleEventID = copyPtr(t.ScheduleEventID)
	return t
}

type tripRepo struct{ s *Store }

func (r *tripRepo) Create(_ context.Context, trip *domain.TripRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.trips {
		if rec.Reference == trip.Reference {
			return fmt.Errorf("%w: trip_requests_reference_key", repository.ErrDuplicate)
		}
	}
	now := r.s.now()
	trip.ID = newID()
	trip.CreatedAt, trip.UpdatedAt = now, now
	r.s.trips = append(r.s.trips, &tripRecord{cloneTrip(*trip)})
	return nil
}

func (r *tripRepo) Update(_ context.Context, trip *domain.TripRequest, expected domain.TripStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.trips {
		if rec.ID == trip.ID {
			if rec.Status != expected {
				return repository.ErrStaleStatus
			}
			trip.CreatedAt = rec.CreatedAt
			trip.Reference = rec.Reference
			trip.RequesterID = rec.RequesterID
			trip.UpdatedAt = r.s.now()
			rec.TripRequest = cloneTrip(*trip)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *tripRepo) GetByID(_ context.Context, id string) (*domain.TripRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rec := range r.s.trips {
		if rec.ID == id {
			t := cloneTrip(rec.TripRequest)
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *tripRepo) List(_ context.Context, filter repository.TripFilter) ([]domain.TripRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.TripRequest
	for _, rec := range r.s.trips {
		if !eqPtr(filter.RequesterID, rec.RequesterID) || !eqPtr(filter.Campus, rec.Campus) {
			continue
		}
		if !contains(filter.Statuses, rec.Status) {
			continue
		}
		if filter.DepartureFrom != nil && rec.DepartureAt.Before(*filter.DepartureFrom) {
			continue
		}
		if filter.DepartureTo != nil && !rec.DepartureAt.Before(*filter.DepartureTo) {
			continue
		}
		if !matchesSearch(filter.SearchTerm, rec.Reference, rec.Purpose, rec.Destination) {
			continue
		}
		result = append(result, cloneTrip(rec.TripRequest))
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].DepartureAt.After(result[j].DepartureAt) })
	return page(result, filter.Limit, filter.Offset, 20), nil
}
