package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
)

type eventRecord struct{ domain.ScheduleEvent }

func cloneEvent(e domain.ScheduleEvent) domain.ScheduleEvent {
	e.TripRequestID = copyPtr(e.TripRequestID)
	e.VehicleID = copyPtr(e.VehicleID)
	e.DriverID = copyPtr(e.DriverID)
	e.CreatedBy = copyPtr(e.CreatedBy)
	return e
}

type scheduleRepo struct{ s *Store }

func (r *scheduleRepo) Create(_ context.Context, e *domain.ScheduleEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	e.ID = newID()
	e.CreatedAt, e.UpdatedAt = now, now
	r.s.events = append(r.s.events, &eventRecord{cloneEvent(*e)})
	return nil
}

func (r *scheduleRepo) Update(_ context.Context, e *domain.ScheduleEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.events {
		if rec.ID == e.ID {
			e.CreatedAt = rec.CreatedAt
			e.CreatedBy = copyPtr(rec.CreatedBy)
			e.UpdatedAt = r.s.now()
			rec.ScheduleEvent = cloneEvent(*e)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *scheduleRepo) GetByID(_ context.Context, id string) (*domain.ScheduleEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rec := range r.s.events {
		if rec.ID == id {
			e := cloneEvent(rec.ScheduleEvent)
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *scheduleRepo) List(_ context.Context, filter repository.ScheduleFilter) ([]domain.ScheduleEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.ScheduleEvent
	for _, rec := range r.s.events {
		if filter.From != nil && !rec.EndsAt.After(*filter.From) {
			continue
		}
		if filter.To != nil && !rec.StartsAt.Before(*filter.To) {
			continue
		}
		if !eqOptPtr(filter.VehicleID, rec.VehicleID) || !eqOptPtr(filter.DriverID, rec.DriverID) {
			continue
		}
		if !eqOptPtr(filter.TripRequestID, rec.TripRequestID) {
			continue
		}
		if filter.TripIDs != nil && (rec.TripRequestID == nil || !containsStrict(filter.TripIDs, *rec.TripRequestID)) {
			continue
		}
		if !contains(filter.Statuses, rec.Status) {
			continue
		}
		result = append(result, cloneEvent(rec.ScheduleEvent))
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].StartsAt.Equal(result[j].StartsAt) {
			return result[i].StartsAt.Before(result[j].StartsAt)
		}
		return result[i].ID < result[j].ID
	})
	return page(result, filter.Limit, filter.Offset, 500), nil
}

func containsStrict(set []string, v string) bool {
	for _, candidate := range set {
		if candidate == v {
			return true
		}
	}
	return false
}
