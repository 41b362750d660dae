package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/events"
	"github.com/spec-kit/campus-transport/internal/repository"
	"github.com/spec-kit/campus-transport/internal/scheduling"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

// TripService coordinates trip request workflows.
type TripService struct {
	trips      repository.TripRepository
	schedule   *ScheduleService
	flow       *tripTransitioner
	audit      *AuditService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TripDependencies bundles collaborators for the trip service.
type TripDependencies struct {
	TripRepo   repository.TripRepository
	Schedule   *ScheduleService
	Audit      *AuditService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TripSubmitInput describes a new trip request.
type TripSubmitInput struct {
	Purpose              string
	Destination          string
	PickupLocation       string
	Campus               string
	DepartureAt          time.Time
	ReturnAt             time.Time
	Passengers           int
	PreferredVehicleType *domain.VehicleType
}

// TripApproveInput selects resources for an approval.
type TripApproveInput struct {
	VehicleID  *string
	DriverID   *string
	AutoAssign bool
	Note       string
}

// TripApproval is the outcome of approving a trip.
type TripApproval struct {
	Trip      *domain.TripRequest
	Event     *domain.ScheduleEvent
	Conflicts []scheduling.Conflict
}

var allowedTripTransitions = map[domain.TripStatus][]domain.TripStatus{
	domain.TripStatusPending:   {domain.TripStatusApproved, domain.TripStatusRejected, domain.TripStatusCancelled},
	domain.TripStatusApproved:  {domain.TripStatusCompleted, domain.TripStatusCancelled},
	domain.TripStatusRejected:  {},
	domain.TripStatusCompleted: {},
	domain.TripStatusCancelled: {},
}

func isValidTripTransition(current, next domain.TripStatus) bool {
	for _, candidate := range allowedTripTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// NewTripService constructs the service.
func NewTripService(deps TripDependencies) *TripService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripService{
		trips:    deps.TripRepo,
		schedule: deps.Schedule,
		flow: &tripTransitioner{
			trips:      deps.TripRepo,
			audit:      deps.Audit,
			dispatcher: deps.Dispatcher,
		},
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Submit files a PENDING trip request for the actor.
func (s *TripService) Submit(ctx context.Context, actor *domain.User, input TripSubmitInput) (*domain.TripRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleFaculty && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only faculty and admins submit trip requests")
	}
	trip := &domain.TripRequest{
		Reference:            generateReference("TRP"),
		RequesterID:          actor.ID,
		Purpose:              strings.TrimSpace(input.Purpose),
		Destination:          strings.TrimSpace(input.Destination),
		PickupLocation:       strings.TrimSpace(input.PickupLocation),
		Campus:               strings.TrimSpace(input.Campus),
		DepartureAt:          input.DepartureAt.UTC(),
		ReturnAt:             input.ReturnAt.UTC(),
		Passengers:           input.Passengers,
		PreferredVehicleType: input.PreferredVehicleType,
		Status:               domain.TripStatusPending,
	}
	if err := s.validate(trip); err != nil {
		return nil, err
	}
	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, mapRepoErr(err, "trip request", nil)
	}
	if err := s.audit.Record(ctx, actor, domain.EntityTrip, trip.ID, domain.AuditCreated, nil, tripSnapshot(trip)); err != nil {
		return nil, err
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:       events.EventTripSubmitted,
		EntityType: domain.EntityTrip,
		EntityID:   trip.ID,
		Actor:      eventActor(actor),
		Payload: events.TripSubmittedPayload{
			Reference:   trip.Reference,
			RequesterID: trip.RequesterID,
			Destination: trip.Destination,
			DepartureAt: trip.DepartureAt,
			ReturnAt:    trip.ReturnAt,
			Passengers:  trip.Passengers,
		},
	})
	return trip, nil
}

// Approve books the trip window on the calendar and approves the request.
func (s *TripService) Approve(ctx context.Context, actor *domain.User, id string, input TripApproveInput) (*TripApproval, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var approval *TripApproval
	err := s.schedule.withTrip(ctx, id, func(trip *domain.TripRequest) error {
		if !isValidTripTransition(trip.Status, domain.TripStatusApproved) {
			return apperrors.NewConflict("trip request is not pending", map[string]any{"trip_id": id, "status": trip.Status})
		}
		if !trip.ReturnAt.After(s.now()) {
			return apperrors.NewConflict("trip window has passed", map[string]any{"trip_id": id})
		}
		booked, err := s.schedule.bookTripLocked(ctx, actor, trip, input.VehicleID, input.DriverID, input.AutoAssign)
		if err != nil {
			return err
		}
		trip.ScheduleEventID = &booked.Event.ID
		trip.DecidedBy = actorID(actor)
		if err := s.flow.apply(ctx, actor, trip, domain.TripStatusApproved, input.Note); err != nil {
			if cerr := s.schedule.closeForTripLocked(ctx, actor, booked.Event.ID, domain.EventStatusCancelled, "approval failed"); cerr != nil {
				s.logger.Error("release event after failed approval", zap.String("event_id", booked.Event.ID), zap.Error(cerr))
			}
			return err
		}
		approval = &TripApproval{Trip: trip, Event: booked.Event, Conflicts: booked.Conflicts}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approval, nil
}

// Reject declines a pending trip request. A note is required.
func (s *TripService) Reject(ctx context.Context, actor *domain.User, id, note string) (*domain.TripRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperrors.NewValidationError("rejection note is required", map[string]any{"field": "note"})
	}
	var result *domain.TripRequest
	err := s.schedule.withTrip(ctx, id, func(trip *domain.TripRequest) error {
		trip.DecidedBy = actorID(actor)
		if err := s.flow.apply(ctx, actor, trip, domain.TripStatusRejected, note); err != nil {
			return err
		}
		result = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel withdraws a pending or approved trip and cancels its event. Only the
// requester or an admin may cancel.
func (s *TripService) Cancel(ctx context.Context, actor *domain.User, id, note string) (*domain.TripRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var result *domain.TripRequest
	err := s.schedule.withTrip(ctx, id, func(trip *domain.TripRequest) error {
		if !actor.IsAdmin() && trip.RequesterID != actor.ID {
			return apperrors.NewForbidden("only the requester can cancel this trip")
		}
		if !isValidTripTransition(trip.Status, domain.TripStatusCancelled) {
			return apperrors.NewConflict("invalid status transition", map[string]any{"from": trip.Status, "to": domain.TripStatusCancelled})
		}
		if trip.ScheduleEventID != nil {
			if err := s.schedule.closeForTripLocked(ctx, actor, *trip.ScheduleEventID, domain.EventStatusCancelled, "trip cancelled"); err != nil {
				return err
			}
		}
		if err := s.flow.apply(ctx, actor, trip, domain.TripStatusCancelled, note); err != nil {
			return err
		}
		result = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Complete closes an approved trip and its event. Admins and the assigned
// driver may complete.
func (s *TripService) Complete(ctx context.Context, actor *domain.User, id, note string) (*domain.TripRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var result *domain.TripRequest
	err := s.schedule.withTrip(ctx, id, func(trip *domain.TripRequest) error {
		if !isValidTripTransition(trip.Status, domain.TripStatusCompleted) {
			return apperrors.NewConflict("invalid status transition", map[string]any{"from": trip.Status, "to": domain.TripStatusCompleted})
		}
		switch actor.Role {
		case domain.RoleAdmin:
		case domain.RoleDriver:
			if trip.ScheduleEventID == nil {
				return apperrors.NewForbidden("trip not assigned to you")
			}
			event, err := s.schedule.events.GetByID(ctx, *trip.ScheduleEventID)
			if err != nil {
				return mapRepoErr(err, "schedule event", nil)
			}
			own, err := s.schedule.driverOwnsEvent(ctx, actor, event)
			if err != nil {
				return err
			}
			if !own {
				return apperrors.NewForbidden("trip not assigned to you")
			}
		default:
			return apperrors.NewForbidden("insufficient role")
		}
		if trip.ScheduleEventID != nil {
			if err := s.schedule.closeForTripLocked(ctx, actor, *trip.ScheduleEventID, domain.EventStatusCompleted, note); err != nil {
				return err
			}
		}
		if err := s.flow.apply(ctx, actor, trip, domain.TripStatusCompleted, note); err != nil {
			return err
		}
		result = trip
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns a trip visible to actor.
func (s *TripService) Get(ctx context.Context, actor *domain.User, id string) (*domain.TripRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	trip, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return trip, nil
	case domain.RoleFaculty:
		if trip.RequesterID == actor.ID {
			return trip, nil
		}
	case domain.RoleDriver:
		if trip.ScheduleEventID != nil {
			event, err := s.schedule.events.GetByID(ctx, *trip.ScheduleEventID)
			if err == nil {
				if own, _ := s.schedule.driverOwnsEvent(ctx, actor, event); own {
					return trip, nil
				}
			}
		}
	}
	return nil, apperrors.NewNotFound("trip request", map[string]any{"trip_id": id})
}

// List returns trips. Faculty only see their own requests; admins may filter
// freely.
func (s *TripService) List(ctx context.Context, actor *domain.User, filter repository.TripFilter) ([]domain.TripRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleFaculty:
		filter.RequesterID = &actor.ID
	default:
		return nil, apperrors.NewForbidden("insufficient role")
	}
	for _, st := range filter.Statuses {
		if _, ok := allowedTripTransitions[st]; !ok {
			return nil, apperrors.NewValidationError("invalid trip status", map[string]any{"status": st})
		}
	}
	if filter.DepartureFrom != nil && filter.DepartureTo != nil && !filter.DepartureTo.After(*filter.DepartureFrom) {
		return nil, apperrors.NewValidationError("departure_to must be after departure_from", nil)
	}
	filter.Limit = clampLimit(filter.Limit, 100)
	trips, err := s.trips.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return trips, nil
}

func (s *TripService) load(ctx context.Context, id string) (*domain.TripRequest, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "trip request", map[string]any{"trip_id": id})
	}
	return trip, nil
}

func (s *TripService) validate(trip *domain.TripRequest) error {
	switch {
	case trip.Purpose == "":
		return apperrors.NewValidationError("purpose is required", map[string]any{"field": "purpose"})
	case trip.Destination == "":
		return apperrors.NewValidationError("destination is required", map[string]any{"field": "destination"})
	case trip.Campus == "":
		return apperrors.NewValidationError("campus is required", map[string]any{"field": "campus"})
	case trip.DepartureAt.IsZero():
		return apperrors.NewValidationError("departure_at is required", map[string]any{"field": "departure_at"})
	case !trip.ReturnAt.After(trip.DepartureAt):
		return apperrors.NewValidationError("return_at must be after departure_at", map[string]any{"field": "return_at"})
	case trip.DepartureAt.Before(s.now()):
		return apperrors.NewValidationError("departure_at is in the past", map[string]any{"field": "departure_at"})
	case trip.Passengers < 1:
		return apperrors.NewValidationError("passengers must be at least 1", map[string]any{"field": "passengers"})
	case trip.PreferredVehicleType != nil && !trip.PreferredVehicleType.Valid():
		return apperrors.NewValidationError("invalid vehicle type", map[string]any{"field": "preferred_vehicle_type"})
	}
	return nil
}

// tripTransitioner applies a validated trip status change with its audit
// entry and event. It is shared with the schedule service, which completes
// trips when their events complete.
type tripTransitioner struct {
	trips      repository.TripRepository
	audit      *AuditService
	dispatcher events.Dispatcher
}

func (t *tripTransitioner) apply(ctx context.Context, actor *domain.User, trip *domain.TripRequest, next domain.TripStatus, note string) error {
	if !isValidTripTransition(trip.Status, next) {
		return apperrors.NewConflict("invalid status transition", map[string]any{"from": trip.Status, "to": next})
	}
	old := trip.Status
	trip.Status = next
	if note = strings.TrimSpace(note); note != "" {
		trip.DecisionNote = note
	}
	if err := t.trips.Update(ctx, trip, old); err != nil {
		trip.Status = old
		return mapRepoErr(err, "trip request", map[string]any{"trip_id": trip.ID})
	}
	if err := t.audit.Record(ctx, actor, domain.EntityTrip, trip.ID, domain.AuditStatusChanged,
		map[string]any{"status": old},
		map[string]any{"status": next, "note": note, "schedule_event_id": derefString(trip.ScheduleEventID)},
	); err != nil {
		return err
	}
	publishEvent(ctx, t.dispatcher, events.Event{
		Type:       events.EventTripStatusChanged,
		EntityType: domain.EntityTrip,
		EntityID:   trip.ID,
		Actor:      eventActor(actor),
		Payload: events.TripStatusChangedPayload{
			Reference:       trip.Reference,
			RequesterID:     trip.RequesterID,
			OldStatus:       old,
			NewStatus:       next,
			Note:            note,
			ScheduleEventID: trip.ScheduleEventID,
		},
	})
	return nil
}

func tripSnapshot(t *domain.TripRequest) map[string]any {
	snapshot := map[string]any{
		"reference":    t.Reference,
		"purpose":      t.Purpose,
		"destination":  t.Destination,
		"campus":       t.Campus,
		"departure_at": t.DepartureAt,
		"return_at":    t.ReturnAt,
		"passengers":   t.Passengers,
		"status":       t.Status,
	}
	if t.PreferredVehicleType != nil {
		snapshot["preferred_vehicle_type"] = *t.PreferredVehicleType
	}
	return snapshot
}
