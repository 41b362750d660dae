package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-transport/internal/config"
	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/events"
	"github.com/spec-kit/campus-transport/internal/repository"
	"github.com/spec-kit/campus-transport/internal/scheduling"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

const (
	resourceScanLimit = 1000
	eventScanLimit    = 5000
)

// ScheduleService owns the calendar: event writes, conflict checks and
// resource assignment.
type ScheduleService struct {
	events     repository.ScheduleRepository
	vehicles   repository.VehicleRepository
	drivers    repository.DriverRepository
	trips      repository.TripRepository
	audit      *AuditService
	fleet      *fleetStatus
	tripFlow   *tripTransitioner
	dispatcher events.Dispatcher
	logger     *zap.Logger

	strict   bool
	maxRange time.Duration

	// writeMu serializes conflict checks with the writes they guard.
	writeMu sync.Mutex
}

// ScheduleDependencies bundles repositories for the schedule service.
type ScheduleDependencies struct {
	ScheduleRepo repository.ScheduleRepository
	VehicleRepo  repository.VehicleRepository
	DriverRepo   repository.DriverRepository
	TripRepo     repository.TripRepository
	Audit        *AuditService
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// EventInput describes a new calendar event.
type EventInput struct {
	Title         string
	TripRequestID *string
	VehicleID     *string
	DriverID      *string
	StartsAt      time.Time
	EndsAt        time.Time
	Status        domain.EventStatus
	Notes         string
}

// EventUpdateInput carries optional event changes. A non-nil empty
// VehicleID or DriverID clears the assignment.
type EventUpdateInput struct {
	Title     *string
	VehicleID *string
	DriverID  *string
	StartsAt  *time.Time
	EndsAt    *time.Time
	Notes     *string
}

// EventResult pairs a written event with the advisory conflicts found.
type EventResult struct {
	Event     *domain.ScheduleEvent
	Conflicts []scheduling.Conflict
}

// ConflictQuery is a dry-run booking. EventID excludes an existing event
// from the scan, as when previewing an update.
type ConflictQuery struct {
	EventID   string
	VehicleID *string
	DriverID  *string
	StartsAt  time.Time
	EndsAt    time.Time
}

// CalendarQuery selects events overlapping [From, To).
type CalendarQuery struct {
	From      time.Time
	To        time.Time
	VehicleID *string
	DriverID  *string
	Statuses  []domain.EventStatus
}

// AssignmentRequest asks for free resources in a window.
type AssignmentRequest struct {
	StartsAt    time.Time
	EndsAt      time.Time
	VehicleType *domain.VehicleType
	Campus      string
	Passengers  int
	NeedVehicle bool
	NeedDriver  bool
}

// Assignment is the outcome of auto-assignment.
type Assignment struct {
	Vehicle *domain.Vehicle
	Driver  *domain.Driver
}

var allowedEventTransitions = map[domain.EventStatus][]domain.EventStatus{
	domain.EventStatusPlanned:   {domain.EventStatusApproved, domain.EventStatusCancelled},
	domain.EventStatusApproved:  {domain.EventStatusEnRoute, domain.EventStatusCancelled, domain.EventStatusPlanned},
	domain.EventStatusEnRoute:   {domain.EventStatusCompleted},
	domain.EventStatusCompleted: {},
	domain.EventStatusCancelled: {},
}

func isValidEventTransition(current, next domain.EventStatus) bool {
	for _, candidate := range allowedEventTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// NewScheduleService constructs the service.
func NewScheduleService(cfg config.Config, deps ScheduleDependencies) *ScheduleService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxDays := cfg.Schedule.MaxRangeDays
	if maxDays <= 0 {
		maxDays = 92
	}
	return &ScheduleService{
		events:   deps.ScheduleRepo,
		vehicles: deps.VehicleRepo,
		drivers:  deps.DriverRepo,
		trips:    deps.TripRepo,
		audit:    deps.Audit,
		fleet: &fleetStatus{
			vehicles:   deps.VehicleRepo,
			drivers:    deps.DriverRepo,
			audit:      deps.Audit,
			dispatcher: deps.Dispatcher,
			logger:     logger,
		},
		tripFlow: &tripTransitioner{
			trips:      deps.TripRepo,
			audit:      deps.Audit,
			dispatcher: deps.Dispatcher,
		},
		dispatcher: deps.Dispatcher,
		logger:     logger,
		strict:     cfg.Schedule.StrictConflicts,
		maxRange:   time.Duration(maxDays) * 24 * time.Hour,
	}
}

// CreateEvent books a calendar event. Trip-linked events are created through
// trip approval.
func (s *ScheduleService) CreateEvent(ctx context.Context, actor *domain.User, input EventInput) (*EventResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if input.TripRequestID != nil && *input.TripRequestID != "" {
		return nil, apperrors.NewValidationError("trip events are created by approving the trip request", map[string]any{"trip_request_id": *input.TripRequestID})
	}
	if input.Status == "" {
		input.Status = domain.EventStatusPlanned
	}
	if input.Status != domain.EventStatusPlanned && input.Status != domain.EventStatusApproved {
		return nil, apperrors.NewValidationError("new events must be PLANNED or APPROVED", map[string]any{"status": input.Status})
	}
	event := &domain.ScheduleEvent{
		Title:     strings.TrimSpace(input.Title),
		VehicleID: nonEmpty(input.VehicleID),
		DriverID:  nonEmpty(input.DriverID),
		StartsAt:  input.StartsAt.UTC(),
		EndsAt:    input.EndsAt.UTC(),
		Status:    input.Status,
		Notes:     strings.TrimSpace(input.Notes),
		CreatedBy: actorID(actor),
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.insertLocked(ctx, actor, event)
}

// UpdateEvent changes the title, window, resources or notes of an open event.
func (s *ScheduleService) UpdateEvent(ctx context.Context, actor *domain.User, id string, input EventUpdateInput) (*EventResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "schedule event", map[string]any{"event_id": id})
	}
	if event.Status.Terminal() {
		return nil, apperrors.NewConflict("event is closed", map[string]any{"event_id": id, "status": event.Status})
	}
	before := eventSnapshot(event)

	if input.Title != nil {
		event.Title = strings.TrimSpace(*input.Title)
	}
	if input.VehicleID != nil {
		event.VehicleID = nonEmpty(input.VehicleID)
	}
	if input.DriverID != nil {
		event.DriverID = nonEmpty(input.DriverID)
	}
	if input.StartsAt != nil {
		event.StartsAt = input.StartsAt.UTC()
	}
	if input.EndsAt != nil {
		event.EndsAt = input.EndsAt.UTC()
	}
	if input.Notes != nil {
		event.Notes = strings.TrimSpace(*input.Notes)
	}
	vehicleChanged := !sameRef(before["vehicle_id"], event.VehicleID)
	driverChanged := !sameRef(before["driver_id"], event.DriverID)
	if event.Status == domain.EventStatusEnRoute && (vehicleChanged || driverChanged) {
		return nil, apperrors.NewConflict("resources cannot change while en route", map[string]any{"event_id": id})
	}
	conflicts, err := s.validateAndScan(ctx, event, vehicleChanged, driverChanged || input.StartsAt != nil)
	if err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, event); err != nil {
		return nil, mapRepoErr(err, "schedule event", map[string]any{"event_id": id})
	}
	action := domain.AuditUpdated
	if vehicleChanged || driverChanged {
		action = domain.AuditAssigned
	}
	if err := s.audit.Record(ctx, actor, domain.EntityScheduleEvent, event.ID, action, before, eventSnapshot(event)); err != nil {
		return nil, err
	}
	s.publishEventWrite(ctx, actor, events.EventScheduleEventUpdated, event, len(conflicts))
	return &EventResult{Event: event, Conflicts: conflicts}, nil
}

// ChangeStatus advances an event along its workflow. Drivers may only move
// their own events to EN_ROUTE or COMPLETED. Completing a trip-linked event
// completes the trip; trip-linked events are cancelled through the trip.
func (s *ScheduleService) ChangeStatus(ctx context.Context, actor *domain.User, id string, next domain.EventStatus, note string) (*domain.ScheduleEvent, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "schedule event", map[string]any{"event_id": id})
	}
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleDriver:
		if next != domain.EventStatusEnRoute && next != domain.EventStatusCompleted {
			return nil, apperrors.NewForbidden("drivers may only start or complete trips")
		}
		own, err := s.driverOwnsEvent(ctx, actor, event)
		if err != nil {
			return nil, err
		}
		if !own {
			return nil, apperrors.NewForbidden("event not assigned to you")
		}
	default:
		return nil, apperrors.NewForbidden("insufficient role")
	}
	if next == domain.EventStatusCancelled && event.TripRequestID != nil {
		return nil, apperrors.NewConflict("cancel the trip request instead", map[string]any{"trip_request_id": *event.TripRequestID})
	}
	if !isValidEventTransition(event.Status, next) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{"from": event.Status, "to": next})
	}
	if next == domain.EventStatusEnRoute && (event.VehicleID == nil || event.DriverID == nil) {
		return nil, apperrors.NewConflict("vehicle and driver must be assigned before departure", map[string]any{"event_id": id})
	}

	if err := s.transitionLocked(ctx, actor, event, next, note); err != nil {
		return nil, err
	}
	if next == domain.EventStatusCompleted && event.TripRequestID != nil {
		if err := s.completeLinkedTrip(ctx, actor, *event.TripRequestID, note); err != nil {
			return nil, err
		}
	}
	return event, nil
}

// GetEvent returns one event if actor may see it.
func (s *ScheduleService) GetEvent(ctx context.Context, actor *domain.User, id string) (*domain.ScheduleEvent, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "schedule event", map[string]any{"event_id": id})
	}
	visible, err := s.canView(ctx, actor, event)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, apperrors.NewNotFound("schedule event", map[string]any{"event_id": id})
	}
	return event, nil
}

// ListCalendar returns events overlapping the query range. Admins see all
// events, drivers their own and faculty the events of their trips.
func (s *ScheduleService) ListCalendar(ctx context.Context, actor *domain.User, query CalendarQuery) ([]domain.ScheduleEvent, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if query.From.IsZero() || query.To.IsZero() {
		return nil, apperrors.NewValidationError("from and to are required", nil)
	}
	if !query.To.After(query.From) {
		return nil, apperrors.NewValidationError("to must be after from", nil)
	}
	if query.To.Sub(query.From) > s.maxRange {
		return nil, apperrors.NewValidationError("calendar range too large", map[string]any{"max_days": int(s.maxRange.Hours() / 24)})
	}
	for _, st := range query.Statuses {
		if _, ok := allowedEventTransitions[st]; !ok {
			return nil, apperrors.NewValidationError("invalid event status", map[string]any{"status": st})
		}
	}

	from, to := query.From.UTC(), query.To.UTC()
	filter := repository.ScheduleFilter{
		From:      &from,
		To:        &to,
		VehicleID: query.VehicleID,
		DriverID:  query.DriverID,
		Statuses:  query.Statuses,
		Limit:     eventScanLimit,
	}

	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleDriver:
		driver, err := s.drivers.GetByUserID(ctx, actor.ID)
		if err != nil {
			if isNotFound(err) {
				return []domain.ScheduleEvent{}, nil
			}
			return nil, apperrors.MapError(err)
		}
		filter.DriverID = &driver.ID
	case domain.RoleFaculty:
		trips, err := s.trips.List(ctx, repository.TripFilter{
			RequesterID: &actor.ID,
			DepartureTo: &to,
			Limit:       resourceScanLimit,
		})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		ids := make([]string, 0, len(trips))
		for _, t := range trips {
			ids = append(ids, t.ID)
		}
		if len(ids) == 0 {
			return []domain.ScheduleEvent{}, nil
		}
		filter.TripIDs = ids
	default:
		return nil, apperrors.NewForbidden("insufficient role")
	}

	list, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if list == nil {
		list = []domain.ScheduleEvent{}
	}
	return list, nil
}

// CheckConflicts runs the conflict scan for a proposed booking without
// writing anything.
func (s *ScheduleService) CheckConflicts(ctx context.Context, actor *domain.User, query ConflictQuery) ([]scheduling.Conflict, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	window := scheduling.Window{Start: query.StartsAt.UTC(), End: query.EndsAt.UTC()}
	if !window.Valid() {
		return nil, apperrors.NewValidationError("ends_at must be after starts_at", nil)
	}
	candidate := scheduling.Candidate{
		EventID:   query.EventID,
		VehicleID: nonEmpty(query.VehicleID),
		DriverID:  nonEmpty(query.DriverID),
		Window:    window,
	}
	conflicts, err := s.scan(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if conflicts == nil {
		conflicts = []scheduling.Conflict{}
	}
	return conflicts, nil
}

// AutoAssign picks free resources for a window without booking them.
func (s *ScheduleService) AutoAssign(ctx context.Context, actor *domain.User, req AssignmentRequest) (*Assignment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.pick(ctx, req)
}

// withTrip runs fn with the write lock held on a fresh copy of the trip, so
// trip status changes and the events they book or close are serialized.
func (s *ScheduleService) withTrip(ctx context.Context, tripID string, fn func(trip *domain.TripRequest) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return mapRepoErr(err, "trip request", map[string]any{"trip_id": tripID})
	}
	return fn(trip)
}

// bookTripLocked creates the APPROVED event for a trip being approved.
// Missing resources are picked when autoAssign is set.
func (s *ScheduleService) bookTripLocked(ctx context.Context, actor *domain.User, trip *domain.TripRequest, vehicleID, driverID *string, autoAssign bool) (*EventResult, error) {
	vehicleID, driverID = nonEmpty(vehicleID), nonEmpty(driverID)
	if autoAssign && (vehicleID == nil || driverID == nil) {
		picked, err := s.pick(ctx, AssignmentRequest{
			StartsAt:    trip.DepartureAt,
			EndsAt:      trip.ReturnAt,
			VehicleType: trip.PreferredVehicleType,
			Campus:      trip.Campus,
			Passengers:  trip.Passengers,
			NeedVehicle: vehicleID == nil,
			NeedDriver:  driverID == nil,
		})
		if err != nil {
			return nil, err
		}
		if picked.Vehicle != nil {
			vehicleID = &picked.Vehicle.ID
		}
		if picked.Driver != nil {
			driverID = &picked.Driver.ID
		}
	}

	tripID := trip.ID
	event := &domain.ScheduleEvent{
		Title:         fmt.Sprintf("%s %s", trip.Reference, trip.Destination),
		TripRequestID: &tripID,
		VehicleID:     vehicleID,
		DriverID:      driverID,
		StartsAt:      trip.DepartureAt,
		EndsAt:        trip.ReturnAt,
		Status:        domain.EventStatusApproved,
		Notes:         trip.Purpose,
		CreatedBy:     actorID(actor),
	}
	if vehicleID != nil {
		vehicle, err := s.vehicles.GetByID(ctx, *vehicleID)
		if err != nil {
			return nil, mapRepoErr(err, "vehicle", map[string]any{"vehicle_id": *vehicleID})
		}
		if vehicle.Capacity < trip.Passengers {
			return nil, apperrors.NewValidationError("vehicle capacity below passenger count", map[string]any{
				"capacity":   vehicle.Capacity,
				"passengers": trip.Passengers,
			})
		}
	}
	return s.insertLocked(ctx, actor, event)
}

// closeForTripLocked moves a trip's event to COMPLETED or CANCELLED
// regardless of the manual workflow, releasing held resources.
func (s *ScheduleService) closeForTripLocked(ctx context.Context, actor *domain.User, eventID string, next domain.EventStatus, note string) error {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return mapRepoErr(err, "schedule event", map[string]any{"event_id": eventID})
	}
	if event.Status.Terminal() {
		return nil
	}
	return s.transitionLocked(ctx, actor, event, next, note)
}

func (s *ScheduleService) insertLocked(ctx context.Context, actor *domain.User, event *domain.ScheduleEvent) (*EventResult, error) {
	conflicts, err := s.validateAndScan(ctx, event, true, true)
	if err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, mapRepoErr(err, "schedule event", nil)
	}
	if err := s.audit.Record(ctx, actor, domain.EntityScheduleEvent, event.ID, domain.AuditCreated, nil, eventSnapshot(event)); err != nil {
		return nil, err
	}
	s.publishEventWrite(ctx, actor, events.EventScheduleEventCreated, event, len(conflicts))
	if len(conflicts) > 0 {
		s.logger.Info("schedule event booked with conflicts",
			zap.String("event_id", event.ID),
			zap.Int("conflicts", len(conflicts)))
	}
	return &EventResult{Event: event, Conflicts: conflicts}, nil
}

// validateAndScan checks event fields and the selected resources and returns
// conflicts. In strict mode any conflict is an error.
func (s *ScheduleService) validateAndScan(ctx context.Context, event *domain.ScheduleEvent, checkVehicle, checkDriver bool) ([]scheduling.Conflict, error) {
	if event.Title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	window := scheduling.EventWindow(*event)
	if !window.Valid() {
		return nil, apperrors.NewValidationError("ends_at must be after starts_at", map[string]any{
			"starts_at": event.StartsAt,
			"ends_at":   event.EndsAt,
		})
	}
	if checkVehicle && event.VehicleID != nil {
		vehicle, err := s.vehicles.GetByID(ctx, *event.VehicleID)
		if err != nil {
			return nil, mapRepoErr(err, "vehicle", map[string]any{"vehicle_id": *event.VehicleID})
		}
		if vehicle.Status == domain.VehicleStatusInactive || vehicle.Status == domain.VehicleStatusMaintenance {
			return nil, apperrors.NewConflict("vehicle is out of service", map[string]any{"vehicle_id": vehicle.ID, "status": vehicle.Status})
		}
	}
	if checkDriver && event.DriverID != nil {
		driver, err := s.drivers.GetByID(ctx, *event.DriverID)
		if err != nil {
			return nil, mapRepoErr(err, "driver", map[string]any{"driver_id": *event.DriverID})
		}
		if driver.Status == domain.DriverStatusInactive || driver.Status == domain.DriverStatusOnLeave {
			return nil, apperrors.NewConflict("driver is unavailable", map[string]any{"driver_id": driver.ID, "status": driver.Status})
		}
		if !driver.LicenseValidAt(event.StartsAt) {
			return nil, apperrors.NewValidationError("driver license expired", map[string]any{
				"driver_id":      driver.ID,
				"license_expiry": driver.LicenseExpiry,
			})
		}
	}

	conflicts, err := s.scan(ctx, scheduling.CandidateFromEvent(*event))
	if err != nil {
		return nil, err
	}
	if s.strict && len(conflicts) > 0 {
		return nil, apperrors.NewConflict("schedule conflict", map[string]any{"conflicts": conflicts})
	}
	return conflicts, nil
}

// scan loads the open events that share a resource with candidate inside its
// window and runs the conflict check over them.
func (s *ScheduleService) scan(ctx context.Context, candidate scheduling.Candidate) ([]scheduling.Conflict, error) {
	from, to := candidate.Window.Start, candidate.Window.End
	seen := map[string]struct{}{}
	var existing []domain.ScheduleEvent
	collect := func(filter repository.ScheduleFilter) error {
		filter.From, filter.To = &from, &to
		filter.Statuses = domain.BlockingEventStatuses
		filter.Limit = eventScanLimit
		found, err := s.events.List(ctx, filter)
		if err != nil {
			return err
		}
		for _, e := range found {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			existing = append(existing, e)
		}
		return nil
	}
	if candidate.VehicleID != nil {
		if err := collect(repository.ScheduleFilter{VehicleID: candidate.VehicleID}); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if candidate.DriverID != nil {
		if err := collect(repository.ScheduleFilter{DriverID: candidate.DriverID}); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return scheduling.FindConflicts(candidate, existing), nil
}

func (s *ScheduleService) pick(ctx context.Context, req AssignmentRequest) (*Assignment, error) {
	window := scheduling.Window{Start: req.StartsAt.UTC(), End: req.EndsAt.UTC()}
	if !window.Valid() {
		return nil, apperrors.NewValidationError("ends_at must be after starts_at", nil)
	}
	if req.VehicleType != nil && !req.VehicleType.Valid() {
		return nil, apperrors.NewValidationError("invalid vehicle type", map[string]any{"type": *req.VehicleType})
	}
	from, to := window.Start, window.End
	booked, err := s.events.List(ctx, repository.ScheduleFilter{
		From:     &from,
		To:       &to,
		Statuses: domain.BlockingEventStatuses,
		Limit:    eventScanLimit,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := &Assignment{}
	if req.NeedVehicle {
		vehicles, err := s.vehicles.List(ctx, repository.VehicleFilter{
			Statuses: []domain.VehicleStatus{domain.VehicleStatusAvailable},
			Limit:    resourceScanLimit,
		})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		criteria := scheduling.VehicleCriteria{Type: req.VehicleType, Campus: req.Campus, Passengers: req.Passengers}
		vehicle, ok := scheduling.PickVehicle(window, criteria, vehicles, booked)
		if !ok {
			return nil, apperrors.NewConflict("no available vehicle", map[string]any{
				"campus":       req.Campus,
				"vehicle_type": req.VehicleType,
				"passengers":   req.Passengers,
			})
		}
		result.Vehicle = vehicle
	}
	if req.NeedDriver {
		drivers, err := s.drivers.List(ctx, repository.DriverFilter{
			Statuses: []domain.DriverStatus{domain.DriverStatusAvailable},
			Limit:    resourceScanLimit,
		})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		driver, ok := scheduling.PickDriver(window, req.Campus, drivers, booked)
		if !ok {
			return nil, apperrors.NewConflict("no available driver", map[string]any{"campus": req.Campus})
		}
		result.Driver = driver
	}
	return result, nil
}

func (s *ScheduleService) transitionLocked(ctx context.Context, actor *domain.User, event *domain.ScheduleEvent, next domain.EventStatus, note string) error {
	old := event.Status
	event.Status = next
	if note = strings.TrimSpace(note); note != "" {
		event.Notes = note
	}
	if err := s.events.Update(ctx, event); err != nil {
		return mapRepoErr(err, "schedule event", map[string]any{"event_id": event.ID})
	}
	if err := s.audit.Record(ctx, actor, domain.EntityScheduleEvent, event.ID, domain.AuditStatusChanged,
		map[string]any{"status": old},
		map[string]any{"status": next, "note": note},
	); err != nil {
		return err
	}
	if err := s.applyResourceEffects(ctx, actor, event, old, next); err != nil {
		return err
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:       events.EventScheduleStatusChanged,
		EntityType: domain.EntityScheduleEvent,
		EntityID:   event.ID,
		Actor:      eventActor(actor),
		Payload: events.ScheduleStatusChangedPayload{
			OldStatus: old,
			NewStatus: next,
			VehicleID: event.VehicleID,
			DriverID:  event.DriverID,
		},
	})
	return nil
}

// applyResourceEffects marks resources busy on departure and frees them
// when an en-route event closes.
func (s *ScheduleService) applyResourceEffects(ctx context.Context, actor *domain.User, event *domain.ScheduleEvent, old, next domain.EventStatus) error {
	switch {
	case next == domain.EventStatusEnRoute:
		if event.VehicleID != nil {
			if _, err := s.fleet.setVehicle(ctx, actor, *event.VehicleID, domain.VehicleStatusInUse, "trip departed", domain.VehicleStatusAvailable); err != nil {
				return err
			}
		}
		if event.DriverID != nil {
			return s.fleet.setDriver(ctx, actor, *event.DriverID, domain.DriverStatusOnTrip)
		}
	case old == domain.EventStatusEnRoute && next.Terminal():
		if event.VehicleID != nil {
			if _, err := s.fleet.setVehicle(ctx, actor, *event.VehicleID, domain.VehicleStatusAvailable, "trip ended", domain.VehicleStatusInUse); err != nil {
				return err
			}
		}
		if event.DriverID != nil {
			return s.fleet.setDriver(ctx, actor, *event.DriverID, domain.DriverStatusAvailable)
		}
	}
	return nil
}

func (s *ScheduleService) completeLinkedTrip(ctx context.Context, actor *domain.User, tripID, note string) error {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return mapRepoErr(err, "trip request", map[string]any{"trip_id": tripID})
	}
	if trip.Status != domain.TripStatusApproved {
		return nil
	}
	return s.tripFlow.apply(ctx, actor, trip, domain.TripStatusCompleted, note)
}

func (s *ScheduleService) driverOwnsEvent(ctx context.Context, actor *domain.User, event *domain.ScheduleEvent) (bool, error) {
	if event.DriverID == nil {
		return false, nil
	}
	driver, err := s.drivers.GetByUserID(ctx, actor.ID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, apperrors.MapError(err)
	}
	return driver.ID == *event.DriverID, nil
}

func (s *ScheduleService) canView(ctx context.Context, actor *domain.User, event *domain.ScheduleEvent) (bool, error) {
	switch actor.Role {
	case domain.RoleAdmin:
		return true, nil
	case domain.RoleDriver:
		return s.driverOwnsEvent(ctx, actor, event)
	case domain.RoleFaculty:
		if event.TripRequestID == nil {
			return false, nil
		}
		trip, err := s.trips.GetByID(ctx, *event.TripRequestID)
		if err != nil {
			if isNotFound(err) {
				return false, nil
			}
			return false, apperrors.MapError(err)
		}
		return trip.RequesterID == actor.ID, nil
	}
	return false, nil
}

func (s *ScheduleService) publishEventWrite(ctx context.Context, actor *domain.User, eventType events.EventType, event *domain.ScheduleEvent, conflicts int) {
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:       eventType,
		EntityType: domain.EntityScheduleEvent,
		EntityID:   event.ID,
		Actor:      eventActor(actor),
		Payload: events.ScheduleEventPayload{
			Title:         event.Title,
			TripRequestID: event.TripRequestID,
			VehicleID:     event.VehicleID,
			DriverID:      event.DriverID,
			StartsAt:      event.StartsAt,
			EndsAt:        event.EndsAt,
			Conflicts:     conflicts,
		},
	})
}

func eventSnapshot(e *domain.ScheduleEvent) map[string]any {
	return map[string]any{
		"title":           e.Title,
		"trip_request_id": derefString(e.TripRequestID),
		"vehicle_id":      derefString(e.VehicleID),
		"driver_id":       derefString(e.DriverID),
		"starts_at":       e.StartsAt,
		"ends_at":         e.EndsAt,
		"status":          e.Status,
	}
}

// sameRef compares a snapshot value with a current optional id.
func sameRef(snapshot any, current *string) bool {
	prev, _ := snapshot.(string)
	return prev == derefString(current)
}

func nonEmpty(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
