package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/events"
	"github.com/spec-kit/campus-transport/internal/repository"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

// MaintenanceService tracks vehicle service tickets through their fixed
// workflow.
type MaintenanceService struct {
	tickets    repository.MaintenanceRepository
	vehicles   repository.VehicleRepository
	audit      *AuditService
	fleet      *fleetStatus
	dispatcher events.Dispatcher
	now        func() time.Time
}

// MaintenanceDependencies bundles collaborators for the maintenance service.
type MaintenanceDependencies struct {
	MaintenanceRepo repository.MaintenanceRepository
	VehicleRepo     repository.VehicleRepository
	Audit           *AuditService
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// MaintenanceReportInput describes a new ticket.
type MaintenanceReportInput struct {
	VehicleID   string
	Title       string
	Description string
	Priority    domain.MaintenancePriority
	OdometerKm  *int
}

// MaintenanceAdvanceInput carries the optional data recorded on a step.
// Cost is only meaningful when the ticket completes.
type MaintenanceAdvanceInput struct {
	Note string
	Cost *float64
}

// NewMaintenanceService constructs the service.
func NewMaintenanceService(deps MaintenanceDependencies) *MaintenanceService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{
		tickets:  deps.MaintenanceRepo,
		vehicles: deps.VehicleRepo,
		audit:    deps.Audit,
		fleet: &fleetStatus{
			vehicles:   deps.VehicleRepo,
			audit:      deps.Audit,
			dispatcher: deps.Dispatcher,
			logger:     logger,
		},
		dispatcher: deps.Dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Report files a ticket. HIGH and CRITICAL reports ground the vehicle.
func (s *MaintenanceService) Report(ctx context.Context, actor *domain.User, input MaintenanceReportInput) (*domain.MaintenanceTicket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleDriver {
		return nil, apperrors.NewForbidden("only admins and drivers report maintenance")
	}
	if input.Priority == "" {
		input.Priority = domain.MaintenancePriorityMedium
	}
	ticket := &domain.MaintenanceTicket{
		Reference:   generateReference("MNT"),
		VehicleID:   strings.TrimSpace(input.VehicleID),
		ReportedBy:  actor.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Priority:    input.Priority,
		Status:      domain.MaintenanceStatusReported,
		OdometerKm:  input.OdometerKm,
	}
	switch {
	case ticket.VehicleID == "":
		return nil, apperrors.NewValidationError("vehicle_id is required", map[string]any{"field": "vehicle_id"})
	case ticket.Title == "":
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	case !ticket.Priority.Valid():
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": ticket.Priority})
	case ticket.OdometerKm != nil && *ticket.OdometerKm < 0:
		return nil, apperrors.NewValidationError("odometer cannot be negative", map[string]any{"field": "odometer_km"})
	}
	vehicle, err := s.vehicles.GetByID(ctx, ticket.VehicleID)
	if err != nil {
		return nil, mapRepoErr(err, "vehicle", map[string]any{"vehicle_id": ticket.VehicleID})
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, mapRepoErr(err, "maintenance ticket", nil)
	}
	if err := s.audit.Record(ctx, actor, domain.EntityMaintenance, ticket.ID, domain.AuditCreated, nil, maintenanceSnapshot(ticket)); err != nil {
		return nil, err
	}
	if ticket.OdometerKm != nil && *ticket.OdometerKm > vehicle.OdometerKm {
		vehicle.OdometerKm = *ticket.OdometerKm
		if err := s.vehicles.Update(ctx, vehicle); err != nil {
			return nil, mapRepoErr(err, "vehicle", map[string]any{"vehicle_id": vehicle.ID})
		}
	}
	if ticket.Priority.GroundsVehicle() {
		if _, err := s.fleet.setVehicle(ctx, actor, vehicle.ID, domain.VehicleStatusMaintenance, "maintenance "+ticket.Reference); err != nil {
			return nil, err
		}
	}
	s.publish(ctx, actor, events.EventMaintenanceReported, ticket, "")
	return ticket, nil
}

// Advance moves a ticket one step along the workflow. Completed tickets
// cannot advance.
func (s *MaintenanceService) Advance(ctx context.Context, actor *domain.User, id string, input MaintenanceAdvanceInput) (*domain.MaintenanceTicket, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "maintenance ticket", map[string]any{"ticket_id": id})
	}
	next, ok := ticket.Status.Next()
	if !ok {
		return nil, apperrors.NewConflict("maintenance ticket already completed", map[string]any{"ticket_id": id, "status": ticket.Status})
	}
	if input.Cost != nil {
		if next != domain.MaintenanceStatusCompleted {
			return nil, apperrors.NewValidationError("cost is recorded on completion", map[string]any{"field": "cost"})
		}
		if *input.Cost < 0 {
			return nil, apperrors.NewValidationError("cost cannot be negative", map[string]any{"field": "cost"})
		}
	}
	if _, err := s.vehicles.GetByID(ctx, ticket.VehicleID); err != nil {
		return nil, mapRepoErr(err, "vehicle", map[string]any{"vehicle_id": ticket.VehicleID})
	}

	old := ticket.Status
	ticket.Status = next
	if note := strings.TrimSpace(input.Note); note != "" {
		ticket.ResolutionNote = note
	}
	if next == domain.MaintenanceStatusCompleted {
		completedAt := s.now()
		ticket.CompletedAt = &completedAt
		ticket.Cost = input.Cost
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapRepoErr(err, "maintenance ticket", map[string]any{"ticket_id": id})
	}
	if err := s.audit.Record(ctx, actor, domain.EntityMaintenance, ticket.ID, domain.AuditStatusChanged,
		map[string]any{"status": old},
		map[string]any{"status": next, "note": strings.TrimSpace(input.Note)},
	); err != nil {
		return nil, err
	}

	switch next {
	case domain.MaintenanceStatusInProgress:
		if _, err := s.fleet.setVehicle(ctx, actor, ticket.VehicleID, domain.VehicleStatusMaintenance, "maintenance "+ticket.Reference); err != nil {
			return nil, err
		}
	case domain.MaintenanceStatusCompleted:
		if err := s.returnToService(ctx, actor, ticket); err != nil {
			return nil, err
		}
	}
	s.publish(ctx, actor, events.EventMaintenanceAdvanced, ticket, old)
	return ticket, nil
}

// Get returns one ticket.
func (s *MaintenanceService) Get(ctx context.Context, actor *domain.User, id string) (*domain.MaintenanceTicket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "maintenance ticket", map[string]any{"ticket_id": id})
	}
	if !actor.IsAdmin() && ticket.ReportedBy != actor.ID {
		return nil, apperrors.NewNotFound("maintenance ticket", map[string]any{"ticket_id": id})
	}
	return ticket, nil
}

// List returns tickets. Drivers only see tickets they reported.
func (s *MaintenanceService) List(ctx context.Context, actor *domain.User, filter repository.MaintenanceFilter) ([]domain.MaintenanceTicket, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleDriver:
		filter.ReportedBy = &actor.ID
	default:
		return nil, apperrors.NewForbidden("insufficient role")
	}
	for _, p := range filter.Priorities {
		if !p.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": p})
		}
	}
	for _, st := range filter.Statuses {
		if !statusIn(st, domain.MaintenanceWorkflow) {
			return nil, apperrors.NewValidationError("invalid maintenance status", map[string]any{"status": st})
		}
	}
	filter.Limit = clampLimit(filter.Limit, 100)
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// returnToService stamps the service date and frees the vehicle unless
// another open ticket still grounds it.
func (s *MaintenanceService) returnToService(ctx context.Context, actor *domain.User, ticket *domain.MaintenanceTicket) error {
	vehicle, err := s.vehicles.GetByID(ctx, ticket.VehicleID)
	if err != nil {
		return mapRepoErr(err, "vehicle", map[string]any{"vehicle_id": ticket.VehicleID})
	}
	vehicle.LastServiceAt = ticket.CompletedAt
	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		return mapRepoErr(err, "vehicle", map[string]any{"vehicle_id": vehicle.ID})
	}

	open, err := s.tickets.List(ctx, repository.MaintenanceFilter{
		VehicleID: &ticket.VehicleID,
		Statuses:  domain.OpenMaintenanceStatuses,
		Limit:     resourceScanLimit,
	})
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, other := range open {
		if other.Status == domain.MaintenanceStatusInProgress || other.Priority.GroundsVehicle() {
			return nil
		}
	}
	_, err = s.fleet.setVehicle(ctx, actor, vehicle.ID, domain.VehicleStatusAvailable, "maintenance "+ticket.Reference+" completed", domain.VehicleStatusMaintenance)
	return err
}

func (s *MaintenanceService) publish(ctx context.Context, actor *domain.User, eventType events.EventType, ticket *domain.MaintenanceTicket, old domain.MaintenanceStatus) {
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:       eventType,
		EntityType: domain.EntityMaintenance,
		EntityID:   ticket.ID,
		Actor:      eventActor(actor),
		Payload: events.MaintenancePayload{
			Reference: ticket.Reference,
			VehicleID: ticket.VehicleID,
			Priority:  ticket.Priority,
			OldStatus: old,
			NewStatus: ticket.Status,
		},
	})
}

func maintenanceSnapshot(t *domain.MaintenanceTicket) map[string]any {
	snapshot := map[string]any{
		"reference":  t.Reference,
		"vehicle_id": t.VehicleID,
		"title":      t.Title,
		"priority":   t.Priority,
		"status":     t.Status,
	}
	if t.OdometerKm != nil {
		snapshot["odometer_km"] = *t.OdometerKm
	}
	return snapshot
}
