package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/events"
	"github.com/spec-kit/campus-transport/internal/repository"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

// VehicleService manages the vehicle registry.
type VehicleService struct {
	vehicles   repository.VehicleRepository
	schedule   repository.ScheduleRepository
	tickets    repository.MaintenanceRepository
	audit      *AuditService
	dispatcher events.Dispatcher
}

// VehicleDependencies bundles repositories for the vehicle service.
type VehicleDependencies struct {
	VehicleRepo     repository.VehicleRepository
	ScheduleRepo    repository.ScheduleRepository
	MaintenanceRepo repository.MaintenanceRepository
	Audit        *AuditService
	Dispatcher   events.Dispatcher
}

// VehicleInput describes a vehicle to register.
type VehicleInput struct {
	Code          string
	PlateNumber   string
	Type          domain.VehicleType
	Campus        string
	Capacity      int
	Status        domain.VehicleStatus
	OdometerKm    int
	LastServiceAt *time.Time
	Notes         string
}

// VehicleUpdateInput carries optional vehicle changes.
type VehicleUpdateInput struct {
	Code        *string
	PlateNumber *string
	Type        *domain.VehicleType
	Campus      *string
	Capacity    *int
	Status      *domain.VehicleStatus
	OdometerKm  *int
	Notes       *string
}

// NewVehicleService constructs the service.
func NewVehicleService(deps VehicleDependencies) *VehicleService {
	return &VehicleService{
		vehicles:   deps.VehicleRepo,
		schedule:   deps.ScheduleRepo,
		tickets:    deps.MaintenanceRepo,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
	}
}

// CreateVehicle registers a vehicle.
func (s *VehicleService) CreateVehicle(ctx context.Context, actor *domain.User, input VehicleInput) (*domain.Vehicle, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = domain.VehicleStatusAvailable
	}
	vehicle := &domain.Vehicle{
		Code:          strings.ToUpper(strings.TrimSpace(input.Code)),
		PlateNumber:   strings.ToUpper(strings.TrimSpace(input.PlateNumber)),
		Type:          input.Type,
		Campus:        strings.TrimSpace(input.Campus),
		Capacity:      input.Capacity,
		Status:        input.Status,
		OdometerKm:    input.OdometerKm,
		LastServiceAt: input.LastServiceAt,
		Notes:         strings.TrimSpace(input.Notes),
	}
	if err := validateVehicle(vehicle); err != nil {
		return nil, err
	}
	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, mapRepoErr(err, "vehicle", map[string]any{"code": vehicle.Code, "plate_number": vehicle.PlateNumber})
	}
	if err := s.audit.Record(ctx, actor, domain.EntityVehicle, vehicle.ID, domain.AuditCreated, nil, vehicleSnapshot(vehicle)); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// GetVehicle returns one vehicle.
func (s *VehicleService) GetVehicle(ctx context.Context, actor *domain.User, id string) (*domain.Vehicle, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	vehicle, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "vehicle", map[string]any{"vehicle_id": id})
	}
	return vehicle, nil
}

// ListVehicles returns vehicles matching filter.
func (s *VehicleService) ListVehicles(ctx context.Context, actor *domain.User, filter repository.VehicleFilter) ([]domain.Vehicle, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	for _, t := range filter.Types {
		if !t.Valid() {
			return nil, apperrors.NewValidationError("invalid vehicle type", map[string]any{"type": t})
		}
	}
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, apperrors.NewValidationError("invalid vehicle status", map[string]any{"status": st})
		}
	}
	filter.Limit = clampLimit(filter.Limit, 200)
	vehicles, err := s.vehicles.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return vehicles, nil
}

// UpdateVehicle applies changes to a vehicle.
func (s *VehicleService) UpdateVehicle(ctx context.Context, actor *domain.User, id string, input VehicleUpdateInput) (*domain.Vehicle, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	vehicle, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "vehicle", map[string]any{"vehicle_id": id})
	}
	before := vehicleSnapshot(vehicle)
	oldStatus := vehicle.Status

	if input.Code != nil {
		vehicle.Code = strings.ToUpper(strings.TrimSpace(*input.Code))
	}
	if input.PlateNumber != nil {
		vehicle.PlateNumber = strings.ToUpper(strings.TrimSpace(*input.PlateNumber))
	}
	if input.Type != nil {
		vehicle.Type = *input.Type
	}
	if input.Campus != nil {
		vehicle.Campus = strings.TrimSpace(*input.Campus)
	}
	if input.Capacity != nil {
		vehicle.Capacity = *input.Capacity
	}
	if input.Status != nil {
		vehicle.Status = *input.Status
	}
	if input.OdometerKm != nil {
		if *input.OdometerKm < vehicle.OdometerKm {
			return nil, apperrors.NewValidationError("odometer cannot decrease", map[string]any{"current": vehicle.OdometerKm})
		}
		vehicle.OdometerKm = *input.OdometerKm
	}
	if input.Notes != nil {
		vehicle.Notes = strings.TrimSpace(*input.Notes)
	}
	if err := validateVehicle(vehicle); err != nil {
		return nil, err
	}

	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		return nil, mapRepoErr(err, "vehicle", map[string]any{"vehicle_id": id})
	}
	if err := s.audit.Record(ctx, actor, domain.EntityVehicle, vehicle.ID, domain.AuditUpdated, before, vehicleSnapshot(vehicle)); err != nil {
		return nil, err
	}
	if oldStatus != vehicle.Status {
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:       events.EventVehicleStatusChanged,
			EntityType: domain.EntityVehicle,
			EntityID:   vehicle.ID,
			Actor:      eventActor(actor),
			Payload: events.VehicleStatusChangedPayload{
				Code:      vehicle.Code,
				OldStatus: oldStatus,
				NewStatus: vehicle.Status,
				Reason:    "manual update",
			},
		})
	}
	return vehicle, nil
}

// DeleteVehicle removes a vehicle that no open schedule event or
// maintenance ticket references.
func (s *VehicleService) DeleteVehicle(ctx context.Context, actor *domain.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	vehicle, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return mapRepoErr(err, "vehicle", map[string]any{"vehicle_id": id})
	}
	blocked, err := hasBlockingEvents(ctx, s.schedule, repository.ScheduleFilter{VehicleID: &id})
	if err != nil {
		return apperrors.MapError(err)
	}
	if blocked {
		return apperrors.NewConflict("vehicle has open schedule events", map[string]any{"vehicle_id": id})
	}
	open, err := s.tickets.List(ctx, repository.MaintenanceFilter{
		VehicleID: &id,
		Statuses:  domain.OpenMaintenanceStatuses,
		Limit:     1,
	})
	if err != nil {
		return apperrors.MapError(err)
	}
	if len(open) > 0 {
		return apperrors.NewConflict("vehicle has open maintenance tickets", map[string]any{"vehicle_id": id, "ticket_id": open[0].ID})
	}
	if err := s.vehicles.Delete(ctx, id); err != nil {
		return mapRepoErr(err, "vehicle", map[string]any{"vehicle_id": id})
	}
	return s.audit.Record(ctx, actor, domain.EntityVehicle, id, domain.AuditDeleted, vehicleSnapshot(vehicle), nil)
}

func validateVehicle(v *domain.Vehicle) error {
	switch {
	case v.Code == "":
		return apperrors.NewValidationError("code is required", map[string]any{"field": "code"})
	case v.PlateNumber == "":
		return apperrors.NewValidationError("plate number is required", map[string]any{"field": "plate_number"})
	case !v.Type.Valid():
		return apperrors.NewValidationError("invalid vehicle type", map[string]any{"type": v.Type})
	case v.Campus == "":
		return apperrors.NewValidationError("campus is required", map[string]any{"field": "campus"})
	case v.Capacity <= 0:
		return apperrors.NewValidationError("capacity must be positive", map[string]any{"capacity": v.Capacity})
	case !v.Status.Valid():
		return apperrors.NewValidationError("invalid vehicle status", map[string]any{"status": v.Status})
	case v.OdometerKm < 0:
		return apperrors.NewValidationError("odometer cannot be negative", map[string]any{"odometer_km": v.OdometerKm})
	}
	return nil
}

func vehicleSnapshot(v *domain.Vehicle) map[string]any {
	return map[string]any{
		"code":         v.Code,
		"plate_number": v.PlateNumber,
		"type":         v.Type,
		"campus":       v.Campus,
		"capacity":     v.Capacity,
		"status":       v.Status,
		"odometer_km":  v.OdometerKm,
	}
}
