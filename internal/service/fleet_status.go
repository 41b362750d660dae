package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/events"
	"github.com/spec-kit/campus-transport/internal/repository"
)

// fleetStatus applies the vehicle and driver status side effects of
// schedule and maintenance transitions.
type fleetStatus struct {
	vehicles   repository.VehicleRepository
	drivers    repository.DriverRepository
	audit      *AuditService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// setVehicle moves a vehicle to status. INACTIVE vehicles are left alone.
// When onlyFrom is given the change applies only to vehicles currently in
// one of those statuses.
func (f *fleetStatus) setVehicle(ctx context.Context, actor *domain.User, vehicleID string, status domain.VehicleStatus, reason string, onlyFrom ...domain.VehicleStatus) (*domain.Vehicle, error) {
	vehicle, err := f.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, mapRepoErr(err, "vehicle", map[string]any{"vehicle_id": vehicleID})
	}
	if vehicle.Status == status || vehicle.Status == domain.VehicleStatusInactive {
		return vehicle, nil
	}
	if len(onlyFrom) > 0 && !statusIn(vehicle.Status, onlyFrom) {
		return vehicle, nil
	}
	old := vehicle.Status
	vehicle.Status = status
	if err := f.vehicles.Update(ctx, vehicle); err != nil {
		return nil, mapRepoErr(err, "vehicle", map[string]any{"vehicle_id": vehicleID})
	}
	if err := f.audit.Record(ctx, actor, domain.EntityVehicle, vehicle.ID, domain.AuditStatusChanged,
		map[string]any{"status": old},
		map[string]any{"status": status, "reason": reason},
	); err != nil {
		return nil, err
	}
	publishEvent(ctx, f.dispatcher, events.Event{
		Type:       events.EventVehicleStatusChanged,
		EntityType: domain.EntityVehicle,
		EntityID:   vehicle.ID,
		Actor:      eventActor(actor),
		Payload: events.VehicleStatusChangedPayload{
			Code:      vehicle.Code,
			OldStatus: old,
			NewStatus: status,
			Reason:    reason,
		},
	})
	f.logger.Debug("vehicle status changed",
		zap.String("vehicle_id", vehicle.ID),
		zap.String("from", string(old)),
		zap.String("to", string(status)))
	return vehicle, nil
}

// setDriver moves a driver between AVAILABLE and ON_TRIP. Drivers in any
// other status are left alone.
func (f *fleetStatus) setDriver(ctx context.Context, actor *domain.User, driverID string, status domain.DriverStatus) error {
	driver, err := f.drivers.GetByID(ctx, driverID)
	if err != nil {
		return mapRepoErr(err, "driver", map[string]any{"driver_id": driverID})
	}
	if driver.Status == status {
		return nil
	}
	if driver.Status != domain.DriverStatusAvailable && driver.Status != domain.DriverStatusOnTrip {
		return nil
	}
	old := driver.Status
	driver.Status = status
	if err := f.drivers.Update(ctx, driver); err != nil {
		return mapRepoErr(err, "driver", map[string]any{"driver_id": driverID})
	}
	return f.audit.Record(ctx, actor, domain.EntityDriver, driver.ID, domain.AuditStatusChanged,
		map[string]any{"status": old},
		map[string]any{"status": status},
	)
}

// hasBlockingEvents reports whether any non-terminal event references the
// resource selected by filter.
func hasBlockingEvents(ctx context.Context, schedule repository.ScheduleRepository, filter repository.ScheduleFilter) (bool, error) {
	filter.Statuses = domain.BlockingEventStatuses
	filter.Limit = 1
	found, err := schedule.List(ctx, filter)
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func statusIn[T comparable](v T, set []T) bool {
	for _, candidate := range set {
		if candidate == v {
			return true
		}
	}
	return false
}
