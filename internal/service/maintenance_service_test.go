package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/events"
	"github.com/spec-kit/campus-transport/internal/repository"
)

func (f *fixture) vehicleStatus(id string) domain.VehicleStatus {
	f.t.Helper()
	v, err := f.repos.Vehicles.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return v.Status
}

func TestMaintenanceWorkflow(t *testing.T) {
	f := newFixture(t)
	v := f.vehicle("V-01", domain.VehicleTypeVan, 8)
	odo := 1200

	ticket, err := f.svc.Maintenance.Report(f.ctx, f.driverAc, MaintenanceReportInput{
		VehicleID:  v.ID,
		Title:      "Brake noise",
		OdometerKm: &odo,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenancePriorityMedium, ticket.Priority)
	assert.Equal(t, domain.MaintenanceStatusReported, ticket.Status)
	assert.Equal(t, domain.VehicleStatusAvailable, f.vehicleStatus(v.ID))

	stored, err := f.repos.Vehicles.GetByID(f.ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 1200, stored.OdometerKm)

	cost := 80.0
	_, err = f.svc.Maintenance.Advance(f.ctx, f.admin, ticket.ID, MaintenanceAdvanceInput{Cost: &cost})
	assert.Equal(t, "VALIDATION_FAILED", errCode(err), "cost only on completion")

	ticket, err = f.svc.Maintenance.Advance(f.ctx, f.admin, ticket.ID, MaintenanceAdvanceInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceStatusAcknowledged, ticket.Status)

	ticket, err = f.svc.Maintenance.Advance(f.ctx, f.admin, ticket.ID, MaintenanceAdvanceInput{Note: "parts ordered"})
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceStatusInProgress, ticket.Status)
	assert.Equal(t, domain.VehicleStatusMaintenance, f.vehicleStatus(v.ID))

	ticket, err = f.svc.Maintenance.Advance(f.ctx, f.admin, ticket.ID, MaintenanceAdvanceInput{Note: "pads replaced", Cost: &cost})
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceStatusCompleted, ticket.Status)
	require.NotNil(t, ticket.CompletedAt)
	require.NotNil(t, ticket.Cost)
	assert.InDelta(t, 80.0, *ticket.Cost, 0.001)

	serviced, err := f.repos.Vehicles.GetByID(f.ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusAvailable, serviced.Status)
	assert.NotNil(t, serviced.LastServiceAt)

	_, err = f.svc.Maintenance.Advance(f.ctx, f.admin, ticket.ID, MaintenanceAdvanceInput{})
	assert.Equal(t, "CONFLICT", errCode(err))

	assert.Contains(t, f.events.types(), events.EventMaintenanceReported)
	assert.Contains(t, f.events.types(), events.EventMaintenanceAdvanced)
}

func TestCriticalReportGroundsVehicle(t *testing.T) {
	f := newFixture(t)
	v := f.vehicle("V-01", domain.VehicleTypeVan, 8)

	critical, err := f.svc.Maintenance.Report(f.ctx, f.admin, MaintenanceReportInput{
		VehicleID: v.ID,
		Title:     "Engine warning",
		Priority:  domain.MaintenancePriorityCritical,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusMaintenance, f.vehicleStatus(v.ID))

	high, err := f.svc.Maintenance.Report(f.ctx, f.admin, MaintenanceReportInput{
		VehicleID: v.ID,
		Title:     "Tyre damage",
		Priority:  domain.MaintenancePriorityHigh,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = f.svc.Maintenance.Advance(f.ctx, f.admin, critical.ID, MaintenanceAdvanceInput{})
		require.NoError(t, err)
	}
	assert.Equal(t, domain.VehicleStatusMaintenance, f.vehicleStatus(v.ID), "open HIGH ticket keeps vehicle grounded")

	for i := 0; i < 3; i++ {
		_, err = f.svc.Maintenance.Advance(f.ctx, f.admin, high.ID, MaintenanceAdvanceInput{})
		require.NoError(t, err)
	}
	assert.Equal(t, domain.VehicleStatusAvailable, f.vehicleStatus(v.ID))
}

func TestMaintenanceAccess(t *testing.T) {
	f := newFixture(t)
	v := f.vehicle("V-01", domain.VehicleTypeVan, 8)
	other := f.user("Olga Other", "olga@campus.edu", domain.RoleDriver)

	_, err := f.svc.Maintenance.Report(f.ctx, f.faculty, MaintenanceReportInput{VehicleID: v.ID, Title: "Dirty seats"})
	assert.Equal(t, "FORBIDDEN", errCode(err))

	_, err = f.svc.Maintenance.Report(f.ctx, f.driverAc, MaintenanceReportInput{VehicleID: "missing", Title: "Dirty seats"})
	assert.Equal(t, "NOT_FOUND", errCode(err))

	ticket, err := f.svc.Maintenance.Report(f.ctx, f.driverAc, MaintenanceReportInput{VehicleID: v.ID, Title: "Dirty seats", Priority: domain.MaintenancePriorityLow})
	require.NoError(t, err)
	_, err = f.svc.Maintenance.Report(f.ctx, f.admin, MaintenanceReportInput{VehicleID: v.ID, Title: "Wipers"})
	require.NoError(t, err)

	_, err = f.svc.Maintenance.Get(f.ctx, other, ticket.ID)
	assert.Equal(t, "NOT_FOUND", errCode(err))
	got, err := f.svc.Maintenance.Get(f.ctx, f.driverAc, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.Reference, got.Reference)

	_, err = f.svc.Maintenance.Advance(f.ctx, f.driverAc, ticket.ID, MaintenanceAdvanceInput{})
	assert.Equal(t, "FORBIDDEN", errCode(err))

	mine, err := f.svc.Maintenance.List(f.ctx, f.driverAc, repository.MaintenanceFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.svc.Maintenance.List(f.ctx, f.admin, repository.MaintenanceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.Maintenance.List(f.ctx, f.admin, repository.MaintenanceFilter{Priorities: []domain.MaintenancePriority{"URGENT"}})
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
}

func TestDeleteVehicleWithOpenTicket(t *testing.T) {
	f := newFixture(t)
	v := f.vehicle("V-01", domain.VehicleTypeVan, 8)
	ticket, err := f.svc.Maintenance.Report(f.ctx, f.admin, MaintenanceReportInput{
		VehicleID: v.ID,
		Title:     "Loose mirror",
		Priority:  domain.MaintenancePriorityLow,
	})
	require.NoError(t, err)

	err = f.svc.Vehicles.DeleteVehicle(f.ctx, f.admin, v.ID)
	assert.Equal(t, "CONFLICT", errCode(err))

	for i := 0; i < 3; i++ {
		_, err = f.svc.Maintenance.Advance(f.ctx, f.admin, ticket.ID, MaintenanceAdvanceInput{})
		require.NoError(t, err)
	}
	require.NoError(t, f.svc.Vehicles.DeleteVehicle(f.ctx, f.admin, v.ID))
}

func TestAdvanceLeavesTicketUntouchedWhenVehicleMissing(t *testing.T) {
	f := newFixture(t)
	v := f.vehicle("V-01", domain.VehicleTypeVan, 8)
	ticket, err := f.svc.Maintenance.Report(f.ctx, f.admin, MaintenanceReportInput{
		VehicleID: v.ID,
		Title:     "Loose mirror",
		Priority:  domain.MaintenancePriorityLow,
	})
	require.NoError(t, err)
	_, err = f.svc.Maintenance.Advance(f.ctx, f.admin, ticket.ID, MaintenanceAdvanceInput{})
	require.NoError(t, err)

	// Removed behind the service's back.
	require.NoError(t, f.repos.Vehicles.Delete(f.ctx, v.ID))

	_, err = f.svc.Maintenance.Advance(f.ctx, f.admin, ticket.ID, MaintenanceAdvanceInput{})
	assert.Equal(t, "NOT_FOUND", errCode(err))

	stored, err := f.repos.Maintenance.GetByID(f.ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceStatusAcknowledged, stored.Status)
}
