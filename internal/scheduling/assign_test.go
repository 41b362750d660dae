package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-transport/internal/domain"
)

func TestPickVehicle(t *testing.T) {
	van := domain.VehicleTypeVan
	vehicles := []domain.Vehicle{
		{ID: "v3", Code: "VAN-03", Type: domain.VehicleTypeVan, Campus: "North", Capacity: 12, Status: domain.VehicleStatusAvailable},
		{ID: "v1", Code: "VAN-01", Type: domain.VehicleTypeVan, Campus: "North", Capacity: 12, Status: domain.VehicleStatusAvailable},
		{ID: "v2", Code: "VAN-02", Type: domain.VehicleTypeVan, Campus: "North", Capacity: 12, Status: domain.VehicleStatusMaintenance},
		{ID: "b1", Code: "BUS-01", Type: domain.VehicleTypeBus, Campus: "North", Capacity: 40, Status: domain.VehicleStatusAvailable},
		{ID: "s1", Code: "SED-01", Type: domain.VehicleTypeSedan, Campus: "South", Capacity: 4, Status: domain.VehicleStatusAvailable},
	}
	events := []domain.ScheduleEvent{
		{ID: "e1", VehicleID: ptr("v1"), StartsAt: at(8), EndsAt: at(12), Status: domain.EventStatusApproved},
	}

	t.Run("skips busy and unavailable vehicles", func(t *testing.T) {
		got, ok := PickVehicle(Window{at(9), at(10)}, VehicleCriteria{Type: &van, Campus: "north", Passengers: 10}, vehicles, events)
		require.True(t, ok)
		assert.Equal(t, "v3", got.ID)
	})

	t.Run("first by code when free", func(t *testing.T) {
		got, ok := PickVehicle(Window{at(12), at(13)}, VehicleCriteria{Type: &van, Passengers: 1}, vehicles, events)
		require.True(t, ok)
		assert.Equal(t, "v1", got.ID)
	})

	t.Run("capacity filter", func(t *testing.T) {
		got, ok := PickVehicle(Window{at(9), at(10)}, VehicleCriteria{Passengers: 20}, vehicles, events)
		require.True(t, ok)
		assert.Equal(t, "b1", got.ID)
	})

	t.Run("none available", func(t *testing.T) {
		_, ok := PickVehicle(Window{at(9), at(10)}, VehicleCriteria{Passengers: 50}, vehicles, events)
		assert.False(t, ok)
	})
}

func TestPickDriver(t *testing.T) {
	drivers := []domain.Driver{
		{ID: "d2", Name: "Bola", Campus: "North", Status: domain.DriverStatusAvailable, LicenseExpiry: day.AddDate(1, 0, 0)},
		{ID: "d1", Name: "Ade", Campus: "North", Status: domain.DriverStatusAvailable, LicenseExpiry: at(9)},
		{ID: "d3", Name: "Chi", Campus: "North", Status: domain.DriverStatusOnLeave, LicenseExpiry: day.AddDate(1, 0, 0)},
		{ID: "d4", Name: "Dayo", Campus: "South", Status: domain.DriverStatusAvailable, LicenseExpiry: day.AddDate(1, 0, 0)},
	}

	t.Run("expired license is skipped", func(t *testing.T) {
		got, ok := PickDriver(Window{at(10), at(11)}, "North", drivers, nil)
		require.True(t, ok)
		assert.Equal(t, "d2", got.ID)
	})

	t.Run("license valid at start", func(t *testing.T) {
		got, ok := PickDriver(Window{at(8), at(11)}, "North", drivers, nil)
		require.True(t, ok)
		assert.Equal(t, "d1", got.ID)
	})

	t.Run("busy driver is skipped", func(t *testing.T) {
		events := []domain.ScheduleEvent{
			{ID: "e1", DriverID: ptr("d2"), StartsAt: at(9), EndsAt: at(12), Status: domain.EventStatusEnRoute},
		}
		_, ok := PickDriver(Window{at(10), at(11)}, "North", drivers, events)
		assert.False(t, ok)

		got, ok := PickDriver(Window{at(10), at(11)}, "", drivers, events)
		require.True(t, ok)
		assert.Equal(t, "d4", got.ID)
	})

	t.Run("cancelled bookings free the driver", func(t *testing.T) {
		events := []domain.ScheduleEvent{
			{ID: "e1", DriverID: ptr("d2"), StartsAt: at(9), EndsAt: at(12), Status: domain.EventStatusCancelled},
		}
		got, ok := PickDriver(Window{at(10), at(11)}, "North", drivers, events)
		require.True(t, ok)
		assert.Equal(t, "d2", got.ID)
	})
}
