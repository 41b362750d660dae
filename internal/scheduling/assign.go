package scheduling

import (
	"sort"
	"strings"

	"github.com/spec-kit/campus-transport/internal/domain"
)

// VehicleCriteria narrows the vehicles eligible for auto-assignment.
type VehicleCriteria struct {
	Type       *domain.VehicleType
	Campus     string
	Passengers int
}

// Matches reports whether v satisfies the criteria, ignoring availability.
func (c VehicleCriteria) Matches(v domain.Vehicle) bool {
	if v.Status != domain.VehicleStatusAvailable {
		return false
	}
	if c.Type != nil && v.Type != *c.Type {
		return false
	}
	if c.Campus != "" && !strings.EqualFold(v.Campus, c.Campus) {
		return false
	}
	return v.Capacity >= c.Passengers
}

// PickVehicle returns the first vehicle, ordered by code, that matches
// criteria and has no blocking event overlapping window.
func PickVehicle(window Window, criteria VehicleCriteria, vehicles []domain.Vehicle, events []domain.ScheduleEvent) (*domain.Vehicle, bool) {
	candidates := make([]domain.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if criteria.Matches(v) {
			candidates = append(candidates, v)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Code < candidates[j].Code })

	for i := range candidates {
		v := candidates[i]
		taken := busy(window, events, func(e domain.ScheduleEvent) bool {
			return e.VehicleID != nil && *e.VehicleID == v.ID
		})
		if !taken {
			return &v, true
		}
	}
	return nil, false
}

// PickDriver returns the first driver, ordered by name, who is available on
// campus, holds a license valid at the window start and has no blocking
// event overlapping window.
func PickDriver(window Window, campus string, drivers []domain.Driver, events []domain.ScheduleEvent) (*domain.Driver, bool) {
	candidates := make([]domain.Driver, 0, len(drivers))
	for _, d := range drivers {
		if d.Status != domain.DriverStatusAvailable {
			continue
		}
		if campus != "" && !strings.EqualFold(d.Campus, campus) {
			continue
		}
		if !d.LicenseValidAt(window.Start) {
			continue
		}
		candidates = append(candidates, d)
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })

	for i := range candidates {
		d := candidates[i]
		taken := busy(window, events, func(e domain.ScheduleEvent) bool {
			return e.DriverID != nil && *e.DriverID == d.ID
		})
		if !taken {
			return &d, true
		}
	}
	return nil, false
}
