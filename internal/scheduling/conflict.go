// Package scheduling holds the pure calendar rules: overlap detection and
// greedy first-fit resource assignment.
package scheduling

import (
	"time"

	"github.com/spec-kit/campus-transport/internal/domain"
)

// Resource identifies which shared resource two events collide on.
type Resource string

const (
	ResourceVehicle Resource = "VEHICLE"
	ResourceDriver  Resource = "DRIVER"
)

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the window has positive length.
func (w Window) Valid() bool {
	return w.End.After(w.Start)
}

// Overlaps reports whether two half-open windows intersect. Back-to-back
// windows do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Clip returns the part of w inside bounds and its length.
func (w Window) Clip(bounds Window) (Window, time.Duration) {
	start, end := w.Start, w.End
	if start.Before(bounds.Start) {
		start = bounds.Start
	}
	if end.After(bounds.End) {
		end = bounds.End
	}
	if !end.After(start) {
		return Window{Start: start, End: start}, 0
	}
	return Window{Start: start, End: end}, end.Sub(start)
}

// EventWindow returns the window booked by e.
func EventWindow(e domain.ScheduleEvent) Window {
	return Window{Start: e.StartsAt, End: e.EndsAt}
}

// Candidate describes a proposed booking.
type Candidate struct {
	EventID   string
	VehicleID *string
	DriverID  *string
	Window    Window
}

// CandidateFromEvent builds a candidate out of an existing or draft event.
func CandidateFromEvent(e domain.ScheduleEvent) Candidate {
	return Candidate{EventID: e.ID, VehicleID: e.VehicleID, DriverID: e.DriverID, Window: EventWindow(e)}
}

// Conflict names an existing event that collides with a candidate.
type Conflict struct {
	EventID    string    `json:"event_id"`
	Title      string    `json:"title"`
	Resource   Resource  `json:"resource"`
	ResourceID string    `json:"resource_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
}

// FindConflicts scans existing for events sharing a vehicle or driver with
// candidate in an overlapping window. Terminal events and the candidate
// itself are ignored. An event that shares both resources yields two
// conflicts.
func FindConflicts(candidate Candidate, existing []domain.ScheduleEvent) []Conflict {
	var conflicts []Conflict
	for _, e := range existing {
		if e.Status.Terminal() {
			continue
		}
		if candidate.EventID != "" && e.ID == candidate.EventID {
			continue
		}
		if !candidate.Window.Overlaps(EventWindow(e)) {
			continue
		}
		if sameID(candidate.VehicleID, e.VehicleID) {
			conflicts = append(conflicts, newConflict(e, ResourceVehicle, *e.VehicleID))
		}
		if sameID(candidate.DriverID, e.DriverID) {
			conflicts = append(conflicts, newConflict(e, ResourceDriver, *e.DriverID))
		}
	}
	return conflicts
}

func newConflict(e domain.ScheduleEvent, resource Resource, id string) Conflict {
	return Conflict{
		EventID:    e.ID,
		Title:      e.Title,
		Resource:   resource,
		ResourceID: id,
		StartsAt:   e.StartsAt,
		EndsAt:     e.EndsAt,
	}
}

func sameID(a, b *string) bool {
	return a != nil && b != nil && *a != "" && *a == *b
}

// busy reports whether a resource is booked by any blocking event in window.
func busy(window Window, events []domain.ScheduleEvent, match func(domain.ScheduleEvent) bool) bool {
	for _, e := range events {
		if e.Status.Terminal() || !match(e) {
			continue
		}
		if window.Overlaps(EventWindow(e)) {
			return true
		}
	}
	return false
}
