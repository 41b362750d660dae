package domain

import "time"

// EventStatus enumerates schedule event states.
type EventStatus string

const (
	EventStatusPlanned   EventStatus = "PLANNED"
	EventStatusApproved  EventStatus = "APPROVED"
	EventStatusEnRoute   EventStatus = "EN_ROUTE"
	EventStatusCompleted EventStatus = "COMPLETED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

// Terminal reports whether no further transition is possible.
func (s EventStatus) Terminal() bool {
	return s == EventStatusCompleted || s == EventStatusCancelled
}

// BlockingEventStatuses are the statuses that hold a vehicle or driver.
var BlockingEventStatuses = []EventStatus{EventStatusPlanned, EventStatusApproved, EventStatusEnRoute}

// ScheduleEvent books a vehicle and/or driver for a time range.
type ScheduleEvent struct {
	ID            string
	Title         string
	TripRequestID *string
	VehicleID     *string
	DriverID      *string
	StartsAt      time.Time
	EndsAt        time.Time
	Status        EventStatus
	Notes         string
	CreatedBy     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Blocking reports whether the event holds its resources.
func (e *ScheduleEvent) Blocking() bool {
	return !e.Status.Terminal()
}
