package dto

import (
	"time"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/scheduling"
)

// CreateEventRequest payload.
type CreateEventRequest struct {
	Title     string             `json:"title"`
	VehicleID *string            `json:"vehicle_id"`
	DriverID  *string            `json:"driver_id"`
	StartsAt  time.Time          `json:"starts_at"`
	EndsAt    time.Time          `json:"ends_at"`
	Status    domain.EventStatus `json:"status"`
	Notes     string             `json:"notes"`
}

// UpdateEventRequest payload. An empty vehicle_id or driver_id clears it.
type UpdateEventRequest struct {
	Title     *string    `json:"title"`
	VehicleID *string    `json:"vehicle_id"`
	DriverID  *string    `json:"driver_id"`
	StartsAt  *time.Time `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
	Notes     *string    `json:"notes"`
}

// EventStatusRequest moves an event along its workflow.
type EventStatusRequest struct {
	Status domain.EventStatus `json:"status"`
	Note   string             `json:"note"`
}

// ConflictCheckRequest is a dry-run booking.
type ConflictCheckRequest struct {
	EventID   string    `json:"event_id"`
	VehicleID *string   `json:"vehicle_id"`
	DriverID  *string   `json:"driver_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}

// AutoAssignRequest asks for free resources in a window.
type AutoAssignRequest struct {
	StartsAt    time.Time           `json:"starts_at"`
	EndsAt      time.Time           `json:"ends_at"`
	VehicleType *domain.VehicleType `json:"vehicle_type"`
	Campus      string              `json:"campus"`
	Passengers  int                 `json:"passengers"`
	NeedVehicle *bool               `json:"need_vehicle"`
	NeedDriver  *bool               `json:"need_driver"`
}

// EventResponse renders a calendar event.
type EventResponse struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	TripRequestID *string            `json:"trip_request_id"`
	VehicleID     *string            `json:"vehicle_id"`
	DriverID      *string            `json:"driver_id"`
	StartsAt      time.Time          `json:"starts_at"`
	EndsAt        time.Time          `json:"ends_at"`
	Status        domain.EventStatus `json:"status"`
	Notes         string             `json:"notes"`
	CreatedBy     *string            `json:"created_by"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// EventWriteResponse pairs a written event with advisory conflicts.
type EventWriteResponse struct {
	Event     EventResponse         `json:"event"`
	Conflicts []scheduling.Conflict `json:"conflicts"`
}

// AssignmentResponse is the outcome of auto-assignment.
type AssignmentResponse struct {
	Vehicle *VehicleResponse `json:"vehicle"`
	Driver  *DriverResponse  `json:"driver"`
}
