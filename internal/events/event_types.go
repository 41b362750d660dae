package events

import (
	"time"

	"github.com/spec-kit/campus-transport/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTripSubmitted          EventType = "trip_submitted"
	EventTripStatusChanged      EventType = "trip_status_changed"
	EventScheduleEventCreated   EventType = "schedule_event_created"
	EventScheduleEventUpdated   EventType = "schedule_event_updated"
	EventScheduleStatusChanged  EventType = "schedule_event_status_changed"
	EventMaintenanceReported    EventType = "maintenance_reported"
	EventMaintenanceAdvanced    EventType = "maintenance_advanced"
	EventVehicleStatusChanged   EventType = "vehicle_status_changed"
	EventPasswordResetRequested EventType = "password_reset_requested"

	// AllEvents subscribes a handler to every event type.
	AllEvents EventType = "*"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID *string     `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	EntityType domain.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Actor      Actor             `json:"actor"`
	Timestamp  time.Time         `json:"timestamp"`
	Payload    interface{}       `json:"payload"`
}

// TripSubmittedPayload payload.
type TripSubmittedPayload struct {
	Reference   string    `json:"reference"`
	RequesterID string    `json:"requester_id"`
	Destination string    `json:"destination"`
	DepartureAt time.Time `json:"departure_at"`
	ReturnAt    time.Time `json:"return_at"`
	Passengers  int       `json:"passengers"`
}

// TripStatusChangedPayload payload.
type TripStatusChangedPayload struct {
	Reference       string            `json:"reference"`
	RequesterID     string            `json:"requester_id"`
	OldStatus       domain.TripStatus `json:"old_status"`
	NewStatus       domain.TripStatus `json:"new_status"`
	Note            string            `json:"note,omitempty"`
	ScheduleEventID *string           `json:"schedule_event_id,omitempty"`
}

// ScheduleEventPayload payload for created/updated events.
type ScheduleEventPayload struct {
	Title         string    `json:"title"`
	TripRequestID *string   `json:"trip_request_id,omitempty"`
	VehicleID     *string   `json:"vehicle_id,omitempty"`
	DriverID      *string   `json:"driver_id,omitempty"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	Conflicts     int       `json:"conflicts"`
}

// ScheduleStatusChangedPayload payload.
type ScheduleStatusChangedPayload struct {
	OldStatus domain.EventStatus `json:"old_status"`
	NewStatus domain.EventStatus `json:"new_status"`
	VehicleID *string            `json:"vehicle_id,omitempty"`
	DriverID  *string            `json:"driver_id,omitempty"`
}

// MaintenancePayload payload for reported/advanced tickets.
type MaintenancePayload struct {
	Reference string                     `json:"reference"`
	VehicleID string                     `json:"vehicle_id"`
	Priority  domain.MaintenancePriority `json:"priority"`
	OldStatus domain.MaintenanceStatus   `json:"old_status,omitempty"`
	NewStatus domain.MaintenanceStatus   `json:"new_status"`
}

// VehicleStatusChangedPayload payload.
type VehicleStatusChangedPayload struct {
	Code      string               `json:"code"`
	OldStatus domain.VehicleStatus `json:"old_status"`
	NewStatus domain.VehicleStatus `json:"new_status"`
	Reason    string               `json:"reason,omitempty"`
}

// PasswordResetRequestedPayload payload. Token is only delivered in-process.
type PasswordResetRequestedPayload struct {
	Email     string    `json:"email"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
