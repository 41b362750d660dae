package dto

import (
	"time"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/scheduling"
)

// SubmitTripRequest payload.
type SubmitTripRequest struct {
	Purpose              string              `json:"purpose"`
	Destination          string              `json:"destination"`
	PickupLocation       string              `json:"pickup_location"`
	Campus               string              `json:"campus"`
	DepartureAt          time.Time           `json:"departure_at"`
	ReturnAt             time.Time           `json:"return_at"`
	Passengers           int                 `json:"passengers"`
	PreferredVehicleType *domain.VehicleType `json:"preferred_vehicle_type"`
}

// ApproveTripRequest payload.
type ApproveTripRequest struct {
	VehicleID  *string `json:"vehicle_id"`
	DriverID   *string `json:"driver_id"`
	AutoAssign bool    `json:"auto_assign"`
	Note       string  `json:"note"`
}

// TripNoteRequest carries the note for reject, cancel and complete.
type TripNoteRequest struct {
	Note string `json:"note"`
}

// TripResponse renders a trip request.
type TripResponse struct {
	ID                   string              `json:"id"`
	Reference            string              `json:"reference"`
	RequesterID          string              `json:"requester_id"`
	Purpose              string              `json:"purpose"`
	Destination          string              `json:"destination"`
	PickupLocation       string              `json:"pickup_location"`
	Campus               string              `json:"campus"`
	DepartureAt          time.Time           `json:"departure_at"`
	ReturnAt             time.Time           `json:"return_at"`
	Passengers           int                 `json:"passengers"`
	PreferredVehicleType *domain.VehicleType `json:"preferred_vehicle_type"`
	Status               domain.TripStatus   `json:"status"`
	DecisionNote         string              `json:"decision_note"`
	DecidedBy            *string             `json:"decided_by"`
	ScheduleEventID      *string             `json:"schedule_event_id"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// TripApprovalResponse is returned by approval.
type TripApprovalResponse struct {
	Trip      TripResponse          `json:"trip"`
	Event     EventResponse         `json:"event"`
	Conflicts []scheduling.Conflict `json:"conflicts"`
}
