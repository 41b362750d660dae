package domain

import "time"

// TripStatus enumerates trip request lifecycle states.
type TripStatus string

const (
	TripStatusPending   TripStatus = "PENDING"
	TripStatusApproved  TripStatus = "APPROVED"
	TripStatusRejected  TripStatus = "REJECTED"
	TripStatusCompleted TripStatus = "COMPLETED"
	TripStatusCancelled TripStatus = "CANCELLED"
)

// TripRequest is a faculty request for campus transport.
type TripRequest struct {
	ID                   string
	Reference            string
	RequesterID          string
	Purpose              string
	Destination          string
	PickupLocation       string
	Campus               string
	DepartureAt          time.Time
	ReturnAt             time.Time
	Passengers           int
	PreferredVehicleType *VehicleType
	Status               TripStatus
	DecisionNote         string
	DecidedBy            *string
	ScheduleEventID      *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
