package domain

import "time"

// VehicleType enumerates fleet vehicle classes.
type VehicleType string

const (
	VehicleTypeSedan   VehicleType = "SEDAN"
	VehicleTypeVan     VehicleType = "VAN"
	VehicleTypeCoaster VehicleType = "COASTER"
	VehicleTypeBus     VehicleType = "BUS"
	VehicleTypePickup  VehicleType = "PICKUP"
)

// Valid reports whether t is a known vehicle type.
func (t VehicleType) Valid() bool {
	switch t {
	case VehicleTypeSedan, VehicleTypeVan, VehicleTypeCoaster, VehicleTypeBus, VehicleTypePickup:
		return true
	}
	return false
}

// VehicleStatus enumerates vehicle availability states.
type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "AVAILABLE"
	VehicleStatusInUse       VehicleStatus = "IN_USE"
	VehicleStatusMaintenance VehicleStatus = "MAINTENANCE"
	VehicleStatusInactive    VehicleStatus = "INACTIVE"
)

// Valid reports whether s is a known vehicle status.
func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusInUse, VehicleStatusMaintenance, VehicleStatusInactive:
		return true
	}
	return false
}

// Vehicle is an entry in the fleet registry.
type Vehicle struct {
	ID            string
	Code          string
	PlateNumber   string
	Type          VehicleType
	Campus        string
	Capacity      int
	Status        VehicleStatus
	OdometerKm    int
	LastServiceAt *time.Time
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
