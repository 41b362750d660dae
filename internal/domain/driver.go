package domain

import "time"

// DriverStatus enumerates driver availability states.
type DriverStatus string

const (
	DriverStatusAvailable DriverStatus = "AVAILABLE"
	DriverStatusOnTrip    DriverStatus = "ON_TRIP"
	DriverStatusOnLeave   DriverStatus = "ON_LEAVE"
	DriverStatusInactive  DriverStatus = "INACTIVE"
)

// Valid reports whether s is a known driver status.
func (s DriverStatus) Valid() bool {
	switch s {
	case DriverStatusAvailable, DriverStatusOnTrip, DriverStatusOnLeave, DriverStatusInactive:
		return true
	}
	return false
}

// Driver is an entry in the driver registry, optionally linked to a DRIVER account.
type Driver struct {
	ID            string
	UserID        *string
	Name          string
	Phone         string
	LicenseNumber string
	LicenseExpiry time.Time
	Campus        string
	Status        DriverStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LicenseValidAt reports whether the license is still valid at t.
func (d *Driver) LicenseValidAt(t time.Time) bool {
	return t.Before(d.LicenseExpiry)
}
