package dto

import (
	"time"

	"github.com/spec-kit/campus-transport/internal/domain"
)

// CreateVehicleRequest payload.
type CreateVehicleRequest struct {
	Code          string               `json:"code"`
	PlateNumber   string               `json:"plate_number"`
	Type          domain.VehicleType   `json:"type"`
	Campus        string               `json:"campus"`
	Capacity      int                  `json:"capacity"`
	Status        domain.VehicleStatus `json:"status"`
	OdometerKm    int                  `json:"odometer_km"`
	LastServiceAt *time.Time           `json:"last_service_at"`
	Notes         string               `json:"notes"`
}

// UpdateVehicleRequest payload. Omitted fields are unchanged.
type UpdateVehicleRequest struct {
	Code        *string               `json:"code"`
	PlateNumber *string               `json:"plate_number"`
	Type        *domain.VehicleType   `json:"type"`
	Campus      *string               `json:"campus"`
	Capacity    *int                  `json:"capacity"`
	Status      *domain.VehicleStatus `json:"status"`
	OdometerKm  *int                  `json:"odometer_km"`
	Notes       *string               `json:"notes"`
}

// VehicleResponse renders a vehicle.
type VehicleResponse struct {
	ID            string               `json:"id"`
	Code          string               `json:"code"`
	PlateNumber   string               `json:"plate_number"`
	Type          domain.VehicleType   `json:"type"`
	Campus        string               `json:"campus"`
	Capacity      int                  `json:"capacity"`
	Status        domain.VehicleStatus `json:"status"`
	OdometerKm    int                  `json:"odometer_km"`
	LastServiceAt *time.Time           `json:"last_service_at"`
	Notes         string               `json:"notes"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// CreateDriverRequest payload. LicenseExpiry is a calendar date.
type CreateDriverRequest struct {
	UserID        *string             `json:"user_id"`
	Name          string              `json:"name"`
	Phone         string              `json:"phone"`
	LicenseNumber string              `json:"license_number"`
	LicenseExpiry string              `json:"license_expiry"`
	Campus        string              `json:"campus"`
	Status        domain.DriverStatus `json:"status"`
}

// UpdateDriverRequest payload. An empty user_id unlinks the account.
type UpdateDriverRequest struct {
	UserID        *string              `json:"user_id"`
	Name          *string              `json:"name"`
	Phone         *string              `json:"phone"`
	LicenseNumber *string              `json:"license_number"`
	LicenseExpiry *string              `json:"license_expiry"`
	Campus        *string              `json:"campus"`
	Status        *domain.DriverStatus `json:"status"`
}

// DriverResponse renders a driver.
type DriverResponse struct {
	ID            string              `json:"id"`
	UserID        *string             `json:"user_id"`
	Name          string              `json:"name"`
	Phone         string              `json:"phone"`
	LicenseNumber string              `json:"license_number"`
	LicenseExpiry string              `json:"license_expiry"`
	Campus        string              `json:"campus"`
	Status        domain.DriverStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}
