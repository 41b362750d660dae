package dto

import (
	"time"

	"github.com/spec-kit/campus-transport/internal/domain"
)

// ReportMaintenanceRequest payload.
type ReportMaintenanceRequest struct {
	VehicleID   string                     `json:"vehicle_id"`
	Title       string                     `json:"title"`
	Description string                     `json:"description"`
	Priority    domain.MaintenancePriority `json:"priority"`
	OdometerKm  *int                       `json:"odometer_km"`
}

// AdvanceMaintenanceRequest payload.
type AdvanceMaintenanceRequest struct {
	Note string   `json:"note"`
	Cost *float64 `json:"cost"`
}

// MaintenanceResponse renders a ticket.
type MaintenanceResponse struct {
	ID             string                     `json:"id"`
	Reference      string                     `json:"reference"`
	VehicleID      string                     `json:"vehicle_id"`
	ReportedBy     string                     `json:"reported_by"`
	Title          string                     `json:"title"`
	Description    string                     `json:"description"`
	Priority       domain.MaintenancePriority `json:"priority"`
	Status         domain.MaintenanceStatus   `json:"status"`
	OdometerKm     *int                       `json:"odometer_km"`
	Cost           *float64                   `json:"cost"`
	ResolutionNote string                     `json:"resolution_note"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
	CompletedAt    *time.Time                 `json:"completed_at"`
}
