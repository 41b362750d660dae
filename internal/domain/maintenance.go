package domain

import "time"

// MaintenanceStatus enumerates the fixed maintenance workflow stages.
type MaintenanceStatus string

const (
	MaintenanceStatusReported     MaintenanceStatus = "REPORTED"
	MaintenanceStatusAcknowledged MaintenanceStatus = "ACKNOWLEDGED"
	MaintenanceStatusInProgress   MaintenanceStatus = "IN_PROGRESS"
	MaintenanceStatusCompleted    MaintenanceStatus = "COMPLETED"
)

// MaintenanceWorkflow is the ordered stage sequence.
var MaintenanceWorkflow = []MaintenanceStatus{
	MaintenanceStatusReported,
	MaintenanceStatusAcknowledged,
	MaintenanceStatusInProgress,
	MaintenanceStatusCompleted,
}

// OpenMaintenanceStatuses are the stages of a ticket that is not yet closed.
var OpenMaintenanceStatuses = []MaintenanceStatus{
	MaintenanceStatusReported,
	MaintenanceStatusAcknowledged,
	MaintenanceStatusInProgress,
}

// Next returns the stage following s. ok is false for the last stage or unknown values.
func (s MaintenanceStatus) Next() (MaintenanceStatus, bool) {
	for i, stage := range MaintenanceWorkflow {
		if stage == s && i+1 < len(MaintenanceWorkflow) {
			return MaintenanceWorkflow[i+1], true
		}
	}
	return "", false
}

// MaintenancePriority enumerates ticket urgency.
type MaintenancePriority string

const (
	MaintenancePriorityLow      MaintenancePriority = "LOW"
	MaintenancePriorityMedium   MaintenancePriority = "MEDIUM"
	MaintenancePriorityHigh     MaintenancePriority = "HIGH"
	MaintenancePriorityCritical MaintenancePriority = "CRITICAL"
)

// Valid reports whether p is a known priority.
func (p MaintenancePriority) Valid() bool {
	switch p {
	case MaintenancePriorityLow, MaintenancePriorityMedium, MaintenancePriorityHigh, MaintenancePriorityCritical:
		return true
	}
	return false
}

// GroundsVehicle reports whether a report at this priority takes the vehicle out of service.
func (p MaintenancePriority) GroundsVehicle() bool {
	return p == MaintenancePriorityHigh || p == MaintenancePriorityCritical
}

// MaintenanceTicket tracks a vehicle service issue.
type MaintenanceTicket struct {
	ID             string
	Reference      string
	VehicleID      string
	ReportedBy     string
	Title          string
	Description    string
	Priority       MaintenancePriority
	Status         MaintenanceStatus
	OdometerKm     *int
	Cost           *float64
	ResolutionNote string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}
