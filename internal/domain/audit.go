package domain

import "time"

// EntityType names the aggregate an audit entry refers to.
type EntityType string

const (
	EntityTrip          EntityType = "TRIP"
	EntityScheduleEvent EntityType = "SCHEDULE_EVENT"
	EntityMaintenance   EntityType = "MAINTENANCE"
	EntityVehicle       EntityType = "VEHICLE"
	EntityDriver        EntityType = "DRIVER"
	EntityUser          EntityType = "USER"
)

// AuditAction captures what happened to the entity.
type AuditAction string

const (
	AuditCreated       AuditAction = "CREATED"
	AuditUpdated       AuditAction = "UPDATED"
	AuditDeleted       AuditAction = "DELETED"
	AuditStatusChanged AuditAction = "STATUS_CHANGED"
	AuditAssigned      AuditAction = "ASSIGNED"
)

// AuditEntry is an immutable history record.
type AuditEntry struct {
	ID         string
	EntityType EntityType
	EntityID   string
	ActorID    *string
	ActorRole  Role
	Action     AuditAction
	OldValue   map[string]any
	NewValue   map[string]any
	CreatedAt  time.Time
}
