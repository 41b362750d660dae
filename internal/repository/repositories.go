package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories bundles every store the services depend on.
type Repositories struct {
	Users          UserRepository
	PasswordResets PasswordResetRepository
	Vehicles       VehicleRepository
	Drivers        DriverRepository
	Trips          TripRepository
	Schedule       ScheduleRepository
	Maintenance    MaintenanceRepository
	Audit          AuditRepository
}

// NewPostgresRepositories wires the Postgres implementations onto one pool.
func NewPostgresRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:          NewUserRepository(pool),
		PasswordResets: NewPasswordResetRepository(pool),
		Vehicles:       NewVehicleRepository(pool),
		Drivers:        NewDriverRepository(pool),
		Trips:          NewTripRepository(pool),
		Schedule:       NewScheduleRepository(pool),
		Maintenance:    NewMaintenanceRepository(pool),
		Audit:          NewAuditRepository(pool),
	}
}
