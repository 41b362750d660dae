package service

import (
	"go.uber.org/zap"

	"github.com/spec-kit/campus-transport/internal/config"
	"github.com/spec-kit/campus-transport/internal/events"
	"github.com/spec-kit/campus-transport/internal/repository"
)

// Services bundles every application service.
type Services struct {
	Audit         *AuditService
	Auth          *AuthService
	Users         *UserService
	Vehicles      *VehicleService
	Drivers       *DriverService
	Schedule      *ScheduleService
	Trips         *TripService
	Maintenance   *MaintenanceService
	Reports       *ReportService
	Notifications *NotificationService
}

// Dependencies are the shared collaborators of every service. Dispatcher,
// Cache and Logger may be nil.
type Dependencies struct {
	Repos      repository.Repositories
	Dispatcher events.Dispatcher
	Cache      ReportCache
	Logger     *zap.Logger
}

// NewServices wires all services onto one set of repositories.
func NewServices(cfg config.Config, deps Dependencies) *Services {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	repos := deps.Repos
	audit := NewAuditService(repos.Audit, logger)
	schedule := NewScheduleService(cfg, ScheduleDependencies{
		ScheduleRepo: repos.Schedule,
		VehicleRepo:  repos.Vehicles,
		DriverRepo:   repos.Drivers,
		TripRepo:     repos.Trips,
		Audit:        audit,
		Dispatcher:   deps.Dispatcher,
		Logger:       logger,
	})
	return &Services{
		Audit: audit,
		Auth: NewAuthService(cfg, AuthDependencies{
			UserRepo:          repos.Users,
			PasswordResetRepo: repos.PasswordResets,
			Audit:             audit,
			Dispatcher:        deps.Dispatcher,
			Logger:            logger,
		}),
		Users: NewUserService(cfg, repos.Users, audit),
		Vehicles: NewVehicleService(VehicleDependencies{
			VehicleRepo:     repos.Vehicles,
			ScheduleRepo:    repos.Schedule,
			MaintenanceRepo: repos.Maintenance,
			Audit:           audit,
			Dispatcher:      deps.Dispatcher,
		}),
		Drivers: NewDriverService(DriverDependencies{
			DriverRepo:   repos.Drivers,
			UserRepo:     repos.Users,
			ScheduleRepo: repos.Schedule,
			Audit:        audit,
		}),
		Schedule: schedule,
		Trips: NewTripService(TripDependencies{
			TripRepo:   repos.Trips,
			Schedule:   schedule,
			Audit:      audit,
			Dispatcher: deps.Dispatcher,
			Logger:     logger,
		}),
		Maintenance: NewMaintenanceService(MaintenanceDependencies{
			MaintenanceRepo: repos.Maintenance,
			VehicleRepo:     repos.Vehicles,
			Audit:           audit,
			Dispatcher:      deps.Dispatcher,
			Logger:          logger,
		}),
		Reports: NewReportService(cfg, ReportDependencies{
			Repos:  repos,
			Cache:  deps.Cache,
			Logger: logger,
		}),
		Notifications: NewNotificationService(deps.Dispatcher, logger, cfg.Notification),
	}
}
