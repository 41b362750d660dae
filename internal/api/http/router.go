package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-transport/internal/api/http/handlers"
	"github.com/spec-kit/campus-transport/internal/auth"
	"github.com/spec-kit/campus-transport/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Fleet          *handlers.FleetHandler
	Trips          *handlers.TripsHandler
	Schedule       *handlers.ScheduleHandler
	Maintenance    *handlers.MaintenanceHandler
	Audit          *handlers.AuditHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Role guards reject callers early;
// services repeat the checks that depend on ownership.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	session := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	session.Get("/me", cfg.Auth.Me)
	session.Post("/logout", cfg.Auth.Logout)
	session.Post("/password/change", cfg.Auth.ChangePassword)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	admin := auth.RequireAdmin()
	staff := auth.RequireRole(domain.RoleAdmin, domain.RoleDriver)
	requesters := auth.RequireRole(domain.RoleAdmin, domain.RoleFaculty)

	api.Get("/metrics", admin, cfg.Health.Metrics)

	users := api.Group("/users")
	users.Get("/", admin, cfg.Users.ListUsers)
	users.Post("/", admin, cfg.Users.CreateUser)
	users.Get("/:id", cfg.Users.GetUser)
	users.Patch("/:id", admin, cfg.Users.UpdateUser)

	vehicles := api.Group("/vehicles")
	vehicles.Get("/", cfg.Fleet.ListVehicles)
	vehicles.Post("/", admin, cfg.Fleet.CreateVehicle)
	vehicles.Get("/:id", cfg.Fleet.GetVehicle)
	vehicles.Patch("/:id", admin, cfg.Fleet.UpdateVehicle)
	vehicles.Delete("/:id", admin, cfg.Fleet.DeleteVehicle)

	drivers := api.Group("/drivers")
	drivers.Get("/", cfg.Fleet.ListDrivers)
	drivers.Post("/", admin, cfg.Fleet.CreateDriver)
	drivers.Get("/me", auth.RequireRole(domain.RoleDriver), cfg.Fleet.MyDriverProfile)
	drivers.Get("/:id", cfg.Fleet.GetDriver)
	drivers.Patch("/:id", admin, cfg.Fleet.UpdateDriver)
	drivers.Delete("/:id", admin, cfg.Fleet.DeleteDriver)

	trips := api.Group("/trips")
	trips.Get("/", requesters, cfg.Trips.ListTrips)
	trips.Post("/", requesters, cfg.Trips.SubmitTrip)
	trips.Get("/:id", cfg.Trips.GetTrip)
	trips.Post("/:id/approve", admin, cfg.Trips.ApproveTrip)
	trips.Post("/:id/reject", admin, cfg.Trips.RejectTrip)
	trips.Post("/:id/cancel", requesters, cfg.Trips.CancelTrip)
	trips.Post("/:id/complete", staff, cfg.Trips.CompleteTrip)

	schedule := api.Group("/schedule")
	schedule.Get("/", cfg.Schedule.Calendar)
	schedule.Post("/", admin, cfg.Schedule.CreateEvent)
	schedule.Post("/conflicts", admin, cfg.Schedule.CheckConflicts)
	schedule.Post("/auto-assign", admin, cfg.Schedule.AutoAssign)
	schedule.Get("/:id", cfg.Schedule.GetEvent)
	schedule.Patch("/:id", admin, cfg.Schedule.UpdateEvent)
	schedule.Post("/:id/status", staff, cfg.Schedule.ChangeStatus)

	maintenance := api.Group("/maintenance", staff)
	maintenance.Get("/", cfg.Maintenance.ListTickets)
	maintenance.Post("/", cfg.Maintenance.ReportTicket)
	maintenance.Get("/:id", cfg.Maintenance.GetTicket)
	maintenance.Post("/:id/advance", admin, cfg.Maintenance.AdvanceTicket)

	audit := api.Group("/audit", admin)
	audit.Get("/", cfg.Audit.ListEntries)
	audit.Get("/:entity/:id", cfg.Audit.EntityHistory)

	reports := api.Group("/reports", admin)
	reports.Get("/summary", cfg.Reports.Summary)
	reports.Get("/export/:kind", cfg.Reports.Export)
	reports.Get("/trips/:id/sheet", cfg.Reports.TripSheet)
}
