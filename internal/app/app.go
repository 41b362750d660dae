// Package app assembles the service graph shared by the API server and the
// fleetctl CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/campus-transport/internal/api/http"
	"github.com/spec-kit/campus-transport/internal/api/http/handlers"
	"github.com/spec-kit/campus-transport/internal/auth"
	"github.com/spec-kit/campus-transport/internal/config"
	"github.com/spec-kit/campus-transport/internal/events"
	"github.com/spec-kit/campus-transport/internal/observability"
	"github.com/spec-kit/campus-transport/internal/persistence"
	"github.com/spec-kit/campus-transport/internal/repository"
	"github.com/spec-kit/campus-transport/internal/repository/memory"
	"github.com/spec-kit/campus-transport/internal/service"
	"github.com/spec-kit/campus-transport/internal/worker"
)

const relayBuffer = 512

// Container owns long-lived resources. Close releases them in reverse order
// of acquisition.
type Container struct {
	Config     config.Config
	Logger     *zap.Logger
	Postgres   *persistence.Postgres
	Redis      *persistence.Redis
	Repos      repository.Repositories
	Dispatcher events.Dispatcher
	Services   *service.Services
	Metrics    *observability.Metrics

	relay *events.RedisRelay
}

// Options tune container construction.
type Options struct {
	// Migrate applies SQL migrations regardless of POSTGRES_RUN_MIGRATIONS.
	Migrate bool
	// SkipRedis leaves Redis disabled, as one-shot CLI commands do.
	SkipRedis bool
}

// New connects to the configured stores and wires every service. Without a
// Postgres DSN it runs on in-memory repositories.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	c.Postgres = pg

	if pg.Enabled() {
		if cfg.Postgres.RunMigrations || opts.Migrate {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		c.Repos = repository.NewPostgresRepositories(pg.PoolHandle())
	} else {
		c.Repos = memory.NewRepositories()
	}

	if opts.SkipRedis {
		c.Redis = &persistence.Redis{}
	} else {
		c.Redis = persistence.NewRedis(cfg.Redis, logger)
	}

	c.Dispatcher = events.NewInMemoryDispatcher(logger)

	var cache service.ReportCache
	if c.Redis.Enabled() {
		cache = persistence.NewRedisCache(c.Redis.Client)
		c.relay = events.NewRedisRelay(c.Redis.Client, cfg.Redis.EventChannel, relayBuffer, logger)
		worker.StartEventRelay(c.Dispatcher, c.relay)
	}

	c.Services = service.NewServices(cfg, service.Dependencies{
		Repos:      c.Repos,
		Dispatcher: c.Dispatcher,
		Cache:      cache,
		Logger:     logger,
	})
	worker.StartNotificationWorker(c.Dispatcher, c.Services.Notifications, c.Metrics)

	return c, nil
}

// HTTPApp builds the fiber application with every route registered.
func (c *Container) HTTPApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               c.Config.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	httptransport.RegisterMiddlewares(app, c.Logger, c.Metrics, c.Config.App.RequestTimeout())

	svc := c.Services
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(c.Config.App.Name, c.Config.App.Version, map[string]handlers.Pinger{
			"postgres": c.Postgres,
			"redis":    c.Redis,
		}, c.Metrics),
		Auth:           handlers.NewAuthHandler(svc.Auth, c.Config.App.Env != "production"),
		Users:          handlers.NewUsersHandler(svc.Users),
		Fleet:          handlers.NewFleetHandler(svc.Vehicles, svc.Drivers),
		Trips:          handlers.NewTripsHandler(svc.Trips),
		Schedule:       handlers.NewScheduleHandler(svc.Schedule),
		Maintenance:    handlers.NewMaintenanceHandler(svc.Maintenance),
		Audit:          handlers.NewAuditHandler(svc.Audit),
		Reports:        handlers.NewReportsHandler(svc.Reports),
		AuthMiddleware: auth.NewAuthMiddleware(svc.Auth.TokenManager(), c.Repos.Users),
	})
	return app
}

// Close drains the event relay and closes store connections.
func (c *Container) Close() {
	if c.relay != nil {
		c.relay.Close()
	}
	c.Redis.Close()
	c.Postgres.Close()
	_ = c.Logger.Sync()
}
