package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-transport/internal/auth"
	"github.com/spec-kit/campus-transport/internal/config"
	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/events"
	"github.com/spec-kit/campus-transport/internal/repository"
	"github.com/spec-kit/campus-transport/internal/repository/memory"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	cfg      config.Config
	repos    repository.Repositories
	svc      *Services
	bus      events.Dispatcher
	events   *recorder
	admin    *domain.User
	faculty  *domain.User
	driverAc *domain.User
}

// recorder captures every published event.
type recorder struct {
	mu        sync.Mutex
	published []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, e)
	return nil
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.published))
	for _, e := range r.published {
		out = append(out, e.Type)
	}
	return out
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   15,
			PasswordResetTTLMinutes: 30,
			BcryptCost:              4,
		},
		Schedule: config.ScheduleConfig{MaxRangeDays: 92},
		Reports:  config.ReportsConfig{CacheTTLSeconds: 60, ExportBatchSize: 2},
	}
}

func newFixture(t *testing.T, mutate ...func(*config.Config)) *fixture {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	repos := memory.NewRepositories()
	dispatcher := events.NewInMemoryDispatcher(nil)
	rec := &recorder{}
	dispatcher.Subscribe(events.AllEvents, rec.handle)

	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		cfg:    cfg,
		repos:  repos,
		svc:    NewServices(cfg, Dependencies{Repos: repos, Dispatcher: dispatcher}),
		bus:    dispatcher,
		events: rec,
	}
	f.admin = f.user("Admin", "admin@campus.edu", domain.RoleAdmin)
	f.faculty = f.user("Fay Faculty", "fay@campus.edu", domain.RoleFaculty)
	f.driverAc = f.user("Dan Driver", "dan@campus.edu", domain.RoleDriver)
	return f
}

// rewire rebuilds the services over repos changed by mutate.
func (f *fixture) rewire(mutate func(*repository.Repositories)) {
	mutate(&f.repos)
	f.svc = NewServices(f.cfg, Dependencies{Repos: f.repos, Dispatcher: f.bus})
}

func (f *fixture) user(name, email string, role domain.Role) *domain.User {
	f.t.Helper()
	hash, err := auth.HashPassword("password123", 4)
	require.NoError(f.t, err)
	u := &domain.User{Name: name, Email: email, PasswordHash: hash, Role: role, Active: true}
	require.NoError(f.t, f.repos.Users.Create(f.ctx, u))
	return u
}

func (f *fixture) vehicle(code string, vt domain.VehicleType, capacity int) *domain.Vehicle {
	f.t.Helper()
	v, err := f.svc.Vehicles.CreateVehicle(f.ctx, f.admin, VehicleInput{
		Code:        code,
		PlateNumber: "PL-" + code,
		Type:        vt,
		Campus:      "Main",
		Capacity:    capacity,
	})
	require.NoError(f.t, err)
	return v
}

func (f *fixture) driver(name, license string, account *domain.User) *domain.Driver {
	f.t.Helper()
	input := DriverInput{
		Name:          name,
		Phone:         "555-0100",
		LicenseNumber: license,
		LicenseExpiry: time.Now().AddDate(2, 0, 0),
		Campus:        "Main",
	}
	if account != nil {
		input.UserID = &account.ID
	}
	d, err := f.svc.Drivers.CreateDriver(f.ctx, f.admin, input)
	require.NoError(f.t, err)
	return d
}

func (f *fixture) trip(departure time.Time, hours, passengers int) *domain.TripRequest {
	f.t.Helper()
	trip, err := f.svc.Trips.Submit(f.ctx, f.faculty, TripSubmitInput{
		Purpose:     "Field study",
		Destination: "Observatory",
		Campus:      "Main",
		DepartureAt: departure,
		ReturnAt:    departure.Add(time.Duration(hours) * time.Hour),
		Passengers:  passengers,
	})
	require.NoError(f.t, err)
	return trip
}

// tomorrow returns a whole hour one to two days ahead.
func tomorrow(hour int) time.Time {
	d := time.Now().UTC().AddDate(0, 0, 2)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
}

func errCode(err error) string {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
