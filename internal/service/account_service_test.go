package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/events"
	"github.com/spec-kit/campus-transport/internal/repository"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Auth.Register(f.ctx, "Nina New", " Nina@Campus.edu ", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFaculty, res.User.Role)
	assert.Equal(t, "nina@campus.edu", res.User.Email)
	assert.NotEmpty(t, res.Token)

	claims, err := f.svc.Auth.TokenManager().ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)

	_, err = f.svc.Auth.Register(f.ctx, "Nina Again", "nina@campus.edu", "supersecret")
	assert.Equal(t, "CONFLICT", errCode(err))

	_, err = f.svc.Auth.Register(f.ctx, "Short", "short@campus.edu", "abc")
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))

	_, err = f.svc.Auth.Register(f.ctx, "Bad", "not-an-email", "supersecret")
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))

	login, err := f.svc.Auth.Login(f.ctx, "NINA@campus.edu", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = f.svc.Auth.Login(f.ctx, "nina@campus.edu", "wrong-password")
	assert.Equal(t, "UNAUTHORIZED", errCode(err))
	_, err = f.svc.Auth.Login(f.ctx, "ghost@campus.edu", "supersecret")
	assert.Equal(t, "UNAUTHORIZED", errCode(err))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)

	token, err := f.svc.Auth.RequestPasswordReset(f.ctx, "ghost@campus.edu")
	require.NoError(t, err)
	assert.Nil(t, token)

	token, err = f.svc.Auth.RequestPasswordReset(f.ctx, f.faculty.Email)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.True(t, token.ExpiresAt.After(time.Now()))
	assert.Contains(t, f.events.types(), events.EventPasswordResetRequested)

	require.NoError(t, f.svc.Auth.ConfirmPasswordReset(f.ctx, token.Token, "brand-new-pass"))
	_, err = f.svc.Auth.Login(f.ctx, f.faculty.Email, "brand-new-pass")
	require.NoError(t, err)

	err = f.svc.Auth.ConfirmPasswordReset(f.ctx, token.Token, "another-pass")
	assert.Equal(t, "VALIDATION_FAILED", errCode(err), "tokens are single use")

	err = f.svc.Auth.ConfirmPasswordReset(f.ctx, "nope", "another-pass")
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Auth.ChangePassword(f.ctx, f.faculty, "wrong-current", "changed-pass")
	assert.Equal(t, "UNAUTHORIZED", errCode(err))

	require.NoError(t, f.svc.Auth.ChangePassword(f.ctx, f.faculty, "password123", "changed-pass"))
	_, err = f.svc.Auth.Login(f.ctx, f.faculty.Email, "changed-pass")
	assert.NoError(t, err)
}

func TestInactiveAccountCannotLogin(t *testing.T) {
	f := newFixture(t)
	inactive := false
	_, err := f.svc.Users.UpdateUser(f.ctx, f.admin, f.faculty.ID, UserUpdateInput{Active: &inactive})
	require.NoError(t, err)

	_, err = f.svc.Auth.Login(f.ctx, f.faculty.Email, "password123")
	assert.Equal(t, "UNAUTHORIZED", errCode(err))
}

func TestUserAdministration(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Users.CreateUser(f.ctx, f.admin, UserCreateInput{
		Name:     "Drew Driver",
		Email:    "drew@campus.edu",
		Password: "password123",
		Role:     domain.RoleDriver,
	})
	require.NoError(t, err)
	assert.True(t, created.Active)

	_, err = f.svc.Users.CreateUser(f.ctx, f.faculty, UserCreateInput{Name: "x", Email: "x@campus.edu", Password: "password123", Role: domain.RoleAdmin})
	assert.Equal(t, "FORBIDDEN", errCode(err))

	_, err = f.svc.Users.CreateUser(f.ctx, f.admin, UserCreateInput{Name: "x", Email: "x@campus.edu", Password: "password123", Role: "OWNER"})
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))

	demote := domain.RoleFaculty
	_, err = f.svc.Users.UpdateUser(f.ctx, f.admin, f.admin.ID, UserUpdateInput{Role: &demote})
	assert.Equal(t, "CONFLICT", errCode(err))

	inactive := false
	_, err = f.svc.Users.UpdateUser(f.ctx, f.admin, f.admin.ID, UserUpdateInput{Active: &inactive})
	assert.Equal(t, "CONFLICT", errCode(err))

	promote := domain.RoleAdmin
	updated, err := f.svc.Users.UpdateUser(f.ctx, f.admin, created.ID, UserUpdateInput{Role: &promote})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	_, err = f.svc.Users.GetUser(f.ctx, f.faculty, f.admin.ID)
	assert.Equal(t, "FORBIDDEN", errCode(err))
	self, err := f.svc.Users.GetUser(f.ctx, f.faculty, f.faculty.ID)
	require.NoError(t, err)
	assert.Equal(t, f.faculty.Email, self.Email)

	role := domain.RoleAdmin
	admins, err := f.svc.Users.ListUsers(f.ctx, f.admin, repository.UserFilter{Role: &role})
	require.NoError(t, err)
	assert.Len(t, admins, 2)
}

func TestVehicleRegistry(t *testing.T) {
	f := newFixture(t)
	v := f.vehicle("v-01", domain.VehicleTypeVan, 8)
	assert.Equal(t, "V-01", v.Code)
	assert.Equal(t, domain.VehicleStatusAvailable, v.Status)

	_, err := f.svc.Vehicles.CreateVehicle(f.ctx, f.admin, VehicleInput{Code: "V-01", PlateNumber: "OTHER", Type: domain.VehicleTypeVan, Campus: "Main", Capacity: 8})
	assert.Equal(t, "CONFLICT", errCode(err))

	_, err = f.svc.Vehicles.CreateVehicle(f.ctx, f.admin, VehicleInput{Code: "V-02", PlateNumber: "P2", Type: "TANK", Campus: "Main", Capacity: 8})
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))

	lower := 10
	_, err = f.svc.Vehicles.UpdateVehicle(f.ctx, f.admin, v.ID, VehicleUpdateInput{OdometerKm: &lower})
	require.NoError(t, err)
	lower = 5
	_, err = f.svc.Vehicles.UpdateVehicle(f.ctx, f.admin, v.ID, VehicleUpdateInput{OdometerKm: &lower})
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))

	f.event("Booked", &v.ID, nil, tomorrow(8), 2)
	err = f.svc.Vehicles.DeleteVehicle(f.ctx, f.admin, v.ID)
	assert.Equal(t, "CONFLICT", errCode(err))

	spare := f.vehicle("V-09", domain.VehicleTypeSedan, 4)
	require.NoError(t, f.svc.Vehicles.DeleteVehicle(f.ctx, f.admin, spare.ID))
	_, err = f.svc.Vehicles.GetVehicle(f.ctx, f.admin, spare.ID)
	assert.Equal(t, "NOT_FOUND", errCode(err))

	list, err := f.svc.Vehicles.ListVehicles(f.ctx, f.faculty, repository.VehicleFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDriverRegistry(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Drivers.CreateDriver(f.ctx, f.admin, DriverInput{
		UserID:        &f.faculty.ID,
		Name:          "Fay",
		LicenseNumber: "LIC-F",
		LicenseExpiry: time.Now().AddDate(1, 0, 0),
		Campus:        "Main",
	})
	assert.Equal(t, "VALIDATION_FAILED", errCode(err), "linked account must be a driver")

	d := f.driver("Dan Driver", "lic-1", f.driverAc)
	assert.Equal(t, "LIC-1", d.LicenseNumber)

	_, err = f.svc.Drivers.CreateDriver(f.ctx, f.admin, DriverInput{
		Name:          "Copy",
		LicenseNumber: "LIC-1",
		LicenseExpiry: time.Now().AddDate(1, 0, 0),
		Campus:        "Main",
	})
	assert.Equal(t, "CONFLICT", errCode(err))

	mine, err := f.svc.Drivers.DriverForUser(f.ctx, f.driverAc)
	require.NoError(t, err)
	assert.Equal(t, d.ID, mine.ID)

	leave := domain.DriverStatusOnLeave
	_, err = f.svc.Drivers.UpdateDriver(f.ctx, f.admin, d.ID, DriverUpdateInput{Status: &leave})
	require.NoError(t, err)

	_, err = f.svc.Schedule.CreateEvent(f.ctx, f.admin, EventInput{Title: "x", DriverID: &d.ID, StartsAt: tomorrow(8), EndsAt: tomorrow(9)})
	assert.Equal(t, "CONFLICT", errCode(err), "drivers on leave cannot be booked")
}
