package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-transport/internal/app"
	"github.com/spec-kit/campus-transport/internal/config"
	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/service"
)

type apiClient struct {
	t   *testing.T
	app *fiber.App
}

type apiResponse struct {
	status int
	header http.Header
	body   map[string]any
	raw    []byte
}

func newAPI(t *testing.T) (*apiClient, *app.Container) {
	t.Helper()
	cfg := config.Config{
		App:      config.AppConfig{Name: "campus-transport", Env: "test", Version: "test"},
		Auth:     config.AuthConfig{JWTSecret: "router-test", AccessTokenTTLMinutes: 15, PasswordResetTTLMinutes: 15, BcryptCost: 4},
		Schedule: config.ScheduleConfig{MaxRangeDays: 92},
		Reports:  config.ReportsConfig{CacheTTLSeconds: 60, ExportBatchSize: 50},
	}
	container, err := app.New(context.Background(), cfg, nil, app.Options{SkipRedis: true})
	require.NoError(t, err)
	t.Cleanup(container.Close)
	return &apiClient{t: t, app: container.HTTPApp()}, container
}

func (c *apiClient) do(method, path, token string, body any) apiResponse {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			payload, err := json.Marshal(b)
			require.NoError(c.t, err)
			reader = bytes.NewReader(payload)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	out := apiResponse{status: resp.StatusCode, header: resp.Header, raw: raw}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(c.t, json.Unmarshal(raw, &out.body))
	}
	return out
}

func (r apiResponse) data() map[string]any {
	data, _ := r.body["data"].(map[string]any)
	return data
}

func (r apiResponse) errorCode() string {
	errBody, _ := r.body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func (c *apiClient) login(email, password string) string {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, resp.status, string(resp.raw))
	authBody := resp.data()["auth"].(map[string]any)
	return authBody["token"].(string)
}

func TestHealthEndpoints(t *testing.T) {
	api, _ := newAPI(t)

	live := api.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, live.status)
	assert.Equal(t, "alive", live.body["status"])
	assert.NotEmpty(t, live.header.Get("X-Request-ID"))

	ready := api.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, ready.status)
	deps := ready.body["dependencies"].(map[string]any)
	assert.Equal(t, "disabled", deps["postgres"])
	assert.Equal(t, "disabled", deps["redis"])
}

func TestAuthAndRoleGuards(t *testing.T) {
	api, _ := newAPI(t)

	resp := api.do(http.MethodGet, "/api/v1/vehicles", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, "UNAUTHORIZED", resp.errorCode())

	resp = api.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Fran Faculty", "email": "fran@campus.edu", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
	user := resp.data()["user"].(map[string]any)
	assert.Equal(t, "FACULTY", user["role"])
	assert.NotContains(t, user, "password_hash")

	resp = api.do(http.MethodPost, "/auth/register", "", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "VALIDATION_FAILED", resp.errorCode())

	token := api.login("fran@campus.edu", "password123")

	me := api.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, me.status)
	assert.Equal(t, "fran@campus.edu", me.data()["email"])

	resp = api.do(http.MethodPost, "/api/v1/vehicles", token, map[string]any{"code": "V-01"})
	assert.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "FORBIDDEN", resp.errorCode())

	resp = api.do(http.MethodGet, "/api/v1/reports/summary", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "fran@campus.edu", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestPasswordResetOverHTTP(t *testing.T) {
	api, _ := newAPI(t)
	resp := api.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Fran Faculty", "email": "fran@campus.edu", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.status)

	unknown := api.do(http.MethodPost, "/auth/password/reset/request", "", map[string]string{"email": "ghost@campus.edu"})
	assert.Equal(t, http.StatusAccepted, unknown.status)
	assert.NotContains(t, unknown.data(), "reset_token")

	requested := api.do(http.MethodPost, "/auth/password/reset/request", "", map[string]string{"email": "fran@campus.edu"})
	require.Equal(t, http.StatusAccepted, requested.status)
	token, ok := requested.data()["reset_token"].(string)
	require.True(t, ok)

	confirmed := api.do(http.MethodPost, "/auth/password/reset/confirm", "", map[string]string{"token": token, "new_password": "fresh-password"})
	require.Equal(t, http.StatusOK, confirmed.status, string(confirmed.raw))
	api.login("fran@campus.edu", "fresh-password")
}

func TestTripLifecycleOverHTTP(t *testing.T) {
	api, container := newAPI(t)
	ctx := context.Background()
	_, err := container.Services.Users.CreateUser(ctx, service.SystemUser, service.UserCreateInput{
		Name: "Ada Admin", Email: "ada@campus.edu", Password: "password123", Role: domain.RoleAdmin,
	})
	require.NoError(t, err)
	_, err = container.Services.Users.CreateUser(ctx, service.SystemUser, service.UserCreateInput{
		Name: "Fran Faculty", Email: "fran@campus.edu", Password: "password123", Role: domain.RoleFaculty,
	})
	require.NoError(t, err)
	admin := api.login("ada@campus.edu", "password123")
	faculty := api.login("fran@campus.edu", "password123")

	vehicle := api.do(http.MethodPost, "/api/v1/vehicles", admin, map[string]any{
		"code": "VAN-01", "plate_number": "CT-1001", "type": "VAN", "campus": "Main", "capacity": 12,
	})
	require.Equal(t, http.StatusCreated, vehicle.status, string(vehicle.raw))
	vehicleID := vehicle.data()["id"].(string)

	driver := api.do(http.MethodPost, "/api/v1/drivers", admin, map[string]any{
		"name": "Dana Driver", "license_number": "DL-1", "license_expiry": "2099-01-01", "campus": "Main",
	})
	require.Equal(t, http.StatusCreated, driver.status, string(driver.raw))
	assert.Equal(t, "2099-01-01", driver.data()["license_expiry"])

	bad := api.do(http.MethodPost, "/api/v1/drivers", admin, map[string]any{
		"name": "Late", "license_number": "DL-2", "license_expiry": "01/01/2099", "campus": "Main",
	})
	assert.Equal(t, "VALIDATION_FAILED", bad.errorCode())

	departure := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	trip := api.do(http.MethodPost, "/api/v1/trips", faculty, map[string]any{
		"purpose":      "Field study",
		"destination":  "Botanical garden",
		"campus":       "Main",
		"departure_at": departure,
		"return_at":    departure.Add(3 * time.Hour),
		"passengers":   6,
	})
	require.Equal(t, http.StatusCreated, trip.status, string(trip.raw))
	tripID := trip.data()["id"].(string)
	assert.Equal(t, "PENDING", trip.data()["status"])

	denied := api.do(http.MethodPost, "/api/v1/trips/"+tripID+"/approve", faculty, map[string]any{"auto_assign": true})
	assert.Equal(t, http.StatusForbidden, denied.status)

	approved := api.do(http.MethodPost, "/api/v1/trips/"+tripID+"/approve", admin, map[string]any{"auto_assign": true})
	require.Equal(t, http.StatusOK, approved.status, string(approved.raw))
	approval := approved.data()
	assert.Equal(t, "APPROVED", approval["trip"].(map[string]any)["status"])
	assert.Equal(t, vehicleID, approval["event"].(map[string]any)["vehicle_id"])
	assert.Equal(t, []any{}, approval["conflicts"])

	from := departure.Add(-time.Hour).Format(time.RFC3339)
	to := departure.Add(6 * time.Hour).Format(time.RFC3339)
	calendar := api.do(http.MethodGet, "/api/v1/schedule?from="+from+"&to="+to, faculty, nil)
	require.Equal(t, http.StatusOK, calendar.status, string(calendar.raw))
	assert.Len(t, calendar.body["data"], 1)

	missingRange := api.do(http.MethodGet, "/api/v1/schedule", faculty, nil)
	assert.Equal(t, "VALIDATION_FAILED", missingRange.errorCode())

	check := api.do(http.MethodPost, "/api/v1/schedule/conflicts", admin, map[string]any{
		"vehicle_id": vehicleID,
		"starts_at":  departure.Add(time.Hour),
		"ends_at":    departure.Add(2 * time.Hour),
	})
	require.Equal(t, http.StatusOK, check.status, string(check.raw))
	assert.Equal(t, false, check.data()["available"])
	assert.Len(t, check.data()["conflicts"], 1)

	export := api.do(http.MethodGet, "/api/v1/reports/export/trips", admin, nil)
	require.Equal(t, http.StatusOK, export.status, string(export.raw))
	assert.Contains(t, export.header.Get("Content-Type"), "text/csv")
	assert.Contains(t, export.header.Get("Content-Disposition"), "attachment")
	assert.Equal(t, "1", export.header.Get("X-Export-Rows"))

	unknownKind := api.do(http.MethodGet, "/api/v1/reports/export/invoices", admin, nil)
	assert.Equal(t, "VALIDATION_FAILED", unknownKind.errorCode())

	sheet := api.do(http.MethodGet, "/api/v1/reports/trips/"+tripID+"/sheet", admin, nil)
	require.Equal(t, http.StatusOK, sheet.status)
	assert.Equal(t, "application/pdf", sheet.header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(sheet.raw, []byte("%PDF-")))

	history := api.do(http.MethodGet, "/api/v1/audit/trip/"+tripID, admin, nil)
	require.Equal(t, http.StatusOK, history.status)
	assert.GreaterOrEqual(t, len(history.body["data"].([]any)), 2)

	cancelled := api.do(http.MethodPost, "/api/v1/trips/"+tripID+"/cancel", faculty, map[string]string{"note": "rescheduled"})
	require.Equal(t, http.StatusOK, cancelled.status, string(cancelled.raw))
	assert.Equal(t, "CANCELLED", cancelled.data()["status"])

	metrics := api.do(http.MethodGet, "/api/v1/metrics", admin, nil)
	require.Equal(t, http.StatusOK, metrics.status)
	assert.NotEmpty(t, metrics.data()["events"])
}

func TestMaintenanceOverHTTP(t *testing.T) {
	api, container := newAPI(t)
	ctx := context.Background()
	_, err := container.Services.Users.CreateUser(ctx, service.SystemUser, service.UserCreateInput{
		Name: "Ada Admin", Email: "ada@campus.edu", Password: "password123", Role: domain.RoleAdmin,
	})
	require.NoError(t, err)
	_, err = container.Services.Users.CreateUser(ctx, service.SystemUser, service.UserCreateInput{
		Name: "Dana Driver", Email: "dana@campus.edu", Password: "password123", Role: domain.RoleDriver,
	})
	require.NoError(t, err)
	admin := api.login("ada@campus.edu", "password123")
	driver := api.login("dana@campus.edu", "password123")

	vehicle := api.do(http.MethodPost, "/api/v1/vehicles", admin, map[string]any{
		"code": "BUS-01", "plate_number": "CT-2001", "type": "BUS", "campus": "Main", "capacity": 40,
	})
	require.Equal(t, http.StatusCreated, vehicle.status, string(vehicle.raw))
	vehicleID := vehicle.data()["id"].(string)

	ticket := api.do(http.MethodPost, "/api/v1/maintenance", driver, map[string]any{
		"vehicle_id": vehicleID, "title": "Door sensor", "priority": "CRITICAL",
	})
	require.Equal(t, http.StatusCreated, ticket.status, string(ticket.raw))
	ticketID := ticket.data()["id"].(string)

	grounded := api.do(http.MethodGet, "/api/v1/vehicles/"+vehicleID, driver, nil)
	assert.Equal(t, "MAINTENANCE", grounded.data()["status"])

	denied := api.do(http.MethodPost, "/api/v1/maintenance/"+ticketID+"/advance", driver, nil)
	assert.Equal(t, http.StatusForbidden, denied.status)

	for _, want := range []string{"ACKNOWLEDGED", "IN_PROGRESS"} {
		step := api.do(http.MethodPost, "/api/v1/maintenance/"+ticketID+"/advance", admin, nil)
		require.Equal(t, http.StatusOK, step.status, string(step.raw))
		assert.Equal(t, want, step.data()["status"])
	}
	done := api.do(http.MethodPost, "/api/v1/maintenance/"+ticketID+"/advance", admin, map[string]any{"note": "replaced", "cost": 120.5})
	require.Equal(t, http.StatusOK, done.status, string(done.raw))
	assert.Equal(t, "COMPLETED", done.data()["status"])
	assert.InDelta(t, 120.5, done.data()["cost"], 0.001)

	again := api.do(http.MethodPost, "/api/v1/maintenance/"+ticketID+"/advance", admin, nil)
	assert.Equal(t, http.StatusConflict, again.status)

	list := api.do(http.MethodGet, "/api/v1/maintenance?status=completed", driver, nil)
	require.Equal(t, http.StatusOK, list.status)
	assert.Len(t, list.body["data"], 1)
}
