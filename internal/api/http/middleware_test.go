package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/campus-transport/internal/observability"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

type errorBody struct {
	Error struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		Details   map[string]any `json:"details"`
		RequestID string         `json:"request_id"`
	} `json:"error"`
}

func call(t *testing.T, app *fiber.App, path string) (int, string, errorBody) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body errorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, resp.Header.Get(observability.RequestIDHeader), body
}

func TestErrorMiddlewareRendersDomainErrors(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.New(core), metrics, 0)
	app.Get("/booked", func(c *fiber.Ctx) error {
		return apperrors.NewConflict("vehicle already booked", map[string]any{"vehicle_id": "v-1"})
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("wheel fell off")
	})

	status, requestID, body := call(t, app, "/booked")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", body.Error.Code)
	assert.Equal(t, "v-1", body.Error.Details["vehicle_id"])
	require.NotEmpty(t, requestID)
	assert.Equal(t, requestID, body.Error.RequestID)
	assert.Equal(t, 1, logs.FilterMessage("request rejected").Len())

	status, _, body = call(t, app, "/boom")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())

	assert.Equal(t, int64(1), metrics.Snapshot().Errors["/booked|GET|CONFLICT"])
}

func TestTimeoutMiddlewareMapsDeadline(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 5*time.Millisecond)
	app.Get("/slow", func(c *fiber.Ctx) error {
		<-c.UserContext().Done()
		return apperrors.NewInternalError(c.UserContext().Err())
	})
	app.Get("/wrapped", func(c *fiber.Ctx) error {
		<-c.UserContext().Done()
		return errors.Join(errors.New("load vehicles"), c.UserContext().Err())
	})

	for _, path := range []string{"/slow", "/wrapped"} {
		status, _, body := call(t, app, path)
		assert.Equal(t, fiber.StatusServiceUnavailable, status, path)
		assert.Equal(t, "REQUEST_TIMEOUT", body.Error.Code, path)
	}
}
