package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/campus-transport/internal/config"
	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/events"
	"github.com/spec-kit/campus-transport/internal/export"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string][]byte{}
	}
	c.data[key] = value
	c.sets++
	return nil
}

func TestSummaryAggregatesAndCaches(t *testing.T) {
	f := newFixture(t)
	cache := &memoryCache{}
	f.svc.Reports = NewReportService(f.cfg, ReportDependencies{Repos: f.repos, Cache: cache})

	van := f.vehicle("V-01", domain.VehicleTypeVan, 8)
	f.vehicle("V-02", domain.VehicleTypeVan, 8)
	f.driver("Alice", "LIC-1", nil)

	approved := f.trip(tomorrow(8), 3, 4)
	_, err := f.svc.Trips.Approve(f.ctx, f.admin, approved.ID, TripApproveInput{VehicleID: &van.ID})
	require.NoError(t, err)
	f.trip(tomorrow(14), 2, 4)
	// Event straddling the range end is clipped to it.
	f.event("Late run", &van.ID, nil, tomorrow(22), 4)

	_, err = f.svc.Maintenance.Report(f.ctx, f.admin, MaintenanceReportInput{VehicleID: van.ID, Title: "Mirror"})
	require.NoError(t, err)

	from := tomorrow(0)
	to := from.Add(24 * time.Hour)
	summary, err := f.svc.Reports.Summary(f.ctx, f.admin, from, to)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TripsByStatus[domain.TripStatusApproved])
	assert.Equal(t, 1, summary.TripsByStatus[domain.TripStatusPending])
	assert.Equal(t, 2, summary.VehicleStatus[domain.VehicleStatusAvailable])
	assert.Equal(t, 1, summary.DriverStatus[domain.DriverStatusAvailable])
	assert.Zero(t, summary.MaintenanceByStatus[domain.MaintenanceStatusReported], "ticket created outside the range")

	require.Len(t, summary.Utilization, 2)
	assert.Equal(t, "V-01", summary.Utilization[0].Code)
	assert.Equal(t, 2, summary.Utilization[0].Events)
	assert.InDelta(t, 5.0, summary.Utilization[0].BookedHours, 0.001)
	assert.Zero(t, summary.Utilization[1].BookedHours)

	assert.Equal(t, 1, cache.sets)
	again, err := f.svc.Reports.Summary(f.ctx, f.admin, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets, "second call served from cache")
	assert.Equal(t, summary.TripsByStatus, again.TripsByStatus)

	_, err = f.svc.Reports.Summary(f.ctx, f.faculty, from, to)
	assert.Equal(t, "FORBIDDEN", errCode(err))
	_, err = f.svc.Reports.Summary(f.ctx, f.admin, to, from)
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
	_, err = f.svc.Reports.Summary(f.ctx, f.admin, from, from.AddDate(2, 0, 0))
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
}

func TestExportPagesThroughAllRows(t *testing.T) {
	f := newFixture(t)
	for _, code := range []string{"V-01", "V-02", "V-03", "V-04", "V-05"} {
		f.vehicle(code, domain.VehicleTypeSedan, 4)
	}

	var buf bytes.Buffer
	rows, err := f.svc.Reports.Export(f.ctx, f.admin, export.KindVehicles, ExportFilter{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 5, rows)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, export.Header(export.KindVehicles), records[0])

	buf.Reset()
	rows, err = f.svc.Reports.Export(f.ctx, f.admin, export.KindAudit, ExportFilter{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 5, rows)

	buf.Reset()
	rows, err = f.svc.Reports.Export(f.ctx, f.admin, export.KindTrips, ExportFilter{}, &buf)
	require.NoError(t, err)
	assert.Zero(t, rows)
	records, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1, "header only")

	_, err = f.svc.Reports.Export(f.ctx, f.driverAc, export.KindTrips, ExportFilter{}, &buf)
	assert.Equal(t, "FORBIDDEN", errCode(err))
}

func TestTripSheetRequiresApprovedTrip(t *testing.T) {
	f := newFixture(t)
	v := f.vehicle("V-01", domain.VehicleTypeVan, 8)
	d := f.driver("Dan Driver", "LIC-1", f.driverAc)
	trip := f.trip(tomorrow(9), 2, 4)

	_, _, err := f.svc.Reports.TripSheet(f.ctx, f.admin, trip.ID)
	assert.Equal(t, "CONFLICT", errCode(err))

	_, err = f.svc.Trips.Approve(f.ctx, f.admin, trip.ID, TripApproveInput{VehicleID: &v.ID, DriverID: &d.ID})
	require.NoError(t, err)

	pdf, sheetTrip, err := f.svc.Reports.TripSheet(f.ctx, f.admin, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.Reference, sheetTrip.Reference)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	_, _, err = f.svc.Reports.TripSheet(f.ctx, f.admin, "missing")
	assert.Equal(t, "NOT_FOUND", errCode(err))
}

func TestNotificationHandlersLogEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(nil)
	n := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{
		EmailFrom:  "office@campus.edu",
		WebhookURL: "https://hooks.campus.edu/transport",
	})
	n.RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:     events.EventTripStatusChanged,
		EntityID: "trip-1",
		Payload: events.TripStatusChangedPayload{
			Reference:   "TRP-1",
			RequesterID: "user-1",
			NewStatus:   domain.TripStatusApproved,
		},
	}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:     events.EventPasswordResetRequested,
		EntityID: "user-1",
		Payload:  events.PasswordResetRequestedPayload{Email: "fay@campus.edu", ExpiresAt: time.Now()},
	}))

	assert.Equal(t, 1, logs.FilterMessage("TripStatusChanged").Len())
	assert.Equal(t, 1, logs.FilterMessage("sendWebhookNotificationStub").Len())
	emails := logs.FilterMessage("sendEmailNotificationStub").All()
	require.Len(t, emails, 2)
	assert.Equal(t, "fay@campus.edu", emails[1].ContextMap()["to"])
}
