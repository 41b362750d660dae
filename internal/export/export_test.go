package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-transport/internal/domain"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Trips ")
	require.NoError(t, err)
	assert.Equal(t, KindTrips, k)

	_, err = ParseKind("invoices")
	assert.Error(t, err)
}

func TestWriterEmptyWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, KindVehicles)
	require.NoError(t, w.Close())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, Header(KindVehicles), records[0])
	assert.Zero(t, w.Rows())
}

func TestWriterQuotesFields(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, KindTrips)
	departure := time.Date(2026, 4, 6, 8, 0, 0, 0, time.UTC)
	require.NoError(t, w.WriteTrips([]domain.TripRequest{{
		Reference:   "TRP-1",
		Status:      domain.TripStatusApproved,
		Purpose:     `Field trip, "Geology" lab`,
		Destination: "Quarry\nSite B",
		DepartureAt: departure,
		ReturnAt:    departure.Add(4 * time.Hour),
		Passengers:  12,
	}}))
	require.NoError(t, w.Close())

	assert.Contains(t, buf.String(), `"Field trip, ""Geology"" lab"`)

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, `Field trip, "Geology" lab`, records[1][3])
	assert.Equal(t, "Quarry\nSite B", records[1][4])
	assert.Equal(t, "2026-04-06T08:00:00Z", records[1][7])
	assert.Equal(t, "12", records[1][9])
	assert.Equal(t, 1, w.Rows())
}

func TestWriterMaintenanceAndAudit(t *testing.T) {
	cost := 125.5
	var buf bytes.Buffer
	w := NewWriter(&buf, KindMaintenance)
	require.NoError(t, w.WriteMaintenance([]domain.MaintenanceTicket{{Reference: "MNT-1", Cost: &cost, Priority: domain.MaintenancePriorityHigh}}))
	require.NoError(t, w.Close())
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "125.50", records[1][7])
	assert.Equal(t, "", records[1][6])

	buf.Reset()
	w = NewWriter(&buf, KindAudit)
	require.NoError(t, w.WriteAudit([]domain.AuditEntry{{
		EntityType: domain.EntityVehicle,
		Action:     domain.AuditStatusChanged,
		OldValue:   map[string]any{"status": "AVAILABLE"},
	}}))
	require.NoError(t, w.Close())
	records, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, `{"status":"AVAILABLE"}`, records[1][6])
	assert.Equal(t, "", records[1][7])
}

func TestRenderTripSheet(t *testing.T) {
	departure := time.Date(2026, 4, 6, 8, 0, 0, 0, time.UTC)
	data, err := RenderTripSheet(TripSheet{
		Trip: domain.TripRequest{
			Reference:   "TRP-ABC",
			Status:      domain.TripStatusApproved,
			Purpose:     "Conference",
			Destination: "City Hall",
			DepartureAt: departure,
			ReturnAt:    departure.Add(3 * time.Hour),
			Passengers:  3,
		},
		Vehicle:     &domain.Vehicle{Code: "V-01", PlateNumber: "AB 123", Type: domain.VehicleTypeVan, Capacity: 8},
		GeneratedAt: departure.Add(-24 * time.Hour),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
