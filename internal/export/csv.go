// Package export renders registry data as CSV tables and trip sheets as PDF.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/campus-transport/internal/domain"
)

// Kind names an exportable table.
type Kind string

const (
	KindTrips       Kind = "trips"
	KindVehicles    Kind = "vehicles"
	KindDrivers     Kind = "drivers"
	KindMaintenance Kind = "maintenance"
	KindAudit       Kind = "audit"
)

// Kinds lists every exportable table.
var Kinds = []Kind{KindTrips, KindVehicles, KindDrivers, KindMaintenance, KindAudit}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown export kind %q", s)
}

// FileName returns the attachment name for kind generated at t.
func (k Kind) FileName(t time.Time) string {
	return fmt.Sprintf("%s_%s.csv", k, t.UTC().Format("20060102T150405Z"))
}

var headers = map[Kind][]string{
	KindTrips: {"reference", "status", "requester_id", "purpose", "destination", "pickup_location",
		"campus", "departure_at", "return_at", "passengers", "preferred_vehicle_type", "schedule_event_id",
		"decision_note", "created_at"},
	KindVehicles: {"code", "plate_number", "type", "campus", "capacity", "status", "odometer_km",
		"last_service_at", "notes"},
	KindDrivers: {"name", "phone", "license_number", "license_expiry", "campus", "status", "user_id"},
	KindMaintenance: {"reference", "vehicle_id", "reported_by", "title", "priority", "status",
		"odometer_km", "cost", "resolution_note", "created_at", "completed_at"},
	KindAudit: {"created_at", "entity_type", "entity_id", "action", "actor_id", "actor_role",
		"old_value", "new_value"},
}

// Header returns the column names for kind.
func Header(kind Kind) []string {
	return append([]string(nil), headers[kind]...)
}

// Writer streams records of a single kind. The header is written before
// the first row, or by Close when no rows were written.
type Writer struct {
	kind    Kind
	csv     *csv.Writer
	started bool
	rows    int
}

// NewWriter returns a CSV writer for kind.
func NewWriter(w io.Writer, kind Kind) *Writer {
	return &Writer{kind: kind, csv: csv.NewWriter(w)}
}

// Rows reports how many data rows were written.
func (w *Writer) Rows() int {
	return w.rows
}

func (w *Writer) write(record []string) error {
	if !w.started {
		if err := w.csv.Write(headers[w.kind]); err != nil {
			return err
		}
		w.started = true
	}
	w.rows++
	return w.csv.Write(record)
}

// WriteTrips appends trip rows.
func (w *Writer) WriteTrips(trips []domain.TripRequest) error {
	for _, t := range trips {
		var vehicleType string
		if t.PreferredVehicleType != nil {
			vehicleType = string(*t.PreferredVehicleType)
		}
		if err := w.write([]string{
			t.Reference,
			string(t.Status),
			t.RequesterID,
			t.Purpose,
			t.Destination,
			t.PickupLocation,
			t.Campus,
			formatTime(t.DepartureAt),
			formatTime(t.ReturnAt),
			strconv.Itoa(t.Passengers),
			vehicleType,
			deref(t.ScheduleEventID),
			t.DecisionNote,
			formatTime(t.CreatedAt),
		}); err != nil {
			return err
		}
	}
	return nil
}

// WriteVehicles appends vehicle rows.
func (w *Writer) WriteVehicles(vehicles []domain.Vehicle) error {
	for _, v := range vehicles {
		if err := w.write([]string{
			v.Code,
			v.PlateNumber,
			string(v.Type),
			v.Campus,
			strconv.Itoa(v.Capacity),
			string(v.Status),
			strconv.Itoa(v.OdometerKm),
			formatTimePtr(v.LastServiceAt),
			v.Notes,
		}); err != nil {
			return err
		}
	}
	return nil
}

// WriteDrivers appends driver rows.
func (w *Writer) WriteDrivers(drivers []domain.Driver) error {
	for _, d := range drivers {
		if err := w.write([]string{
			d.Name,
			d.Phone,
			d.LicenseNumber,
			d.LicenseExpiry.UTC().Format("2006-01-02"),
			d.Campus,
			string(d.Status),
			deref(d.UserID),
		}); err != nil {
			return err
		}
	}
	return nil
}

// WriteMaintenance appends maintenance ticket rows.
func (w *Writer) WriteMaintenance(tickets []domain.MaintenanceTicket) error {
	for _, t := range tickets {
		var odometer, cost string
		if t.OdometerKm != nil {
			odometer = strconv.Itoa(*t.OdometerKm)
		}
		if t.Cost != nil {
			cost = strconv.FormatFloat(*t.Cost, 'f', 2, 64)
		}
		if err := w.write([]string{
			t.Reference,
			t.VehicleID,
			t.ReportedBy,
			t.Title,
			string(t.Priority),
			string(t.Status),
			odometer,
			cost,
			t.ResolutionNote,
			formatTime(t.CreatedAt),
			formatTimePtr(t.CompletedAt),
		}); err != nil {
			return err
		}
	}
	return nil
}

// WriteAudit appends audit rows. Old and new values are rendered as JSON.
func (w *Writer) WriteAudit(entries []domain.AuditEntry) error {
	for _, e := range entries {
		oldValue, err := jsonCell(e.OldValue)
		if err != nil {
			return err
		}
		newValue, err := jsonCell(e.NewValue)
		if err != nil {
			return err
		}
		if err := w.write([]string{
			formatTime(e.CreatedAt),
			string(e.EntityType),
			e.EntityID,
			string(e.Action),
			deref(e.ActorID),
			string(e.ActorRole),
			oldValue,
			newValue,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Close writes the header if nothing was written and flushes.
func (w *Writer) Close() error {
	if !w.started {
		if err := w.csv.Write(headers[w.kind]); err != nil {
			return err
		}
		w.started = true
	}
	w.csv.Flush()
	return w.csv.Error()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
