package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/spec-kit/campus-transport/internal/domain"
)

// TripSheet carries everything printed on a driver's trip sheet.
type TripSheet struct {
	Trip        domain.TripRequest
	Event       *domain.ScheduleEvent
	Vehicle     *domain.Vehicle
	Driver      *domain.Driver
	Requester   *domain.User
	GeneratedAt time.Time
}

// RenderTripSheet lays out sheet as a single A4 page.
func RenderTripSheet(sheet TripSheet) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Trip Sheet "+sheet.Trip.Reference, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TRIP SHEET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	line := func(label, value string) {
		pdf.Cell(0, 7, fmt.Sprintf("%-16s: %s", label, safe(value, "-")))
		pdf.Ln(7)
	}
	section := func(title string) {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 12)
	}

	trip := sheet.Trip
	line("Reference", trip.Reference)
	line("Status", string(trip.Status))
	line("Generated", sheet.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))

	section("Trip")
	if sheet.Requester != nil {
		line("Requested by", sheet.Requester.Name+" <"+sheet.Requester.Email+">")
	}
	line("Purpose", trip.Purpose)
	line("Campus", trip.Campus)
	line("Pickup", trip.PickupLocation)
	line("Destination", trip.Destination)
	line("Passengers", strconv.Itoa(trip.Passengers))

	section("Window")
	if sheet.Event != nil {
		line("Departs", sheet.Event.StartsAt.UTC().Format("2006-01-02 15:04 MST"))
		line("Returns", sheet.Event.EndsAt.UTC().Format("2006-01-02 15:04 MST"))
		line("Event status", string(sheet.Event.Status))
	} else {
		line("Departs", trip.DepartureAt.UTC().Format("2006-01-02 15:04 MST"))
		line("Returns", trip.ReturnAt.UTC().Format("2006-01-02 15:04 MST"))
	}

	section("Vehicle")
	if sheet.Vehicle != nil {
		line("Code", sheet.Vehicle.Code)
		line("Plate", sheet.Vehicle.PlateNumber)
		line("Type", string(sheet.Vehicle.Type))
		line("Capacity", strconv.Itoa(sheet.Vehicle.Capacity))
	} else {
		line("Vehicle", "unassigned")
	}

	section("Driver")
	if sheet.Driver != nil {
		line("Name", sheet.Driver.Name)
		line("Phone", sheet.Driver.Phone)
		line("License", sheet.Driver.LicenseNumber)
	} else {
		line("Driver", "unassigned")
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Odometer out: ________   Odometer in: ________   Driver signature: ______________", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render trip sheet: %w", err)
	}
	return buf.Bytes(), nil
}

func safe(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
