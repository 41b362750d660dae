package handlers

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-transport/internal/export"
	"github.com/spec-kit/campus-transport/internal/service"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

// ReportsHandler exposes summaries, CSV exports and trip sheets.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reportService}
}

// Summary handles GET /reports/summary?from=&to=.
func (h *ReportsHandler) Summary(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	from, err := requireTime(c, "from")
	if err != nil {
		return err
	}
	to, err := requireTime(c, "to")
	if err != nil {
		return err
	}
	summary, err := h.reports.Summary(c.UserContext(), actor, from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// Export handles GET /reports/export/:kind as a CSV attachment.
func (h *ReportsHandler) Export(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	kind, err := export.ParseKind(c.Params("kind"))
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"kinds": export.Kinds})
	}

	var buf bytes.Buffer
	rows, err := h.reports.Export(c.UserContext(), actor, kind, service.ExportFilter{
		From: parseTime(c.Query("from")),
		To:   parseTime(c.Query("to")),
	}, &buf)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", kind.FileName(time.Now())))
	c.Set("X-Export-Rows", strconv.Itoa(rows))
	return c.Send(buf.Bytes())
}

// TripSheet handles GET /reports/trips/:id/sheet as a PDF attachment.
func (h *ReportsHandler) TripSheet(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	pdf, trip, err := h.reports.TripSheet(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", trip.Reference+".pdf"))
	return c.Send(pdf)
}
