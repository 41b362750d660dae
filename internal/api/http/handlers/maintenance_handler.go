package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-transport/internal/api/dto"
	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
	"github.com/spec-kit/campus-transport/internal/service"
)

// MaintenanceHandler exposes maintenance tickets.
type MaintenanceHandler struct {
	maintenance *service.MaintenanceService
}

// NewMaintenanceHandler constructs handler.
func NewMaintenanceHandler(maintenanceService *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenance: maintenanceService}
}

// ReportTicket handles POST /maintenance.
func (h *MaintenanceHandler) ReportTicket(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ReportMaintenanceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	ticket, err := h.maintenance.Report(c.UserContext(), actor, service.MaintenanceReportInput{
		VehicleID:   req.VehicleID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		OdometerKm:  req.OdometerKm,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": maintenanceResponse(ticket)})
}

// ListTickets handles GET /maintenance.
func (h *MaintenanceHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	filter := repository.MaintenanceFilter{
		VehicleID:   optionalQuery(c, "vehicle_id"),
		Statuses:    parseList[domain.MaintenanceStatus](c, "status"),
		Priorities:  parseList[domain.MaintenancePriority](c, "priority"),
		CreatedFrom: parseTime(c.Query("created_from")),
		CreatedTo:   parseTime(c.Query("created_to")),
	}
	filter.Limit, filter.Offset = pagination(c)

	tickets, err := h.maintenance.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.MaintenanceResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, maintenanceResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items, "meta": pageMeta(c, len(items))})
}

// GetTicket handles GET /maintenance/:id.
func (h *MaintenanceHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	ticket, err := h.maintenance.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": maintenanceResponse(ticket)})
}

// AdvanceTicket handles POST /maintenance/:id/advance.
func (h *MaintenanceHandler) AdvanceTicket(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AdvanceMaintenanceRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidPayload()
		}
	}
	ticket, err := h.maintenance.Advance(c.UserContext(), actor, c.Params("id"), service.MaintenanceAdvanceInput{
		Note: req.Note,
		Cost: req.Cost,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": maintenanceResponse(ticket)})
}

func maintenanceResponse(t *domain.MaintenanceTicket) dto.MaintenanceResponse {
	return dto.MaintenanceResponse{
		ID:             t.ID,
		Reference:      t.Reference,
		VehicleID:      t.VehicleID,
		ReportedBy:     t.ReportedBy,
		Title:          t.Title,
		Description:    t.Description,
		Priority:       t.Priority,
		Status:         t.Status,
		OdometerKm:     t.OdometerKm,
		Cost:           t.Cost,
		ResolutionNote: t.ResolutionNote,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		CompletedAt:    t.CompletedAt,
	}
}
