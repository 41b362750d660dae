package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-transport/internal/api/dto"
	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/scheduling"
	"github.com/spec-kit/campus-transport/internal/service"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

// ScheduleHandler exposes the calendar.
type ScheduleHandler struct {
	schedule *service.ScheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(scheduleService *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedule: scheduleService}
}

// Calendar handles GET /schedule?from=&to=.
func (h *ScheduleHandler) Calendar(c *fiber.Ctx) error {
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
	events, err := h.schedule.ListCalendar(c.UserContext(), actor, service.CalendarQuery{
		From:      from,
		To:        to,
		VehicleID: optionalQuery(c, "vehicle_id"),
		DriverID:  optionalQuery(c, "driver_id"),
		Statuses:  parseList[domain.EventStatus](c, "status"),
	})
	if err != nil {
		return err
	}
	items := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		items = append(items, eventResponse(&events[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetEvent handles GET /schedule/:id.
func (h *ScheduleHandler) GetEvent(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	event, err := h.schedule.GetEvent(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponse(event)})
}

// CreateEvent handles POST /schedule.
func (h *ScheduleHandler) CreateEvent(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	res, err := h.schedule.CreateEvent(c.UserContext(), actor, service.EventInput{
		Title:     req.Title,
		VehicleID: req.VehicleID,
		DriverID:  req.DriverID,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		Status:    req.Status,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": eventWriteResponse(res)})
}

// UpdateEvent handles PATCH /schedule/:id.
func (h *ScheduleHandler) UpdateEvent(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	res, err := h.schedule.UpdateEvent(c.UserContext(), actor, c.Params("id"), service.EventUpdateInput{
		Title:     req.Title,
		VehicleID: req.VehicleID,
		DriverID:  req.DriverID,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventWriteResponse(res)})
}

// ChangeStatus handles POST /schedule/:id/status.
func (h *ScheduleHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.EventStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	event, err := h.schedule.ChangeStatus(c.UserContext(), actor, c.Params("id"), req.Status, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponse(event)})
}

// CheckConflicts handles POST /schedule/conflicts.
func (h *ScheduleHandler) CheckConflicts(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ConflictCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	conflicts, err := h.schedule.CheckConflicts(c.UserContext(), actor, service.ConflictQuery{
		EventID:   req.EventID,
		VehicleID: req.VehicleID,
		DriverID:  req.DriverID,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"conflicts": conflictList(conflicts),
		"available": len(conflicts) == 0,
	}})
}

// AutoAssign handles POST /schedule/auto-assign.
func (h *ScheduleHandler) AutoAssign(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AutoAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	needVehicle, needDriver := true, true
	if req.NeedVehicle != nil {
		needVehicle = *req.NeedVehicle
	}
	if req.NeedDriver != nil {
		needDriver = *req.NeedDriver
	}
	picked, err := h.schedule.AutoAssign(c.UserContext(), actor, service.AssignmentRequest{
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		VehicleType: req.VehicleType,
		Campus:      req.Campus,
		Passengers:  req.Passengers,
		NeedVehicle: needVehicle,
		NeedDriver:  needDriver,
	})
	if err != nil {
		return err
	}
	var resp dto.AssignmentResponse
	if picked.Vehicle != nil {
		v := vehicleResponse(picked.Vehicle)
		resp.Vehicle = &v
	}
	if picked.Driver != nil {
		d := driverResponse(picked.Driver)
		resp.Driver = &d
	}
	return c.JSON(fiber.Map{"data": resp})
}

func eventResponse(e *domain.ScheduleEvent) dto.EventResponse {
	return dto.EventResponse{
		ID:            e.ID,
		Title:         e.Title,
		TripRequestID: e.TripRequestID,
		VehicleID:     e.VehicleID,
		DriverID:      e.DriverID,
		StartsAt:      e.StartsAt,
		EndsAt:        e.EndsAt,
		Status:        e.Status,
		Notes:         e.Notes,
		CreatedBy:     e.CreatedBy,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func eventWriteResponse(res *service.EventResult) dto.EventWriteResponse {
	return dto.EventWriteResponse{
		Event:     eventResponse(res.Event),
		Conflicts: conflictList(res.Conflicts),
	}
}

func conflictList(conflicts []scheduling.Conflict) []scheduling.Conflict {
	if conflicts == nil {
		return []scheduling.Conflict{}
	}
	return conflicts
}
