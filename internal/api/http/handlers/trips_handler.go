package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-transport/internal/api/dto"
	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
	"github.com/spec-kit/campus-transport/internal/service"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

// TripsHandler exposes trip request endpoints.
type TripsHandler struct {
	trips *service.TripService
}

// NewTripsHandler constructs handler.
func NewTripsHandler(tripService *service.TripService) *TripsHandler {
	return &TripsHandler{trips: tripService}
}

// SubmitTrip handles POST /trips.
func (h *TripsHandler) SubmitTrip(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SubmitTripRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	if req.Purpose == "" || req.Destination == "" {
		return apperrors.NewValidationError("purpose and destination required", nil)
	}
	trip, err := h.trips.Submit(c.UserContext(), actor, service.TripSubmitInput{
		Purpose:              req.Purpose,
		Destination:          req.Destination,
		PickupLocation:       req.PickupLocation,
		Campus:               req.Campus,
		DepartureAt:          req.DepartureAt,
		ReturnAt:             req.ReturnAt,
		Passengers:           req.Passengers,
		PreferredVehicleType: req.PreferredVehicleType,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": tripResponse(trip)})
}

// ListTrips handles GET /trips.
func (h *TripsHandler) ListTrips(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	filter := repository.TripFilter{
		RequesterID:   optionalQuery(c, "requester_id"),
		Campus:        optionalQuery(c, "campus"),
		Statuses:      parseList[domain.TripStatus](c, "status"),
		SearchTerm:    optionalQuery(c, "search"),
		DepartureFrom: parseTime(c.Query("from")),
		DepartureTo:   parseTime(c.Query("to")),
	}
	filter.Limit, filter.Offset = pagination(c)

	trips, err := h.trips.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TripResponse, 0, len(trips))
	for i := range trips {
		items = append(items, tripResponse(&trips[i]))
	}
	return c.JSON(fiber.Map{"data": items, "meta": pageMeta(c, len(items))})
}

// GetTrip handles GET /trips/:id.
func (h *TripsHandler) GetTrip(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	trip, err := h.trips.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tripResponse(trip)})
}

// ApproveTrip handles POST /trips/:id/approve.
func (h *TripsHandler) ApproveTrip(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ApproveTripRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidPayload()
		}
	}
	approval, err := h.trips.Approve(c.UserContext(), actor, c.Params("id"), service.TripApproveInput{
		VehicleID:  req.VehicleID,
		DriverID:   req.DriverID,
		AutoAssign: req.AutoAssign,
		Note:       req.Note,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TripApprovalResponse{
		Trip:      tripResponse(approval.Trip),
		Event:     eventResponse(approval.Event),
		Conflicts: conflictList(approval.Conflicts),
	}})
}

// RejectTrip handles POST /trips/:id/reject.
func (h *TripsHandler) RejectTrip(c *fiber.Ctx) error {
	return h.transition(c, h.trips.Reject)
}

// CancelTrip handles POST /trips/:id/cancel.
func (h *TripsHandler) CancelTrip(c *fiber.Ctx) error {
	return h.transition(c, h.trips.Cancel)
}

// CompleteTrip handles POST /trips/:id/complete.
func (h *TripsHandler) CompleteTrip(c *fiber.Ctx) error {
	return h.transition(c, h.trips.Complete)
}

type tripTransitionFunc func(ctx context.Context, actor *domain.User, id, note string) (*domain.TripRequest, error)

func (h *TripsHandler) transition(c *fiber.Ctx, apply tripTransitionFunc) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.TripNoteRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidPayload()
		}
	}
	trip, err := apply(c.UserContext(), actor, c.Params("id"), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tripResponse(trip)})
}

func tripResponse(t *domain.TripRequest) dto.TripResponse {
	return dto.TripResponse{
		ID:                   t.ID,
		Reference:            t.Reference,
		RequesterID:          t.RequesterID,
		Purpose:              t.Purpose,
		Destination:          t.Destination,
		PickupLocation:       t.PickupLocation,
		Campus:               t.Campus,
		DepartureAt:          t.DepartureAt,
		ReturnAt:             t.ReturnAt,
		Passengers:           t.Passengers,
		PreferredVehicleType: t.PreferredVehicleType,
		Status:               t.Status,
		DecisionNote:         t.DecisionNote,
		DecidedBy:            t.DecidedBy,
		ScheduleEventID:      t.ScheduleEventID,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}
