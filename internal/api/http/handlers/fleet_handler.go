package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-transport/internal/api/dto"
	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
	"github.com/spec-kit/campus-transport/internal/service"
)

// FleetHandler exposes the vehicle and driver registries.
type FleetHandler struct {
	vehicles *service.VehicleService
	drivers  *service.DriverService
}

// NewFleetHandler constructs handler.
func NewFleetHandler(vehicles *service.VehicleService, drivers *service.DriverService) *FleetHandler {
	return &FleetHandler{vehicles: vehicles, drivers: drivers}
}

// CreateVehicle handles POST /vehicles.
func (h *FleetHandler) CreateVehicle(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateVehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	vehicle, err := h.vehicles.CreateVehicle(c.UserContext(), actor, service.VehicleInput{
		Code:          req.Code,
		PlateNumber:   req.PlateNumber,
		Type:          req.Type,
		Campus:        req.Campus,
		Capacity:      req.Capacity,
		Status:        req.Status,
		OdometerKm:    req.OdometerKm,
		LastServiceAt: req.LastServiceAt,
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": vehicleResponse(vehicle)})
}

// ListVehicles handles GET /vehicles.
func (h *FleetHandler) ListVehicles(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	filter := repository.VehicleFilter{
		Types:      parseList[domain.VehicleType](c, "type"),
		Statuses:   parseList[domain.VehicleStatus](c, "status"),
		Campus:     optionalQuery(c, "campus"),
		SearchTerm: optionalQuery(c, "search"),
	}
	filter.Limit, filter.Offset = pagination(c)

	vehicles, err := h.vehicles.ListVehicles(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.VehicleResponse, 0, len(vehicles))
	for i := range vehicles {
		items = append(items, vehicleResponse(&vehicles[i]))
	}
	return c.JSON(fiber.Map{"data": items, "meta": pageMeta(c, len(items))})
}

// GetVehicle handles GET /vehicles/:id.
func (h *FleetHandler) GetVehicle(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	vehicle, err := h.vehicles.GetVehicle(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": vehicleResponse(vehicle)})
}

// UpdateVehicle handles PATCH /vehicles/:id.
func (h *FleetHandler) UpdateVehicle(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateVehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	vehicle, err := h.vehicles.UpdateVehicle(c.UserContext(), actor, c.Params("id"), service.VehicleUpdateInput{
		Code:        req.Code,
		PlateNumber: req.PlateNumber,
		Type:        req.Type,
		Campus:      req.Campus,
		Capacity:    req.Capacity,
		Status:      req.Status,
		OdometerKm:  req.OdometerKm,
		Notes:       req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": vehicleResponse(vehicle)})
}

// DeleteVehicle handles DELETE /vehicles/:id.
func (h *FleetHandler) DeleteVehicle(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.vehicles.DeleteVehicle(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateDriver handles POST /drivers.
func (h *FleetHandler) CreateDriver(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateDriverRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	expiry, err := parseDate("license_expiry", req.LicenseExpiry)
	if err != nil {
		return err
	}
	driver, err := h.drivers.CreateDriver(c.UserContext(), actor, service.DriverInput{
		UserID:        req.UserID,
		Name:          req.Name,
		Phone:         req.Phone,
		LicenseNumber: req.LicenseNumber,
		LicenseExpiry: expiry,
		Campus:        req.Campus,
		Status:        req.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": driverResponse(driver)})
}

// ListDrivers handles GET /drivers.
func (h *FleetHandler) ListDrivers(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	filter := repository.DriverFilter{
		Statuses:   parseList[domain.DriverStatus](c, "status"),
		Campus:     optionalQuery(c, "campus"),
		SearchTerm: optionalQuery(c, "search"),
	}
	filter.Limit, filter.Offset = pagination(c)

	drivers, err := h.drivers.ListDrivers(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.DriverResponse, 0, len(drivers))
	for i := range drivers {
		items = append(items, driverResponse(&drivers[i]))
	}
	return c.JSON(fiber.Map{"data": items, "meta": pageMeta(c, len(items))})
}

// GetDriver handles GET /drivers/:id.
func (h *FleetHandler) GetDriver(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	driver, err := h.drivers.GetDriver(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": driverResponse(driver)})
}

// MyDriverProfile handles GET /drivers/me for DRIVER accounts.
func (h *FleetHandler) MyDriverProfile(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	driver, err := h.drivers.DriverForUser(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": driverResponse(driver)})
}

// UpdateDriver handles PATCH /drivers/:id.
func (h *FleetHandler) UpdateDriver(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateDriverRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	input := service.DriverUpdateInput{
		UserID:        req.UserID,
		Name:          req.Name,
		Phone:         req.Phone,
		LicenseNumber: req.LicenseNumber,
		Campus:        req.Campus,
		Status:        req.Status,
	}
	if req.LicenseExpiry != nil {
		expiry, err := parseDate("license_expiry", *req.LicenseExpiry)
		if err != nil {
			return err
		}
		input.LicenseExpiry = &expiry
	}
	driver, err := h.drivers.UpdateDriver(c.UserContext(), actor, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": driverResponse(driver)})
}

// DeleteDriver handles DELETE /drivers/:id.
func (h *FleetHandler) DeleteDriver(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.drivers.DeleteDriver(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func vehicleResponse(v *domain.Vehicle) dto.VehicleResponse {
	return dto.VehicleResponse{
		ID:            v.ID,
		Code:          v.Code,
		PlateNumber:   v.PlateNumber,
		Type:          v.Type,
		Campus:        v.Campus,
		Capacity:      v.Capacity,
		Status:        v.Status,
		OdometerKm:    v.OdometerKm,
		LastServiceAt: v.LastServiceAt,
		Notes:         v.Notes,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

func driverResponse(d *domain.Driver) dto.DriverResponse {
	return dto.DriverResponse{
		ID:            d.ID,
		UserID:        d.UserID,
		Name:          d.Name,
		Phone:         d.Phone,
		LicenseNumber: d.LicenseNumber,
		LicenseExpiry: d.LicenseExpiry.Format(dateLayout),
		Campus:        d.Campus,
		Status:        d.Status,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
