package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

// DriverService manages the driver registry.
type DriverService struct {
	drivers  repository.DriverRepository
	users    repository.UserRepository
	schedule repository.ScheduleRepository
	audit    *AuditService
}

// DriverDependencies bundles repositories for the driver service.
type DriverDependencies struct {
	DriverRepo   repository.DriverRepository
	UserRepo     repository.UserRepository
	ScheduleRepo repository.ScheduleRepository
	Audit        *AuditService
}

// DriverInput describes a driver to register.
type DriverInput struct {
	UserID        *string
	Name          string
	Phone         string
	LicenseNumber string
	LicenseExpiry time.Time
	Campus        string
	Status        domain.DriverStatus
}

// DriverUpdateInput carries optional driver changes. A non-nil empty UserID
// unlinks the account.
type DriverUpdateInput struct {
	UserID        *string
	Name          *string
	Phone         *string
	LicenseNumber *string
	LicenseExpiry *time.Time
	Campus        *string
	Status        *domain.DriverStatus
}

// NewDriverService constructs the service.
func NewDriverService(deps DriverDependencies) *DriverService {
	return &DriverService{
		drivers:  deps.DriverRepo,
		users:    deps.UserRepo,
		schedule: deps.ScheduleRepo,
		audit:    deps.Audit,
	}
}

// CreateDriver registers a driver.
func (s *DriverService) CreateDriver(ctx context.Context, actor *domain.User, input DriverInput) (*domain.Driver, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = domain.DriverStatusAvailable
	}
	driver := &domain.Driver{
		Name:          strings.TrimSpace(input.Name),
		Phone:         strings.TrimSpace(input.Phone),
		LicenseNumber: strings.ToUpper(strings.TrimSpace(input.LicenseNumber)),
		LicenseExpiry: input.LicenseExpiry.UTC(),
		Campus:        strings.TrimSpace(input.Campus),
		Status:        input.Status,
	}
	if input.UserID != nil && strings.TrimSpace(*input.UserID) != "" {
		if err := s.checkDriverAccount(ctx, *input.UserID); err != nil {
			return nil, err
		}
		driver.UserID = ptr(strings.TrimSpace(*input.UserID))
	}
	if err := validateDriver(driver); err != nil {
		return nil, err
	}
	if err := s.drivers.Create(ctx, driver); err != nil {
		return nil, mapRepoErr(err, "driver", map[string]any{"license_number": driver.LicenseNumber})
	}
	if err := s.audit.Record(ctx, actor, domain.EntityDriver, driver.ID, domain.AuditCreated, nil, driverSnapshot(driver)); err != nil {
		return nil, err
	}
	return driver, nil
}

// GetDriver returns one driver.
func (s *DriverService) GetDriver(ctx context.Context, actor *domain.User, id string) (*domain.Driver, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	driver, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "driver", map[string]any{"driver_id": id})
	}
	return driver, nil
}

// DriverForUser returns the registry entry linked to a DRIVER account.
func (s *DriverService) DriverForUser(ctx context.Context, actor *domain.User) (*domain.Driver, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	driver, err := s.drivers.GetByUserID(ctx, actor.ID)
	if err != nil {
		return nil, mapRepoErr(err, "driver", map[string]any{"user_id": actor.ID})
	}
	return driver, nil
}

// ListDrivers returns drivers matching filter.
func (s *DriverService) ListDrivers(ctx context.Context, actor *domain.User, filter repository.DriverFilter) ([]domain.Driver, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, apperrors.NewValidationError("invalid driver status", map[string]any{"status": st})
		}
	}
	filter.Limit = clampLimit(filter.Limit, 200)
	drivers, err := s.drivers.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return drivers, nil
}

// UpdateDriver applies changes to a driver.
func (s *DriverService) UpdateDriver(ctx context.Context, actor *domain.User, id string, input DriverUpdateInput) (*domain.Driver, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	driver, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "driver", map[string]any{"driver_id": id})
	}
	before := driverSnapshot(driver)

	if input.UserID != nil {
		userID := strings.TrimSpace(*input.UserID)
		if userID == "" {
			driver.UserID = nil
		} else {
			if err := s.checkDriverAccount(ctx, userID); err != nil {
				return nil, err
			}
			driver.UserID = &userID
		}
	}
	if input.Name != nil {
		driver.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		driver.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.LicenseNumber != nil {
		driver.LicenseNumber = strings.ToUpper(strings.TrimSpace(*input.LicenseNumber))
	}
	if input.LicenseExpiry != nil {
		driver.LicenseExpiry = input.LicenseExpiry.UTC()
	}
	if input.Campus != nil {
		driver.Campus = strings.TrimSpace(*input.Campus)
	}
	if input.Status != nil {
		driver.Status = *input.Status
	}
	if err := validateDriver(driver); err != nil {
		return nil, err
	}

	if err := s.drivers.Update(ctx, driver); err != nil {
		return nil, mapRepoErr(err, "driver", map[string]any{"driver_id": id})
	}
	if err := s.audit.Record(ctx, actor, domain.EntityDriver, driver.ID, domain.AuditUpdated, before, driverSnapshot(driver)); err != nil {
		return nil, err
	}
	return driver, nil
}

// DeleteDriver removes a driver that no open schedule event references.
func (s *DriverService) DeleteDriver(ctx context.Context, actor *domain.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	driver, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		return mapRepoErr(err, "driver", map[string]any{"driver_id": id})
	}
	blocked, err := hasBlockingEvents(ctx, s.schedule, repository.ScheduleFilter{DriverID: &id})
	if err != nil {
		return apperrors.MapError(err)
	}
	if blocked {
		return apperrors.NewConflict("driver has open schedule events", map[string]any{"driver_id": id})
	}
	if err := s.drivers.Delete(ctx, id); err != nil {
		return mapRepoErr(err, "driver", map[string]any{"driver_id": id})
	}
	return s.audit.Record(ctx, actor, domain.EntityDriver, id, domain.AuditDeleted, driverSnapshot(driver), nil)
}

func (s *DriverService) checkDriverAccount(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return mapRepoErr(err, "account", map[string]any{"user_id": userID})
	}
	if user.Role != domain.RoleDriver {
		return apperrors.NewValidationError("linked account must have DRIVER role", map[string]any{"user_id": userID})
	}
	return nil
}

func validateDriver(d *domain.Driver) error {
	switch {
	case d.Name == "":
		return apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	case d.LicenseNumber == "":
		return apperrors.NewValidationError("license number is required", map[string]any{"field": "license_number"})
	case d.LicenseExpiry.IsZero():
		return apperrors.NewValidationError("license expiry is required", map[string]any{"field": "license_expiry"})
	case d.Campus == "":
		return apperrors.NewValidationError("campus is required", map[string]any{"field": "campus"})
	case !d.Status.Valid():
		return apperrors.NewValidationError("invalid driver status", map[string]any{"status": d.Status})
	}
	return nil
}

func driverSnapshot(d *domain.Driver) map[string]any {
	return map[string]any{
		"user_id":        d.UserID,
		"name":           d.Name,
		"phone":          d.Phone,
		"license_number": d.LicenseNumber,
		"license_expiry": d.LicenseExpiry.Format("2006-01-02"),
		"campus":         d.Campus,
		"status":         d.Status,
	}
}
