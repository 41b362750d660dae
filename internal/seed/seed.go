// Package seed loads fleet and account fixtures from YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
	"github.com/spec-kit/campus-transport/internal/service"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

// File is the seed document layout.
type File struct {
	Users    []User    `yaml:"users"`
	Vehicles []Vehicle `yaml:"vehicles"`
	Drivers  []Driver  `yaml:"drivers"`
}

// User seeds an account.
type User struct {
	Name     string      `yaml:"name"`
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Role     domain.Role `yaml:"role"`
}

// Vehicle seeds a registry entry.
type Vehicle struct {
	Code        string               `yaml:"code"`
	PlateNumber string               `yaml:"plate_number"`
	Type        domain.VehicleType   `yaml:"type"`
	Campus      string               `yaml:"campus"`
	Capacity    int                  `yaml:"capacity"`
	Status      domain.VehicleStatus `yaml:"status"`
	OdometerKm  int                  `yaml:"odometer_km"`
	Notes       string               `yaml:"notes"`
}

// Driver seeds a driver. UserEmail links an account seeded or existing.
type Driver struct {
	Name          string              `yaml:"name"`
	Phone         string              `yaml:"phone"`
	LicenseNumber string              `yaml:"license_number"`
	LicenseExpiry string              `yaml:"license_expiry"`
	Campus        string              `yaml:"campus"`
	Status        domain.DriverStatus `yaml:"status"`
	UserEmail     string              `yaml:"user_email"`
}

// Result counts what a run created and skipped.
type Result struct {
	Created int
	Skipped int
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// Load reads and parses the seed file at path.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Seeder applies seed documents through the services so every record is
// validated and audited. Records that already exist are skipped.
type Seeder struct {
	users    *service.UserService
	vehicles *service.VehicleService
	drivers  *service.DriverService
	userRepo repository.UserRepository
	logger   *zap.Logger
}

// NewSeeder constructs a seeder.
func NewSeeder(users *service.UserService, vehicles *service.VehicleService, drivers *service.DriverService, userRepo repository.UserRepository, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{users: users, vehicles: vehicles, drivers: drivers, userRepo: userRepo, logger: logger}
}

// Apply seeds users, then vehicles, then drivers.
func (s *Seeder) Apply(ctx context.Context, f *File) (Result, error) {
	var res Result
	actor := service.SystemUser

	for _, u := range f.Users {
		_, err := s.users.CreateUser(ctx, actor, service.UserCreateInput{
			Name:     u.Name,
			Email:    u.Email,
			Password: u.Password,
			Role:     u.Role,
		})
		if err := s.tally(&res, "user", u.Email, err); err != nil {
			return res, err
		}
	}

	for _, v := range f.Vehicles {
		_, err := s.vehicles.CreateVehicle(ctx, actor, service.VehicleInput{
			Code:        v.Code,
			PlateNumber: v.PlateNumber,
			Type:        v.Type,
			Campus:      v.Campus,
			Capacity:    v.Capacity,
			Status:      v.Status,
			OdometerKm:  v.OdometerKm,
			Notes:       v.Notes,
		})
		if err := s.tally(&res, "vehicle", v.Code, err); err != nil {
			return res, err
		}
	}

	for _, d := range f.Drivers {
		expiry, err := time.Parse("2006-01-02", strings.TrimSpace(d.LicenseExpiry))
		if err != nil {
			return res, fmt.Errorf("driver %s: invalid license_expiry %q", d.LicenseNumber, d.LicenseExpiry)
		}
		input := service.DriverInput{
			Name:          d.Name,
			Phone:         d.Phone,
			LicenseNumber: d.LicenseNumber,
			LicenseExpiry: expiry,
			Campus:        d.Campus,
			Status:        d.Status,
		}
		if d.UserEmail != "" {
			user, err := s.userRepo.GetByEmail(ctx, d.UserEmail)
			if err != nil {
				return res, fmt.Errorf("driver %s: account %s: %w", d.LicenseNumber, d.UserEmail, err)
			}
			input.UserID = &user.ID
		}
		_, err = s.drivers.CreateDriver(ctx, actor, input)
		if err := s.tally(&res, "driver", d.LicenseNumber, err); err != nil {
			return res, err
		}
	}

	s.logger.Info("seed applied", zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
	return res, nil
}

func (s *Seeder) tally(res *Result, kind, key string, err error) error {
	if err == nil {
		res.Created++
		return nil
	}
	if de := apperrors.ToDomainError(err); de.Code == "CONFLICT" {
		res.Skipped++
		s.logger.Debug("seed record exists", zap.String("kind", kind), zap.String("key", key))
		return nil
	}
	return fmt.Errorf("seed %s %s: %w", kind, key, err)
}
