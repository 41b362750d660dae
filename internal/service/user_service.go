package service

import (
	"context"
	"strings"

	"github.com/spec-kit/campus-transport/internal/auth"
	"github.com/spec-kit/campus-transport/internal/config"
	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

// UserService manages accounts on behalf of administrators.
type UserService struct {
	users      repository.UserRepository
	audit      *AuditService
	bcryptCost int
}

// UserCreateInput describes a new account.
type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// UserUpdateInput carries optional account changes.
type UserUpdateInput struct {
	Name   *string
	Email  *string
	Role   *domain.Role
	Active *bool
}

// NewUserService constructs the service.
func NewUserService(cfg config.Config, users repository.UserRepository, audit *AuditService) *UserService {
	return &UserService{users: users, audit: audit, bcryptCost: cfg.Auth.BcryptCost}
}

// CreateUser creates an account of any role.
func (s *UserService) CreateUser(ctx context.Context, actor *domain.User, input UserCreateInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "password"})
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapRepoErr(err, "account", map[string]any{"email": email})
	}
	if err := s.audit.Record(ctx, actor, domain.EntityUser, user.ID, domain.AuditCreated, nil, userSnapshot(user)); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns accounts matching filter.
func (s *UserService) ListUsers(ctx context.Context, actor *domain.User, filter repository.UserFilter) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *filter.Role})
	}
	filter.Limit = clampLimit(filter.Limit, 100)
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// GetUser returns an account. Non-admins may only read their own.
func (s *UserService) GetUser(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != id {
		return nil, apperrors.NewForbidden("access denied")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "account", map[string]any{"user_id": id})
	}
	return user, nil
}

// UpdateUser applies admin changes. An admin cannot demote or deactivate
// their own account.
func (s *UserService) UpdateUser(ctx context.Context, actor *domain.User, id string, input UserUpdateInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "account", map[string]any{"user_id": id})
	}
	before := userSnapshot(user)

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
		}
		user.Name = name
	}
	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *input.Role})
		}
		if user.ID == actor.ID && *input.Role != domain.RoleAdmin {
			return nil, apperrors.NewConflict("cannot demote your own account", nil)
		}
		user.Role = *input.Role
	}
	if input.Active != nil {
		if user.ID == actor.ID && !*input.Active {
			return nil, apperrors.NewConflict("cannot deactivate your own account", nil)
		}
		user.Active = *input.Active
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepoErr(err, "account", map[string]any{"user_id": id})
	}
	if err := s.audit.Record(ctx, actor, domain.EntityUser, user.ID, domain.AuditUpdated, before, userSnapshot(user)); err != nil {
		return nil, err
	}
	return user, nil
}
