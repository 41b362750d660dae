package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/events"
	"github.com/spec-kit/campus-transport/internal/repository"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

// SystemUser acts on behalf of operator tooling. It has admin rights and no
// account id, so audit entries record no actor.
var SystemUser = &domain.User{Name: "system", Role: domain.RoleAdmin, Active: true}

func requireAdmin(actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func requireActor(actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return nil
}

func actorID(actor *domain.User) *string {
	if actor == nil || actor.ID == "" {
		return nil
	}
	id := actor.ID
	return &id
}

func actorRole(actor *domain.User) domain.Role {
	if actor == nil {
		return ""
	}
	return actor.Role
}

func eventActor(actor *domain.User) events.Actor {
	return events.Actor{UserID: actorID(actor), Role: actorRole(actor)}
}

// mapRepoErr turns repository sentinels into domain errors for resource.
func mapRepoErr(err error, resource string, details map[string]any) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", details)
	case errors.Is(err, repository.ErrStaleStatus):
		return apperrors.NewConflict(resource+" was modified concurrently", details)
	}
	return apperrors.MapError(err)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = dispatcher.Publish(ctx, event)
}

func generateReference(prefix string) string {
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func clampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}

func ptr[T any](v T) *T {
	return &v
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
