package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

// AuditService writes and reads the immutable history log.
type AuditService struct {
	repo   repository.AuditRepository
	logger *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(repo repository.AuditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// Record appends an entry for a mutation performed by actor.
func (s *AuditService) Record(ctx context.Context, actor *domain.User, entity domain.EntityType, entityID string, action domain.AuditAction, oldValue, newValue map[string]any) error {
	if s == nil || s.repo == nil {
		return nil
	}
	entry := &domain.AuditEntry{
		EntityType: entity,
		EntityID:   entityID,
		ActorID:    actorID(actor),
		ActorRole:  actorRole(actor),
		Action:     action,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("record audit entry",
			zap.String("entity_type", string(entity)),
			zap.String("entity_id", entityID),
			zap.Error(err))
		return apperrors.MapError(err)
	}
	return nil
}

// List returns audit entries matching filter. Admin only.
func (s *AuditService) List(ctx context.Context, actor *domain.User, filter repository.AuditFilter) ([]domain.AuditEntry, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if filter.CreatedFrom != nil && filter.CreatedTo != nil && !filter.CreatedTo.After(*filter.CreatedFrom) {
		return nil, apperrors.NewValidationError("created_to must be after created_from", nil)
	}
	filter.Limit = clampLimit(filter.Limit, 200)
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// ListForEntity returns the history of a single entity, newest first.
func (s *AuditService) ListForEntity(ctx context.Context, actor *domain.User, entity domain.EntityType, entityID string, limit, offset int) ([]domain.AuditEntry, error) {
	return s.List(ctx, actor, repository.AuditFilter{
		EntityType: &entity,
		EntityID:   &entityID,
		Limit:      limit,
		Offset:     offset,
	})
}
