package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-transport/internal/api/dto"
	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
	"github.com/spec-kit/campus-transport/internal/service"
)

// AuditHandler exposes the history log to admins.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: auditService}
}

// ListEntries handles GET /audit.
func (h *AuditHandler) ListEntries(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	filter := repository.AuditFilter{
		EntityID:    optionalQuery(c, "entity_id"),
		ActorID:     optionalQuery(c, "actor_id"),
		CreatedFrom: parseTime(c.Query("from")),
		CreatedTo:   parseTime(c.Query("to")),
	}
	if types := parseList[domain.EntityType](c, "entity_type"); len(types) > 0 {
		filter.EntityType = &types[0]
	}
	filter.Limit, filter.Offset = pagination(c)

	entries, err := h.audit.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": auditResponses(entries), "meta": pageMeta(c, len(entries))})
}

// EntityHistory handles GET /audit/:entity/:id.
func (h *AuditHandler) EntityHistory(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	entity := domain.EntityType(strings.ToUpper(c.Params("entity")))
	limit, offset := pagination(c)
	entries, err := h.audit.ListForEntity(c.UserContext(), actor, entity, c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": auditResponses(entries), "meta": pageMeta(c, len(entries))})
}

func auditResponses(entries []domain.AuditEntry) []dto.AuditEntryResponse {
	out := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.AuditEntryResponse{
			ID:         e.ID,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			ActorID:    e.ActorID,
			ActorRole:  e.ActorRole,
			Action:     e.Action,
			OldValue:   e.OldValue,
			NewValue:   e.NewValue,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out
}
