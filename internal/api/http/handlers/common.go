package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-transport/internal/auth"
	"github.com/spec-kit/campus-transport/internal/domain"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
	dateLayout      = "2006-01-02"
)

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.User, nil
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

// requireTime parses a mandatory RFC3339 query parameter.
func requireTime(c *fiber.Ctx, key string) (time.Time, error) {
	val := c.Query(key)
	if val == "" {
		return time.Time{}, apperrors.NewValidationError(key+" required", map[string]any{"field": key})
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(key+" must be RFC3339", map[string]any{"field": key, "value": val})
	}
	return t, nil
}

func parseDate(field, val string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(val))
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(field+" must be YYYY-MM-DD", map[string]any{"field": field, "value": val})
	}
	return t, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	return parseInt(c.Query(key), defaultVal)
}

func parseBoolQuery(c *fiber.Ctx, key string) *bool {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return &parsed
		}
	}
	return nil
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		return &val
	}
	return nil
}

// parseList splits a comma separated query parameter, upper-casing enum values.
func parseList[T ~string](c *fiber.Ctx, key string) []T {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []T
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, T(strings.ToUpper(part)))
		}
	}
	return out
}

// pagination turns page/page_size into limit/offset.
func pagination(c *fiber.Ctx) (limit, offset int) {
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return pageSize, (page - 1) * pageSize
}

func pageMeta(c *fiber.Ctx, count int) fiber.Map {
	limit, offset := pagination(c)
	return fiber.Map{
		"page":      offset/limit + 1,
		"page_size": limit,
		"count":     count,
	}
}

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", nil)
}
