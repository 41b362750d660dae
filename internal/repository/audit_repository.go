package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-transport/internal/domain"
)

// AuditFilter captures audit log queries.
type AuditFilter struct {
	EntityType  *domain.EntityType
	EntityID    *string
	ActorID     *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// AuditRepository stores immutable history entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

const auditListOrder = " ORDER BY created_at DESC, id DESC"

// NewAuditRepository builds repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO audit_entries (entity_type, entity_id, actor_id, actor_role, action, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.EntityType,
		entry.EntityID,
		entry.ActorID,
		entry.ActorRole,
		entry.Action,
		entry.OldValue,
		entry.NewValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, error) {
	var w whereBuilder
	if filter.EntityType != nil {
		w.add("entity_type=%s", *filter.EntityType)
	}
	if filter.EntityID != nil {
		w.add("entity_id=%s", *filter.EntityID)
	}
	if filter.ActorID != nil {
		w.add("actor_id=%s", *filter.ActorID)
	}
	if filter.CreatedFrom != nil {
		w.add("created_at >= %s", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		w.add("created_at < %s", *filter.CreatedTo)
	}

	query := `
        SELECT id, entity_type, entity_id, actor_id, actor_role, action, old_value, new_value, created_at
        FROM audit_entries` + w.sql() + auditListOrder + pageClause(filter.Limit, filter.Offset, 50)
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.EntityType,
			&entry.EntityID,
			&entry.ActorID,
			&entry.ActorRole,
			&entry.Action,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
