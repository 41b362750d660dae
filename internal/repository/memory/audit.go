package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
)

type auditRecord struct{ domain.AuditEntry }

func cloneValues(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneAudit(e domain.AuditEntry) domain.AuditEntry {
	e.ActorID = copyPtr(e.ActorID)
	e.OldValue = cloneValues(e.OldValue)
	e.NewValue = cloneValues(e.NewValue)
	return e
}

type auditRepo struct{ s *Store }

func (r *auditRepo) Create(_ context.Context, entry *domain.AuditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = newID()
	entry.CreatedAt = r.s.now()
	r.s.audit = append(r.s.audit, &auditRecord{cloneAudit(*entry)})
	return nil
}

func (r *auditRepo) List(_ context.Context, filter repository.AuditFilter) ([]domain.AuditEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.AuditEntry
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		rec := r.s.audit[i]
		if filter.EntityType != nil && rec.EntityType != *filter.EntityType {
			continue
		}
		if !eqPtr(filter.EntityID, rec.EntityID) || !eqOptPtr(filter.ActorID, rec.ActorID) {
			continue
		}
		if filter.CreatedFrom != nil && rec.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && !rec.CreatedAt.Before(*filter.CreatedTo) {
			continue
		}
		result = append(result, cloneAudit(rec.AuditEntry))
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return page(result, filter.Limit, filter.Offset, 50), nil
}
