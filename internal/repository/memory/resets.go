package memory

import (
	"context"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository"
)

type resetRecord struct{ domain.PasswordResetToken }

type resetRepo struct{ s *Store }

func (r *resetRepo) Create(_ context.Context, token *domain.PasswordResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token.ID = newID()
	token.CreatedAt = r.s.now()
	r.s.resets[token.Token] = &resetRecord{*token}
	return nil
}

func (r *resetRepo) GetByToken(_ context.Context, token string) (*domain.PasswordResetToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.resets[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t := rec.PasswordResetToken
	t.UsedAt = copyPtr(rec.UsedAt)
	return &t, nil
}

func (r *resetRepo) MarkUsed(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.resets {
		if rec.ID == id && rec.UsedAt == nil {
			now := r.s.now()
			rec.UsedAt = &now
			return nil
		}
	}
	return repository.ErrNotFound
}
