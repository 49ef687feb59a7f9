package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
)

type reputationRepo struct {
	run runner
}

func (r *reputationRepo) FindScore(ctx context.Context, userID uuid.UUID) (*entity.TrustScore, error) {
	var out *entity.TrustScore
	err := r.run(func(st *state) error {
		if score, ok := st.scores[userID]; ok {
			out = &score
		}
		return nil
	})
	return out, err
}

func (r *reputationRepo) FindScoreForUpdate(ctx context.Context, userID uuid.UUID) (*entity.TrustScore, error) {
	return r.FindScore(ctx, userID)
}

func (r *reputationRepo) SaveScore(ctx context.Context, score *entity.TrustScore) error {
	return r.run(func(st *state) error {
		st.scores[score.UserID] = *score
		return nil
	})
}

func (r *reputationRepo) AppendEntry(ctx context.Context, entry *entity.ReputationEntry) error {
	return r.run(func(st *state) error {
		st.entries = append(st.entries, *entry)
		return nil
	})
}

func (r *reputationRepo) ListEntries(ctx context.Context, userID uuid.UUID) ([]*entity.ReputationEntry, error) {
	var out []*entity.ReputationEntry
	err := r.run(func(st *state) error {
		for _, e := range st.entries {
			if e.UserID == userID {
				e := e
				out = append(out, &e)
			}
		}
		return nil
	})
	return out, err
}
