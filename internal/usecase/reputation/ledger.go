package reputation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/usecase/audit"
)

// Ledger меняет рейтинг только вместе с записью журнала репутации.
type Ledger struct {
	initialScore int
}

func NewLedger(policy valueobject.Policy) *Ledger {
	return &Ledger{initialScore: policy.InitialTrustScore}
}

func (l *Ledger) InitialScore() int {
	return l.initialScore
}

type Delta struct {
	UserID uuid.UUID
	Points int
	Reason string
	Source entity.SourceRef
}

// ApplyDelta выполняется в транзакции бизнес-события: блокирует кэш рейтинга,
// добавляет запись журнала (в том числе с нулевой дельтой), обновляет кэш и пишет ADJUST_REPUTATION.
func (l *Ledger) ApplyDelta(ctx context.Context, tx repository.Store, actor valueobject.Actor, d Delta, now time.Time) (*entity.ReputationEntry, error) {
	current, err := tx.Reputation().FindScoreForUpdate(ctx, d.UserID)
	if err != nil {
		return nil, err
	}

	previous := l.initialScore
	if current != nil {
		previous = current.Score
	}

	createdBy := actor.ID
	entry, err := entity.NewReputationEntry(d.UserID, previous, d.Points, d.Reason, d.Source, &createdBy, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Reputation().AppendEntry(ctx, entry); err != nil {
		return nil, err
	}
	if err := tx.Reputation().SaveScore(ctx, &entity.TrustScore{
		UserID:    d.UserID,
		Score:     entry.NewScore,
		UpdatedAt: now,
	}); err != nil {
		return nil, err
	}

	if _, err := audit.Record(ctx, tx, actor, entity.AdjustReputationPayload{
		UserID:        d.UserID,
		EntryID:       entry.ID,
		Delta:         entry.Delta,
		PreviousScore: entry.PreviousScore,
		NewScore:      entry.NewScore,
		Reason:        entry.Reason,
		SourceType:    entry.SourceType,
		SourceID:      entry.SourceID,
	}, now); err != nil {
		return nil, err
	}

	return entry, nil
}
