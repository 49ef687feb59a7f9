package reputation

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
)

// Score: текущий рейтинг и его пересчёт по журналу.
type Score struct {
	UserID     uuid.UUID `json:"userId"`
	Score      int       `json:"score"`
	Recomputed int       `json:"recomputed"`
	Entries    int       `json:"entries"`
	Consistent bool      `json:"consistent"`
}

type GetScoreUseCase struct {
	store  repository.Store
	ledger *Ledger
}

func NewGetScoreUseCase(store repository.Store, ledger *Ledger) *GetScoreUseCase {
	return &GetScoreUseCase{store: store, ledger: ledger}
}

func (uc *GetScoreUseCase) Execute(ctx context.Context, actor valueobject.Actor, userID uuid.UUID) (*Score, error) {
	if !actor.CanAccess(userID) {
		logger.Denied("get_reputation", userID, actor.ID)
		return nil, apperror.ErrForbidden
	}

	cached, err := uc.store.Reputation().FindScore(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := uc.store.Reputation().ListEntries(ctx, userID)
	if err != nil {
		return nil, err
	}

	recomputed := entity.Replay(uc.ledger.InitialScore(), entries)
	score := uc.ledger.InitialScore()
	if cached != nil {
		score = cached.Score
	}

	result := &Score{
		UserID:     userID,
		Score:      score,
		Recomputed: recomputed,
		Entries:    len(entries),
		Consistent: score == recomputed,
	}
	if !result.Consistent {
		logger.Log.WithField("user_id", userID).Errorf("рейтинг расходится с журналом: кэш %d, журнал %d", score, recomputed)
	}
	return result, nil
}

type GetHistoryUseCase struct {
	store repository.Store
}

func NewGetHistoryUseCase(store repository.Store) *GetHistoryUseCase {
	return &GetHistoryUseCase{store: store}
}

func (uc *GetHistoryUseCase) Execute(ctx context.Context, actor valueobject.Actor, userID uuid.UUID) ([]*entity.ReputationEntry, error) {
	if !actor.CanAccess(userID) {
		logger.Denied("reputation_history", userID, actor.ID)
		return nil, apperror.ErrForbidden
	}
	return uc.store.Reputation().ListEntries(ctx, userID)
}

type AdjustInput struct {
	UserID uuid.UUID
	Delta  int
	Reason string
}

// AdjustUseCase: ручная корректировка рейтинга руководителем.
type AdjustUseCase struct {
	uow    repository.UnitOfWork
	ledger *Ledger
	clock  clock.Clock
}

func NewAdjustUseCase(uow repository.UnitOfWork, ledger *Ledger, clk clock.Clock) *AdjustUseCase {
	return &AdjustUseCase{uow: uow, ledger: ledger, clock: clk}
}

func (uc *AdjustUseCase) Execute(ctx context.Context, actor valueobject.Actor, input AdjustInput) (*entity.ReputationEntry, error) {
	if !actor.IsElevated() {
		logger.Denied("adjust_reputation", input.UserID, actor.ID)
		return nil, apperror.ErrForbidden
	}
	if input.UserID == uuid.Nil {
		return nil, apperror.Validation("не указан пользователь")
	}

	var entry *entity.ReputationEntry
	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		entry, err = uc.ledger.ApplyDelta(ctx, tx, actor, Delta{
			UserID: input.UserID,
			Points: input.Delta,
			Reason: input.Reason,
			Source: entity.SourceRef{Type: entity.ReputationSourceManual},
		}, uc.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
