package returns

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/usecase/audit"
)

type AssessConditionUseCase struct {
	uow    repository.UnitOfWork
	clock  clock.Clock
	policy valueobject.Policy
}

func NewAssessConditionUseCase(uow repository.UnitOfWork, clk clock.Clock, policy valueobject.Policy) *AssessConditionUseCase {
	return &AssessConditionUseCase{uow: uow, clock: clk, policy: policy}
}

// Execute сохраняет оценку состояния по критериям. Состояние до выдачи берётся
// из карточки предмета: она меняется только при приёмке возврата.
func (uc *AssessConditionUseCase) Execute(ctx context.Context, actor valueobject.Actor, returnID uuid.UUID, input entity.AssessmentInput) (*entity.ConditionAssessment, error) {
	if !actor.IsStaff() {
		logRejected("assess_condition", returnID, actor, apperror.ErrForbidden)
		return nil, apperror.ErrForbidden
	}

	now := uc.clock.Now()
	var assessment *entity.ConditionAssessment
	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		_, item, ret, err := loadReturn(ctx, tx, returnID)
		if err != nil {
			return err
		}
		if ret.Status != valueobject.ReturnStatusPending {
			return apperror.InvalidState("оценить можно только возврат, ожидающий приёмки")
		}

		assessment, err = entity.NewConditionAssessment(ret.ID, actor.ID, item.Condition, input, uc.policy, now)
		if err != nil {
			return err
		}
		if err := tx.Assessments().Create(ctx, assessment); err != nil {
			return err
		}

		_, err = audit.Record(ctx, tx, actor, entity.AssessConditionPayload{
			AssessmentID:       assessment.ID,
			ReturnID:           ret.ID,
			Score:              assessment.Score,
			ComputedCondition:  assessment.ComputedCondition,
			FinalCondition:     assessment.FinalCondition,
			Overridden:         assessment.Overridden,
			RecommendedPenalty: assessment.RecommendedPenalty,
		}, now)
		return err
	})
	if err != nil {
		logRejected("assess_condition", returnID, actor, err)
		return nil, err
	}
	return assessment, nil
}
