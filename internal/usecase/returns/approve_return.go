package returns

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/lifecycle"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/usecase/audit"
	"github.com/ignatzorin/lending-backend/internal/usecase/notify"
	"github.com/ignatzorin/lending-backend/internal/usecase/reputation"
)

type ApproveReturnInput struct {
	ReturnID          uuid.UUID
	ConditionOverride *valueobject.ItemCondition
	// AcceptPenalty списывает штраф, рекомендованный последней оценкой состояния.
	AcceptPenalty bool
	Notes         *string
}

type ApproveResult struct {
	Return      *entity.Return
	Reservation *entity.Reservation
	Penalty     *entity.ReputationEntry
}

type ApproveReturnUseCase struct {
	uow      repository.UnitOfWork
	clock    clock.Clock
	ledger   *reputation.Ledger
	notifier repository.Notifier
}

func NewApproveReturnUseCase(uow repository.UnitOfWork, clk clock.Clock, ledger *reputation.Ledger, notifier repository.Notifier) *ApproveReturnUseCase {
	return &ApproveReturnUseCase{uow: uow, clock: clk, ledger: ledger, notifier: notifier}
}

// Execute принимает возврат. Итоговое состояние: явное переопределение,
// иначе результат последней оценки, иначе заявленное при возврате.
func (uc *ApproveReturnUseCase) Execute(ctx context.Context, actor valueobject.Actor, input ApproveReturnInput) (*ApproveResult, error) {
	if !actor.IsStaff() {
		logRejected("approve_return", input.ReturnID, actor, apperror.ErrForbidden)
		return nil, apperror.ErrForbidden
	}
	if input.ConditionOverride != nil && !input.ConditionOverride.IsValid() {
		return nil, apperror.Validation("некорректное итоговое состояние")
	}

	now := uc.clock.Now()
	result := &ApproveResult{}
	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		res, item, ret, err := loadReturn(ctx, tx, input.ReturnID)
		if err != nil {
			return err
		}
		if ret.Status != valueobject.ReturnStatusPending {
			return apperror.InvalidState("принять можно только возврат в статусе PENDING")
		}

		assessment, err := tx.Assessments().FindLatestByReturn(ctx, ret.ID)
		if err != nil {
			return err
		}

		final := ret.ConditionOnReturn
		switch {
		case input.ConditionOverride != nil:
			final = *input.ConditionOverride
		case assessment != nil:
			final = assessment.FinalCondition
		}

		penalty := 0
		if input.AcceptPenalty {
			if assessment == nil || !assessment.HasPenaltyRecommendation() {
				return apperror.Validation("нет рекомендации штрафа: сначала проведите оценку состояния")
			}
			penalty = assessment.RecommendedPenalty
		}

		if err := ret.Approve(actor.ID, final, now); err != nil {
			return err
		}
		if input.Notes != nil {
			ret.Notes = input.Notes
		}

		if err := complete(ctx, tx, completion{
			actor:         actor,
			reservation:   res,
			item:          item,
			ret:           ret,
			penaltyPoints: penalty,
			now:           now,
		}); err != nil {
			return err
		}

		if penalty > 0 {
			reason := *assessment.PenaltyReason
			if err := ret.RecordPenalty(penalty, reason, now); err != nil {
				return err
			}
			id := ret.ID
			entry, err := uc.ledger.ApplyDelta(ctx, tx, actor, reputation.Delta{
				UserID: res.UserID,
				Points: -penalty,
				Reason: reason,
				Source: entity.SourceRef{Type: entity.ReputationSourceReturnCondition, ID: &id},
			}, now)
			if err != nil {
				return err
			}
			result.Penalty = entry
		}

		if err := tx.Returns().Update(ctx, ret); err != nil {
			return err
		}
		result.Return, result.Reservation = ret, res
		return nil
	})
	if err != nil {
		logRejected("approve_return", input.ReturnID, actor, err)
		return nil, err
	}

	notifications := []repository.Notification{approvedNotification(result.Reservation, result.Return)}
	if result.Penalty != nil {
		notifications = append(notifications, repository.Notification{
			Type:     repository.NotificationReputationChanged,
			UserID:   result.Reservation.UserID,
			EntityID: result.Penalty.ID,
			Data:     map[string]interface{}{"delta": result.Penalty.Delta, "score": result.Penalty.NewScore},
		})
	}
	notify.Dispatch(uc.notifier, notifications...)

	return result, nil
}

// loadReturn блокирует предмет, бронирование и возврат в этом порядке.
func loadReturn(ctx context.Context, tx repository.Store, returnID uuid.UUID) (*entity.Reservation, *entity.Item, *entity.Return, error) {
	ret, err := tx.Returns().FindByID(ctx, returnID)
	if err != nil {
		return nil, nil, nil, err
	}
	res, item, err := lifecycle.Load(ctx, tx, ret.ReservationID)
	if err != nil {
		return nil, nil, nil, err
	}
	ret, err = tx.Returns().FindByIDForUpdate(ctx, returnID)
	if err != nil {
		return nil, nil, nil, err
	}
	return res, item, ret, nil
}

type RejectReturnUseCase struct {
	uow      repository.UnitOfWork
	clock    clock.Clock
	notifier repository.Notifier
}

func NewRejectReturnUseCase(uow repository.UnitOfWork, clk clock.Clock, notifier repository.Notifier) *RejectReturnUseCase {
	return &RejectReturnUseCase{uow: uow, clock: clk, notifier: notifier}
}

// Execute отклоняет возврат. Бронирование остаётся активным, можно оформить новый возврат.
func (uc *RejectReturnUseCase) Execute(ctx context.Context, actor valueobject.Actor, returnID uuid.UUID, reason string) (*entity.Return, error) {
	if !actor.IsStaff() {
		logRejected("reject_return", returnID, actor, apperror.ErrForbidden)
		return nil, apperror.ErrForbidden
	}

	now := uc.clock.Now()
	var (
		ret *entity.Return
		res *entity.Reservation
	)
	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		r, _, rt, err := loadReturn(ctx, tx, returnID)
		if err != nil {
			return err
		}
		if err := rt.Reject(reason, now); err != nil {
			return err
		}
		if err := tx.Returns().Update(ctx, rt); err != nil {
			return err
		}
		ret, res = rt, r
		_, err = audit.Record(ctx, tx, actor, entity.RejectReturnPayload{
			ReturnID:      rt.ID,
			ReservationID: r.ID,
			Reason:        *rt.RejectionReason,
		}, now)
		return err
	})
	if err != nil {
		logRejected("reject_return", returnID, actor, err)
		return nil, err
	}

	notify.Dispatch(uc.notifier, repository.Notification{
		Type:     repository.NotificationReturnRejected,
		UserID:   res.UserID,
		EntityID: ret.ID,
		Data:     map[string]interface{}{"reason": *ret.RejectionReason},
	})
	return ret, nil
}
