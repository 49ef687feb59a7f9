// Package returns оформляет возврат предмета, его приёмку и оценку состояния.
package returns

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/lifecycle"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/usecase/audit"
	"github.com/ignatzorin/lending-backend/internal/usecase/notify"
)

type CreateReturnInput struct {
	ReservationID uuid.UUID
	// ReturnDate по умолчанию — текущий момент.
	ReturnDate   *time.Time
	Condition    valueobject.ItemCondition
	DamageReport *string
	ImageRefs    []string
	Notes        *string
}

type CreateReturnUseCase struct {
	uow      repository.UnitOfWork
	clock    clock.Clock
	notifier repository.Notifier
}

func NewCreateReturnUseCase(uow repository.UnitOfWork, clk clock.Clock, notifier repository.Notifier) *CreateReturnUseCase {
	return &CreateReturnUseCase{uow: uow, clock: clk, notifier: notifier}
}

// Execute регистрирует возврат. Возврат в срок в состоянии GOOD без акта о повреждении
// принимается сразу, и бронирование завершается в той же транзакции.
func (uc *CreateReturnUseCase) Execute(ctx context.Context, actor valueobject.Actor, input CreateReturnInput) (*entity.Return, error) {
	now := uc.clock.Now()
	var returnDate time.Time
	if input.ReturnDate != nil {
		returnDate = *input.ReturnDate
		if returnDate.After(now) {
			return nil, apperror.Validation("дата возврата не может быть в будущем")
		}
	}

	var (
		ret  *entity.Return
		res  *entity.Reservation
		auto bool
	)
	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		r, item, err := lifecycle.Load(ctx, tx, input.ReservationID)
		if err != nil {
			return err
		}
		if !actor.CanAccess(r.UserID) {
			return apperror.ErrForbidden
		}
		res = r

		if r.ActualStartDate != nil && !returnDate.IsZero() && returnDate.Before(*r.ActualStartDate) {
			return apperror.Validation("дата возврата раньше фактической выдачи")
		}

		ret, err = entity.NewReturn(r, actor.ID, returnDate, input.Condition, input.DamageReport, input.ImageRefs, input.Notes, now)
		if err != nil {
			return err
		}

		open, err := tx.Returns().FindOpenByReservation(ctx, r.ID)
		if err != nil {
			return err
		}
		if open != nil {
			return apperror.Conflict("по бронированию уже оформлен возврат", openReturn{ReturnID: open.ID, Status: open.Status})
		}

		// Дата возврата задаётся клиентом, поэтому срок сверяется и с моментом оформления.
		auto = ret.QualifiesForAutoApproval(r.EndDate) && !now.After(r.EndDate)
		if !auto {
			if err := tx.Returns().Create(ctx, ret); err != nil {
				return err
			}
			_, err = audit.Record(ctx, tx, actor, entity.CreateReturnPayload{
				ReturnID:        ret.ID,
				ReservationID:   r.ID,
				Condition:       ret.ConditionOnReturn,
				ReturnDate:      ret.ReturnDate,
				OnTime:          ret.IsOnTime(r.EndDate),
				HasDamageReport: ret.HasDamageReport(),
			}, now)
			return err
		}

		if err := ret.Approve(actor.ID, valueobject.ConditionGood, now); err != nil {
			return err
		}
		if err := tx.Returns().Create(ctx, ret); err != nil {
			return err
		}
		return complete(ctx, tx, completion{
			actor:       actor,
			reservation: r,
			item:        item,
			ret:         ret,
			auto:        true,
			now:         now,
		})
	})
	if err != nil {
		logRejected("create_return", input.ReservationID, actor, err)
		return nil, err
	}

	if auto {
		notify.Dispatch(uc.notifier, approvedNotification(res, ret))
	}
	return ret, nil
}

// openReturn попадает в details ошибки конфликта.
type openReturn struct {
	ReturnID uuid.UUID                `json:"returnId"`
	Status   valueobject.ReturnStatus `json:"status"`
}

type completion struct {
	actor         valueobject.Actor
	reservation   *entity.Reservation
	item          *entity.Item
	ret           *entity.Return
	auto          bool
	penaltyPoints int
	now           time.Time
}

// complete переносит итоговое состояние на предмет и завершает бронирование.
// Статус возврата к этому моменту уже APPROVED или DAMAGED.
func complete(ctx context.Context, tx repository.Store, c completion) error {
	final := *c.ret.FinalCondition
	c.item.ApplyCondition(final, c.now)

	_, err := lifecycle.Transition(ctx, tx, lifecycle.Step{
		Actor:       c.actor,
		Reservation: c.reservation,
		Item:        c.item,
		ItemDirty:   true,
		Now:         c.now,
		Mutate: func(r *entity.Reservation) error {
			return r.Complete(c.ret.ReturnDate, c.now)
		},
		Audit: func(ch lifecycle.Change) entity.AuditPayload {
			return entity.ApproveReturnPayload{
				ReturnID:           c.ret.ID,
				ReservationID:      c.reservation.ID,
				ItemID:             c.item.ID,
				Status:             c.ret.Status,
				FinalCondition:     final,
				AutoApproved:       c.auto,
				PreviousItemStatus: ch.ItemFrom,
				NewItemStatus:      ch.ItemTo,
				PenaltyPoints:      c.penaltyPoints,
			}
		},
	})
	return err
}

func approvedNotification(res *entity.Reservation, ret *entity.Return) repository.Notification {
	return repository.Notification{
		Type:     repository.NotificationReturnApproved,
		UserID:   res.UserID,
		EntityID: ret.ID,
		Data: map[string]interface{}{
			"reservationId":  res.ID,
			"status":         ret.Status,
			"finalCondition": ret.FinalCondition,
		},
	}
}

func logRejected(action string, entityID uuid.UUID, actor valueobject.Actor, err error) {
	switch {
	case apperror.IsInvalidState(err), apperror.IsConflict(err):
		logger.Rejected(action, entityID, actor.ID, err)
	case apperror.IsForbidden(err):
		logger.Denied(action, entityID, actor.ID)
	}
}
