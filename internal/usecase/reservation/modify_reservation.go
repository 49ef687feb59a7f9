package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/lifecycle"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/usecase/availability"
	"github.com/ignatzorin/lending-backend/internal/usecase/notify"
)

type ModifyReservationInput struct {
	ReservationID uuid.UUID
	StartDate     *time.Time
	EndDate       *time.Time
	Purpose       *string
	Notes         *string
}

type ModifyResult struct {
	Reservation        *entity.Reservation
	ReapprovalRequired bool
}

type ModifyReservationUseCase struct {
	uow      repository.UnitOfWork
	clock    clock.Clock
	policy   valueobject.Policy
	notifier repository.Notifier
}

func NewModifyReservationUseCase(uow repository.UnitOfWork, clk clock.Clock, policy valueobject.Policy, notifier repository.Notifier) *ModifyReservationUseCase {
	return &ModifyReservationUseCase{uow: uow, clock: clk, policy: policy, notifier: notifier}
}

// Execute меняет даты и описание. Существенный перенос одобренного бронирования
// самим владельцем возвращает его на согласование.
func (uc *ModifyReservationUseCase) Execute(ctx context.Context, actor valueobject.Actor, input ModifyReservationInput) (*ModifyResult, error) {
	now := uc.clock.Now()
	result := &ModifyResult{}

	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		r, item, err := lifecycle.Load(ctx, tx, input.ReservationID)
		if err != nil {
			return err
		}
		if !actor.CanAccess(r.UserID) {
			return apperror.ErrForbidden
		}
		if !r.Status.IsModifiable() {
			return apperror.InvalidState("изменять можно только бронирование в статусе PENDING или APPROVED")
		}

		previous := r.Period()
		start, end := previous.Start, previous.End
		if input.StartDate != nil {
			start = *input.StartDate
		}
		if input.EndDate != nil {
			end = *input.EndDate
		}
		period, err := valueobject.NewDateRange(start, end)
		if err != nil {
			return err
		}

		datesChanged := !period.Equal(previous)
		if datesChanged {
			if err := availability.Guard(ctx, tx, item.ID, period, &r.ID); err != nil {
				return err
			}
		}

		result.ReapprovalRequired = datesChanged &&
			r.Status == valueobject.ReservationStatusApproved &&
			actor.IsOwnerNotStaff(r.UserID) &&
			period.ShiftedMoreThan(previous, uc.policy.SignificantChange)

		_, err = lifecycle.Transition(ctx, tx, lifecycle.Step{
			Actor:       actor,
			Reservation: r,
			Item:        item,
			Now:         now,
			Mutate: func(r *entity.Reservation) error {
				if err := r.Reschedule(period, result.ReapprovalRequired, now); err != nil {
					return err
				}
				r.UpdateDetails(input.Purpose, input.Notes, now)
				return nil
			},
			Audit: func(c lifecycle.Change) entity.AuditPayload {
				return entity.ModifyReservationPayload{
					ReservationID:      r.ID,
					PreviousStart:      previous.Start,
					PreviousEnd:        previous.End,
					NewStart:           r.StartDate,
					NewEnd:             r.EndDate,
					PreviousStatus:     c.From,
					NewStatus:          c.To,
					ReapprovalRequired: result.ReapprovalRequired,
				}
			},
		})
		if err != nil {
			return err
		}

		result.Reservation = r
		return nil
	})
	if err != nil {
		logRejected("modify_reservation", input.ReservationID, actor, err)
		return nil, err
	}

	if result.ReapprovalRequired {
		notify.Dispatch(uc.notifier, repository.Notification{
			Type:     repository.NotificationReapprovalRequired,
			UserID:   result.Reservation.UserID,
			EntityID: result.Reservation.ID,
		})
	}
	return result, nil
}
