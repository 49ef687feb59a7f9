package reservation

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/lifecycle"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/usecase/notify"
	"github.com/ignatzorin/lending-backend/internal/usecase/reputation"
)

type ApproveReservationUseCase struct {
	uow      repository.UnitOfWork
	clock    clock.Clock
	notifier repository.Notifier
}

func NewApproveReservationUseCase(uow repository.UnitOfWork, clk clock.Clock, notifier repository.Notifier) *ApproveReservationUseCase {
	return &ApproveReservationUseCase{uow: uow, clock: clk, notifier: notifier}
}

func (uc *ApproveReservationUseCase) Execute(ctx context.Context, actor valueobject.Actor, reservationID uuid.UUID) (*entity.Reservation, error) {
	if !actor.IsStaff() {
		logRejected("approve_reservation", reservationID, actor, apperror.ErrForbidden)
		return nil, apperror.ErrForbidden
	}

	now := uc.clock.Now()
	var res *entity.Reservation
	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		r, item, err := lifecycle.Load(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		res = r
		_, err = lifecycle.Transition(ctx, tx, lifecycle.Step{
			Actor:       actor,
			Reservation: r,
			Item:        item,
			Now:         now,
			Mutate: func(r *entity.Reservation) error {
				return r.Approve(actor.ID, now)
			},
			Audit: func(c lifecycle.Change) entity.AuditPayload {
				return entity.ApproveReservationPayload{
					ReservationID:  r.ID,
					PreviousStatus: c.From,
					NewStatus:      c.To,
					ApprovedBy:     actor.ID,
				}
			},
		})
		return err
	})
	if err != nil {
		logRejected("approve_reservation", reservationID, actor, err)
		return nil, err
	}

	notify.Dispatch(uc.notifier, repository.Notification{
		Type:     repository.NotificationReservationApproved,
		UserID:   res.UserID,
		EntityID: res.ID,
	})
	return res, nil
}

type RejectReservationUseCase struct {
	uow      repository.UnitOfWork
	clock    clock.Clock
	notifier repository.Notifier
}

func NewRejectReservationUseCase(uow repository.UnitOfWork, clk clock.Clock, notifier repository.Notifier) *RejectReservationUseCase {
	return &RejectReservationUseCase{uow: uow, clock: clk, notifier: notifier}
}

func (uc *RejectReservationUseCase) Execute(ctx context.Context, actor valueobject.Actor, reservationID uuid.UUID, reason string) (*entity.Reservation, error) {
	if !actor.IsStaff() {
		logRejected("reject_reservation", reservationID, actor, apperror.ErrForbidden)
		return nil, apperror.ErrForbidden
	}

	now := uc.clock.Now()
	var res *entity.Reservation
	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		r, item, err := lifecycle.Load(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		res = r
		_, err = lifecycle.Transition(ctx, tx, lifecycle.Step{
			Actor:       actor,
			Reservation: r,
			Item:        item,
			Now:         now,
			Mutate: func(r *entity.Reservation) error {
				return r.Reject(reason, now)
			},
			Audit: func(c lifecycle.Change) entity.AuditPayload {
				return entity.RejectReservationPayload{
					ReservationID:  r.ID,
					PreviousStatus: c.From,
					Reason:         *r.RejectionReason,
				}
			},
		})
		return err
	})
	if err != nil {
		logRejected("reject_reservation", reservationID, actor, err)
		return nil, err
	}

	notify.Dispatch(uc.notifier, repository.Notification{
		Type:     repository.NotificationReservationRejected,
		UserID:   res.UserID,
		EntityID: res.ID,
		Data:     map[string]interface{}{"reason": *res.RejectionReason},
	})
	return res, nil
}

// CancelResult: отменённое бронирование и запись журнала репутации, если был штраф.
type CancelResult struct {
	Reservation *entity.Reservation
	Penalty     *entity.ReputationEntry
	Timing      valueobject.CancellationKind
}

type CancelReservationUseCase struct {
	uow      repository.UnitOfWork
	clock    clock.Clock
	policy   valueobject.Policy
	ledger   *reputation.Ledger
	notifier repository.Notifier
}

func NewCancelReservationUseCase(uow repository.UnitOfWork, clk clock.Clock, policy valueobject.Policy, ledger *reputation.Ledger, notifier repository.Notifier) *CancelReservationUseCase {
	return &CancelReservationUseCase{uow: uow, clock: clk, policy: policy, ledger: ledger, notifier: notifier}
}

// Execute отменяет бронирование. Владелец без служебной роли получает штраф
// за отмену менее чем за сутки до начала или после начала.
func (uc *CancelReservationUseCase) Execute(ctx context.Context, actor valueobject.Actor, reservationID uuid.UUID, reason string) (*CancelResult, error) {
	now := uc.clock.Now()
	result := &CancelResult{}

	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		r, item, err := lifecycle.Load(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if !actor.CanAccess(r.UserID) {
			return apperror.ErrForbidden
		}

		points := 0
		if actor.IsOwnerNotStaff(r.UserID) {
			result.Timing, points = uc.policy.CancellationPenalty(r.StartDate, now)
		}

		_, err = lifecycle.Transition(ctx, tx, lifecycle.Step{
			Actor:       actor,
			Reservation: r,
			Item:        item,
			Now:         now,
			Mutate: func(r *entity.Reservation) error {
				return r.Cancel(actor.ID, reason, now)
			},
			Audit: func(c lifecycle.Change) entity.AuditPayload {
				return entity.CancelReservationPayload{
					ReservationID:  r.ID,
					PreviousStatus: c.From,
					Reason:         *r.CancellationReason,
					CancelledBy:    actor.ID,
					Timing:         result.Timing,
					PenaltyPoints:  points,
				}
			},
		})
		if err != nil {
			return err
		}

		if points > 0 {
			id := r.ID
			entry, err := uc.ledger.ApplyDelta(ctx, tx, actor, reputation.Delta{
				UserID: r.UserID,
				Points: -points,
				Reason: cancellationReason(result.Timing),
				Source: entity.SourceRef{Type: entity.ReputationSourceCancellation, ID: &id},
			}, now)
			if err != nil {
				return err
			}
			result.Penalty = entry
		}

		result.Reservation = r
		return nil
	})
	if err != nil {
		logRejected("cancel_reservation", reservationID, actor, err)
		return nil, err
	}

	res := result.Reservation
	notifications := []repository.Notification{{
		Type:     repository.NotificationReservationCancelled,
		UserID:   res.UserID,
		EntityID: res.ID,
		Data:     map[string]interface{}{"reason": *res.CancellationReason},
	}}
	if result.Penalty != nil {
		notifications = append(notifications, repository.Notification{
			Type:     repository.NotificationReputationChanged,
			UserID:   res.UserID,
			EntityID: result.Penalty.ID,
			Data:     map[string]interface{}{"delta": result.Penalty.Delta, "score": result.Penalty.NewScore},
		})
	}
	notify.Dispatch(uc.notifier, notifications...)

	return result, nil
}

func cancellationReason(kind valueobject.CancellationKind) string {
	if kind == valueobject.CancellationVeryLate {
		return "отмена бронирования после даты начала"
	}
	return "отмена бронирования менее чем за сутки до начала"
}
