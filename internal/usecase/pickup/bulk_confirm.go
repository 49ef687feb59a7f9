package pickup

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/lifecycle"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/usecase/notify"
)

const MaxBulkConfirm = 100

type BulkItemResult struct {
	ReservationID uuid.UUID `json:"reservationId"`
	Success       bool      `json:"success"`
	Error         string    `json:"error,omitempty"`
	Code          string    `json:"code,omitempty"`
}

type BulkResult struct {
	Results   []BulkItemResult `json:"results"`
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

type BulkConfirmUseCase struct {
	uow      repository.UnitOfWork
	clock    clock.Clock
	notifier repository.Notifier
}

func NewBulkConfirmUseCase(uow repository.UnitOfWork, clk clock.Clock, notifier repository.Notifier) *BulkConfirmUseCase {
	return &BulkConfirmUseCase{uow: uow, clock: clk, notifier: notifier}
}

// Execute подтверждает выдачу без кода: сотрудник лично передал предметы.
// Каждое бронирование обрабатывается в своей транзакции, ошибка одного не влияет на остальные.
func (uc *BulkConfirmUseCase) Execute(ctx context.Context, actor valueobject.Actor, ids []uuid.UUID) (*BulkResult, error) {
	if !actor.IsStaff() {
		logger.Denied("bulk_confirm_pickup", uuid.Nil, actor.ID)
		return nil, apperror.ErrForbidden
	}
	if len(ids) == 0 {
		return nil, apperror.Validation("список бронирований пуст")
	}
	if len(ids) > MaxBulkConfirm {
		return nil, apperror.Validation("слишком много бронирований в одном запросе")
	}

	result := &BulkResult{Results: make([]BulkItemResult, 0, len(ids))}
	seen := make(map[uuid.UUID]bool, len(ids))
	var confirmed []*entity.Reservation

	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		res, err := uc.confirmOne(ctx, actor, id)
		item := BulkItemResult{ReservationID: id, Success: err == nil}
		if err != nil {
			logRejected("bulk_confirm_pickup", id, actor, err)
			item.Error = err.Error()
			item.Code = string(apperror.CodeOf(err))
			result.Failed++
		} else {
			confirmed = append(confirmed, res)
			result.Succeeded++
		}
		result.Results = append(result.Results, item)
	}
	result.Total = len(result.Results)

	notifications := make([]repository.Notification, 0, len(confirmed))
	for _, r := range confirmed {
		notifications = append(notifications, pickupNotification(r))
	}
	notify.Dispatch(uc.notifier, notifications...)

	logger.Log.WithFields(map[string]interface{}{
		"actor_id":  actor.ID,
		"total":     result.Total,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Info("массовое подтверждение выдачи")

	return result, nil
}

func (uc *BulkConfirmUseCase) confirmOne(ctx context.Context, actor valueobject.Actor, id uuid.UUID) (*entity.Reservation, error) {
	now := uc.clock.Now()
	var res *entity.Reservation
	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		r, item, err := lifecycle.Load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := ensureAwaitingPickup(r); err != nil {
			return err
		}
		res = r
		return confirm(ctx, tx, actor, r, item, entity.PickupMethodAttested, now)
	})
	return res, err
}
