// Package lifecycle: единственная точка, через которую меняется статус бронирования.
// Каждый переход в одной транзакции обновляет бронирование, статус предмета и пишет запись журнала.
package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

// Change описывает выполненный переход.
type Change struct {
	Reservation *entity.Reservation
	Item        *entity.Item
	From        valueobject.ReservationStatus
	To          valueobject.ReservationStatus
	ItemFrom    valueobject.ItemStatus
	ItemTo      valueobject.ItemStatus
}

func (c Change) StatusChanged() bool {
	return c.From != c.To
}

type Step struct {
	Actor       valueobject.Actor
	Reservation *entity.Reservation
	// Item должен быть прочитан с блокировкой в той же транзакции.
	Item *entity.Item
	// ItemDirty: вызывающий код сам изменил предмет (например, состояние), его нужно сохранить.
	ItemDirty bool
	Mutate    func(r *entity.Reservation) error
	Audit     func(c Change) entity.AuditPayload
	Now       time.Time
}

// Transition применяет Mutate, проверяет автомат состояний, синхронизирует предмет,
// сохраняет обе сущности и добавляет запись журнала. Всё выполняется внутри tx.
func Transition(ctx context.Context, tx repository.Store, step Step) (Change, error) {
	res, item := step.Reservation, step.Item
	if res.ItemID != item.ID {
		return Change{}, apperror.New(apperror.ErrCodeInternal, "бронирование и предмет не совпадают")
	}

	change := Change{
		Reservation: res,
		Item:        item,
		From:        res.Status,
		ItemFrom:    item.Status,
	}

	if err := step.Mutate(res); err != nil {
		return Change{}, err
	}
	change.To = res.Status

	if change.StatusChanged() && !change.From.CanTransitionTo(change.To) {
		return Change{}, apperror.InvalidState("недопустимый переход: " + string(change.From) + " -> " + string(change.To))
	}

	if change.To == valueobject.ReservationStatusActive && change.StatusChanged() {
		if err := ensureLendable(item); err != nil {
			return Change{}, err
		}
	}

	itemChanged := item.SyncWith(change.To, step.Now)
	change.ItemTo = item.Status

	if err := tx.Reservations().Update(ctx, res); err != nil {
		return Change{}, err
	}
	if itemChanged || step.ItemDirty {
		if err := tx.Items().Update(ctx, item); err != nil {
			return Change{}, err
		}
	}

	entry := entity.NewAuditLogEntry(step.Actor, step.Audit(change), step.Now)
	if err := tx.AuditLog().Append(ctx, entry); err != nil {
		return Change{}, err
	}

	return change, nil
}

// ensureLendable: у предмета не больше одного активного бронирования.
func ensureLendable(item *entity.Item) error {
	switch item.Status {
	case valueobject.ItemStatusBorrowed:
		return apperror.InvalidState("предмет уже выдан по другому бронированию")
	case valueobject.ItemStatusRetired, valueobject.ItemStatusMaintenance:
		return apperror.InvalidState("предмет недоступен для выдачи: " + string(item.Status))
	}
	return nil
}

// Open сохраняет новое бронирование вместе с записью CREATE_RESERVATION.
func Open(ctx context.Context, tx repository.Store, actor valueobject.Actor, res *entity.Reservation, now time.Time) error {
	if err := tx.Reservations().Create(ctx, res); err != nil {
		return err
	}

	entry := entity.NewAuditLogEntry(actor, entity.CreateReservationPayload{
		ReservationID: res.ID,
		ItemID:        res.ItemID,
		UserID:        res.UserID,
		StartDate:     res.StartDate,
		EndDate:       res.EndDate,
		Purpose:       res.Purpose,
	}, now)
	return tx.AuditLog().Append(ctx, entry)
}

// Remove удаляет неактивное бронирование вместе с возвратами и актами о повреждениях.
func Remove(ctx context.Context, tx repository.Store, actor valueobject.Actor, res *entity.Reservation, now time.Time) error {
	if res.Status == valueobject.ReservationStatusActive {
		return apperror.InvalidState("активное бронирование нельзя удалить: сначала оформите возврат")
	}

	if err := tx.DamageReports().DeleteByReservation(ctx, res.ID); err != nil {
		return err
	}
	if err := tx.Returns().DeleteByReservation(ctx, res.ID); err != nil {
		return err
	}
	if err := tx.Reservations().Delete(ctx, res.ID); err != nil {
		return err
	}

	entry := entity.NewAuditLogEntry(actor, entity.DeleteReservationPayload{
		ReservationID: res.ID,
		ItemID:        res.ItemID,
		UserID:        res.UserID,
		Status:        res.Status,
		StartDate:     res.StartDate,
		EndDate:       res.EndDate,
	}, now)
	return tx.AuditLog().Append(ctx, entry)
}

// Load читает бронирование и блокирует сначала предмет, затем само бронирование.
// Единый порядок блокировок исключает взаимные блокировки между переходами.
func Load(ctx context.Context, tx repository.Store, reservationID uuid.UUID) (*entity.Reservation, *entity.Item, error) {
	res, err := tx.Reservations().FindByID(ctx, reservationID)
	if err != nil {
		return nil, nil, err
	}
	item, err := tx.Items().FindByIDForUpdate(ctx, res.ItemID)
	if err != nil {
		return nil, nil, err
	}
	res, err = tx.Reservations().FindByIDForUpdate(ctx, reservationID)
	if err != nil {
		return nil, nil, err
	}
	return res, item, nil
}
