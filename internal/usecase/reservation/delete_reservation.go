package reservation

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/lifecycle"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
)

type DeleteReservationUseCase struct {
	uow   repository.UnitOfWork
	clock clock.Clock
}

func NewDeleteReservationUseCase(uow repository.UnitOfWork, clk clock.Clock) *DeleteReservationUseCase {
	return &DeleteReservationUseCase{uow: uow, clock: clk}
}

// Execute удаляет бронирование. Владелец удаляет свои, MANAGER и SUPER_ADMIN любые.
// Активные бронирования не удаляются никем.
func (uc *DeleteReservationUseCase) Execute(ctx context.Context, actor valueobject.Actor, reservationID uuid.UUID) error {
	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		r, _, err := lifecycle.Load(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if !actor.Owns(r.UserID) && !actor.IsElevated() {
			return apperror.ErrForbidden
		}
		return lifecycle.Remove(ctx, tx, actor, r, uc.clock.Now())
	})
	if err != nil {
		logRejected("delete_reservation", reservationID, actor, err)
		return err
	}
	return nil
}
