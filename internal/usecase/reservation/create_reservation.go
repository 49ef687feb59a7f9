package reservation

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
	"github.com/ignatzorin/lending-backend/internal/usecase/availability"
)

type CreateReservationInput struct {
	ItemID    uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	Purpose   string
	Notes     *string
	// OnBehalfOf: сотрудник оформляет бронирование на другого пользователя.
	OnBehalfOf *uuid.UUID
}

type CreateReservationUseCase struct {
	uow   repository.UnitOfWork
	clock clock.Clock
}

func NewCreateReservationUseCase(uow repository.UnitOfWork, clk clock.Clock) *CreateReservationUseCase {
	return &CreateReservationUseCase{uow: uow, clock: clk}
}

func (uc *CreateReservationUseCase) Execute(ctx context.Context, actor valueobject.Actor, input CreateReservationInput) (*entity.Reservation, error) {
	period, err := valueobject.NewDateRange(input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}

	owner := actor.ID
	if input.OnBehalfOf != nil && *input.OnBehalfOf != actor.ID {
		if !actor.IsStaff() {
			logger.Denied("create_reservation", input.ItemID, actor.ID)
			return nil, apperror.ErrForbidden
		}
		owner = *input.OnBehalfOf
	}

	now := uc.clock.Now()
	res, err := entity.NewReservation(input.ItemID, owner, period, input.Purpose, input.Notes, now)
	if err != nil {
		return nil, err
	}

	err = uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		item, err := tx.Items().FindByIDForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}
		if item.IsRetired() {
			return apperror.InvalidState("предмет списан и недоступен для бронирования")
		}
		if err := availability.Guard(ctx, tx, item.ID, period, nil); err != nil {
			return err
		}
		return lifecycle.Open(ctx, tx, actor, res, now)
	})
	if err != nil {
		logRejected("create_reservation", input.ItemID, actor, err)
		return nil, err
	}

	return res, nil
}

// logRejected пишет в лог отказы по состоянию и конфликты.
func logRejected(action string, entityID uuid.UUID, actor valueobject.Actor, err error) {
	switch {
	case apperror.IsInvalidState(err), apperror.IsConflict(err):
		logger.Rejected(action, entityID, actor.ID, err)
	case apperror.IsForbidden(err):
		logger.Denied(action, entityID, actor.ID)
	}
}
