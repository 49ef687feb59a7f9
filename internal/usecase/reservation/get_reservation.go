package reservation

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

type GetReservationUseCase struct {
	store repository.Store
}

func NewGetReservationUseCase(store repository.Store) *GetReservationUseCase {
	return &GetReservationUseCase{store: store}
}

func (uc *GetReservationUseCase) Execute(ctx context.Context, actor valueobject.Actor, reservationID uuid.UUID) (*entity.Reservation, error) {
	res, err := uc.store.Reservations().FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(res.UserID) {
		logger.Denied("get_reservation", reservationID, actor.ID)
		return nil, apperror.ErrForbidden
	}
	return res, nil
}

type ListReservationsUseCase struct {
	store repository.Store
}

func NewListReservationsUseCase(store repository.Store) *ListReservationsUseCase {
	return &ListReservationsUseCase{store: store}
}

// Execute: заёмщик видит только свои бронирования, сотрудник — все.
func (uc *ListReservationsUseCase) Execute(ctx context.Context, actor valueobject.Actor, filter repository.ReservationFilter) ([]*entity.Reservation, int, error) {
	if !actor.IsStaff() {
		filter.UserID = &actor.ID
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.store.Reservations().List(ctx, filter)
}

type GetReservationHistoryUseCase struct {
	store repository.Store
}

func NewGetReservationHistoryUseCase(store repository.Store) *GetReservationHistoryUseCase {
	return &GetReservationHistoryUseCase{store: store}
}

// Execute возвращает журнал бронирования от старых записей к новым.
func (uc *GetReservationHistoryUseCase) Execute(ctx context.Context, actor valueobject.Actor, reservationID uuid.UUID) ([]*entity.AuditLogEntry, error) {
	res, err := uc.store.Reservations().FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(res.UserID) {
		logger.Denied("reservation_history", reservationID, actor.ID)
		return nil, apperror.ErrForbidden
	}
	return uc.store.AuditLog().ListByEntity(ctx, entity.AuditEntityReservation, reservationID)
}
