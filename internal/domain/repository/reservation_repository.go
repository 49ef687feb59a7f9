package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
)

type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	Update(ctx context.Context, reservation *entity.Reservation) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	// FindBlocking возвращает бронирования предмета в статусах PENDING/APPROVED/ACTIVE,
	// пересекающиеся с окном window.
	FindBlocking(ctx context.Context, itemID uuid.UUID, window valueobject.DateRange) ([]*entity.Reservation, error)
	List(ctx context.Context, filter ReservationFilter) ([]*entity.Reservation, int, error)
	FindOverdueCandidates(ctx context.Context, criteria OverdueCriteria) ([]*entity.Reservation, error)
}

type ReservationFilter struct {
	Statuses []valueobject.ReservationStatus
	ItemID   *uuid.UUID
	UserID   *uuid.UUID
	// From/To отбирают бронирования, пересекающиеся с окном.
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// OverdueCriteria: статус из Statuses, начало раньше StartedBefore, выдача не подтверждена.
type OverdueCriteria struct {
	Statuses      []valueobject.ReservationStatus
	StartedBefore time.Time
}
