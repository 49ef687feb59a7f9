package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

// Conflict: краткие данные о пересекающемся бронировании для клиента.
type Conflict struct {
	ReservationID uuid.UUID                     `json:"reservationId"`
	UserID        uuid.UUID                     `json:"userId"`
	StartDate     time.Time                     `json:"startDate"`
	EndDate       time.Time                     `json:"endDate"`
	Status        valueobject.ReservationStatus `json:"status"`
}

// FindConflicts отбирает блокирующие бронирования предмета, пересекающиеся с period.
// exclude исключает само изменяемое бронирование.
func FindConflicts(reservations []*entity.Reservation, itemID uuid.UUID, period valueobject.DateRange, exclude *uuid.UUID) []*entity.Reservation {
	var conflicts []*entity.Reservation
	for _, r := range reservations {
		if r.ItemID != itemID || !r.Status.IsBlocking() {
			continue
		}
		if exclude != nil && r.ID == *exclude {
			continue
		}
		if r.Period().Overlaps(period) {
			conflicts = append(conflicts, r)
		}
	}
	return conflicts
}

func toConflicts(reservations []*entity.Reservation) []Conflict {
	out := make([]Conflict, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, Conflict{
			ReservationID: r.ID,
			UserID:        r.UserID,
			StartDate:     r.StartDate,
			EndDate:       r.EndDate,
			Status:        r.Status,
		})
	}
	return out
}

// Guard проверяет доступность внутри транзакции записи. Строка предмета
// к этому моменту уже должна быть заблокирована.
func Guard(ctx context.Context, tx repository.Store, itemID uuid.UUID, period valueobject.DateRange, exclude *uuid.UUID) error {
	candidates, err := tx.Reservations().FindBlocking(ctx, itemID, period)
	if err != nil {
		return err
	}

	if conflicts := FindConflicts(candidates, itemID, period, exclude); len(conflicts) > 0 {
		return apperror.Conflict("предмет уже забронирован на эти даты", toConflicts(conflicts))
	}
	return nil
}

type Result struct {
	Available bool       `json:"available"`
	Conflicts []Conflict `json:"conflicts"`
}

type CheckUseCase struct {
	store repository.Store
}

func NewCheckUseCase(store repository.Store) *CheckUseCase {
	return &CheckUseCase{store: store}
}

// Execute: проверка для чтения. Результат может устареть к моменту записи,
// запись повторяет проверку через Guard.
func (uc *CheckUseCase) Execute(ctx context.Context, itemID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (*Result, error) {
	period, err := valueobject.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	if _, err := uc.store.Items().FindByID(ctx, itemID); err != nil {
		return nil, err
	}

	candidates, err := uc.store.Reservations().FindBlocking(ctx, itemID, period)
	if err != nil {
		return nil, err
	}
	conflicts := FindConflicts(candidates, itemID, period, exclude)

	return &Result{
		Available: len(conflicts) == 0,
		Conflicts: toConflicts(conflicts),
	}, nil
}
