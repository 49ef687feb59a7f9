package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/usecase/availability"
)

var base = time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return base.Add(time.Duration(n) * 24 * time.Hour) }

func reservation(itemID uuid.UUID, from, to int, status valueobject.ReservationStatus) *entity.Reservation {
	return &entity.Reservation{
		ID:        uuid.New(),
		ItemID:    itemID,
		UserID:    uuid.New(),
		StartDate: day(from),
		EndDate:   day(to),
		Status:    status,
	}
}

func period(t *testing.T, from, to int) valueobject.DateRange {
	t.Helper()
	p, err := valueobject.NewDateRange(day(from), day(to))
	require.NoError(t, err)
	return p
}

func TestFindConflicts(t *testing.T) {
	itemID := uuid.New()
	pending := reservation(itemID, 1, 5, valueobject.ReservationStatusPending)
	active := reservation(itemID, 10, 12, valueobject.ReservationStatusActive)
	cancelled := reservation(itemID, 1, 5, valueobject.ReservationStatusCancelled)
	otherItem := reservation(uuid.New(), 1, 5, valueobject.ReservationStatusApproved)
	all := []*entity.Reservation{pending, active, cancelled, otherItem}

	conflicts := availability.FindConflicts(all, itemID, period(t, 4, 6), nil)
	assert.Equal(t, []*entity.Reservation{pending}, conflicts)

	assert.Empty(t, availability.FindConflicts(all, itemID, period(t, 5, 10), nil), "границы полуинтервалов не пересекаются")

	conflicts = availability.FindConflicts(all, itemID, period(t, 0, 11), nil)
	assert.Len(t, conflicts, 2)

	assert.Empty(t, availability.FindConflicts(all, itemID, period(t, 2, 3), &pending.ID), "собственное бронирование исключается")
}

func TestGuard_ReturnsConflictDetails(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	itemID := uuid.New()
	existing := reservation(itemID, 1, 5, valueobject.ReservationStatusApproved)
	require.NoError(t, store.Reservations().Create(ctx, existing))

	err := availability.Guard(ctx, store, itemID, period(t, 3, 8), nil)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	details, ok := appErr.Details.([]availability.Conflict)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, existing.ID, details[0].ReservationID)

	assert.NoError(t, availability.Guard(ctx, store, itemID, period(t, 5, 8), nil))
}

func TestCheckUseCase(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	item, err := entity.NewItem("Проектор", "техника", valueobject.ConditionGood, "склад", valueobject.Money{}, base)
	require.NoError(t, err)
	require.NoError(t, store.Items().Create(ctx, item))
	require.NoError(t, store.Reservations().Create(ctx, reservation(item.ID, 1, 5, valueobject.ReservationStatusPending)))

	uc := availability.NewCheckUseCase(store)

	result, err := uc.Execute(ctx, item.ID, day(2), day(3), nil)
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Len(t, result.Conflicts, 1)

	result, err = uc.Execute(ctx, item.ID, day(6), day(7), nil)
	require.NoError(t, err)
	assert.True(t, result.Available)

	_, err = uc.Execute(ctx, item.ID, day(3), day(2), nil)
	assert.True(t, apperror.IsValidation(err))

	_, err = uc.Execute(ctx, uuid.New(), day(6), day(7), nil)
	assert.True(t, apperror.IsNotFound(err))
}
