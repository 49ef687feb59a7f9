package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

var testNow = time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestReservation(t *testing.T) *Reservation {
	t.Helper()
	period, err := valueobject.NewDateRange(testNow.Add(24*time.Hour), testNow.Add(5*24*time.Hour))
	require.NoError(t, err)
	r, err := NewReservation(uuid.New(), uuid.New(), period, "съёмка", nil, testNow)
	require.NoError(t, err)
	return r
}

func TestNewReservation_PastStart(t *testing.T) {
	period, err := valueobject.NewDateRange(testNow.Add(-time.Hour), testNow.Add(time.Hour))
	require.NoError(t, err)

	_, err = NewReservation(uuid.New(), uuid.New(), period, "", nil, testNow)
	assert.True(t, apperror.IsValidation(err))
}

func TestReservation_Lifecycle(t *testing.T) {
	r := newTestReservation(t)
	assert.Equal(t, valueobject.ReservationStatusPending, r.Status)

	err := r.ConfirmPickup(testNow)
	assert.True(t, apperror.IsInvalidState(err), "PENDING -> ACTIVE напрямую запрещён")

	staff := uuid.New()
	require.NoError(t, r.Approve(staff, testNow))
	assert.Equal(t, &staff, r.ApprovedBy)

	require.NoError(t, r.ConfirmPickup(testNow))
	assert.True(t, r.PickupConfirmed)
	assert.Equal(t, valueobject.ReservationStatusActive, r.Status)

	err = r.Cancel(staff, "передумал", testNow)
	assert.True(t, apperror.IsInvalidState(err))

	require.NoError(t, r.Complete(testNow, testNow))
	assert.Equal(t, valueobject.ReservationStatusCompleted, r.Status)

	err = r.Approve(staff, testNow)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestReservation_RejectRequiresReason(t *testing.T) {
	r := newTestReservation(t)

	err := r.Reject("   ", testNow)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, valueobject.ReservationStatusPending, r.Status)

	require.NoError(t, r.Reject("нет на складе", testNow))
	assert.Equal(t, valueobject.ReservationStatusRejected, r.Status)
}

func TestReservation_RescheduleReapproval(t *testing.T) {
	r := newTestReservation(t)
	require.NoError(t, r.Approve(uuid.New(), testNow))

	period, err := valueobject.NewDateRange(r.StartDate.Add(48*time.Hour), r.EndDate.Add(48*time.Hour))
	require.NoError(t, err)

	require.NoError(t, r.Reschedule(period, true, testNow))
	assert.Equal(t, valueobject.ReservationStatusPending, r.Status)
	assert.Nil(t, r.ApprovedBy)
	assert.Nil(t, r.ApprovedAt)
	assert.True(t, r.StartDate.Equal(period.Start))
}

func TestReservation_RecordOverduePenalty(t *testing.T) {
	r := newTestReservation(t)

	assert.Equal(t, 4, r.RecordOverduePenalty(4, testNow))
	assert.Equal(t, 0, r.RecordOverduePenalty(4, testNow), "повторный прогон ничего не списывает")
	assert.Equal(t, 2, r.RecordOverduePenalty(6, testNow))
	assert.Equal(t, 6, r.OverduePenaltyPoints)
	assert.NotNil(t, r.OverdueFlaggedAt)
}

func TestItem_StatusAfter(t *testing.T) {
	item, err := NewItem("Камера", "фото", valueobject.ConditionGood, "A-1", valueobject.Money{}, testNow)
	require.NoError(t, err)

	assert.Equal(t, valueobject.ItemStatusBorrowed, item.StatusAfter(valueobject.ReservationStatusActive))
	assert.Equal(t, valueobject.ItemStatusAvailable, item.StatusAfter(valueobject.ReservationStatusApproved))

	item.Status = valueobject.ItemStatusBorrowed
	item.ApplyCondition(valueobject.ConditionDamaged, testNow)
	assert.Equal(t, valueobject.ItemStatusAvailable, item.StatusAfter(valueobject.ReservationStatusCompleted))

	item.Status = valueobject.ItemStatusRetired
	assert.Equal(t, valueobject.ItemStatusRetired, item.StatusAfter(valueobject.ReservationStatusActive))
}
