package valueobject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to ReservationStatus
		want     bool
	}{
		{ReservationStatusPending, ReservationStatusApproved, true},
		{ReservationStatusPending, ReservationStatusRejected, true},
		{ReservationStatusPending, ReservationStatusCancelled, true},
		{ReservationStatusPending, ReservationStatusActive, false},
		{ReservationStatusPending, ReservationStatusCompleted, false},
		{ReservationStatusApproved, ReservationStatusActive, true},
		{ReservationStatusApproved, ReservationStatusCancelled, true},
		{ReservationStatusApproved, ReservationStatusPending, true},
		{ReservationStatusApproved, ReservationStatusRejected, false},
		{ReservationStatusActive, ReservationStatusCompleted, true},
		{ReservationStatusActive, ReservationStatusCancelled, false},
		{ReservationStatusCompleted, ReservationStatusCancelled, false},
		{ReservationStatusRejected, ReservationStatusApproved, false},
		{ReservationStatusCancelled, ReservationStatusPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestReservationStatus_Blocking(t *testing.T) {
	assert.True(t, ReservationStatusPending.IsBlocking())
	assert.True(t, ReservationStatusApproved.IsBlocking())
	assert.True(t, ReservationStatusActive.IsBlocking())
	assert.False(t, ReservationStatusCompleted.IsBlocking())
	assert.False(t, ReservationStatusRejected.IsBlocking())
	assert.False(t, ReservationStatusCancelled.IsBlocking())
}

func TestNewReservationStatus_Invalid(t *testing.T) {
	_, err := NewReservationStatus("OVERDUE")
	assert.Error(t, err)
}

func TestDamageReportStatus_Lifecycle(t *testing.T) {
	assert.True(t, DamageReportStatusReported.CanTransitionTo(DamageReportStatusUnderReview))
	assert.False(t, DamageReportStatusReported.CanTransitionTo(DamageReportStatusApproved))
	assert.True(t, DamageReportStatusUnderReview.CanTransitionTo(DamageReportStatusRejected))
	assert.True(t, DamageReportStatusRejected.CanTransitionTo(DamageReportStatusResolved))
	assert.False(t, DamageReportStatusResolved.CanTransitionTo(DamageReportStatusReported))
}

func TestDateRange(t *testing.T) {
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	_, err := NewDateRange(base, base)
	assert.Error(t, err, "пустой диапазон недопустим")

	_, err = NewDateRange(base.Add(day), base)
	assert.Error(t, err)

	a, err := NewDateRange(base, base.Add(5*day))
	require.NoError(t, err)

	touching, _ := NewDateRange(base.Add(5*day), base.Add(7*day))
	assert.False(t, a.Overlaps(touching), "полуинтервалы, касающиеся границей, не пересекаются")

	inside, _ := NewDateRange(base.Add(day), base.Add(2*day))
	assert.True(t, a.Overlaps(inside))
	assert.True(t, inside.Overlaps(a))

	shifted, _ := NewDateRange(base.Add(25*time.Hour), base.Add(5*day))
	assert.True(t, shifted.ShiftedMoreThan(a, day))

	small, _ := NewDateRange(base.Add(23*time.Hour), base.Add(5*day+time.Hour))
	assert.False(t, small.ShiftedMoreThan(a, day))
}

func TestActor(t *testing.T) {
	staff := Actor{Role: RoleStaff}
	assert.True(t, staff.IsStaff())
	assert.False(t, staff.IsElevated())

	manager := Actor{Role: RoleManager}
	assert.True(t, manager.IsElevated())

	borrower := Actor{Role: RoleBorrower}
	assert.False(t, borrower.IsStaff())
	assert.True(t, borrower.IsOwnerNotStaff(borrower.ID))

	_, err := NewActor(manager.ID, "GUEST")
	assert.Error(t, err)
}
