package overdue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/usecase/overdue"
	"github.com/ignatzorin/lending-backend/internal/usecase/usecasetest"
)

const day = 24 * time.Hour

var defaultScan = overdue.ScanInput{DaysOverdue: 1, IncludeApproved: true, IncludeActive: true}

func newScanner(f *usecasetest.Fixture) *overdue.ScanUseCase {
	return overdue.NewScanUseCase(f.Store, f.Clock, f.Policy, f.Ledger, f.Notifier)
}

func TestScan_PenalizesUnpickedReservations(t *testing.T) {
	f := usecasetest.New(t)
	scanner := newScanner(f)

	item := f.SeedItem()
	start := usecasetest.Now.Add(-4*day - time.Hour)
	late := f.SeedReservation(item, f.Borrower.ID, start, start.Add(10*day), valueobject.ReservationStatusApproved)

	result, err := scanner.Execute(f.Ctx, f.Staff, defaultScan)
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Penalized)

	rec := result.Results[0]
	assert.Equal(t, late.ID, rec.ReservationID)
	assert.Equal(t, 4, rec.DaysOverdue)
	assert.Equal(t, valueobject.OverdueSeverityHigh, rec.Severity)
	assert.Equal(t, 8, rec.TotalPenalty)
	assert.Equal(t, 8, rec.AppliedDelta)
	assert.Equal(t, 92, f.Score(f.Borrower.ID))

	stored := f.Reservation(late.ID)
	assert.Equal(t, 8, stored.OverduePenaltyPoints)
	assert.NotNil(t, stored.OverdueFlaggedAt)
	assert.Equal(t, valueobject.ReservationStatusApproved, stored.Status, "статус не меняется")

	entries := f.Audit(entity.AuditEntityReservation, late.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditMarkOverdue, entries[0].Action)

	assert.Eventually(t, func() bool {
		return f.Notifier.Has(repository.NotificationOverdue, f.Borrower.ID)
	}, time.Second, 10*time.Millisecond)
}

func TestScan_Idempotent(t *testing.T) {
	f := usecasetest.New(t)
	scanner := newScanner(f)
	item := f.SeedItem()
	start := usecasetest.Now.Add(-4*day - time.Hour)
	f.SeedReservation(item, f.Borrower.ID, start, start.Add(10*day), valueobject.ReservationStatusApproved)

	_, err := scanner.Execute(f.Ctx, f.Staff, defaultScan)
	require.NoError(t, err)

	again, err := scanner.Execute(f.Ctx, f.Staff, defaultScan)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Results[0].AppliedDelta)
	assert.Equal(t, 0, again.Penalized)
	assert.Equal(t, 92, f.Score(f.Borrower.ID))

	f.Clock.Advance(2 * day)
	later, err := scanner.Execute(f.Ctx, f.Staff, defaultScan)
	require.NoError(t, err)
	assert.Equal(t, 6, later.Results[0].DaysOverdue)
	assert.Equal(t, 4, later.Results[0].AppliedDelta, "списывается только прирост")
	assert.Equal(t, 88, f.Score(f.Borrower.ID))

	entries := f.Entries(f.Borrower.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, 100-8-4, entity.Replay(f.Policy.InitialTrustScore, entries))
}

func TestScan_CapAndCritical(t *testing.T) {
	f := usecasetest.New(t)
	item := f.SeedItem()
	start := usecasetest.Now.Add(-20 * day)
	f.SeedReservation(item, f.Borrower.ID, start, start.Add(30*day), valueobject.ReservationStatusApproved)

	result, err := newScanner(f).Execute(f.Ctx, f.Staff, defaultScan)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OverdueSeverityCritical, result.Results[0].Severity)
	assert.Equal(t, 30, result.Results[0].TotalPenalty)
	assert.Equal(t, 70, f.Score(f.Borrower.ID))
}

// Просрочкой считается неподтверждённая выдача, а не задержка возврата:
// активное бронирование с давно прошедшим окончанием в выборку не попадает.
func TestScan_OverdueMeansNotPickedUp(t *testing.T) {
	f := usecasetest.New(t)
	item := f.SeedItem()
	start := usecasetest.Now.Add(-15 * day)
	f.SeedReservation(item, f.Borrower.ID, start, start.Add(2*day), valueobject.ReservationStatusActive)

	other := f.SeedItem()
	recent := usecasetest.Now.Add(-12 * time.Hour)
	f.SeedReservation(other, f.NewBorrower().ID, recent, recent.Add(2*day), valueobject.ReservationStatusApproved)

	pending := f.SeedItem()
	f.SeedReservation(pending, f.NewBorrower().ID, start, start.Add(30*day), valueobject.ReservationStatusPending)

	result, err := newScanner(f).Execute(f.Ctx, f.Staff, defaultScan)
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	assert.Empty(t, f.Entries(f.Borrower.ID))
}

func TestScan_StatusSubset(t *testing.T) {
	f := usecasetest.New(t)
	item := f.SeedItem()
	start := usecasetest.Now.Add(-3 * day)
	f.SeedReservation(item, f.Borrower.ID, start, start.Add(5*day), valueobject.ReservationStatusApproved)

	result, err := newScanner(f).Execute(f.Ctx, f.Staff, overdue.ScanInput{DaysOverdue: 1, IncludeActive: true})
	require.NoError(t, err)
	assert.Zero(t, result.Total)

	_, err = newScanner(f).Execute(f.Ctx, f.Staff, overdue.ScanInput{DaysOverdue: 1})
	assert.True(t, apperror.IsValidation(err))

	_, err = newScanner(f).Execute(f.Ctx, f.Staff, overdue.ScanInput{DaysOverdue: -1, IncludeApproved: true})
	assert.True(t, apperror.IsValidation(err))

	_, err = newScanner(f).Execute(f.Ctx, f.Borrower, defaultScan)
	assert.True(t, apperror.IsForbidden(err))
}

// flakyStore отказывает в указанных по счёту транзакциях.
type flakyStore struct {
	*memory.Store
	failOn map[int]bool
	calls  int
}

func (s *flakyStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	s.calls++
	if s.failOn[s.calls] {
		return apperror.New(apperror.ErrCodeStoreUnavailable, "соединение с базой потеряно")
	}
	return s.Store.WithinTx(ctx, fn)
}

func TestScan_PartialFailureIsolated(t *testing.T) {
	f := usecasetest.New(t)
	start := usecasetest.Now.Add(-2 * day)
	first := f.SeedReservation(f.SeedItem(), f.Borrower.ID, start, start.Add(5*day), valueobject.ReservationStatusApproved)
	second := f.SeedReservation(f.SeedItem(), f.Borrower.ID, start.Add(time.Hour), start.Add(5*day), valueobject.ReservationStatusApproved)

	store := &flakyStore{Store: f.Store, failOn: map[int]bool{1: true}}
	scanner := overdue.NewScanUseCase(store, f.Clock, f.Policy, f.Ledger, f.Notifier)

	result, err := scanner.Execute(f.Ctx, f.Staff, defaultScan)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Succeeded)

	assert.Equal(t, first.ID, result.Results[0].ReservationID)
	assert.False(t, result.Results[0].Success)
	assert.NotEmpty(t, result.Results[0].Error)
	assert.True(t, result.Results[1].Success)
	assert.Equal(t, second.ID, result.Results[1].ReservationID)

	assert.Zero(t, f.Reservation(first.ID).OverduePenaltyPoints)
	assert.Equal(t, 2, f.Reservation(second.ID).OverduePenaltyPoints)
}
