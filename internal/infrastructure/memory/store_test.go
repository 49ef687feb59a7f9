package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

var now = time.Date(2030, 1, 10, 12, 0, 0, 0, time.UTC)

func seedItem(t *testing.T, s *Store) *entity.Item {
	t.Helper()
	item, err := entity.NewItem("Штатив", "фото", valueobject.ConditionGood, "", valueobject.Money{}, now)
	require.NoError(t, err)
	require.NoError(t, s.Items().Create(context.Background(), item))
	return item
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item := seedItem(t, s)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		locked, err := tx.Items().FindByIDForUpdate(ctx, item.ID)
		require.NoError(t, err)
		locked.Status = valueobject.ItemStatusBorrowed
		require.NoError(t, tx.Items().Update(ctx, locked))

		entry := entity.NewAuditLogEntry(valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleStaff},
			entity.CreateItemPayload{ItemID: item.ID, Name: item.Name}, now)
		require.NoError(t, tx.AuditLog().Append(ctx, entry))

		inside, err := tx.Items().FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, valueobject.ItemStatusBorrowed, inside.Status, "изменения видны внутри транзакции")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := s.Items().FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ItemStatusAvailable, stored.Status)

	_, total, err := s.AuditLog().List(ctx, repository.AuditFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestWithinTx_Commit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item := seedItem(t, s)

	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		locked, err := tx.Items().FindByIDForUpdate(ctx, item.ID)
		if err != nil {
			return err
		}
		locked.Location = "Шкаф 2"
		return tx.Items().Update(ctx, locked)
	})
	require.NoError(t, err)

	stored, err := s.Items().FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Шкаф 2", stored.Location)
}

func TestReturns_OneOpenPerReservation(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	reservationID := uuid.New()

	first := &entity.Return{ID: uuid.New(), ReservationID: reservationID, Status: valueobject.ReturnStatusPending, CreatedAt: now}
	require.NoError(t, s.Returns().Create(ctx, first))

	second := &entity.Return{ID: uuid.New(), ReservationID: reservationID, Status: valueobject.ReturnStatusPending, CreatedAt: now}
	err := s.Returns().Create(ctx, second)
	assert.True(t, apperror.IsConflict(err))

	first.Status = valueobject.ReturnStatusRejected
	require.NoError(t, s.Returns().Update(ctx, first))
	require.NoError(t, s.Returns().Create(ctx, second))

	open, err := s.Returns().FindOpenByReservation(ctx, reservationID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, second.ID, open.ID)
}

func TestReservations_FindBlocking(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	item := seedItem(t, s)

	mk := func(startDay, endDay int, status valueobject.ReservationStatus) *entity.Reservation {
		r := &entity.Reservation{
			ID:        uuid.New(),
			ItemID:    item.ID,
			UserID:    uuid.New(),
			StartDate: now.AddDate(0, 0, startDay),
			EndDate:   now.AddDate(0, 0, endDay),
			Status:    status,
		}
		require.NoError(t, s.Reservations().Create(ctx, r))
		return r
	}
	blocking := mk(1, 3, valueobject.ReservationStatusApproved)
	mk(2, 4, valueobject.ReservationStatusCancelled)
	mk(5, 6, valueobject.ReservationStatusPending)

	window, err := valueobject.NewDateRange(now.AddDate(0, 0, 2), now.AddDate(0, 0, 5))
	require.NoError(t, err)

	found, err := s.Reservations().FindBlocking(ctx, item.ID, window)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, blocking.ID, found[0].ID)
}

func TestAuditLog_FindLatest(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	actor := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleStaff}
	reservationID := uuid.New()

	for i := 0; i < 3; i++ {
		entry := entity.NewAuditLogEntry(actor, entity.IssuePickupTokenPayload{
			ReservationID: reservationID,
			TokenHash:     string(rune('a' + i)),
		}, now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.AuditLog().Append(ctx, entry))
	}

	latest, err := s.AuditLog().FindLatest(ctx, entity.AuditEntityReservation, reservationID, entity.AuditIssuePickupToken)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "c", latest.Payload.(entity.IssuePickupTokenPayload).TokenHash)

	missing, err := s.AuditLog().FindLatest(ctx, entity.AuditEntityReservation, reservationID, entity.AuditConfirmPickup)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
