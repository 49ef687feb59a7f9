package reservation_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/usecase/availability"
	"github.com/ignatzorin/lending-backend/internal/usecase/reservation"
	"github.com/ignatzorin/lending-backend/internal/usecase/usecasetest"
)

type suite struct {
	*usecasetest.Fixture
	create  *reservation.CreateReservationUseCase
	approve *reservation.ApproveReservationUseCase
	reject  *reservation.RejectReservationUseCase
	cancel  *reservation.CancelReservationUseCase
	modify  *reservation.ModifyReservationUseCase
	delete  *reservation.DeleteReservationUseCase
	get     *reservation.GetReservationUseCase
	list    *reservation.ListReservationsUseCase
	history *reservation.GetReservationHistoryUseCase
}

func newSuite(t *testing.T) *suite {
	f := usecasetest.New(t)
	return &suite{
		Fixture: f,
		create:  reservation.NewCreateReservationUseCase(f.Store, f.Clock),
		approve: reservation.NewApproveReservationUseCase(f.Store, f.Clock, f.Notifier),
		reject:  reservation.NewRejectReservationUseCase(f.Store, f.Clock, f.Notifier),
		cancel:  reservation.NewCancelReservationUseCase(f.Store, f.Clock, f.Policy, f.Ledger, f.Notifier),
		modify:  reservation.NewModifyReservationUseCase(f.Store, f.Clock, f.Policy, f.Notifier),
		delete:  reservation.NewDeleteReservationUseCase(f.Store, f.Clock),
		get:     reservation.NewGetReservationUseCase(f.Store),
		list:    reservation.NewListReservationsUseCase(f.Store),
		history: reservation.NewGetReservationHistoryUseCase(f.Store),
	}
}

func (s *suite) reserve(actor valueobject.Actor, itemID uuid.UUID, from, to time.Time) *entity.Reservation {
	s.T.Helper()
	res, err := s.create.Execute(s.Ctx, actor, reservation.CreateReservationInput{
		ItemID:    itemID,
		StartDate: from,
		EndDate:   to,
		Purpose:   "выездная съёмка",
	})
	require.NoError(s.T, err)
	return res
}

func TestCreateReservation_Success(t *testing.T) {
	s := newSuite(t)
	item := s.SeedItem()

	res := s.reserve(s.Borrower, item.ID, usecasetest.Day(1), usecasetest.Day(5))

	assert.Equal(t, valueobject.ReservationStatusPending, res.Status)
	assert.Equal(t, s.Borrower.ID, res.UserID)
	assert.Equal(t, valueobject.ItemStatusAvailable, s.Item(item.ID).Status, "создание не меняет статус предмета")

	entries := s.Audit(entity.AuditEntityReservation, res.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditCreateReservation, entries[0].Action)
}

func TestCreateReservation_OverlapConflict(t *testing.T) {
	s := newSuite(t)
	item := s.SeedItem()
	first := s.reserve(s.Borrower, item.ID, usecasetest.Day(1), usecasetest.Day(5))

	for _, status := range []valueobject.ReservationStatus{
		valueobject.ReservationStatusPending,
		valueobject.ReservationStatusApproved,
		valueobject.ReservationStatusActive,
	} {
		t.Run(string(status), func(t *testing.T) {
			if status != valueobject.ReservationStatusPending {
				r := s.Reservation(first.ID)
				r.Status = status
				require.NoError(t, s.Store.Reservations().Update(s.Ctx, r))
			}

			_, err := s.create.Execute(s.Ctx, s.NewBorrower(), reservation.CreateReservationInput{
				ItemID:    item.ID,
				StartDate: usecasetest.Day(4),
				EndDate:   usecasetest.Day(8),
			})
			require.Error(t, err)
			assert.True(t, apperror.IsConflict(err))

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			conflicts := appErr.Details.([]availability.Conflict)
			require.Len(t, conflicts, 1)
			assert.Equal(t, first.ID, conflicts[0].ReservationID)
		})
	}

	// соседний диапазон, начинающийся в момент окончания, не конфликтует
	s.reserve(s.NewBorrower(), item.ID, usecasetest.Day(5), usecasetest.Day(6))
}

func TestCreateReservation_Validation(t *testing.T) {
	s := newSuite(t)
	item := s.SeedItem()

	_, err := s.create.Execute(s.Ctx, s.Borrower, reservation.CreateReservationInput{
		ItemID: item.ID, StartDate: usecasetest.Day(5), EndDate: usecasetest.Day(1),
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = s.create.Execute(s.Ctx, s.Borrower, reservation.CreateReservationInput{
		ItemID: item.ID, StartDate: usecasetest.Now.Add(-time.Hour), EndDate: usecasetest.Day(1),
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = s.create.Execute(s.Ctx, s.Borrower, reservation.CreateReservationInput{
		ItemID: uuid.New(), StartDate: usecasetest.Day(1), EndDate: usecasetest.Day(2),
	})
	assert.True(t, apperror.IsNotFound(err))

	other := uuid.New()
	_, err = s.create.Execute(s.Ctx, s.Borrower, reservation.CreateReservationInput{
		ItemID: item.ID, StartDate: usecasetest.Day(1), EndDate: usecasetest.Day(2), OnBehalfOf: &other,
	})
	assert.True(t, apperror.IsForbidden(err))
}

func TestCreateReservation_RetiredItem(t *testing.T) {
	s := newSuite(t)
	item := s.SeedItem()
	item.Status = valueobject.ItemStatusRetired
	require.NoError(t, s.Store.Items().Update(s.Ctx, item))

	_, err := s.create.Execute(s.Ctx, s.Borrower, reservation.CreateReservationInput{
		ItemID: item.ID, StartDate: usecasetest.Day(1), EndDate: usecasetest.Day(2),
	})
	assert.True(t, apperror.IsInvalidState(err))
}

func TestApproveReject_StaffOnly(t *testing.T) {
	s := newSuite(t)
	item := s.SeedItem()
	res := s.reserve(s.Borrower, item.ID, usecasetest.Day(1), usecasetest.Day(5))

	_, err := s.approve.Execute(s.Ctx, s.Borrower, res.ID)
	assert.True(t, apperror.IsForbidden(err))

	approved, err := s.approve.Execute(s.Ctx, s.Staff, res.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ReservationStatusApproved, approved.Status)
	assert.Equal(t, &s.Staff.ID, approved.ApprovedBy)

	_, err = s.approve.Execute(s.Ctx, s.Staff, res.ID)
	assert.True(t, apperror.IsInvalidState(err))

	_, err = s.reject.Execute(s.Ctx, s.Staff, res.ID, "поздно")
	assert.True(t, apperror.IsInvalidState(err), "APPROVED нельзя отклонить")

	assert.Eventually(t, func() bool {
		return s.Notifier.Has(repository.NotificationReservationApproved, s.Borrower.ID)
	}, time.Second, 10*time.Millisecond)
}

func TestReject_RequiresReason(t *testing.T) {
	s := newSuite(t)
	item := s.SeedItem()
	res := s.reserve(s.Borrower, item.ID, usecasetest.Day(1), usecasetest.Day(5))

	_, err := s.reject.Execute(s.Ctx, s.Staff, res.ID, "")
	assert.True(t, apperror.IsValidation(err))
	assert.Len(t, s.Audit(entity.AuditEntityReservation, res.ID), 1, "неудачная попытка не пишет журнал")

	rejected, err := s.reject.Execute(s.Ctx, s.Staff, res.ID, "предмет в ремонте")
	require.NoError(t, err)
	assert.Equal(t, valueobject.ReservationStatusRejected, rejected.Status)

	// после отклонения диапазон свободен
	s.reserve(s.NewBorrower(), item.ID, usecasetest.Day(1), usecasetest.Day(5))
}

func TestCancel_Penalties(t *testing.T) {
	cases := []struct {
		name          string
		startOffset   time.Duration
		expectedDelta int
		timing        valueobject.CancellationKind
	}{
		{"за 48 часов", 48 * time.Hour, 0, valueobject.CancellationEarly},
		{"за 12 часов", 12 * time.Hour, -5, valueobject.CancellationLate},
		{"через 2 часа после начала", -2 * time.Hour, -10, valueobject.CancellationVeryLate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSuite(t)
			item := s.SeedItem()
			start := usecasetest.Now.Add(tc.startOffset)
			res := s.SeedReservation(item, s.Borrower.ID, start, start.Add(72*time.Hour), valueobject.ReservationStatusPending)

			result, err := s.cancel.Execute(s.Ctx, s.Borrower, res.ID, "планы изменились")
			require.NoError(t, err)

			assert.Equal(t, valueobject.ReservationStatusCancelled, result.Reservation.Status)
			assert.Equal(t, tc.timing, result.Timing)
			assert.Equal(t, 100+tc.expectedDelta, s.Score(s.Borrower.ID))

			entries := s.Entries(s.Borrower.ID)
			if tc.expectedDelta == 0 {
				assert.Empty(t, entries)
				assert.Nil(t, result.Penalty)
				return
			}
			require.Len(t, entries, 1)
			assert.Equal(t, tc.expectedDelta, entries[0].Delta)
			assert.Equal(t, 100, entries[0].PreviousScore)
			assert.Equal(t, entity.ReputationSourceCancellation, entries[0].SourceType)

			actions := []entity.AuditAction{}
			for _, e := range s.AllAudit() {
				actions = append(actions, e.Action)
			}
			assert.Equal(t, []entity.AuditAction{entity.AuditCancelReservation, entity.AuditAdjustReputation}, actions)
		})
	}
}

func TestCancel_FloorAtZero(t *testing.T) {
	s := newSuite(t)
	item := s.SeedItem()
	require.NoError(t, s.Store.Reputation().SaveScore(s.Ctx, &entity.TrustScore{UserID: s.Borrower.ID, Score: 3}))

	start := usecasetest.Now.Add(-time.Hour)
	res := s.SeedReservation(item, s.Borrower.ID, start, start.Add(48*time.Hour), valueobject.ReservationStatusApproved)

	result, err := s.cancel.Execute(s.Ctx, s.Borrower, res.ID, "не успел")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Penalty.NewScore)
	assert.Equal(t, 0, s.Score(s.Borrower.ID))
}

func TestCancel_StaffNoPenalty(t *testing.T) {
	s := newSuite(t)
	item := s.SeedItem()
	start := usecasetest.Now.Add(2 * time.Hour)
	res := s.SeedReservation(item, s.Borrower.ID, start, start.Add(24*time.Hour), valueobject.ReservationStatusApproved)

	result, err := s.cancel.Execute(s.Ctx, s.Staff, res.ID, "предмет сломан")
	require.NoError(t, err)
	assert.Nil(t, result.Penalty)
	assert.Empty(t, s.Entries(s.Borrower.ID))
}

func TestCancel_WrongStateAndPermission(t *testing.T) {
	s := newSuite(t)
	item := s.SeedItem()
	res := s.SeedReservation(item, s.Borrower.ID, usecasetest.Day(1), usecasetest.Day(3), valueobject.ReservationStatusCompleted)

	_, err := s.cancel.Execute(s.Ctx, s.Borrower, res.ID, "поздно")
	assert.True(t, apperror.IsInvalidState(err))

	pending := s.SeedReservation(item, s.Borrower.ID, usecasetest.Day(5), usecasetest.Day(7), valueobject.ReservationStatusPending)
	_, err = s.cancel.Execute(s.Ctx, s.NewBorrower(), pending.ID, "чужое")
	assert.True(t, apperror.IsForbidden(err))

	_, err = s.cancel.Execute(s.Ctx, s.Borrower, pending.ID, " ")
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, valueobject.ReservationStatusPending, s.Reservation(pending.ID).Status)
}

func TestModify_SignificantShiftRequiresReapproval(t *testing.T) {
	s := newSuite(t)
	item := s.SeedItem()
	res := s.reserve(s.Borrower, item.ID, usecasetest.Day(2), usecasetest.Day(5))
	_, err := s.approve.Execute(s.Ctx, s.Staff, res.ID)
	require.NoError(t, err)

	small := usecasetest.Day(2).Add(12 * time.Hour)
	result, err := s.modify.Execute(s.Ctx, s.Borrower, reservation.ModifyReservationInput{ReservationID: res.ID, StartDate: &small})
	require.NoError(t, err)
	assert.False(t, result.ReapprovalRequired)
	assert.Equal(t, valueobject.ReservationStatusApproved, result.Reservation.Status)

	newStart, newEnd := usecasetest.Day(4), usecasetest.Day(7)
	result, err = s.modify.Execute(s.Ctx, s.Borrower, reservation.ModifyReservationInput{ReservationID: res.ID, StartDate: &newStart, EndDate: &newEnd})
	require.NoError(t, err)
	assert.True(t, result.ReapprovalRequired)
	assert.Equal(t, valueobject.ReservationStatusPending, result.Reservation.Status)
	assert.Nil(t, result.Reservation.ApprovedBy)

	entries := s.Audit(entity.AuditEntityReservation, res.ID)
	last := entries[len(entries)-1].Payload.(entity.ModifyReservationPayload)
	assert.True(t, last.ReapprovalRequired)
	assert.True(t, last.PreviousStart.Equal(small))
	assert.Equal(t, valueobject.ReservationStatusPending, last.NewStatus)
}

func TestModify_StaffShiftKeepsApproval(t *testing.T) {
	s := newSuite(t)
	item := s.SeedItem()
	res := s.SeedReservation(item, s.Borrower.ID, usecasetest.Day(2), usecasetest.Day(5), valueobject.ReservationStatusApproved)

	newStart, newEnd := usecasetest.Day(6), usecasetest.Day(9)
	result, err := s.modify.Execute(s.Ctx, s.Staff, reservation.ModifyReservationInput{ReservationID: res.ID, StartDate: &newStart, EndDate: &newEnd})
	require.NoError(t, err)
	assert.False(t, result.ReapprovalRequired)
	assert.Equal(t, valueobject.ReservationStatusApproved, result.Reservation.Status)
}

func TestModify_ConflictExcludesSelf(t *testing.T) {
	s := newSuite(t)
	item := s.SeedItem()
	res := s.reserve(s.Borrower, item.ID, usecasetest.Day(2), usecasetest.Day(5))
	other := s.reserve(s.NewBorrower(), item.ID, usecasetest.Day(6), usecasetest.Day(8))

	end := usecasetest.Day(4)
	_, err := s.modify.Execute(s.Ctx, s.Borrower, reservation.ModifyReservationInput{ReservationID: res.ID, EndDate: &end})
	require.NoError(t, err, "сужение собственного диапазона не конфликтует с ним самим")

	end = usecasetest.Day(7)
	_, err = s.modify.Execute(s.Ctx, s.Borrower, reservation.ModifyReservationInput{ReservationID: res.ID, EndDate: &end})
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, other.ID, appErr.Details.([]availability.Conflict)[0].ReservationID)
	assert.True(t, s.Reservation(res.ID).EndDate.Equal(usecasetest.Day(4)), "неудачное изменение откатывается")
}

func TestDelete_Permissions(t *testing.T) {
	s := newSuite(t)
	item := s.SeedItem()

	active := s.SeedReservation(item, s.Borrower.ID, usecasetest.Day(1), usecasetest.Day(2), valueobject.ReservationStatusActive)
	assert.True(t, apperror.IsInvalidState(s.delete.Execute(s.Ctx, s.Borrower, active.ID)))
	assert.True(t, apperror.IsInvalidState(s.delete.Execute(s.Ctx, s.Manager, active.ID)))

	pending := s.SeedReservation(item, s.Borrower.ID, usecasetest.Day(3), usecasetest.Day(4), valueobject.ReservationStatusPending)
	assert.True(t, apperror.IsForbidden(s.delete.Execute(s.Ctx, s.Staff, pending.ID)), "обычный сотрудник не удаляет чужие")
	require.NoError(t, s.delete.Execute(s.Ctx, s.Borrower, pending.ID))

	_, err := s.Store.Reservations().FindByID(s.Ctx, pending.ID)
	assert.True(t, apperror.IsNotFound(err))
	entries := s.Audit(entity.AuditEntityReservation, pending.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditDeleteReservation, entries[0].Action)

	completed := s.SeedReservation(item, s.NewBorrower().ID, usecasetest.Day(5), usecasetest.Day(6), valueobject.ReservationStatusCompleted)
	require.NoError(t, s.delete.Execute(s.Ctx, s.Manager, completed.ID))
}

func TestListAndGet_OwnerVisibility(t *testing.T) {
	s := newSuite(t)
	item := s.SeedItem()
	mine := s.reserve(s.Borrower, item.ID, usecasetest.Day(1), usecasetest.Day(2))
	other := s.NewBorrower()
	theirs := s.reserve(other, item.ID, usecasetest.Day(3), usecasetest.Day(4))

	list, total, err := s.list.Execute(s.Ctx, s.Borrower, repository.ReservationFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, mine.ID, list[0].ID)

	_, total, err = s.list.Execute(s.Ctx, s.Staff, repository.ReservationFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, err = s.get.Execute(s.Ctx, s.Borrower, theirs.ID)
	assert.True(t, apperror.IsForbidden(err))

	history, err := s.history.Execute(s.Ctx, other, theirs.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
