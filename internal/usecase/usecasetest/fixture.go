// Package usecasetest собирает окружение для тестов сценариев: хранилище в памяти,
// управляемые часы, правила по умолчанию и заготовки данных.
package usecasetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/usecase/reputation"
)

// Now: момент, на который выставлены часы в начале каждого теста.
var Now = time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC)

type Fixture struct {
	T        *testing.T
	Ctx      context.Context
	Store    *memory.Store
	Clock    *clock.Fixed
	Policy   valueobject.Policy
	Ledger   *reputation.Ledger
	Notifier *RecordingNotifier

	Staff    valueobject.Actor
	Manager  valueobject.Actor
	Borrower valueobject.Actor
}

func New(t *testing.T) *Fixture {
	t.Helper()
	logger.Silence()

	policy := valueobject.DefaultPolicy()
	return &Fixture{
		T:        t,
		Ctx:      context.Background(),
		Store:    memory.NewStore(),
		Clock:    clock.NewFixed(Now),
		Policy:   policy,
		Ledger:   reputation.NewLedger(policy),
		Notifier: &RecordingNotifier{},
		Staff:    valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleStaff},
		Manager:  valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleManager},
		Borrower: valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleBorrower},
	}
}

// Day возвращает полночь n-го дня после Now.
func Day(n int) time.Time {
	midnight := time.Date(Now.Year(), Now.Month(), Now.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Add(time.Duration(n) * 24 * time.Hour)
}

func (f *Fixture) NewBorrower() valueobject.Actor {
	return valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleBorrower}
}

func (f *Fixture) SeedItem() *entity.Item {
	f.T.Helper()
	item, err := entity.NewItem("Камера Sony A7", "фото", valueobject.ConditionGood, "Стеллаж 3", valueobject.Money{Amount: 1500, Currency: "USD"}, f.Clock.Now())
	require.NoError(f.T, err)
	require.NoError(f.T, f.Store.Items().Create(f.Ctx, item))
	return item
}

// SeedReservation сохраняет бронирование напрямую в нужном статусе, минуя журнал.
func (f *Fixture) SeedReservation(item *entity.Item, owner uuid.UUID, start, end time.Time, status valueobject.ReservationStatus) *entity.Reservation {
	f.T.Helper()
	now := f.Clock.Now()
	res := &entity.Reservation{
		ID:        uuid.New(),
		ItemID:    item.ID,
		UserID:    owner,
		StartDate: start,
		EndDate:   end,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch status {
	case valueobject.ReservationStatusApproved:
		res.ApprovedBy = &f.Staff.ID
		res.ApprovedAt = &now
	case valueobject.ReservationStatusActive:
		res.ApprovedBy = &f.Staff.ID
		res.ApprovedAt = &now
		res.PickupConfirmed = true
		res.PickupConfirmedAt = &now
		res.ActualStartDate = &now

		item.Status = valueobject.ItemStatusBorrowed
		require.NoError(f.T, f.Store.Items().Update(f.Ctx, item))
	}
	require.NoError(f.T, f.Store.Reservations().Create(f.Ctx, res))
	return res
}

func (f *Fixture) Item(id uuid.UUID) *entity.Item {
	f.T.Helper()
	item, err := f.Store.Items().FindByID(f.Ctx, id)
	require.NoError(f.T, err)
	return item
}

func (f *Fixture) Reservation(id uuid.UUID) *entity.Reservation {
	f.T.Helper()
	res, err := f.Store.Reservations().FindByID(f.Ctx, id)
	require.NoError(f.T, err)
	return res
}

func (f *Fixture) Score(userID uuid.UUID) int {
	f.T.Helper()
	score, err := f.Store.Reputation().FindScore(f.Ctx, userID)
	require.NoError(f.T, err)
	if score == nil {
		return f.Policy.InitialTrustScore
	}
	return score.Score
}

func (f *Fixture) Entries(userID uuid.UUID) []*entity.ReputationEntry {
	f.T.Helper()
	entries, err := f.Store.Reputation().ListEntries(f.Ctx, userID)
	require.NoError(f.T, err)
	return entries
}

func (f *Fixture) Audit(entityType entity.AuditEntityType, id uuid.UUID) []*entity.AuditLogEntry {
	f.T.Helper()
	entries, err := f.Store.AuditLog().ListByEntity(f.Ctx, entityType, id)
	require.NoError(f.T, err)
	return entries
}

// AllAudit возвращает весь журнал от старых записей к новым.
func (f *Fixture) AllAudit() []*entity.AuditLogEntry {
	f.T.Helper()
	entries, total, err := f.Store.AuditLog().List(f.Ctx, repository.AuditFilter{})
	require.NoError(f.T, err)
	require.Len(f.T, entries, total)
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries
}

// RecordingNotifier запоминает намерения уведомить.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []repository.Notification
}

func (n *RecordingNotifier) Notify(_ context.Context, notification repository.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
}

func (n *RecordingNotifier) Sent() []repository.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]repository.Notification(nil), n.sent...)
}

// Has сообщает, было ли уведомление типа kind для пользователя.
func (n *RecordingNotifier) Has(kind repository.NotificationType, userID uuid.UUID) bool {
	for _, s := range n.Sent() {
		if s.Type == kind && s.UserID == userID {
			return true
		}
	}
	return false
}
