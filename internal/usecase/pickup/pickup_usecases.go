// Package pickup подтверждает передачу предмета заёмщику: по одноразовому коду
// или массово силами сотрудника.
package pickup

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/lifecycle"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/usecase/audit"
	"github.com/ignatzorin/lending-backend/internal/usecase/notify"
)

const DefaultTokenTTL = 30 * time.Minute

// IssuedToken возвращается один раз: открытый код нигде не хранится.
type IssuedToken struct {
	ReservationID uuid.UUID `json:"reservationId"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

type IssueTokenUseCase struct {
	uow   repository.UnitOfWork
	clock clock.Clock
	ttl   time.Duration
}

func NewIssueTokenUseCase(uow repository.UnitOfWork, clk clock.Clock, ttl time.Duration) *IssueTokenUseCase {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &IssueTokenUseCase{uow: uow, clock: clk, ttl: ttl}
}

// Execute выпускает новый код. Все ранее выпущенные коды перестают действовать.
func (uc *IssueTokenUseCase) Execute(ctx context.Context, actor valueobject.Actor, reservationID uuid.UUID) (*IssuedToken, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	hash, err := hashToken(token)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	issued := &IssuedToken{ReservationID: reservationID, Token: token, ExpiresAt: now.Add(uc.ttl)}

	err = uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		r, _, err := lifecycle.Load(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if !actor.CanAccess(r.UserID) {
			return apperror.ErrForbidden
		}
		if err := ensureAwaitingPickup(r); err != nil {
			return err
		}

		_, err = audit.Record(ctx, tx, actor, entity.IssuePickupTokenPayload{
			ReservationID: r.ID,
			TokenHash:     hash,
			ExpiresAt:     issued.ExpiresAt,
			IssuedBy:      actor.ID,
		}, now)
		return err
	})
	if err != nil {
		logRejected("issue_pickup_token", reservationID, actor, err)
		return nil, err
	}
	return issued, nil
}

type ConfirmUseCase struct {
	uow      repository.UnitOfWork
	clock    clock.Clock
	notifier repository.Notifier
}

func NewConfirmUseCase(uow repository.UnitOfWork, clk clock.Clock, notifier repository.Notifier) *ConfirmUseCase {
	return &ConfirmUseCase{uow: uow, clock: clk, notifier: notifier}
}

// Execute подтверждает выдачу по коду. Проверки идут строго по порядку:
// статус, повторное подтверждение, наличие кода, совпадение, срок действия.
func (uc *ConfirmUseCase) Execute(ctx context.Context, actor valueobject.Actor, reservationID uuid.UUID, token string) (*entity.Reservation, error) {
	token = strings.TrimSpace(token)
	now := uc.clock.Now()

	var res *entity.Reservation
	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		r, item, err := lifecycle.Load(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if !actor.CanAccess(r.UserID) {
			return apperror.ErrForbidden
		}
		if err := ensureAwaitingPickup(r); err != nil {
			return err
		}
		if err := verifyToken(ctx, tx, r.ID, token, now); err != nil {
			return err
		}

		res = r
		return confirm(ctx, tx, actor, r, item, entity.PickupMethodToken, now)
	})
	if err != nil {
		logRejected("confirm_pickup", reservationID, actor, err)
		return nil, err
	}

	notify.Dispatch(uc.notifier, pickupNotification(res))
	return res, nil
}

func ensureAwaitingPickup(r *entity.Reservation) error {
	if r.Status != valueobject.ReservationStatusApproved {
		return apperror.InvalidState("выдача возможна только для бронирования в статусе APPROVED")
	}
	if r.PickupConfirmed {
		return apperror.InvalidState("выдача уже подтверждена")
	}
	return nil
}

func verifyToken(ctx context.Context, tx repository.Store, reservationID uuid.UUID, token string, now time.Time) error {
	issued, err := latestToken(ctx, tx, reservationID)
	if err != nil {
		return err
	}
	if issued == nil {
		return apperror.ErrPickupTokenMissing
	}

	ok, err := tokenMatches(issued.TokenHash, token)
	if err != nil {
		return err
	}
	if token == "" || !ok {
		return apperror.ErrPickupTokenMismatch
	}
	if now.After(issued.ExpiresAt) {
		return apperror.ErrPickupTokenExpired
	}
	return nil
}

func latestToken(ctx context.Context, store repository.Store, reservationID uuid.UUID) (*entity.IssuePickupTokenPayload, error) {
	entry, err := store.AuditLog().FindLatest(ctx, entity.AuditEntityReservation, reservationID, entity.AuditIssuePickupToken)
	if err != nil || entry == nil {
		return nil, err
	}
	payload, ok := entry.Payload.(entity.IssuePickupTokenPayload)
	if !ok {
		return nil, apperror.New(apperror.ErrCodeInternal, "неожиданный формат записи о выпуске кода")
	}
	return &payload, nil
}

func confirm(ctx context.Context, tx repository.Store, actor valueobject.Actor, r *entity.Reservation, item *entity.Item, method entity.PickupMethod, now time.Time) error {
	_, err := lifecycle.Transition(ctx, tx, lifecycle.Step{
		Actor:       actor,
		Reservation: r,
		Item:        item,
		Now:         now,
		Mutate: func(r *entity.Reservation) error {
			return r.ConfirmPickup(now)
		},
		Audit: func(c lifecycle.Change) entity.AuditPayload {
			return entity.ConfirmPickupPayload{
				ReservationID:      r.ID,
				ItemID:             item.ID,
				ConfirmedAt:        now,
				Method:             method,
				PreviousItemStatus: c.ItemFrom,
				NewItemStatus:      c.ItemTo,
			}
		},
	})
	return err
}

func pickupNotification(r *entity.Reservation) repository.Notification {
	return repository.Notification{
		Type:     repository.NotificationPickupConfirmed,
		UserID:   r.UserID,
		EntityID: r.ID,
		Data:     map[string]interface{}{"itemId": r.ItemID},
	}
}

// Status: состояние выдачи для проверки на стойке.
type Status struct {
	ReservationID     uuid.UUID                     `json:"reservationId"`
	Status            valueobject.ReservationStatus `json:"status"`
	PickupConfirmed   bool                          `json:"pickupConfirmed"`
	PickupConfirmedAt *time.Time                    `json:"pickupConfirmedAt,omitempty"`
	TokenIssued       bool                          `json:"tokenIssued"`
	TokenExpiresAt    *time.Time                    `json:"tokenExpiresAt,omitempty"`
	TokenExpired      bool                          `json:"tokenExpired"`
}

type StatusUseCase struct {
	store repository.Store
	clock clock.Clock
}

func NewStatusUseCase(store repository.Store, clk clock.Clock) *StatusUseCase {
	return &StatusUseCase{store: store, clock: clk}
}

func (uc *StatusUseCase) Execute(ctx context.Context, actor valueobject.Actor, reservationID uuid.UUID) (*Status, error) {
	r, err := uc.store.Reservations().FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(r.UserID) {
		logger.Denied("pickup_status", reservationID, actor.ID)
		return nil, apperror.ErrForbidden
	}

	st := &Status{
		ReservationID:     r.ID,
		Status:            r.Status,
		PickupConfirmed:   r.PickupConfirmed,
		PickupConfirmedAt: r.PickupConfirmedAt,
	}
	if r.PickupConfirmed {
		return st, nil
	}

	issued, err := latestToken(ctx, uc.store, r.ID)
	if err != nil {
		return nil, err
	}
	if issued != nil {
		st.TokenIssued = true
		st.TokenExpiresAt = &issued.ExpiresAt
		st.TokenExpired = uc.clock.Now().After(issued.ExpiresAt)
	}
	return st, nil
}

// logRejected пишет в лог отказы по состоянию и ошибки кода выдачи.
func logRejected(action string, entityID uuid.UUID, actor valueobject.Actor, err error) {
	switch apperror.CodeOf(err) {
	case apperror.ErrCodeInvalidState, apperror.ErrCodeConflict,
		apperror.ErrCodePickupTokenMissing, apperror.ErrCodePickupTokenMismatch, apperror.ErrCodePickupTokenExpired:
		logger.Rejected(action, entityID, actor.ID, err)
	case apperror.ErrCodeForbidden:
		logger.Denied(action, entityID, actor.ID)
	}
}
