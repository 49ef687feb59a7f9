package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

type Reservation struct {
	ID        uuid.UUID
	ItemID    uuid.UUID
	UserID    uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	Status    valueobject.ReservationStatus
	Purpose   string
	Notes     *string

	PickupConfirmed   bool
	PickupConfirmedAt *time.Time
	ActualStartDate   *time.Time
	ActualEndDate     *time.Time

	ApprovedBy      *uuid.UUID
	ApprovedAt      *time.Time
	RejectionReason *string

	CancellationReason *string
	CancelledBy        *uuid.UUID
	CancelledAt        *time.Time

	// OverduePenaltyPoints: сумма штрафа за просрочку, уже списанная сканером.
	OverduePenaltyPoints int
	OverdueFlaggedAt     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewReservation создаёт заявку в статусе PENDING. Начало не может быть в прошлом.
func NewReservation(itemID, userID uuid.UUID, period valueobject.DateRange, purpose string, notes *string, now time.Time) (*Reservation, error) {
	if itemID == uuid.Nil {
		return nil, apperror.Validation("не указан предмет")
	}
	if period.Start.Before(now) {
		return nil, apperror.Validation("дата начала не может быть в прошлом")
	}

	return &Reservation{
		ID:        uuid.New(),
		ItemID:    itemID,
		UserID:    userID,
		StartDate: period.Start,
		EndDate:   period.End,
		Status:    valueobject.ReservationStatusPending,
		Purpose:   strings.TrimSpace(purpose),
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (r *Reservation) Period() valueobject.DateRange {
	return valueobject.DateRange{Start: r.StartDate, End: r.EndDate}
}

func (r *Reservation) IsOwnedBy(userID uuid.UUID) bool {
	return r.UserID == userID
}

func (r *Reservation) transitionTo(status valueobject.ReservationStatus, message string) error {
	if !r.Status.CanTransitionTo(status) {
		return apperror.InvalidState(message)
	}
	r.Status = status
	return nil
}

func (r *Reservation) Approve(approverID uuid.UUID, now time.Time) error {
	if err := r.transitionTo(valueobject.ReservationStatusApproved, "одобрить можно только бронирование в статусе PENDING"); err != nil {
		return err
	}
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	r.UpdatedAt = now
	return nil
}

func (r *Reservation) Reject(reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperror.Validation("укажите причину отклонения")
	}
	if err := r.transitionTo(valueobject.ReservationStatusRejected, "отклонить можно только бронирование в статусе PENDING"); err != nil {
		return err
	}
	r.RejectionReason = &reason
	r.UpdatedAt = now
	return nil
}

func (r *Reservation) Cancel(by uuid.UUID, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperror.Validation("укажите причину отмены")
	}
	if err := r.transitionTo(valueobject.ReservationStatusCancelled, "отменить можно только бронирование в статусе PENDING или APPROVED"); err != nil {
		return err
	}
	r.CancellationReason = &reason
	r.CancelledBy = &by
	r.CancelledAt = &now
	r.UpdatedAt = now
	return nil
}

// Reschedule переносит даты. При requireReapproval одобренное бронирование возвращается в PENDING,
// а данные прежнего одобрения стираются.
func (r *Reservation) Reschedule(period valueobject.DateRange, requireReapproval bool, now time.Time) error {
	if !r.Status.IsModifiable() {
		return apperror.InvalidState("изменять можно только бронирование в статусе PENDING или APPROVED")
	}
	if !period.Start.Equal(r.StartDate) && period.Start.Before(now) {
		return apperror.Validation("дата начала не может быть в прошлом")
	}

	if requireReapproval && r.Status == valueobject.ReservationStatusApproved {
		if err := r.transitionTo(valueobject.ReservationStatusPending, "повторное согласование недоступно"); err != nil {
			return err
		}
		r.ApprovedBy = nil
		r.ApprovedAt = nil
	}

	r.StartDate = period.Start
	r.EndDate = period.End
	r.UpdatedAt = now
	return nil
}

func (r *Reservation) UpdateDetails(purpose *string, notes *string, now time.Time) {
	if purpose != nil {
		r.Purpose = strings.TrimSpace(*purpose)
	}
	if notes != nil {
		r.Notes = notes
	}
	r.UpdatedAt = now
}

// ConfirmPickup переводит одобренное бронирование в ACTIVE.
func (r *Reservation) ConfirmPickup(now time.Time) error {
	if r.Status != valueobject.ReservationStatusApproved {
		return apperror.InvalidState("подтвердить выдачу можно только для бронирования в статусе APPROVED")
	}
	if r.PickupConfirmed {
		return apperror.InvalidState("выдача уже подтверждена")
	}
	if err := r.transitionTo(valueobject.ReservationStatusActive, "подтвердить выдачу можно только для бронирования в статусе APPROVED"); err != nil {
		return err
	}
	r.PickupConfirmed = true
	r.PickupConfirmedAt = &now
	r.ActualStartDate = &now
	r.UpdatedAt = now
	return nil
}

// Complete закрывает бронирование после приёмки возврата.
func (r *Reservation) Complete(returnedAt, now time.Time) error {
	if err := r.transitionTo(valueobject.ReservationStatusCompleted, "завершить можно только активное бронирование"); err != nil {
		return err
	}
	r.ActualEndDate = &returnedAt
	r.UpdatedAt = now
	return nil
}

// RecordOverduePenalty фиксирует общий списанный штраф и возвращает ещё не списанную часть.
func (r *Reservation) RecordOverduePenalty(total int, now time.Time) int {
	if r.OverdueFlaggedAt == nil {
		r.OverdueFlaggedAt = &now
	}
	r.UpdatedAt = now

	if total <= r.OverduePenaltyPoints {
		return 0
	}
	due := total - r.OverduePenaltyPoints
	r.OverduePenaltyPoints = total
	return due
}
