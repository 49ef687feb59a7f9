package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

type Return struct {
	ID                uuid.UUID
	ReservationID     uuid.UUID
	ItemID            uuid.UUID
	ReturnedBy        uuid.UUID
	ReturnDate        time.Time
	ConditionOnReturn valueobject.ItemCondition
	Status            valueobject.ReturnStatus
	DamageReport      *string
	ImageRefs         []string
	Notes             *string

	ApprovedBy      *uuid.UUID
	ApprovedAt      *time.Time
	RejectionReason *string
	FinalCondition  *valueobject.ItemCondition

	PenaltyApplied bool
	PenaltyAmount  int
	PenaltyReason  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewReturn(reservation *Reservation, returnedBy uuid.UUID, returnDate time.Time, condition valueobject.ItemCondition, damageReport *string, imageRefs []string, notes *string, now time.Time) (*Return, error) {
	if !condition.IsValid() {
		return nil, apperror.Validation("некорректное состояние предмета")
	}
	if reservation.Status != valueobject.ReservationStatusActive {
		return nil, apperror.InvalidState("вернуть можно только предмет по активному бронированию")
	}
	if returnDate.IsZero() {
		returnDate = now
	}
	if damageReport != nil {
		trimmed := strings.TrimSpace(*damageReport)
		if trimmed == "" {
			damageReport = nil
		} else {
			damageReport = &trimmed
		}
	}

	refs := make([]string, 0, len(imageRefs))
	for _, ref := range imageRefs {
		if ref = strings.TrimSpace(ref); ref != "" {
			refs = append(refs, ref)
		}
	}

	return &Return{
		ID:                uuid.New(),
		ReservationID:     reservation.ID,
		ItemID:            reservation.ItemID,
		ReturnedBy:        returnedBy,
		ReturnDate:        returnDate.UTC(),
		ConditionOnReturn: condition,
		Status:            valueobject.ReturnStatusPending,
		DamageReport:      damageReport,
		ImageRefs:         refs,
		Notes:             notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func (r *Return) IsOnTime(endDate time.Time) bool {
	return !r.ReturnDate.After(endDate)
}

func (r *Return) HasDamageReport() bool {
	return r.DamageReport != nil
}

// QualifiesForAutoApproval: состояние GOOD, возврат не позже окончания и без акта о повреждении.
// Роль того, кто оформляет возврат, не учитывается.
func (r *Return) QualifiesForAutoApproval(endDate time.Time) bool {
	return r.ConditionOnReturn == valueobject.ConditionGood && r.IsOnTime(endDate) && !r.HasDamageReport()
}

// IndicatesDamage: по возврату можно открыть акт о повреждении.
func (r *Return) IndicatesDamage() bool {
	return r.HasDamageReport() || r.ConditionOnReturn.WorseThan(valueobject.ConditionGood)
}

// Approve принимает возврат. При итоговом состоянии DAMAGED статус возврата — DAMAGED.
func (r *Return) Approve(approverID uuid.UUID, finalCondition valueobject.ItemCondition, now time.Time) error {
	if r.Status != valueobject.ReturnStatusPending {
		return apperror.InvalidState("принять можно только возврат в статусе PENDING")
	}
	if !finalCondition.IsValid() {
		return apperror.Validation("некорректное итоговое состояние")
	}

	r.Status = valueobject.ReturnStatusApproved
	if finalCondition == valueobject.ConditionDamaged {
		r.Status = valueobject.ReturnStatusDamaged
	}
	r.FinalCondition = &finalCondition
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	r.UpdatedAt = now
	return nil
}

func (r *Return) Reject(reason string, now time.Time) error {
	if r.Status != valueobject.ReturnStatusPending {
		return apperror.InvalidState("отклонить можно только возврат в статусе PENDING")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperror.Validation("укажите причину отклонения возврата")
	}
	r.Status = valueobject.ReturnStatusRejected
	r.RejectionReason = &reason
	r.UpdatedAt = now
	return nil
}

// RecordPenalty отмечает, что штраф по возврату списан. Повторное списание запрещено.
func (r *Return) RecordPenalty(points int, reason string, now time.Time) error {
	if r.PenaltyApplied {
		return apperror.Conflict("штраф по этому возврату уже списан", nil)
	}
	r.PenaltyApplied = true
	r.PenaltyAmount = points
	r.PenaltyReason = &reason
	r.UpdatedAt = now
	return nil
}
