package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

type DamageReport struct {
	ID                 uuid.UUID
	ReturnID           uuid.UUID
	ReservationID      uuid.UUID
	ItemID             uuid.UUID
	ReportedBy         uuid.UUID
	DamageType         valueobject.DamageType
	Severity           valueobject.DamageSeverity
	Description        string
	RepairCostEstimate *float64
	RepairCostActual   *float64
	PenaltyPoints      int
	Status             valueobject.DamageReportStatus

	ReviewedBy      *uuid.UUID
	ReviewedAt      *time.Time
	RejectionReason *string
	ResolutionNotes *string
	ResolvedAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewDamageReport(ret *Return, reportedBy uuid.UUID, damageType valueobject.DamageType, severity valueobject.DamageSeverity, description string, estimate *float64, now time.Time) (*DamageReport, error) {
	if !ret.IndicatesDamage() {
		return nil, apperror.InvalidState("акт можно открыть только по возврату с описанием повреждения или состоянием хуже GOOD")
	}
	if !damageType.IsValid() {
		return nil, apperror.Validation("некорректный тип повреждения")
	}
	if !severity.IsValid() {
		return nil, apperror.Validation("некорректная степень повреждения")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperror.Validation("опишите повреждение")
	}
	if estimate != nil && *estimate < 0 {
		return nil, apperror.Validation("оценка стоимости ремонта не может быть отрицательной")
	}

	return &DamageReport{
		ID:                 uuid.New(),
		ReturnID:           ret.ID,
		ReservationID:      ret.ReservationID,
		ItemID:             ret.ItemID,
		ReportedBy:         reportedBy,
		DamageType:         damageType,
		Severity:           severity,
		Description:        description,
		RepairCostEstimate: estimate,
		Status:             valueobject.DamageReportStatusReported,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func (d *DamageReport) transitionTo(status valueobject.DamageReportStatus, now time.Time) error {
	if !d.Status.CanTransitionTo(status) {
		return apperror.InvalidState("недопустимый переход акта: " + string(d.Status) + " -> " + string(status))
	}
	d.Status = status
	d.UpdatedAt = now
	return nil
}

func (d *DamageReport) StartReview(reviewerID uuid.UUID, now time.Time) error {
	if err := d.transitionTo(valueobject.DamageReportStatusUnderReview, now); err != nil {
		return err
	}
	d.ReviewedBy = &reviewerID
	d.ReviewedAt = &now
	return nil
}

// Approve фиксирует фактическую стоимость ремонта и штраф.
func (d *DamageReport) Approve(reviewerID uuid.UUID, repairCostActual *float64, penaltyPoints int, now time.Time) error {
	if penaltyPoints < 0 {
		return apperror.Validation("штраф задаётся неотрицательным числом баллов")
	}
	if repairCostActual != nil && *repairCostActual < 0 {
		return apperror.Validation("стоимость ремонта не может быть отрицательной")
	}
	if err := d.transitionTo(valueobject.DamageReportStatusApproved, now); err != nil {
		return err
	}
	d.ReviewedBy = &reviewerID
	d.ReviewedAt = &now
	d.RepairCostActual = repairCostActual
	d.PenaltyPoints = penaltyPoints
	return nil
}

func (d *DamageReport) Reject(reviewerID uuid.UUID, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperror.Validation("укажите причину отклонения акта")
	}
	if err := d.transitionTo(valueobject.DamageReportStatusRejected, now); err != nil {
		return err
	}
	d.ReviewedBy = &reviewerID
	d.ReviewedAt = &now
	d.RejectionReason = &reason
	return nil
}

func (d *DamageReport) Resolve(notes string, now time.Time) error {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return apperror.Validation("укажите итог по акту")
	}
	if err := d.transitionTo(valueobject.DamageReportStatusResolved, now); err != nil {
		return err
	}
	d.ResolutionNotes = &notes
	d.ResolvedAt = &now
	return nil
}
