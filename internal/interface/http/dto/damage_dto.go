package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
)

type OpenDamageReportRequest struct {
	DamageType         string   `json:"damageType" binding:"required,damage_type"`
	Severity           string   `json:"severity" binding:"required,damage_severity"`
	Description        string   `json:"description" binding:"required,max=5000"`
	RepairCostEstimate *float64 `json:"repairCostEstimate" binding:"omitempty,gte=0"`
}

type ApproveDamageReportRequest struct {
	RepairCostActual *float64 `json:"repairCostActual" binding:"omitempty,gte=0"`
	PenaltyPoints    int      `json:"penaltyPoints" binding:"gte=0,lte=1000"`
}

type ResolveDamageReportRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

type DamageReportResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ReturnID           uuid.UUID  `json:"returnId"`
	ReservationID      uuid.UUID  `json:"reservationId"`
	ItemID             uuid.UUID  `json:"itemId"`
	ReportedBy         uuid.UUID  `json:"reportedBy"`
	DamageType         string     `json:"damageType"`
	Severity           string     `json:"severity"`
	Description        string     `json:"description"`
	RepairCostEstimate *float64   `json:"repairCostEstimate,omitempty"`
	RepairCostActual   *float64   `json:"repairCostActual,omitempty"`
	PenaltyPoints      int        `json:"penaltyPoints"`
	Status             string     `json:"status"`
	ReviewedBy         *uuid.UUID `json:"reviewedBy,omitempty"`
	ReviewedAt         *time.Time `json:"reviewedAt,omitempty"`
	RejectionReason    *string    `json:"rejectionReason,omitempty"`
	ResolutionNotes    *string    `json:"resolutionNotes,omitempty"`
	ResolvedAt         *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func ToDamageReportResponse(d *entity.DamageReport) DamageReportResponse {
	return DamageReportResponse{
		ID:                 d.ID,
		ReturnID:           d.ReturnID,
		ReservationID:      d.ReservationID,
		ItemID:             d.ItemID,
		ReportedBy:         d.ReportedBy,
		DamageType:         string(d.DamageType),
		Severity:           string(d.Severity),
		Description:        d.Description,
		RepairCostEstimate: d.RepairCostEstimate,
		RepairCostActual:   d.RepairCostActual,
		PenaltyPoints:      d.PenaltyPoints,
		Status:             string(d.Status),
		ReviewedBy:         d.ReviewedBy,
		ReviewedAt:         d.ReviewedAt,
		RejectionReason:    d.RejectionReason,
		ResolutionNotes:    d.ResolutionNotes,
		ResolvedAt:         d.ResolvedAt,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func ToDamageReportResponses(list []*entity.DamageReport) []DamageReportResponse {
	responses := make([]DamageReportResponse, 0, len(list))
	for _, d := range list {
		responses = append(responses, ToDamageReportResponse(d))
	}
	return responses
}

type DamagePhotoResponse struct {
	Ref         string `json:"ref"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
