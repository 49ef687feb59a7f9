package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/usecase/returns"
)

type CreateReturnRequest struct {
	ReservationID uuid.UUID  `json:"reservationId" binding:"required"`
	ReturnDate    *time.Time `json:"returnDate"`
	Condition     string     `json:"condition" binding:"required,condition"`
	DamageReport  *string    `json:"damageReport" binding:"omitempty,max=5000"`
	ImageRefs     []string   `json:"imageRefs" binding:"max=20,dive,max=500"`
	Notes         *string    `json:"notes" binding:"omitempty,max=2000"`
}

type ApproveReturnRequest struct {
	ConditionOverride *string `json:"conditionOverride" binding:"omitempty,condition"`
	AcceptPenalty     bool    `json:"acceptPenalty"`
	Notes             *string `json:"notes" binding:"omitempty,max=2000"`
}

type AssessmentCriterionDTO struct {
	Name   string  `json:"name" binding:"required,max=100"`
	Value  int     `json:"value" binding:"gte=0,lte=100"`
	Weight float64 `json:"weight" binding:"gt=0"`
}

type AssessConditionRequest struct {
	Criteria           []AssessmentCriterionDTO `json:"criteria" binding:"required,min=1,dive"`
	Override           *string                  `json:"override" binding:"omitempty,condition"`
	RecommendedPenalty *int                     `json:"recommendedPenalty" binding:"omitempty,gte=0"`
	PenaltyReason      *string                  `json:"penaltyReason" binding:"omitempty,max=1000"`
	Notes              *string                  `json:"notes" binding:"omitempty,max=2000"`
}

type ReturnResponse struct {
	ID                uuid.UUID  `json:"id"`
	ReservationID     uuid.UUID  `json:"reservationId"`
	ItemID            uuid.UUID  `json:"itemId"`
	ReturnedBy        uuid.UUID  `json:"returnedBy"`
	ReturnDate        time.Time  `json:"returnDate"`
	ConditionOnReturn string     `json:"conditionOnReturn"`
	Status            string     `json:"status"`
	DamageReport      *string    `json:"damageReport,omitempty"`
	ImageRefs         []string   `json:"imageRefs"`
	Notes             *string    `json:"notes,omitempty"`
	ApprovedBy        *uuid.UUID `json:"approvedBy,omitempty"`
	ApprovedAt        *time.Time `json:"approvedAt,omitempty"`
	RejectionReason   *string    `json:"rejectionReason,omitempty"`
	FinalCondition    *string    `json:"finalCondition,omitempty"`
	PenaltyApplied    bool       `json:"penaltyApplied"`
	PenaltyAmount     int        `json:"penaltyAmount"`
	PenaltyReason     *string    `json:"penaltyReason,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func ToReturnResponse(r *entity.Return) ReturnResponse {
	resp := ReturnResponse{
		ID:                r.ID,
		ReservationID:     r.ReservationID,
		ItemID:            r.ItemID,
		ReturnedBy:        r.ReturnedBy,
		ReturnDate:        r.ReturnDate,
		ConditionOnReturn: string(r.ConditionOnReturn),
		Status:            string(r.Status),
		DamageReport:      r.DamageReport,
		ImageRefs:         r.ImageRefs,
		Notes:             r.Notes,
		ApprovedBy:        r.ApprovedBy,
		ApprovedAt:        r.ApprovedAt,
		RejectionReason:   r.RejectionReason,
		PenaltyApplied:    r.PenaltyApplied,
		PenaltyAmount:     r.PenaltyAmount,
		PenaltyReason:     r.PenaltyReason,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if resp.ImageRefs == nil {
		resp.ImageRefs = []string{}
	}
	if r.FinalCondition != nil {
		final := string(*r.FinalCondition)
		resp.FinalCondition = &final
	}
	return resp
}

func ToReturnResponses(list []*entity.Return) []ReturnResponse {
	responses := make([]ReturnResponse, 0, len(list))
	for _, r := range list {
		responses = append(responses, ToReturnResponse(r))
	}
	return responses
}

type AssessmentResponse struct {
	ID                 uuid.UUID                    `json:"id"`
	ReturnID           uuid.UUID                    `json:"returnId"`
	AssessorID         uuid.UUID                    `json:"assessorId"`
	Criteria           []entity.AssessmentCriterion `json:"criteria"`
	Score              float64                      `json:"score"`
	ComputedCondition  string                       `json:"computedCondition"`
	FinalCondition     string                       `json:"finalCondition"`
	Overridden         bool                         `json:"overridden"`
	RecommendedPenalty int                          `json:"recommendedPenalty"`
	PenaltyReason      *string                      `json:"penaltyReason,omitempty"`
	Notes              *string                      `json:"notes,omitempty"`
	CreatedAt          time.Time                    `json:"createdAt"`
}

func ToAssessmentResponse(a *entity.ConditionAssessment) AssessmentResponse {
	return AssessmentResponse{
		ID:                 a.ID,
		ReturnID:           a.ReturnID,
		AssessorID:         a.AssessorID,
		Criteria:           a.Criteria,
		Score:              a.Score,
		ComputedCondition:  string(a.ComputedCondition),
		FinalCondition:     string(a.FinalCondition),
		Overridden:         a.Overridden,
		RecommendedPenalty: a.RecommendedPenalty,
		PenaltyReason:      a.PenaltyReason,
		Notes:              a.Notes,
		CreatedAt:          a.CreatedAt,
	}
}

type ReturnDetailsResponse struct {
	ReturnResponse
	Assessments []AssessmentResponse `json:"assessments"`
}

func ToReturnDetailsResponse(details *returns.Details) ReturnDetailsResponse {
	resp := ReturnDetailsResponse{
		ReturnResponse: ToReturnResponse(details.Return),
		Assessments:    make([]AssessmentResponse, 0, len(details.Assessments)),
	}
	for _, a := range details.Assessments {
		resp.Assessments = append(resp.Assessments, ToAssessmentResponse(a))
	}
	return resp
}

type ApproveReturnResponse struct {
	Return      ReturnResponse           `json:"return"`
	Reservation ReservationResponse      `json:"reservation"`
	Penalty     *ReputationEntryResponse `json:"penalty,omitempty"`
}

func ToApproveReturnResponse(result *returns.ApproveResult) ApproveReturnResponse {
	resp := ApproveReturnResponse{
		Return:      ToReturnResponse(result.Return),
		Reservation: ToReservationResponse(result.Reservation),
	}
	if result.Penalty != nil {
		penalty := ToReputationEntryResponse(result.Penalty)
		resp.Penalty = &penalty
	}
	return resp
}
