package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/usecase/reservation"
)

type CreateReservationRequest struct {
	ItemID    uuid.UUID `json:"itemId" binding:"required"`
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
	Purpose   string    `json:"purpose" binding:"max=500"`
	Notes     *string   `json:"notes" binding:"omitempty,max=2000"`
	// UserID: оформление сотрудником на другого пользователя.
	UserID *uuid.UUID `json:"userId"`
}

type ModifyReservationRequest struct {
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Purpose   *string    `json:"purpose" binding:"omitempty,max=500"`
	Notes     *string    `json:"notes" binding:"omitempty,max=2000"`
}

type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type RequiredReasonRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

type ReservationResponse struct {
	ID                   uuid.UUID  `json:"id"`
	ItemID               uuid.UUID  `json:"itemId"`
	UserID               uuid.UUID  `json:"userId"`
	StartDate            time.Time  `json:"startDate"`
	EndDate              time.Time  `json:"endDate"`
	Status               string     `json:"status"`
	Purpose              string     `json:"purpose"`
	Notes                *string    `json:"notes,omitempty"`
	PickupConfirmed      bool       `json:"pickupConfirmed"`
	PickupConfirmedAt    *time.Time `json:"pickupConfirmedAt,omitempty"`
	ActualStartDate      *time.Time `json:"actualStartDate,omitempty"`
	ActualEndDate        *time.Time `json:"actualEndDate,omitempty"`
	ApprovedBy           *uuid.UUID `json:"approvedBy,omitempty"`
	ApprovedAt           *time.Time `json:"approvedAt,omitempty"`
	RejectionReason      *string    `json:"rejectionReason,omitempty"`
	CancellationReason   *string    `json:"cancellationReason,omitempty"`
	CancelledBy          *uuid.UUID `json:"cancelledBy,omitempty"`
	CancelledAt          *time.Time `json:"cancelledAt,omitempty"`
	OverduePenaltyPoints int        `json:"overduePenaltyPoints"`
	OverdueFlaggedAt     *time.Time `json:"overdueFlaggedAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

func ToReservationResponse(r *entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:                   r.ID,
		ItemID:               r.ItemID,
		UserID:               r.UserID,
		StartDate:            r.StartDate,
		EndDate:              r.EndDate,
		Status:               string(r.Status),
		Purpose:              r.Purpose,
		Notes:                r.Notes,
		PickupConfirmed:      r.PickupConfirmed,
		PickupConfirmedAt:    r.PickupConfirmedAt,
		ActualStartDate:      r.ActualStartDate,
		ActualEndDate:        r.ActualEndDate,
		ApprovedBy:           r.ApprovedBy,
		ApprovedAt:           r.ApprovedAt,
		RejectionReason:      r.RejectionReason,
		CancellationReason:   r.CancellationReason,
		CancelledBy:          r.CancelledBy,
		CancelledAt:          r.CancelledAt,
		OverduePenaltyPoints: r.OverduePenaltyPoints,
		OverdueFlaggedAt:     r.OverdueFlaggedAt,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func ToReservationResponses(list []*entity.Reservation) []ReservationResponse {
	responses := make([]ReservationResponse, 0, len(list))
	for _, r := range list {
		responses = append(responses, ToReservationResponse(r))
	}
	return responses
}

type ModifyReservationResponse struct {
	Reservation        ReservationResponse `json:"reservation"`
	ReapprovalRequired bool                `json:"reapprovalRequired"`
}

func ToModifyReservationResponse(result *reservation.ModifyResult) ModifyReservationResponse {
	return ModifyReservationResponse{
		Reservation:        ToReservationResponse(result.Reservation),
		ReapprovalRequired: result.ReapprovalRequired,
	}
}

type CancelReservationResponse struct {
	Reservation ReservationResponse      `json:"reservation"`
	Timing      string                   `json:"timing"`
	Penalty     *ReputationEntryResponse `json:"penalty,omitempty"`
}

func ToCancelReservationResponse(result *reservation.CancelResult) CancelReservationResponse {
	resp := CancelReservationResponse{
		Reservation: ToReservationResponse(result.Reservation),
		Timing:      string(result.Timing),
	}
	if result.Penalty != nil {
		penalty := ToReputationEntryResponse(result.Penalty)
		resp.Penalty = &penalty
	}
	return resp
}
