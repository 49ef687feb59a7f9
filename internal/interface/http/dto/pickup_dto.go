package dto

import "github.com/google/uuid"

type ConfirmPickupRequest struct {
	Token string `json:"token" binding:"required,max=128"`
}

type BulkConfirmRequest struct {
	ReservationIDs []uuid.UUID `json:"reservationIds" binding:"required,min=1,max=100"`
}

type OverdueScanRequest struct {
	DaysOverdue     *int  `json:"daysOverdue" binding:"omitempty,gte=0,lte=365"`
	IncludeApproved *bool `json:"includeApproved"`
	IncludeActive   *bool `json:"includeActive"`
}
