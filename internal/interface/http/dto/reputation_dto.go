package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
)

type AdjustReputationRequest struct {
	Delta  int    `json:"delta" binding:"required,ne=0,min=-1000,max=1000"`
	Reason string `json:"reason" binding:"required,max=1000"`
}

type ReputationEntryResponse struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"userId"`
	Delta         int        `json:"delta"`
	Reason        string     `json:"reason"`
	PreviousScore int        `json:"previousScore"`
	NewScore      int        `json:"newScore"`
	SourceType    string     `json:"sourceType"`
	SourceID      *uuid.UUID `json:"sourceId,omitempty"`
	CreatedBy     *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func ToReputationEntryResponse(e *entity.ReputationEntry) ReputationEntryResponse {
	return ReputationEntryResponse{
		ID:            e.ID,
		UserID:        e.UserID,
		Delta:         e.Delta,
		Reason:        e.Reason,
		PreviousScore: e.PreviousScore,
		NewScore:      e.NewScore,
		SourceType:    string(e.SourceType),
		SourceID:      e.SourceID,
		CreatedBy:     e.CreatedBy,
		CreatedAt:     e.CreatedAt,
	}
}

func ToReputationEntryResponses(list []*entity.ReputationEntry) []ReputationEntryResponse {
	responses := make([]ReputationEntryResponse, 0, len(list))
	for _, e := range list {
		responses = append(responses, ToReputationEntryResponse(e))
	}
	return responses
}
