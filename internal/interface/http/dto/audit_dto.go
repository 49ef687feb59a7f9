package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
)

type AuditEntryResponse struct {
	ID         uuid.UUID           `json:"id"`
	Action     string              `json:"action"`
	EntityType string              `json:"entityType"`
	EntityID   uuid.UUID           `json:"entityId"`
	UserID     uuid.UUID           `json:"userId"`
	Payload    entity.AuditPayload `json:"payload"`
	CreatedAt  time.Time           `json:"createdAt"`
}

func ToAuditEntryResponse(e *entity.AuditLogEntry) AuditEntryResponse {
	payload := e.Payload
	// Хэш кода выдачи наружу не отдаём.
	if issued, ok := payload.(entity.IssuePickupTokenPayload); ok {
		issued.TokenHash = ""
		payload = issued
	}
	return AuditEntryResponse{
		ID:         e.ID,
		Action:     string(e.Action),
		EntityType: string(e.EntityType),
		EntityID:   e.EntityID,
		UserID:     e.UserID,
		Payload:    payload,
		CreatedAt:  e.CreatedAt,
	}
}

func ToAuditEntryResponses(list []*entity.AuditLogEntry) []AuditEntryResponse {
	responses := make([]AuditEntryResponse, 0, len(list))
	for _, e := range list {
		responses = append(responses, ToAuditEntryResponse(e))
	}
	return responses
}
