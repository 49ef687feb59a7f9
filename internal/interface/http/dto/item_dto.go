package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
)

type CreateItemRequest struct {
	Name      string  `json:"name" binding:"required,max=200"`
	Category  string  `json:"category" binding:"max=100"`
	Condition string  `json:"condition" binding:"required,condition"`
	Location  string  `json:"location" binding:"max=200"`
	Value     float64 `json:"value" binding:"gte=0"`
	Currency  string  `json:"currency" binding:"omitempty,len=3"`
}

type MoneyDTO struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type ItemResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Condition string    `json:"condition"`
	Status    string    `json:"status"`
	Location  string    `json:"location"`
	Value     MoneyDTO  `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ToItemResponse(item *entity.Item) ItemResponse {
	return ItemResponse{
		ID:        item.ID,
		Name:      item.Name,
		Category:  item.Category,
		Condition: string(item.Condition),
		Status:    string(item.Status),
		Location:  item.Location,
		Value:     MoneyDTO{Amount: item.Value.Amount, Currency: item.Value.Currency},
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func ToItemResponses(items []*entity.Item) []ItemResponse {
	responses := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, ToItemResponse(item))
	}
	return responses
}
