package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
)

type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	Update(ctx context.Context, item *entity.Item) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Item, error)
	// FindByIDForUpdate блокирует строку предмета до конца транзакции.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Item, error)
	List(ctx context.Context, filter ItemFilter) ([]*entity.Item, int, error)
}

type ItemFilter struct {
	Status   *valueobject.ItemStatus
	Category string
	Search   string
	Limit    int
	Offset   int
}
