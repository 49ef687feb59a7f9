// Package item: минимальная регистрация предметов. Каталог ведётся во внешней системе,
// здесь хранится только то, что нужно для выдачи.
package item

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/usecase/audit"
)

type CreateItemInput struct {
	Name      string
	Category  string
	Condition valueobject.ItemCondition
	Location  string
	Value     valueobject.Money
}

type CreateItemUseCase struct {
	uow   repository.UnitOfWork
	clock clock.Clock
}

func NewCreateItemUseCase(uow repository.UnitOfWork, clk clock.Clock) *CreateItemUseCase {
	return &CreateItemUseCase{uow: uow, clock: clk}
}

// Execute регистрирует предмет в статусе AVAILABLE.
func (uc *CreateItemUseCase) Execute(ctx context.Context, actor valueobject.Actor, input CreateItemInput) (*entity.Item, error) {
	if !actor.IsStaff() {
		logger.Denied("create_item", nil, actor.ID)
		return nil, apperror.ErrForbidden
	}
	if input.Value.Amount < 0 {
		return nil, apperror.Validation("стоимость предмета не может быть отрицательной")
	}

	now := uc.clock.Now()
	item, err := entity.NewItem(input.Name, input.Category, input.Condition, input.Location, input.Value, now)
	if err != nil {
		return nil, err
	}

	err = uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Items().Create(ctx, item); err != nil {
			return err
		}
		_, err := audit.Record(ctx, tx, actor, entity.CreateItemPayload{
			ItemID:    item.ID,
			Name:      item.Name,
			Category:  item.Category,
			Condition: item.Condition,
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

type GetItemUseCase struct {
	store repository.Store
}

func NewGetItemUseCase(store repository.Store) *GetItemUseCase {
	return &GetItemUseCase{store: store}
}

func (uc *GetItemUseCase) Execute(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	return uc.store.Items().FindByID(ctx, id)
}

type ListItemsUseCase struct {
	store repository.Store
}

func NewListItemsUseCase(store repository.Store) *ListItemsUseCase {
	return &ListItemsUseCase{store: store}
}

func (uc *ListItemsUseCase) Execute(ctx context.Context, filter repository.ItemFilter) ([]*entity.Item, int, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, 0, apperror.Validation("некорректный статус предмета")
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.store.Items().List(ctx, filter)
}
