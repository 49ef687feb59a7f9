package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

type itemRepo struct {
	run runner
}

func (r *itemRepo) Create(ctx context.Context, item *entity.Item) error {
	return r.run(func(st *state) error {
		if _, ok := st.items[item.ID]; ok {
			return apperror.Conflict("предмет уже существует", nil)
		}
		st.items[item.ID] = *item
		st.itemOrder = append(st.itemOrder, item.ID)
		return nil
	})
}

func (r *itemRepo) Update(ctx context.Context, item *entity.Item) error {
	return r.run(func(st *state) error {
		if _, ok := st.items[item.ID]; !ok {
			return apperror.ErrItemNotFound
		}
		st.items[item.ID] = *item
		return nil
	})
}

func (r *itemRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	var out *entity.Item
	err := r.run(func(st *state) error {
		item, ok := st.items[id]
		if !ok {
			return apperror.ErrItemNotFound
		}
		out = &item
		return nil
	})
	return out, err
}

// FindByIDForUpdate: транзакции уже сериализованы мьютексом хранилища.
func (r *itemRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	return r.FindByID(ctx, id)
}

func (r *itemRepo) List(ctx context.Context, filter repository.ItemFilter) ([]*entity.Item, int, error) {
	var out []*entity.Item
	var total int
	err := r.run(func(st *state) error {
		search := strings.ToLower(strings.TrimSpace(filter.Search))
		var matched []*entity.Item
		for i := len(st.itemOrder) - 1; i >= 0; i-- {
			item := st.items[st.itemOrder[i]]
			if filter.Status != nil && item.Status != *filter.Status {
				continue
			}
			if filter.Category != "" && !strings.EqualFold(item.Category, filter.Category) {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(item.Name), search) {
				continue
			}
			matched = append(matched, &item)
		}
		total = len(matched)
		from, to := page(total, filter.Limit, filter.Offset)
		out = matched[from:to]
		return nil
	})
	return out, total, err
}
