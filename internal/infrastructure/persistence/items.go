package persistence

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

var itemColumns = []string{
	"id", "name", "category", "condition", "status", "location",
	"value_amount", "value_currency", "created_at", "updated_at",
}

type itemRow struct {
	ID            uuid.UUID                 `db:"id"`
	Name          string                    `db:"name"`
	Category      string                    `db:"category"`
	Condition     valueobject.ItemCondition `db:"condition"`
	Status        valueobject.ItemStatus    `db:"status"`
	Location      string                    `db:"location"`
	ValueAmount   float64                   `db:"value_amount"`
	ValueCurrency string                    `db:"value_currency"`
	CreatedAt     time.Time                 `db:"created_at"`
	UpdatedAt     time.Time                 `db:"updated_at"`
}

func (r itemRow) toEntity() *entity.Item {
	return &entity.Item{
		ID:        r.ID,
		Name:      r.Name,
		Category:  r.Category,
		Condition: r.Condition,
		Status:    r.Status,
		Location:  r.Location,
		Value:     valueobject.Money{Amount: r.ValueAmount, Currency: r.ValueCurrency},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type itemRepo struct {
	q sqlx.ExtContext
}

func (r *itemRepo) Create(ctx context.Context, item *entity.Item) error {
	currency := item.Value.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	b := psql.Insert("items").Columns(itemColumns...).Values(
		item.ID, item.Name, item.Category, item.Condition, item.Status, item.Location,
		item.Value.Amount, currency, item.CreatedAt, item.UpdatedAt,
	)
	_, err := exec(ctx, r.q, b, "не удалось создать предмет")
	return err
}

func (r *itemRepo) Update(ctx context.Context, item *entity.Item) error {
	b := psql.Update("items").SetMap(map[string]interface{}{
		"name":           item.Name,
		"category":       item.Category,
		"condition":      item.Condition,
		"status":         item.Status,
		"location":       item.Location,
		"value_amount":   item.Value.Amount,
		"value_currency": item.Value.Currency,
		"updated_at":     item.UpdatedAt,
	}).Where(sq.Eq{"id": item.ID})

	res, err := exec(ctx, r.q, b, "не удалось обновить предмет")
	if err != nil {
		return err
	}
	return mustAffect(res, apperror.ErrItemNotFound)
}

func (r *itemRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	return r.find(ctx, psql.Select(itemColumns...).From("items").Where(sq.Eq{"id": id}))
}

func (r *itemRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	return r.find(ctx, psql.Select(itemColumns...).From("items").Where(sq.Eq{"id": id}).Suffix("FOR UPDATE"))
}

func (r *itemRepo) find(ctx context.Context, b sq.SelectBuilder) (*entity.Item, error) {
	var row itemRow
	if err := get(ctx, r.q, &row, b, apperror.ErrItemNotFound, "не удалось получить предмет"); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *itemRepo) List(ctx context.Context, filter repository.ItemFilter) ([]*entity.Item, int, error) {
	where := sq.And{}
	if filter.Status != nil {
		where = append(where, sq.Eq{"status": *filter.Status})
	}
	if filter.Category != "" {
		where = append(where, sq.ILike{"category": filter.Category})
	}
	if filter.Search != "" {
		where = append(where, sq.ILike{"name": "%" + filter.Search + "%"})
	}

	total, err := count(ctx, r.q, psql.Select("COUNT(*)").From("items").Where(where), "не удалось посчитать предметы")
	if err != nil {
		return nil, 0, err
	}

	b := paginate(psql.Select(itemColumns...).From("items").Where(where).OrderBy("created_at DESC", "id"), filter.Limit, filter.Offset)
	var rows []itemRow
	if err := selectAll(ctx, r.q, &rows, b, "не удалось получить список предметов"); err != nil {
		return nil, 0, err
	}

	items := make([]*entity.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, total, nil
}
