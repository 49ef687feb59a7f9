package persistence

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

var returnColumns = []string{
	"id", "reservation_id", "item_id", "returned_by", "return_date", "condition_on_return", "status",
	"damage_report", "image_refs", "notes", "approved_by", "approved_at", "rejection_reason",
	"final_condition", "penalty_applied", "penalty_amount", "penalty_reason", "created_at", "updated_at",
}

type returnRow struct {
	ID                uuid.UUID                  `db:"id"`
	ReservationID     uuid.UUID                  `db:"reservation_id"`
	ItemID            uuid.UUID                  `db:"item_id"`
	ReturnedBy        uuid.UUID                  `db:"returned_by"`
	ReturnDate        time.Time                  `db:"return_date"`
	ConditionOnReturn valueobject.ItemCondition  `db:"condition_on_return"`
	Status            valueobject.ReturnStatus   `db:"status"`
	DamageReport      *string                    `db:"damage_report"`
	ImageRefs         pq.StringArray             `db:"image_refs"`
	Notes             *string                    `db:"notes"`
	ApprovedBy        *uuid.UUID                 `db:"approved_by"`
	ApprovedAt        *time.Time                 `db:"approved_at"`
	RejectionReason   *string                    `db:"rejection_reason"`
	FinalCondition    *valueobject.ItemCondition `db:"final_condition"`
	PenaltyApplied    bool                       `db:"penalty_applied"`
	PenaltyAmount     int                        `db:"penalty_amount"`
	PenaltyReason     *string                    `db:"penalty_reason"`
	CreatedAt         time.Time                  `db:"created_at"`
	UpdatedAt         time.Time                  `db:"updated_at"`
}

func (r returnRow) toEntity() *entity.Return {
	var refs []string
	if len(r.ImageRefs) > 0 {
		refs = []string(r.ImageRefs)
	}
	return &entity.Return{
		ID:                r.ID,
		ReservationID:     r.ReservationID,
		ItemID:            r.ItemID,
		ReturnedBy:        r.ReturnedBy,
		ReturnDate:        r.ReturnDate,
		ConditionOnReturn: r.ConditionOnReturn,
		Status:            r.Status,
		DamageReport:      r.DamageReport,
		ImageRefs:         refs,
		Notes:             r.Notes,
		ApprovedBy:        r.ApprovedBy,
		ApprovedAt:        r.ApprovedAt,
		RejectionReason:   r.RejectionReason,
		FinalCondition:    r.FinalCondition,
		PenaltyApplied:    r.PenaltyApplied,
		PenaltyAmount:     r.PenaltyAmount,
		PenaltyReason:     r.PenaltyReason,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func returnValues(ret *entity.Return) map[string]interface{} {
	refs := ret.ImageRefs
	if refs == nil {
		refs = []string{}
	}
	return map[string]interface{}{
		"reservation_id":      ret.ReservationID,
		"item_id":             ret.ItemID,
		"returned_by":         ret.ReturnedBy,
		"return_date":         ret.ReturnDate,
		"condition_on_return": ret.ConditionOnReturn,
		"status":              ret.Status,
		"damage_report":       ret.DamageReport,
		"image_refs":          pq.StringArray(refs),
		"notes":               ret.Notes,
		"approved_by":         ret.ApprovedBy,
		"approved_at":         ret.ApprovedAt,
		"rejection_reason":    ret.RejectionReason,
		"final_condition":     ret.FinalCondition,
		"penalty_applied":     ret.PenaltyApplied,
		"penalty_amount":      ret.PenaltyAmount,
		"penalty_reason":      ret.PenaltyReason,
		"updated_at":          ret.UpdatedAt,
	}
}

type returnRepo struct {
	q sqlx.ExtContext
}

// Create: второй открытый возврат по бронированию отсекает частичный уникальный индекс.
func (r *returnRepo) Create(ctx context.Context, ret *entity.Return) error {
	values := returnValues(ret)
	values["id"] = ret.ID
	values["created_at"] = ret.CreatedAt

	_, err := exec(ctx, r.q, psql.Insert("returns").SetMap(values), "не удалось создать возврат")
	if apperror.IsConflict(err) {
		conflict := apperror.Conflict("по бронированию уже есть открытый возврат", nil)
		conflict.Cause = err
		return conflict
	}
	return err
}

func (r *returnRepo) Update(ctx context.Context, ret *entity.Return) error {
	b := psql.Update("returns").SetMap(returnValues(ret)).Where(sq.Eq{"id": ret.ID})
	res, err := exec(ctx, r.q, b, "не удалось обновить возврат")
	if err != nil {
		return err
	}
	return mustAffect(res, apperror.ErrReturnNotFound)
}

func (r *returnRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Return, error) {
	return r.find(ctx, psql.Select(returnColumns...).From("returns").Where(sq.Eq{"id": id}), apperror.ErrReturnNotFound)
}

func (r *returnRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Return, error) {
	b := psql.Select(returnColumns...).From("returns").Where(sq.Eq{"id": id}).Suffix("FOR UPDATE")
	return r.find(ctx, b, apperror.ErrReturnNotFound)
}

func (r *returnRepo) FindOpenByReservation(ctx context.Context, reservationID uuid.UUID) (*entity.Return, error) {
	b := psql.Select(returnColumns...).From("returns").
		Where(sq.Eq{"reservation_id": reservationID}).
		Where(sq.NotEq{"status": valueobject.ReturnStatusRejected}).
		Limit(1)
	return r.find(ctx, b, nil)
}

func (r *returnRepo) find(ctx context.Context, b sq.SelectBuilder, notFound error) (*entity.Return, error) {
	var row returnRow
	if err := get(ctx, r.q, &row, b, errNoRow, "не удалось получить возврат"); err != nil {
		if err == errNoRow {
			if notFound == nil {
				return nil, nil
			}
			return nil, notFound
		}
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *returnRepo) List(ctx context.Context, filter repository.ReturnFilter) ([]*entity.Return, int, error) {
	where := sq.And{}
	if filter.Status != nil {
		where = append(where, sq.Eq{"status": *filter.Status})
	}
	if filter.ReservationID != nil {
		where = append(where, sq.Eq{"reservation_id": *filter.ReservationID})
	}
	if filter.ItemID != nil {
		where = append(where, sq.Eq{"item_id": *filter.ItemID})
	}
	if filter.ReturnedBy != nil {
		where = append(where, sq.Eq{"returned_by": *filter.ReturnedBy})
	}

	total, err := count(ctx, r.q, psql.Select("COUNT(*)").From("returns").Where(where), "не удалось посчитать возвраты")
	if err != nil {
		return nil, 0, err
	}

	b := paginate(psql.Select(returnColumns...).From("returns").Where(where).OrderBy("created_at DESC", "id"), filter.Limit, filter.Offset)
	var rows []returnRow
	if err := selectAll(ctx, r.q, &rows, b, "не удалось получить список возвратов"); err != nil {
		return nil, 0, err
	}
	out := make([]*entity.Return, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, total, nil
}

// DeleteByReservation: оценки состояния удаляются каскадом.
func (r *returnRepo) DeleteByReservation(ctx context.Context, reservationID uuid.UUID) error {
	_, err := exec(ctx, r.q, psql.Delete("returns").Where(sq.Eq{"reservation_id": reservationID}), "не удалось удалить возвраты")
	return err
}
