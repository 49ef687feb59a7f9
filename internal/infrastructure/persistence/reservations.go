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

var reservationColumns = []string{
	"id", "item_id", "user_id", "start_date", "end_date", "status", "purpose", "notes",
	"pickup_confirmed", "pickup_confirmed_at", "actual_start_date", "actual_end_date",
	"approved_by", "approved_at", "rejection_reason",
	"cancellation_reason", "cancelled_by", "cancelled_at",
	"overdue_penalty_points", "overdue_flagged_at",
	"created_at", "updated_at",
}

var blockingStatuses = []valueobject.ReservationStatus{
	valueobject.ReservationStatusPending,
	valueobject.ReservationStatusApproved,
	valueobject.ReservationStatusActive,
}

type reservationRow struct {
	ID                   uuid.UUID                     `db:"id"`
	ItemID               uuid.UUID                     `db:"item_id"`
	UserID               uuid.UUID                     `db:"user_id"`
	StartDate            time.Time                     `db:"start_date"`
	EndDate              time.Time                     `db:"end_date"`
	Status               valueobject.ReservationStatus `db:"status"`
	Purpose              string                        `db:"purpose"`
	Notes                *string                       `db:"notes"`
	PickupConfirmed      bool                          `db:"pickup_confirmed"`
	PickupConfirmedAt    *time.Time                    `db:"pickup_confirmed_at"`
	ActualStartDate      *time.Time                    `db:"actual_start_date"`
	ActualEndDate        *time.Time                    `db:"actual_end_date"`
	ApprovedBy           *uuid.UUID                    `db:"approved_by"`
	ApprovedAt           *time.Time                    `db:"approved_at"`
	RejectionReason      *string                       `db:"rejection_reason"`
	CancellationReason   *string                       `db:"cancellation_reason"`
	CancelledBy          *uuid.UUID                    `db:"cancelled_by"`
	CancelledAt          *time.Time                    `db:"cancelled_at"`
	OverduePenaltyPoints int                           `db:"overdue_penalty_points"`
	OverdueFlaggedAt     *time.Time                    `db:"overdue_flagged_at"`
	CreatedAt            time.Time                     `db:"created_at"`
	UpdatedAt            time.Time                     `db:"updated_at"`
}

func (r reservationRow) toEntity() *entity.Reservation {
	return &entity.Reservation{
		ID:                   r.ID,
		ItemID:               r.ItemID,
		UserID:               r.UserID,
		StartDate:            r.StartDate,
		EndDate:              r.EndDate,
		Status:               r.Status,
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

func reservationValues(res *entity.Reservation) map[string]interface{} {
	return map[string]interface{}{
		"item_id":                res.ItemID,
		"user_id":                res.UserID,
		"start_date":             res.StartDate,
		"end_date":               res.EndDate,
		"status":                 res.Status,
		"purpose":                res.Purpose,
		"notes":                  res.Notes,
		"pickup_confirmed":       res.PickupConfirmed,
		"pickup_confirmed_at":    res.PickupConfirmedAt,
		"actual_start_date":      res.ActualStartDate,
		"actual_end_date":        res.ActualEndDate,
		"approved_by":            res.ApprovedBy,
		"approved_at":            res.ApprovedAt,
		"rejection_reason":       res.RejectionReason,
		"cancellation_reason":    res.CancellationReason,
		"cancelled_by":           res.CancelledBy,
		"cancelled_at":           res.CancelledAt,
		"overdue_penalty_points": res.OverduePenaltyPoints,
		"overdue_flagged_at":     res.OverdueFlaggedAt,
		"updated_at":             res.UpdatedAt,
	}
}

type reservationRepo struct {
	q sqlx.ExtContext
}

func (r *reservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	values := reservationValues(res)
	values["id"] = res.ID
	values["created_at"] = res.CreatedAt

	_, err := exec(ctx, r.q, psql.Insert("reservations").SetMap(values), "не удалось создать бронирование")
	return err
}

func (r *reservationRepo) Update(ctx context.Context, res *entity.Reservation) error {
	b := psql.Update("reservations").SetMap(reservationValues(res)).Where(sq.Eq{"id": res.ID})
	result, err := exec(ctx, r.q, b, "не удалось обновить бронирование")
	if err != nil {
		return err
	}
	return mustAffect(result, apperror.ErrReservationNotFound)
}

func (r *reservationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := exec(ctx, r.q, psql.Delete("reservations").Where(sq.Eq{"id": id}), "не удалось удалить бронирование")
	if err != nil {
		return err
	}
	return mustAffect(result, apperror.ErrReservationNotFound)
}

func (r *reservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	return r.find(ctx, psql.Select(reservationColumns...).From("reservations").Where(sq.Eq{"id": id}))
}

func (r *reservationRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	return r.find(ctx, psql.Select(reservationColumns...).From("reservations").Where(sq.Eq{"id": id}).Suffix("FOR UPDATE"))
}

func (r *reservationRepo) find(ctx context.Context, b sq.SelectBuilder) (*entity.Reservation, error) {
	var row reservationRow
	if err := get(ctx, r.q, &row, b, apperror.ErrReservationNotFound, "не удалось получить бронирование"); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// FindBlocking: окна полуоткрытые, поэтому смежные бронирования не пересекаются.
func (r *reservationRepo) FindBlocking(ctx context.Context, itemID uuid.UUID, window valueobject.DateRange) ([]*entity.Reservation, error) {
	b := psql.Select(reservationColumns...).From("reservations").
		Where(sq.Eq{"item_id": itemID, "status": blockingStatuses}).
		Where(sq.Lt{"start_date": window.End}).
		Where(sq.Gt{"end_date": window.Start}).
		OrderBy("start_date", "created_at")
	return r.selectRows(ctx, b)
}

func (r *reservationRepo) List(ctx context.Context, filter repository.ReservationFilter) ([]*entity.Reservation, int, error) {
	where := sq.And{}
	if len(filter.Statuses) > 0 {
		where = append(where, sq.Eq{"status": filter.Statuses})
	}
	if filter.ItemID != nil {
		where = append(where, sq.Eq{"item_id": *filter.ItemID})
	}
	if filter.UserID != nil {
		where = append(where, sq.Eq{"user_id": *filter.UserID})
	}
	if filter.From != nil {
		where = append(where, sq.Gt{"end_date": *filter.From})
	}
	if filter.To != nil {
		where = append(where, sq.Lt{"start_date": *filter.To})
	}

	total, err := count(ctx, r.q, psql.Select("COUNT(*)").From("reservations").Where(where), "не удалось посчитать бронирования")
	if err != nil {
		return nil, 0, err
	}

	b := psql.Select(reservationColumns...).From("reservations").Where(where).OrderBy("created_at DESC", "id")
	list, err := r.selectRows(ctx, paginate(b, filter.Limit, filter.Offset))
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *reservationRepo) FindOverdueCandidates(ctx context.Context, criteria repository.OverdueCriteria) ([]*entity.Reservation, error) {
	if len(criteria.Statuses) == 0 {
		return nil, nil
	}
	b := psql.Select(reservationColumns...).From("reservations").
		Where(sq.Eq{"status": criteria.Statuses, "pickup_confirmed": false}).
		Where(sq.Lt{"start_date": criteria.StartedBefore}).
		OrderBy("start_date")
	return r.selectRows(ctx, b)
}

func (r *reservationRepo) selectRows(ctx context.Context, b sq.SelectBuilder) ([]*entity.Reservation, error) {
	var rows []reservationRow
	if err := selectAll(ctx, r.q, &rows, b, "не удалось получить бронирования"); err != nil {
		return nil, err
	}
	out := make([]*entity.Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
