package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

var assessmentColumns = []string{
	"id", "return_id", "assessor_id", "criteria", "score", "computed_condition", "final_condition",
	"overridden", "recommended_penalty", "penalty_reason", "notes", "created_at", "updated_at",
}

type assessmentRow struct {
	ID                 uuid.UUID                 `db:"id"`
	ReturnID           uuid.UUID                 `db:"return_id"`
	AssessorID         uuid.UUID                 `db:"assessor_id"`
	Criteria           []byte                    `db:"criteria"`
	Score              float64                   `db:"score"`
	ComputedCondition  valueobject.ItemCondition `db:"computed_condition"`
	FinalCondition     valueobject.ItemCondition `db:"final_condition"`
	Overridden         bool                      `db:"overridden"`
	RecommendedPenalty int                       `db:"recommended_penalty"`
	PenaltyReason      *string                   `db:"penalty_reason"`
	Notes              *string                   `db:"notes"`
	CreatedAt          time.Time                 `db:"created_at"`
	UpdatedAt          time.Time                 `db:"updated_at"`
}

func (r assessmentRow) toEntity() (*entity.ConditionAssessment, error) {
	var criteria []entity.AssessmentCriterion
	if err := json.Unmarshal(r.Criteria, &criteria); err != nil {
		return nil, fmt.Errorf("persistence: decode criteria of assessment %s: %w", r.ID, err)
	}
	return &entity.ConditionAssessment{
		ID:                 r.ID,
		ReturnID:           r.ReturnID,
		AssessorID:         r.AssessorID,
		Criteria:           criteria,
		Score:              r.Score,
		ComputedCondition:  r.ComputedCondition,
		FinalCondition:     r.FinalCondition,
		Overridden:         r.Overridden,
		RecommendedPenalty: r.RecommendedPenalty,
		PenaltyReason:      r.PenaltyReason,
		Notes:              r.Notes,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}, nil
}

type assessmentRepo struct {
	q sqlx.ExtContext
}

func (r *assessmentRepo) Create(ctx context.Context, a *entity.ConditionAssessment) error {
	criteria, err := json.Marshal(a.Criteria)
	if err != nil {
		return fmt.Errorf("persistence: encode criteria: %w", err)
	}
	b := psql.Insert("condition_assessments").Columns(assessmentColumns...).Values(
		a.ID, a.ReturnID, a.AssessorID, criteria, a.Score, a.ComputedCondition, a.FinalCondition,
		a.Overridden, a.RecommendedPenalty, a.PenaltyReason, a.Notes, a.CreatedAt, a.UpdatedAt,
	)
	_, err = exec(ctx, r.q, b, "не удалось сохранить оценку состояния")
	return err
}

func (r *assessmentRepo) FindLatestByReturn(ctx context.Context, returnID uuid.UUID) (*entity.ConditionAssessment, error) {
	b := psql.Select(assessmentColumns...).From("condition_assessments").
		Where(sq.Eq{"return_id": returnID}).
		OrderBy("seq DESC").
		Limit(1)

	var row assessmentRow
	if err := get(ctx, r.q, &row, b, errNoRow, "не удалось получить оценку состояния"); err != nil {
		if err == errNoRow {
			return nil, nil
		}
		return nil, err
	}
	return row.toEntity()
}

func (r *assessmentRepo) ListByReturn(ctx context.Context, returnID uuid.UUID) ([]*entity.ConditionAssessment, error) {
	b := psql.Select(assessmentColumns...).From("condition_assessments").
		Where(sq.Eq{"return_id": returnID}).
		OrderBy("seq")

	var rows []assessmentRow
	if err := selectAll(ctx, r.q, &rows, b, "не удалось получить оценки состояния"); err != nil {
		return nil, err
	}
	out := make([]*entity.ConditionAssessment, 0, len(rows))
	for _, row := range rows {
		a, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

var damageColumns = []string{
	"id", "return_id", "reservation_id", "item_id", "reported_by", "damage_type", "severity",
	"description", "repair_cost_estimate", "repair_cost_actual", "penalty_points", "status",
	"reviewed_by", "reviewed_at", "rejection_reason", "resolution_notes", "resolved_at",
	"created_at", "updated_at",
}

type damageRow struct {
	ID                 uuid.UUID                      `db:"id"`
	ReturnID           uuid.UUID                      `db:"return_id"`
	ReservationID      uuid.UUID                      `db:"reservation_id"`
	ItemID             uuid.UUID                      `db:"item_id"`
	ReportedBy         uuid.UUID                      `db:"reported_by"`
	DamageType         valueobject.DamageType         `db:"damage_type"`
	Severity           valueobject.DamageSeverity     `db:"severity"`
	Description        string                         `db:"description"`
	RepairCostEstimate *float64                       `db:"repair_cost_estimate"`
	RepairCostActual   *float64                       `db:"repair_cost_actual"`
	PenaltyPoints      int                            `db:"penalty_points"`
	Status             valueobject.DamageReportStatus `db:"status"`
	ReviewedBy         *uuid.UUID                     `db:"reviewed_by"`
	ReviewedAt         *time.Time                     `db:"reviewed_at"`
	RejectionReason    *string                        `db:"rejection_reason"`
	ResolutionNotes    *string                        `db:"resolution_notes"`
	ResolvedAt         *time.Time                     `db:"resolved_at"`
	CreatedAt          time.Time                      `db:"created_at"`
	UpdatedAt          time.Time                      `db:"updated_at"`
}

func (r damageRow) toEntity() *entity.DamageReport {
	return &entity.DamageReport{
		ID:                 r.ID,
		ReturnID:           r.ReturnID,
		ReservationID:      r.ReservationID,
		ItemID:             r.ItemID,
		ReportedBy:         r.ReportedBy,
		DamageType:         r.DamageType,
		Severity:           r.Severity,
		Description:        r.Description,
		RepairCostEstimate: r.RepairCostEstimate,
		RepairCostActual:   r.RepairCostActual,
		PenaltyPoints:      r.PenaltyPoints,
		Status:             r.Status,
		ReviewedBy:         r.ReviewedBy,
		ReviewedAt:         r.ReviewedAt,
		RejectionReason:    r.RejectionReason,
		ResolutionNotes:    r.ResolutionNotes,
		ResolvedAt:         r.ResolvedAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

type damageRepo struct {
	q sqlx.ExtContext
}

func (r *damageRepo) Create(ctx context.Context, d *entity.DamageReport) error {
	b := psql.Insert("damage_reports").Columns(damageColumns...).Values(
		d.ID, d.ReturnID, d.ReservationID, d.ItemID, d.ReportedBy, d.DamageType, d.Severity,
		d.Description, d.RepairCostEstimate, d.RepairCostActual, d.PenaltyPoints, d.Status,
		d.ReviewedBy, d.ReviewedAt, d.RejectionReason, d.ResolutionNotes, d.ResolvedAt,
		d.CreatedAt, d.UpdatedAt,
	)
	_, err := exec(ctx, r.q, b, "не удалось создать акт о повреждении")
	return err
}

func (r *damageRepo) Update(ctx context.Context, d *entity.DamageReport) error {
	b := psql.Update("damage_reports").SetMap(map[string]interface{}{
		"damage_type":          d.DamageType,
		"severity":             d.Severity,
		"description":          d.Description,
		"repair_cost_estimate": d.RepairCostEstimate,
		"repair_cost_actual":   d.RepairCostActual,
		"penalty_points":       d.PenaltyPoints,
		"status":               d.Status,
		"reviewed_by":          d.ReviewedBy,
		"reviewed_at":          d.ReviewedAt,
		"rejection_reason":     d.RejectionReason,
		"resolution_notes":     d.ResolutionNotes,
		"resolved_at":          d.ResolvedAt,
		"updated_at":           d.UpdatedAt,
	}).Where(sq.Eq{"id": d.ID})

	res, err := exec(ctx, r.q, b, "не удалось обновить акт о повреждении")
	if err != nil {
		return err
	}
	return mustAffect(res, apperror.ErrDamageReportNotFound)
}

func (r *damageRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.DamageReport, error) {
	return r.find(ctx, psql.Select(damageColumns...).From("damage_reports").Where(sq.Eq{"id": id}))
}

func (r *damageRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.DamageReport, error) {
	return r.find(ctx, psql.Select(damageColumns...).From("damage_reports").Where(sq.Eq{"id": id}).Suffix("FOR UPDATE"))
}

func (r *damageRepo) find(ctx context.Context, b sq.SelectBuilder) (*entity.DamageReport, error) {
	var row damageRow
	if err := get(ctx, r.q, &row, b, apperror.ErrDamageReportNotFound, "не удалось получить акт о повреждении"); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *damageRepo) List(ctx context.Context, filter repository.DamageReportFilter) ([]*entity.DamageReport, int, error) {
	where := sq.And{}
	if filter.Status != nil {
		where = append(where, sq.Eq{"status": *filter.Status})
	}
	if filter.ReturnID != nil {
		where = append(where, sq.Eq{"return_id": *filter.ReturnID})
	}
	if filter.ItemID != nil {
		where = append(where, sq.Eq{"item_id": *filter.ItemID})
	}
	if filter.ReportedBy != nil {
		where = append(where, sq.Eq{"reported_by": *filter.ReportedBy})
	}

	total, err := count(ctx, r.q, psql.Select("COUNT(*)").From("damage_reports").Where(where), "не удалось посчитать акты о повреждениях")
	if err != nil {
		return nil, 0, err
	}

	b := paginate(psql.Select(damageColumns...).From("damage_reports").Where(where).OrderBy("created_at DESC", "id"), filter.Limit, filter.Offset)
	var rows []damageRow
	if err := selectAll(ctx, r.q, &rows, b, "не удалось получить акты о повреждениях"); err != nil {
		return nil, 0, err
	}
	out := make([]*entity.DamageReport, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, total, nil
}

func (r *damageRepo) DeleteByReservation(ctx context.Context, reservationID uuid.UUID) error {
	_, err := exec(ctx, r.q, psql.Delete("damage_reports").Where(sq.Eq{"reservation_id": reservationID}), "не удалось удалить акты о повреждениях")
	return err
}
