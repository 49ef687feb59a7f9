package persistence

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
)

var auditColumns = []string{"id", "action", "entity_type", "entity_id", "user_id", "payload", "created_at"}

type auditRow struct {
	ID         uuid.UUID              `db:"id"`
	Action     entity.AuditAction     `db:"action"`
	EntityType entity.AuditEntityType `db:"entity_type"`
	EntityID   uuid.UUID              `db:"entity_id"`
	UserID     uuid.UUID              `db:"user_id"`
	Payload    []byte                 `db:"payload"`
	CreatedAt  time.Time              `db:"created_at"`
}

func (r auditRow) toEntity() (*entity.AuditLogEntry, error) {
	payload, err := entity.DecodePayload(r.Action, r.Payload)
	if err != nil {
		return nil, fmt.Errorf("persistence: audit entry %s: %w", r.ID, err)
	}
	return &entity.AuditLogEntry{
		ID:         r.ID,
		Action:     r.Action,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		UserID:     r.UserID,
		Payload:    payload,
		CreatedAt:  r.CreatedAt,
	}, nil
}

// auditRepo только вставляет: UPDATE и DELETE на audit_log запрещены триггером в миграции.
type auditRepo struct {
	q sqlx.ExtContext
}

func (r *auditRepo) Append(ctx context.Context, e *entity.AuditLogEntry) error {
	payload, err := entity.EncodePayload(e.Payload)
	if err != nil {
		return err
	}
	b := psql.Insert("audit_log").Columns(auditColumns...).Values(
		e.ID, e.Action, e.EntityType, e.EntityID, e.UserID, payload, e.CreatedAt,
	)
	_, err = exec(ctx, r.q, b, "не удалось записать журнал аудита")
	return err
}

func (r *auditRepo) ListByEntity(ctx context.Context, entityType entity.AuditEntityType, entityID uuid.UUID) ([]*entity.AuditLogEntry, error) {
	b := psql.Select(auditColumns...).From("audit_log").
		Where(sq.Eq{"entity_type": entityType, "entity_id": entityID}).
		OrderBy("seq")
	return r.selectRows(ctx, b)
}

func (r *auditRepo) FindLatest(ctx context.Context, entityType entity.AuditEntityType, entityID uuid.UUID, action entity.AuditAction) (*entity.AuditLogEntry, error) {
	b := psql.Select(auditColumns...).From("audit_log").
		Where(sq.Eq{"entity_type": entityType, "entity_id": entityID, "action": action}).
		OrderBy("seq DESC").
		Limit(1)

	var row auditRow
	if err := get(ctx, r.q, &row, b, errNoRow, "не удалось прочитать журнал аудита"); err != nil {
		if err == errNoRow {
			return nil, nil
		}
		return nil, err
	}
	return row.toEntity()
}

// List отдаёт записи от новых к старым.
func (r *auditRepo) List(ctx context.Context, filter repository.AuditFilter) ([]*entity.AuditLogEntry, int, error) {
	where := sq.And{}
	if filter.EntityType != nil {
		where = append(where, sq.Eq{"entity_type": *filter.EntityType})
	}
	if filter.EntityID != nil {
		where = append(where, sq.Eq{"entity_id": *filter.EntityID})
	}
	if filter.Action != nil {
		where = append(where, sq.Eq{"action": *filter.Action})
	}
	if filter.UserID != nil {
		where = append(where, sq.Eq{"user_id": *filter.UserID})
	}
	if filter.From != nil {
		where = append(where, sq.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		where = append(where, sq.Lt{"created_at": *filter.To})
	}

	total, err := count(ctx, r.q, psql.Select("COUNT(*)").From("audit_log").Where(where), "не удалось посчитать записи аудита")
	if err != nil {
		return nil, 0, err
	}

	b := paginate(psql.Select(auditColumns...).From("audit_log").Where(where).OrderBy("seq DESC"), filter.Limit, filter.Offset)
	entries, err := r.selectRows(ctx, b)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *auditRepo) selectRows(ctx context.Context, b sq.SelectBuilder) ([]*entity.AuditLogEntry, error) {
	var rows []auditRow
	if err := selectAll(ctx, r.q, &rows, b, "не удалось прочитать журнал аудита"); err != nil {
		return nil, err
	}
	out := make([]*entity.AuditLogEntry, 0, len(rows))
	for _, row := range rows {
		e, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
