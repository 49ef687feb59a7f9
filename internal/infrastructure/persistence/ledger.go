package persistence

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
)

type scoreRow struct {
	UserID    uuid.UUID `db:"user_id"`
	Score     int       `db:"score"`
	UpdatedAt time.Time `db:"updated_at"`
}

var entryColumns = []string{
	"id", "user_id", "delta", "reason", "previous_score", "new_score",
	"source_type", "source_id", "created_by", "created_at",
}

type entryRow struct {
	ID            uuid.UUID               `db:"id"`
	UserID        uuid.UUID               `db:"user_id"`
	Delta         int                     `db:"delta"`
	Reason        string                  `db:"reason"`
	PreviousScore int                     `db:"previous_score"`
	NewScore      int                     `db:"new_score"`
	SourceType    entity.ReputationSource `db:"source_type"`
	SourceID      *uuid.UUID              `db:"source_id"`
	CreatedBy     *uuid.UUID              `db:"created_by"`
	CreatedAt     time.Time               `db:"created_at"`
}

type reputationRepo struct {
	q sqlx.ExtContext
}

func (r *reputationRepo) FindScore(ctx context.Context, userID uuid.UUID) (*entity.TrustScore, error) {
	return r.findScore(ctx, psql.Select("user_id", "score", "updated_at").From("trust_scores").Where(sq.Eq{"user_id": userID}))
}

// FindScoreForUpdate берёт транзакционную advisory-блокировку по пользователю:
// строки кэша может ещё не быть, а FOR UPDATE не блокирует отсутствующую строку.
func (r *reputationRepo) FindScoreForUpdate(ctx context.Context, userID uuid.UUID) (*entity.TrustScore, error) {
	lock := sq.Expr("SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", userID.String())
	if _, err := exec(ctx, r.q, lock, "не удалось заблокировать рейтинг"); err != nil {
		return nil, err
	}

	b := psql.Select("user_id", "score", "updated_at").From("trust_scores").Where(sq.Eq{"user_id": userID}).Suffix("FOR UPDATE")
	return r.findScore(ctx, b)
}

func (r *reputationRepo) findScore(ctx context.Context, b sq.SelectBuilder) (*entity.TrustScore, error) {
	var row scoreRow
	if err := get(ctx, r.q, &row, b, errNoRow, "не удалось получить рейтинг"); err != nil {
		if err == errNoRow {
			return nil, nil
		}
		return nil, err
	}
	return &entity.TrustScore{UserID: row.UserID, Score: row.Score, UpdatedAt: row.UpdatedAt}, nil
}

func (r *reputationRepo) SaveScore(ctx context.Context, score *entity.TrustScore) error {
	b := psql.Insert("trust_scores").
		Columns("user_id", "score", "updated_at").
		Values(score.UserID, score.Score, score.UpdatedAt).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at")
	_, err := exec(ctx, r.q, b, "не удалось сохранить рейтинг")
	return err
}

func (r *reputationRepo) AppendEntry(ctx context.Context, e *entity.ReputationEntry) error {
	b := psql.Insert("reputation_entries").Columns(entryColumns...).Values(
		e.ID, e.UserID, e.Delta, e.Reason, e.PreviousScore, e.NewScore,
		e.SourceType, e.SourceID, e.CreatedBy, e.CreatedAt,
	)
	_, err := exec(ctx, r.q, b, "не удалось записать изменение рейтинга")
	return err
}

func (r *reputationRepo) ListEntries(ctx context.Context, userID uuid.UUID) ([]*entity.ReputationEntry, error) {
	b := psql.Select(entryColumns...).From("reputation_entries").Where(sq.Eq{"user_id": userID}).OrderBy("seq")

	var rows []entryRow
	if err := selectAll(ctx, r.q, &rows, b, "не удалось получить журнал рейтинга"); err != nil {
		return nil, err
	}
	out := make([]*entity.ReputationEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, &entity.ReputationEntry{
			ID:            row.ID,
			UserID:        row.UserID,
			Delta:         row.Delta,
			Reason:        row.Reason,
			PreviousScore: row.PreviousScore,
			NewScore:      row.NewScore,
			SourceType:    row.SourceType,
			SourceID:      row.SourceID,
			CreatedBy:     row.CreatedBy,
			CreatedAt:     row.CreatedAt,
		})
	}
	return out, nil
}
