// Package persistence: адаптеры репозиториев поверх PostgreSQL (sqlx + lib/pq + squirrel).
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/lending-backend/internal/domain/repository"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// errNoRow: внутренний признак пустого результата для поисков, которые возвращают nil.
var errNoRow = errors.New("persistence: no rows")

// Store реализует repository.UnitOfWork. Вне транзакции запросы идут в пул,
// внутри WithinTx — в *sqlx.Tx.
type Store struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

var _ repository.UnitOfWork = (*Store)(nil)

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Items() repository.ItemRepository               { return &itemRepo{q: s.q} }
func (s *Store) Reservations() repository.ReservationRepository { return &reservationRepo{q: s.q} }
func (s *Store) Returns() repository.ReturnRepository           { return &returnRepo{q: s.q} }
func (s *Store) Assessments() repository.AssessmentRepository   { return &assessmentRepo{q: s.q} }
func (s *Store) DamageReports() repository.DamageReportRepository {
	return &damageRepo{q: s.q}
}
func (s *Store) Reputation() repository.ReputationRepository { return &reputationRepo{q: s.q} }
func (s *Store) AuditLog() repository.AuditLogRepository     { return &auditRepo{q: s.q} }

// WithinTx выполняет fn в транзакции READ COMMITTED. Паника и ошибка fn откатывают транзакцию.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return classify(err, "не удалось начать транзакцию")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(ctx, &Store{db: s.db, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return classify(err, "не удалось зафиксировать транзакцию")
	}
	return nil
}

func exec(ctx context.Context, q sqlx.ExtContext, b sq.Sqlizer, message string) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("persistence: build query: %w", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, message)
	}
	return res, nil
}

// get возвращает notFound, если строка не найдена.
func get(ctx context.Context, q sqlx.ExtContext, dest interface{}, b sq.Sqlizer, notFound error, message string) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("persistence: build query: %w", err)
	}
	if err := sqlx.GetContext(ctx, q, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound
		}
		return classify(err, message)
	}
	return nil
}

func selectAll(ctx context.Context, q sqlx.ExtContext, dest interface{}, b sq.Sqlizer, message string) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("persistence: build query: %w", err)
	}
	if err := sqlx.SelectContext(ctx, q, dest, query, args...); err != nil {
		return classify(err, message)
	}
	return nil
}

func count(ctx context.Context, q sqlx.ExtContext, b sq.SelectBuilder, message string) (int, error) {
	var total int
	err := get(ctx, q, &total, b, nil, message)
	return total, err
}

// mustAffect превращает UPDATE/DELETE без затронутых строк в notFound.
func mustAffect(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err, "не удалось получить число изменённых строк")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func paginate(b sq.SelectBuilder, limit, offset int) sq.SelectBuilder {
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}
	return b
}
