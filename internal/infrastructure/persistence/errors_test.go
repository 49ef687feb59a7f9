package persistence

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code apperror.ErrorCode
	}{
		{"unique", &pq.Error{Code: "23505"}, apperror.ErrCodeConflict},
		{"connection", &pq.Error{Code: "08006"}, apperror.ErrCodeStoreUnavailable},
		{"serialization", &pq.Error{Code: "40001"}, apperror.ErrCodeStoreUnavailable},
		{"deadlock", &pq.Error{Code: "40P01"}, apperror.ErrCodeStoreUnavailable},
		{"shutdown", &pq.Error{Code: "57P01"}, apperror.ErrCodeStoreUnavailable},
		{"syntax", &pq.Error{Code: "42601"}, apperror.ErrCodeDatabaseError},
		{"bad conn", driver.ErrBadConn, apperror.ErrCodeStoreUnavailable},
		{"other", errors.New("boom"), apperror.ErrCodeDatabaseError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classify(tc.err, "операция")
			assert.Equal(t, tc.code, apperror.CodeOf(err))
			assert.True(t, errors.Is(err, tc.err))
		})
	}

	transient := classify(&pq.Error{Code: "40001"}, "операция")
	var appErr *apperror.AppError
	require.True(t, errors.As(transient, &appErr))
	assert.True(t, appErr.Retryable())

	notFound := classify(apperror.ErrReturnNotFound, "операция")
	assert.Same(t, apperror.ErrReturnNotFound, notFound)
	assert.NoError(t, classify(nil, "операция"))
}

// execOnly отвечает только на ExecContext и запоминает запрос.
type execOnly struct {
	sqlx.ExtContext
	query string
	args  []interface{}
	err   error
}

func (e *execOnly) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	e.query = query
	e.args = args
	return nil, e.err
}

func TestReturnCreate_SecondOpenReturnIsConflict(t *testing.T) {
	q := &execOnly{err: &pq.Error{Code: "23505", Constraint: "returns_one_open_per_reservation"}}
	repo := &returnRepo{q: q}

	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	err := repo.Create(context.Background(), &entity.Return{
		ID:                uuid.New(),
		ReservationID:     uuid.New(),
		ItemID:            uuid.New(),
		ReturnedBy:        uuid.New(),
		ReturnDate:        now,
		ConditionOnReturn: valueobject.ConditionGood,
		Status:            valueobject.ReturnStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	})

	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.True(t, strings.HasPrefix(q.query, "INSERT INTO returns"))
	assert.Contains(t, q.query, "$1")
	assert.NotContains(t, q.query, "?")

	var refs pq.StringArray
	for _, arg := range q.args {
		if a, ok := arg.(pq.StringArray); ok {
			refs = a
		}
	}
	assert.NotNil(t, refs, "image_refs пишется пустым массивом, а не NULL")
}

func TestDamageDelete_ScopedByReservation(t *testing.T) {
	q := &execOnly{}
	repo := &damageRepo{q: q}
	reservationID := uuid.New()

	require.NoError(t, repo.DeleteByReservation(context.Background(), reservationID))
	assert.Equal(t, "DELETE FROM damage_reports WHERE reservation_id = $1", q.query)
	// squirrel раскрывает driver.Valuer, поэтому uuid уходит строкой.
	assert.Equal(t, []interface{}{reservationID.String()}, q.args)
}
