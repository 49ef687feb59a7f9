package persistence

import (
	"context"
	"database/sql/driver"
	"errors"

	"github.com/lib/pq"

	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

const uniqueViolation = pq.ErrorCode("23505")

// transientCodes: ошибки, после которых клиент может повторить запрос.
var transientCodes = map[pq.ErrorCode]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"57P01": true, // admin_shutdown
	"57P03": true, // cannot_connect_now
}

// classify переводит ошибку драйвера в AppError.
func classify(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == uniqueViolation:
			return apperror.Wrap(err, apperror.ErrCodeConflict, message)
		case pqErr.Code.Class() == "08" || transientCodes[pqErr.Code]:
			return apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, message)
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return apperror.Wrap(err, apperror.ErrCodeStoreUnavailable, message)
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}
