package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden        ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrCodeConflict         ErrorCode = "CONFLICT"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidState     ErrorCode = "INVALID_STATE"
	ErrCodeDatabaseError    ErrorCode = "DATABASE_ERROR"
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMITED"

	ErrCodePickupTokenMissing  ErrorCode = "PICKUP_TOKEN_MISSING"
	ErrCodePickupTokenMismatch ErrorCode = "PICKUP_TOKEN_MISMATCH"
	ErrCodePickupTokenExpired  ErrorCode = "PICKUP_TOKEN_EXPIRED"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	// Details несёт данные для клиента, например список конфликтующих бронирований.
	Details interface{}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Retryable сообщает, можно ли клиенту повторить запрос.
func (e *AppError) Retryable() bool {
	return e.Code == ErrCodeStoreUnavailable
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidState(message string) *AppError {
	return New(ErrCodeInvalidState, message)
}

// Conflict создаёт ошибку конфликта с приложенными конфликтующими записями.
func Conflict(message string, details interface{}) *AppError {
	e := New(ErrCodeConflict, message)
	e.Details = details
	return e
}

func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidState,
		ErrCodePickupTokenMissing, ErrCodePickupTokenMismatch, ErrCodePickupTokenExpired:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return Is(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return Is(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return Is(err, ErrCodeValidation)
}

func IsConflict(err error) bool {
	return Is(err, ErrCodeConflict)
}

func IsInvalidState(err error) bool {
	return Is(err, ErrCodeInvalidState)
}

func IsTransient(err error) bool {
	return Is(err, ErrCodeStoreUnavailable)
}

var (
	ErrItemNotFound         = New(ErrCodeNotFound, "предмет не найден")
	ErrReservationNotFound  = New(ErrCodeNotFound, "бронирование не найдено")
	ErrReturnNotFound       = New(ErrCodeNotFound, "возврат не найден")
	ErrDamageReportNotFound = New(ErrCodeNotFound, "акт о повреждении не найден")
	ErrAssessmentNotFound   = New(ErrCodeNotFound, "оценка состояния не найдена")
	ErrUnauthorized         = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden            = New(ErrCodeForbidden, "недостаточно прав")

	ErrPickupTokenMissing  = New(ErrCodePickupTokenMissing, "код выдачи ещё не выпускался")
	ErrPickupTokenMismatch = New(ErrCodePickupTokenMismatch, "код выдачи не совпадает с последним выпущенным")
	ErrPickupTokenExpired  = New(ErrCodePickupTokenExpired, "срок действия кода выдачи истёк")
)
