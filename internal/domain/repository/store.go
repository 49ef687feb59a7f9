package repository

import "context"

// Store объединяет репозитории одного хранилища.
type Store interface {
	Items() ItemRepository
	Reservations() ReservationRepository
	Returns() ReturnRepository
	Assessments() AssessmentRepository
	DamageReports() DamageReportRepository
	Reputation() ReputationRepository
	AuditLog() AuditLogRepository
}

// UnitOfWork выполняет fn в одной транзакции. Ошибка fn откатывает все изменения.
// Вызовы репозиториев внутри fn должны идти через tx.
type UnitOfWork interface {
	Store
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
