package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
)

type ReturnRepository interface {
	Create(ctx context.Context, ret *entity.Return) error
	Update(ctx context.Context, ret *entity.Return) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Return, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Return, error)
	// FindOpenByReservation возвращает возврат не в статусе REJECTED или nil.
	FindOpenByReservation(ctx context.Context, reservationID uuid.UUID) (*entity.Return, error)
	List(ctx context.Context, filter ReturnFilter) ([]*entity.Return, int, error)
	DeleteByReservation(ctx context.Context, reservationID uuid.UUID) error
}

type ReturnFilter struct {
	Status        *valueobject.ReturnStatus
	ReservationID *uuid.UUID
	ItemID        *uuid.UUID
	ReturnedBy    *uuid.UUID
	Limit         int
	Offset        int
}

type AssessmentRepository interface {
	Create(ctx context.Context, assessment *entity.ConditionAssessment) error
	// FindLatestByReturn возвращает последнюю оценку или nil.
	FindLatestByReturn(ctx context.Context, returnID uuid.UUID) (*entity.ConditionAssessment, error)
	ListByReturn(ctx context.Context, returnID uuid.UUID) ([]*entity.ConditionAssessment, error)
}

type DamageReportRepository interface {
	Create(ctx context.Context, report *entity.DamageReport) error
	Update(ctx context.Context, report *entity.DamageReport) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.DamageReport, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.DamageReport, error)
	List(ctx context.Context, filter DamageReportFilter) ([]*entity.DamageReport, int, error)
	DeleteByReservation(ctx context.Context, reservationID uuid.UUID) error
}

type DamageReportFilter struct {
	Status     *valueobject.DamageReportStatus
	ReturnID   *uuid.UUID
	ItemID     *uuid.UUID
	ReportedBy *uuid.UUID
	Limit      int
	Offset     int
}
