package damage

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

type GetReportUseCase struct {
	store repository.Store
}

func NewGetReportUseCase(store repository.Store) *GetReportUseCase {
	return &GetReportUseCase{store: store}
}

func (uc *GetReportUseCase) Execute(ctx context.Context, actor valueobject.Actor, reportID uuid.UUID) (*entity.DamageReport, error) {
	d, err := uc.store.DamageReports().FindByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if actor.IsStaff() || actor.Owns(d.ReportedBy) {
		return d, nil
	}

	res, err := uc.store.Reservations().FindByID(ctx, d.ReservationID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(res.UserID) {
		logger.Denied("get_damage_report", reportID, actor.ID)
		return nil, apperror.ErrForbidden
	}
	return d, nil
}

type ListReportsUseCase struct {
	store repository.Store
}

func NewListReportsUseCase(store repository.Store) *ListReportsUseCase {
	return &ListReportsUseCase{store: store}
}

// Execute: заёмщик видит только акты, открытые им самим.
func (uc *ListReportsUseCase) Execute(ctx context.Context, actor valueobject.Actor, filter repository.DamageReportFilter) ([]*entity.DamageReport, int, error) {
	if !actor.IsStaff() {
		filter.ReportedBy = &actor.ID
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.store.DamageReports().List(ctx, filter)
}
