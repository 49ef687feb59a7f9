// Package damage ведёт акты о повреждениях, открытые по возвратам.
package damage

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/usecase/audit"
	"github.com/ignatzorin/lending-backend/internal/usecase/notify"
)

type OpenReportInput struct {
	ReturnID           uuid.UUID
	DamageType         valueobject.DamageType
	Severity           valueobject.DamageSeverity
	Description        string
	RepairCostEstimate *float64
}

type OpenReportUseCase struct {
	uow      repository.UnitOfWork
	clock    clock.Clock
	notifier repository.Notifier
}

func NewOpenReportUseCase(uow repository.UnitOfWork, clk clock.Clock, notifier repository.Notifier) *OpenReportUseCase {
	return &OpenReportUseCase{uow: uow, clock: clk, notifier: notifier}
}

// Execute открывает акт. Статус самого возврата значения не имеет.
func (uc *OpenReportUseCase) Execute(ctx context.Context, actor valueobject.Actor, input OpenReportInput) (*entity.DamageReport, error) {
	now := uc.clock.Now()
	var (
		report *entity.DamageReport
		owner  uuid.UUID
	)
	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		ret, err := tx.Returns().FindByIDForUpdate(ctx, input.ReturnID)
		if err != nil {
			return err
		}
		res, err := tx.Reservations().FindByID(ctx, ret.ReservationID)
		if err != nil {
			return err
		}
		if !actor.CanAccess(res.UserID) {
			return apperror.ErrForbidden
		}
		owner = res.UserID

		report, err = entity.NewDamageReport(ret, actor.ID, input.DamageType, input.Severity, input.Description, input.RepairCostEstimate, now)
		if err != nil {
			return err
		}
		if err := tx.DamageReports().Create(ctx, report); err != nil {
			return err
		}

		_, err = audit.Record(ctx, tx, actor, entity.OpenDamageReportPayload{
			DamageReportID:     report.ID,
			ReturnID:           ret.ID,
			DamageType:         report.DamageType,
			Severity:           report.Severity,
			RepairCostEstimate: report.RepairCostEstimate,
		}, now)
		return err
	})
	if err != nil {
		logRejected("open_damage_report", input.ReturnID, actor, err)
		return nil, err
	}

	notify.Dispatch(uc.notifier, updatedNotification(owner, report))
	return report, nil
}

func updatedNotification(owner uuid.UUID, report *entity.DamageReport) repository.Notification {
	return repository.Notification{
		Type:     repository.NotificationDamageReportUpdated,
		UserID:   owner,
		EntityID: report.ID,
		Data:     map[string]interface{}{"status": report.Status, "returnId": report.ReturnID},
	}
}

func logRejected(action string, entityID uuid.UUID, actor valueobject.Actor, err error) {
	switch {
	case apperror.IsInvalidState(err), apperror.IsConflict(err):
		logger.Rejected(action, entityID, actor.ID, err)
	case apperror.IsForbidden(err):
		logger.Denied(action, entityID, actor.ID)
	}
}
