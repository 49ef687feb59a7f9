package damage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/usecase/audit"
	"github.com/ignatzorin/lending-backend/internal/usecase/notify"
	"github.com/ignatzorin/lending-backend/internal/usecase/reputation"
)

// reviewer: общая часть шагов рассмотрения акта: только сотрудники,
// блокировка акта, запись журнала и уведомление владельца бронирования.
type reviewer struct {
	uow      repository.UnitOfWork
	clock    clock.Clock
	notifier repository.Notifier
}

type stepFunc func(ctx context.Context, tx repository.Store, report *entity.DamageReport, owner uuid.UUID, now time.Time) (entity.AuditPayload, error)

func (r reviewer) apply(ctx context.Context, actor valueobject.Actor, action string, reportID uuid.UUID, step stepFunc) (*entity.DamageReport, error) {
	if !actor.IsStaff() {
		logRejected(action, reportID, actor, apperror.ErrForbidden)
		return nil, apperror.ErrForbidden
	}

	now := r.clock.Now()
	var (
		report *entity.DamageReport
		owner  uuid.UUID
	)
	err := r.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		d, err := tx.DamageReports().FindByIDForUpdate(ctx, reportID)
		if err != nil {
			return err
		}
		res, err := tx.Reservations().FindByID(ctx, d.ReservationID)
		if err != nil {
			return err
		}
		owner = res.UserID

		payload, err := step(ctx, tx, d, owner, now)
		if err != nil {
			return err
		}
		if err := tx.DamageReports().Update(ctx, d); err != nil {
			return err
		}
		report = d
		_, err = audit.Record(ctx, tx, actor, payload, now)
		return err
	})
	if err != nil {
		logRejected(action, reportID, actor, err)
		return nil, err
	}

	notify.Dispatch(r.notifier, updatedNotification(owner, report))
	return report, nil
}

type StartReviewUseCase struct {
	reviewer
}

func NewStartReviewUseCase(uow repository.UnitOfWork, clk clock.Clock, notifier repository.Notifier) *StartReviewUseCase {
	return &StartReviewUseCase{reviewer{uow: uow, clock: clk, notifier: notifier}}
}

func (uc *StartReviewUseCase) Execute(ctx context.Context, actor valueobject.Actor, reportID uuid.UUID) (*entity.DamageReport, error) {
	return uc.apply(ctx, actor, "review_damage_report", reportID, func(_ context.Context, _ repository.Store, d *entity.DamageReport, _ uuid.UUID, now time.Time) (entity.AuditPayload, error) {
		if err := d.StartReview(actor.ID, now); err != nil {
			return nil, err
		}
		return entity.ReviewDamageReportPayload{DamageReportID: d.ID}, nil
	})
}

type ApproveReportInput struct {
	ReportID         uuid.UUID
	RepairCostActual *float64
	PenaltyPoints    int
}

type ApproveReportUseCase struct {
	reviewer
	ledger *reputation.Ledger
}

func NewApproveReportUseCase(uow repository.UnitOfWork, clk clock.Clock, ledger *reputation.Ledger, notifier repository.Notifier) *ApproveReportUseCase {
	return &ApproveReportUseCase{reviewer: reviewer{uow: uow, clock: clk, notifier: notifier}, ledger: ledger}
}

// Execute подтверждает акт. Штраф списывается с владельца бронирования в той же транзакции.
func (uc *ApproveReportUseCase) Execute(ctx context.Context, actor valueobject.Actor, input ApproveReportInput) (*entity.DamageReport, error) {
	return uc.apply(ctx, actor, "approve_damage_report", input.ReportID, func(ctx context.Context, tx repository.Store, d *entity.DamageReport, owner uuid.UUID, now time.Time) (entity.AuditPayload, error) {
		if err := d.Approve(actor.ID, input.RepairCostActual, input.PenaltyPoints, now); err != nil {
			return nil, err
		}
		if d.PenaltyPoints > 0 {
			id := d.ID
			if _, err := uc.ledger.ApplyDelta(ctx, tx, actor, reputation.Delta{
				UserID: owner,
				Points: -d.PenaltyPoints,
				Reason: fmt.Sprintf("повреждение предмета (%s, %s)", d.DamageType, d.Severity),
				Source: entity.SourceRef{Type: entity.ReputationSourceDamageReport, ID: &id},
			}, now); err != nil {
				return nil, err
			}
		}
		return entity.ApproveDamageReportPayload{
			DamageReportID:   d.ID,
			RepairCostActual: d.RepairCostActual,
			PenaltyPoints:    d.PenaltyPoints,
		}, nil
	})
}

type RejectReportUseCase struct {
	reviewer
}

func NewRejectReportUseCase(uow repository.UnitOfWork, clk clock.Clock, notifier repository.Notifier) *RejectReportUseCase {
	return &RejectReportUseCase{reviewer{uow: uow, clock: clk, notifier: notifier}}
}

func (uc *RejectReportUseCase) Execute(ctx context.Context, actor valueobject.Actor, reportID uuid.UUID, reason string) (*entity.DamageReport, error) {
	return uc.apply(ctx, actor, "reject_damage_report", reportID, func(_ context.Context, _ repository.Store, d *entity.DamageReport, _ uuid.UUID, now time.Time) (entity.AuditPayload, error) {
		if err := d.Reject(actor.ID, reason, now); err != nil {
			return nil, err
		}
		return entity.RejectDamageReportPayload{DamageReportID: d.ID, Reason: *d.RejectionReason}, nil
	})
}

type ResolveReportUseCase struct {
	reviewer
}

func NewResolveReportUseCase(uow repository.UnitOfWork, clk clock.Clock, notifier repository.Notifier) *ResolveReportUseCase {
	return &ResolveReportUseCase{reviewer{uow: uow, clock: clk, notifier: notifier}}
}

func (uc *ResolveReportUseCase) Execute(ctx context.Context, actor valueobject.Actor, reportID uuid.UUID, notes string) (*entity.DamageReport, error) {
	return uc.apply(ctx, actor, "resolve_damage_report", reportID, func(_ context.Context, _ repository.Store, d *entity.DamageReport, _ uuid.UUID, now time.Time) (entity.AuditPayload, error) {
		if err := d.Resolve(notes, now); err != nil {
			return nil, err
		}
		return entity.ResolveDamageReportPayload{DamageReportID: d.ID, ResolutionNotes: *d.ResolutionNotes}, nil
	})
}
