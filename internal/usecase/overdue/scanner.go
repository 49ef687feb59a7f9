// Package overdue ищет бронирования, по которым предмет так и не забрали после даты начала,
// и начисляет штраф через журнал репутации.
package overdue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/lifecycle"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/usecase/audit"
	"github.com/ignatzorin/lending-backend/internal/usecase/notify"
	"github.com/ignatzorin/lending-backend/internal/usecase/reputation"
)

const day = 24 * time.Hour

type ScanInput struct {
	// DaysOverdue: сколько полных суток должно пройти после даты начала.
	DaysOverdue     int
	IncludeApproved bool
	IncludeActive   bool
}

// DefaultScanInput: параметры прогона, когда вызывающий их не задал.
func DefaultScanInput() ScanInput {
	return ScanInput{DaysOverdue: 1, IncludeApproved: true, IncludeActive: true}
}

func (in ScanInput) statuses() []valueobject.ReservationStatus {
	var out []valueobject.ReservationStatus
	if in.IncludeApproved {
		out = append(out, valueobject.ReservationStatusApproved)
	}
	if in.IncludeActive {
		out = append(out, valueobject.ReservationStatusActive)
	}
	return out
}

type RecordResult struct {
	ReservationID uuid.UUID                   `json:"reservationId"`
	UserID        uuid.UUID                   `json:"userId"`
	Success       bool                        `json:"success"`
	DaysOverdue   int                         `json:"daysOverdue,omitempty"`
	Severity      valueobject.OverdueSeverity `json:"severity,omitempty"`
	TotalPenalty  int                         `json:"totalPenalty,omitempty"`
	AppliedDelta  int                         `json:"appliedDelta"`
	Error         string                      `json:"error,omitempty"`
}

type ScanResult struct {
	Results   []RecordResult `json:"results"`
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Penalized int            `json:"penalized"`
}

type ScanUseCase struct {
	uow      repository.UnitOfWork
	clock    clock.Clock
	policy   valueobject.Policy
	ledger   *reputation.Ledger
	notifier repository.Notifier
}

func NewScanUseCase(uow repository.UnitOfWork, clk clock.Clock, policy valueobject.Policy, ledger *reputation.Ledger, notifier repository.Notifier) *ScanUseCase {
	return &ScanUseCase{uow: uow, clock: clk, policy: policy, ledger: ledger, notifier: notifier}
}

// Execute отбирает бронирования с неподтверждённой выдачей, начало которых раньше
// now - DaysOverdue суток. Каждая запись обрабатывается в своей транзакции.
// Повторный прогон списывает только прирост штрафа.
func (uc *ScanUseCase) Execute(ctx context.Context, actor valueobject.Actor, input ScanInput) (*ScanResult, error) {
	if !actor.IsStaff() {
		logger.Denied("overdue_scan", nil, actor.ID)
		return nil, apperror.ErrForbidden
	}
	if input.DaysOverdue < 0 {
		return nil, apperror.Validation("daysOverdue не может быть отрицательным")
	}
	statuses := input.statuses()
	if len(statuses) == 0 {
		return nil, apperror.Validation("выберите хотя бы один статус: includeApproved или includeActive")
	}

	now := uc.clock.Now()
	criteria := repository.OverdueCriteria{
		Statuses:      statuses,
		StartedBefore: now.Add(-time.Duration(input.DaysOverdue) * day),
	}
	candidates, err := uc.uow.Reservations().FindOverdueCandidates(ctx, criteria)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{Results: make([]RecordResult, 0, len(candidates))}
	var notifications []repository.Notification

	for _, candidate := range candidates {
		rec, err := uc.process(ctx, actor, candidate.ID, criteria, now)
		if err != nil {
			logger.Log.WithFields(logrus.Fields{
				"reservation_id": candidate.ID,
				"error":          err.Error(),
			}).Error("не удалось обработать просроченное бронирование")

			rec = RecordResult{ReservationID: candidate.ID, UserID: candidate.UserID, Error: err.Error()}
			result.Failed++
		} else {
			result.Succeeded++
			if rec.AppliedDelta > 0 {
				result.Penalized++
				notifications = append(notifications, repository.Notification{
					Type:     repository.NotificationOverdue,
					UserID:   rec.UserID,
					EntityID: rec.ReservationID,
					Data: map[string]interface{}{
						"daysOverdue": rec.DaysOverdue,
						"severity":    rec.Severity,
						"penalty":     rec.AppliedDelta,
					},
				})
			}
		}
		result.Results = append(result.Results, rec)
	}
	result.Total = len(result.Results)

	notify.Dispatch(uc.notifier, notifications...)

	logger.Log.WithFields(logrus.Fields{
		"actor_id":  actor.ID,
		"statuses":  statuses,
		"threshold": input.DaysOverdue,
		"total":     result.Total,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"penalized": result.Penalized,
	}).Info("проверка просроченных бронирований завершена")

	return result, nil
}

func (uc *ScanUseCase) process(ctx context.Context, actor valueobject.Actor, reservationID uuid.UUID, criteria repository.OverdueCriteria, now time.Time) (RecordResult, error) {
	var rec RecordResult
	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		r, _, err := lifecycle.Load(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if !stillOverdue(r, criteria) {
			return apperror.InvalidState("бронирование больше не просрочено: статус " + string(r.Status))
		}

		days := int(now.Sub(r.StartDate) / day)
		total := uc.policy.OverduePenalty(days)
		due := r.RecordOverduePenalty(total, now)

		rec = RecordResult{
			ReservationID: r.ID,
			UserID:        r.UserID,
			Success:       true,
			DaysOverdue:   days,
			Severity:      uc.policy.OverdueSeverity(days),
			TotalPenalty:  total,
			AppliedDelta:  due,
		}

		if err := tx.Reservations().Update(ctx, r); err != nil {
			return err
		}
		if _, err := audit.Record(ctx, tx, actor, entity.MarkOverduePayload{
			ReservationID: r.ID,
			UserID:        r.UserID,
			DaysOverdue:   days,
			Severity:      rec.Severity,
			TotalPenalty:  total,
			AppliedDelta:  due,
		}, now); err != nil {
			return err
		}

		if due == 0 {
			return nil
		}
		id := r.ID
		_, err = uc.ledger.ApplyDelta(ctx, tx, actor, reputation.Delta{
			UserID: r.UserID,
			Points: -due,
			Reason: fmt.Sprintf("предмет не забран: просрочка %d дн.", days),
			Source: entity.SourceRef{Type: entity.ReputationSourceOverdue, ID: &id},
		}, now)
		return err
	})
	return rec, err
}

// stillOverdue повторяет условия отбора на заблокированной строке.
func stillOverdue(r *entity.Reservation, criteria repository.OverdueCriteria) bool {
	if r.PickupConfirmed || !r.StartDate.Before(criteria.StartedBefore) {
		return false
	}
	for _, s := range criteria.Statuses {
		if r.Status == s {
			return true
		}
	}
	return false
}
