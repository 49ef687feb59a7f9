package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

// Record добавляет запись журнала в транзакции tx вызывающего кода.
func Record(ctx context.Context, tx repository.Store, actor valueobject.Actor, payload entity.AuditPayload, now time.Time) (*entity.AuditLogEntry, error) {
	entry := entity.NewAuditLogEntry(actor, payload, now)
	if err := tx.AuditLog().Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

type GetEntityHistoryUseCase struct {
	store repository.Store
}

func NewGetEntityHistoryUseCase(store repository.Store) *GetEntityHistoryUseCase {
	return &GetEntityHistoryUseCase{store: store}
}

// Execute возвращает историю сущности от старых записей к новым. Доступно сотрудникам.
func (uc *GetEntityHistoryUseCase) Execute(ctx context.Context, actor valueobject.Actor, entityType entity.AuditEntityType, entityID uuid.UUID) ([]*entity.AuditLogEntry, error) {
	if !actor.IsStaff() {
		logger.Denied("audit_history", entityID, actor.ID)
		return nil, apperror.ErrForbidden
	}
	if !entityType.IsValid() {
		return nil, apperror.Validation("некорректный тип сущности")
	}
	return uc.store.AuditLog().ListByEntity(ctx, entityType, entityID)
}

type ListAuditLogUseCase struct {
	store repository.Store
}

func NewListAuditLogUseCase(store repository.Store) *ListAuditLogUseCase {
	return &ListAuditLogUseCase{store: store}
}

func (uc *ListAuditLogUseCase) Execute(ctx context.Context, actor valueobject.Actor, filter repository.AuditFilter) ([]*entity.AuditLogEntry, int, error) {
	if !actor.IsStaff() {
		logger.Denied("audit_list", nil, actor.ID)
		return nil, 0, apperror.ErrForbidden
	}
	if filter.EntityType != nil && !filter.EntityType.IsValid() {
		return nil, 0, apperror.Validation("некорректный тип сущности")
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return uc.store.AuditLog().List(ctx, filter)
}
