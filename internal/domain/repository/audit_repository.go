package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
)

// AuditLogRepository только добавляет записи: изменение и удаление не предусмотрены.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *entity.AuditLogEntry) error
	ListByEntity(ctx context.Context, entityType entity.AuditEntityType, entityID uuid.UUID) ([]*entity.AuditLogEntry, error)
	// FindLatest возвращает последнюю запись с действием action по сущности или nil.
	FindLatest(ctx context.Context, entityType entity.AuditEntityType, entityID uuid.UUID, action entity.AuditAction) (*entity.AuditLogEntry, error)
	List(ctx context.Context, filter AuditFilter) ([]*entity.AuditLogEntry, int, error)
}

type AuditFilter struct {
	EntityType *entity.AuditEntityType
	EntityID   *uuid.UUID
	Action     *entity.AuditAction
	UserID     *uuid.UUID
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
