package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
)

type auditRepo struct {
	run runner
}

func (r *auditRepo) Append(ctx context.Context, entry *entity.AuditLogEntry) error {
	return r.run(func(st *state) error {
		st.audit = append(st.audit, *entry)
		return nil
	})
}

func (r *auditRepo) ListByEntity(ctx context.Context, entityType entity.AuditEntityType, entityID uuid.UUID) ([]*entity.AuditLogEntry, error) {
	var out []*entity.AuditLogEntry
	err := r.run(func(st *state) error {
		for _, e := range st.audit {
			if e.EntityType == entityType && e.EntityID == entityID {
				e := e
				out = append(out, &e)
			}
		}
		return nil
	})
	return out, err
}

func (r *auditRepo) FindLatest(ctx context.Context, entityType entity.AuditEntityType, entityID uuid.UUID, action entity.AuditAction) (*entity.AuditLogEntry, error) {
	var out *entity.AuditLogEntry
	err := r.run(func(st *state) error {
		for i := len(st.audit) - 1; i >= 0; i-- {
			e := st.audit[i]
			if e.EntityType == entityType && e.EntityID == entityID && e.Action == action {
				out = &e
				return nil
			}
		}
		return nil
	})
	return out, err
}

// List отдаёт записи от новых к старым.
func (r *auditRepo) List(ctx context.Context, filter repository.AuditFilter) ([]*entity.AuditLogEntry, int, error) {
	var out []*entity.AuditLogEntry
	var total int
	err := r.run(func(st *state) error {
		var matched []*entity.AuditLogEntry
		for i := len(st.audit) - 1; i >= 0; i-- {
			e := st.audit[i]
			if filter.EntityType != nil && e.EntityType != *filter.EntityType {
				continue
			}
			if filter.EntityID != nil && e.EntityID != *filter.EntityID {
				continue
			}
			if filter.Action != nil && e.Action != *filter.Action {
				continue
			}
			if filter.UserID != nil && e.UserID != *filter.UserID {
				continue
			}
			if filter.From != nil && e.CreatedAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && !e.CreatedAt.Before(*filter.To) {
				continue
			}
			matched = append(matched, &e)
		}
		total = len(matched)
		from, to := page(total, filter.Limit, filter.Offset)
		out = matched[from:to]
		return nil
	})
	return out, total, err
}
