package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/interface/http/dto"
	"github.com/ignatzorin/lending-backend/internal/interface/http/response"
	"github.com/ignatzorin/lending-backend/internal/usecase/audit"
)

type AuditHandler struct {
	listUC    *audit.ListAuditLogUseCase
	historyUC *audit.GetEntityHistoryUseCase
}

func NewAuditHandler(listUC *audit.ListAuditLogUseCase, historyUC *audit.GetEntityHistoryUseCase) *AuditHandler {
	return &AuditHandler{listUC: listUC, historyUC: historyUC}
}

// ListAuditLog: ?entity_type=&entity_id=&action=&user_id=&from=&to=&limit=&offset=
// Новые записи первыми.
func (h *AuditHandler) ListAuditLog(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page := parsePage(c)
	filter := repository.AuditFilter{Limit: page.Limit, Offset: page.Offset}

	if raw := c.Query("entity_type"); raw != "" {
		entityType := entity.AuditEntityType(strings.ToUpper(raw))
		filter.EntityType = &entityType
	}
	if raw := c.Query("action"); raw != "" {
		action := entity.AuditAction(strings.ToUpper(raw))
		filter.Action = &action
	}

	var err error
	if filter.EntityID, err = queryUUID(c, "entity_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.UserID, err = queryUUID(c, "user_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.From, err = queryTime(c, "from"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		response.Error(c, err)
		return
	}

	entries, total, err := h.listUC.Execute(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToAuditEntryResponses(entries), total, page.Limit, page.Offset)
}

// EntityHistory обслуживает GET /audit-log/:entity_type/:id, записи от старых к новым.
func (h *AuditHandler) EntityHistory(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	entityType := entity.AuditEntityType(strings.ToUpper(c.Param("entity_type")))
	entries, err := h.historyUC.Execute(c.Request.Context(), actor, entityType, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAuditEntryResponses(entries))
}
