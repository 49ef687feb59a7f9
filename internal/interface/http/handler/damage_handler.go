package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/interface/http/dto"
	"github.com/ignatzorin/lending-backend/internal/interface/http/response"
	"github.com/ignatzorin/lending-backend/internal/usecase/damage"
)

type DamageHandler struct {
	openUC    *damage.OpenReportUseCase
	reviewUC  *damage.StartReviewUseCase
	approveUC *damage.ApproveReportUseCase
	rejectUC  *damage.RejectReportUseCase
	resolveUC *damage.ResolveReportUseCase
	getUC     *damage.GetReportUseCase
	listUC    *damage.ListReportsUseCase
}

// DamageUseCases собирает зависимости обработчика актов о повреждениях.
type DamageUseCases struct {
	Open    *damage.OpenReportUseCase
	Review  *damage.StartReviewUseCase
	Approve *damage.ApproveReportUseCase
	Reject  *damage.RejectReportUseCase
	Resolve *damage.ResolveReportUseCase
	Get     *damage.GetReportUseCase
	List    *damage.ListReportsUseCase
}

func NewDamageHandler(uc DamageUseCases) *DamageHandler {
	return &DamageHandler{
		openUC:    uc.Open,
		reviewUC:  uc.Review,
		approveUC: uc.Approve,
		rejectUC:  uc.Reject,
		resolveUC: uc.Resolve,
		getUC:     uc.Get,
		listUC:    uc.List,
	}
}

// OpenReport обслуживает POST /returns/:id/damage-reports.
func (h *DamageHandler) OpenReport(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	returnID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.OpenDamageReportRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.openUC.Execute(c.Request.Context(), actor, damage.OpenReportInput{
		ReturnID:           returnID,
		DamageType:         valueobject.DamageType(req.DamageType),
		Severity:           valueobject.DamageSeverity(req.Severity),
		Description:        req.Description,
		RepairCostEstimate: req.RepairCostEstimate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToDamageReportResponse(report))
}

func (h *DamageHandler) GetReport(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	report, err := h.getUC.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToDamageReportResponse(report))
}

func (h *DamageHandler) ListReports(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page := parsePage(c)
	filter := repository.DamageReportFilter{Limit: page.Limit, Offset: page.Offset}

	if raw := c.Query("status"); raw != "" {
		status, err := valueobject.NewDamageReportStatus(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.Status = &status
	}

	var err error
	if filter.ReturnID, err = queryUUID(c, "return_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.ItemID, err = queryUUID(c, "item_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.ReportedBy, err = queryUUID(c, "reported_by"); err != nil {
		response.Error(c, err)
		return
	}

	list, total, err := h.listUC.Execute(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToDamageReportResponses(list), total, page.Limit, page.Offset)
}

func (h *DamageHandler) StartReview(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	report, err := h.reviewUC.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToDamageReportResponse(report))
}

func (h *DamageHandler) ApproveReport(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ApproveDamageReportRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	report, err := h.approveUC.Execute(c.Request.Context(), actor, damage.ApproveReportInput{
		ReportID:         id,
		RepairCostActual: req.RepairCostActual,
		PenaltyPoints:    req.PenaltyPoints,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToDamageReportResponse(report))
}

func (h *DamageHandler) RejectReport(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.RequiredReasonRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.rejectUC.Execute(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToDamageReportResponse(report))
}

func (h *DamageHandler) ResolveReport(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ResolveDamageReportRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	report, err := h.resolveUC.Execute(c.Request.Context(), actor, id, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToDamageReportResponse(report))
}
