package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/lending-backend/internal/domain/entity"
	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/interface/http/dto"
	"github.com/ignatzorin/lending-backend/internal/interface/http/response"
	"github.com/ignatzorin/lending-backend/internal/usecase/returns"
)

type ReturnHandler struct {
	createUC  *returns.CreateReturnUseCase
	approveUC *returns.ApproveReturnUseCase
	rejectUC  *returns.RejectReturnUseCase
	assessUC  *returns.AssessConditionUseCase
	getUC     *returns.GetReturnUseCase
	listUC    *returns.ListReturnsUseCase
}

func NewReturnHandler(
	createUC *returns.CreateReturnUseCase,
	approveUC *returns.ApproveReturnUseCase,
	rejectUC *returns.RejectReturnUseCase,
	assessUC *returns.AssessConditionUseCase,
	getUC *returns.GetReturnUseCase,
	listUC *returns.ListReturnsUseCase,
) *ReturnHandler {
	return &ReturnHandler{
		createUC:  createUC,
		approveUC: approveUC,
		rejectUC:  rejectUC,
		assessUC:  assessUC,
		getUC:     getUC,
		listUC:    listUC,
	}
}

func (h *ReturnHandler) CreateReturn(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req dto.CreateReturnRequest
	if !bindJSON(c, &req) {
		return
	}

	ret, err := h.createUC.Execute(c.Request.Context(), actor, returns.CreateReturnInput{
		ReservationID: req.ReservationID,
		ReturnDate:    req.ReturnDate,
		Condition:     valueobject.ItemCondition(req.Condition),
		DamageReport:  req.DamageReport,
		ImageRefs:     req.ImageRefs,
		Notes:         req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToReturnResponse(ret))
}

func (h *ReturnHandler) GetReturn(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	details, err := h.getUC.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToReturnDetailsResponse(details))
}

// ListReturns: ?status=&reservation_id=&item_id=&returned_by=&limit=&offset=
func (h *ReturnHandler) ListReturns(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page := parsePage(c)
	filter := repository.ReturnFilter{Limit: page.Limit, Offset: page.Offset}

	if raw := c.Query("status"); raw != "" {
		status, err := valueobject.NewReturnStatus(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.Status = &status
	}

	var err error
	if filter.ReservationID, err = queryUUID(c, "reservation_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.ItemID, err = queryUUID(c, "item_id"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.ReturnedBy, err = queryUUID(c, "returned_by"); err != nil {
		response.Error(c, err)
		return
	}

	list, total, err := h.listUC.Execute(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToReturnResponses(list), total, page.Limit, page.Offset)
}

func (h *ReturnHandler) ApproveReturn(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ApproveReturnRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	input := returns.ApproveReturnInput{
		ReturnID:      id,
		AcceptPenalty: req.AcceptPenalty,
		Notes:         req.Notes,
	}
	if req.ConditionOverride != nil {
		override := valueobject.ItemCondition(*req.ConditionOverride)
		input.ConditionOverride = &override
	}

	result, err := h.approveUC.Execute(c.Request.Context(), actor, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToApproveReturnResponse(result))
}

func (h *ReturnHandler) RejectReturn(c *gin.Context) {
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

	ret, err := h.rejectUC.Execute(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToReturnResponse(ret))
}

func (h *ReturnHandler) AssessCondition(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.AssessConditionRequest
	if !bindJSON(c, &req) {
		return
	}

	input := entity.AssessmentInput{
		Criteria:           make([]entity.AssessmentCriterion, 0, len(req.Criteria)),
		RecommendedPenalty: req.RecommendedPenalty,
		PenaltyReason:      req.PenaltyReason,
		Notes:              req.Notes,
	}
	for _, cr := range req.Criteria {
		input.Criteria = append(input.Criteria, entity.AssessmentCriterion{Name: cr.Name, Value: cr.Value, Weight: cr.Weight})
	}
	if req.Override != nil {
		override := valueobject.ItemCondition(*req.Override)
		input.Override = &override
	}

	assessment, err := h.assessUC.Execute(c.Request.Context(), actor, id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToAssessmentResponse(assessment))
}
