package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/lending-backend/internal/interface/http/dto"
	"github.com/ignatzorin/lending-backend/internal/interface/http/response"
	"github.com/ignatzorin/lending-backend/internal/usecase/overdue"
	"github.com/ignatzorin/lending-backend/internal/usecase/pickup"
)

type PickupHandler struct {
	issueTokenUC  *pickup.IssueTokenUseCase
	confirmUC     *pickup.ConfirmUseCase
	statusUC      *pickup.StatusUseCase
	bulkConfirmUC *pickup.BulkConfirmUseCase
	overdueScanUC *overdue.ScanUseCase
}

func NewPickupHandler(
	issueTokenUC *pickup.IssueTokenUseCase,
	confirmUC *pickup.ConfirmUseCase,
	statusUC *pickup.StatusUseCase,
	bulkConfirmUC *pickup.BulkConfirmUseCase,
	overdueScanUC *overdue.ScanUseCase,
) *PickupHandler {
	return &PickupHandler{
		issueTokenUC:  issueTokenUC,
		confirmUC:     confirmUC,
		statusUC:      statusUC,
		bulkConfirmUC: bulkConfirmUC,
		overdueScanUC: overdueScanUC,
	}
}

// IssueToken выпускает код выдачи. Открытый код виден только в этом ответе.
func (h *PickupHandler) IssueToken(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	issued, err := h.issueTokenUC.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, issued)
}

func (h *PickupHandler) ConfirmPickup(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ConfirmPickupRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.confirmUC.Execute(c.Request.Context(), actor, id, req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToReservationResponse(res))
}

func (h *PickupHandler) PickupStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	status, err := h.statusUC.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, status)
}

// BulkConfirm отвечает 200 даже при частичных неудачах: итог по каждой записи в теле.
func (h *PickupHandler) BulkConfirm(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req dto.BulkConfirmRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.bulkConfirmUC.Execute(c.Request.Context(), actor, req.ReservationIDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func (h *PickupHandler) ScanOverdue(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req dto.OverdueScanRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	input := overdue.DefaultScanInput()
	if req.DaysOverdue != nil {
		input.DaysOverdue = *req.DaysOverdue
	}
	if req.IncludeApproved != nil {
		input.IncludeApproved = *req.IncludeApproved
	}
	if req.IncludeActive != nil {
		input.IncludeActive = *req.IncludeActive
	}

	result, err := h.overdueScanUC.Execute(c.Request.Context(), actor, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
