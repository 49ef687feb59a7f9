package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/interface/http/dto"
	"github.com/ignatzorin/lending-backend/internal/interface/http/response"
	"github.com/ignatzorin/lending-backend/internal/usecase/reservation"
)

type ReservationHandler struct {
	createUC  *reservation.CreateReservationUseCase
	modifyUC  *reservation.ModifyReservationUseCase
	approveUC *reservation.ApproveReservationUseCase
	rejectUC  *reservation.RejectReservationUseCase
	cancelUC  *reservation.CancelReservationUseCase
	deleteUC  *reservation.DeleteReservationUseCase
	getUC     *reservation.GetReservationUseCase
	listUC    *reservation.ListReservationsUseCase
	historyUC *reservation.GetReservationHistoryUseCase
}

// ReservationUseCases собирает зависимости обработчика бронирований.
type ReservationUseCases struct {
	Create  *reservation.CreateReservationUseCase
	Modify  *reservation.ModifyReservationUseCase
	Approve *reservation.ApproveReservationUseCase
	Reject  *reservation.RejectReservationUseCase
	Cancel  *reservation.CancelReservationUseCase
	Delete  *reservation.DeleteReservationUseCase
	Get     *reservation.GetReservationUseCase
	List    *reservation.ListReservationsUseCase
	History *reservation.GetReservationHistoryUseCase
}

func NewReservationHandler(uc ReservationUseCases) *ReservationHandler {
	return &ReservationHandler{
		createUC:  uc.Create,
		modifyUC:  uc.Modify,
		approveUC: uc.Approve,
		rejectUC:  uc.Reject,
		cancelUC:  uc.Cancel,
		deleteUC:  uc.Delete,
		getUC:     uc.Get,
		listUC:    uc.List,
		historyUC: uc.History,
	}
}

func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req dto.CreateReservationRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.createUC.Execute(c.Request.Context(), actor, reservation.CreateReservationInput{
		ItemID:     req.ItemID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Purpose:    req.Purpose,
		Notes:      req.Notes,
		OnBehalfOf: req.UserID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToReservationResponse(res))
}

func (h *ReservationHandler) GetReservation(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	res, err := h.getUC.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToReservationResponse(res))
}

// ListReservations: ?status=PENDING,APPROVED&item_id=&user_id=&from=&to=&limit=&offset=
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	page := parsePage(c)
	filter := repository.ReservationFilter{Limit: page.Limit, Offset: page.Offset}

	for _, raw := range queryList(c, "status") {
		status, err := valueobject.NewReservationStatus(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	var err error
	if filter.ItemID, err = queryUUID(c, "item_id"); err != nil {
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

	list, total, err := h.listUC.Execute(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToReservationResponses(list), total, page.Limit, page.Offset)
}

func (h *ReservationHandler) ModifyReservation(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ModifyReservationRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.modifyUC.Execute(c.Request.Context(), actor, reservation.ModifyReservationInput{
		ReservationID: id,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Purpose:       req.Purpose,
		Notes:         req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToModifyReservationResponse(result))
}

func (h *ReservationHandler) DeleteReservation(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.deleteUC.Execute(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

func (h *ReservationHandler) ApproveReservation(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	res, err := h.approveUC.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToReservationResponse(res))
}

func (h *ReservationHandler) RejectReservation(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	res, err := h.rejectUC.Execute(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToReservationResponse(res))
}

func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.ReasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.cancelUC.Execute(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToCancelReservationResponse(result))
}

func (h *ReservationHandler) GetHistory(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	entries, err := h.historyUC.Execute(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAuditEntryResponses(entries))
}
