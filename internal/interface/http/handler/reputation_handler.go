package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/interface/http/dto"
	"github.com/ignatzorin/lending-backend/internal/interface/http/response"
	"github.com/ignatzorin/lending-backend/internal/usecase/reputation"
)

type ReputationHandler struct {
	getScoreUC   *reputation.GetScoreUseCase
	getHistoryUC *reputation.GetHistoryUseCase
	adjustUC     *reputation.AdjustUseCase
}

func NewReputationHandler(
	getScoreUC *reputation.GetScoreUseCase,
	getHistoryUC *reputation.GetHistoryUseCase,
	adjustUC *reputation.AdjustUseCase,
) *ReputationHandler {
	return &ReputationHandler{
		getScoreUC:   getScoreUC,
		getHistoryUC: getHistoryUC,
		adjustUC:     adjustUC,
	}
}

type reputationView struct {
	*reputation.Score
	History []dto.ReputationEntryResponse `json:"history"`
}

func (h *ReputationHandler) GetMyReputation(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	h.writeReputation(c, actor, actor.ID)
}

func (h *ReputationHandler) GetUserReputation(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.writeReputation(c, actor, userID)
}

func (h *ReputationHandler) writeReputation(c *gin.Context, actor valueobject.Actor, userID uuid.UUID) {
	score, err := h.getScoreUC.Execute(c.Request.Context(), actor, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	history, err := h.getHistoryUC.Execute(c.Request.Context(), actor, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, reputationView{Score: score, History: dto.ToReputationEntryResponses(history)})
}

// Adjust: ручная корректировка рейтинга (MANAGER, SUPER_ADMIN).
func (h *ReputationHandler) Adjust(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustReputationRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.adjustUC.Execute(c.Request.Context(), actor, reputation.AdjustInput{
		UserID: userID,
		Delta:  req.Delta,
		Reason: req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToReputationEntryResponse(entry))
}
