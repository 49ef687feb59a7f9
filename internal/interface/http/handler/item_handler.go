package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/lending-backend/internal/domain/repository"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/interface/http/dto"
	"github.com/ignatzorin/lending-backend/internal/interface/http/response"
	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lending-backend/internal/usecase/availability"
	"github.com/ignatzorin/lending-backend/internal/usecase/item"
)

type ItemHandler struct {
	createItemUC   *item.CreateItemUseCase
	getItemUC      *item.GetItemUseCase
	listItemsUC    *item.ListItemsUseCase
	availabilityUC *availability.CheckUseCase
}

func NewItemHandler(
	createItemUC *item.CreateItemUseCase,
	getItemUC *item.GetItemUseCase,
	listItemsUC *item.ListItemsUseCase,
	availabilityUC *availability.CheckUseCase,
) *ItemHandler {
	return &ItemHandler{
		createItemUC:   createItemUC,
		getItemUC:      getItemUC,
		listItemsUC:    listItemsUC,
		availabilityUC: availabilityUC,
	}
}

func (h *ItemHandler) CreateItem(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req dto.CreateItemRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	created, err := h.createItemUC.Execute(c.Request.Context(), actor, item.CreateItemInput{
		Name:      req.Name,
		Category:  req.Category,
		Condition: valueobject.ItemCondition(req.Condition),
		Location:  req.Location,
		Value:     valueobject.Money{Amount: req.Value, Currency: req.Currency},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToItemResponse(created))
}

func (h *ItemHandler) GetItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	found, err := h.getItemUC.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToItemResponse(found))
}

func (h *ItemHandler) ListItems(c *gin.Context) {
	page := parsePage(c)
	filter := repository.ItemFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
	if raw := c.Query("status"); raw != "" {
		status, err := valueobject.NewItemStatus(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.Status = &status
	}

	items, total, err := h.listItemsUC.Execute(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToItemResponses(items), total, page.Limit, page.Offset)
}

// CheckAvailability обслуживает GET /items/:id/availability?start=&end=&exclude=
func (h *ItemHandler) CheckAvailability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	start, err := queryTime(c, "start")
	if err != nil {
		response.Error(c, err)
		return
	}
	end, err := queryTime(c, "end")
	if err != nil {
		response.Error(c, err)
		return
	}
	if start == nil || end == nil {
		response.Error(c, apperror.Validation("параметры start и end обязательны"))
		return
	}
	exclude, err := queryUUID(c, "exclude")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.availabilityUC.Execute(c.Request.Context(), id, *start, *end, exclude)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
