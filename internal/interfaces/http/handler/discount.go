package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/promotion"
)

// DiscountHandler serves discount code management and validation
type DiscountHandler struct {
	BaseHandler
	discountService *promotion.DiscountService
}

// NewDiscountHandler creates a new discount handler
func NewDiscountHandler(discountService *promotion.DiscountService) *DiscountHandler {
	return &DiscountHandler{discountService: discountService}
}

// Validate godoc
// @Summary      Validate a discount code
// @Description  Checks a code against a cart subtotal and quotes the discount without redeeming it
// @Tags         discounts
// @Accept       json
// @Produce      json
// @Param        request body promotion.ValidateDiscountRequest true "Code and subtotal"
// @Success      200 {object} dto.Response{data=promotion.DiscountQuote}
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /discounts/validate [post]
func (h *DiscountHandler) Validate(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req promotion.ValidateDiscountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	quote, err := h.discountService.Validate(c.Request.Context(), userID, req.Code, req.Subtotal)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// List pages through discounts
func (h *DiscountHandler) List(c *gin.Context) {
	var filter promotion.DiscountListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	page, err := h.discountService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// GetByID returns a discount
func (h *DiscountHandler) GetByID(c *gin.Context) {
	h.byID(c, h.discountService.GetByID)
}

// Create adds a discount code
func (h *DiscountHandler) Create(c *gin.Context) {
	var req promotion.CreateDiscountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	discount, err := h.discountService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, discount)
}

// Update edits a discount
func (h *DiscountHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req promotion.UpdateDiscountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	discount, err := h.discountService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, discount)
}

// Activate enables a discount
func (h *DiscountHandler) Activate(c *gin.Context) {
	h.byID(c, h.discountService.Activate)
}

// Deactivate disables a discount
func (h *DiscountHandler) Deactivate(c *gin.Context) {
	h.byID(c, h.discountService.Deactivate)
}

// Delete removes a discount that was never redeemed
func (h *DiscountHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.discountService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *DiscountHandler) byID(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*promotion.DiscountResponse, error)) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	discount, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, discount)
}
