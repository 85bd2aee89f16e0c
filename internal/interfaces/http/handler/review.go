package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/engagement"
)

// ReviewHandler serves product reviews and their moderation
type ReviewHandler struct {
	BaseHandler
	reviewService *engagement.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *engagement.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// Create godoc
// @Summary      Review a product
// @Description  One review per product and customer. Reviews of delivered purchases are marked verified.
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        request body engagement.CreateReviewRequest true "Review"
// @Success      201 {object} dto.Response{data=engagement.ReviewResponse}
// @Failure      409 {object} dto.Response
// @Security     BearerAuth
// @Router       /reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req engagement.CreateReviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	review, err := h.reviewService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, review)
}

// Update edits the customer's review and sends it back to moderation
func (h *ReviewHandler) Update(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req engagement.UpdateReviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	review, err := h.reviewService.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, review)
}

// Delete removes the customer's review
func (h *ReviewHandler) Delete(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.reviewService.Delete(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListMine pages through the customer's reviews in any status
func (h *ReviewHandler) ListMine(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var filter engagement.ReviewListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	page, err := h.reviewService.ListMine(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// List pages through all reviews for moderation
func (h *ReviewHandler) List(c *gin.Context) {
	var filter engagement.ReviewListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	page, err := h.reviewService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// Approve publishes a review
func (h *ReviewHandler) Approve(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	review, err := h.reviewService.Approve(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, review)
}

// Reject hides a review with a moderation note
func (h *ReviewHandler) Reject(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req engagement.RejectReviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	review, err := h.reviewService.Reject(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, review)
}

// AdminDelete removes any review
func (h *ReviewHandler) AdminDelete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.reviewService.AdminDelete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
