package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/engagement"
)

// PageQuery is a bare page selector
type PageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// FavoriteHandler serves the customer's favorite products
type FavoriteHandler struct {
	BaseHandler
	favoriteService *engagement.FavoriteService
}

// NewFavoriteHandler creates a new favorite handler
func NewFavoriteHandler(favoriteService *engagement.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

// List pages through favorites, newest first
func (h *FavoriteHandler) List(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var q PageQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.favoriteService.ListMine(c.Request.Context(), userID, q.Page, q.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// Add marks a product as favorite. Adding twice is a no-op.
func (h *FavoriteHandler) Add(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	productID, ok := h.ParamUUID(c, "productId")
	if !ok {
		return
	}
	if err := h.favoriteService.Add(c.Request.Context(), userID, productID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Remove unmarks a product
func (h *FavoriteHandler) Remove(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	productID, ok := h.ParamUUID(c, "productId")
	if !ok {
		return
	}
	if err := h.favoriteService.Remove(c.Request.Context(), userID, productID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Toggle flips the favorite state of a product
func (h *FavoriteHandler) Toggle(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	productID, ok := h.ParamUUID(c, "productId")
	if !ok {
		return
	}
	result, err := h.favoriteService.Toggle(c.Request.Context(), userID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Status reports whether a single product is a favorite
func (h *FavoriteHandler) Status(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	productID, ok := h.ParamUUID(c, "productId")
	if !ok {
		return
	}
	fav, err := h.favoriteService.IsFavorite(c.Request.Context(), userID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, engagement.ToggleFavoriteResponse{ProductID: productID, Favorite: fav})
}

// Check returns which of the given products are favorites
func (h *FavoriteHandler) Check(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req engagement.FavoriteCheckRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ids, err := h.favoriteService.Check(c.Request.Context(), userID, req.ProductIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"product_ids": ids})
}
