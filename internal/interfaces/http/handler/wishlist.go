package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/engagement"
)

// WishlistHandler serves the customer's named wishlists
type WishlistHandler struct {
	BaseHandler
	wishlistService *engagement.WishlistService
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(wishlistService *engagement.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService}
}

// List returns all of the customer's wishlists
func (h *WishlistHandler) List(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	lists, err := h.wishlistService.ListMine(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lists)
}

// Get returns one wishlist with its items
func (h *WishlistHandler) Get(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.wishlistService.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// Create adds a wishlist
func (h *WishlistHandler) Create(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req engagement.CreateWishlistRequest
	if !h.BindJSON(c, &req) {
		return
	}
	list, err := h.wishlistService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, list)
}

// Rename renames a wishlist
func (h *WishlistHandler) Rename(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req engagement.RenameWishlistRequest
	if !h.BindJSON(c, &req) {
		return
	}
	list, err := h.wishlistService.Rename(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// SetDefault makes a wishlist the default one
func (h *WishlistHandler) SetDefault(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.wishlistService.SetDefault(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// Delete removes a wishlist
func (h *WishlistHandler) Delete(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.wishlistService.Delete(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddItem saves a product to a wishlist
func (h *WishlistHandler) AddItem(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req engagement.AddWishlistItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	list, err := h.wishlistService.AddItem(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// AddToDefault saves a product to the default wishlist, creating it if needed
func (h *WishlistHandler) AddToDefault(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req engagement.AddWishlistItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	list, err := h.wishlistService.AddToDefault(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// RemoveItem drops an item from a wishlist
func (h *WishlistHandler) RemoveItem(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.ParamUUID(c, "itemId")
	if !ok {
		return
	}
	list, err := h.wishlistService.RemoveItem(c.Request.Context(), userID, id, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, list)
}

// MoveToCart puts a wishlist item in the cart
func (h *WishlistHandler) MoveToCart(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.ParamUUID(c, "itemId")
	if !ok {
		return
	}
	var req engagement.MoveToCartRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	view, err := h.wishlistService.MoveToCart(c.Request.Context(), userID, id, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}
