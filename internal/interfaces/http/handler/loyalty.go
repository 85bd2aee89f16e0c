package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/promotion"
)

// LoyaltyHandler serves loyalty balances and the points ledger
type LoyaltyHandler struct {
	BaseHandler
	loyaltyService *promotion.LoyaltyService
}

// NewLoyaltyHandler creates a new loyalty handler
func NewLoyaltyHandler(loyaltyService *promotion.LoyaltyService) *LoyaltyHandler {
	return &LoyaltyHandler{loyaltyService: loyaltyService}
}

// MyAccount returns the customer's balance and tier
func (h *LoyaltyHandler) MyAccount(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	account, err := h.loyaltyService.GetAccount(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// MyTransactions pages through the customer's ledger, newest first
func (h *LoyaltyHandler) MyTransactions(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var filter promotion.TransactionListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	page, err := h.loyaltyService.Transactions(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// GetAccount returns any user's loyalty account
func (h *LoyaltyHandler) GetAccount(c *gin.Context) {
	userID, ok := h.ParamUUID(c, "userId")
	if !ok {
		return
	}
	account, err := h.loyaltyService.GetAccount(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Transactions pages through any user's ledger
func (h *LoyaltyHandler) Transactions(c *gin.Context) {
	userID, ok := h.ParamUUID(c, "userId")
	if !ok {
		return
	}
	var filter promotion.TransactionListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	page, err := h.loyaltyService.Transactions(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// Adjust credits or debits points by hand
func (h *LoyaltyHandler) Adjust(c *gin.Context) {
	var req promotion.AdjustPointsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	account, err := h.loyaltyService.Adjust(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}
