package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/order"
)

// IdempotencyKeyHeader lets clients retry checkout without placing a second order
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// OrderHandler serves checkout and order management
type OrderHandler struct {
	BaseHandler
	orderService *order.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Checkout godoc
// @Summary      Checkout
// @Description  Turns the cart into a pending order. Requests repeating an Idempotency-Key return the first order.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client generated key"
// @Param        request body order.CheckoutRequest true "Checkout"
// @Success      201 {object} dto.Response{data=order.OrderResponse}
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.BadRequest(c, "Idempotency-Key is too long")
		return
	}
	var req order.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.orderService.Checkout(c.Request.Context(), userID, req, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListMine pages through the customer's orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var filter order.OrderListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	page, err := h.orderService.ListMine(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// GetMine returns one of the customer's orders
func (h *OrderHandler) GetMine(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.orderService.Get(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CancelMine cancels a pending order of the customer
func (h *OrderHandler) CancelMine(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req order.CancelRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.orderService.CancelMine(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// MyInvoice downloads the PDF invoice of one of the customer's orders
func (h *OrderHandler) MyInvoice(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	file, err := h.orderService.InvoiceForUser(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendInvoice(c, file)
}

// List pages through all orders
func (h *OrderHandler) List(c *gin.Context) {
	var filter order.OrderListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	page, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// GetByID returns any order
func (h *OrderHandler) GetByID(c *gin.Context) {
	h.transition(c, h.orderService.GetByID)
}

// MarkPaid records payment of a pending order
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	h.transition(c, h.orderService.MarkPaid)
}

// StartProcessing moves a paid order into fulfilment
func (h *OrderHandler) StartProcessing(c *gin.Context) {
	h.transition(c, h.orderService.StartProcessing)
}

// Deliver marks a shipped order as delivered
func (h *OrderHandler) Deliver(c *gin.Context) {
	h.transition(c, h.orderService.Deliver)
}

// Ship hands an order to the carrier
func (h *OrderHandler) Ship(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req order.ShipRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.orderService.Ship(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Cancel cancels an order that has not shipped
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req order.CancelRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.orderService.Cancel(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Refund refunds a paid or delivered order. The reason is optional.
func (h *OrderHandler) Refund(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req order.RefundRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	result, err := h.orderService.Refund(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Invoice downloads the PDF invoice of any order
func (h *OrderHandler) Invoice(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	file, err := h.orderService.Invoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	sendInvoice(c, file)
}

func (h *OrderHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*order.OrderResponse, error)) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	result, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func sendInvoice(c *gin.Context, file *order.InvoiceFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	if file.URL != "" {
		c.Header("X-Invoice-URL", file.URL)
	}
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
