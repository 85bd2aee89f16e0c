package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/analytics"
)

// DashboardHandler serves the admin dashboard figures
type DashboardHandler struct {
	BaseHandler
	analyticsService *analytics.Service
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(analyticsService *analytics.Service) *DashboardHandler {
	return &DashboardHandler{analyticsService: analyticsService}
}

// Overview godoc
// @Summary      Dashboard overview
// @Description  Revenue, order counts by status, new customers and stock alerts for a period
// @Tags         dashboard
// @Produce      json
// @Param        from query string false "Start date (YYYY-MM-DD)"
// @Param        to   query string false "End date, inclusive (YYYY-MM-DD)"
// @Param        days query int    false "Trailing days when no dates are given"
// @Success      200 {object} dto.Response{data=analytics.OverviewResponse}
// @Security     BearerAuth
// @Router       /admin/dashboard/overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	var q analytics.PeriodQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.analyticsService.Overview(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SalesTrend returns daily sales of a period
func (h *DashboardHandler) SalesTrend(c *gin.Context) {
	var q analytics.PeriodQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.analyticsService.SalesTrend(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// TopProducts ranks the best selling products
func (h *DashboardHandler) TopProducts(c *gin.Context) {
	var q analytics.RankingQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.analyticsService.TopProducts(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// TopCustomers ranks customers by spend
func (h *DashboardHandler) TopCustomers(c *gin.Context) {
	var q analytics.RankingQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.analyticsService.TopCustomers(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// LowStock lists products running out
func (h *DashboardHandler) LowStock(c *gin.Context) {
	var q analytics.LowStockQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.analyticsService.LowStockProducts(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RecentOrders returns the newest orders
func (h *DashboardHandler) RecentOrders(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		h.BadRequest(c, "limit must be a number")
		return
	}
	result, err := h.analyticsService.RecentOrders(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
