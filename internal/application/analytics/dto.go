package analytics

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/analytics"
)

// PeriodQuery selects a reporting window. Dates are YYYY-MM-DD; To is
// inclusive. Without dates the last Days days (default 30) are used.
type PeriodQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Days int    `form:"days" binding:"omitempty,min=1,max=366"`
}

// RankingQuery selects a window and how many rows to return
type RankingQuery struct {
	PeriodQuery
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// LowStockQuery filters the low stock report
type LowStockQuery struct {
	Threshold *int `form:"threshold" binding:"omitempty,min=0"`
	Limit     int  `form:"limit" binding:"omitempty,min=1,max=200"`
}

// PeriodResponse echoes the resolved window
type PeriodResponse struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func toPeriodResponse(p analytics.Period) PeriodResponse {
	return PeriodResponse{From: p.From, To: p.To}
}

// OverviewResponse is the dashboard headline
type OverviewResponse struct {
	Period            PeriodResponse   `json:"period"`
	Revenue           string           `json:"revenue"`
	OrderCount        int64            `json:"order_count"`
	PaidOrderCount    int64            `json:"paid_order_count"`
	AverageOrderValue string           `json:"average_order_value"`
	NewCustomers      int64            `json:"new_customers"`
	OrdersByStatus    map[string]int64 `json:"orders_by_status"`
	ProductCount      int64            `json:"product_count"`
	LowStockCount     int64            `json:"low_stock_count"`
}

// SalesPointResponse is one day of the trend
type SalesPointResponse struct {
	Date       string `json:"date"`
	Revenue    string `json:"revenue"`
	OrderCount int64  `json:"order_count"`
}

// SalesTrendResponse is the daily sales series
type SalesTrendResponse struct {
	Period       PeriodResponse       `json:"period"`
	Points       []SalesPointResponse `json:"points"`
	TotalRevenue string               `json:"total_revenue"`
	TotalOrders  int64                `json:"total_orders"`
}

// ProductSalesResponse is one row of the product ranking
type ProductSalesResponse struct {
	Rank        int       `json:"rank"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	SKU         string    `json:"sku"`
	Quantity    int64     `json:"quantity"`
	Revenue     string    `json:"revenue"`
}

// CustomerSalesResponse is one row of the customer ranking
type CustomerSalesResponse struct {
	Rank       int       `json:"rank"`
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	OrderCount int64     `json:"order_count"`
	TotalSpent string    `json:"total_spent"`
}

// LowStockResponse is a product or option running out
type LowStockResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
}

// RecentOrderResponse is a compact order row
type RecentOrderResponse struct {
	OrderID   uuid.UUID `json:"order_id"`
	Number    string    `json:"number"`
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	Total     string    `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}
