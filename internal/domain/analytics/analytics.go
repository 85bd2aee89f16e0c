// Package analytics holds the read models behind the admin dashboard.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// MaxRange is the widest reporting window accepted
const MaxRange = 366 * 24 * time.Hour

// Period is a half-open reporting window [From, To)
type Period struct {
	From time.Time
	To   time.Time
}

// NewPeriod validates a reporting window
func NewPeriod(from, to time.Time) (Period, error) {
	if !to.After(from) {
		return Period{}, shared.NewDomainError("INVALID_PERIOD", "End date must be after start date")
	}
	if to.Sub(from) > MaxRange {
		return Period{}, shared.NewDomainError("INVALID_PERIOD", "Reporting period cannot exceed one year")
	}
	return Period{From: from, To: to}, nil
}

// LastDays returns the window covering the last n days up to now
func LastDays(now time.Time, n int) Period {
	end := now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	return Period{From: end.AddDate(0, 0, -n), To: end}
}

// Overview is the dashboard headline figures
type Overview struct {
	Period            Period
	Revenue           decimal.Decimal
	OrderCount        int64
	PaidOrderCount    int64
	AverageOrderValue decimal.Decimal
	NewCustomers      int64
	OrdersByStatus    map[string]int64
	ProductCount      int64
	LowStockCount     int64
}

// SalesPoint is one day of the sales trend
type SalesPoint struct {
	Date       time.Time
	Revenue    decimal.Decimal
	OrderCount int64
}

// ProductSales ranks a product by units and revenue
type ProductSales struct {
	ProductID   uuid.UUID
	ProductName string
	SKU         string
	Quantity    int64
	Revenue     decimal.Decimal
}

// CustomerSales ranks a customer by spend
type CustomerSales struct {
	UserID     uuid.UUID
	Email      string
	Name       string
	OrderCount int64
	TotalSpent decimal.Decimal
}

// LowStockItem is a product running out of stock
type LowStockItem struct {
	ProductID uuid.UUID
	SKU       string
	Name      string
	Stock     int
}

// RecentOrder is a compact order row for the dashboard
type RecentOrder struct {
	OrderID   uuid.UUID
	Number    string
	UserID    uuid.UUID
	Email     string
	Status    string
	Total     decimal.Decimal
	CreatedAt time.Time
}

// Repository runs the dashboard aggregate queries
type Repository interface {
	Revenue(ctx context.Context, p Period, statuses []string) (decimal.Decimal, int64, error)
	OrderCount(ctx context.Context, p Period) (int64, error)
	OrdersByStatus(ctx context.Context, p Period) (map[string]int64, error)
	NewCustomers(ctx context.Context, p Period) (int64, error)
	ProductCount(ctx context.Context) (int64, error)
	LowStockCount(ctx context.Context, threshold int) (int64, error)
	DailySales(ctx context.Context, p Period, statuses []string) ([]SalesPoint, error)
	TopProducts(ctx context.Context, p Period, statuses []string, limit int) ([]ProductSales, error)
	TopCustomers(ctx context.Context, p Period, statuses []string, limit int) ([]CustomerSales, error)
	LowStock(ctx context.Context, threshold, limit int) ([]LowStockItem, error)
	RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error)
}

// FillDailyGaps returns one point per day of the period, using zero values for
// days without sales
func FillDailyGaps(p Period, points []SalesPoint) []SalesPoint {
	byDay := make(map[string]SalesPoint, len(points))
	for _, pt := range points {
		byDay[pt.Date.UTC().Format("2006-01-02")] = pt
	}
	var out []SalesPoint
	for day := p.From.UTC().Truncate(24 * time.Hour); day.Before(p.To); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		if pt, ok := byDay[key]; ok {
			pt.Date = day
			out = append(out, pt)
			continue
		}
		out = append(out, SalesPoint{Date: day, Revenue: decimal.Zero})
	}
	return out
}

// AverageOrderValue divides revenue by order count, zero when there are none
func AverageOrderValue(revenue decimal.Decimal, orders int64) decimal.Decimal {
	if orders == 0 {
		return decimal.Zero
	}
	return revenue.Div(decimal.NewFromInt(orders)).Round(2)
}
