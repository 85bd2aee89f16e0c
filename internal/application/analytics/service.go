// Package analytics serves the admin dashboard figures.
package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/analytics"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	defaultDays      = 30
	defaultRankLimit = 10
	defaultLowLimit  = 50
	recentOrderLimit = 100
)

// ServiceConfig holds dashboard settings
type ServiceConfig struct {
	// LowStockThreshold is the stock level at or below which a product is
	// reported as running out
	LowStockThreshold int
}

// DefaultServiceConfig returns the dashboard defaults
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{LowStockThreshold: 5}
}

// Service computes the admin dashboard. Revenue only counts orders that were
// paid and not cancelled or refunded.
type Service struct {
	repo   analytics.Repository
	config ServiceConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new analytics service
func NewService(repo analytics.Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		config: DefaultServiceConfig(),
		logger: logger,
		now:    time.Now,
	}
}

// SetConfig replaces the dashboard settings
func (s *Service) SetConfig(cfg ServiceConfig) {
	s.config = cfg
}

// Overview returns the headline figures of a period
func (s *Service) Overview(ctx context.Context, q PeriodQuery) (*OverviewResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "analytics", "overview")
	defer span.End()

	p, err := s.resolve(q)
	if err != nil {
		return nil, err
	}
	revenue, paid, err := s.repo.Revenue(ctx, p, revenueStatuses())
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	total, err := s.repo.OrderCount(ctx, p)
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	byStatus, err := s.repo.OrdersByStatus(ctx, p)
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	customers, err := s.repo.NewCustomers(ctx, p)
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	products, err := s.repo.ProductCount(ctx)
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	low, err := s.repo.LowStockCount(ctx, s.config.LowStockThreshold)
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}

	return &OverviewResponse{
		Period:            toPeriodResponse(p),
		Revenue:           revenue.StringFixed(2),
		OrderCount:        total,
		PaidOrderCount:    paid,
		AverageOrderValue: analytics.AverageOrderValue(revenue, paid).StringFixed(2),
		NewCustomers:      customers,
		OrdersByStatus:    withAllStatuses(byStatus),
		ProductCount:      products,
		LowStockCount:     low,
	}, nil
}

// SalesTrend returns daily revenue and order counts, one point per day
func (s *Service) SalesTrend(ctx context.Context, q PeriodQuery) (*SalesTrendResponse, error) {
	p, err := s.resolve(q)
	if err != nil {
		return nil, err
	}
	points, err := s.repo.DailySales(ctx, p, revenueStatuses())
	if err != nil {
		return nil, err
	}

	resp := &SalesTrendResponse{Period: toPeriodResponse(p)}
	total := decimal.Zero
	for _, pt := range analytics.FillDailyGaps(p, points) {
		total = total.Add(pt.Revenue)
		resp.TotalOrders += pt.OrderCount
		resp.Points = append(resp.Points, SalesPointResponse{
			Date:       pt.Date.Format("2006-01-02"),
			Revenue:    pt.Revenue.StringFixed(2),
			OrderCount: pt.OrderCount,
		})
	}
	resp.TotalRevenue = total.StringFixed(2)
	return resp, nil
}

// TopProducts ranks products by units sold, then revenue
func (s *Service) TopProducts(ctx context.Context, q RankingQuery) ([]ProductSalesResponse, error) {
	p, err := s.resolve(q.PeriodQuery)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.TopProducts(ctx, p, revenueStatuses(), limitOr(q.Limit, defaultRankLimit))
	if err != nil {
		return nil, err
	}
	out := make([]ProductSalesResponse, len(rows))
	for i, r := range rows {
		out[i] = ProductSalesResponse{
			Rank:        i + 1,
			ProductID:   r.ProductID,
			ProductName: r.ProductName,
			SKU:         r.SKU,
			Quantity:    r.Quantity,
			Revenue:     r.Revenue.StringFixed(2),
		}
	}
	return out, nil
}

// TopCustomers ranks customers by total spend
func (s *Service) TopCustomers(ctx context.Context, q RankingQuery) ([]CustomerSalesResponse, error) {
	p, err := s.resolve(q.PeriodQuery)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.TopCustomers(ctx, p, revenueStatuses(), limitOr(q.Limit, defaultRankLimit))
	if err != nil {
		return nil, err
	}
	out := make([]CustomerSalesResponse, len(rows))
	for i, r := range rows {
		out[i] = CustomerSalesResponse{
			Rank:       i + 1,
			UserID:     r.UserID,
			Email:      r.Email,
			Name:       r.Name,
			OrderCount: r.OrderCount,
			TotalSpent: r.TotalSpent.StringFixed(2),
		}
	}
	return out, nil
}

// LowStockProducts lists products and options at or below the threshold
func (s *Service) LowStockProducts(ctx context.Context, q LowStockQuery) ([]LowStockResponse, error) {
	threshold := s.config.LowStockThreshold
	if q.Threshold != nil {
		threshold = *q.Threshold
	}
	if threshold < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Threshold cannot be negative")
	}
	items, err := s.repo.LowStock(ctx, threshold, limitOr(q.Limit, defaultLowLimit))
	if err != nil {
		return nil, err
	}
	out := make([]LowStockResponse, len(items))
	for i, it := range items {
		out[i] = LowStockResponse(it)
	}
	return out, nil
}

// RecentOrders returns the newest orders
func (s *Service) RecentOrders(ctx context.Context, limit int) ([]RecentOrderResponse, error) {
	if limit <= 0 {
		limit = defaultRankLimit
	}
	if limit > recentOrderLimit {
		limit = recentOrderLimit
	}
	rows, err := s.repo.RecentOrders(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RecentOrderResponse, len(rows))
	for i, r := range rows {
		out[i] = RecentOrderResponse{
			OrderID:   r.OrderID,
			Number:    r.Number,
			UserID:    r.UserID,
			Email:     r.Email,
			Status:    r.Status,
			Total:     r.Total.StringFixed(2),
			CreatedAt: r.CreatedAt,
		}
	}
	return out, nil
}

// resolve turns a query into a period. An explicit To date covers the whole
// day.
func (s *Service) resolve(q PeriodQuery) (analytics.Period, error) {
	if q.From == "" && q.To == "" {
		days := q.Days
		if days <= 0 {
			days = defaultDays
		}
		return analytics.LastDays(s.now(), days), nil
	}

	to := analytics.LastDays(s.now(), 1).To
	if q.To != "" {
		t, err := time.Parse("2006-01-02", q.To)
		if err != nil {
			return analytics.Period{}, shared.NewDomainError("INVALID_PERIOD", "Invalid end date")
		}
		to = t.AddDate(0, 0, 1)
	}
	from := to.AddDate(0, 0, -defaultDays)
	if q.From != "" {
		t, err := time.Parse("2006-01-02", q.From)
		if err != nil {
			return analytics.Period{}, shared.NewDomainError("INVALID_PERIOD", "Invalid start date")
		}
		from = t
	}
	return analytics.NewPeriod(from, to)
}

func revenueStatuses() []string {
	statuses := order.RevenueStatuses()
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}

// withAllStatuses reports zero for statuses without orders so the dashboard
// always gets the same keys
func withAllStatuses(counts map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(order.AllStatuses()))
	for _, st := range order.AllStatuses() {
		out[string(st)] = 0
	}
	for k, v := range counts {
		out[k] = v
	}
	return out
}

func limitOr(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
