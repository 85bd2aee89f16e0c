package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/analytics"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRepository is a mock implementation of analytics.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Revenue(ctx context.Context, p analytics.Period, statuses []string) (decimal.Decimal, int64, error) {
	args := m.Called(ctx, p, statuses)
	return args.Get(0).(decimal.Decimal), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) OrderCount(ctx context.Context, p analytics.Period) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) OrdersByStatus(ctx context.Context, p analytics.Period) (map[string]int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockRepository) NewCustomers(ctx context.Context, p analytics.Period) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) ProductCount(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) LowStockCount(ctx context.Context, threshold int) (int64, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) DailySales(ctx context.Context, p analytics.Period, statuses []string) ([]analytics.SalesPoint, error) {
	args := m.Called(ctx, p, statuses)
	return args.Get(0).([]analytics.SalesPoint), args.Error(1)
}

func (m *MockRepository) TopProducts(ctx context.Context, p analytics.Period, statuses []string, limit int) ([]analytics.ProductSales, error) {
	args := m.Called(ctx, p, statuses, limit)
	return args.Get(0).([]analytics.ProductSales), args.Error(1)
}

func (m *MockRepository) TopCustomers(ctx context.Context, p analytics.Period, statuses []string, limit int) ([]analytics.CustomerSales, error) {
	args := m.Called(ctx, p, statuses, limit)
	return args.Get(0).([]analytics.CustomerSales), args.Error(1)
}

func (m *MockRepository) LowStock(ctx context.Context, threshold, limit int) ([]analytics.LowStockItem, error) {
	args := m.Called(ctx, threshold, limit)
	return args.Get(0).([]analytics.LowStockItem), args.Error(1)
}

func (m *MockRepository) RecentOrders(ctx context.Context, limit int) ([]analytics.RecentOrder, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]analytics.RecentOrder), args.Error(1)
}

var fixedNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestService(repo *MockRepository) *Service {
	svc := NewService(repo, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestService_Overview(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	ctx := context.Background()
	period := analytics.Period{
		From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	}
	paidStatuses := []string{"paid", "processing", "shipped", "delivered"}

	repo.On("Revenue", mock.Anything, period, paidStatuses).Return(decimal.NewFromInt(300), int64(4), nil)
	repo.On("OrderCount", mock.Anything, period).Return(int64(6), nil)
	repo.On("OrdersByStatus", mock.Anything, period).Return(map[string]int64{"paid": 4, "cancelled": 2}, nil)
	repo.On("NewCustomers", mock.Anything, period).Return(int64(3), nil)
	repo.On("ProductCount", mock.Anything).Return(int64(42), nil)
	repo.On("LowStockCount", mock.Anything, 5).Return(int64(2), nil)

	got, err := svc.Overview(ctx, PeriodQuery{From: "2026-03-01", To: "2026-03-10"})
	require.NoError(t, err)
	assert.Equal(t, "300.00", got.Revenue)
	assert.Equal(t, "75.00", got.AverageOrderValue)
	assert.Equal(t, int64(6), got.OrderCount)
	assert.Equal(t, int64(4), got.PaidOrderCount)
	assert.Equal(t, int64(2), got.OrdersByStatus["cancelled"])
	assert.Contains(t, got.OrdersByStatus, "refunded")
	assert.Zero(t, got.OrdersByStatus["refunded"])
	assert.Equal(t, int64(2), got.LowStockCount)
	repo.AssertExpectations(t)
}

func TestService_OverviewPropagatesErrors(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	boom := errors.New("db down")
	repo.On("Revenue", mock.Anything, mock.Anything, mock.Anything).Return(decimal.Zero, int64(0), boom)

	_, err := svc.Overview(context.Background(), PeriodQuery{})
	assert.ErrorIs(t, err, boom)
}

func TestService_SalesTrendFillsEveryDay(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	repo.On("DailySales", mock.Anything, mock.Anything, mock.Anything).Return([]analytics.SalesPoint{
		{Date: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), Revenue: decimal.RequireFromString("19.90"), OrderCount: 1},
		{Date: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), Revenue: decimal.NewFromInt(80), OrderCount: 3},
	}, nil)

	got, err := svc.SalesTrend(context.Background(), PeriodQuery{Days: 7})
	require.NoError(t, err)
	require.Len(t, got.Points, 7)
	assert.Equal(t, "2026-03-09", got.Points[0].Date)
	assert.Equal(t, "0.00", got.Points[0].Revenue)
	assert.Equal(t, "2026-03-15", got.Points[6].Date)
	assert.Equal(t, "80.00", got.Points[6].Revenue)
	assert.Equal(t, "99.90", got.TotalRevenue)
	assert.Equal(t, int64(4), got.TotalOrders)
}

func TestService_InvalidPeriod(t *testing.T) {
	svc := newTestService(new(MockRepository))
	ctx := context.Background()

	_, err := svc.SalesTrend(ctx, PeriodQuery{From: "2026-03-10", To: "2026-03-01"})
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "INVALID_PERIOD", de.Code)

	_, err = svc.SalesTrend(ctx, PeriodQuery{From: "2024-01-01", To: "2026-03-01"})
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "INVALID_PERIOD", de.Code)

	_, err = svc.TopProducts(ctx, RankingQuery{PeriodQuery: PeriodQuery{From: "yesterday"}})
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "INVALID_PERIOD", de.Code)
}

func TestService_Rankings(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	ctx := context.Background()
	productID, userID := uuid.New(), uuid.New()

	repo.On("TopProducts", mock.Anything, mock.Anything, mock.Anything, 10).Return([]analytics.ProductSales{
		{ProductID: productID, ProductName: "Mug", SKU: "MUG", Quantity: 12, Revenue: decimal.NewFromInt(120)},
	}, nil)
	repo.On("TopCustomers", mock.Anything, mock.Anything, mock.Anything, 3).Return([]analytics.CustomerSales{
		{UserID: userID, Email: "ada@example.com", Name: "Ada L", OrderCount: 2, TotalSpent: decimal.RequireFromString("55.5")},
	}, nil)

	products, err := svc.TopProducts(ctx, RankingQuery{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 1, products[0].Rank)
	assert.Equal(t, "120.00", products[0].Revenue)

	customers, err := svc.TopCustomers(ctx, RankingQuery{Limit: 3})
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "55.50", customers[0].TotalSpent)
	repo.AssertExpectations(t)
}

func TestService_LowStockAndRecentOrders(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)
	svc.SetConfig(ServiceConfig{LowStockThreshold: 3})
	ctx := context.Background()

	repo.On("LowStock", mock.Anything, 3, 50).Return([]analytics.LowStockItem{{SKU: "A", Name: "A", Stock: 1}}, nil).Once()
	repo.On("LowStock", mock.Anything, 0, 5).Return([]analytics.LowStockItem{}, nil).Once()
	repo.On("RecentOrders", mock.Anything, 100).Return([]analytics.RecentOrder{
		{Number: "ORD-1", Status: "paid", Total: decimal.NewFromInt(10)},
	}, nil)

	items, err := svc.LowStockProducts(ctx, LowStockQuery{})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	zero := 0
	items, err = svc.LowStockProducts(ctx, LowStockQuery{Threshold: &zero, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, items)

	orders, err := svc.RecentOrders(ctx, 500)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "10.00", orders[0].Total)
	repo.AssertExpectations(t)
}
