package persistence

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/analytics"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAnalyticsRepository implements analytics.Repository with aggregate
// queries over orders, users and products
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewGormAnalyticsRepository creates a new GormAnalyticsRepository
func NewGormAnalyticsRepository(db *gorm.DB) *GormAnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

func (r *GormAnalyticsRepository) orders(ctx context.Context, p analytics.Period) *gorm.DB {
	return conn(ctx, r.db).Model(&models.OrderModel{}).
		Where("orders.created_at >= ? AND orders.created_at < ?", p.From, p.To)
}

// Revenue sums order totals in the given statuses
func (r *GormAnalyticsRepository) Revenue(ctx context.Context, p analytics.Period, statuses []string) (decimal.Decimal, int64, error) {
	var row struct {
		Revenue decimal.Decimal
		Orders  int64
	}
	err := r.orders(ctx, p).
		Select("COALESCE(SUM(total), 0) AS revenue, COUNT(*) AS orders").
		Where("status IN ?", statuses).
		Scan(&row).Error
	return row.Revenue, row.Orders, err
}

// OrderCount counts every order placed in the period
func (r *GormAnalyticsRepository) OrderCount(ctx context.Context, p analytics.Period) (int64, error) {
	var count int64
	err := r.orders(ctx, p).Count(&count).Error
	return count, err
}

// OrdersByStatus counts orders placed in the period per status
func (r *GormAnalyticsRepository) OrdersByStatus(ctx context.Context, p analytics.Period) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := r.orders(ctx, p).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// NewCustomers counts customer accounts registered in the period
func (r *GormAnalyticsRepository) NewCustomers(ctx context.Context, p analytics.Period) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.UserModel{}).
		Where("is_admin = ? AND created_at >= ? AND created_at < ?", false, p.From, p.To).
		Count(&count).Error
	return count, err
}

// ProductCount counts products that are not discontinued
func (r *GormAnalyticsRepository) ProductCount(ctx context.Context) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.ProductModel{}).
		Where("status <> ?", catalog.ProductStatusDiscontinued).
		Count(&count).Error
	return count, err
}

// LowStockCount counts sellable units (simple products and options) at or
// below threshold
func (r *GormAnalyticsRepository) LowStockCount(ctx context.Context, threshold int) (int64, error) {
	var products, options int64
	if err := r.lowSimpleProducts(ctx, threshold).Count(&products).Error; err != nil {
		return 0, err
	}
	if err := r.lowOptions(ctx, threshold).Count(&options).Error; err != nil {
		return 0, err
	}
	return products + options, nil
}

func (r *GormAnalyticsRepository) lowSimpleProducts(ctx context.Context, threshold int) *gorm.DB {
	db := conn(ctx, r.db)
	return db.Model(&models.ProductModel{}).
		Where("status = ? AND stock <= ?", catalog.ProductStatusActive, threshold).
		Where("id NOT IN (?)", db.Model(&models.OptionModel{}).Select("product_id"))
}

func (r *GormAnalyticsRepository) lowOptions(ctx context.Context, threshold int) *gorm.DB {
	return conn(ctx, r.db).Model(&models.OptionModel{}).
		Joins("JOIN products ON products.id = product_options.product_id").
		Where("products.status = ? AND product_options.stock <= ?", catalog.ProductStatusActive, threshold)
}

// DailySales groups revenue by UTC calendar day
func (r *GormAnalyticsRepository) DailySales(ctx context.Context, p analytics.Period, statuses []string) ([]analytics.SalesPoint, error) {
	day := r.dayExpr()
	var rows []struct {
		Day     string
		Revenue decimal.Decimal
		Orders  int64
	}
	err := r.orders(ctx, p).
		Select(day+" AS day, COALESCE(SUM(total), 0) AS revenue, COUNT(*) AS orders").
		Where("status IN ?", statuses).
		Group(day).
		Order("day").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	points := make([]analytics.SalesPoint, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse("2006-01-02", strings.TrimSpace(row.Day))
		if err != nil {
			continue
		}
		points = append(points, analytics.SalesPoint{Date: date, Revenue: row.Revenue, OrderCount: row.Orders})
	}
	return points, nil
}

// dayExpr formats orders.created_at as YYYY-MM-DD for the active dialect
func (r *GormAnalyticsRepository) dayExpr() string {
	switch r.db.Dialector.Name() {
	case "mysql":
		return "DATE_FORMAT(orders.created_at, '%Y-%m-%d')"
	case "sqlite":
		return "strftime('%Y-%m-%d', orders.created_at)"
	default:
		return "TO_CHAR(orders.created_at, 'YYYY-MM-DD')"
	}
}

// TopProducts ranks products by units sold
func (r *GormAnalyticsRepository) TopProducts(ctx context.Context, p analytics.Period, statuses []string, limit int) ([]analytics.ProductSales, error) {
	var rows []struct {
		ProductID   uuid.UUID
		ProductName string
		SKU         string
		Quantity    int64
		Revenue     decimal.Decimal
	}
	err := conn(ctx, r.db).Model(&models.OrderItemModel{}).
		Select("order_items.product_id AS product_id, MAX(order_items.product_name) AS product_name, "+
			"MAX(order_items.sku) AS sku, SUM(order_items.quantity) AS quantity, "+
			"COALESCE(SUM(order_items.line_total), 0) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.created_at >= ? AND orders.created_at < ?", p.From, p.To).
		Where("orders.status IN ?", statuses).
		Group("order_items.product_id").
		Order("quantity DESC, revenue DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]analytics.ProductSales, len(rows))
	for i, row := range rows {
		out[i] = analytics.ProductSales(row)
	}
	return out, nil
}

// TopCustomers ranks customers by spend
func (r *GormAnalyticsRepository) TopCustomers(ctx context.Context, p analytics.Period, statuses []string, limit int) ([]analytics.CustomerSales, error) {
	var rows []struct {
		UserID     uuid.UUID
		Email      string
		FirstName  string
		LastName   string
		OrderCount int64
		TotalSpent decimal.Decimal
	}
	err := r.orders(ctx, p).
		Select("orders.user_id AS user_id, users.email AS email, users.first_name AS first_name, "+
			"users.last_name AS last_name, COUNT(*) AS order_count, COALESCE(SUM(orders.total), 0) AS total_spent").
		Joins("JOIN users ON users.id = orders.user_id").
		Where("orders.status IN ?", statuses).
		Group("orders.user_id, users.email, users.first_name, users.last_name").
		Order("total_spent DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]analytics.CustomerSales, len(rows))
	for i, row := range rows {
		out[i] = analytics.CustomerSales{
			UserID:     row.UserID,
			Email:      row.Email,
			Name:       strings.TrimSpace(row.FirstName + " " + row.LastName),
			OrderCount: row.OrderCount,
			TotalSpent: row.TotalSpent,
		}
	}
	return out, nil
}

// LowStock lists simple products and options at or below threshold, lowest
// stock first
func (r *GormAnalyticsRepository) LowStock(ctx context.Context, threshold, limit int) ([]analytics.LowStockItem, error) {
	var simple []struct {
		ID    uuid.UUID
		SKU   string
		Name  string
		Stock int
	}
	if err := r.lowSimpleProducts(ctx, threshold).
		Select("id, sku, name, stock").
		Order("stock ASC").Limit(limit).
		Scan(&simple).Error; err != nil {
		return nil, err
	}

	var opts []struct {
		ProductID uuid.UUID
		SKU       string
		SKUSuffix string
		Name      string
		Value     string
		Stock     int
	}
	if err := r.lowOptions(ctx, threshold).
		Select("products.id AS product_id, products.sku AS sku, product_options.sku_suffix AS sku_suffix, " +
			"products.name AS name, product_options.value AS value, product_options.stock AS stock").
		Order("product_options.stock ASC").Limit(limit).
		Scan(&opts).Error; err != nil {
		return nil, err
	}

	items := make([]analytics.LowStockItem, 0, len(simple)+len(opts))
	for _, s := range simple {
		items = append(items, analytics.LowStockItem{ProductID: s.ID, SKU: s.SKU, Name: s.Name, Stock: s.Stock})
	}
	for _, o := range opts {
		sku := o.SKU
		if o.SKUSuffix != "" {
			sku += "-" + o.SKUSuffix
		}
		items = append(items, analytics.LowStockItem{
			ProductID: o.ProductID,
			SKU:       sku,
			Name:      o.Name + " / " + o.Value,
			Stock:     o.Stock,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Stock < items[j].Stock })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// RecentOrders returns the newest orders with the buyer's email
func (r *GormAnalyticsRepository) RecentOrders(ctx context.Context, limit int) ([]analytics.RecentOrder, error) {
	var rows []struct {
		OrderID   uuid.UUID
		Number    string
		UserID    uuid.UUID
		Email     string
		Status    string
		Total     decimal.Decimal
		CreatedAt time.Time
	}
	err := conn(ctx, r.db).Model(&models.OrderModel{}).
		Select("orders.id AS order_id, orders.number AS number, orders.user_id AS user_id, " +
			"users.email AS email, orders.status AS status, orders.total AS total, orders.created_at AS created_at").
		Joins("LEFT JOIN users ON users.id = orders.user_id").
		Order("orders.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]analytics.RecentOrder, len(rows))
	for i, row := range rows {
		out[i] = analytics.RecentOrder(row)
	}
	return out, nil
}

var _ analytics.Repository = (*GormAnalyticsRepository)(nil)
