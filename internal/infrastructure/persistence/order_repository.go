package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// orderNumberAttempts bounds the retries for a collision-free order number
const orderNumberAttempts = 5

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items")
}

// FindByID finds an order by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.withItems(conn(ctx, r.db)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByNumber finds an order by its public number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	var model models.OrderModel
	err := r.withItems(conn(ctx, r.db)).
		First(&model, "number = ?", strings.ToUpper(strings.TrimSpace(number))).Error
	if err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter order.Filter) ([]*order.Order, int64, error) {
	db := conn(ctx, r.db)
	query := db.Model(&models.OrderModel{})
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(number) LIKE ? OR LOWER(ship_recipient_name) LIKE ?", p, p)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.OrderModel
	if err := r.withItems(page(query, filter.Filter, OrderSortFields, "created_at")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toOrders(rows), total, nil
}

// FindStale returns orders that have not changed since before the cutoff
// while in status, oldest first
func (r *GormOrderRepository) FindStale(ctx context.Context, status order.Status, before time.Time, limit int) ([]*order.Order, error) {
	var rows []models.OrderModel
	err := r.withItems(conn(ctx, r.db)).
		Where("status = ? AND updated_at < ?", status, before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toOrders(rows), nil
}

// Save writes the order with optimistic locking and replaces its items
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	model := models.OrderModelFromDomain(o)
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model, &o.BaseAggregateRoot); err != nil {
			return err
		}
		return replaceChildren(tx, "order_id", o.ID, model.Items)
	})
}

// ExistsByNumber reports whether the order number is taken
func (r *GormOrderRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.OrderModel{}).Where("number = ?", number).Count(&count).Error
	return count > 0, err
}

// HasDeliveredProduct reports whether the user received the product in a
// delivered order
func (r *GormOrderRepository) HasDeliveredProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	db := conn(ctx, r.db)
	var count int64
	err := db.Model(&models.OrderItemModel{}).
		Where("product_id = ?", productID).
		Where("order_id IN (?)", db.Model(&models.OrderModel{}).
			Select("id").
			Where("user_id = ? AND status = ?", userID, order.StatusDelivered)).
		Count(&count).Error
	return count > 0, err
}

// GenerateOrderNumber draws random numbers until one is unused
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	for i := 0; i < orderNumberAttempts; i++ {
		number, err := order.NewNumber(time.Now())
		if err != nil {
			return "", err
		}
		exists, err := r.ExistsByNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("no free order number after %d attempts", orderNumberAttempts)
}

func toOrders(rows []models.OrderModel) []*order.Order {
	out := make([]*order.Order, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ order.Repository = (*GormOrderRepository)(nil)
