package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/promotion"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDiscountRepository implements promotion.DiscountRepository using GORM
type GormDiscountRepository struct {
	db *gorm.DB
}

// NewGormDiscountRepository creates a new GormDiscountRepository
func NewGormDiscountRepository(db *gorm.DB) *GormDiscountRepository {
	return &GormDiscountRepository{db: db}
}

// FindByID finds a discount by ID
func (r *GormDiscountRepository) FindByID(ctx context.Context, id uuid.UUID) (*promotion.Discount, error) {
	var model models.DiscountModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a discount by code, ignoring case
func (r *GormDiscountRepository) FindByCode(ctx context.Context, code string) (*promotion.Discount, error) {
	var model models.DiscountModel
	if err := conn(ctx, r.db).First(&model, "code = ?", strings.ToUpper(strings.TrimSpace(code))).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists discounts matching the filter
func (r *GormDiscountRepository) FindAll(ctx context.Context, filter promotion.DiscountFilter) ([]*promotion.Discount, int64, error) {
	query := conn(ctx, r.db).Model(&models.DiscountModel{})
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(code) LIKE ? OR LOWER(description) LIKE ?", p, p)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.DiscountModel
	if err := page(query, filter.Filter, DiscountSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*promotion.Discount, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// Save inserts or updates a discount
func (r *GormDiscountRepository) Save(ctx context.Context, d *promotion.Discount) error {
	return saveVersioned(conn(ctx, r.db), models.DiscountModelFromDomain(d), &d.BaseAggregateRoot)
}

// Delete removes a discount
func (r *GormDiscountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, r.db).Delete(&models.DiscountModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByCode reports whether the code is taken
func (r *GormDiscountRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.DiscountModel{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error
	return count > 0, err
}

// SaveUsage records a redemption
func (r *GormDiscountRepository) SaveUsage(ctx context.Context, usage *promotion.DiscountUsage) error {
	return translate(conn(ctx, r.db).Create(&models.DiscountUsageModel{
		ID:         usage.ID,
		DiscountID: usage.DiscountID,
		UserID:     usage.UserID,
		OrderID:    usage.OrderID,
		Amount:     usage.Amount,
		CreatedAt:  usage.CreatedAt,
	}).Error)
}

// DeleteUsageByOrder drops the redemption made by an order
func (r *GormDiscountRepository) DeleteUsageByOrder(ctx context.Context, orderID uuid.UUID) error {
	return conn(ctx, r.db).Where("order_id = ?", orderID).Delete(&models.DiscountUsageModel{}).Error
}

// CountUsageByUser counts the user's redemptions of a discount
func (r *GormDiscountRepository) CountUsageByUser(ctx context.Context, discountID, userID uuid.UUID) (int, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.DiscountUsageModel{}).
		Where("discount_id = ? AND user_id = ?", discountID, userID).
		Count(&count).Error
	return int(count), err
}

var _ promotion.DiscountRepository = (*GormDiscountRepository)(nil)
