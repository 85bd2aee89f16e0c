package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM.
// Variations, options and images are loaded with Preload and rewritten as a
// whole on Save.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Variations", func(q *gorm.DB) *gorm.DB { return q.Order("sort_order") }).
		Preload("Variations.Options", func(q *gorm.DB) *gorm.DB { return q.Order("sort_order") }).
		Preload("Images", func(q *gorm.DB) *gorm.DB { return q.Order("sort_order") })
}

func (r *GormProductRepository) findOne(ctx context.Context, query string, args ...any) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.preload(conn(ctx, r.db)).Where(query, args...).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByID finds a product by ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindBySlug finds a product by slug
func (r *GormProductRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	return r.findOne(ctx, "slug = ?", strings.ToLower(slug))
}

// FindBySKU finds a product by SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	return r.findOne(ctx, "sku = ?", strings.ToUpper(strings.TrimSpace(sku)))
}

// FindByIDs loads the products that exist among ids
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.Product, error) {
	if len(ids) == 0 {
		return []*catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.preload(conn(ctx, r.db)).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

func (r *GormProductRepository) applyFilter(db *gorm.DB, filter catalog.ProductFilter) *gorm.DB {
	query := db.Model(&models.ProductModel{})
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(description) LIKE ?", p, p, p)
	}
	if len(filter.CategoryIDs) > 0 {
		query = query.Where("category_id IN ?", filter.CategoryIDs)
	}
	if filter.BrandID != nil {
		query = query.Where("brand_id = ?", *filter.BrandID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.InStock != nil {
		withStockedOption := db.Model(&models.OptionModel{}).Select("product_id").Where("stock > 0")
		if *filter.InStock {
			query = query.Where("stock > 0 OR id IN (?)", withStockedOption)
		} else {
			query = query.Where("stock <= 0 AND id NOT IN (?)", withStockedOption)
		}
	}
	return query
}

// FindAll lists products matching the filter with their total count
func (r *GormProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]*catalog.Product, int64, error) {
	db := conn(ctx, r.db)
	var total int64
	if err := r.applyFilter(db, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	query := page(r.applyFilter(db, filter), filter.Filter, ProductSortFields, "created_at")
	if err := r.preload(query).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toProducts(rows), total, nil
}

// FindLowStock returns active products whose stock, or the stock of any of
// their options, is at or below threshold
func (r *GormProductRepository) FindLowStock(ctx context.Context, threshold int, limit int) ([]*catalog.Product, error) {
	db := conn(ctx, r.db)
	hasOptions := db.Model(&models.OptionModel{}).Select("product_id")
	lowOptions := db.Model(&models.OptionModel{}).Select("product_id").Where("stock <= ?", threshold)

	var rows []models.ProductModel
	err := r.preload(db).
		Where("status = ?", catalog.ProductStatusActive).
		Where("(stock <= ? AND id NOT IN (?)) OR id IN (?)", threshold, hasOptions, lowOptions).
		Order("stock ASC, name ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// Save writes the product row with optimistic locking and replaces its
// variations, options and images
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model, &product.BaseAggregateRoot); err != nil {
			return err
		}

		options := make([]models.OptionModel, 0)
		for _, v := range model.Variations {
			options = append(options, v.Options...)
		}
		if err := replaceChildren(tx, "product_id", product.ID, options); err != nil {
			return err
		}
		if err := replaceChildren(tx, "product_id", product.ID, model.Variations); err != nil {
			return err
		}
		return replaceChildren(tx, "product_id", product.ID, model.Images)
	})
}

// Delete removes a product and its children
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		for _, child := range []any{&models.OptionModel{}, &models.VariationModel{}, &models.ProductImageModel{}} {
			if err := tx.Where("product_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.ProductModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ExistsBySKU reports whether the SKU is taken
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.ProductModel{}).
		Where("sku = ?", strings.ToUpper(strings.TrimSpace(sku))).
		Count(&count).Error
	return count > 0, err
}

// ExistsBySlug reports whether another product uses the slug
func (r *GormProductRepository) ExistsBySlug(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	query := conn(ctx, r.db).Model(&models.ProductModel{}).Where("slug = ?", strings.ToLower(slug))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// CountByCategory counts products assigned to the category
func (r *GormProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.ProductModel{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

// CountByBrand counts products of the brand
func (r *GormProductRepository) CountByBrand(ctx context.Context, brandID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.ProductModel{}).Where("brand_id = ?", brandID).Count(&count).Error
	return count, err
}

// Count counts all products
func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.ProductModel{}).Count(&count).Error
	return count, err
}

func toProducts(rows []models.ProductModel) []*catalog.Product {
	out := make([]*catalog.Product, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
