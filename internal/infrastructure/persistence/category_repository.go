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

// GormCategoryRepository implements catalog.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	var model models.CategoryModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a category by slug
func (r *GormCategoryRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	var model models.CategoryModel
	if err := conn(ctx, r.db).First(&model, "slug = ?", strings.ToLower(slug)).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// applyFilter supports Search plus the "status" and "parent_id" filter keys.
// parent_id "root" selects top-level categories.
func (r *GormCategoryRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(slug) LIKE ?", p, p)
	}
	if status, ok := filter.Filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	switch parent := filter.Filters["parent_id"].(type) {
	case string:
		if parent == "root" {
			query = query.Where("parent_id IS NULL")
		}
	case uuid.UUID:
		query = query.Where("parent_id = ?", parent)
	}
	return query
}

// FindAll lists categories matching the filter
func (r *GormCategoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*catalog.Category, error) {
	query := r.applyFilter(conn(ctx, r.db).Model(&models.CategoryModel{}), filter)
	var rows []models.CategoryModel
	if err := page(query, filter, CategorySortFields, "path").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCategories(rows), nil
}

// Count counts categories matching the filter
func (r *GormCategoryRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(conn(ctx, r.db).Model(&models.CategoryModel{}), filter).Count(&count).Error
	return count, err
}

// FindAllActive returns every active category for tree building
func (r *GormCategoryRepository) FindAllActive(ctx context.Context) ([]*catalog.Category, error) {
	var rows []models.CategoryModel
	if err := conn(ctx, r.db).
		Where("status = ?", catalog.CategoryStatusActive).
		Order("level, sort_order, name").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCategories(rows), nil
}

// FindChildren returns the direct children of a category
func (r *GormCategoryRepository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]*catalog.Category, error) {
	var rows []models.CategoryModel
	if err := conn(ctx, r.db).
		Where("parent_id = ?", parentID).
		Order("sort_order, name").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCategories(rows), nil
}

// FindDescendants returns every category below the given one
func (r *GormCategoryRepository) FindDescendants(ctx context.Context, category *catalog.Category) ([]*catalog.Category, error) {
	var rows []models.CategoryModel
	if err := conn(ctx, r.db).
		Where("path LIKE ?", category.Path+"/%").
		Order("level, sort_order").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toCategories(rows), nil
}

// Save inserts or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return saveVersioned(conn(ctx, r.db), models.CategoryModelFromDomain(category), &category.BaseAggregateRoot)
}

// ReplacePathPrefix re-roots every descendant of a moved category. The rewrite
// happens row by row so it works the same on every supported dialect.
func (r *GormCategoryRepository) ReplacePathPrefix(ctx context.Context, oldPrefix, newPrefix string, levelDelta int) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		var rows []models.CategoryModel
		if err := tx.Where("path LIKE ?", oldPrefix+"/%").Find(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			if err := tx.Model(&models.CategoryModel{}).
				Where("id = ?", row.ID).
				Updates(map[string]any{
					"path":  newPrefix + strings.TrimPrefix(row.Path, oldPrefix),
					"level": row.Level + levelDelta,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a category
func (r *GormCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, r.db).Delete(&models.CategoryModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// HasChildren reports whether the category has sub-categories
func (r *GormCategoryRepository) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.CategoryModel{}).Where("parent_id = ?", id).Count(&count).Error
	return count > 0, err
}

// ExistsBySlug reports whether another category uses the slug
func (r *GormCategoryRepository) ExistsBySlug(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	query := conn(ctx, r.db).Model(&models.CategoryModel{}).Where("slug = ?", strings.ToLower(slug))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func toCategories(rows []models.CategoryModel) []*catalog.Category {
	out := make([]*catalog.Category, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)

// GormBrandRepository implements catalog.BrandRepository using GORM
type GormBrandRepository struct {
	db *gorm.DB
}

// NewGormBrandRepository creates a new GormBrandRepository
func NewGormBrandRepository(db *gorm.DB) *GormBrandRepository {
	return &GormBrandRepository{db: db}
}

// FindByID finds a brand by ID
func (r *GormBrandRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Brand, error) {
	var model models.BrandModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a brand by slug
func (r *GormBrandRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Brand, error) {
	var model models.BrandModel
	if err := conn(ctx, r.db).First(&model, "slug = ?", strings.ToLower(slug)).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

func (r *GormBrandRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
	}
	if status, ok := filter.Filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	return query
}

// FindAll lists brands matching the filter
func (r *GormBrandRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*catalog.Brand, error) {
	query := r.applyFilter(conn(ctx, r.db).Model(&models.BrandModel{}), filter)
	var rows []models.BrandModel
	if err := page(query, filter, BrandSortFields, "name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*catalog.Brand, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Count counts brands matching the filter
func (r *GormBrandRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(conn(ctx, r.db).Model(&models.BrandModel{}), filter).Count(&count).Error
	return count, err
}

// Save inserts or updates a brand
func (r *GormBrandRepository) Save(ctx context.Context, brand *catalog.Brand) error {
	return saveVersioned(conn(ctx, r.db), models.BrandModelFromDomain(brand), &brand.BaseAggregateRoot)
}

// Delete removes a brand
func (r *GormBrandRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, r.db).Delete(&models.BrandModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByName reports whether another brand uses the name, ignoring case
func (r *GormBrandRepository) ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	query := conn(ctx, r.db).Model(&models.BrandModel{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

var _ catalog.BrandRepository = (*GormBrandRepository)(nil)
