package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductFilter narrows product listings. Zero values mean "no constraint".
type ProductFilter struct {
	shared.Filter
	CategoryIDs []uuid.UUID
	BrandID     *uuid.UUID
	Status      *ProductStatus
	Featured    *bool
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	InStock     *bool
}

// ProductRepository defines the interface for product persistence.
// Save and FindBy* operate on the whole aggregate (variations, options, images).
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]*Product, int64, error)
	FindLowStock(ctx context.Context, threshold int, limit int) ([]*Product, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	ExistsBySlug(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	CountByBrand(ctx context.Context, brandID uuid.UUID) (int64, error)
	Count(ctx context.Context) (int64, error)
}
