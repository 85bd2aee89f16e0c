package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// BrandService handles brand management
type BrandService struct {
	brandRepo   catalog.BrandRepository
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewBrandService creates a new BrandService
func NewBrandService(brandRepo catalog.BrandRepository, productRepo catalog.ProductRepository, logger *zap.Logger) *BrandService {
	return &BrandService{brandRepo: brandRepo, productRepo: productRepo, logger: logger}
}

// Create creates a new brand
func (s *BrandService) Create(ctx context.Context, req CreateBrandRequest) (*BrandResponse, error) {
	brand, err := catalog.NewBrand(req.Name, req.Slug)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, brand.Name, nil); err != nil {
		return nil, err
	}
	if req.LogoURL != "" || req.Description != "" {
		if err := brand.Update(brand.Name, brand.Slug, req.LogoURL, req.Description); err != nil {
			return nil, err
		}
	}
	if err := s.brandRepo.Save(ctx, brand); err != nil {
		return nil, err
	}
	s.logger.Info("Brand created", zap.String("brand_id", brand.ID.String()), zap.String("name", brand.Name))
	resp := ToBrandResponse(brand)
	return &resp, nil
}

// GetByID retrieves a brand by ID
func (s *BrandService) GetByID(ctx context.Context, id uuid.UUID) (*BrandResponse, error) {
	brand, err := s.brandRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBrandResponse(brand)
	return &resp, nil
}

// GetBySlug retrieves a brand by slug
func (s *BrandService) GetBySlug(ctx context.Context, slug string) (*BrandResponse, error) {
	brand, err := s.brandRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	resp := ToBrandResponse(brand)
	return &resp, nil
}

// List retrieves a page of brands
func (s *BrandService) List(ctx context.Context, filter BrandListFilter) (shared.Paginated[BrandResponse], error) {
	domainFilter := shared.DefaultFilter()
	domainFilter.OrderBy = "name"
	domainFilter.OrderDir = "asc"
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}

	brands, err := s.brandRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[BrandResponse]{}, err
	}
	total, err := s.brandRepo.Count(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[BrandResponse]{}, err
	}
	items := make([]BrandResponse, len(brands))
	for i, b := range brands {
		items[i] = ToBrandResponse(b)
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// Update updates a brand
func (s *BrandService) Update(ctx context.Context, id uuid.UUID, req UpdateBrandRequest) (*BrandResponse, error) {
	brand, err := s.brandRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := brand.Update(req.Name, req.Slug, req.LogoURL, req.Description); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, brand.Name, &brand.ID); err != nil {
		return nil, err
	}
	if req.Active != nil {
		brand.SetActive(*req.Active)
	}
	if err := s.brandRepo.Save(ctx, brand); err != nil {
		return nil, err
	}
	resp := ToBrandResponse(brand)
	return &resp, nil
}

// Delete deletes a brand no product refers to
func (s *BrandService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.brandRepo.FindByID(ctx, id); err != nil {
		return err
	}
	count, err := s.productRepo.CountByBrand(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("HAS_PRODUCTS", "Cannot delete brand with products")
	}
	if err := s.brandRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Brand deleted", zap.String("brand_id", id.String()))
	return nil
}

func (s *BrandService) ensureNameFree(ctx context.Context, name string, excludeID *uuid.UUID) error {
	exists, err := s.brandRepo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Brand with this name already exists")
	}
	return nil
}
