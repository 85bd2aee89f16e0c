package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ImageStorage is the object storage used for product images.
// Implemented by the S3 and in-memory storages.
type ImageStorage interface {
	PresignUpload(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error)
	PublicURL(key string) string
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// ProductServiceConfig holds configuration for the product service
type ProductServiceConfig struct {
	// UploadURLExpiry is how long a presigned upload URL stays valid
	UploadURLExpiry time.Duration
}

// DefaultProductServiceConfig returns the default configuration
func DefaultProductServiceConfig() ProductServiceConfig {
	return ProductServiceConfig{UploadURLExpiry: 15 * time.Minute}
}

// ProductService handles product-related business operations
type ProductService struct {
	productRepo    catalog.ProductRepository
	categoryRepo   catalog.CategoryRepository
	brandRepo      catalog.BrandRepository
	storage        ImageStorage
	config         ProductServiceConfig
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	brandRepo catalog.BrandRepository,
	storage ImageStorage,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
		storage:      storage,
		config:       DefaultProductServiceConfig(),
		logger:       logger,
	}
}

// SetConfig sets the service configuration
func (s *ProductService) SetConfig(config ProductServiceConfig) {
	s.config = config
}

// SetEventPublisher sets the event publisher for domain events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "create")
	defer span.End()

	product, err := catalog.NewProduct(req.SKU, req.Name, req.Slug, req.Price)
	if err != nil {
		return nil, err
	}

	exists, err := s.productRepo.ExistsBySKU(ctx, product.SKU)
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this SKU already exists")
	}
	if err := s.ensureSlugFree(ctx, product.Slug, nil); err != nil {
		return nil, err
	}

	if req.Description != "" {
		if err := product.Update(product.Name, product.Slug, req.Description); err != nil {
			return nil, err
		}
	}
	if req.CompareAtPrice != nil {
		if err := product.SetPrice(product.Price, *req.CompareAtPrice); err != nil {
			return nil, err
		}
	}
	if err := s.assignCategory(ctx, product, req.CategoryID); err != nil {
		return nil, err
	}
	if err := s.assignBrand(ctx, product, req.BrandID); err != nil {
		return nil, err
	}
	if req.Stock > 0 {
		if err := product.AdjustStock(nil, req.Stock); err != nil {
			return nil, err
		}
	}
	if req.Featured {
		product.SetFeatured(true)
	}
	if req.Activate {
		if err := product.Activate(); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	s.publish(ctx, product)

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
		zap.String("status", string(product.Status)))
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID retrieves a product by ID in any status
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetPublicByID retrieves an active product by ID
func (s *ProductService) GetPublicByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return publicResponse(product)
}

// GetPublicBySlug retrieves an active product by slug
func (s *ProductService) GetPublicBySlug(ctx context.Context, slug string) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return publicResponse(product)
}

func publicResponse(product *catalog.Product) (*ProductResponse, error) {
	if !product.IsSellable() {
		return nil, shared.ErrNotFound
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List lists products in any status
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) (shared.Paginated[ProductResponse], error) {
	domainFilter, err := s.toDomainFilter(ctx, filter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	return s.list(ctx, domainFilter)
}

// ListPublic lists active products only
func (s *ProductService) ListPublic(ctx context.Context, filter ProductListFilter) (shared.Paginated[ProductResponse], error) {
	filter.Status = ""
	domainFilter, err := s.toDomainFilter(ctx, filter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	active := catalog.ProductStatusActive
	domainFilter.Status = &active
	return s.list(ctx, domainFilter)
}

func (s *ProductService) list(ctx context.Context, filter catalog.ProductFilter) (shared.Paginated[ProductResponse], error) {
	products, total, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	return shared.NewPaginated(ToProductResponses(products), total, filter.Page, filter.PageSize), nil
}

// toDomainFilter expands a category filter to the category and all of its
// descendants
func (s *ProductService) toDomainFilter(ctx context.Context, filter ProductListFilter) (catalog.ProductFilter, error) {
	out := catalog.ProductFilter{
		Filter:   shared.DefaultFilter(),
		Featured: filter.Featured,
		InStock:  filter.InStock,
	}
	out.Search = filter.Search
	if filter.Page > 0 {
		out.Page = filter.Page
	}
	if filter.PageSize > 0 {
		out.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		out.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		out.OrderDir = filter.OrderDir
	}
	var err error
	if out.MinPrice, err = parsePrice(filter.MinPrice, "min_price"); err != nil {
		return out, err
	}
	if out.MaxPrice, err = parsePrice(filter.MaxPrice, "max_price"); err != nil {
		return out, err
	}
	if out.MinPrice != nil && out.MaxPrice != nil && out.MinPrice.GreaterThan(*out.MaxPrice) {
		return out, shared.NewDomainError("INVALID_INPUT", "min_price cannot exceed max_price")
	}

	if filter.Status != "" {
		status := catalog.ProductStatus(filter.Status)
		if !status.IsValid() {
			return out, shared.NewDomainError("INVALID_INPUT", "Unknown product status")
		}
		out.Status = &status
	}
	if filter.BrandID != "" {
		brandID, err := uuid.Parse(filter.BrandID)
		if err != nil {
			return out, shared.NewDomainError("INVALID_INPUT", "brand_id must be a UUID")
		}
		out.BrandID = &brandID
	}
	if filter.CategoryID != "" {
		categoryID, err := uuid.Parse(filter.CategoryID)
		if err != nil {
			return out, shared.NewDomainError("INVALID_INPUT", "category_id must be a UUID")
		}
		category, err := s.categoryRepo.FindByID(ctx, categoryID)
		if err != nil {
			return out, err
		}
		ids, err := subtreeIDs(ctx, s.categoryRepo, category)
		if err != nil {
			return out, err
		}
		out.CategoryIDs = ids
	}
	return out, nil
}

func parsePrice(raw, field string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", field+" must be a non-negative number")
	}
	return &d, nil
}

// Update applies a partial update to a product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Slug != nil || req.Description != nil {
		name, slug, description := product.Name, product.Slug, product.Description
		if req.Name != nil {
			name = *req.Name
		}
		if req.Slug != nil {
			slug = *req.Slug
		}
		if req.Description != nil {
			description = *req.Description
		}
		if err := product.Update(name, slug, description); err != nil {
			return nil, err
		}
		if err := s.ensureSlugFree(ctx, product.Slug, &product.ID); err != nil {
			return nil, err
		}
	}

	if req.Price != nil || req.CompareAtPrice != nil {
		price, compareAt := product.Price, product.CompareAtPrice
		if req.Price != nil {
			price = *req.Price
		}
		if req.CompareAtPrice != nil {
			compareAt = *req.CompareAtPrice
		}
		if err := product.SetPrice(price, compareAt); err != nil {
			return nil, err
		}
	}

	switch {
	case req.ClearCategory:
		product.SetCategory(nil)
	case req.CategoryID != nil:
		if err := s.assignCategory(ctx, product, req.CategoryID); err != nil {
			return nil, err
		}
	}
	switch {
	case req.ClearBrand:
		product.SetBrand(nil)
	case req.BrandID != nil:
		if err := s.assignBrand(ctx, product, req.BrandID); err != nil {
			return nil, err
		}
	}
	if req.Featured != nil {
		product.SetFeatured(*req.Featured)
	}

	return s.save(ctx, product)
}

// Activate makes a product visible and purchasable
func (s *ProductService) Activate(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	return s.mutate(ctx, id, (*catalog.Product).Activate)
}

// Deactivate hides a product
func (s *ProductService) Deactivate(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	return s.mutate(ctx, id, (*catalog.Product).Deactivate)
}

// Discontinue permanently retires a product
func (s *ProductService) Discontinue(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	return s.mutate(ctx, id, (*catalog.Product).Discontinue)
}

// Delete deletes a product and its stored images
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	for _, img := range product.Images {
		s.deleteObject(ctx, img.ObjectKey)
	}
	s.logger.Info("Product deleted", zap.String("product_id", id.String()), zap.String("sku", product.SKU))
	return nil
}

// AdjustStock changes the stock of a product or of one of its options
func (s *ProductService) AdjustStock(ctx context.Context, id uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	resp, err := s.mutate(ctx, id, func(p *catalog.Product) error {
		return p.AdjustStock(req.OptionID, req.Delta)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Stock adjusted",
		zap.String("product_id", id.String()),
		zap.Int("delta", req.Delta),
		zap.String("reason", req.Reason))
	return resp, nil
}

// AddVariation adds a variation to a product
func (s *ProductService) AddVariation(ctx context.Context, id uuid.UUID, req VariationRequest) (*ProductResponse, error) {
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		_, err := p.AddVariation(req.Name)
		return err
	})
}

// RenameVariation renames a variation
func (s *ProductService) RenameVariation(ctx context.Context, id, variationID uuid.UUID, req VariationRequest) (*ProductResponse, error) {
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		return p.RenameVariation(variationID, req.Name)
	})
}

// RemoveVariation removes a variation with its options
func (s *ProductService) RemoveVariation(ctx context.Context, id, variationID uuid.UUID) (*ProductResponse, error) {
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		return p.RemoveVariation(variationID)
	})
}

// AddOption adds an option to a variation
func (s *ProductService) AddOption(ctx context.Context, id, variationID uuid.UUID, req OptionRequest) (*ProductResponse, error) {
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		_, err := p.AddOption(variationID, req.toInput())
		return err
	})
}

// UpdateOption updates an option
func (s *ProductService) UpdateOption(ctx context.Context, id, optionID uuid.UUID, req OptionRequest) (*ProductResponse, error) {
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		return p.UpdateOption(optionID, req.toInput())
	})
}

// RemoveOption removes an option
func (s *ProductService) RemoveOption(ctx context.Context, id, optionID uuid.UUID) (*ProductResponse, error) {
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		return p.RemoveOption(optionID)
	})
}

// RequestImageUpload returns a presigned URL the client uploads an image to.
// The image is attached once the upload is confirmed.
func (s *ProductService) RequestImageUpload(ctx context.Context, id uuid.UUID, req ImageUploadRequest) (*ImageUploadResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(product.Images) >= catalog.MaxProductImages {
		return nil, shared.NewDomainError("TOO_MANY_IMAGES", "A product cannot have more than 12 images")
	}
	key, err := catalog.ImageObjectKey(product.ID, req.ContentType)
	if err != nil {
		return nil, err
	}
	url, expiresAt, err := s.storage.PresignUpload(ctx, key, req.ContentType, s.config.UploadURLExpiry)
	if err != nil {
		return nil, err
	}
	return &ImageUploadResponse{UploadURL: url, ObjectKey: key, ExpiresAt: expiresAt}, nil
}

// ConfirmImage attaches an uploaded object to the product
func (s *ProductService) ConfirmImage(ctx context.Context, id uuid.UUID, req ConfirmImageRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.storage.Exists(ctx, req.ObjectKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError("UPLOAD_NOT_FOUND", "The image has not been uploaded")
	}
	if _, err := product.AddImage(req.ObjectKey, s.storage.PublicURL(req.ObjectKey), req.AltText); err != nil {
		return nil, err
	}
	return s.save(ctx, product)
}

// SetPrimaryImage marks one image as the primary image
func (s *ProductService) SetPrimaryImage(ctx context.Context, id, imageID uuid.UUID) (*ProductResponse, error) {
	return s.mutate(ctx, id, func(p *catalog.Product) error {
		return p.SetPrimaryImage(imageID)
	})
}

// RemoveImage detaches an image and deletes the stored object
func (s *ProductService) RemoveImage(ctx context.Context, id, imageID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	removed, err := product.RemoveImage(imageID)
	if err != nil {
		return nil, err
	}
	resp, err := s.save(ctx, product)
	if err != nil {
		return nil, err
	}
	s.deleteObject(ctx, removed.ObjectKey)
	return resp, nil
}

// LowStock returns active products at or below threshold
func (s *ProductService) LowStock(ctx context.Context, threshold, limit int) ([]ProductResponse, error) {
	products, err := s.productRepo.FindLowStock(ctx, threshold, limit)
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products), nil
}

func (s *ProductService) mutate(ctx context.Context, id uuid.UUID, apply func(*catalog.Product) error) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(product); err != nil {
		return nil, err
	}
	return s.save(ctx, product)
}

func (s *ProductService) save(ctx context.Context, product *catalog.Product) (*ProductResponse, error) {
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)
	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) assignCategory(ctx context.Context, product *catalog.Product, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categoryRepo.FindByID(ctx, *categoryID); err != nil {
		if shared.IsNotFound(err) {
			return shared.NewDomainError("INVALID_CATEGORY", "Category not found")
		}
		return err
	}
	product.SetCategory(categoryID)
	return nil
}

func (s *ProductService) assignBrand(ctx context.Context, product *catalog.Product, brandID *uuid.UUID) error {
	if brandID == nil {
		return nil
	}
	if _, err := s.brandRepo.FindByID(ctx, *brandID); err != nil {
		if shared.IsNotFound(err) {
			return shared.NewDomainError("INVALID_BRAND", "Brand not found")
		}
		return err
	}
	product.SetBrand(brandID)
	return nil
}

func (s *ProductService) ensureSlugFree(ctx context.Context, slug string, excludeID *uuid.UUID) error {
	exists, err := s.productRepo.ExistsBySlug(ctx, slug, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Product with this slug already exists")
	}
	return nil
}

func (s *ProductService) deleteObject(ctx context.Context, key string) {
	if s.storage == nil || key == "" {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete product image", zap.String("object_key", key), zap.Error(err))
	}
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	if err := shared.PublishAndClear(ctx, s.eventPublisher, product); err != nil {
		s.logger.Warn("Failed to publish product events", zap.String("product_id", product.ID.String()), zap.Error(err))
	}
}
