package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// CreateCategoryRequest represents a request to create a category.
// A nil ParentID creates a root category.
type CreateCategoryRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=100"`
	Slug        string     `json:"slug" binding:"omitempty,max=120"`
	Description string     `json:"description" binding:"max=2000"`
	ImageURL    string     `json:"image_url" binding:"omitempty,url,max=500"`
	ParentID    *uuid.UUID `json:"parent_id"`
	SortOrder   *int       `json:"sort_order"`
}

// UpdateCategoryRequest represents a request to update a category
type UpdateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Slug        string `json:"slug" binding:"omitempty,max=120"`
	Description string `json:"description" binding:"max=2000"`
	ImageURL    string `json:"image_url" binding:"omitempty,url,max=500"`
	SortOrder   *int   `json:"sort_order"`
}

// MoveCategoryRequest re-parents a category. A nil ParentID makes it a root.
type MoveCategoryRequest struct {
	ParentID *uuid.UUID `json:"parent_id"`
}

// CategoryListFilter represents query parameters for listing categories.
// ParentID is a category UUID or "root".
type CategoryListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	ParentID string `form:"parent_id"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	Path        string     `json:"path"`
	Level       int        `json:"level"`
	SortOrder   int        `json:"sort_order"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CategoryTreeNode represents a node in the category tree
type CategoryTreeNode struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Slug      string             `json:"slug"`
	Level     int                `json:"level"`
	SortOrder int                `json:"sort_order"`
	Children  []CategoryTreeNode `json:"children"`
}

// ToCategoryResponse converts a domain category to a response
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		ParentID:    c.ParentID,
		Path:        c.Path,
		Level:       c.Level,
		SortOrder:   c.SortOrder,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toTreeNodes(nodes []*catalog.CategoryNode) []CategoryTreeNode {
	out := make([]CategoryTreeNode, len(nodes))
	for i, n := range nodes {
		out[i] = CategoryTreeNode{
			ID:        n.Category.ID,
			Name:      n.Category.Name,
			Slug:      n.Category.Slug,
			Level:     n.Category.Level,
			SortOrder: n.Category.SortOrder,
			Children:  toTreeNodes(n.Children),
		}
	}
	return out
}

// CreateBrandRequest represents a request to create a brand
type CreateBrandRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Slug        string `json:"slug" binding:"omitempty,max=120"`
	LogoURL     string `json:"logo_url" binding:"omitempty,url,max=500"`
	Description string `json:"description" binding:"max=2000"`
}

// UpdateBrandRequest represents a request to update a brand
type UpdateBrandRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Slug        string `json:"slug" binding:"omitempty,max=120"`
	LogoURL     string `json:"logo_url" binding:"omitempty,url,max=500"`
	Description string `json:"description" binding:"max=2000"`
	Active      *bool  `json:"active"`
}

// BrandListFilter represents query parameters for listing brands
type BrandListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// BrandResponse represents a brand in API responses
type BrandResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	LogoURL     string    `json:"logo_url,omitempty"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToBrandResponse converts a domain brand to a response
func ToBrandResponse(b *catalog.Brand) BrandResponse {
	return BrandResponse{
		ID:          b.ID,
		Name:        b.Name,
		Slug:        b.Slug,
		LogoURL:     b.LogoURL,
		Description: b.Description,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
	}
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	SKU            string           `json:"sku" binding:"required,min=1,max=64"`
	Name           string           `json:"name" binding:"required,min=1,max=200"`
	Slug           string           `json:"slug" binding:"omitempty,max=220"`
	Description    string           `json:"description" binding:"max=10000"`
	CategoryID     *uuid.UUID       `json:"category_id"`
	BrandID        *uuid.UUID       `json:"brand_id"`
	Price          decimal.Decimal  `json:"price" binding:"required"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	Stock          int              `json:"stock" binding:"min=0"`
	Featured       bool             `json:"featured"`
	Activate       bool             `json:"activate"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Name           *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Slug           *string          `json:"slug" binding:"omitempty,max=220"`
	Description    *string          `json:"description" binding:"omitempty,max=10000"`
	CategoryID     *uuid.UUID       `json:"category_id"`
	ClearCategory  bool             `json:"clear_category"`
	BrandID        *uuid.UUID       `json:"brand_id"`
	ClearBrand     bool             `json:"clear_brand"`
	Price          *decimal.Decimal `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	Featured       *bool            `json:"featured"`
}

// ProductListFilter represents query parameters for listing products.
// IDs are kept as strings so malformed values can be reported clearly.
type ProductListFilter struct {
	Search     string           `form:"search"`
	CategoryID string           `form:"category_id"`
	BrandID    string           `form:"brand_id"`
	Status     string           `form:"status" binding:"omitempty,oneof=draft active inactive discontinued"`
	Featured   *bool            `form:"featured"`
	MinPrice   string           `form:"min_price"`
	MaxPrice   string           `form:"max_price"`
	InStock    *bool            `form:"in_stock"`
	Page       int              `form:"page" binding:"omitempty,min=1"`
	PageSize   int              `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string           `form:"order_by" binding:"omitempty,oneof=name price created_at updated_at sku stock"`
	OrderDir   string           `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// AdjustStockRequest changes stock of the product or one of its options
type AdjustStockRequest struct {
	OptionID *uuid.UUID `json:"option_id"`
	Delta    int        `json:"delta" binding:"required,ne=0"`
	Reason   string     `json:"reason" binding:"max=200"`
}

// VariationRequest names a variation
type VariationRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50"`
}

// OptionRequest carries the fields of an option
type OptionRequest struct {
	Value           string          `json:"value" binding:"required,min=1,max=50"`
	SKUSuffix       string          `json:"sku_suffix" binding:"max=20"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
	Stock           int             `json:"stock" binding:"min=0"`
}

func (r OptionRequest) toInput() catalog.OptionInput {
	return catalog.OptionInput{
		Value:           r.Value,
		SKUSuffix:       r.SKUSuffix,
		PriceAdjustment: r.PriceAdjustment,
		Stock:           r.Stock,
	}
}

// ImageUploadRequest asks for a presigned upload URL
type ImageUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// ImageUploadResponse carries the presigned URL the client PUTs the file to
type ImageUploadResponse struct {
	UploadURL string    `json:"upload_url"`
	ObjectKey string    `json:"object_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ConfirmImageRequest attaches an uploaded object to the product
type ConfirmImageRequest struct {
	ObjectKey string `json:"object_key" binding:"required,max=300"`
	AltText   string `json:"alt_text" binding:"max=200"`
}

// OptionResponse represents an option in API responses
type OptionResponse struct {
	ID              uuid.UUID       `json:"id"`
	Value           string          `json:"value"`
	SKUSuffix       string          `json:"sku_suffix,omitempty"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Stock           int             `json:"stock"`
	SortOrder       int             `json:"sort_order"`
}

// VariationResponse represents a variation in API responses
type VariationResponse struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	SortOrder int              `json:"sort_order"`
	Options   []OptionResponse `json:"options"`
}

// ImageResponse represents a product image in API responses
type ImageResponse struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	AltText   string    `json:"alt_text"`
	SortOrder int       `json:"sort_order"`
	IsPrimary bool      `json:"is_primary"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             uuid.UUID           `json:"id"`
	SKU            string              `json:"sku"`
	Name           string              `json:"name"`
	Slug           string              `json:"slug"`
	Description    string              `json:"description"`
	CategoryID     *uuid.UUID          `json:"category_id,omitempty"`
	BrandID        *uuid.UUID          `json:"brand_id,omitempty"`
	Price          decimal.Decimal     `json:"price"`
	CompareAtPrice *decimal.Decimal    `json:"compare_at_price,omitempty"`
	Stock          int                 `json:"stock"`
	TotalStock     int                 `json:"total_stock"`
	Status         string              `json:"status"`
	Featured       bool                `json:"featured"`
	PrimaryImage   string              `json:"primary_image,omitempty"`
	Variations     []VariationResponse `json:"variations"`
	Images         []ImageResponse     `json:"images"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// ToProductResponse converts a domain product to a response
func ToProductResponse(p *catalog.Product) ProductResponse {
	resp := ProductResponse{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		CategoryID:   p.CategoryID,
		BrandID:      p.BrandID,
		Price:        p.Price,
		Stock:        p.Stock,
		TotalStock:   p.TotalStock(),
		Status:       string(p.Status),
		Featured:     p.Featured,
		PrimaryImage: p.PrimaryImageURL(),
		Variations:   make([]VariationResponse, len(p.Variations)),
		Images:       make([]ImageResponse, len(p.Images)),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if !p.CompareAtPrice.IsZero() {
		compareAt := p.CompareAtPrice
		resp.CompareAtPrice = &compareAt
	}
	for i, v := range p.Variations {
		vr := VariationResponse{ID: v.ID, Name: v.Name, SortOrder: v.SortOrder, Options: make([]OptionResponse, len(v.Options))}
		for j, o := range v.Options {
			vr.Options[j] = OptionResponse{
				ID:              o.ID,
				Value:           o.Value,
				SKUSuffix:       o.SKUSuffix,
				PriceAdjustment: o.PriceAdjustment,
				UnitPrice:       p.Price.Add(o.PriceAdjustment),
				Stock:           o.Stock,
				SortOrder:       o.SortOrder,
			}
		}
		resp.Variations[i] = vr
	}
	for i, img := range p.Images {
		resp.Images[i] = ImageResponse{
			ID:        img.ID,
			URL:       img.URL,
			AltText:   img.AltText,
			SortOrder: img.SortOrder,
			IsPrimary: img.IsPrimary,
		}
	}
	return resp
}

// ToProductResponses converts a slice of domain products
func ToProductResponses(products []*catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = ToProductResponse(p)
	}
	return out
}
