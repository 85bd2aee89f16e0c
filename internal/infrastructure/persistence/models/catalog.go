package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// CategoryModel is the persistence model for the Category domain entity.
// Path holds the slash-separated ancestor IDs used for subtree queries.
type CategoryModel struct {
	AggregateModel
	Name        string                 `gorm:"type:varchar(100);not null"`
	Slug        string                 `gorm:"type:varchar(120);not null;uniqueIndex"`
	Description string                 `gorm:"type:text"`
	ImageURL    string                 `gorm:"type:varchar(500)"`
	ParentID    *uuid.UUID             `gorm:"type:uuid;index"`
	Path        string                 `gorm:"type:varchar(1000);not null;index"`
	Level       int                    `gorm:"not null;default:0"`
	SortOrder   int                    `gorm:"not null;default:0"`
	Status      catalog.CategoryStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the model to a domain Category
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseAggregateRoot: m.AggregateRoot(),
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		ImageURL:          m.ImageURL,
		ParentID:          m.ParentID,
		Path:              m.Path,
		Level:             m.Level,
		SortOrder:         m.SortOrder,
		Status:            m.Status,
	}
}

// CategoryModelFromDomain creates a model from a domain Category
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		ParentID:    c.ParentID,
		Path:        c.Path,
		Level:       c.Level,
		SortOrder:   c.SortOrder,
		Status:      c.Status,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// BrandModel is the persistence model for the Brand domain entity
type BrandModel struct {
	AggregateModel
	Name        string              `gorm:"type:varchar(100);not null;uniqueIndex"`
	Slug        string              `gorm:"type:varchar(120);not null;uniqueIndex"`
	LogoURL     string              `gorm:"type:varchar(500)"`
	Description string              `gorm:"type:text"`
	Status      catalog.BrandStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (BrandModel) TableName() string {
	return "brands"
}

// ToDomain converts the model to a domain Brand
func (m *BrandModel) ToDomain() *catalog.Brand {
	return &catalog.Brand{
		BaseAggregateRoot: m.AggregateRoot(),
		Name:              m.Name,
		Slug:              m.Slug,
		LogoURL:           m.LogoURL,
		Description:       m.Description,
		Status:            m.Status,
	}
}

// BrandModelFromDomain creates a model from a domain Brand
func BrandModelFromDomain(b *catalog.Brand) *BrandModel {
	m := &BrandModel{
		Name:        b.Name,
		Slug:        b.Slug,
		LogoURL:     b.LogoURL,
		Description: b.Description,
		Status:      b.Status,
	}
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	return m
}

// ProductModel is the persistence model for the Product aggregate. Children
// are written by the repository and read back with Preload.
type ProductModel struct {
	AggregateModel
	SKU            string                `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name           string                `gorm:"type:varchar(200);not null"`
	Slug           string                `gorm:"type:varchar(220);not null;uniqueIndex"`
	Description    string                `gorm:"type:text"`
	CategoryID     *uuid.UUID            `gorm:"type:uuid;index"`
	BrandID        *uuid.UUID            `gorm:"type:uuid;index"`
	Price          decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	CompareAtPrice decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Stock          int                   `gorm:"not null;default:0"`
	Status         catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	Featured       bool                  `gorm:"not null;default:false"`
	Variations     []VariationModel      `gorm:"foreignKey:ProductID"`
	Images         []ProductImageModel   `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model and its preloaded children to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseAggregateRoot: m.AggregateRoot(),
		SKU:               m.SKU,
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		CategoryID:        m.CategoryID,
		BrandID:           m.BrandID,
		Price:             m.Price,
		CompareAtPrice:    m.CompareAtPrice,
		Stock:             m.Stock,
		Status:            m.Status,
		Featured:          m.Featured,
		Variations:        make([]catalog.Variation, 0, len(m.Variations)),
		Images:            make([]catalog.ProductImage, 0, len(m.Images)),
	}
	for i := range m.Variations {
		p.Variations = append(p.Variations, m.Variations[i].ToDomain())
	}
	for i := range m.Images {
		p.Images = append(p.Images, m.Images[i].ToDomain())
	}
	return p
}

// ProductModelFromDomain creates a model from a domain Product, children
// included
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		SKU:            p.SKU,
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		CategoryID:     p.CategoryID,
		BrandID:        p.BrandID,
		Price:          p.Price,
		CompareAtPrice: p.CompareAtPrice,
		Stock:          p.Stock,
		Status:         p.Status,
		Featured:       p.Featured,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	for _, v := range p.Variations {
		m.Variations = append(m.Variations, VariationModelFromDomain(p.ID, v))
	}
	for _, img := range p.Images {
		m.Images = append(m.Images, ProductImageModel{
			ID:        img.ID,
			ProductID: p.ID,
			ObjectKey: img.ObjectKey,
			URL:       img.URL,
			AltText:   img.AltText,
			SortOrder: img.SortOrder,
			IsPrimary: img.IsPrimary,
		})
	}
	return m
}

// VariationModel is a product variation such as size or colour
type VariationModel struct {
	ID        uuid.UUID     `gorm:"type:uuid;primary_key"`
	ProductID uuid.UUID     `gorm:"type:uuid;not null;index"`
	Name      string        `gorm:"type:varchar(50);not null"`
	SortOrder int           `gorm:"not null;default:0"`
	Options   []OptionModel `gorm:"foreignKey:VariationID"`
}

// TableName returns the table name for GORM
func (VariationModel) TableName() string {
	return "product_variations"
}

// ToDomain converts the model to a domain Variation
func (m *VariationModel) ToDomain() catalog.Variation {
	v := catalog.Variation{
		ID:        m.ID,
		ProductID: m.ProductID,
		Name:      m.Name,
		SortOrder: m.SortOrder,
		Options:   make([]catalog.Option, 0, len(m.Options)),
	}
	for _, o := range m.Options {
		v.Options = append(v.Options, catalog.Option{
			ID:              o.ID,
			VariationID:     o.VariationID,
			Value:           o.Value,
			SKUSuffix:       o.SKUSuffix,
			PriceAdjustment: o.PriceAdjustment,
			Stock:           o.Stock,
			SortOrder:       o.SortOrder,
		})
	}
	return v
}

// VariationModelFromDomain creates a model from a domain Variation
func VariationModelFromDomain(productID uuid.UUID, v catalog.Variation) VariationModel {
	m := VariationModel{
		ID:        v.ID,
		ProductID: productID,
		Name:      v.Name,
		SortOrder: v.SortOrder,
	}
	for _, o := range v.Options {
		m.Options = append(m.Options, OptionModel{
			ID:              o.ID,
			VariationID:     v.ID,
			ProductID:       productID,
			Value:           o.Value,
			SKUSuffix:       o.SKUSuffix,
			PriceAdjustment: o.PriceAdjustment,
			Stock:           o.Stock,
			SortOrder:       o.SortOrder,
		})
	}
	return m
}

// OptionModel is one selectable value of a variation with its own stock.
// ProductID is denormalised so options can be cleared per product.
type OptionModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	VariationID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Value           string          `gorm:"type:varchar(50);not null"`
	SKUSuffix       string          `gorm:"type:varchar(32)"`
	PriceAdjustment decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Stock           int             `gorm:"not null;default:0"`
	SortOrder       int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (OptionModel) TableName() string {
	return "product_options"
}

// ProductImageModel stores an uploaded product image reference
type ProductImageModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	ObjectKey string    `gorm:"type:varchar(300);not null"`
	URL       string    `gorm:"type:varchar(500);not null"`
	AltText   string    `gorm:"type:varchar(200)"`
	SortOrder int       `gorm:"not null;default:0"`
	IsPrimary bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ProductImageModel) TableName() string {
	return "product_images"
}

// ToDomain converts the model to a domain ProductImage
func (m *ProductImageModel) ToDomain() catalog.ProductImage {
	return catalog.ProductImage{
		ID:        m.ID,
		ProductID: m.ProductID,
		ObjectKey: m.ObjectKey,
		URL:       m.URL,
		AltText:   m.AltText,
		SortOrder: m.SortOrder,
		IsPrimary: m.IsPrimary,
	}
}
