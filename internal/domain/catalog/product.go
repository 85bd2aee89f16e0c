package catalog

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusDraft        ProductStatus = "draft"
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// IsValid checks if the status is a known value
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusActive, ProductStatusInactive, ProductStatusDiscontinued:
		return true
	}
	return false
}

// MaxProductImages is the number of images a product may carry
const MaxProductImages = 12

var skuPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_\-]*$`)

// Product is the aggregate root of the catalog. Variations, options and
// images are entities that only change through the product.
type Product struct {
	shared.BaseAggregateRoot
	SKU            string
	Name           string
	Slug           string
	Description    string
	CategoryID     *uuid.UUID
	BrandID        *uuid.UUID
	Price          decimal.Decimal
	CompareAtPrice decimal.Decimal
	Stock          int
	Status         ProductStatus
	Featured       bool
	Variations     []Variation
	Images         []ProductImage
}

// NewProduct creates a draft product
func NewProduct(sku, name, slug string, price decimal.Decimal) (*Product, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	name = strings.TrimSpace(name)

	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	s, err := normalizeSlug(slug, name)
	if err != nil {
		return nil, err
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		Slug:              s,
		Price:             price,
		CompareAtPrice:    decimal.Zero,
		Status:            ProductStatusDraft,
		Variations:        make([]Variation, 0),
		Images:            make([]ProductImage, 0),
	}

	product.AddDomainEvent(NewProductChangedEvent(product, EventTypeProductCreated))
	return product, nil
}

// Update changes the descriptive fields
func (p *Product) Update(name, slug, description string) error {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return err
	}
	s, err := normalizeSlug(slug, name)
	if err != nil {
		return err
	}

	p.Name = name
	p.Slug = s
	p.Description = description
	p.Touch()
	p.AddDomainEvent(NewProductChangedEvent(p, EventTypeProductUpdated))
	return nil
}

// SetPrice sets the selling price and the optional "was" price.
// A zero compareAt clears it.
func (p *Product) SetPrice(price, compareAt decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if compareAt.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Compare-at price cannot be negative")
	}
	if !compareAt.IsZero() && compareAt.LessThanOrEqual(price) {
		return shared.NewDomainError("INVALID_PRICE", "Compare-at price must be greater than price")
	}
	for i := range p.Variations {
		for _, o := range p.Variations[i].Options {
			if price.Add(o.PriceAdjustment).IsNegative() {
				return shared.NewDomainError("INVALID_PRICE", "Price would make option "+o.Value+" negative")
			}
		}
	}

	oldPrice := p.Price
	p.Price = price
	p.CompareAtPrice = compareAt
	p.Touch()
	if !oldPrice.Equal(price) {
		p.AddDomainEvent(NewProductPriceChangedEvent(p, oldPrice))
	}
	return nil
}

// SetCategory assigns the product to a category (nil clears)
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.Touch()
}

// SetBrand assigns the product to a brand (nil clears)
func (p *Product) SetBrand(brandID *uuid.UUID) {
	p.BrandID = brandID
	p.Touch()
}

// SetFeatured toggles the featured flag
func (p *Product) SetFeatured(featured bool) {
	p.Featured = featured
	p.Touch()
}

// Activate publishes the product
func (p *Product) Activate() error {
	if p.Status == ProductStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Product is already active")
	}
	if p.Status == ProductStatusDiscontinued {
		return shared.NewDomainError("INVALID_STATE", "Cannot activate a discontinued product")
	}
	return p.changeStatus(ProductStatusActive)
}

// Deactivate hides the product
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Product is already inactive")
	}
	if p.Status == ProductStatusDiscontinued {
		return shared.NewDomainError("INVALID_STATE", "Cannot deactivate a discontinued product")
	}
	return p.changeStatus(ProductStatusInactive)
}

// Discontinue permanently retires the product
func (p *Product) Discontinue() error {
	if p.Status == ProductStatusDiscontinued {
		return shared.NewDomainError("ALREADY_DISCONTINUED", "Product is already discontinued")
	}
	return p.changeStatus(ProductStatusDiscontinued)
}

func (p *Product) changeStatus(to ProductStatus) error {
	from := p.Status
	p.Status = to
	p.Touch()
	p.AddDomainEvent(NewProductStatusChangedEvent(p, from, to))
	return nil
}

// IsSellable reports whether the product can be added to a cart
func (p *Product) IsSellable() bool {
	return p.Status == ProductStatusActive
}

// HasVariations returns true when stock and price are tracked per option
func (p *Product) HasVariations() bool {
	for _, v := range p.Variations {
		if len(v.Options) > 0 {
			return true
		}
	}
	return false
}

// AddVariation adds a new variation dimension
func (p *Product) AddVariation(name string) (*Variation, error) {
	name = strings.TrimSpace(name)
	if err := validateVariationName(name); err != nil {
		return nil, err
	}
	for _, v := range p.Variations {
		if strings.EqualFold(v.Name, name) {
			return nil, shared.NewDomainError("DUPLICATE_VARIATION", "Variation "+name+" already exists")
		}
	}

	p.Variations = append(p.Variations, Variation{
		ID:        uuid.New(),
		ProductID: p.ID,
		Name:      name,
		SortOrder: len(p.Variations),
		Options:   make([]Option, 0),
	})
	p.Touch()
	return &p.Variations[len(p.Variations)-1], nil
}

// RenameVariation changes the name of a variation
func (p *Product) RenameVariation(variationID uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if err := validateVariationName(name); err != nil {
		return err
	}
	_, v := p.findVariation(variationID)
	if v == nil {
		return shared.NewDomainError("NOT_FOUND", "Variation not found")
	}
	for _, other := range p.Variations {
		if other.ID != variationID && strings.EqualFold(other.Name, name) {
			return shared.NewDomainError("DUPLICATE_VARIATION", "Variation "+name+" already exists")
		}
	}
	v.Name = name
	p.Touch()
	return nil
}

// RemoveVariation removes a variation and all of its options
func (p *Product) RemoveVariation(variationID uuid.UUID) error {
	idx, _ := p.findVariation(variationID)
	if idx < 0 {
		return shared.NewDomainError("NOT_FOUND", "Variation not found")
	}
	p.Variations = append(p.Variations[:idx], p.Variations[idx+1:]...)
	p.Touch()
	return nil
}

// AddOption adds an option value to a variation
func (p *Product) AddOption(variationID uuid.UUID, in OptionInput) (*Option, error) {
	in.Value = strings.TrimSpace(in.Value)
	in.SKUSuffix = strings.ToUpper(strings.TrimSpace(in.SKUSuffix))
	if err := validateOptionInput(in); err != nil {
		return nil, err
	}
	_, v := p.findVariation(variationID)
	if v == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Variation not found")
	}
	if v.hasValue(in.Value, uuid.Nil) {
		return nil, shared.NewDomainError("DUPLICATE_OPTION", "Option "+in.Value+" already exists")
	}
	if p.Price.Add(in.PriceAdjustment).IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Option price cannot be negative")
	}

	v.Options = append(v.Options, Option{
		ID:              uuid.New(),
		VariationID:     v.ID,
		Value:           in.Value,
		SKUSuffix:       in.SKUSuffix,
		PriceAdjustment: in.PriceAdjustment,
		Stock:           in.Stock,
		SortOrder:       len(v.Options),
	})
	p.Touch()
	return &v.Options[len(v.Options)-1], nil
}

// UpdateOption changes an existing option
func (p *Product) UpdateOption(optionID uuid.UUID, in OptionInput) error {
	in.Value = strings.TrimSpace(in.Value)
	in.SKUSuffix = strings.ToUpper(strings.TrimSpace(in.SKUSuffix))
	if err := validateOptionInput(in); err != nil {
		return err
	}
	v, opt := p.FindOption(optionID)
	if opt == nil {
		return shared.NewDomainError("NOT_FOUND", "Option not found")
	}
	if v.hasValue(in.Value, optionID) {
		return shared.NewDomainError("DUPLICATE_OPTION", "Option "+in.Value+" already exists")
	}
	if p.Price.Add(in.PriceAdjustment).IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Option price cannot be negative")
	}

	opt.Value = in.Value
	opt.SKUSuffix = in.SKUSuffix
	opt.PriceAdjustment = in.PriceAdjustment
	opt.Stock = in.Stock
	p.Touch()
	return nil
}

// RemoveOption removes an option from its variation
func (p *Product) RemoveOption(optionID uuid.UUID) error {
	v, _ := p.FindOption(optionID)
	if v == nil {
		return shared.NewDomainError("NOT_FOUND", "Option not found")
	}
	idx, _ := v.findOption(optionID)
	v.Options = append(v.Options[:idx], v.Options[idx+1:]...)
	p.Touch()
	return nil
}

// FindOption locates an option and its variation
func (p *Product) FindOption(optionID uuid.UUID) (*Variation, *Option) {
	for i := range p.Variations {
		if _, opt := p.Variations[i].findOption(optionID); opt != nil {
			return &p.Variations[i], opt
		}
	}
	return nil, nil
}

func (p *Product) findVariation(variationID uuid.UUID) (int, *Variation) {
	for i := range p.Variations {
		if p.Variations[i].ID == variationID {
			return i, &p.Variations[i]
		}
	}
	return -1, nil
}

// Purchasable resolves what a cart line refers to. Products with variations
// require an option; products without variations reject one.
type Purchasable struct {
	UnitPrice   decimal.Decimal
	Available   int
	SKU         string
	OptionLabel string
}

// Resolve returns price, stock and labels for the product or one of its options
func (p *Product) Resolve(optionID *uuid.UUID) (Purchasable, error) {
	if optionID == nil {
		if p.HasVariations() {
			return Purchasable{}, shared.NewDomainError("OPTION_REQUIRED", "An option must be selected for "+p.Name)
		}
		return Purchasable{UnitPrice: p.Price, Available: p.Stock, SKU: p.SKU}, nil
	}

	v, opt := p.FindOption(*optionID)
	if opt == nil {
		return Purchasable{}, shared.NewDomainError("NOT_FOUND", "Option not found")
	}
	sku := p.SKU
	if opt.SKUSuffix != "" {
		sku = p.SKU + "-" + opt.SKUSuffix
	}
	return Purchasable{
		UnitPrice:   p.Price.Add(opt.PriceAdjustment),
		Available:   opt.Stock,
		SKU:         sku,
		OptionLabel: v.Label(opt),
	}, nil
}

// TotalStock returns product stock, or the sum of option stock when the
// product has variations
func (p *Product) TotalStock() int {
	if !p.HasVariations() {
		return p.Stock
	}
	total := 0
	for _, v := range p.Variations {
		for _, o := range v.Options {
			total += o.Stock
		}
	}
	return total
}

// AdjustStock changes stock by delta on the product or an option
func (p *Product) AdjustStock(optionID *uuid.UUID, delta int) error {
	if optionID == nil {
		if p.Stock+delta < 0 {
			return shared.ErrInsufficientStock
		}
		p.Stock += delta
		p.Touch()
		return nil
	}

	_, opt := p.FindOption(*optionID)
	if opt == nil {
		return shared.NewDomainError("NOT_FOUND", "Option not found")
	}
	if opt.Stock+delta < 0 {
		return shared.ErrInsufficientStock
	}
	opt.Stock += delta
	p.Touch()
	return nil
}

// DeductStock removes quantity for a sale
func (p *Product) DeductStock(optionID *uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	return p.AdjustStock(optionID, -quantity)
}

// RestoreStock returns quantity to stock after a cancellation
func (p *Product) RestoreStock(optionID *uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	return p.AdjustStock(optionID, quantity)
}

func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 50 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 50 characters")
	}
	if !skuPattern.MatchString(sku) {
		return shared.NewDomainError("INVALID_SKU", "SKU can only contain letters, numbers, underscores, and hyphens")
	}
	return nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
