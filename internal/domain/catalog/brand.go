package catalog

import (
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// BrandStatus represents the status of a brand
type BrandStatus string

const (
	BrandStatusActive   BrandStatus = "active"
	BrandStatusInactive BrandStatus = "inactive"
)

// Brand is a product manufacturer or label
type Brand struct {
	shared.BaseAggregateRoot
	Name        string
	Slug        string
	LogoURL     string
	Description string
	Status      BrandStatus
}

// NewBrand creates an active brand
func NewBrand(name, slug string) (*Brand, error) {
	name = strings.TrimSpace(name)
	if err := validateBrandName(name); err != nil {
		return nil, err
	}
	s, err := normalizeSlug(slug, name)
	if err != nil {
		return nil, err
	}

	return &Brand{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              s,
		Status:            BrandStatusActive,
	}, nil
}

// Update changes the brand details
func (b *Brand) Update(name, slug, logoURL, description string) error {
	name = strings.TrimSpace(name)
	if err := validateBrandName(name); err != nil {
		return err
	}
	s, err := normalizeSlug(slug, name)
	if err != nil {
		return err
	}
	if len(logoURL) > 500 {
		return shared.NewDomainError("INVALID_LOGO_URL", "Logo URL cannot exceed 500 characters")
	}

	b.Name = name
	b.Slug = s
	b.LogoURL = logoURL
	b.Description = strings.TrimSpace(description)
	b.Touch()
	return nil
}

// SetActive switches the brand between active and inactive
func (b *Brand) SetActive(active bool) {
	if active {
		b.Status = BrandStatusActive
	} else {
		b.Status = BrandStatusInactive
	}
	b.Touch()
}

// IsActive returns true if the brand is active
func (b *Brand) IsActive() bool {
	return b.Status == BrandStatusActive
}

func validateBrandName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Brand name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Brand name cannot exceed 100 characters")
	}
	return nil
}
