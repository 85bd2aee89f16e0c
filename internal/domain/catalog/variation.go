package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Variation is a named dimension along which a product varies (e.g. "Color").
// It is an entity inside the Product aggregate.
type Variation struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Name      string
	SortOrder int
	Options   []Option
}

// Option is one value of a variation (e.g. "Red") with its own stock and
// a price adjustment relative to the product base price.
type Option struct {
	ID              uuid.UUID
	VariationID     uuid.UUID
	Value           string
	SKUSuffix       string
	PriceAdjustment decimal.Decimal
	Stock           int
	SortOrder       int
}

// OptionInput carries the mutable fields of an option
type OptionInput struct {
	Value           string
	SKUSuffix       string
	PriceAdjustment decimal.Decimal
	Stock           int
}

// Label returns a human readable "Variation: Value" label
func (v *Variation) Label(opt *Option) string {
	return v.Name + ": " + opt.Value
}

func (v *Variation) findOption(optionID uuid.UUID) (int, *Option) {
	for i := range v.Options {
		if v.Options[i].ID == optionID {
			return i, &v.Options[i]
		}
	}
	return -1, nil
}

func (v *Variation) hasValue(value string, except uuid.UUID) bool {
	for _, o := range v.Options {
		if o.ID != except && strings.EqualFold(o.Value, value) {
			return true
		}
	}
	return false
}

func validateVariationName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_VARIATION", "Variation name cannot be empty")
	}
	if len(name) > 50 {
		return shared.NewDomainError("INVALID_VARIATION", "Variation name cannot exceed 50 characters")
	}
	return nil
}

func validateOptionInput(in OptionInput) error {
	if in.Value == "" {
		return shared.NewDomainError("INVALID_OPTION", "Option value cannot be empty")
	}
	if len(in.Value) > 100 {
		return shared.NewDomainError("INVALID_OPTION", "Option value cannot exceed 100 characters")
	}
	if len(in.SKUSuffix) > 30 {
		return shared.NewDomainError("INVALID_OPTION", "SKU suffix cannot exceed 30 characters")
	}
	if in.Stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	return nil
}
