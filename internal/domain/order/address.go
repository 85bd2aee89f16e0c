package order

import (
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// ShippingAddress is the delivery address captured on an order
type ShippingAddress struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state,omitempty"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

// Normalize trims whitespace and uppercases the country code
func (a ShippingAddress) Normalize() ShippingAddress {
	a.RecipientName = strings.TrimSpace(a.RecipientName)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.Line2 = strings.TrimSpace(a.Line2)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	return a
}

// Validate checks the required fields
func (a ShippingAddress) Validate() error {
	switch {
	case a.RecipientName == "":
		return shared.NewDomainError("INVALID_ADDRESS", "Recipient name is required")
	case a.Line1 == "":
		return shared.NewDomainError("INVALID_ADDRESS", "Address line is required")
	case a.City == "":
		return shared.NewDomainError("INVALID_ADDRESS", "City is required")
	case a.PostalCode == "":
		return shared.NewDomainError("INVALID_ADDRESS", "Postal code is required")
	case len(a.Country) != 2:
		return shared.NewDomainError("INVALID_ADDRESS", "Country must be a 2-letter ISO code")
	}
	return nil
}

// String formats the address on a single line
func (a ShippingAddress) String() string {
	parts := []string{a.Line1}
	if a.Line2 != "" {
		parts = append(parts, a.Line2)
	}
	city := a.City
	if a.State != "" {
		city += ", " + a.State
	}
	parts = append(parts, city+" "+a.PostalCode, a.Country)
	return strings.Join(parts, ", ")
}
