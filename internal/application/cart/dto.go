package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest adds a product, or one of its options, to the cart
type AddItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	OptionID  *uuid.UUID `json:"option_id"`
	Quantity  int        `json:"quantity" binding:"required,min=1,max=99"`
}

// UpdateItemRequest sets the quantity of a line. Zero removes it.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0,max=99"`
}

// ItemView is a cart line priced against the live catalog
type ItemView struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	OptionID      *uuid.UUID      `json:"option_id,omitempty"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	OptionLabel   string          `json:"option_label,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	AddedPrice    decimal.Decimal `json:"added_price"`
	LineTotal     decimal.Decimal `json:"line_total"`
	Available     int             `json:"available"`
	Purchasable   bool            `json:"purchasable"`
	PriceChanged  bool            `json:"price_changed"`
	StockShortage bool            `json:"stock_shortage"`
}

// View is the cart as shown to its owner
type View struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Items     []ItemView      `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	// CanCheckout is false when any line is unavailable or short on stock
	CanCheckout bool `json:"can_checkout"`
}
