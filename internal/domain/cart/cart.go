package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// MaxLineQuantity caps the quantity of a single cart line
const MaxLineQuantity = 99

// MaxLines caps the number of distinct lines in a cart
const MaxLines = 50

// Item is one cart line: a product, optionally narrowed to an option
type Item struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	OptionID  *uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
	AddedAt   time.Time
}

// LineTotal returns unit price times quantity
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i Item) matches(productID uuid.UUID, optionID *uuid.UUID) bool {
	if i.ProductID != productID {
		return false
	}
	if i.OptionID == nil || optionID == nil {
		return i.OptionID == nil && optionID == nil
	}
	return *i.OptionID == *optionID
}

// Cart is the per-user shopping cart aggregate
type Cart struct {
	shared.BaseAggregateRoot
	UserID uuid.UUID
	Items  []Item
}

// NewCart creates an empty cart for the user
func NewCart(userID uuid.UUID) *Cart {
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Items:             make([]Item, 0),
	}
}

// AddItem adds quantity of a product/option. An existing line for the same
// product and option is merged. available is the current stock.
func (c *Cart) AddItem(productID uuid.UUID, optionID *uuid.UUID, quantity int, unitPrice decimal.Decimal, available int) (*Item, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	if idx := c.indexOf(productID, optionID); idx >= 0 {
		item := &c.Items[idx]
		newQty := item.Quantity + quantity
		if err := checkQuantity(newQty, available); err != nil {
			return nil, err
		}
		item.Quantity = newQty
		item.UnitPrice = unitPrice
		c.Touch()
		return item, nil
	}

	if len(c.Items) >= MaxLines {
		return nil, shared.NewDomainError("CART_FULL", "Cart cannot contain more than 50 lines")
	}
	if err := checkQuantity(quantity, available); err != nil {
		return nil, err
	}

	c.Items = append(c.Items, Item{
		ID:        uuid.New(),
		CartID:    c.ID,
		ProductID: productID,
		OptionID:  optionID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		AddedAt:   time.Now(),
	})
	c.Touch()
	return &c.Items[len(c.Items)-1], nil
}

// UpdateQuantity sets the quantity of a line. Zero removes the line.
func (c *Cart) UpdateQuantity(itemID uuid.UUID, quantity int, available int) error {
	idx := c.indexByID(itemID)
	if idx < 0 {
		return shared.NewDomainError("NOT_FOUND", "Cart item not found")
	}
	if quantity == 0 {
		return c.RemoveItem(itemID)
	}
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if err := checkQuantity(quantity, available); err != nil {
		return err
	}
	c.Items[idx].Quantity = quantity
	c.Touch()
	return nil
}

// RemoveItem removes a line
func (c *Cart) RemoveItem(itemID uuid.UUID) error {
	idx := c.indexByID(itemID)
	if idx < 0 {
		return shared.NewDomainError("NOT_FOUND", "Cart item not found")
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	c.Touch()
	return nil
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = make([]Item, 0)
	c.Touch()
}

// FindItem returns the line with the given ID
func (c *Cart) FindItem(itemID uuid.UUID) *Item {
	if idx := c.indexByID(itemID); idx >= 0 {
		return &c.Items[idx]
	}
	return nil
}

// IsEmpty returns true when the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal sums the line totals at their captured prices
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount returns the number of units across all lines
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) indexOf(productID uuid.UUID, optionID *uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].matches(productID, optionID) {
			return i
		}
	}
	return -1
}

func (c *Cart) indexByID(itemID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func checkQuantity(quantity, available int) error {
	if quantity > MaxLineQuantity {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot exceed 99 per item")
	}
	if quantity > available {
		return shared.ErrInsufficientStock
	}
	return nil
}

// Repository defines the interface for cart persistence
type Repository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, id uuid.UUID) error
}
