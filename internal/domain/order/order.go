package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Status represents the lifecycle status of an order
type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	for _, v := range AllStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusPaid || target == StatusCancelled
	case StatusPaid:
		return target == StatusProcessing || target == StatusCancelled
	case StatusProcessing:
		return target == StatusShipped || target == StatusCancelled
	case StatusShipped:
		return target == StatusDelivered
	case StatusDelivered:
		return target == StatusRefunded
	case StatusCancelled, StatusRefunded:
		return false
	}
	return false
}

// CountsAsRevenue reports whether an order in this status has been paid for
// and not given back
func (s Status) CountsAsRevenue() bool {
	switch s {
	case StatusPaid, StatusProcessing, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// AllStatuses lists every order status in lifecycle order
func AllStatuses() []Status {
	return []Status{StatusPending, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded}
}

// RevenueStatuses lists the statuses that count as revenue
func RevenueStatuses() []Status {
	return []Status{StatusPaid, StatusProcessing, StatusShipped, StatusDelivered}
}

// PaymentMethod is how the customer intends to pay
type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cod"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodCard           PaymentMethod = "card"
)

// IsValid checks if the payment method is supported
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCashOnDelivery, PaymentMethodBankTransfer, PaymentMethodCard:
		return true
	}
	return false
}

// Item is an immutable snapshot of a purchased line
type Item struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	OptionID    *uuid.UUID
	ProductName string
	SKU         string
	OptionLabel string
	UnitPrice   decimal.Decimal
	Quantity    int
	LineTotal   decimal.Decimal
}

// Order is the aggregate root for a placed order
type Order struct {
	shared.BaseAggregateRoot
	Number          string
	UserID          uuid.UUID
	Items           []Item
	ShippingAddress ShippingAddress
	Subtotal        decimal.Decimal
	DiscountID      *uuid.UUID
	DiscountCode    string
	DiscountAmount  decimal.Decimal
	PointsRedeemed  int64
	LoyaltyDiscount decimal.Decimal
	PointsEarned    int64
	ShippingFee     decimal.Decimal
	Total           decimal.Decimal
	Status          Status
	PaymentMethod   PaymentMethod
	TrackingNumber  string
	Notes           string
	CancelReason    string
	PaidAt          *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	RefundedAt      *time.Time
}

// NewOrder creates a pending order without items
func NewOrder(number string, userID uuid.UUID, address ShippingAddress, method PaymentMethod) (*Order, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	address = address.Normalize()
	if err := address.Validate(); err != nil {
		return nil, err
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unsupported payment method: %s", method))
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		UserID:            userID,
		Items:             make([]Item, 0),
		ShippingAddress:   address,
		Subtotal:          decimal.Zero,
		DiscountAmount:    decimal.Zero,
		LoyaltyDiscount:   decimal.Zero,
		ShippingFee:       decimal.Zero,
		Total:             decimal.Zero,
		Status:            StatusPending,
		PaymentMethod:     method,
	}, nil
}

// AddItem appends a priced line to a pending order
func (o *Order) AddItem(productID uuid.UUID, optionID *uuid.UUID, name, sku, optionLabel string, unitPrice decimal.Decimal, quantity int) (*Item, error) {
	if o.Status != StatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Items can only be added while the order is being placed")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	o.Items = append(o.Items, Item{
		ID:          uuid.New(),
		OrderID:     o.ID,
		ProductID:   productID,
		OptionID:    optionID,
		ProductName: name,
		SKU:         sku,
		OptionLabel: optionLabel,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		LineTotal:   unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	})
	o.recalculateTotals()
	return &o.Items[len(o.Items)-1], nil
}

// ApplyDiscount records a discount code and its computed amount
func (o *Order) ApplyDiscount(discountID uuid.UUID, code string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount amount cannot be negative")
	}
	if amount.GreaterThan(o.Subtotal) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed the subtotal")
	}
	o.DiscountID = &discountID
	o.DiscountCode = code
	o.DiscountAmount = amount
	o.recalculateTotals()
	return nil
}

// ApplyLoyalty records redeemed points and their money value
func (o *Order) ApplyLoyalty(points int64, amount decimal.Decimal) error {
	if points < 0 || amount.IsNegative() {
		return shared.NewDomainError("INVALID_POINTS", "Redeemed points cannot be negative")
	}
	if amount.GreaterThan(o.Subtotal.Sub(o.DiscountAmount)) {
		return shared.NewDomainError("INVALID_POINTS", "Loyalty discount cannot exceed the discounted subtotal")
	}
	o.PointsRedeemed = points
	o.LoyaltyDiscount = amount
	o.recalculateTotals()
	return nil
}

// SetShippingFee sets the shipping fee
func (o *Order) SetShippingFee(fee decimal.Decimal) error {
	if fee.IsNegative() {
		return shared.NewDomainError("INVALID_SHIPPING_FEE", "Shipping fee cannot be negative")
	}
	o.ShippingFee = fee
	o.recalculateTotals()
	return nil
}

// SetNotes sets the customer notes
func (o *Order) SetNotes(notes string) {
	o.Notes = strings.TrimSpace(notes)
}

// Place finalizes a freshly built order and raises OrderPlaced
func (o *Order) Place() error {
	if len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot place an order without items")
	}
	if o.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot place order in %s status", o.Status))
	}
	o.recalculateTotals()
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return nil
}

// MarkPaid records payment
func (o *Order) MarkPaid() error {
	if err := o.transition(StatusPaid, "mark as paid"); err != nil {
		return err
	}
	now := time.Now()
	o.PaidAt = &now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, EventTypeOrderPaid))
	return nil
}

// StartProcessing moves a paid order into fulfilment
func (o *Order) StartProcessing() error {
	if err := o.transition(StatusProcessing, "process"); err != nil {
		return err
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, EventTypeOrderProcessing))
	return nil
}

// Ship marks the order as shipped with a carrier tracking number
func (o *Order) Ship(trackingNumber string) error {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return shared.NewDomainError("INVALID_TRACKING_NUMBER", "Tracking number is required")
	}
	if err := o.transition(StatusShipped, "ship"); err != nil {
		return err
	}
	now := time.Now()
	o.TrackingNumber = trackingNumber
	o.ShippedAt = &now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, EventTypeOrderShipped))
	return nil
}

// Deliver marks the order as delivered
func (o *Order) Deliver() error {
	if err := o.transition(StatusDelivered, "deliver"); err != nil {
		return err
	}
	now := time.Now()
	o.DeliveredAt = &now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, EventTypeOrderDelivered))
	return nil
}

// Cancel cancels the order. Stock and redeemed points are restored by the
// application service.
func (o *Order) Cancel(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}
	if err := o.transition(StatusCancelled, "cancel"); err != nil {
		return err
	}
	now := time.Now()
	o.CancelReason = reason
	o.CancelledAt = &now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, EventTypeOrderCancelled))
	return nil
}

// Refund refunds a delivered order
func (o *Order) Refund(reason string) error {
	if err := o.transition(StatusRefunded, "refund"); err != nil {
		return err
	}
	now := time.Now()
	o.CancelReason = strings.TrimSpace(reason)
	o.RefundedAt = &now
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, EventTypeOrderRefunded))
	return nil
}

// RecordPointsEarned stores the loyalty points credited for this order
func (o *Order) RecordPointsEarned(points int64) {
	o.PointsEarned = points
	o.Touch()
}

// ContainsProduct reports whether any line is for the product
func (o *Order) ContainsProduct(productID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// ItemCount returns the number of units across all lines
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// IsOwnedBy reports whether the order belongs to the user
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}

// IsTerminal returns true when no further transition is possible
func (o *Order) IsTerminal() bool {
	return o.Status == StatusCancelled || o.Status == StatusRefunded
}

func (o *Order) transition(target Status, verb string) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot %s order in %s status", verb, o.Status))
	}
	o.Status = target
	o.Touch()
	return nil
}

func (o *Order) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	o.Subtotal = subtotal
	o.Total = subtotal.Sub(o.DiscountAmount).Sub(o.LoyaltyDiscount).Add(o.ShippingFee)
	if o.Total.IsNegative() {
		o.Total = decimal.Zero
	}
}
