package promotion

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// DiscountType is how a discount value is interpreted
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// IsValid checks if the discount type is known
func (t DiscountType) IsValid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixed
}

var discountCodePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{2,31}$`)

var hundred = decimal.NewFromInt(100)

// Discount is a redeemable discount code
type Discount struct {
	shared.BaseAggregateRoot
	Code           string
	Description    string
	Type           DiscountType
	Value          decimal.Decimal
	MinOrderAmount decimal.Decimal
	// MaxDiscountAmount caps percentage discounts. Zero means no cap.
	MaxDiscountAmount decimal.Decimal
	// UsageLimit is the total number of redemptions. Zero means unlimited.
	UsageLimit int
	// PerUserLimit is the number of redemptions per user. Zero means unlimited.
	PerUserLimit int
	UsedCount    int
	StartsAt     *time.Time
	EndsAt       *time.Time
	Active       bool
}

// NewDiscount creates an active discount
func NewDiscount(code string, discountType DiscountType, value decimal.Decimal) (*Discount, error) {
	d := &Discount{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MinOrderAmount:    decimal.Zero,
		MaxDiscountAmount: decimal.Zero,
		Active:            true,
	}
	if err := d.setCode(code); err != nil {
		return nil, err
	}
	if err := d.SetValue(discountType, value); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Discount) setCode(code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !discountCodePattern.MatchString(code) {
		return shared.NewDomainError("INVALID_CODE", "Discount code must be 3-32 characters of letters, digits, '-' or '_'")
	}
	d.Code = code
	return nil
}

// SetValue sets the type and value
func (d *Discount) SetValue(discountType DiscountType, value decimal.Decimal) error {
	if !discountType.IsValid() {
		return shared.NewDomainError("INVALID_DISCOUNT_TYPE", fmt.Sprintf("Unknown discount type: %s", discountType))
	}
	if !value.IsPositive() {
		return shared.NewDomainError("INVALID_VALUE", "Discount value must be positive")
	}
	if discountType == DiscountTypePercentage && value.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_VALUE", "Percentage cannot exceed 100")
	}
	d.Type = discountType
	d.Value = value
	d.Touch()
	return nil
}

// SetConditions sets the order amount threshold and the percentage cap
func (d *Discount) SetConditions(minOrder, maxDiscount decimal.Decimal) error {
	if minOrder.IsNegative() || maxDiscount.IsNegative() {
		return shared.NewDomainError("INVALID_VALUE", "Amounts cannot be negative")
	}
	d.MinOrderAmount = minOrder
	d.MaxDiscountAmount = maxDiscount
	d.Touch()
	return nil
}

// SetLimits sets the total and per-user usage limits
func (d *Discount) SetLimits(usageLimit, perUserLimit int) error {
	if usageLimit < 0 || perUserLimit < 0 {
		return shared.NewDomainError("INVALID_LIMIT", "Usage limits cannot be negative")
	}
	if usageLimit > 0 && usageLimit < d.UsedCount {
		return shared.NewDomainError("INVALID_LIMIT", "Usage limit cannot be lower than the current usage")
	}
	d.UsageLimit = usageLimit
	d.PerUserLimit = perUserLimit
	d.Touch()
	return nil
}

// SetWindow sets the validity window. Either bound may be nil.
func (d *Discount) SetWindow(startsAt, endsAt *time.Time) error {
	if startsAt != nil && endsAt != nil && !endsAt.After(*startsAt) {
		return shared.NewDomainError("INVALID_WINDOW", "End time must be after start time")
	}
	d.StartsAt = startsAt
	d.EndsAt = endsAt
	d.Touch()
	return nil
}

// SetDescription sets the description
func (d *Discount) SetDescription(description string) {
	d.Description = strings.TrimSpace(description)
	d.Touch()
}

// Activate enables the discount
func (d *Discount) Activate() {
	d.Active = true
	d.Touch()
}

// Deactivate disables the discount
func (d *Discount) Deactivate() {
	d.Active = false
	d.Touch()
}

// IsExhausted reports whether the total usage limit has been reached
func (d *Discount) IsExhausted() bool {
	return d.UsageLimit > 0 && d.UsedCount >= d.UsageLimit
}

// CheckUsable validates that the discount can be applied to an order with the
// given subtotal by a user who has already used it userUses times
func (d *Discount) CheckUsable(now time.Time, subtotal decimal.Decimal, userUses int) error {
	if !d.Active {
		return shared.NewDomainError("DISCOUNT_INACTIVE", "Discount code is not active")
	}
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return shared.NewDomainError("DISCOUNT_NOT_STARTED", "Discount code is not valid yet")
	}
	if d.EndsAt != nil && !now.Before(*d.EndsAt) {
		return shared.NewDomainError("DISCOUNT_EXPIRED", "Discount code has expired")
	}
	if d.IsExhausted() {
		return shared.NewDomainError("DISCOUNT_EXHAUSTED", "Discount code usage limit reached")
	}
	if d.PerUserLimit > 0 && userUses >= d.PerUserLimit {
		return shared.NewDomainError("DISCOUNT_USER_LIMIT", "You have already used this discount code")
	}
	if subtotal.LessThan(d.MinOrderAmount) {
		return shared.NewDomainError("DISCOUNT_MIN_ORDER",
			fmt.Sprintf("Order subtotal must be at least %s", d.MinOrderAmount.StringFixed(2)))
	}
	return nil
}

// Calculate returns the discount amount for a subtotal. The result never
// exceeds the subtotal.
func (d *Discount) Calculate(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	var amount decimal.Decimal
	switch d.Type {
	case DiscountTypePercentage:
		amount = subtotal.Mul(d.Value).Div(hundred).Round(2)
		if d.MaxDiscountAmount.IsPositive() && amount.GreaterThan(d.MaxDiscountAmount) {
			amount = d.MaxDiscountAmount
		}
	case DiscountTypeFixed:
		amount = d.Value
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return amount
}

// RecordUsage increments the usage count
func (d *Discount) RecordUsage() error {
	if d.IsExhausted() {
		return shared.NewDomainError("DISCOUNT_EXHAUSTED", "Discount code usage limit reached")
	}
	d.UsedCount++
	d.Touch()
	return nil
}

// ReleaseUsage decrements the usage count after a cancelled order
func (d *Discount) ReleaseUsage() {
	if d.UsedCount > 0 {
		d.UsedCount--
		d.Touch()
	}
}

// DiscountUsage records one redemption of a discount
type DiscountUsage struct {
	ID         uuid.UUID
	DiscountID uuid.UUID
	UserID     uuid.UUID
	OrderID    uuid.UUID
	Amount     decimal.Decimal
	CreatedAt  time.Time
}

// NewDiscountUsage creates a usage record
func NewDiscountUsage(discountID, userID, orderID uuid.UUID, amount decimal.Decimal) *DiscountUsage {
	return &DiscountUsage{
		ID:         uuid.New(),
		DiscountID: discountID,
		UserID:     userID,
		OrderID:    orderID,
		Amount:     amount,
		CreatedAt:  time.Now(),
	}
}
