package promotion

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/promotion"
)

// CreateDiscountRequest represents a request to create a discount code
type CreateDiscountRequest struct {
	Code              string           `json:"code" binding:"required,min=3,max=32"`
	Description       string           `json:"description" binding:"max=500"`
	Type              string           `json:"type" binding:"required,oneof=percentage fixed"`
	Value             decimal.Decimal  `json:"value" binding:"required"`
	MinOrderAmount    *decimal.Decimal `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	UsageLimit        int              `json:"usage_limit" binding:"min=0"`
	PerUserLimit      int              `json:"per_user_limit" binding:"min=0"`
	StartsAt          *time.Time       `json:"starts_at"`
	EndsAt            *time.Time       `json:"ends_at"`
	Inactive          bool             `json:"inactive"`
}

// UpdateDiscountRequest represents a full update of a discount's terms.
// The code itself cannot change once issued.
type UpdateDiscountRequest struct {
	Description       string           `json:"description" binding:"max=500"`
	Type              string           `json:"type" binding:"required,oneof=percentage fixed"`
	Value             decimal.Decimal  `json:"value" binding:"required"`
	MinOrderAmount    *decimal.Decimal `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	UsageLimit        int              `json:"usage_limit" binding:"min=0"`
	PerUserLimit      int              `json:"per_user_limit" binding:"min=0"`
	StartsAt          *time.Time       `json:"starts_at"`
	EndsAt            *time.Time       `json:"ends_at"`
}

// DiscountListFilter represents query parameters for listing discounts
type DiscountListFilter struct {
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at code ends_at used_count"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ValidateDiscountRequest checks a code against a cart subtotal
type ValidateDiscountRequest struct {
	Code     string          `json:"code" binding:"required"`
	Subtotal decimal.Decimal `json:"subtotal" binding:"required"`
}

// DiscountResponse represents a discount in API responses
type DiscountResponse struct {
	ID                uuid.UUID       `json:"id"`
	Code              string          `json:"code"`
	Description       string          `json:"description"`
	Type              string          `json:"type"`
	Value             decimal.Decimal `json:"value"`
	MinOrderAmount    decimal.Decimal `json:"min_order_amount"`
	MaxDiscountAmount decimal.Decimal `json:"max_discount_amount"`
	UsageLimit        int             `json:"usage_limit"`
	PerUserLimit      int             `json:"per_user_limit"`
	UsedCount         int             `json:"used_count"`
	StartsAt          *time.Time      `json:"starts_at,omitempty"`
	EndsAt            *time.Time      `json:"ends_at,omitempty"`
	Active            bool            `json:"active"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ToDiscountResponse converts a domain discount to a response
func ToDiscountResponse(d *promotion.Discount) DiscountResponse {
	return DiscountResponse{
		ID:                d.ID,
		Code:              d.Code,
		Description:       d.Description,
		Type:              string(d.Type),
		Value:             d.Value,
		MinOrderAmount:    d.MinOrderAmount,
		MaxDiscountAmount: d.MaxDiscountAmount,
		UsageLimit:        d.UsageLimit,
		PerUserLimit:      d.PerUserLimit,
		UsedCount:         d.UsedCount,
		StartsAt:          d.StartsAt,
		EndsAt:            d.EndsAt,
		Active:            d.Active,
		CreatedAt:         d.CreatedAt,
	}
}

// DiscountQuote is the outcome of validating a code against a subtotal
type DiscountQuote struct {
	DiscountID uuid.UUID       `json:"discount_id"`
	Code       string          `json:"code"`
	Type       string          `json:"type"`
	Value      decimal.Decimal `json:"value"`
	Amount     decimal.Decimal `json:"amount"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// AdjustPointsRequest is a manual loyalty correction by an administrator
type AdjustPointsRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Points int64     `json:"points" binding:"required,ne=0"`
	Reason string    `json:"reason" binding:"required,max=200"`
}

// AccountResponse represents a loyalty account in API responses
type AccountResponse struct {
	UserID           uuid.UUID       `json:"user_id"`
	Balance          int64           `json:"balance"`
	BalanceValue     decimal.Decimal `json:"balance_value"`
	LifetimeEarned   int64           `json:"lifetime_earned"`
	Tier             string          `json:"tier"`
	NextTier         string          `json:"next_tier,omitempty"`
	PointsToNextTier int64           `json:"points_to_next_tier,omitempty"`
}

// TransactionResponse represents a loyalty ledger entry
type TransactionResponse struct {
	ID           uuid.UUID  `json:"id"`
	Type         string     `json:"type"`
	Points       int64      `json:"points"`
	BalanceAfter int64      `json:"balance_after"`
	OrderID      *uuid.UUID `json:"order_id,omitempty"`
	Reason       string     `json:"reason"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toAccountResponse(a *promotion.LoyaltyAccount, policy promotion.Policy) AccountResponse {
	resp := AccountResponse{
		UserID:         a.UserID,
		Balance:        a.Balance,
		BalanceValue:   policy.ValueOf(a.Balance),
		LifetimeEarned: a.LifetimeEarned,
		Tier:           string(a.Tier),
	}
	var next promotion.Tier
	var threshold int64
	switch a.Tier {
	case promotion.TierBronze:
		next, threshold = promotion.TierSilver, promotion.SilverThreshold
	case promotion.TierSilver:
		next, threshold = promotion.TierGold, promotion.GoldThreshold
	case promotion.TierGold:
		next, threshold = promotion.TierPlatinum, promotion.PlatinumThreshold
	}
	if next != "" {
		resp.NextTier = string(next)
		resp.PointsToNextTier = threshold - a.LifetimeEarned
	}
	return resp
}

func toTransactionResponse(t promotion.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID,
		Type:         string(t.Type),
		Points:       t.Points,
		BalanceAfter: t.BalanceAfter,
		OrderID:      t.OrderID,
		Reason:       t.Reason,
		CreatedAt:    t.CreatedAt,
	}
}

// TransactionListFilter pages through a loyalty ledger
type TransactionListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}
