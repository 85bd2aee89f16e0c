package promotion

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Tier is a loyalty tier derived from lifetime points
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// Lifetime point thresholds for each tier
const (
	SilverThreshold   int64 = 1000
	GoldThreshold     int64 = 5000
	PlatinumThreshold int64 = 20000
)

// TierFor returns the tier for a lifetime points total
func TierFor(lifetime int64) Tier {
	switch {
	case lifetime >= PlatinumThreshold:
		return TierPlatinum
	case lifetime >= GoldThreshold:
		return TierGold
	case lifetime >= SilverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// TransactionType classifies a loyalty ledger entry
type TransactionType string

const (
	TransactionEarn    TransactionType = "earn"
	TransactionRedeem  TransactionType = "redeem"
	TransactionAdjust  TransactionType = "adjust"
	TransactionReverse TransactionType = "reverse"
)

// Transaction is an entry in a loyalty account ledger
type Transaction struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	Type         TransactionType
	Points       int64
	BalanceAfter int64
	OrderID      *uuid.UUID
	Reason       string
	CreatedAt    time.Time
}

// LoyaltyAccount holds a user's points balance
type LoyaltyAccount struct {
	shared.BaseAggregateRoot
	UserID         uuid.UUID
	Balance        int64
	LifetimeEarned int64
	Tier           Tier
	// pending ledger entries produced since load, persisted with the account
	pending []Transaction
}

// NewLoyaltyAccount creates an empty bronze account
func NewLoyaltyAccount(userID uuid.UUID) (*LoyaltyAccount, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	return &LoyaltyAccount{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Tier:              TierBronze,
	}, nil
}

// Earn credits points for an order
func (a *LoyaltyAccount) Earn(points int64, orderID *uuid.UUID, reason string) error {
	if points <= 0 {
		return shared.NewDomainError("INVALID_POINTS", "Points to earn must be positive")
	}
	a.Balance += points
	a.LifetimeEarned += points
	a.record(TransactionEarn, points, orderID, reason)
	return nil
}

// Redeem debits points
func (a *LoyaltyAccount) Redeem(points int64, orderID *uuid.UUID, reason string) error {
	if points <= 0 {
		return shared.NewDomainError("INVALID_POINTS", "Points to redeem must be positive")
	}
	if points > a.Balance {
		return shared.ErrInsufficientBalance
	}
	a.Balance -= points
	a.record(TransactionRedeem, -points, orderID, reason)
	return nil
}

// Adjust applies a signed manual correction
func (a *LoyaltyAccount) Adjust(points int64, reason string) error {
	if points == 0 {
		return shared.NewDomainError("INVALID_POINTS", "Adjustment cannot be zero")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_REASON", "Adjustment reason is required")
	}
	if a.Balance+points < 0 {
		return shared.ErrInsufficientBalance
	}
	a.Balance += points
	if points > 0 {
		a.LifetimeEarned += points
	}
	a.record(TransactionAdjust, points, nil, reason)
	return nil
}

// Reverse undoes a previous earn or redeem. Positive points give back redeemed
// points; negative points take back earned points, clamped at the balance.
func (a *LoyaltyAccount) Reverse(points int64, orderID *uuid.UUID, reason string) (int64, error) {
	if points == 0 {
		return 0, shared.NewDomainError("INVALID_POINTS", "Reversal cannot be zero")
	}
	if points < 0 {
		if -points > a.Balance {
			points = -a.Balance
		}
		a.LifetimeEarned += points
		if a.LifetimeEarned < 0 {
			a.LifetimeEarned = 0
		}
	}
	a.Balance += points
	a.record(TransactionReverse, points, orderID, reason)
	return points, nil
}

// PendingTransactions returns ledger entries not yet persisted
func (a *LoyaltyAccount) PendingTransactions() []Transaction {
	return a.pending
}

// ClearPendingTransactions drops ledger entries after they are persisted
func (a *LoyaltyAccount) ClearPendingTransactions() {
	a.pending = nil
}

func (a *LoyaltyAccount) record(t TransactionType, points int64, orderID *uuid.UUID, reason string) {
	a.Tier = TierFor(a.LifetimeEarned)
	a.pending = append(a.pending, Transaction{
		ID:           uuid.New(),
		AccountID:    a.ID,
		Type:         t,
		Points:       points,
		BalanceAfter: a.Balance,
		OrderID:      orderID,
		Reason:       reason,
		CreatedAt:    time.Now(),
	})
	a.Touch()
}

// Policy converts between points and money
type Policy struct {
	// PointsPerUnit is the number of points earned per currency unit spent
	PointsPerUnit decimal.Decimal
	// PointValue is the money value of one point when redeemed
	PointValue decimal.Decimal
	// MaxRedeemRatio is the largest share of an order payable with points
	MaxRedeemRatio decimal.Decimal
}

// DefaultPolicy earns one point per unit and redeems 100 points per unit, up
// to half of an order
func DefaultPolicy() Policy {
	return Policy{
		PointsPerUnit:  decimal.NewFromInt(1),
		PointValue:     decimal.NewFromFloat(0.01),
		MaxRedeemRatio: decimal.NewFromFloat(0.5),
	}
}

// Validate checks the policy values
func (p Policy) Validate() error {
	if p.PointsPerUnit.IsNegative() {
		return fmt.Errorf("points per unit cannot be negative")
	}
	if !p.PointValue.IsPositive() {
		return fmt.Errorf("point value must be positive")
	}
	if p.MaxRedeemRatio.IsNegative() || p.MaxRedeemRatio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("max redeem ratio must be between 0 and 1")
	}
	return nil
}

// PointsFor returns the points earned for an order total, rounded down
func (p Policy) PointsFor(total decimal.Decimal) int64 {
	if !total.IsPositive() {
		return 0
	}
	return total.Mul(p.PointsPerUnit).Floor().IntPart()
}

// ValueOf returns the money value of points
func (p Policy) ValueOf(points int64) decimal.Decimal {
	return decimal.NewFromInt(points).Mul(p.PointValue).Round(2)
}

// MaxRedeemablePoints returns the largest number of points usable against an
// order amount
func (p Policy) MaxRedeemablePoints(amount decimal.Decimal) int64 {
	if !amount.IsPositive() {
		return 0
	}
	return amount.Mul(p.MaxRedeemRatio).Div(p.PointValue).Floor().IntPart()
}
