package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/promotion"
)

// DiscountModel is the persistence model for discount codes
type DiscountModel struct {
	AggregateModel
	Code              string                 `gorm:"type:varchar(32);not null;uniqueIndex"`
	Description       string                 `gorm:"type:varchar(500)"`
	Type              promotion.DiscountType `gorm:"type:varchar(20);not null"`
	Value             decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	MinOrderAmount    decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	MaxDiscountAmount decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	UsageLimit        int                    `gorm:"not null;default:0"`
	PerUserLimit      int                    `gorm:"not null;default:0"`
	UsedCount         int                    `gorm:"not null;default:0"`
	StartsAt          *time.Time
	EndsAt            *time.Time
	Active            bool `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (DiscountModel) TableName() string {
	return "discounts"
}

// ToDomain converts the model to a domain Discount
func (m *DiscountModel) ToDomain() *promotion.Discount {
	return &promotion.Discount{
		BaseAggregateRoot: m.AggregateRoot(),
		Code:              m.Code,
		Description:       m.Description,
		Type:              m.Type,
		Value:             m.Value,
		MinOrderAmount:    m.MinOrderAmount,
		MaxDiscountAmount: m.MaxDiscountAmount,
		UsageLimit:        m.UsageLimit,
		PerUserLimit:      m.PerUserLimit,
		UsedCount:         m.UsedCount,
		StartsAt:          m.StartsAt,
		EndsAt:            m.EndsAt,
		Active:            m.Active,
	}
}

// DiscountModelFromDomain creates a model from a domain Discount
func DiscountModelFromDomain(d *promotion.Discount) *DiscountModel {
	m := &DiscountModel{
		Code:              d.Code,
		Description:       d.Description,
		Type:              d.Type,
		Value:             d.Value,
		MinOrderAmount:    d.MinOrderAmount,
		MaxDiscountAmount: d.MaxDiscountAmount,
		UsageLimit:        d.UsageLimit,
		PerUserLimit:      d.PerUserLimit,
		UsedCount:         d.UsedCount,
		StartsAt:          d.StartsAt,
		EndsAt:            d.EndsAt,
		Active:            d.Active,
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	return m
}

// DiscountUsageModel records one redemption of a discount by an order
type DiscountUsageModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	DiscountID uuid.UUID       `gorm:"type:uuid;not null;index:idx_discount_usage_user,priority:1"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_discount_usage_user,priority:2"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DiscountUsageModel) TableName() string {
	return "discount_usages"
}

// LoyaltyAccountModel is the persistence model for a loyalty account
type LoyaltyAccountModel struct {
	AggregateModel
	UserID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	Balance        int64          `gorm:"not null;default:0"`
	LifetimeEarned int64          `gorm:"not null;default:0"`
	Tier           promotion.Tier `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (LoyaltyAccountModel) TableName() string {
	return "loyalty_accounts"
}

// ToDomain converts the model to a domain LoyaltyAccount
func (m *LoyaltyAccountModel) ToDomain() *promotion.LoyaltyAccount {
	return &promotion.LoyaltyAccount{
		BaseAggregateRoot: m.AggregateRoot(),
		UserID:            m.UserID,
		Balance:           m.Balance,
		LifetimeEarned:    m.LifetimeEarned,
		Tier:              m.Tier,
	}
}

// LoyaltyAccountModelFromDomain creates a model from a domain LoyaltyAccount
func LoyaltyAccountModelFromDomain(a *promotion.LoyaltyAccount) *LoyaltyAccountModel {
	m := &LoyaltyAccountModel{
		UserID:         a.UserID,
		Balance:        a.Balance,
		LifetimeEarned: a.LifetimeEarned,
		Tier:           a.Tier,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// LoyaltyTransactionModel is an append-only points ledger entry
type LoyaltyTransactionModel struct {
	ID           uuid.UUID                 `gorm:"type:uuid;primary_key"`
	AccountID    uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Type         promotion.TransactionType `gorm:"type:varchar(20);not null"`
	Points       int64                     `gorm:"not null"`
	BalanceAfter int64                     `gorm:"not null"`
	OrderID      *uuid.UUID                `gorm:"type:uuid;index"`
	Reason       string                    `gorm:"type:varchar(500)"`
	CreatedAt    time.Time                 `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (LoyaltyTransactionModel) TableName() string {
	return "loyalty_transactions"
}

// ToDomain converts the model to a domain Transaction
func (m *LoyaltyTransactionModel) ToDomain() promotion.Transaction {
	return promotion.Transaction{
		ID:           m.ID,
		AccountID:    m.AccountID,
		Type:         m.Type,
		Points:       m.Points,
		BalanceAfter: m.BalanceAfter,
		OrderID:      m.OrderID,
		Reason:       m.Reason,
		CreatedAt:    m.CreatedAt,
	}
}

// LoyaltyTransactionModelFromDomain creates a model from a domain Transaction
func LoyaltyTransactionModelFromDomain(t promotion.Transaction) *LoyaltyTransactionModel {
	return &LoyaltyTransactionModel{
		ID:           t.ID,
		AccountID:    t.AccountID,
		Type:         t.Type,
		Points:       t.Points,
		BalanceAfter: t.BalanceAfter,
		OrderID:      t.OrderID,
		Reason:       t.Reason,
		CreatedAt:    t.CreatedAt,
	}
}
