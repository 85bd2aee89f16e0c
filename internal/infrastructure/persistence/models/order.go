package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
)

// ShippingAddressModel is embedded into orders with a ship_ column prefix
type ShippingAddressModel struct {
	RecipientName string `gorm:"type:varchar(100)"`
	Phone         string `gorm:"type:varchar(50)"`
	Line1         string `gorm:"type:varchar(200)"`
	Line2         string `gorm:"type:varchar(200)"`
	City          string `gorm:"type:varchar(100)"`
	State         string `gorm:"type:varchar(100)"`
	PostalCode    string `gorm:"type:varchar(20)"`
	Country       string `gorm:"type:varchar(2)"`
}

// OrderModel is the persistence model for the Order aggregate
type OrderModel struct {
	AggregateModel
	Number          string               `gorm:"type:varchar(32);not null;uniqueIndex"`
	UserID          uuid.UUID            `gorm:"type:uuid;not null;index"`
	ShippingAddress ShippingAddressModel `gorm:"embedded;embeddedPrefix:ship_"`
	Subtotal        decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	DiscountID      *uuid.UUID           `gorm:"type:uuid;index"`
	DiscountCode    string               `gorm:"type:varchar(32)"`
	DiscountAmount  decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	PointsRedeemed  int64                `gorm:"not null;default:0"`
	LoyaltyDiscount decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	PointsEarned    int64                `gorm:"not null;default:0"`
	ShippingFee     decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	Total           decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Status          order.Status         `gorm:"type:varchar(20);not null;index"`
	PaymentMethod   order.PaymentMethod  `gorm:"type:varchar(20);not null"`
	TrackingNumber  string               `gorm:"type:varchar(100)"`
	Notes           string               `gorm:"type:text"`
	CancelReason    string               `gorm:"type:varchar(500)"`
	PaidAt          *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	RefundedAt      *time.Time
	Items           []OrderItemModel `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the model and its items to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	a := m.ShippingAddress
	o := &order.Order{
		BaseAggregateRoot: m.AggregateRoot(),
		Number:            m.Number,
		UserID:            m.UserID,
		ShippingAddress: order.ShippingAddress{
			RecipientName: a.RecipientName,
			Phone:         a.Phone,
			Line1:         a.Line1,
			Line2:         a.Line2,
			City:          a.City,
			State:         a.State,
			PostalCode:    a.PostalCode,
			Country:       a.Country,
		},
		Subtotal:        m.Subtotal,
		DiscountID:      m.DiscountID,
		DiscountCode:    m.DiscountCode,
		DiscountAmount:  m.DiscountAmount,
		PointsRedeemed:  m.PointsRedeemed,
		LoyaltyDiscount: m.LoyaltyDiscount,
		PointsEarned:    m.PointsEarned,
		ShippingFee:     m.ShippingFee,
		Total:           m.Total,
		Status:          m.Status,
		PaymentMethod:   m.PaymentMethod,
		TrackingNumber:  m.TrackingNumber,
		Notes:           m.Notes,
		CancelReason:    m.CancelReason,
		PaidAt:          m.PaidAt,
		ShippedAt:       m.ShippedAt,
		DeliveredAt:     m.DeliveredAt,
		CancelledAt:     m.CancelledAt,
		RefundedAt:      m.RefundedAt,
		Items:           make([]order.Item, 0, len(m.Items)),
	}
	for _, it := range m.Items {
		o.Items = append(o.Items, order.Item{
			ID:          it.ID,
			OrderID:     it.OrderID,
			ProductID:   it.ProductID,
			OptionID:    it.OptionID,
			ProductName: it.ProductName,
			SKU:         it.SKU,
			OptionLabel: it.OptionLabel,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		})
	}
	return o
}

// OrderModelFromDomain creates a model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	a := o.ShippingAddress
	m := &OrderModel{
		Number: o.Number,
		UserID: o.UserID,
		ShippingAddress: ShippingAddressModel{
			RecipientName: a.RecipientName,
			Phone:         a.Phone,
			Line1:         a.Line1,
			Line2:         a.Line2,
			City:          a.City,
			State:         a.State,
			PostalCode:    a.PostalCode,
			Country:       a.Country,
		},
		Subtotal:        o.Subtotal,
		DiscountID:      o.DiscountID,
		DiscountCode:    o.DiscountCode,
		DiscountAmount:  o.DiscountAmount,
		PointsRedeemed:  o.PointsRedeemed,
		LoyaltyDiscount: o.LoyaltyDiscount,
		PointsEarned:    o.PointsEarned,
		ShippingFee:     o.ShippingFee,
		Total:           o.Total,
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		TrackingNumber:  o.TrackingNumber,
		Notes:           o.Notes,
		CancelReason:    o.CancelReason,
		PaidAt:          o.PaidAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		RefundedAt:      o.RefundedAt,
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	for _, it := range o.Items {
		m.Items = append(m.Items, OrderItemModel{
			ID:          it.ID,
			OrderID:     o.ID,
			ProductID:   it.ProductID,
			OptionID:    it.OptionID,
			ProductName: it.ProductName,
			SKU:         it.SKU,
			OptionLabel: it.OptionLabel,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		})
	}
	return m
}

// OrderItemModel is a line of an order. Product details are copied at
// checkout so later catalog edits do not change past orders.
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	OptionID    *uuid.UUID      `gorm:"type:uuid"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	SKU         string          `gorm:"type:varchar(100);not null"`
	OptionLabel string          `gorm:"type:varchar(100)"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Quantity    int             `gorm:"not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}
