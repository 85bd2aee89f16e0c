package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// AggregateTypeOrder is the aggregate type for orders
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderPlaced     = "OrderPlaced"
	EventTypeOrderPaid       = "OrderPaid"
	EventTypeOrderProcessing = "OrderProcessing"
	EventTypeOrderShipped    = "OrderShipped"
	EventTypeOrderDelivered  = "OrderDelivered"
	EventTypeOrderCancelled  = "OrderCancelled"
	EventTypeOrderRefunded   = "OrderRefunded"
)

// AllEventTypes lists every order lifecycle event type
func AllEventTypes() []string {
	return []string{
		EventTypeOrderPlaced,
		EventTypeOrderPaid,
		EventTypeOrderProcessing,
		EventTypeOrderShipped,
		EventTypeOrderDelivered,
		EventTypeOrderCancelled,
		EventTypeOrderRefunded,
	}
}

// OrderPlacedEvent is published after checkout commits
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	Number         string          `json:"number"`
	UserID         uuid.UUID       `json:"user_id"`
	Total          decimal.Decimal `json:"total"`
	ItemCount      int             `json:"item_count"`
	DiscountCode   string          `json:"discount_code,omitempty"`
	PointsRedeemed int64           `json:"points_redeemed"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID),
		Number:          o.Number,
		UserID:          o.UserID,
		Total:           o.Total,
		ItemCount:       o.ItemCount(),
		DiscountCode:    o.DiscountCode,
		PointsRedeemed:  o.PointsRedeemed,
	}
}

// OrderStatusChangedEvent is published on every status transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	Number         string          `json:"number"`
	UserID         uuid.UUID       `json:"user_id"`
	Status         Status          `json:"status"`
	Total          decimal.Decimal `json:"total"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	Reason         string          `json:"reason,omitempty"`
}

// NewOrderStatusChangedEvent creates an event of the given transition type
func NewOrderStatusChangedEvent(o *Order, eventType string) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeOrder, o.ID),
		Number:          o.Number,
		UserID:          o.UserID,
		Status:          o.Status,
		Total:           o.Total,
		TrackingNumber:  o.TrackingNumber,
		Reason:          o.CancelReason,
	}
}
