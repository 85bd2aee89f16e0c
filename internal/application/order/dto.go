package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
)

// AddressRequest is a shipping address submitted at checkout
type AddressRequest struct {
	RecipientName string `json:"recipient_name" binding:"required,max=100"`
	Phone         string `json:"phone" binding:"max=30"`
	Line1         string `json:"line1" binding:"required,max=200"`
	Line2         string `json:"line2" binding:"max=200"`
	City          string `json:"city" binding:"required,max=100"`
	State         string `json:"state" binding:"max=100"`
	PostalCode    string `json:"postal_code" binding:"required,max=20"`
	Country       string `json:"country" binding:"required,len=2"`
}

func (a AddressRequest) toDomain() order.ShippingAddress {
	return order.ShippingAddress{
		RecipientName: a.RecipientName,
		Phone:         a.Phone,
		Line1:         a.Line1,
		Line2:         a.Line2,
		City:          a.City,
		State:         a.State,
		PostalCode:    a.PostalCode,
		Country:       a.Country,
	}
}

// CheckoutRequest turns the cart into an order
type CheckoutRequest struct {
	ShippingAddress AddressRequest `json:"shipping_address" binding:"required"`
	PaymentMethod   string         `json:"payment_method" binding:"required,oneof=cod bank_transfer card"`
	DiscountCode    string         `json:"discount_code" binding:"omitempty,max=32"`
	PointsToRedeem  int64          `json:"points_to_redeem" binding:"min=0"`
	Notes           string         `json:"notes" binding:"max=500"`
}

// OrderListFilter represents query parameters for listing orders.
// From and To are dates in YYYY-MM-DD form; To is inclusive.
type OrderListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=pending paid processing shipped delivered cancelled refunded"`
	UserID   string `form:"user_id" binding:"omitempty,uuid"`
	From     string `form:"from"`
	To       string `form:"to"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at updated_at total number status"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ShipRequest marks an order as shipped
type ShipRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required,max=100"`
}

// CancelRequest cancels an order
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RefundRequest refunds a delivered order
type RefundRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ItemResponse represents an order line
type ItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	OptionID    *uuid.UUID      `json:"option_id,omitempty"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	OptionLabel string          `json:"option_label,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID             `json:"id"`
	Number          string                `json:"number"`
	UserID          uuid.UUID             `json:"user_id"`
	Status          string                `json:"status"`
	PaymentMethod   string                `json:"payment_method"`
	Items           []ItemResponse        `json:"items"`
	ItemCount       int                   `json:"item_count"`
	ShippingAddress order.ShippingAddress `json:"shipping_address"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	DiscountCode    string                `json:"discount_code,omitempty"`
	DiscountAmount  decimal.Decimal       `json:"discount_amount"`
	PointsRedeemed  int64                 `json:"points_redeemed"`
	LoyaltyDiscount decimal.Decimal       `json:"loyalty_discount"`
	PointsEarned    int64                 `json:"points_earned"`
	ShippingFee     decimal.Decimal       `json:"shipping_fee"`
	Total           decimal.Decimal       `json:"total"`
	TrackingNumber  string                `json:"tracking_number,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	CancelReason    string                `json:"cancel_reason,omitempty"`
	PaidAt          *time.Time            `json:"paid_at,omitempty"`
	ShippedAt       *time.Time            `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time            `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time            `json:"cancelled_at,omitempty"`
	RefundedAt      *time.Time            `json:"refunded_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]ItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = ItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			OptionID:    it.OptionID,
			ProductName: it.ProductName,
			SKU:         it.SKU,
			OptionLabel: it.OptionLabel,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.LineTotal,
		}
	}
	return OrderResponse{
		ID:              o.ID,
		Number:          o.Number,
		UserID:          o.UserID,
		Status:          string(o.Status),
		PaymentMethod:   string(o.PaymentMethod),
		Items:           items,
		ItemCount:       o.ItemCount(),
		ShippingAddress: o.ShippingAddress,
		Subtotal:        o.Subtotal,
		DiscountCode:    o.DiscountCode,
		DiscountAmount:  o.DiscountAmount,
		PointsRedeemed:  o.PointsRedeemed,
		LoyaltyDiscount: o.LoyaltyDiscount,
		PointsEarned:    o.PointsEarned,
		ShippingFee:     o.ShippingFee,
		Total:           o.Total,
		TrackingNumber:  o.TrackingNumber,
		Notes:           o.Notes,
		CancelReason:    o.CancelReason,
		PaidAt:          o.PaidAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		RefundedAt:      o.RefundedAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// InvoiceFile is a rendered invoice document
type InvoiceFile struct {
	Filename    string
	ContentType string
	Data        []byte
	// URL is set when the invoice was archived to object storage
	URL string
}
