package printing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$0.00", formatMoney(decimal.Zero))
	assert.Equal(t, "$19.99", formatMoney(decimal.RequireFromString("19.99")))
	assert.Equal(t, "$5.10", formatMoney(decimal.RequireFromString("5.1")))
	assert.Equal(t, "-$3.50", formatMoney(decimal.RequireFromString("-3.5")))
	assert.Equal(t, "$1,234,567.00", formatMoney(decimal.NewFromInt(1234567)))
	assert.Equal(t, "$2.00", formatMoney(decimal.RequireFromString("1.999")))
}

func TestRenderInvoiceHTML(t *testing.T) {
	data := InvoiceData{
		CompanyName:     "Acme Store",
		Number:          "ORD-20240101-ABCDEF",
		Status:          "paid",
		PaymentMethod:   "bank_transfer",
		IssuedAt:        time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		CustomerName:    "Jane <Doe>",
		CustomerEmail:   "jane@example.com",
		ShippingAddress: "1 Main St, Springfield 12345, US",
		Lines: []InvoiceLine{
			{Name: "T-Shirt", SKU: "TS-RED", OptionLabel: "Color: Red", UnitPrice: decimal.NewFromInt(20), Quantity: 2, LineTotal: decimal.NewFromInt(40)},
		},
		Subtotal:        decimal.NewFromInt(40),
		DiscountCode:    "SAVE10",
		DiscountAmount:  decimal.NewFromInt(4),
		ShippingFee:     decimal.NewFromInt(5),
		Total:           decimal.NewFromInt(41),
		LoyaltyDiscount: decimal.Zero,
	}

	html, err := RenderInvoiceHTML(data)
	require.NoError(t, err)
	assert.Contains(t, html, "Invoice ORD-20240101-ABCDEF")
	assert.Contains(t, html, "January 1, 2024")
	assert.Contains(t, html, "Jane &lt;Doe&gt;", "customer input is escaped")
	assert.Contains(t, html, "Bank Transfer")
	assert.Contains(t, html, "Color: Red")
	assert.Contains(t, html, "Discount (SAVE10)")
	assert.Contains(t, html, "-$4.00")
	assert.Contains(t, html, "<strong>$41.00</strong>")
	assert.NotContains(t, html, "Loyalty points")
}
