package order

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress() ShippingAddress {
	return ShippingAddress{
		RecipientName: " Jane Doe ",
		Phone:         "555-0100",
		Line1:         "1 Main St",
		City:          "Springfield",
		PostalCode:    "12345",
		Country:       "us",
	}
}

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder("ORD-20260101-ABCDEF", uuid.New(), testAddress(), PaymentMethodCashOnDelivery)
	require.NoError(t, err)
	_, err = o.AddItem(uuid.New(), nil, "Tee", "TEE-1", "", decimal.NewFromInt(20), 2)
	require.NoError(t, err)
	_, err = o.AddItem(uuid.New(), nil, "Mug", "MUG-1", "", decimal.NewFromInt(10), 1)
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	o, err := NewOrder("ORD-1", uuid.New(), testAddress(), PaymentMethodCard)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "Jane Doe", o.ShippingAddress.RecipientName)
	assert.Equal(t, "US", o.ShippingAddress.Country)

	_, err = NewOrder("", uuid.New(), testAddress(), PaymentMethodCard)
	assert.Error(t, err)
	_, err = NewOrder("ORD-1", uuid.Nil, testAddress(), PaymentMethodCard)
	assert.Error(t, err)
	_, err = NewOrder("ORD-1", uuid.New(), ShippingAddress{}, PaymentMethodCard)
	assert.Error(t, err)
	_, err = NewOrder("ORD-1", uuid.New(), testAddress(), PaymentMethod("crypto"))
	assert.Error(t, err)
}

func TestOrder_Totals(t *testing.T) {
	o := newTestOrder(t)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(50)))

	require.NoError(t, o.ApplyDiscount(uuid.New(), "SAVE10", decimal.NewFromInt(10)))
	require.NoError(t, o.ApplyLoyalty(500, decimal.NewFromInt(5)))
	require.NoError(t, o.SetShippingFee(decimal.NewFromInt(7)))

	assert.True(t, o.Total.Equal(decimal.NewFromInt(42)), "50 - 10 - 5 + 7")
	assert.Equal(t, 3, o.ItemCount())

	assert.Error(t, o.ApplyDiscount(uuid.New(), "BIG", decimal.NewFromInt(51)))
	assert.Error(t, o.ApplyLoyalty(10000, decimal.NewFromInt(41)))
	assert.Error(t, o.SetShippingFee(decimal.NewFromInt(-1)))
}

func TestOrder_Place(t *testing.T) {
	o, err := NewOrder("ORD-1", uuid.New(), testAddress(), PaymentMethodCard)
	require.NoError(t, err)
	assert.Error(t, o.Place(), "no items")

	o = newTestOrder(t)
	require.NoError(t, o.Place())
	events := o.GetDomainEvents()
	require.Len(t, events, 1)
	placed, ok := events[0].(*OrderPlacedEvent)
	require.True(t, ok)
	assert.True(t, placed.Total.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 3, placed.ItemCount)
}

func TestOrder_HappyPathTransitions(t *testing.T) {
	o := newTestOrder(t)

	require.NoError(t, o.MarkPaid())
	assert.NotNil(t, o.PaidAt)
	_, err := o.AddItem(uuid.New(), nil, "Late", "L", "", decimal.NewFromInt(1), 1)
	assert.Error(t, err)

	require.NoError(t, o.StartProcessing())
	assert.Error(t, o.Ship(" "), "tracking number required")
	require.NoError(t, o.Ship("TRACK123"))
	assert.Equal(t, "TRACK123", o.TrackingNumber)
	require.NoError(t, o.Deliver())
	assert.NotNil(t, o.DeliveredAt)

	assert.Error(t, o.Cancel("too late"))
	require.NoError(t, o.Refund("damaged"))
	assert.True(t, o.IsTerminal())

	var types []string
	for _, e := range o.GetDomainEvents() {
		types = append(types, e.EventType())
	}
	assert.Equal(t, []string{
		EventTypeOrderPaid, EventTypeOrderProcessing, EventTypeOrderShipped,
		EventTypeOrderDelivered, EventTypeOrderRefunded,
	}, types)
}

func TestOrder_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name string
		act  func(o *Order) error
	}{
		{"ship pending", func(o *Order) error { return o.Ship("T") }},
		{"deliver pending", func(o *Order) error { return o.Deliver() }},
		{"refund pending", func(o *Order) error { return o.Refund("x") }},
		{"process pending", func(o *Order) error { return o.StartProcessing() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrder(t)
			err := tt.act(o)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "pending status")
			assert.Equal(t, StatusPending, o.Status)
		})
	}
}

func TestOrder_Cancel(t *testing.T) {
	for _, setup := range []func(o *Order){
		func(o *Order) {},
		func(o *Order) { _ = o.MarkPaid() },
		func(o *Order) { _ = o.MarkPaid(); _ = o.StartProcessing() },
	} {
		o := newTestOrder(t)
		setup(o)
		assert.Error(t, o.Cancel(""), "reason required")
		require.NoError(t, o.Cancel("changed mind"))
		assert.Equal(t, StatusCancelled, o.Status)
		assert.NotNil(t, o.CancelledAt)
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusPaid))
	assert.False(t, StatusPending.CanTransitionTo(StatusShipped))
	assert.False(t, StatusShipped.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusRefunded.CanTransitionTo(StatusPending))
	assert.True(t, StatusDelivered.CountsAsRevenue())
	assert.False(t, StatusRefunded.CountsAsRevenue())
	assert.False(t, Status("bogus").IsValid())
}

func TestNewNumber(t *testing.T) {
	now := time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)
	n, err := NewNumber(now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^ORD-20260309-[A-Z2-9]{6}$`), n)

	other, err := NewNumber(now)
	require.NoError(t, err)
	assert.NotEqual(t, n, other)
}

func TestShippingAddress_String(t *testing.T) {
	a := testAddress().Normalize()
	a.State = "IL"
	assert.Equal(t, "1 Main St, Springfield, IL 12345, US", a.String())
}
