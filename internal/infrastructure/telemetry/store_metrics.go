package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when metrics are built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Metric attribute keys
var (
	AttrPaymentMethod = attribute.Key("payment_method")
	AttrOrderAction   = attribute.Key("order_action")
	AttrPlatform      = attribute.Key("platform")
	AttrOutcome       = attribute.Key("outcome")
	AttrReason        = attribute.Key("reason")
)

// Outcomes recorded on publish and checkout counters
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// StoreMetrics holds the storefront's business counters. A nil *StoreMetrics
// records nothing, so services can call it unconditionally.
type StoreMetrics struct {
	ordersPlaced     *Counter
	orderRevenue     *Counter
	checkoutDuration *Histogram
	orderTransitions *Counter
	loginFailures    *Counter
	socialPublishes  *Counter
}

// NewStoreMetrics registers the storefront instruments on meter
func NewStoreMetrics(meter metric.Meter) (*StoreMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &StoreMetrics{}
	var err error
	if m.ordersPlaced, err = NewCounter(meter, "store_orders_placed_total",
		"Orders placed at checkout", "{orders}"); err != nil {
		return nil, err
	}
	if m.orderRevenue, err = NewCounter(meter, "store_order_revenue_total",
		"Placed order totals in minor currency units", "{cents}"); err != nil {
		return nil, err
	}
	if m.checkoutDuration, err = NewHistogram(meter, "store_checkout_duration_seconds",
		"Checkout latency", "s", DurationBuckets...); err != nil {
		return nil, err
	}
	if m.orderTransitions, err = NewCounter(meter, "store_order_transitions_total",
		"Order status changes by action", "{transitions}"); err != nil {
		return nil, err
	}
	if m.loginFailures, err = NewCounter(meter, "store_login_failures_total",
		"Rejected logins by reason", "{attempts}"); err != nil {
		return nil, err
	}
	if m.socialPublishes, err = NewCounter(meter, "store_social_publishes_total",
		"Social post deliveries by platform and outcome", "{posts}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordCheckout records one checkout attempt. Successful checkouts also
// count the order and its total.
func (m *StoreMetrics) RecordCheckout(ctx context.Context, paymentMethod string, total decimal.Decimal, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.checkoutDuration.RecordDuration(ctx, elapsed, AttrOutcome.String(outcome))
	if err != nil {
		return
	}
	method := AttrPaymentMethod.String(paymentMethod)
	m.ordersPlaced.Inc(ctx, method)
	m.orderRevenue.Add(ctx, total.Shift(2).Round(0).IntPart(), method)
}

// RecordOrderTransition counts an applied order action such as "ship"
func (m *StoreMetrics) RecordOrderTransition(ctx context.Context, action string) {
	if m == nil {
		return
	}
	m.orderTransitions.Inc(ctx, AttrOrderAction.String(action))
}

// RecordLoginFailure counts a rejected login. Reasons are a small fixed set
// such as "bad_password" or "locked".
func (m *StoreMetrics) RecordLoginFailure(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.loginFailures.Inc(ctx, AttrReason.String(reason))
}

// RecordSocialPublish counts one platform delivery
func (m *StoreMetrics) RecordSocialPublish(ctx context.Context, platform string, succeeded bool) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !succeeded {
		outcome = OutcomeFailure
	}
	m.socialPublishes.Inc(ctx, AttrPlatform.String(platform), AttrOutcome.String(outcome))
}
