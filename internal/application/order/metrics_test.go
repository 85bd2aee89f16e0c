package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func counterTotals(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	return totals
}

func TestService_RecordsCheckoutAndTransitionMetrics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reader := sdkmetric.NewManualReader()
	metrics, err := telemetry.NewStoreMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)
	f.svc.SetMetrics(metrics)

	userID := uuid.New()
	f.addToCart(t, userID, f.product(t, "LAMP", 40, 3), 1)
	o, err := f.svc.Checkout(ctx, userID, checkoutRequest(), "")
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(ctx, o.ID)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, uuid.New(), checkoutRequest(), "")
	require.Error(t, err, "empty cart")

	totals := counterTotals(t, reader)
	assert.Equal(t, int64(1), totals["store_orders_placed_total"])
	assert.Equal(t, o.Total.Shift(2).IntPart(), totals["store_order_revenue_total"])
	assert.Equal(t, int64(1), totals["store_order_transitions_total"])
}
