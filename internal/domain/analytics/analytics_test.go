package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeriod(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewPeriod(from, from)
	assert.Error(t, err)
	_, err = NewPeriod(from, from.AddDate(2, 0, 0))
	assert.Error(t, err)

	p, err := NewPeriod(from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, from, p.From)
}

func TestLastDays(t *testing.T) {
	now := time.Date(2026, 1, 10, 15, 30, 0, 0, time.UTC)
	p := LastDays(now, 7)
	assert.Equal(t, time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC), p.From)
	assert.Equal(t, time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC), p.To)
}

func TestFillDailyGaps(t *testing.T) {
	p := Period{
		From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC),
	}
	points := FillDailyGaps(p, []SalesPoint{
		{Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Revenue: decimal.NewFromInt(40), OrderCount: 2},
	})

	require.Len(t, points, 3)
	assert.True(t, points[0].Revenue.IsZero())
	assert.Equal(t, int64(2), points[1].OrderCount)
	assert.True(t, points[2].Revenue.IsZero())
}

func TestAverageOrderValue(t *testing.T) {
	assert.True(t, AverageOrderValue(decimal.NewFromInt(100), 0).IsZero())
	assert.True(t, AverageOrderValue(decimal.NewFromInt(100), 3).Equal(decimal.RequireFromString("33.33")))
}
