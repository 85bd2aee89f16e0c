package promotion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/promotion"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected a domain error, got %v", err)
	require.Equal(t, code, de.Code)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestDiscountService_CreateAndDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := NewDiscountService(persistence.NewGormDiscountRepository(newTestDB(t)), zap.NewNop())

	resp, err := svc.Create(ctx, CreateDiscountRequest{Code: "summer10", Type: "percentage", Value: dec("10")})
	require.NoError(t, err)
	assert.Equal(t, "SUMMER10", resp.Code)
	assert.True(t, resp.Active)

	_, err = svc.Create(ctx, CreateDiscountRequest{Code: "SUMMER10", Type: "fixed", Value: dec("5")})
	requireCode(t, err, "ALREADY_EXISTS")

	_, err = svc.Create(ctx, CreateDiscountRequest{Code: "BIG", Type: "percentage", Value: dec("150")})
	requireCode(t, err, "INVALID_VALUE")

	start := time.Now().Add(time.Hour)
	end := start.Add(-time.Minute)
	_, err = svc.Create(ctx, CreateDiscountRequest{Code: "WINDOW", Type: "fixed", Value: dec("5"), StartsAt: &start, EndsAt: &end})
	requireCode(t, err, "INVALID_WINDOW")

	page, err := svc.List(ctx, DiscountListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestDiscountService_Validate(t *testing.T) {
	ctx := context.Background()
	svc := NewDiscountService(persistence.NewGormDiscountRepository(newTestDB(t)), zap.NewNop())
	userID := uuid.New()

	maxDiscount := dec("15")
	minOrder := dec("50")
	_, err := svc.Create(ctx, CreateDiscountRequest{
		Code:              "TWENTY",
		Type:              "percentage",
		Value:             dec("20"),
		MinOrderAmount:    &minOrder,
		MaxDiscountAmount: &maxDiscount,
	})
	require.NoError(t, err)

	q, err := svc.Validate(ctx, userID, " twenty ", dec("60"))
	require.NoError(t, err)
	assert.True(t, dec("12").Equal(q.Amount))

	q, err = svc.Validate(ctx, userID, "TWENTY", dec("200"))
	require.NoError(t, err)
	assert.True(t, dec("15").Equal(q.Amount), "capped at max discount")

	_, err = svc.Validate(ctx, userID, "TWENTY", dec("49.99"))
	requireCode(t, err, "DISCOUNT_MIN_ORDER")

	_, err = svc.Validate(ctx, userID, "NOPE", dec("100"))
	requireCode(t, err, "DISCOUNT_NOT_FOUND")

	ends := time.Now().Add(time.Hour)
	expired, err := svc.Create(ctx, CreateDiscountRequest{Code: "LASTCALL", Type: "fixed", Value: dec("5"), EndsAt: &ends})
	require.NoError(t, err)
	svc.now = func() time.Time { return ends.Add(time.Second) }
	_, err = svc.Validate(ctx, userID, "LASTCALL", dec("100"))
	requireCode(t, err, "DISCOUNT_EXPIRED")
	svc.now = time.Now

	_, err = svc.Deactivate(ctx, expired.ID)
	require.NoError(t, err)
	_, err = svc.Validate(ctx, userID, "LASTCALL", dec("100"))
	requireCode(t, err, "DISCOUNT_INACTIVE")
}

func TestDiscountService_RedeemAndRelease(t *testing.T) {
	ctx := context.Background()
	svc := NewDiscountService(persistence.NewGormDiscountRepository(newTestDB(t)), zap.NewNop())
	userID := uuid.New()

	d, err := svc.Create(ctx, CreateDiscountRequest{Code: "ONCE", Type: "fixed", Value: dec("10"), UsageLimit: 2, PerUserLimit: 1})
	require.NoError(t, err)

	orderID := uuid.New()
	q, err := svc.Redeem(ctx, userID, orderID, "ONCE", dec("30"))
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(q.Amount))

	_, err = svc.Redeem(ctx, userID, uuid.New(), "ONCE", dec("30"))
	requireCode(t, err, "DISCOUNT_USER_LIMIT")

	_, err = svc.Redeem(ctx, uuid.New(), uuid.New(), "ONCE", dec("30"))
	require.NoError(t, err)
	_, err = svc.Validate(ctx, uuid.New(), "ONCE", dec("30"))
	requireCode(t, err, "DISCOUNT_EXHAUSTED")

	err = svc.Delete(ctx, d.ID)
	requireCode(t, err, "DISCOUNT_IN_USE")

	require.NoError(t, svc.Release(ctx, d.ID, orderID))
	got, err := svc.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsedCount)

	_, err = svc.Validate(ctx, userID, "ONCE", dec("30"))
	require.NoError(t, err, "released usage frees the per-user slot")
}

func TestDiscountService_DeleteUnused(t *testing.T) {
	ctx := context.Background()
	svc := NewDiscountService(persistence.NewGormDiscountRepository(newTestDB(t)), zap.NewNop())

	d, err := svc.Create(ctx, CreateDiscountRequest{Code: "TEMP", Type: "fixed", Value: dec("1")})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, d.ID))
	_, err = svc.GetByID(ctx, d.ID)
	assert.True(t, shared.IsNotFound(err))
}

func TestLoyaltyService_EarnRedeemReverse(t *testing.T) {
	ctx := context.Background()
	svc := NewLoyaltyService(persistence.NewGormLoyaltyRepository(newTestDB(t)), promotion.DefaultPolicy(), zap.NewNop())
	userID := uuid.New()

	acct, err := svc.GetAccount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), acct.Balance)
	assert.Equal(t, "bronze", acct.Tier)
	assert.Equal(t, int64(1000), acct.PointsToNextTier)

	orderID := uuid.New()
	earned, err := svc.Earn(ctx, userID, orderID, dec("1234.99"))
	require.NoError(t, err)
	assert.Equal(t, int64(1234), earned)

	acct, err = svc.GetAccount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "silver", acct.Tier)
	assert.True(t, dec("12.34").Equal(acct.BalanceValue))

	// half of a 10.00 order is 500 points at 0.01 each
	_, err = svc.Redeem(ctx, userID, uuid.New(), 501, dec("10"))
	requireCode(t, err, "POINTS_LIMIT_EXCEEDED")

	value, err := svc.Redeem(ctx, userID, uuid.New(), 500, dec("10"))
	require.NoError(t, err)
	assert.True(t, dec("5").Equal(value))

	moved, err := svc.Reverse(ctx, userID, orderID, -1234, "Order refunded")
	require.NoError(t, err)
	assert.Equal(t, int64(-734), moved, "clawback is clamped at the balance")

	acct, err = svc.GetAccount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), acct.Balance)

	txs, err := svc.Transactions(ctx, userID, TransactionListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), txs.Total)
}

func TestLoyaltyService_RedeemWithoutAccount(t *testing.T) {
	ctx := context.Background()
	svc := NewLoyaltyService(persistence.NewGormLoyaltyRepository(newTestDB(t)), promotion.DefaultPolicy(), zap.NewNop())

	_, err := svc.Redeem(ctx, uuid.New(), uuid.New(), 10, dec("100"))
	assert.ErrorIs(t, err, shared.ErrInsufficientBalance)

	earned, err := svc.Earn(ctx, uuid.New(), uuid.New(), dec("0.99"))
	require.NoError(t, err)
	assert.Zero(t, earned)
}

func TestLoyaltyService_Adjust(t *testing.T) {
	ctx := context.Background()
	svc := NewLoyaltyService(persistence.NewGormLoyaltyRepository(newTestDB(t)), promotion.DefaultPolicy(), zap.NewNop())
	userID := uuid.New()

	acct, err := svc.Adjust(ctx, AdjustPointsRequest{UserID: userID, Points: 250, Reason: "Goodwill"})
	require.NoError(t, err)
	assert.Equal(t, int64(250), acct.Balance)

	_, err = svc.Adjust(ctx, AdjustPointsRequest{UserID: userID, Points: -300, Reason: "Correction"})
	assert.ErrorIs(t, err, shared.ErrInsufficientBalance)

	_, err = svc.Adjust(ctx, AdjustPointsRequest{UserID: userID, Points: 5})
	requireCode(t, err, "INVALID_REASON")
}
