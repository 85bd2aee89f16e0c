package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	cartapp "github.com/storefront/backend/internal/application/cart"
	promoapp "github.com/storefront/backend/internal/application/promotion"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/promotion"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/storefront/backend/internal/infrastructure/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range events {
		p.events = append(p.events, e.EventType())
	}
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type fakeRenderer struct {
	html string
}

func (r *fakeRenderer) Render(_ context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	r.html = req.HTML
	return &printing.RenderResult{PDFData: []byte("%PDF-1.4"), PageCount: 1}, nil
}

type memoryStorage struct {
	objects map[string][]byte
}

func (m *memoryStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	m.objects[key] = data
	return nil
}

func (m *memoryStorage) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

type fixture struct {
	db        *gorm.DB
	svc       *Service
	cart      *cartapp.Service
	discounts *promoapp.DiscountService
	loyalty   *promoapp.LoyaltyService
	products  *persistence.GormProductRepository
	events    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
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

	logger := zap.NewNop()
	products := persistence.NewGormProductRepository(db)
	carts := persistence.NewGormCartRepository(db)
	f := &fixture{
		db:        db,
		cart:      cartapp.NewService(carts, products, logger),
		discounts: promoapp.NewDiscountService(persistence.NewGormDiscountRepository(db), logger),
		loyalty:   promoapp.NewLoyaltyService(persistence.NewGormLoyaltyRepository(db), promotion.DefaultPolicy(), logger),
		products:  products,
		events:    &recordingPublisher{},
	}
	f.svc = NewService(
		persistence.NewGormOrderRepository(db),
		carts,
		products,
		persistence.NewGormUserRepository(db),
		persistence.NewGormTransactionManager(db),
		f.discounts,
		f.loyalty,
		logger,
	)
	cfg := DefaultServiceConfig()
	cfg.ShippingFee = decimal.NewFromInt(5)
	cfg.FreeShippingThreshold = decimal.NewFromInt(100)
	f.svc.SetConfig(cfg)
	f.svc.SetEventPublisher(f.events)
	return f
}

func (f *fixture) product(t *testing.T, sku string, price int64, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, "Product "+sku, "", decimal.NewFromInt(price))
	require.NoError(t, err)
	require.NoError(t, p.AdjustStock(nil, stock))
	require.NoError(t, p.Activate())
	require.NoError(t, f.products.Save(context.Background(), p))
	return p
}

func (f *fixture) addToCart(t *testing.T, userID uuid.UUID, p *catalog.Product, qty int) {
	t.Helper()
	_, err := f.cart.AddItem(context.Background(), userID, cartapp.AddItemRequest{ProductID: p.ID, Quantity: qty})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func checkoutRequest() CheckoutRequest {
	return CheckoutRequest{
		ShippingAddress: AddressRequest{
			RecipientName: "Ada Lovelace",
			Line1:         "12 Analytical Row",
			City:          "London",
			PostalCode:    "N1 9GU",
			Country:       "GB",
		},
		PaymentMethod: "card",
	}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected a domain error, got %v", err)
	require.Equal(t, code, de.Code)
}

func TestService_CheckoutAppliesDiscountPointsAndShipping(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	mug := f.product(t, "MUG", 25, 10)
	f.addToCart(t, userID, mug, 2)

	discount, err := f.discounts.Create(ctx, promoapp.CreateDiscountRequest{Code: "TENOFF", Type: "fixed", Value: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = f.loyalty.Adjust(ctx, promoapp.AdjustPointsRequest{UserID: userID, Points: 1000, Reason: "welcome"})
	require.NoError(t, err)

	req := checkoutRequest()
	req.DiscountCode = "tenoff"
	req.PointsToRedeem = 500
	req.Notes = "  leave at the door "
	o, err := f.svc.Checkout(ctx, userID, req, "")
	require.NoError(t, err)

	assert.Equal(t, "pending", o.Status)
	assert.True(t, decimal.NewFromInt(50).Equal(o.Subtotal))
	assert.True(t, decimal.NewFromInt(10).Equal(o.DiscountAmount))
	assert.True(t, decimal.NewFromInt(5).Equal(o.LoyaltyDiscount))
	assert.True(t, decimal.NewFromInt(5).Equal(o.ShippingFee))
	assert.True(t, decimal.NewFromInt(40).Equal(o.Total), "50 - 10 - 5 + 5, got %s", o.Total)
	assert.Equal(t, "leave at the door", o.Notes)
	assert.Equal(t, 2, o.ItemCount)
	assert.Equal(t, 8, f.stock(t, mug.ID))

	view, err := f.cart.Get(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	used, err := f.discounts.GetByID(ctx, discount.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, used.UsedCount)
	account, err := f.loyalty.GetAccount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), account.Balance)

	assert.Contains(t, f.events.types(), order.EventTypeOrderPlaced)
}

func TestService_CheckoutFreeShipping(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	f.addToCart(t, userID, f.product(t, "DESK", 120, 3), 1)

	o, err := f.svc.Checkout(ctx, userID, checkoutRequest(), "")
	require.NoError(t, err)
	assert.True(t, o.ShippingFee.IsZero())
	assert.True(t, decimal.NewFromInt(120).Equal(o.Total))
}

func TestService_CheckoutFailuresLeaveCartIntact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()

	_, err := f.svc.Checkout(ctx, userID, checkoutRequest(), "")
	requireCode(t, err, "INVALID_STATE")

	lamp := f.product(t, "LAMP", 30, 5)
	f.addToCart(t, userID, lamp, 3)

	// stock sold elsewhere after the item went into the cart
	p, err := f.products.FindByID(ctx, lamp.ID)
	require.NoError(t, err)
	require.NoError(t, p.AdjustStock(nil, -4))
	require.NoError(t, f.products.Save(ctx, p))

	_, err = f.svc.Checkout(ctx, userID, checkoutRequest(), "")
	requireCode(t, err, "INSUFFICIENT_STOCK")

	view, err := f.cart.Get(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
	assert.Equal(t, 1, f.stock(t, lamp.ID))

	p, err = f.products.FindByID(ctx, lamp.ID)
	require.NoError(t, err)
	require.NoError(t, p.AdjustStock(nil, 10))
	require.NoError(t, f.products.Save(ctx, p))
	req := checkoutRequest()
	req.DiscountCode = "MISSING"
	_, err = f.svc.Checkout(ctx, userID, req, "")
	requireCode(t, err, "DISCOUNT_NOT_FOUND")
	assert.Equal(t, 11, f.stock(t, lamp.ID), "stock deduction rolled back")
}

func TestService_CheckoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.svc.SetIdempotencyStore(cache.NewInMemoryIdempotencyStore())
	userID := uuid.New()
	pen := f.product(t, "PEN", 3, 10)
	f.addToCart(t, userID, pen, 2)

	first, err := f.svc.Checkout(ctx, userID, checkoutRequest(), "key-1")
	require.NoError(t, err)
	again, err := f.svc.Checkout(ctx, userID, checkoutRequest(), "key-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 8, f.stock(t, pen.ID))

	_, err = f.svc.Checkout(ctx, userID, checkoutRequest(), "key-2")
	requireCode(t, err, "INVALID_STATE")
}

func TestService_LifecycleEarnsAndRefundsPoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	f.addToCart(t, userID, f.product(t, "CHAIR", 200, 2), 1)

	o, err := f.svc.Checkout(ctx, userID, checkoutRequest(), "")
	require.NoError(t, err)

	_, err = f.svc.Ship(ctx, o.ID, ShipRequest{TrackingNumber: "T-1"})
	requireCode(t, err, "INVALID_STATE")

	_, err = f.svc.MarkPaid(ctx, o.ID)
	require.NoError(t, err)
	_, err = f.svc.StartProcessing(ctx, o.ID)
	require.NoError(t, err)
	shipped, err := f.svc.Ship(ctx, o.ID, ShipRequest{TrackingNumber: "T-1"})
	require.NoError(t, err)
	assert.Equal(t, "T-1", shipped.TrackingNumber)

	delivered, err := f.svc.Deliver(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), delivered.PointsEarned)
	account, err := f.loyalty.GetAccount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), account.Balance)

	refunded, err := f.svc.Refund(ctx, o.ID, RefundRequest{Reason: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, "refunded", refunded.Status)
	account, err = f.loyalty.GetAccount(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, account.Balance)

	assert.Equal(t, []string{
		order.EventTypeOrderPlaced,
		order.EventTypeOrderPaid,
		order.EventTypeOrderProcessing,
		order.EventTypeOrderShipped,
		order.EventTypeOrderDelivered,
		order.EventTypeOrderRefunded,
	}, f.events.types())
}

func TestService_CancelRestoresStockDiscountAndPoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	book := f.product(t, "BOOK", 40, 4)
	f.addToCart(t, userID, book, 2)

	discount, err := f.discounts.Create(ctx, promoapp.CreateDiscountRequest{Code: "READ5", Type: "fixed", Value: decimal.NewFromInt(5)})
	require.NoError(t, err)
	_, err = f.loyalty.Adjust(ctx, promoapp.AdjustPointsRequest{UserID: userID, Points: 300, Reason: "gift"})
	require.NoError(t, err)

	req := checkoutRequest()
	req.DiscountCode = "READ5"
	req.PointsToRedeem = 300
	o, err := f.svc.Checkout(ctx, userID, req, "")
	require.NoError(t, err)
	assert.Equal(t, 2, f.stock(t, book.ID))

	_, err = f.svc.CancelMine(ctx, uuid.New(), o.ID, CancelRequest{Reason: "not mine"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	cancelled, err := f.svc.CancelMine(ctx, userID, o.ID, CancelRequest{Reason: "changed my mind"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancelReason)
	assert.Equal(t, 4, f.stock(t, book.ID))

	d, err := f.discounts.GetByID(ctx, discount.ID)
	require.NoError(t, err)
	assert.Zero(t, d.UsedCount)
	account, err := f.loyalty.GetAccount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), account.Balance)

	_, err = f.svc.Cancel(ctx, o.ID, CancelRequest{Reason: "again"})
	requireCode(t, err, "INVALID_STATE")
}

func TestService_CancelMineOnlyWhilePending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	f.addToCart(t, userID, f.product(t, "CUP", 8, 5), 1)
	o, err := f.svc.Checkout(ctx, userID, checkoutRequest(), "")
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(ctx, o.ID)
	require.NoError(t, err)

	_, err = f.svc.CancelMine(ctx, userID, o.ID, CancelRequest{Reason: "late"})
	requireCode(t, err, "INVALID_STATE")

	_, err = f.svc.Cancel(ctx, o.ID, CancelRequest{Reason: "support"})
	require.NoError(t, err)
}

func TestService_ListAndOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice, bob := uuid.New(), uuid.New()
	p := f.product(t, "TEE", 15, 20)
	for _, u := range []uuid.UUID{alice, alice, bob} {
		f.addToCart(t, u, p, 1)
		_, err := f.svc.Checkout(ctx, u, checkoutRequest(), "")
		require.NoError(t, err)
	}

	mine, err := f.svc.ListMine(ctx, alice, OrderListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Total)

	all, err := f.svc.List(ctx, OrderListFilter{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)

	_, err = f.svc.Get(ctx, bob, mine.Items[0].ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	got, err := f.svc.GetByID(ctx, mine.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, alice, got.UserID)

	_, err = f.svc.List(ctx, OrderListFilter{From: "2026-02-10", To: "2026-02-01"})
	requireCode(t, err, "INVALID_INPUT")
	_, err = f.svc.List(ctx, OrderListFilter{From: "last week"})
	requireCode(t, err, "INVALID_INPUT")
}

func TestService_CancelStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	p := f.product(t, "SOCK", 4, 10)
	f.addToCart(t, userID, p, 3)
	_, err := f.svc.Checkout(ctx, userID, checkoutRequest(), "")
	require.NoError(t, err)

	n, err := f.svc.CancelStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "order is younger than the pending window")

	cfg := DefaultServiceConfig()
	cfg.PendingOrderTTL = time.Millisecond
	f.svc.SetConfig(cfg)
	time.Sleep(20 * time.Millisecond)

	n, err = f.svc.CancelStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 10, f.stock(t, p.ID))
}

func TestService_Invoice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	f.addToCart(t, userID, f.product(t, "BAG", 60, 2), 1)
	o, err := f.svc.Checkout(ctx, userID, checkoutRequest(), "")
	require.NoError(t, err)

	_, err = f.svc.InvoiceForUser(ctx, userID, o.ID)
	requireCode(t, err, "INVOICE_UNAVAILABLE")

	renderer := &fakeRenderer{}
	storage := &memoryStorage{objects: map[string][]byte{}}
	f.svc.SetInvoiceRenderer(renderer)
	f.svc.SetInvoiceStorage(storage)

	_, err = f.svc.InvoiceForUser(ctx, uuid.New(), o.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	file, err := f.svc.InvoiceForUser(ctx, userID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Number+".pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Contains(t, file.URL, "https://cdn.test/invoices/")
	assert.Len(t, storage.objects, 1)
	assert.Contains(t, renderer.html, o.Number)
	assert.Contains(t, renderer.html, "Ada Lovelace")
}
