package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	cartapp "github.com/storefront/backend/internal/application/cart"
	orderapp "github.com/storefront/backend/internal/application/order"
	promoapp "github.com/storefront/backend/internal/application/promotion"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/promotion"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type shopFixture struct {
	router   *gin.Engine
	products *persistence.GormProductRepository
	userID   uuid.UUID
}

func newShopFixture(t *testing.T) *shopFixture {
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
	cartService := cartapp.NewService(carts, products, logger)
	orderService := orderapp.NewService(
		persistence.NewGormOrderRepository(db),
		carts,
		products,
		persistence.NewGormUserRepository(db),
		persistence.NewGormTransactionManager(db),
		promoapp.NewDiscountService(persistence.NewGormDiscountRepository(db), logger),
		promoapp.NewLoyaltyService(persistence.NewGormLoyaltyRepository(db), promotion.DefaultPolicy(), logger),
		logger,
	)
	orderService.SetIdempotencyStore(cache.NewInMemoryIdempotencyStore())

	f := &shopFixture{router: gin.New(), products: products, userID: uuid.New()}
	cartHandler := NewCartHandler(cartService)
	orderHandler := NewOrderHandler(orderService)

	api := f.router.Group("/api/v1", asUser(f.userID))
	api.GET("/cart", cartHandler.Get)
	api.POST("/cart/items", cartHandler.AddItem)
	api.PUT("/cart/items/:itemId", cartHandler.UpdateItem)
	api.DELETE("/cart", cartHandler.Clear)
	api.POST("/orders", orderHandler.Checkout)
	api.GET("/orders", orderHandler.ListMine)
	api.GET("/orders/:id", orderHandler.GetMine)
	api.POST("/orders/:id/cancel", orderHandler.CancelMine)
	api.GET("/orders/:id/invoice", orderHandler.MyInvoice)
	return f
}

func (f *shopFixture) product(t *testing.T, sku string, price int64, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, "Product "+sku, "", decimal.NewFromInt(price))
	require.NoError(t, err)
	require.NoError(t, p.AdjustStock(nil, stock))
	require.NoError(t, p.Activate())
	require.NoError(t, f.products.Save(context.Background(), p))
	return p
}

const checkoutBody = `{
	"shipping_address": {
		"recipient_name": "Ada Lovelace",
		"line1": "12 Analytical Row",
		"city": "London",
		"postal_code": "N1 9GU",
		"country": "GB"
	},
	"payment_method": "card"
}`

func dataOf[T any](t *testing.T, body []byte) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope), string(body))
	return envelope.Data
}

func TestCartHandler_AddAndUpdate(t *testing.T) {
	f := newShopFixture(t)
	mug := f.product(t, "MUG", 12, 5)

	rec := serve(f.router, http.MethodPost, "/api/v1/cart/items",
		fmt.Sprintf(`{"product_id":%q,"quantity":2}`, mug.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := dataOf[cartapp.View](t, rec.Body.Bytes())
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)

	rec = serve(f.router, http.MethodPut, "/api/v1/cart/items/"+view.Items[0].ID.String(), `{"quantity":9}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "more than in stock")

	rec = serve(f.router, http.MethodPost, "/api/v1/cart/items", `{"quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "product_id")

	rec = serve(f.router, http.MethodDelete, "/api/v1/cart", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestOrderHandler_CheckoutFlow(t *testing.T) {
	f := newShopFixture(t)
	pen := f.product(t, "PEN", 3, 10)
	rec := serve(f.router, http.MethodPost, "/api/v1/cart/items",
		fmt.Sprintf(`{"product_id":%q,"quantity":2}`, pen.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(f.router, http.MethodPost, "/api/v1/orders", checkoutBody, IdempotencyKeyHeader, "abc-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := dataOf[orderapp.OrderResponse](t, rec.Body.Bytes())
	assert.Equal(t, "pending", placed.Status)

	// a retried request returns the same order instead of failing on the empty cart
	rec = serve(f.router, http.MethodPost, "/api/v1/orders", checkoutBody, IdempotencyKeyHeader, "abc-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, placed.ID, dataOf[orderapp.OrderResponse](t, rec.Body.Bytes()).ID)

	rec = serve(f.router, http.MethodGet, "/api/v1/orders?page=1&page_size=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, dataOf[[]orderapp.OrderResponse](t, rec.Body.Bytes()), 1)

	rec = serve(f.router, http.MethodGet, "/api/v1/orders/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(f.router, http.MethodPost, "/api/v1/orders/"+placed.ID.String()+"/cancel", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "reason is required")

	rec = serve(f.router, http.MethodPost, "/api/v1/orders/"+placed.ID.String()+"/cancel", `{"reason":"changed my mind"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cancelled", dataOf[orderapp.OrderResponse](t, rec.Body.Bytes()).Status)

	p, err := f.products.FindByID(context.Background(), pen.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
}

func TestOrderHandler_RejectsBadCheckout(t *testing.T) {
	f := newShopFixture(t)

	rec := serve(f.router, http.MethodPost, "/api/v1/orders", `{"payment_method":"barter"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(f.router, http.MethodPost, "/api/v1/orders", checkoutBody)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "empty cart")

	long := make([]byte, maxIdempotencyKeyLength+1)
	for i := range long {
		long[i] = 'k'
	}
	rec = serve(f.router, http.MethodPost, "/api/v1/orders", checkoutBody, IdempotencyKeyHeader, string(long))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderHandler_InvoiceDisabled(t *testing.T) {
	f := newShopFixture(t)
	rec := serve(f.router, http.MethodGet, "/api/v1/orders/"+uuid.NewString()+"/invoice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
