package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
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

type cartFixture struct {
	svc      *Service
	products *persistence.GormProductRepository
}

func newCartFixture(t *testing.T) *cartFixture {
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

	products := persistence.NewGormProductRepository(db)
	return &cartFixture{
		svc:      NewService(persistence.NewGormCartRepository(db), products, zap.NewNop()),
		products: products,
	}
}

func (f *cartFixture) product(t *testing.T, sku string, price int64, stock int, active bool) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, "Product "+sku, "", decimal.NewFromInt(price))
	require.NoError(t, err)
	require.NoError(t, p.AdjustStock(nil, stock))
	if active {
		require.NoError(t, p.Activate())
	}
	require.NoError(t, f.products.Save(context.Background(), p))
	return p
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected a domain error, got %v", err)
	require.Equal(t, code, de.Code)
}

func TestService_GetEmptyCart(t *testing.T) {
	f := newCartFixture(t)
	view, err := f.svc.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Subtotal.IsZero())
	assert.False(t, view.CanCheckout)
}

func TestService_AddItemMergesLines(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	userID := uuid.New()
	p := f.product(t, "BOOK", 15, 10, true)

	_, err := f.svc.AddItem(ctx, userID, AddItemRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	view, err := f.svc.AddItem(ctx, userID, AddItemRequest{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, 5, view.ItemCount)
	assert.True(t, decimal.NewFromInt(75).Equal(view.Subtotal))
	assert.True(t, view.CanCheckout)

	_, err = f.svc.AddItem(ctx, userID, AddItemRequest{ProductID: p.ID, Quantity: 6})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
}

func TestService_AddItemRejectsUnsellable(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	draft := f.product(t, "DRAFT", 10, 5, false)

	_, err := f.svc.AddItem(ctx, uuid.New(), AddItemRequest{ProductID: draft.ID, Quantity: 1})
	requireCode(t, err, "PRODUCT_UNAVAILABLE")

	_, err = f.svc.AddItem(ctx, uuid.New(), AddItemRequest{ProductID: uuid.New(), Quantity: 1})
	requireCode(t, err, "PRODUCT_NOT_FOUND")
}

func TestService_AddItemRequiresOption(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	p, err := catalog.NewProduct("SHIRT", "Shirt", "", decimal.NewFromInt(20))
	require.NoError(t, err)
	size, err := p.AddVariation("Size")
	require.NoError(t, err)
	sizeID := size.ID
	m, err := p.AddOption(sizeID, catalog.OptionInput{Value: "M", PriceAdjustment: decimal.NewFromInt(2), Stock: 4})
	require.NoError(t, err)
	optionID := m.ID
	require.NoError(t, p.Activate())
	require.NoError(t, f.products.Save(ctx, p))

	userID := uuid.New()
	_, err = f.svc.AddItem(ctx, userID, AddItemRequest{ProductID: p.ID, Quantity: 1})
	requireCode(t, err, "OPTION_REQUIRED")

	view, err := f.svc.AddItem(ctx, userID, AddItemRequest{ProductID: p.ID, OptionID: &optionID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Size: M", view.Items[0].OptionLabel)
	assert.True(t, decimal.NewFromInt(44).Equal(view.Subtotal))
}

func TestService_ViewReflectsCatalogChanges(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	userID := uuid.New()
	lamp := f.product(t, "LAMP", 30, 5, true)
	desk := f.product(t, "DESK", 100, 5, true)

	_, err := f.svc.AddItem(ctx, userID, AddItemRequest{ProductID: lamp.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, userID, AddItemRequest{ProductID: desk.ID, Quantity: 1})
	require.NoError(t, err)

	lamp, err = f.products.FindByID(ctx, lamp.ID)
	require.NoError(t, err)
	require.NoError(t, lamp.SetPrice(decimal.NewFromInt(25), decimal.Zero))
	require.NoError(t, f.products.Save(ctx, lamp))

	desk, err = f.products.FindByID(ctx, desk.ID)
	require.NoError(t, err)
	require.NoError(t, desk.Deactivate())
	require.NoError(t, f.products.Save(ctx, desk))

	view, err := f.svc.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)

	lines := map[uuid.UUID]ItemView{}
	for _, it := range view.Items {
		lines[it.ProductID] = it
	}
	assert.True(t, lines[lamp.ID].PriceChanged)
	assert.True(t, decimal.NewFromInt(25).Equal(lines[lamp.ID].UnitPrice))
	assert.False(t, lines[desk.ID].Purchasable)
	assert.True(t, decimal.NewFromInt(25).Equal(view.Subtotal))
	assert.False(t, view.CanCheckout)
}

func TestService_UpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	userID := uuid.New()
	a := f.product(t, "A-1", 10, 5, true)
	b := f.product(t, "B-1", 20, 5, true)

	_, err := f.svc.AddItem(ctx, userID, AddItemRequest{ProductID: a.ID, Quantity: 1})
	require.NoError(t, err)
	view, err := f.svc.AddItem(ctx, userID, AddItemRequest{ProductID: b.ID, Quantity: 1})
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	first := view.Items[0].ID

	view, err = f.svc.UpdateItem(ctx, userID, first, UpdateItemRequest{Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, view.Items[0].Quantity)

	_, err = f.svc.UpdateItem(ctx, userID, first, UpdateItemRequest{Quantity: 9})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	view, err = f.svc.UpdateItem(ctx, userID, first, UpdateItemRequest{Quantity: 0})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	view, err = f.svc.RemoveItem(ctx, userID, view.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	_, err = f.svc.AddItem(ctx, userID, AddItemRequest{ProductID: a.ID, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, f.svc.Clear(ctx, userID))
	view, err = f.svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	require.NoError(t, f.svc.Clear(ctx, uuid.New()))
}
