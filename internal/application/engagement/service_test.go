package engagement

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
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

type fixture struct {
	db        *gorm.DB
	products  *persistence.GormProductRepository
	orders    *persistence.GormOrderRepository
	reviews   *ReviewService
	favorites *FavoriteService
	wishlists *WishlistService
	cart      *cartapp.Service
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
	orders := persistence.NewGormOrderRepository(db)
	cart := cartapp.NewService(persistence.NewGormCartRepository(db), products, logger)
	return &fixture{
		db:        db,
		products:  products,
		orders:    orders,
		cart:      cart,
		reviews:   NewReviewService(persistence.NewGormReviewRepository(db), products, orders, logger),
		favorites: NewFavoriteService(persistence.NewGormFavoriteRepository(db), products, logger),
		wishlists: NewWishlistService(persistence.NewGormWishlistRepository(db), products,
			persistence.NewGormTransactionManager(db), cart, logger),
	}
}

func (f *fixture) product(t *testing.T, sku string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, "Product "+sku, "", decimal.NewFromInt(25))
	require.NoError(t, err)
	require.NoError(t, p.AdjustStock(nil, 10))
	require.NoError(t, p.Activate())
	require.NoError(t, f.products.Save(context.Background(), p))
	return p
}

func (f *fixture) deliveredOrder(t *testing.T, userID uuid.UUID, p *catalog.Product) {
	t.Helper()
	o, err := order.NewOrder("ORD-20260101-AAAAAA", userID, order.ShippingAddress{
		RecipientName: "Ada",
		Line1:         "1 Main St",
		City:          "Springfield",
		PostalCode:    "12345",
		Country:       "us",
	}, order.PaymentMethodCard)
	require.NoError(t, err)
	_, err = o.AddItem(p.ID, nil, p.Name, p.SKU, "", p.Price, 1)
	require.NoError(t, err)
	require.NoError(t, o.Place())
	require.NoError(t, o.MarkPaid())
	require.NoError(t, o.StartProcessing())
	require.NoError(t, o.Ship("TRACK-1"))
	require.NoError(t, o.Deliver())
	require.NoError(t, f.orders.Save(context.Background(), o))
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected a domain error, got %v", err)
	require.Equal(t, code, de.Code)
}

func TestReviewService_CreateOncePerProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "MUG")
	userID := uuid.New()

	r, err := f.reviews.Create(ctx, userID, CreateReviewRequest{ProductID: p.ID, Rating: 5, Title: "Great"})
	require.NoError(t, err)
	assert.Equal(t, "pending", r.Status)
	assert.False(t, r.VerifiedPurchase)

	_, err = f.reviews.Create(ctx, userID, CreateReviewRequest{ProductID: p.ID, Rating: 3})
	requireCode(t, err, "ALREADY_EXISTS")

	_, err = f.reviews.Create(ctx, userID, CreateReviewRequest{ProductID: uuid.New(), Rating: 3})
	requireCode(t, err, "PRODUCT_NOT_FOUND")
}

func TestReviewService_VerifiedPurchase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "LAMP")
	buyer := uuid.New()
	f.deliveredOrder(t, buyer, p)

	r, err := f.reviews.Create(ctx, buyer, CreateReviewRequest{ProductID: p.ID, Rating: 4})
	require.NoError(t, err)
	assert.True(t, r.VerifiedPurchase)
}

func TestReviewService_PublicListingOnlyShowsApproved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "DESK")

	var ids []uuid.UUID
	for _, rating := range []int{5, 4, 1} {
		r, err := f.reviews.Create(ctx, uuid.New(), CreateReviewRequest{ProductID: p.ID, Rating: rating})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}
	_, err := f.reviews.Approve(ctx, ids[0])
	require.NoError(t, err)
	_, err = f.reviews.Approve(ctx, ids[1])
	require.NoError(t, err)
	rejected, err := f.reviews.Reject(ctx, ids[2], RejectReviewRequest{Note: "off topic"})
	require.NoError(t, err)
	assert.Equal(t, "off topic", rejected.ModerationNote)

	page, err := f.reviews.ListForProduct(ctx, p.ID, ReviewListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Reviews, 2)
	assert.Equal(t, int64(2), page.Summary.Count)
	assert.InDelta(t, 4.5, page.Summary.Average, 0.0001)
	assert.Equal(t, int64(0), page.Summary.Distribution[1])

	pending, err := f.reviews.List(ctx, ReviewListFilter{Status: "rejected"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Total)
}

func TestReviewService_OwnershipAndRemoderation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, "PEN")
	author := uuid.New()

	r, err := f.reviews.Create(ctx, author, CreateReviewRequest{ProductID: p.ID, Rating: 2})
	require.NoError(t, err)
	_, err = f.reviews.Approve(ctx, r.ID)
	require.NoError(t, err)

	_, err = f.reviews.Update(ctx, uuid.New(), r.ID, UpdateReviewRequest{Rating: 5})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, f.reviews.Delete(ctx, uuid.New(), r.ID), shared.ErrNotFound)

	updated, err := f.reviews.Update(ctx, author, r.ID, UpdateReviewRequest{Rating: 4, Comment: "Better than I thought"})
	require.NoError(t, err)
	assert.Equal(t, "pending", updated.Status)
	assert.Equal(t, 4, updated.Rating)

	mine, err := f.reviews.ListMine(ctx, author, ReviewListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), mine.Total)

	require.NoError(t, f.reviews.Delete(ctx, author, r.ID))
	mine, err = f.reviews.ListMine(ctx, author, ReviewListFilter{})
	require.NoError(t, err)
	assert.Zero(t, mine.Total)
}

func TestFavoriteService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	a := f.product(t, "FAV-A")
	b := f.product(t, "FAV-B")

	require.NoError(t, f.favorites.Add(ctx, userID, a.ID))
	require.NoError(t, f.favorites.Add(ctx, userID, a.ID), "adding twice is a no-op")
	requireCode(t, f.favorites.Add(ctx, userID, uuid.New()), "PRODUCT_NOT_FOUND")

	toggled, err := f.favorites.Toggle(ctx, userID, b.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Favorite)

	ids, err := f.favorites.Check(ctx, userID, []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, ids)

	list, err := f.favorites.ListMine(ctx, userID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	for _, item := range list.Items {
		assert.True(t, item.Available)
		assert.Equal(t, "25.00", item.Price)
	}

	toggled, err = f.favorites.Toggle(ctx, userID, b.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Favorite)
	fav, err := f.favorites.IsFavorite(ctx, userID, b.ID)
	require.NoError(t, err)
	assert.False(t, fav)

	require.NoError(t, f.favorites.Remove(ctx, userID, a.ID))
	require.NoError(t, f.favorites.Remove(ctx, userID, a.ID))
}

func TestWishlistService_DefaultHandling(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()

	first, err := f.wishlists.Create(ctx, userID, CreateWishlistRequest{Name: "Gifts"})
	require.NoError(t, err)
	assert.True(t, first.IsDefault, "first wishlist becomes the default")

	second, err := f.wishlists.Create(ctx, userID, CreateWishlistRequest{Name: "Later", IsDefault: true})
	require.NoError(t, err)
	assert.True(t, second.IsDefault)

	lists, err := f.wishlists.ListMine(ctx, userID)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, second.ID, lists[0].ID)
	assert.False(t, lists[1].IsDefault)

	_, err = f.wishlists.SetDefault(ctx, userID, first.ID)
	require.NoError(t, err)
	require.NoError(t, f.wishlists.Delete(ctx, userID, first.ID))

	lists, err = f.wishlists.ListMine(ctx, userID)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.True(t, lists[0].IsDefault, "remaining wishlist inherits the default")

	_, err = f.wishlists.Rename(ctx, uuid.New(), second.ID, RenameWishlistRequest{Name: "Mine now"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestWishlistService_ItemsAndMoveToCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	p := f.product(t, "WISH")

	w, err := f.wishlists.AddToDefault(ctx, userID, AddWishlistItemRequest{ProductID: p.ID, Note: "blue one"})
	require.NoError(t, err)
	assert.Equal(t, "My Wishlist", w.Name)
	require.Len(t, w.Items, 1)

	_, err = f.wishlists.AddItem(ctx, userID, w.ID, AddWishlistItemRequest{ProductID: uuid.New()})
	requireCode(t, err, "PRODUCT_NOT_FOUND")

	view, err := f.wishlists.MoveToCart(ctx, userID, w.ID, w.Items[0].ID, MoveToCartRequest{Quantity: 2})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)

	after, err := f.wishlists.Get(ctx, userID, w.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Items)

	_, err = f.wishlists.RemoveItem(ctx, userID, w.ID, uuid.New())
	requireCode(t, err, "NOT_FOUND")
}
