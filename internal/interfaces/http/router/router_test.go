package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouter_SetupAppliesMiddlewareAndPrefix(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.Prefix())

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("seen"))
	})
	r.Use(func(c *gin.Context) {
		c.Set("seen", "yes")
		c.Next()
	})
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v2/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "yes", w.Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/test/ping").Code)
}

func TestDomainGroup_SubgroupsInheritMiddleware(t *testing.T) {
	engine := gin.New()
	blocked := NewDomainGroup("admin", "/admin").Use(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusForbidden)
	})
	blocked.Group("users", "/users").GET("", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	blocked.RegisterRoutes(engine.Group("/api"))

	assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, "/api/admin/users").Code)
}

func TestDomainGroup_Routes(t *testing.T) {
	g := NewDomainGroup("cart", "/cart")
	noop := func(*gin.Context) {}
	g.GET("", noop)
	g.POST("/items", noop)
	g.Group("items", "/items").DELETE("/:itemId", noop)

	assert.Equal(t, []RouteInfo{
		{Method: http.MethodGet, Path: "/cart"},
		{Method: http.MethodPost, Path: "/cart/items"},
		{Method: http.MethodDelete, Path: "/cart/items/:itemId"},
	}, g.Routes())
}

func emptyHandlers() *Handlers {
	return &Handlers{
		System:    handler.NewSystemHandler("test", "0", nil),
		Auth:      handler.NewAuthHandler(nil),
		User:      handler.NewUserHandler(nil),
		Role:      handler.NewRoleHandler(nil),
		Category:  handler.NewCategoryHandler(nil),
		Brand:     handler.NewBrandHandler(nil),
		Product:   handler.NewProductHandler(nil, nil),
		Cart:      handler.NewCartHandler(nil),
		Order:     handler.NewOrderHandler(nil),
		Discount:  handler.NewDiscountHandler(nil),
		Loyalty:   handler.NewLoyaltyHandler(nil),
		Review:    handler.NewReviewHandler(nil),
		Favorite:  handler.NewFavoriteHandler(nil),
		Wishlist:  handler.NewWishlistHandler(nil),
		Social:    handler.NewSocialHandler(nil),
		Dashboard: handler.NewDashboardHandler(nil),
	}
}

// storefront builds the full route table behind a fake authenticator
func storefront(t *testing.T, claims *auth.Claims) *gin.Engine {
	t.Helper()
	engine := gin.New()
	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.JWTClaimsKey, claims)
		}
		c.Next()
	})
	for _, g := range Groups(emptyHandlers(), middleware.PermissionConfig{Logger: zap.NewNop()}) {
		r.Register(g)
	}
	require.NotPanics(t, r.Setup)
	return engine
}

func TestGroups_RegisterWithoutConflicts(t *testing.T) {
	engine := storefront(t, nil)

	registered := make(map[string]bool)
	for _, info := range engine.Routes() {
		registered[info.Method+" "+info.Path] = true
	}
	for _, want := range []string{
		"POST /api/v1/auth/login",
		"GET /api/v1/catalog/products/slug/:slug",
		"GET /api/v1/catalog/products/:id/reviews",
		"POST /api/v1/orders",
		"POST /api/v1/favorites/check",
		"POST /api/v1/wishlists/default/items",
		"GET /api/v1/social/oauth/callback",
		"POST /api/v1/admin/orders/:id/ship",
		"GET /api/v1/admin/dashboard/overview",
		"GET /api/v1/admin/permissions",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestGroups_AdminRoutesRequireAdminAndPermission(t *testing.T) {
	customer := storefront(t, &auth.Claims{UserID: "u1"})
	assert.Equal(t, http.StatusForbidden, serve(customer, http.MethodGet, "/api/v1/admin/dashboard/overview").Code)
	assert.Equal(t, http.StatusForbidden, serve(customer, http.MethodGet, "/api/v1/social/accounts").Code)

	staff := storefront(t, &auth.Claims{UserID: "u2", IsAdmin: true, Permissions: []string{"order:read"}})
	assert.Equal(t, http.StatusForbidden, serve(staff, http.MethodPost, "/api/v1/admin/orders/x/ship").Code)
	assert.Equal(t, http.StatusForbidden, serve(staff, http.MethodGet, "/api/v1/admin/dashboard/overview").Code)
	// permission passes, then the handler rejects the malformed ID
	assert.Equal(t, http.StatusBadRequest, serve(staff, http.MethodGet, "/api/v1/admin/orders/not-a-uuid").Code)
}

func TestPublicPaths(t *testing.T) {
	paths := PublicPaths("/api/v1")
	assert.Contains(t, paths, "/api/v1/auth/login")
	assert.Contains(t, paths, "/api/v1/social/oauth/callback")
	assert.NotContains(t, paths, "/api/v1/auth/me")
	assert.Equal(t, []string{"/api/v1/catalog/"}, PublicPathPrefixes("/api/v1"))
}
