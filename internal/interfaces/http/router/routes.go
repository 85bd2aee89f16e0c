package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// Handlers bundles every HTTP handler of the storefront
type Handlers struct {
	System    *handler.SystemHandler
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Role      *handler.RoleHandler
	Category  *handler.CategoryHandler
	Brand     *handler.BrandHandler
	Product   *handler.ProductHandler
	Cart      *handler.CartHandler
	Order     *handler.OrderHandler
	Discount  *handler.DiscountHandler
	Loyalty   *handler.LoyaltyHandler
	Review    *handler.ReviewHandler
	Favorite  *handler.FavoriteHandler
	Wishlist  *handler.WishlistHandler
	Social    *handler.SocialHandler
	Dashboard *handler.DashboardHandler
}

// PublicPaths returns the exact API paths served without a token
func PublicPaths(prefix string) []string {
	paths := []string{
		"/auth/register",
		"/auth/login",
		"/auth/refresh",
		"/auth/forgot-password",
		"/auth/reset-password",
		"/social/oauth/callback",
		"/system/ping",
		"/system/info",
	}
	for i, p := range paths {
		paths[i] = prefix + p
	}
	return paths
}

// PublicPathPrefixes returns the API path prefixes served without a token.
// The public catalog only registers GET routes.
func PublicPathPrefixes(prefix string) []string {
	return []string{prefix + "/catalog/"}
}

// Groups builds the storefront route groups. Admin groups require an admin
// token and a permission per route.
func Groups(h *Handlers, permCfg middleware.PermissionConfig) []*DomainGroup {
	perm := func(code string) gin.HandlerFunc {
		return middleware.RequirePermission(permCfg, code)
	}
	crud := func(resource, action string) gin.HandlerFunc {
		return perm(resource + ":" + action)
	}

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)
	system.GET("/ping", h.System.Ping)

	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.RefreshToken)
	auth.POST("/forgot-password", h.Auth.ForgotPassword)
	auth.POST("/reset-password", h.Auth.ResetPassword)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.GetCurrentUser)
	auth.PUT("/me", h.Auth.UpdateProfile)
	auth.PUT("/password", h.Auth.ChangePassword)

	catalog := NewDomainGroup("catalog", "/catalog")
	catalog.GET("/categories", h.Category.List)
	catalog.GET("/categories/tree", h.Category.Tree)
	catalog.GET("/categories/slug/:slug", h.Category.GetBySlug)
	catalog.GET("/categories/:id", h.Category.GetByID)
	catalog.GET("/brands", h.Brand.List)
	catalog.GET("/brands/:id", h.Brand.GetByID)
	catalog.GET("/products", h.Product.List)
	catalog.GET("/products/slug/:slug", h.Product.GetBySlug)
	catalog.GET("/products/:id", h.Product.GetByID)
	catalog.GET("/products/:id/reviews", h.Product.Reviews)

	cart := NewDomainGroup("cart", "/cart")
	cart.GET("", h.Cart.Get)
	cart.DELETE("", h.Cart.Clear)
	cart.POST("/items", h.Cart.AddItem)
	cart.PUT("/items/:itemId", h.Cart.UpdateItem)
	cart.DELETE("/items/:itemId", h.Cart.RemoveItem)

	orders := NewDomainGroup("orders", "/orders")
	orders.POST("", h.Order.Checkout)
	orders.GET("", h.Order.ListMine)
	orders.GET("/:id", h.Order.GetMine)
	orders.POST("/:id/cancel", h.Order.CancelMine)
	orders.GET("/:id/invoice", h.Order.MyInvoice)

	discounts := NewDomainGroup("discounts", "/discounts")
	discounts.POST("/validate", h.Discount.Validate)

	loyalty := NewDomainGroup("loyalty", "/loyalty")
	loyalty.GET("/account", h.Loyalty.MyAccount)
	loyalty.GET("/transactions", h.Loyalty.MyTransactions)

	reviews := NewDomainGroup("reviews", "/reviews")
	reviews.POST("", h.Review.Create)
	reviews.GET("/mine", h.Review.ListMine)
	reviews.PUT("/:id", h.Review.Update)
	reviews.DELETE("/:id", h.Review.Delete)

	favorites := NewDomainGroup("favorites", "/favorites")
	favorites.GET("", h.Favorite.List)
	favorites.POST("/check", h.Favorite.Check)
	favorites.GET("/:productId", h.Favorite.Status)
	favorites.POST("/:productId", h.Favorite.Add)
	favorites.DELETE("/:productId", h.Favorite.Remove)
	favorites.POST("/:productId/toggle", h.Favorite.Toggle)

	wishlists := NewDomainGroup("wishlists", "/wishlists")
	wishlists.GET("", h.Wishlist.List)
	wishlists.POST("", h.Wishlist.Create)
	wishlists.POST("/default/items", h.Wishlist.AddToDefault)
	wishlists.GET("/:id", h.Wishlist.Get)
	wishlists.PUT("/:id", h.Wishlist.Rename)
	wishlists.DELETE("/:id", h.Wishlist.Delete)
	wishlists.POST("/:id/default", h.Wishlist.SetDefault)
	wishlists.POST("/:id/items", h.Wishlist.AddItem)
	wishlists.DELETE("/:id/items/:itemId", h.Wishlist.RemoveItem)
	wishlists.POST("/:id/items/:itemId/move-to-cart", h.Wishlist.MoveToCart)

	// the OAuth redirect carries no token; the user comes from the state
	oauth := NewDomainGroup("social-oauth", "/social/oauth")
	oauth.GET("/callback", h.Social.Callback)

	social := NewDomainGroup("social", "/social").Use(middleware.RequireAdmin(permCfg))
	social.GET("/connect/:platform", crud(identity.ResourceSocial, identity.ActionCreate), h.Social.Connect)
	social.GET("/accounts", crud(identity.ResourceSocial, identity.ActionRead), h.Social.ListAccounts)
	social.DELETE("/accounts/:id", crud(identity.ResourceSocial, identity.ActionDelete), h.Social.Disconnect)
	social.POST("/posts", crud(identity.ResourceSocial, identity.ActionCreate), h.Social.SchedulePost)
	social.GET("/posts", crud(identity.ResourceSocial, identity.ActionRead), h.Social.ListPosts)
	social.GET("/posts/:id", crud(identity.ResourceSocial, identity.ActionRead), h.Social.GetPost)
	social.PUT("/posts/:id/schedule", crud(identity.ResourceSocial, identity.ActionUpdate), h.Social.Reschedule)
	social.POST("/posts/:id/cancel", crud(identity.ResourceSocial, identity.ActionUpdate), h.Social.CancelPost)
	social.POST("/posts/:id/publish", perm("social:publish"), h.Social.PublishNow)

	admin := NewDomainGroup("admin", "/admin").Use(middleware.RequireAdmin(permCfg))
	registerIdentityAdmin(admin, h, crud)
	registerCatalogAdmin(admin, h, crud)
	registerSalesAdmin(admin, h, perm, crud)

	return []*DomainGroup{
		system, auth, catalog, cart, orders, discounts, loyalty, reviews,
		favorites, wishlists, oauth, social, admin,
	}
}

func registerIdentityAdmin(admin *DomainGroup, h *Handlers, crud func(string, string) gin.HandlerFunc) {
	users := admin.Group("users", "/users")
	users.GET("", crud(identity.ResourceUser, identity.ActionRead), h.User.List)
	users.POST("", crud(identity.ResourceUser, identity.ActionCreate), h.User.Create)
	users.GET("/:id", crud(identity.ResourceUser, identity.ActionRead), h.User.GetByID)
	users.PUT("/:id", crud(identity.ResourceUser, identity.ActionUpdate), h.User.Update)
	users.DELETE("/:id", crud(identity.ResourceUser, identity.ActionDelete), h.User.Delete)
	users.PUT("/:id/roles", crud(identity.ResourceUser, identity.ActionUpdate), h.User.AssignRoles)
	users.POST("/:id/activate", crud(identity.ResourceUser, identity.ActionUpdate), h.User.Activate)
	users.POST("/:id/deactivate", crud(identity.ResourceUser, identity.ActionUpdate), h.User.Deactivate)

	roles := admin.Group("roles", "/roles")
	roles.GET("", crud(identity.ResourceRole, identity.ActionRead), h.Role.List)
	roles.POST("", crud(identity.ResourceRole, identity.ActionCreate), h.Role.Create)
	roles.GET("/:id", crud(identity.ResourceRole, identity.ActionRead), h.Role.GetByID)
	roles.PUT("/:id", crud(identity.ResourceRole, identity.ActionUpdate), h.Role.Update)
	roles.DELETE("/:id", crud(identity.ResourceRole, identity.ActionDelete), h.Role.Delete)
	roles.PUT("/:id/permissions", crud(identity.ResourceRole, identity.ActionUpdate), h.Role.SetPermissions)

	admin.GET("/permissions", crud(identity.ResourceRole, identity.ActionRead), h.Role.Permissions)
}

func registerCatalogAdmin(admin *DomainGroup, h *Handlers, crud func(string, string) gin.HandlerFunc) {
	catalog := admin.Group("catalog", "/catalog")

	categories := catalog.Group("categories", "/categories")
	categories.GET("", crud(identity.ResourceCategory, identity.ActionRead), h.Category.AdminList)
	categories.POST("", crud(identity.ResourceCategory, identity.ActionCreate), h.Category.Create)
	categories.GET("/:id", crud(identity.ResourceCategory, identity.ActionRead), h.Category.GetByID)
	categories.PUT("/:id", crud(identity.ResourceCategory, identity.ActionUpdate), h.Category.Update)
	categories.DELETE("/:id", crud(identity.ResourceCategory, identity.ActionDelete), h.Category.Delete)
	categories.POST("/:id/move", crud(identity.ResourceCategory, identity.ActionUpdate), h.Category.Move)
	categories.POST("/:id/activate", crud(identity.ResourceCategory, identity.ActionUpdate), h.Category.Activate)
	categories.POST("/:id/deactivate", crud(identity.ResourceCategory, identity.ActionUpdate), h.Category.Deactivate)

	brands := catalog.Group("brands", "/brands")
	brands.GET("", crud(identity.ResourceBrand, identity.ActionRead), h.Brand.AdminList)
	brands.POST("", crud(identity.ResourceBrand, identity.ActionCreate), h.Brand.Create)
	brands.GET("/:id", crud(identity.ResourceBrand, identity.ActionRead), h.Brand.GetByID)
	brands.PUT("/:id", crud(identity.ResourceBrand, identity.ActionUpdate), h.Brand.Update)
	brands.DELETE("/:id", crud(identity.ResourceBrand, identity.ActionDelete), h.Brand.Delete)

	read := crud(identity.ResourceProduct, identity.ActionRead)
	write := crud(identity.ResourceProduct, identity.ActionUpdate)
	products := catalog.Group("products", "/products")
	products.GET("", read, h.Product.AdminList)
	products.POST("", crud(identity.ResourceProduct, identity.ActionCreate), h.Product.Create)
	products.GET("/:id", read, h.Product.AdminGetByID)
	products.PUT("/:id", write, h.Product.Update)
	products.DELETE("/:id", crud(identity.ResourceProduct, identity.ActionDelete), h.Product.Delete)
	products.POST("/:id/activate", write, h.Product.Activate)
	products.POST("/:id/deactivate", write, h.Product.Deactivate)
	products.POST("/:id/discontinue", write, h.Product.Discontinue)
	products.POST("/:id/stock", write, h.Product.AdjustStock)
	products.POST("/:id/variations", write, h.Product.AddVariation)
	products.PUT("/:id/variations/:variationId", write, h.Product.RenameVariation)
	products.DELETE("/:id/variations/:variationId", write, h.Product.RemoveVariation)
	products.POST("/:id/variations/:variationId/options", write, h.Product.AddOption)
	products.PUT("/:id/options/:optionId", write, h.Product.UpdateOption)
	products.DELETE("/:id/options/:optionId", write, h.Product.RemoveOption)
	products.POST("/:id/images/upload-url", write, h.Product.RequestImageUpload)
	products.POST("/:id/images", write, h.Product.ConfirmImage)
	products.PUT("/:id/images/:imageId/primary", write, h.Product.SetPrimaryImage)
	products.DELETE("/:id/images/:imageId", write, h.Product.RemoveImage)
}

func registerSalesAdmin(admin *DomainGroup, h *Handlers, perm func(string) gin.HandlerFunc, crud func(string, string) gin.HandlerFunc) {
	orders := admin.Group("orders", "/orders")
	orders.GET("", crud(identity.ResourceOrder, identity.ActionRead), h.Order.List)
	orders.GET("/:id", crud(identity.ResourceOrder, identity.ActionRead), h.Order.GetByID)
	orders.GET("/:id/invoice", crud(identity.ResourceOrder, identity.ActionRead), h.Order.Invoice)
	orders.POST("/:id/pay", perm("order:fulfill"), h.Order.MarkPaid)
	orders.POST("/:id/process", perm("order:fulfill"), h.Order.StartProcessing)
	orders.POST("/:id/ship", perm("order:fulfill"), h.Order.Ship)
	orders.POST("/:id/deliver", perm("order:fulfill"), h.Order.Deliver)
	orders.POST("/:id/cancel", perm("order:cancel"), h.Order.Cancel)
	orders.POST("/:id/refund", perm("order:cancel"), h.Order.Refund)

	discounts := admin.Group("discounts", "/discounts")
	discounts.GET("", crud(identity.ResourceDiscount, identity.ActionRead), h.Discount.List)
	discounts.POST("", crud(identity.ResourceDiscount, identity.ActionCreate), h.Discount.Create)
	discounts.GET("/:id", crud(identity.ResourceDiscount, identity.ActionRead), h.Discount.GetByID)
	discounts.PUT("/:id", crud(identity.ResourceDiscount, identity.ActionUpdate), h.Discount.Update)
	discounts.DELETE("/:id", crud(identity.ResourceDiscount, identity.ActionDelete), h.Discount.Delete)
	discounts.POST("/:id/activate", crud(identity.ResourceDiscount, identity.ActionUpdate), h.Discount.Activate)
	discounts.POST("/:id/deactivate", crud(identity.ResourceDiscount, identity.ActionUpdate), h.Discount.Deactivate)

	loyalty := admin.Group("loyalty", "/loyalty")
	loyalty.POST("/adjust", crud(identity.ResourceLoyalty, identity.ActionUpdate), h.Loyalty.Adjust)
	loyalty.GET("/:userId", crud(identity.ResourceLoyalty, identity.ActionRead), h.Loyalty.GetAccount)
	loyalty.GET("/:userId/transactions", crud(identity.ResourceLoyalty, identity.ActionRead), h.Loyalty.Transactions)

	reviews := admin.Group("reviews", "/reviews")
	reviews.GET("", crud(identity.ResourceReview, identity.ActionRead), h.Review.List)
	reviews.POST("/:id/approve", crud(identity.ResourceReview, identity.ActionUpdate), h.Review.Approve)
	reviews.POST("/:id/reject", crud(identity.ResourceReview, identity.ActionUpdate), h.Review.Reject)
	reviews.DELETE("/:id", crud(identity.ResourceReview, identity.ActionDelete), h.Review.AdminDelete)

	dashboard := admin.Group("dashboard", "/dashboard").Use(perm("dashboard:read"))
	dashboard.GET("/overview", h.Dashboard.Overview)
	dashboard.GET("/sales-trend", h.Dashboard.SalesTrend)
	dashboard.GET("/top-products", h.Dashboard.TopProducts)
	dashboard.GET("/top-customers", h.Dashboard.TopCustomers)
	dashboard.GET("/low-stock", h.Dashboard.LowStock)
	dashboard.GET("/recent-orders", h.Dashboard.RecentOrders)
}
