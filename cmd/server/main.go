package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	analyticsapp "github.com/storefront/backend/internal/application/analytics"
	cartapp "github.com/storefront/backend/internal/application/cart"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	engagementapp "github.com/storefront/backend/internal/application/engagement"
	identityapp "github.com/storefront/backend/internal/application/identity"
	orderapp "github.com/storefront/backend/internal/application/order"
	promotionapp "github.com/storefront/backend/internal/application/promotion"
	socialapp "github.com/storefront/backend/internal/application/social"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/promotion"
	"github.com/storefront/backend/internal/domain/social"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/printing"
	"github.com/storefront/backend/internal/infrastructure/scheduler"
	socialinfra "github.com/storefront/backend/internal/infrastructure/social"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const version = "1.0.0"

// objectStorage is what the catalog and the invoice archive need from the
// object store
type objectStorage interface {
	catalogapp.ImageStorage
	orderapp.InvoiceStorage
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Tracing
	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	// Log export: zap output is teed into the OTLP collector
	logs, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	defer func() {
		if err := logs.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down log export", zap.Error(err))
		}
	}()
	log = logs.Bridge(log)

	// Business metrics
	meters, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		_ = meters.Shutdown(context.Background())
	}()
	storeMetrics, err := telemetry.NewStoreMetrics(meters.Meter("storefront"))
	if err != nil {
		log.Fatal("Failed to register store metrics", zap.Error(err))
	}

	// Continuous profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		tracer.EnableSpanProfiles()
	}

	// Database with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:        dbSystem(cfg.Database.Driver),
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))
	db.LogStats(log)

	// Redis backed stores; without Redis everything stays in process
	stores, err := cache.NewStores(ctx, cfg.Redis, cache.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize cache stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing cache stores", zap.Error(err))
		}
	}()

	mailer, err := mail.NewSender(&cfg.Mail, log)
	if err != nil {
		log.Fatal("Failed to initialize mailer", zap.Error(err))
	}

	objects := newObjectStorage(ctx, cfg, log)

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	roleRepo := persistence.NewGormRoleRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	brandRepo := persistence.NewGormBrandRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	discountRepo := persistence.NewGormDiscountRepository(db.DB)
	loyaltyRepo := persistence.NewGormLoyaltyRepository(db.DB)
	reviewRepo := persistence.NewGormReviewRepository(db.DB)
	favoriteRepo := persistence.NewGormFavoriteRepository(db.DB)
	wishlistRepo := persistence.NewGormWishlistRepository(db.DB)
	analyticsRepo := persistence.NewGormAnalyticsRepository(db.DB)
	socialAccountRepo := persistence.NewGormSocialAccountRepository(db.DB)
	socialPostRepo := persistence.NewGormSocialPostRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Identity services
	jwtService := auth.NewJWTService(cfg.JWT)
	authConfig := identityapp.DefaultAuthServiceConfig()
	authConfig.ShopName = cfg.App.Name
	if cfg.App.BaseURL != "" {
		authConfig.ResetURL = strings.TrimRight(cfg.App.BaseURL, "/") + "/reset-password"
	}
	authService := identityapp.NewAuthService(userRepo, roleRepo, jwtService, stores.Blacklist, stores.Tokens, mailer, authConfig, log)
	authService.SetMetrics(storeMetrics)
	userService := identityapp.NewUserService(userRepo, roleRepo, stores.Blacklist, log)
	roleService := identityapp.NewRoleService(roleRepo, userRepo, log)

	// Catalog services
	categoryService := catalogapp.NewCategoryService(categoryRepo, productRepo, txManager, log)
	brandService := catalogapp.NewBrandService(brandRepo, productRepo, log)
	productService := catalogapp.NewProductService(productRepo, categoryRepo, brandRepo, objects, log)
	if cfg.Storage.PresignExpiry > 0 {
		productService.SetConfig(catalogapp.ProductServiceConfig{UploadURLExpiry: cfg.Storage.PresignExpiry})
	}

	// Promotion services
	discountService := promotionapp.NewDiscountService(discountRepo, log)
	loyaltyService := promotionapp.NewLoyaltyService(loyaltyRepo, loyaltyPolicy(cfg.Loyalty), log)

	// Cart and checkout
	cartService := cartapp.NewService(cartRepo, productRepo, log)
	orderService := orderapp.NewService(orderRepo, cartRepo, productRepo, userRepo, txManager, discountService, loyaltyService, log)
	orderService.SetMetrics(storeMetrics)
	orderService.SetConfig(orderapp.ServiceConfig{
		ShippingFee:           decimal.NewFromFloat(cfg.Checkout.ShippingFee),
		FreeShippingThreshold: decimal.NewFromFloat(cfg.Checkout.FreeShippingThreshold),
		IdempotencyTTL:        cfg.Checkout.IdempotencyTTL,
		PendingOrderTTL:       cfg.Checkout.PendingOrderTTL,
		CompanyName:           cfg.PDF.CompanyName,
	})
	orderService.SetIdempotencyStore(stores.Idempotency)

	// Invoice PDFs (if enabled)
	if cfg.PDF.Enabled {
		renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: cfg.PDF.Timeout,
			ExecPath:       cfg.PDF.ChromePath,
			NoSandbox:      true,
			Logger:         log,
		})
		if err != nil {
			log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
		}
		defer func() {
			if err := renderer.Close(); err != nil {
				log.Error("Error closing PDF renderer", zap.Error(err))
			}
		}()
		orderService.SetInvoiceRenderer(renderer)
		if cfg.PDF.StoreInS3 {
			orderService.SetInvoiceStorage(objects)
		}
		log.Info("Invoice rendering enabled", zap.Bool("archive", cfg.PDF.StoreInS3))
	}

	// Engagement services
	reviewService := engagementapp.NewReviewService(reviewRepo, productRepo, orderRepo, log)
	favoriteService := engagementapp.NewFavoriteService(favoriteRepo, productRepo, log)
	wishlistService := engagementapp.NewWishlistService(wishlistRepo, productRepo, txManager, cartService, log)

	// Dashboard
	analyticsService := analyticsapp.NewService(analyticsRepo, log)
	analyticsService.SetConfig(analyticsapp.DefaultServiceConfig())

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// User registered -> loyalty account
	userRegisteredHandler := promotionapp.NewUserRegisteredHandler(loyaltyService, log)
	eventBus.Subscribe(userRegisteredHandler)

	// Order placed -> confirmation mail
	orderPlacedHandler := orderapp.NewOrderPlacedHandler(orderRepo, userRepo, mailer, orderapp.ConfirmationConfig{
		ShopName: cfg.App.Name,
		OrderURL: orderURL(cfg.App.BaseURL),
	}, log)
	eventBus.SubscribeAsync(orderPlacedHandler)

	log.Info("Event handlers registered",
		zap.Strings("user_registered_events", userRegisteredHandler.EventTypes()),
		zap.Strings("order_placed_events", orderPlacedHandler.EventTypes()),
	)

	// Order lifecycle -> Kafka (if brokers are configured)
	if len(cfg.Kafka.Brokers) > 0 {
		writer, err := event.NewKafkaWriter(cfg.Kafka)
		if err != nil {
			log.Fatal("Failed to initialize Kafka writer", zap.Error(err))
		}
		forwarder := event.NewKafkaForwarder(writer, log, order.AllEventTypes()...)
		eventBus.SubscribeAsync(forwarder)
		defer func() {
			if err := forwarder.Close(); err != nil {
				log.Error("Error closing Kafka forwarder", zap.Error(err))
			}
		}()
		log.Info("Forwarding order events to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Inject event bus into services that publish events
	authService.SetEventPublisher(eventBus)
	userService.SetEventPublisher(eventBus)
	categoryService.SetEventPublisher(eventBus)
	productService.SetEventPublisher(eventBus)
	orderService.SetEventPublisher(eventBus)

	// Background jobs: scheduled social posts and the unpaid order sweep
	pool, err := scheduler.NewWorkerPool(scheduler.PoolConfig{
		Workers:    cfg.Scheduler.Workers,
		QueueSize:  cfg.Scheduler.QueueSize,
		JobTimeout: cfg.Scheduler.JobTimeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize worker pool", zap.Error(err))
	}
	jobs := scheduler.NewJobRegistry(scheduler.WithWorkerPool(pool), scheduler.WithRegistryLogger(log))

	// Social publishing
	graph := socialinfra.NewGraphClient(cfg.Social, log)
	dispatcher := socialinfra.NewDispatcher(graph, log)
	dispatcher.Register(social.PlatformFacebook, socialinfra.NewFacebookPublisher(graph))
	dispatcher.Register(social.PlatformInstagram, socialinfra.NewInstagramPublisher(graph))
	socialService := socialapp.NewService(socialAccountRepo, socialPostRepo, graph, dispatcher, jobs, stores.Tokens, log)
	socialConfig := socialapp.DefaultServiceConfig()
	if cfg.Social.StateTTL > 0 {
		socialConfig.StateTTL = cfg.Social.StateTTL
	}
	socialService.SetConfig(socialConfig)
	socialService.SetMetrics(storeMetrics)

	if cfg.Scheduler.Enabled {
		if err := jobs.Every("cancel-stale-orders", cfg.Scheduler.StaleOrderSchedule, func(ctx context.Context) {
			n, err := orderService.CancelStale(ctx)
			if err != nil {
				log.Error("Unpaid order sweep failed", zap.Error(err))
				return
			}
			if n > 0 {
				log.Info("Cancelled unpaid orders", zap.Int("count", n))
			}
		}); err != nil {
			log.Fatal("Failed to schedule unpaid order sweep", zap.Error(err))
		}
	}

	if err := pool.Start(ctx); err != nil {
		log.Fatal("Failed to start worker pool", zap.Error(err))
	}
	if err := jobs.Start(ctx); err != nil {
		log.Fatal("Failed to start job registry", zap.Error(err))
	}
	restored, err := socialService.RestoreJobs(ctx)
	if err != nil {
		log.Error("Failed to restore scheduled posts", zap.Error(err))
	}
	log.Info("Scheduler started",
		zap.Int("workers", cfg.Scheduler.Workers),
		zap.Int("restored_posts", restored),
	)

	// Built-in roles
	if err := roleService.SeedSystemRoles(ctx); err != nil {
		log.Fatal("Failed to seed system roles", zap.Error(err))
	}

	// Initialize HTTP handlers
	handlers := router.Handlers{
		System:    handler.NewSystemHandler(cfg.App.Name, version, db),
		Auth:      handler.NewAuthHandler(authService),
		User:      handler.NewUserHandler(userService),
		Role:      handler.NewRoleHandler(roleService),
		Category:  handler.NewCategoryHandler(categoryService),
		Brand:     handler.NewBrandHandler(brandService),
		Product:   handler.NewProductHandler(productService, reviewService),
		Cart:      handler.NewCartHandler(cartService),
		Order:     handler.NewOrderHandler(orderService),
		Discount:  handler.NewDiscountHandler(discountService),
		Loyalty:   handler.NewLoyaltyHandler(loyaltyService),
		Review:    handler.NewReviewHandler(reviewService),
		Favorite:  handler.NewFavoriteHandler(favoriteService),
		Wishlist:  handler.NewWishlistHandler(wishlistService),
		Social:    handler.NewSocialHandler(socialService),
		Dashboard: handler.NewDashboardHandler(analyticsService),
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - Start the request span
	// 5. Profiling - Label CPU samples with the route
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	// 9. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled:   profiler.IsEnabled(),
		SkipPaths: []string{"/health"},
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     append([]string{handler.IdempotencyKeyHeader}, cfg.HTTP.CORSAllowHeaders...),
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-Invoice-URL"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", handlers.System.Health)

	// API routes behind JWT authentication
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:       jwtService,
		TokenBlacklist:   stores.Blacklist,
		SkipPaths:        router.PublicPaths(r.Prefix()),
		SkipPathPrefixes: router.PublicPathPrefixes(r.Prefix()),
		Logger:           log,
	}))
	r.Use(middleware.SpanEnricher())

	for _, g := range router.Groups(&handlers, middleware.PermissionConfig{Logger: log}) {
		r.Register(g)
	}
	r.Setup()
	log.Info("Routes registered", zap.Int("count", len(engine.Routes())))

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// Pending social posts stay in the database and are rescheduled on the
	// next start.
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping job registry", zap.Error(err))
	}
	if err := pool.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping worker pool", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newObjectStorage returns S3 storage when a bucket is configured and an
// in-memory store otherwise
func newObjectStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) objectStorage {
	if cfg.Storage.Bucket == "" {
		log.Warn("No storage bucket configured, product images are kept in memory")
		return storage.NewMemoryObjectStorage()
	}
	s3, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		log.Warn("Could not verify storage bucket", zap.String("bucket", s3.Bucket()), zap.Error(err))
	}
	return s3
}

func loyaltyPolicy(cfg config.LoyaltyConfig) promotion.Policy {
	policy := promotion.DefaultPolicy()
	if cfg.PointsPerUnit > 0 {
		policy.PointsPerUnit = decimal.NewFromFloat(cfg.PointsPerUnit)
	}
	if cfg.PointValue > 0 {
		policy.PointValue = decimal.NewFromFloat(cfg.PointValue)
	}
	if cfg.MaxRedeemRatio > 0 {
		policy.MaxRedeemRatio = decimal.NewFromFloat(cfg.MaxRedeemRatio)
	}
	return policy
}

func orderURL(baseURL string) string {
	if baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/account/orders/{id}"
}

func dbSystem(driver string) string {
	switch driver {
	case "postgres":
		return "postgresql"
	case "mysql":
		return "mysql"
	default:
		return "sqlite"
	}
}
