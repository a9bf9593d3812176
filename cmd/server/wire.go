package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	catalogapp "github.com/aquapet/backend/internal/application/catalog"
	"github.com/aquapet/backend/internal/application/checkout"
	identityapp "github.com/aquapet/backend/internal/application/identity"
	inventoryapp "github.com/aquapet/backend/internal/application/inventory"
	"github.com/aquapet/backend/internal/domain/identity"
	"github.com/aquapet/backend/internal/domain/order"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/aquapet/backend/internal/infrastructure/auth"
	"github.com/aquapet/backend/internal/infrastructure/cache"
	"github.com/aquapet/backend/internal/infrastructure/config"
	"github.com/aquapet/backend/internal/infrastructure/event"
	"github.com/aquapet/backend/internal/infrastructure/logger"
	"github.com/aquapet/backend/internal/infrastructure/migration"
	"github.com/aquapet/backend/internal/infrastructure/payment"
	"github.com/aquapet/backend/internal/infrastructure/persistence"
	"github.com/aquapet/backend/internal/infrastructure/storage"
	"github.com/aquapet/backend/internal/infrastructure/telemetry"
	"github.com/aquapet/backend/internal/interfaces/http/handler"
	"github.com/aquapet/backend/internal/interfaces/http/middleware"
	"github.com/aquapet/backend/internal/interfaces/http/router"
	"github.com/aquapet/backend/migrations"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// app holds the wired services and the resources that must be released on exit
type app struct {
	cfg *config.Config
	log *zap.Logger

	db          *persistence.Database
	redis       *redis.Client
	idempotency shared.IdempotencyStore
	eventBus    *event.InMemoryEventBus
	locker      cache.Locker
	blacklist   auth.TokenBlacklist
	jwt         *auth.JWTService
	metrics     *telemetry.ShopMetrics

	catalog  *catalogapp.Service
	checkout *checkout.Service
	webhooks *checkout.WebhookService
	expirer  *checkout.ExpirationService
	pos      *inventoryapp.POSService
	auth     *identityapp.AuthService
	users    *identityapp.UserService
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, providers *telemetry.Providers) (_ *app, err error) {
	a := &app{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	gormLog := logger.NewGormLogger(log.Named("gorm"), logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	a.db, err = persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return nil, err
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if cfg.Database.AutoMigrate {
		if err := migrateSchema(cfg, a.db, log); err != nil {
			return nil, err
		}
	}
	if err := telemetry.RegisterDBTracing(a.db.DB, cfg.Telemetry, cfg.Database.Driver, log); err != nil {
		return nil, fmt.Errorf("failed to enable database tracing: %w", err)
	}

	if cfg.Redis.Enabled {
		a.redis, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	a.idempotency, err = cache.NewIdempotencyStoreFactory(a.redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStore()
	if err != nil {
		return nil, err
	}

	if a.redis != nil {
		a.locker = cache.NewRedisLocker(a.redis)
		a.blacklist = auth.NewRedisTokenBlacklist(a.redis)
	} else {
		a.locker = cache.NewLocalLocker()
		a.blacklist = auth.NewInMemoryTokenBlacklist()
	}

	a.metrics, err = telemetry.NewShopMetrics(providers.Meter("aquapet"))
	if err != nil {
		return nil, fmt.Errorf("failed to create shop metrics: %w", err)
	}

	a.eventBus = event.NewInMemoryEventBus(log.Named("events"))
	a.eventBus.Subscribe(event.NewLoggingHandler(log.Named("events")))
	a.eventBus.Subscribe(a.metrics)
	if err := a.eventBus.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start event bus: %w", err)
	}

	products := persistence.NewGormProductRepository(a.db.DB)
	variants := persistence.NewGormVariantRepository(a.db.DB)
	taxonomy := persistence.NewGormTaxonomyRepository(a.db.DB)
	users := persistence.NewGormUserRepository(a.db.DB)
	orders := persistence.NewGormOrderRepository(a.db.DB)
	txScope := persistence.NewGormTransactionScope(a.db.DB)

	var gateway checkout.PaymentGateway
	if stripeGateway, gwErr := payment.NewStripeGateway(cfg.Stripe, log.Named("stripe")); gwErr != nil {
		log.Warn("Stripe is not configured, online checkout is disabled", zap.Error(gwErr))
	} else {
		gateway = stripeGateway
		log.Info("Stripe gateway ready", zap.Bool("test_mode", cfg.Stripe.IsTestMode()))
	}

	var catalogOpts []catalogapp.ServiceOption
	if cfg.Storage.Enabled {
		images, err := storage.NewS3ImageStorage(ctx, cfg.Storage, storage.WithLogger(log.Named("storage")))
		if err != nil {
			return nil, err
		}
		if err := images.EnsureBucket(ctx); err != nil {
			log.Warn("Image bucket is not reachable, uploads will fail until it is", zap.Error(err))
		}
		catalogOpts = append(catalogOpts, catalogapp.WithImageStorage(images, cfg.Storage.MaxImageSize))
		log.Info("Image storage ready", zap.String("bucket", images.Bucket()))
	}

	a.catalog = catalogapp.NewService(products, taxonomy, log, catalogOpts...)
	a.checkout = checkout.NewService(checkout.ServiceConfig{
		Config:   checkoutConfig(cfg),
		Policy:   shippingPolicy(cfg.Shipping),
		Products: products,
		Orders:   orders,
		Users:    users,
		Gateway:  gateway,
		EventBus: a.eventBus,
		Logger:   log,
	})
	a.webhooks = checkout.NewWebhookService(checkout.WebhookServiceConfig{
		Parser:         payment.NewStripeWebhookParser(cfg.Stripe, log.Named("stripe")),
		TxScope:        txScope,
		Idempotency:    a.idempotency,
		IdempotencyTTL: cfg.Stripe.IdempotencyTTL,
		EventBus:       a.eventBus,
		Logger:         log,
	})
	a.expirer = checkout.NewExpirationService(orders, txScope, gateway, a.eventBus,
		cfg.Sweeper.PendingTTL, cfg.Sweeper.BatchSize, log,
		checkout.WithRetryDelay(cfg.Sweeper.RetryDelay))
	a.pos = inventoryapp.NewPOSService(products, variants, a.eventBus, log)

	a.jwt = auth.NewJWTService(cfg.JWT)
	a.auth = identityapp.NewAuthService(users, a.jwt, a.blacklist, log)
	a.users = identityapp.NewUserService(users, identity.DefaultPhoneRegion, log)

	if cfg.App.SeedDemo {
		if _, err := a.catalog.SeedDemo(ctx); err != nil {
			log.Warn("Failed to seed demo product", zap.Error(err))
		}
	}

	return a, nil
}

// engine builds the gin engine with the middleware chain and every route.
// Background helpers of the HTTP layer join g.
func (a *app) engine(ctx context.Context, g *errgroup.Group) *gin.Engine {
	cfg, log := a.cfg, a.log

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanEnricher(),
	)

	if cfg.Metrics.Enabled {
		httpMetrics := telemetry.NewHTTPMetrics(cfg.Metrics.Namespace)
		if sqlDB, err := a.db.DB.DB(); err == nil {
			if err := httpMetrics.RegisterDB(sqlDB, cfg.Database.Driver); err != nil {
				log.Warn("Failed to export database pool metrics", zap.Error(err))
			}
		}
		engine.Use(middleware.HTTPMetrics(httpMetrics))
		engine.GET(cfg.Metrics.Path, gin.WrapH(httpMetrics.Handler()))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// multipart framing needs some room on top of the image itself
	imageLimit := middleware.RouteLimit{
		Path:     r.BasePath() + "/admin" + router.ProductImagesPath,
		MaxBytes: cfg.Storage.MaxImageSize + 64<<10,
	}
	engine.Use(
		middleware.CORS(cfg.HTTP),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize, imageLimit),
	)

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
		engine.Use(middleware.RateLimit(limiter))
		g.Go(func() error {
			limiter.Cleanup(ctx, time.Minute)
			return nil
		})
		log.Info("Rate limiting enabled",
			zap.Float64("rps", cfg.HTTP.RateLimitRPS),
			zap.Int("burst", cfg.HTTP.RateLimitBurst))
	}

	var redisPinger handler.Pinger
	if a.redis != nil {
		redisPinger = handler.PingFunc(func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}
	engine.GET("/health", handler.NewHealthHandler(a.db, redisPinger, version).Health)

	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(a.auth),
		User:      handler.NewUserHandler(a.users),
		Catalog:   handler.NewCatalogHandler(a.catalog),
		Order:     handler.NewOrderHandler(a.checkout),
		Webhook:   handler.NewWebhookHandler(a.webhooks, a.metrics, cfg.HTTP.WebhookMaxPayload),
		Inventory: handler.NewInventoryHandler(a.pos, a.metrics),
		Images:    handler.NewProductImageHandler(a.catalog, cfg.Storage.MaxImageSize),
	}
	guards := router.Guards{
		Auth: middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService:     a.jwt,
			TokenBlacklist: a.blacklist,
			Logger:         log,
		}),
		Admin:       middleware.RequireAdmin(),
		POS:         middleware.POSKey(cfg.POS.APIKey),
		WebhookBody: middleware.BodyLimit(cfg.HTTP.WebhookMaxPayload),
	}
	if cfg.POS.APIKey == "" {
		log.Warn("POS endpoints are not protected by a key")
	}

	for _, group := range router.ShopGroups(handlers, guards) {
		r.Register(group)
		for _, route := range group.Routes(r.BasePath()) {
			log.Debug("Route registered",
				zap.String("group", route.Group),
				zap.String("method", route.Method),
				zap.String("path", route.Path))
		}
	}
	r.Setup()

	return engine
}

// close releases resources in reverse order of acquisition
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.eventBus != nil {
		if err := a.eventBus.Stop(ctx); err != nil {
			a.log.Error("Error stopping event bus", zap.Error(err))
		}
	}
	if a.idempotency != nil {
		if err := a.idempotency.Close(); err != nil {
			a.log.Error("Error closing idempotency store", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("Error closing Redis client", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error("Error closing database", zap.Error(err))
		}
	}
}

// migrateSchema brings the schema up to date: GORM auto-migration for sqlite
// and the embedded SQL migrations for postgres.
func migrateSchema(cfg *config.Config, db *persistence.Database, log *zap.Logger) error {
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			return fmt.Errorf("failed to auto-migrate sqlite schema: %w", err)
		}
		return nil
	}

	conn, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer conn.Close()

	m, err := migration.New(conn, migrations.FS, log.Named("migrate"))
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

func checkoutConfig(cfg *config.Config) checkout.Config {
	c := checkout.DefaultConfig()
	c.ClientURL = cfg.App.ClientURL
	c.Currency = cfg.Stripe.Currency
	c.ShippingLabel = cfg.Stripe.ShippingLabel
	c.PaymentMethods = cfg.Stripe.PaymentMethods
	c.MetadataMaxSize = cfg.Stripe.MetadataMaxSize
	c.SessionTTL = cfg.Stripe.SessionTTL
	c.TotalTolerance = decimal.RequireFromString(cfg.Shipping.TotalTolerance)
	return c
}

// shippingPolicy converts the validated shipping section into the domain policy
func shippingPolicy(cfg config.ShippingConfig) order.ShippingPolicy {
	return order.ShippingPolicy{
		FreeThreshold:   decimal.RequireFromString(cfg.FreeThreshold),
		LocalRate:       decimal.RequireFromString(cfg.LocalRate),
		StandardRate:    decimal.RequireFromString(cfg.StandardRate),
		LocalCityMarker: cfg.LocalCityMarker,
		LocalZipPrefix:  cfg.LocalZipPrefix,
	}
}
