package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"coffeeshop/internal/authz"
	"coffeeshop/internal/cache"
	"coffeeshop/internal/config"
	"coffeeshop/internal/database"
	"coffeeshop/internal/events"
	"coffeeshop/internal/handlers"
	"coffeeshop/internal/logger"
	"coffeeshop/internal/metrics"
	"coffeeshop/internal/middleware"
	"coffeeshop/internal/services"
	"coffeeshop/internal/storage"
	"coffeeshop/internal/store"
)

func main() {
	config.Load()
	cfg := config.AppEnv

	if err := logger.Init(cfg.LogLevel, cfg.GinMode == gin.DebugMode); err != nil {
		panic(err)
	}

	if err := run(cfg); err != nil {
		logger.L().Error("server exited", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// run owns every resource it opens, so its defers always execute before the
// process exits.
func run(cfg config.Config) error {
	log := logger.L()

	uploader, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage setup: %w", err)
	}

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}()

	db := client.Database(cfg.DBName)
	log.Info("mongo connected", zap.String("db", db.Name()))

	if err := database.EnsureIndexes(db); err != nil {
		log.Warn("index setup incomplete", zap.Error(err))
	}

	collector := metrics.New()
	health := map[string]handlers.Pinger{
		"mongo": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}

	var catalogCache cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			catalogCache = cache.NewRedisCache(rdb, "coffeeshop:")
			health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		}
	}
	catalogCache = collector.InstrumentCache(catalogCache, "catalog")

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		log.Info("order events enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaOrderTopic))
	}
	defer publisher.Close()

	app := buildServices(db, client, cfg, catalogCache, publisher)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics(collector))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	if _, local := uploader.(*storage.LocalUploader); local && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		r.Static(cfg.Storage.PublicBaseURL, cfg.Storage.UploadDir)
	}

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepLimiter(sweepCtx, limiter)

	registerRoutes(r, app, uploader, collector, limiter, health)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

type application struct {
	auth      *services.AuthService
	catalog   *services.CatalogService
	carts     *services.CartService
	coupons   *services.CouponService
	orders    *services.OrderService
	loyalty   *services.LoyaltyService
	delivery  *services.DeliveryService
	checkout  *services.CheckoutService
	customers *services.CustomerService
	dashboard *services.DashboardService
}

func buildServices(db *mongo.Database, client *mongo.Client, cfg config.Config, catalogCache cache.Cache, publisher events.Publisher) application {
	users := store.NewUserRepository(db)
	products := store.NewProductRepository(db)
	orderRepo := store.NewOrderRepository(db)
	tx := database.NewTransactor(client, cfg.MongoTransactions)

	app := application{
		auth: services.NewAuthService(users, store.NewRefreshTokenRepository(db), services.AuthConfig{
			Secret:       cfg.JWTSecret,
			AccessTTL:    cfg.AccessTokenTTL,
			RefreshTTL:   cfg.RefreshTokenTTL,
			IsAdminEmail: cfg.IsAdminEmail,
		}),
		catalog:   services.NewCatalogService(products, catalogCache, cfg.CatalogCacheTTL),
		carts:     services.NewCartService(store.NewCartRepository(db)),
		coupons:   services.NewCouponService(store.NewCouponRepository(db)),
		orders:    services.NewOrderService(orderRepo, users, tx, publisher),
		loyalty:   services.NewLoyaltyService(users, store.NewRewardRepository(db), store.NewRedemptionRepository(db), tx),
		delivery:  services.NewDeliveryService(cfg.DeliveryFee, cfg.DeliveryGPSMin, cfg.DeliveryGPSMax),
		customers: services.NewCustomerService(users, orderRepo),
		dashboard: services.NewDashboardService(orderRepo, users, products),
	}
	app.checkout = services.NewCheckoutService(services.CheckoutDeps{
		Carts:     app.carts,
		Coupons:   app.coupons,
		Orders:    app.orders,
		Loyalty:   app.loyalty,
		Delivery:  app.delivery,
		Users:     users,
		OrderRepo: orderRepo,
		Tx:        tx,
		Publisher: publisher,
	})
	return app
}

func registerRoutes(r *gin.Engine, app application, uploader storage.Uploader, collector *metrics.Collector, limiter *middleware.IPRateLimiter, health map[string]handlers.Pinger) {
	authn := middleware.Authenticate(app.auth)
	throttle := middleware.RateLimit(limiter)

	r.GET("/", handlers.Home())
	r.GET("/health", handlers.Health(health))
	r.GET("/metrics", gin.WrapH(collector.Handler()))

	auth := r.Group("/auth")
	{
		auth.POST("/register", throttle, handlers.Register(app.auth))
		auth.POST("/login", throttle, handlers.Login(app.auth))
		auth.POST("/refresh", throttle, handlers.Refresh(app.auth))
		auth.POST("/logout", handlers.Logout(app.auth))
		auth.GET("/me", authn, handlers.GetMe(app.auth))
	}
	r.PUT("/user/profile", authn, handlers.UpdateProfile(app.auth))

	r.GET("/products", handlers.GetProducts(app.catalog))
	r.GET("/products/categories", handlers.GetCategories(app.catalog))
	r.GET("/products/:id", handlers.GetProduct(app.catalog))

	cart := r.Group("/cart", authn)
	{
		cart.GET("", handlers.GetCart(app.carts))
		cart.DELETE("", handlers.ClearCart(app.carts))
		cart.POST("/items", handlers.AddCartItem(app.carts, app.catalog))
		cart.PUT("/items/:id", handlers.UpdateCartItem(app.carts))
		cart.DELETE("/items/:id", handlers.RemoveCartItem(app.carts))
	}

	checkout := r.Group("/checkout", authn)
	{
		checkout.POST("", throttle, handlers.PlaceOrder(app.checkout, collector))
		checkout.POST("/coupon", throttle, handlers.ValidateCoupon(app.checkout))
		checkout.POST("/delivery-quote", handlers.DeliveryQuote(app.delivery))
	}

	orders := r.Group("/orders", authn)
	{
		orders.GET("/mine", handlers.GetMyOrders(app.orders))
		orders.GET("/:id", handlers.GetOrder(app.orders))
	}

	loyalty := r.Group("/loyalty", authn)
	{
		loyalty.GET("", handlers.GetLoyaltyStatus(app.loyalty))
		loyalty.GET("/rewards", handlers.GetRewards(app.loyalty, true))
		loyalty.POST("/rewards/:id/redeem", handlers.RedeemReward(app.loyalty, collector))
		loyalty.GET("/redemptions", handlers.GetMyRedemptions(app.loyalty))
	}

	admin := r.Group("/admin/api", authn)
	{
		catalog := admin.Group("", middleware.RequireCapability(authz.ManageCatalog))
		catalog.GET("/products", handlers.GetAllProducts(app.catalog))
		catalog.POST("/products", handlers.CreateProduct(app.catalog, uploader))
		catalog.PUT("/products/:id", handlers.UpdateProduct(app.catalog, uploader))
		catalog.PATCH("/products/:id/stock", handlers.UpdateProductStock(app.catalog))
		catalog.DELETE("/products/:id", handlers.DeleteProduct(app.catalog, uploader))
		catalog.POST("/uploads", handlers.UploadImage(uploader))

		orders := admin.Group("", middleware.RequireCapability(authz.ManageOrders))
		orders.GET("/orders", handlers.GetOrders(app.orders))
		orders.PUT("/orders/:id/status", handlers.UpdateOrderStatus(app.orders))
		orders.PUT("/orders/:id/payment", handlers.UpdatePaymentStatus(app.orders))
		orders.DELETE("/orders/:id", handlers.DeleteOrder(app.orders))
		orders.GET("/dashboard", handlers.GetDashboard(app.dashboard))

		offers := admin.Group("", middleware.RequireCapability(authz.ManageOffers))
		offers.GET("/coupons", handlers.GetCoupons(app.coupons))
		offers.POST("/coupons", handlers.CreateCoupon(app.coupons))
		offers.PUT("/coupons/:id", handlers.UpdateCoupon(app.coupons))
		offers.PATCH("/coupons/:id/active", handlers.SetCouponActive(app.coupons))
		offers.DELETE("/coupons/:id", handlers.DeleteCoupon(app.coupons))

		customers := admin.Group("", middleware.RequireCapability(authz.ManageCustomers))
		customers.GET("/customers", handlers.GetCustomers(app.customers))
		customers.GET("/customers/:id", handlers.GetCustomer(app.customers))
		customers.DELETE("/customers/:id", handlers.DeleteCustomer(app.customers))

		loyalty := admin.Group("", middleware.RequireCapability(authz.ManageLoyalty))
		loyalty.GET("/loyalty/rewards", handlers.GetRewards(app.loyalty, false))
		loyalty.POST("/loyalty/rewards", handlers.CreateReward(app.loyalty))
		loyalty.PUT("/loyalty/rewards/:id", handlers.UpdateReward(app.loyalty))
		loyalty.DELETE("/loyalty/rewards/:id", handlers.DeleteReward(app.loyalty))
		loyalty.GET("/loyalty/members", handlers.GetLoyaltyMembers(app.loyalty))
		loyalty.GET("/loyalty/redemptions", handlers.GetAllRedemptions(app.loyalty))
		loyalty.POST("/customers/:id/points", handlers.CreditPoints(app.loyalty))
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	if len(origins) == 0 || (len(origins) == 1 && strings.TrimSpace(origins[0]) == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func sweepLimiter(ctx context.Context, limiter *middleware.IPRateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}
