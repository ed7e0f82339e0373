package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	invoicingapp "github.com/billkit/backend/internal/application/invoicing"
	"github.com/billkit/backend/internal/domain/invoicing"
	"github.com/billkit/backend/internal/domain/shared/service"
	"github.com/billkit/backend/internal/infrastructure/cache"
	"github.com/billkit/backend/internal/infrastructure/catalogstore"
	"github.com/billkit/backend/internal/infrastructure/config"
	"github.com/billkit/backend/internal/infrastructure/logger"
	"github.com/billkit/backend/internal/infrastructure/persistence"
	"github.com/billkit/backend/internal/interfaces/http/handler"
	"github.com/billkit/backend/internal/interfaces/http/middleware"
	"github.com/billkit/backend/internal/interfaces/http/router"
)

//	@title			BillKit Invoicing API
//	@version		1.0
//	@description	Subscription invoice generation and reconciliation engine

//	@host		localhost:8080
//	@BasePath	/api/v1

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
		_ = logger.Sync(log)
	}()

	log.Info("Starting BillKit Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Load the pricing catalog
	catalogPaths := cfg.Catalog.Paths
	if len(catalogPaths) == 0 {
		catalogPaths, _ = filepath.Glob("catalog/*.yaml")
	}
	if len(catalogPaths) == 0 {
		log.Warn("No catalog files configured, starting with an empty catalog")
	}
	cat, err := catalogstore.LoadCatalog(catalogPaths, catalogstore.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to load pricing catalog", zap.Error(err))
	}
	log.Info("Pricing catalog loaded", zap.Int("versions", len(catalogPaths)))

	// Initialize repositories and event source
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	eventSource := persistence.NewGormBillingEventSource(db.DB, cat, log)

	// Per-account generation lock: Redis lease when configured, in-memory
	// fallback otherwise
	lockFactory := cache.NewAccountLockFactory(cfg.Redis, cfg.Invoice.LockTTL,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	accountLock, err := lockFactory.CreateLock()
	if err != nil {
		log.Fatal("Failed to create account lock", zap.Error(err))
	}

	// Assemble the invoicing pipeline
	assembler := invoicing.NewInvoiceAssembler(
		service.NewSystemClock(),
		invoicing.NewItemGenerator(invoicing.NewDefaultBillingModeRegistry(), log),
		cfg.Invoice.MaxTargetDateMonths,
		log,
	)
	invoiceService := invoicingapp.NewInvoiceService(eventSource, invoiceRepo, assembler, accountLock, log)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check
	engine.GET("/health", healthHandler(db, log))

	// API routes. Generation recomputes the full billing timeline, so it
	// carries its own per-account budget on top of the global limiter.
	generationLimiter := middleware.NewRateLimiter(10, time.Minute)
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewInvoiceHandler(invoiceService, middleware.GenerationRateLimit(generationLimiter)))
	r.Setup()

	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
