package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	appenrichment "github.com/enrichment/backend/internal/application/enrichment"
	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/infrastructure/cache"
	"github.com/enrichment/backend/internal/infrastructure/config"
	"github.com/enrichment/backend/internal/infrastructure/logger"
	"github.com/enrichment/backend/internal/infrastructure/migration"
	"github.com/enrichment/backend/internal/infrastructure/persistence"
	"github.com/enrichment/backend/internal/infrastructure/persistence/models"
	"github.com/enrichment/backend/internal/infrastructure/scheduler"
	"github.com/enrichment/backend/internal/infrastructure/source"
	"github.com/enrichment/backend/internal/infrastructure/source/barcodelookup"
	"github.com/enrichment/backend/internal/infrastructure/source/icecat"
	"github.com/enrichment/backend/internal/infrastructure/source/imaging"
	"github.com/enrichment/backend/internal/infrastructure/specrender"
	"github.com/enrichment/backend/internal/infrastructure/storage"
	"github.com/enrichment/backend/internal/infrastructure/telemetry"
	"github.com/enrichment/backend/internal/interfaces/http/handler"
	"github.com/enrichment/backend/internal/interfaces/http/middleware"
	"github.com/enrichment/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Product Enrichment API
//	@version		1.0
//	@description	Enriches catalog products with data from BarcodeLookup and Icecat

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry providers are no-ops when disabled
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}

	// Every entry also goes to the collector when log export is enabled
	log, err := logger.New(logCfg, logProvider.Core(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting product enrichment service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	profiling := cfg.Telemetry.Profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           profiling.Enabled,
		ServerAddress:     profiling.ServerAddress,
		ApplicationName:   profiling.ApplicationName,
		BasicAuthUser:     profiling.BasicAuthUser,
		BasicAuthPassword: profiling.BasicAuthPassword,
		ProfileTypes:      profiling.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	// Span profiles need a running profiler
	if profiler.IsEnabled() && profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	// Initialize database connection with a zap backed GORM logger
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(log, logger.MapGormLogLevel(cfg.Log.Level)),
		persistence.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	if err := migrateSchema(db, cfg.Database.Driver, log); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem: dbSystem(cfg.Database.Driver),
	}, log); err != nil {
		log.Warn("Failed to enable database tracing", zap.Error(err))
	}

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	mappingRepo := persistence.NewGormCategoryMappingRepository(db.DB)
	attributeRepo := persistence.NewGormAttributeRepository(db.DB)
	ruleRepo := persistence.NewGormFieldMappingRuleRepository(db.DB)
	settingsStore := persistence.NewGormSettingsStore(db.DB)
	syncLogRepo := persistence.NewGormSyncLogRepository(db.DB)

	connectors := newConnectors(cfg, log)
	if len(connectors) == 0 {
		log.Warn("No lookup source is configured; enrichment requests will report NO_SOURCES_CONFIGURED")
	}

	imageStore := newImageStore(ctx, cfg, log)

	enrichmentMetrics, err := telemetry.NewEnrichmentMetrics(meterProvider.Meter("enrichment"))
	if err != nil {
		log.Fatal("Failed to create enrichment metrics", zap.Error(err))
	}

	// Initialize application services
	renderer := specrender.New()
	categoryService := appenrichment.NewCategoryService(mappingRepo, categoryRepo, productRepo, log)
	orchestrator := appenrichment.NewOrchestrator(productRepo, connectors, log,
		appenrichment.WithImages(imaging.NewFetcher(imageConfig(cfg.Sources.Image), log), imageStore),
		appenrichment.WithCategoryResolver(categoryService),
		appenrichment.WithSpecRenderer(renderer),
		appenrichment.WithMetrics(enrichmentMetrics),
	)
	settingsService := appenrichment.NewSettingsService(settingsStore, ruleRepo)
	fieldRuleService := appenrichment.NewFieldRuleService(ruleRepo, log)
	maintenanceService := appenrichment.NewMaintenanceService(attributeRepo, log)
	specManager := appenrichment.NewSpecManager(productRepo, renderer)
	batchRunner := appenrichment.NewBatchRunner(productRepo, syncLogRepo, settingsService, orchestrator, log,
		appenrichment.WithBatchMetrics(enrichmentMetrics),
	)

	// The scheduler also serves manual triggers, so it exists even when cron is disabled
	sched, err := scheduler.New(scheduler.Config{
		NewProductsCron: cfg.Scheduler.NewProductsCron,
		UpdateCron:      cfg.Scheduler.UpdateCron,
		JobTimeout:      cfg.Scheduler.JobTimeout,
	}, batchRunner, settingsService, log)
	if err != nil {
		log.Fatal("Failed to create enrichment scheduler", zap.Error(err))
	}
	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			log.Fatal("Failed to start enrichment scheduler", zap.Error(err))
		}
	} else {
		log.Info("Enrichment scheduler disabled by configuration")
	}

	// Initialize handlers
	handlers := router.Handlers{
		System:         handler.NewSystemHandler(version, sched),
		Enrichment:     handler.NewEnrichmentHandler(batchRunner, sched, syncLogRepo),
		Settings:       handler.NewSettingsHandler(settingsService, fieldRuleService),
		Categories:     handler.NewCategoryMappingHandler(categoryService),
		Specifications: handler.NewSpecificationHandler(specManager),
		Maintenance:    handler.NewMaintenanceHandler(maintenanceService),
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
	// 4. Tracing - Server spans, request attributes and error status
	// 5. Metrics - Request counters, latency and profiling labels
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	// 9. RateLimit - Apply rate limiting (if enabled)
	// 10. Timeout - Bound the request context, except for runs
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(meterProvider, log))
	engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled:          profiler.IsEnabled(),
		SkipPaths:        middleware.DefaultProfilingConfig().SkipPaths,
		SkipPathPrefixes: middleware.DefaultProfilingConfig().SkipPathPrefixes,
	}))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
	}
	engine.Use(middleware.TimeoutWithSkipper(cfg.HTTP.RequestTimeout, startsRun))

	// Health check endpoints
	engine.GET("/health", healthHandler(db))
	engine.GET("/healthz", healthHandler(db))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterAPI(r, handlers,
		middleware.RunRateLimit(middleware.NewRateLimiter(cfg.HTTP.RunRateLimitRequests, cfg.HTTP.RunRateLimitWindow)),
	)
	r.Setup()

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Warn("Enrichment scheduler did not stop cleanly", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler shutdown failed", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logs":   logProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// migrateSchema applies the embedded SQL migrations on postgres.
// SQLite is a development driver and gets its schema from the models.
func migrateSchema(db *persistence.Database, driver string, log *zap.Logger) error {
	if driver == "sqlite" {
		return db.DB.AutoMigrate(models.All()...)
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	migrator, err := migration.New(sqlDB, "", log)
	if err != nil {
		return err
	}
	return migrator.Up()
}

func dbSystem(driver string) string {
	if driver == "sqlite" {
		return "sqlite"
	}
	return "postgresql"
}

// newConnectors builds the configured sources. A source with missing
// credentials is left out; Settings can still name it but it is never called.
func newConnectors(cfg *config.Config, log *zap.Logger) []enrichment.Connector {
	var store cache.Store
	if cfg.Sources.Cache.Enabled {
		opts := []cache.StoreFactoryOption{
			cache.WithLogger(log),
			cache.WithInMemoryFallback(true),
		}
		if cfg.Redis.Enabled {
			opts = append(opts, cache.WithRedis(cache.RedisConfig{
				Host:     cfg.Redis.Host,
				Port:     cfg.Redis.Port,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			}))
		}
		factory := cache.NewStoreFactory("enrich:lookup:", cfg.Sources.Cache.TTL, opts...)
		s, err := factory.CreateStore()
		if err != nil {
			log.Warn("Lookup cache unavailable, continuing without it", zap.Error(err))
		} else {
			store = s
		}
	}

	retry := source.RetryConfig{
		MaxAttempts:     cfg.Sources.Retry.MaxAttempts,
		InitialInterval: cfg.Sources.Retry.InitialInterval,
		MaxInterval:     cfg.Sources.Retry.MaxInterval,
	}
	decorate := func(c enrichment.Connector, rps float64) enrichment.Connector {
		c = source.WithRetry(c, retry, log)
		c = source.WithRateLimit(c, rps, 1)
		if store != nil {
			c = source.WithCache(c, store, cfg.Sources.Cache.TTL, log)
		}
		return c
	}

	var connectors []enrichment.Connector

	blCfg := barcodelookup.NewConfig(cfg.Sources.BarcodeLookup.APIKey)
	if cfg.Sources.BarcodeLookup.APIURL != "" {
		blCfg.APIURL = cfg.Sources.BarcodeLookup.APIURL
	}
	if cfg.Sources.BarcodeLookup.Timeout > 0 {
		blCfg.Timeout = cfg.Sources.BarcodeLookup.Timeout
	}
	if err := blCfg.Validate(); err != nil {
		log.Info("BarcodeLookup source disabled", zap.Error(err))
	} else {
		connectors = append(connectors, decorate(barcodelookup.NewConnector(blCfg, log), cfg.Sources.BarcodeLookup.RateLimit))
	}

	icCfg := icecat.NewConfig(cfg.Sources.Icecat.Username, cfg.Sources.Icecat.Password)
	if cfg.Sources.Icecat.APIURL != "" {
		icCfg.APIURL = cfg.Sources.Icecat.APIURL
	}
	if cfg.Sources.Icecat.Timeout > 0 {
		icCfg.Timeout = cfg.Sources.Icecat.Timeout
	}
	if err := icCfg.Validate(); err != nil {
		log.Info("Icecat source disabled", zap.Error(err))
	} else {
		connectors = append(connectors, decorate(icecat.NewConnector(icCfg, log), cfg.Sources.Icecat.RateLimit))
	}

	return connectors
}

// newImageStore returns S3 storage when enabled, otherwise an in-process store
func newImageStore(ctx context.Context, cfg *config.Config, log *zap.Logger) appenrichment.ImageStore {
	if !cfg.Storage.Enabled {
		log.Info("Object storage disabled, product images are kept in memory")
		return storage.NewMemoryObjectStorage()
	}
	s3Store, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create object storage", zap.Error(err))
	}
	if err := s3Store.EnsureBucket(ctx); err != nil {
		log.Fatal("Failed to prepare image bucket", zap.String("bucket", s3Store.Bucket()), zap.Error(err))
	}
	return s3Store
}

func imageConfig(c config.ImageConfig) imaging.Config {
	out := imaging.DefaultConfig()
	if c.Timeout > 0 {
		out.Timeout = c.Timeout
	}
	if c.MaxDimension > 0 {
		out.MaxDimension = c.MaxDimension
	}
	if c.JPEGQuality > 0 {
		out.JPEGQuality = c.JPEGQuality
	}
	if c.MaxBytes > 0 {
		out.MaxBytes = c.MaxBytes
	}
	if c.MaxPixels > 0 {
		out.MaxPixels = c.MaxPixels
	}
	return out
}

// startsRun matches the routes that run enrichment; they are bounded by the job timeout
func startsRun(c *gin.Context) bool {
	p := c.FullPath()
	return strings.HasSuffix(p, "/enrich") || strings.Contains(p, "/enrichment/runs/")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
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
