package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/Alex240101/oxapampa/docs"
	catalogapp "github.com/Alex240101/oxapampa/internal/application/catalog"
	importapp "github.com/Alex240101/oxapampa/internal/application/import"
	invoicingapp "github.com/Alex240101/oxapampa/internal/application/invoicing"
	"github.com/Alex240101/oxapampa/internal/application/notify"
	salesapp "github.com/Alex240101/oxapampa/internal/application/sales"
	"github.com/Alex240101/oxapampa/internal/domain/invoicing"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/infrastructure/auth"
	"github.com/Alex240101/oxapampa/internal/infrastructure/cache"
	"github.com/Alex240101/oxapampa/internal/infrastructure/config"
	"github.com/Alex240101/oxapampa/internal/infrastructure/logger"
	infranotify "github.com/Alex240101/oxapampa/internal/infrastructure/notify"
	"github.com/Alex240101/oxapampa/internal/infrastructure/nubefact"
	"github.com/Alex240101/oxapampa/internal/infrastructure/persistence"
	"github.com/Alex240101/oxapampa/internal/infrastructure/storage"
	"github.com/Alex240101/oxapampa/internal/infrastructure/telemetry"
	"github.com/Alex240101/oxapampa/internal/interfaces/http/handler"
	"github.com/Alex240101/oxapampa/internal/interfaces/http/middleware"
	"github.com/Alex240101/oxapampa/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 30 * time.Second

//	@title			Oxapampa Back Office API
//	@version		1.0
//	@description	Catalog import and export, counter sales and SUNAT electronic documents.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log = lp.Bridge(log, zapcore.InfoLevel)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilingServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Telemetry.ProfilingAuthUser,
		BasicAuthPassword: cfg.Telemetry.ProfilingAuthPassword,
		ProfileTypes:      cfg.Telemetry.ProfilingTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Warn("Profiler stop failed", zap.Error(err))
		}
	}()
	if cfg.Telemetry.SpanProfilesEnabled && profiler.IsEnabled() {
		tp.EnableSpanProfiles()
	}

	metrics, err := telemetry.NewBusinessMetrics(mp.Meter(cfg.Telemetry.ServiceName))
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}

	log.Info("Starting Oxapampa back office",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Telemetry.DBSlowQueryThresh)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	checks := map[string]handler.Pinger{"database": db}

	// Redis is optional: without it notifications only reach the log and
	// idempotency keys are tracked per instance.
	var redisClient *redis.Client
	sinks := []notify.Sink{notify.NewLogSink(log)}
	if cfg.Redis.Host != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable", zap.Error(err))
		} else {
			defer func() { _ = redisClient.Close() }()
			sinks = append(sinks, infranotify.NewRedisSink(redisClient, cfg.Redis.NotifyChannel))
			checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			})
		}
	}
	sink := notify.NewMultiSink(log, sinks...)

	var idempotency shared.IdempotencyStore
	if cfg.Redis.Host == "" {
		idempotency = cache.NewInMemoryIdempotencyStore()
	} else {
		var sharedClient redis.UniversalClient
		if redisClient != nil {
			sharedClient = redisClient
		}
		idempotency, err = cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).
			CreateStore(ctx, sharedClient)
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
	}
	defer func() { _ = idempotency.Close() }()

	provider, err := nubefact.NewClient(nubefact.Config{
		URL:        cfg.Invoicing.URL,
		Token:      cfg.Invoicing.Token,
		AuthScheme: cfg.Invoicing.AuthScheme,
		Timeout:    cfg.Invoicing.Timeout,
	}, log)
	if err != nil {
		log.Fatal("Invalid invoicing provider configuration", zap.Error(err))
	}

	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	importRunRepo := persistence.NewGormImportRunRepository(db.DB)

	productService := catalogapp.NewProductService(productRepo)
	saleService := salesapp.NewSaleService(saleRepo, productRepo, log)
	documentService := invoicingapp.NewDocumentService(
		saleRepo,
		documentRepo,
		provider,
		invoicing.NewComposer(invoicing.WithTaxRate(cfg.Invoicing.TaxRate)),
		idempotency,
		invoicingapp.Config{
			InvoiceSeries:  cfg.Invoicing.InvoiceSeries,
			ReceiptSeries:  cfg.Invoicing.ReceiptSeries,
			IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		},
		invoicingapp.WithNotifier(sink),
		invoicingapp.WithMetrics(metrics),
		invoicingapp.WithLogger(log),
	)
	importOpts := []importapp.Option{
		importapp.WithBatchSize(cfg.Import.BatchSize),
		importapp.WithNotifier(sink),
		importapp.WithMetrics(metrics),
		importapp.WithLogger(log),
	}
	// Uploaded files are archived only when a bucket is configured.
	if cfg.Storage.Enabled() {
		store, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Invalid object storage configuration", zap.Error(err))
		}
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatal("Object storage unavailable", zap.Error(err))
		}
		checks["storage"] = store
		importOpts = append(importOpts, importapp.WithArchive(store))
	}
	importService := importapp.NewProductImportService(productRepo, categoryRepo, importRunRepo, importOpts...)

	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to set up request validation", zap.Error(err))
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine, err := router.New(router.Config{
		ServiceName:      cfg.Telemetry.ServiceName,
		TracingEnabled:   cfg.Telemetry.Enabled,
		ProfilingEnabled: profiler.IsEnabled(),
		SwaggerEnabled:   cfg.HTTP.SwaggerEnabled,
		CORS:             cors,
		MaxBodySize:      cfg.HTTP.MaxBodySize,
		TrustedProxies:   cfg.HTTP.TrustedProxies,
		Session: middleware.SessionConfig{
			Parser:     auth.NewJWTService(cfg.JWT),
			CookieName: cfg.JWT.CookieName,
		},
		Logger: log,
	}, router.Handlers{
		System:   handler.NewSystemHandler(cfg.App.Name, version, checks),
		Product:  handler.NewProductHandler(productService),
		Sale:     handler.NewSaleHandler(saleService),
		Document: handler.NewDocumentHandler(documentService),
		Import:   handler.NewImportHandler(importService, cfg.Import.MaxFileSize),
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tp.Shutdown,
		"meter":  mp.Shutdown,
		"logger": lp.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
