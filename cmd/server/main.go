package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	estimateapp "github.com/estimate/backend/internal/application/estimate"
	"github.com/estimate/backend/internal/infrastructure/config"
	"github.com/estimate/backend/internal/infrastructure/imaging"
	"github.com/estimate/backend/internal/infrastructure/logger"
	"github.com/estimate/backend/internal/infrastructure/persistence"
	"github.com/estimate/backend/internal/infrastructure/printing"
	"github.com/estimate/backend/internal/infrastructure/storage"
	"github.com/estimate/backend/internal/interfaces/http/handler"
	"github.com/estimate/backend/internal/interfaces/http/middleware"
	"github.com/estimate/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.FromAppConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting estimate server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	store, err := persistence.NewKeyValueStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage", zap.Error(err))
		}
	}()

	repo := persistence.NewStateRepository(store, persistence.WithRepositoryLogger(log))
	seal := imaging.NewSealProcessor(
		imaging.WithStripWhiteBackground(cfg.Seal.StripWhiteBackground),
		imaging.WithThreshold(uint8(cfg.Seal.Threshold)),
		imaging.WithMaxBytes(cfg.Seal.MaxUploadBytes),
		imaging.WithLogger(log),
	)
	log.Info("Seal processor configured",
		zap.Bool("strip_white_background", seal.StripsWhiteBackground()),
		zap.Int("threshold", cfg.Seal.Threshold),
	)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	service, err := estimateapp.NewService(startupCtx, repo, seal, estimateapp.WithLogger(log))
	if err != nil {
		cancelStartup()
		log.Fatal("Failed to load saved sheet", zap.Error(err))
	}

	templates, err := printing.NewTemplateEngine()
	if err != nil {
		cancelStartup()
		log.Fatal("Failed to parse templates", zap.Error(err))
	}

	rasterizer, err := newRasterizer(cfg.Export, templates, log)
	if err != nil {
		cancelStartup()
		log.Fatal("Failed to create export renderer", zap.Error(err))
	}

	exportOpts := []estimateapp.ExportServiceOption{
		estimateapp.WithExportTimeout(cfg.Export.Timeout),
		estimateapp.WithDefaultFileName(cfg.Export.DefaultFileName),
		estimateapp.WithExportLogger(log),
	}
	if cfg.Archive.Enabled {
		archive, err := newArchive(startupCtx, &cfg.Archive, log)
		if err != nil {
			cancelStartup()
			log.Fatal("Failed to create export archive", zap.Error(err))
		}
		exportOpts = append(exportOpts, estimateapp.WithArchive(archive))
	}
	cancelStartup()

	exports := estimateapp.NewExportService(service, rasterizer, exportOpts...)
	defer func() {
		if err := exports.Close(); err != nil {
			log.Error("Error closing export renderer", zap.Error(err))
		}
	}()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	var exportLimit gin.HandlerFunc
	if cfg.Export.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.Export.RateLimit, cfg.Export.RateWindow)
		defer limiter.Stop()
		exportLimit = middleware.RateLimit(limiter)
	}

	router.RegisterRoutes(engine, router.Handlers{
		Page:     handler.NewPageHandler(service, templates),
		Static:   handler.NewStaticHandler(),
		Sheet:    handler.NewSheetHandler(service, templates),
		Supplier: handler.NewSupplierHandler(service, cfg.Seal.MaxUploadBytes),
		Product:  handler.NewProductHandler(service, templates),
		Export:   handler.NewExportHandler(exports),
		System:   handler.NewSystemHandler(cfg.App.Name, version, pinger(store)),

		ExportLimit: exportLimit,
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
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newRasterizer picks the export engine. The canvas engine needs no browser
// and is the default.
func newRasterizer(cfg config.ExportConfig, templates *printing.TemplateEngine, log *zap.Logger) (printing.SheetRasterizer, error) {
	if cfg.Engine == config.ExportEngineChromedp {
		log.Info("Using headless Chrome for exports", zap.Bool("remote", cfg.ChromeRemoteURL != ""))
		return printing.NewChromedpRasterizer(templates, &printing.ChromedpConfig{
			DefaultTimeout: cfg.Timeout,
			RemoteURL:      cfg.ChromeRemoteURL,
			NoSandbox:      cfg.NoSandbox,
			Scale:          cfg.Scale,
			Logger:         log,
		})
	}
	return printing.NewCanvasRasterizer(&printing.CanvasConfig{
		Scale:    cfg.Scale,
		FontPath: cfg.FontPath,
		Logger:   log,
	})
}

// newArchive opens the configured export archive. An unreachable bucket is
// logged and left to fail per upload.
func newArchive(ctx context.Context, cfg *config.ArchiveConfig, log *zap.Logger) (estimateapp.ExportArchive, error) {
	if cfg.Driver == config.ArchiveLocal {
		archive, err := storage.NewLocalExportArchive(cfg, storage.WithLocalLogger(log))
		if err != nil {
			return nil, err
		}
		log.Info("Archiving exports", zap.String("path", archive.BasePath()), zap.Int("retention_days", cfg.RetentionDays))
		return archive, nil
	}

	archive, err := storage.NewS3ExportArchive(cfg, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := archive.EnsureBucket(ctx); err != nil {
		log.Warn("Export archive bucket is not ready", zap.String("bucket", archive.GetBucket()), zap.Error(err))
	}
	log.Info("Archiving exports", zap.String("bucket", archive.GetBucket()))
	return archive, nil
}

// pinger returns the store as a health check when it supports one
func pinger(store any) handler.Pinger {
	if p, ok := store.(handler.Pinger); ok {
		return p
	}
	return nil
}
