// path: main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Developrimbor/GreenWorld-sub000/auth"
	"github.com/Developrimbor/GreenWorld-sub000/cache"
	"github.com/Developrimbor/GreenWorld-sub000/config"
	"github.com/Developrimbor/GreenWorld-sub000/controllers"
	"github.com/Developrimbor/GreenWorld-sub000/database"
	"github.com/Developrimbor/GreenWorld-sub000/geocode"
	"github.com/Developrimbor/GreenWorld-sub000/ports"
	"github.com/Developrimbor/GreenWorld-sub000/routes"
	"github.com/Developrimbor/GreenWorld-sub000/services"
	"github.com/Developrimbor/GreenWorld-sub000/storage"
)

// stores groups the repositories selected by STORE.
type stores struct {
	reports ports.ReportRepository
	cleaned ports.CleanedReportRepository
	users   ports.UserRepository
	tx      ports.Transactor
	close   func(context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			logger.Warn("db disconnect failed", "error", err)
		}
	}()

	blobs, err := openBlobs(ctx, cfg, logger)
	if err != nil {
		logger.Error("blob storage init failed", "error", err)
		os.Exit(1)
	}

	var guard ports.InFlightGuard = cache.NewMemoryGuard()
	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("redis connect failed", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping failed; in-flight guard will degrade", "error", err)
		}
		guard = cache.NewRedisGuard(rdb)
	}

	var verifier *auth.TokenVerifier
	if cfg.JWTSecret != "" {
		if verifier, err = auth.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer); err != nil {
			logger.Error("jwt verifier init failed", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("JWT_SECRET not set; every request is anonymous")
	}

	var geocoder ports.Geocoder
	if cfg.GeocoderAPIKey != "" {
		geocoder = geocode.NewGoogleClient(cfg.GeocoderAPIKey)
	}

	identity := auth.ContextIdentity{}
	uploader := services.NewUploader(services.UploaderConfig{
		Timeout:  cfg.UploadTimeout,
		Attempts: cfg.UploadAttempts,
	}, blobs, logger)
	reconciler := services.NewReconciler(st.reports, st.cleaned, st.users, st.tx, logger)

	h := &controllers.Handler{
		Reports: services.NewReportService(services.ReportDependencies{
			Config:   services.ReportConfig{LocationTimeout: cfg.LocationTimeout},
			Identity: identity,
			Reports:  st.reports,
			Users:    st.users,
			Uploader: uploader,
			Geocoder: geocoder,
			Logger:   logger,
		}),
		Cleanup: services.NewCleanupService(services.CleanupDependencies{
			Config:     services.CleanupConfig{LocationTimeout: cfg.LocationTimeout},
			Identity:   identity,
			Reports:    st.reports,
			Cleaned:    st.cleaned,
			Users:      st.users,
			Uploader:   uploader,
			Reconciler: reconciler,
			Guard:      guard,
			Logger:     logger,
		}),
		Accounts:      services.NewAccountService(identity, st.users, logger),
		MaxImageBytes: cfg.MaxImageBytes,
		Logger:        logger,
	}

	if cfg.ReconcileOnStart {
		n, err := reconciler.Repair(ctx, 100)
		if err != nil {
			logger.Error("reconciliation repair failed", "repaired", n, "error", err)
		} else {
			logger.Info("reconciliation repair done", "repaired", n)
		}
	}

	appCfg := routes.AppConfig{
		CORSOrigins: cfg.CORSOrigins,
		BodyLimit:   cfg.MaxImageBytes * 6,
		AccessLog:   true,
	}
	if cfg.BlobBackend == "local" {
		appCfg.UploadDir = cfg.UploadDir
	}
	app := routes.NewApp(appCfg, h, verifier, logger)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	logger.Info("API listening", "addr", cfg.HTTPAddr, "store", cfg.Store, "blobs", cfg.BlobBackend)
	if err := app.Listen(cfg.HTTPAddr); err != nil {
		logger.Error("listen failed", "error", err)
	}
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	if cfg.Store == "memory" {
		logger.Warn("using in-memory store; data is lost on restart")
		m := database.NewMemoryStore()
		return stores{
			reports: m.Reports(),
			cleaned: m.CleanedReports(),
			users:   m.Users(),
			close:   func(context.Context) error { return nil },
		}, nil
	}

	client, db, err := database.Connect(ctx, cfg.Mongo, logger)
	if err != nil {
		return stores{}, err
	}
	ms := database.NewMongoStore(client, db, cfg.DBTimeout)
	st := stores{
		reports: ms.Reports(),
		cleaned: ms.CleanedReports(),
		users:   ms.Users(),
		close:   ms.Disconnect,
	}
	if cfg.MongoTransactions {
		st.tx = ms
		logger.Info("mongo: cleanup reconciliation runs in transactions")
	}
	return st, nil
}

func openBlobs(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.BlobStore, error) {
	switch cfg.BlobBackend {
	case "local":
		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewLocalStore(cfg.UploadDir, "/uploads"), nil
	case "minio":
		return storage.NewMinioStore(ctx, cfg.Minio, logger)
	default:
		return nil, errors.New("unsupported blob backend " + cfg.BlobBackend)
	}
}
