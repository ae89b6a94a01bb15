package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockledger/stockledger/internal/app"
	"github.com/stockledger/stockledger/internal/auth"
	"github.com/stockledger/stockledger/internal/catalog/locations"
	"github.com/stockledger/stockledger/internal/catalog/products"
	"github.com/stockledger/stockledger/internal/ledger"
	"github.com/stockledger/stockledger/internal/platform/cache"
	"github.com/stockledger/stockledger/internal/platform/db"
	"github.com/stockledger/stockledger/internal/reports"
	"github.com/stockledger/stockledger/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	sessionStore := auth.NewSessionStore(redisClient, cfg.SessionTTL)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, sessionStore)
	authHandler := auth.NewHandler(logger, authService)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	if err := reportCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}
	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, reportCache)
	reportsHandler := reports.NewHandler(logger, reportsService)

	productsRepo := products.NewRepository(pool)
	productsService := products.NewService(productsRepo, auditLogger, reportCache)
	productsHandler := products.NewHandler(logger, productsService)

	locationsRepo := locations.NewRepository(pool)
	locationsService := locations.NewService(locationsRepo, auditLogger, reportCache)
	locationsHandler := locations.NewHandler(logger, locationsService)

	ledgerStore := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerStore, auditLogger, reportCache)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthService:      authService,
		AuthHandler:      authHandler,
		ProductsHandler:  productsHandler,
		LocationsHandler: locationsHandler,
		LedgerHandler:    ledgerHandler,
		ReportsHandler:   reportsHandler,
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
