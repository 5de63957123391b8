package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jafarshop/gopiorder/internal/api"
	"github.com/jafarshop/gopiorder/internal/api/handlers"
	"github.com/jafarshop/gopiorder/internal/config"
	"github.com/jafarshop/gopiorder/internal/flow"
	"github.com/jafarshop/gopiorder/internal/metrics"
	"github.com/jafarshop/gopiorder/internal/region"
	"github.com/jafarshop/gopiorder/internal/repository/postgres"
	"github.com/jafarshop/gopiorder/internal/service"
	"github.com/jafarshop/gopiorder/internal/session"
	"github.com/jafarshop/gopiorder/internal/shopify"
	"github.com/jafarshop/gopiorder/internal/stock"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storefront := shopify.NewStorefront(cfg.Shopify, logger)
	var admin *shopify.Client
	if cfg.Shopify.AccessToken != "" {
		admin = shopify.NewClient(cfg.Shopify, logger)
	}

	catalog := service.NewCatalogService(storefront, logger)
	var source stock.Source = catalog
	if cfg.Order.StockSource == config.StockAdmin {
		source = service.NewAdminInventory(admin, logger)
	}

	newBackend := func() flow.Backend {
		return service.NewCartBackend(storefront.NewCart(), logger)
	}
	if cfg.Order.Backend == config.BackendDraftOrder {
		backend := service.NewDraftOrderBackend(admin, logger)
		newBackend = func() flow.Backend { return backend }
	}

	m := metrics.New()
	sessionCfg := session.Config{
		Catalog:    catalog,
		Stock:      source,
		NewBackend: newBackend,
		Observer:   m,
		Tracker:    m,
		Options: flow.Options{
			Rate: cfg.Order.CommissionRate,
			Profile: region.NewProfile(
				cfg.Order.MetroPrefixes,
				cfg.Order.UnserviceablePrefixes,
				cfg.Order.CODBlockedPrefixes,
				nil,
			),
			Labels:            labels(cfg.Order),
			AnnotationTimeout: cfg.Shopify.Timeout,
			FingerprintKey:    []byte(cfg.FingerprintKey),
		},
		FallbackCeiling: cfg.Order.StockFallbackCeiling,
		TTL:             cfg.SessionTTL,
		Logger:          logger,
	}

	// Order events are only recorded when a database is configured
	var events handlers.EventStore
	if cfg.Database.Enabled() {
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		repo := postgres.NewOrderEventRepository(db, logger)
		sessionCfg.Events = repo
		events = repo
	} else {
		logger.Info("DB_HOST not set, order events will not be recorded")
	}

	sessions := session.NewManager(sessionCfg)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sessions.Run(ctx, time.Minute)
	}()

	router := api.NewRouter(cfg, api.Deps{
		Sessions: sessions,
		Events:   events,
		Metrics:  m,
		Logger:   logger,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.String("backend", cfg.Order.Backend),
			zap.String("stock_source", cfg.Order.StockSource),
			zap.String("commission_rate", cfg.Order.CommissionRate.Label()),
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	// Event streams only end when their session does, so close sessions first.
	stop()
	<-sweepDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zcfg.Build()
}

func labels(cfg config.OrderConfig) flow.Labels {
	l := flow.DefaultLabels()
	if cfg.UnitLabel != "" {
		l.Unit = cfg.UnitLabel
	}
	return l.WithOverrides(cfg.Labels)
}
