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

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/storiqateam/stq-orders/api/controllers"
	"github.com/storiqateam/stq-orders/internal/acl"
	"github.com/storiqateam/stq-orders/internal/cart"
	"github.com/storiqateam/stq-orders/internal/loaders"
	"github.com/storiqateam/stq-orders/internal/orders"
	"github.com/storiqateam/stq-orders/pkg/config"
	"github.com/storiqateam/stq-orders/pkg/db"
	"github.com/storiqateam/stq-orders/pkg/logger"
	"github.com/storiqateam/stq-orders/pkg/metrics"
	"github.com/storiqateam/stq-orders/pkg/migrate"
	"github.com/storiqateam/stq-orders/pkg/s3"
	"github.com/storiqateam/stq-orders/pkg/saga"
	"github.com/storiqateam/stq-orders/pkg/ups"
)

const opsShutdownTimeout = 5 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "loaders"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "loaders",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The loader host touches the database in short periodic bursts, so
	// it keeps a much smaller idle pool than the API.
	cfg.DB.MaxIdleConns = cfg.Loaders.DBMaxIdleConns

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.RunOnStartup(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run startup migrations", err)
		os.Exit(1)
	}

	carrier, err := ups.NewClient(cfg.SentOrders, cfg.Outcall)
	if err != nil {
		logg.Error(ctx, "failed to create carrier client", err)
		os.Exit(1)
	}

	sagaClient, err := saga.NewClient(cfg.DeliveredOrders, cfg.Outcall)
	if err != nil {
		logg.Error(ctx, "failed to create saga client", err)
		os.Exit(1)
	}

	s3Client, err := s3.NewClient(ctx, cfg.S3, logg)
	if err != nil {
		logg.Error(ctx, "failed to create s3 client", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, cartRepo, acl.NewGate(), dbClient)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	loaderMetrics := metrics.NewLoaderMetrics(prometheus.DefaultRegisterer)
	runner, err := loaders.NewRunner(logg, loaderMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create loader runner", err)
		os.Exit(1)
	}

	sentLoader, err := loaders.NewSentOrdersLoader(loaders.SentOrdersParams{
		Logger:  logg,
		Orders:  ordersService,
		Carrier: carrier,
		MinAge:  cfg.SentOrders.SentStateDuration(),
	})
	if err != nil {
		logg.Error(ctx, "failed to create shipping tracker loader", err)
		os.Exit(1)
	}

	deliveredLoader, err := loaders.NewDeliveredOrdersLoader(loaders.DeliveredOrdersParams{
		Logger: logg,
		Orders: ordersService,
		Saga:   sagaClient,
		MaxAge: cfg.DeliveredOrders.DeliveryStateDuration(),
	})
	if err != nil {
		logg.Error(ctx, "failed to create delivery completion loader", err)
		os.Exit(1)
	}

	reportsLoader, err := loaders.NewReportsLoader(loaders.ReportsParams{
		Logger:   logg,
		Orders:   ordersService,
		Uploader: s3Client,
	})
	if err != nil {
		logg.Error(ctx, "failed to create report loader", err)
		os.Exit(1)
	}

	runCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(runCtx, "starting loader host")

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return runner.Start(gctx, sentLoader, cfg.SentOrders.Interval())
	})
	g.Go(func() error {
		return runner.Start(gctx, deliveredLoader, cfg.DeliveredOrders.Interval())
	})
	g.Go(func() error {
		return runner.Start(gctx, reportsLoader, cfg.Report.Interval())
	})
	g.Go(func() error {
		return serveOps(gctx, cfg, logg, dbClient)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "loader host stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "loader host shutting down gracefully")
}

// serveOps exposes health and metrics endpoints for the loader host.
func serveOps(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbP db.Pinger) error {
	r := chi.NewRouter()
	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/readyz", controllers.HealthReady(cfg, logg, dbP))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Loaders.ListenPort),
		Handler: r,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opsShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}
