package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avast/retry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coursepay/internal/api"
	"coursepay/internal/config"
	"coursepay/internal/metrics"
	"coursepay/internal/provider"
	"coursepay/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	err = retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		},
		retry.Attempts(cfg.DBConnectAttempts),
		retry.Delay(cfg.DBConnectDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.Printf("db ping attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		log.Fatalf("db unreachable: %v", err)
	}

	metrics.Register()
	go func() {
		logger.Printf("metrics listening on %s", cfg.MetricsAddr)
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddr, metricsMux); err != nil {
			logger.Printf("metrics server error: %v", err)
		}
	}()

	srv := api.NewServer(
		store.New(pool),
		cfg.AuthToken,
		logger,
		provider.NewPix(),
		provider.NewMBWay(),
		provider.NewStripe(cfg.StripeWebhookSecret),
	)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
