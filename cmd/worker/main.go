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

	"github.com/claimsdesk/backend/internal/config"
	"github.com/claimsdesk/backend/internal/db"
	"github.com/claimsdesk/backend/internal/events"
	"github.com/claimsdesk/backend/internal/repositories"
	"github.com/claimsdesk/backend/internal/services"
	"github.com/claimsdesk/backend/internal/sla"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limits, err := sla.LoadLimits(cfg.SLALimitsFile)
	if err != nil {
		log.Fatal("failed to load sla limits", zap.Error(err))
	}

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, cfg.DBMaxConns, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := sla.NewMetrics(reg)

	// Repos
	claimRepo := repositories.NewClaimRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	sweeper := services.NewSLASweeper(claimRepo, auditRepo, limits, metrics, publisher, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.WorkerPort),
		Handler:           metricsMux(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", zap.Error(err))
		}
	}()

	log.Info("worker started",
		zap.Duration("sweep_interval", cfg.SLASweepInterval),
		zap.String("metrics_addr", srv.Addr),
	)

	// populate the gauges before the first tick
	runSweep(ctx, sweeper, log)

	sweepTicker := time.NewTicker(cfg.SLASweepInterval)
	defer sweepTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			runSweep(ctx, sweeper, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			_ = srv.Shutdown(shutdownCtx)
			done()
			return
		case <-ctx.Done():
			return
		}
	}
}

func metricsMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

func runSweep(ctx context.Context, sweeper *services.SLASweeper, log *zap.Logger) {
	res, err := sweeper.Sweep(ctx)
	if err != nil {
		log.Error("sla sweep failed", zap.Error(err))
		return
	}
	log.Info("sla sweep finished",
		zap.Int("claims", res.Claims),
		zap.Int("at_risk", res.AtRisk),
		zap.Int("breached", res.Breached),
		zap.Int("new_breaches", res.NewBreaches),
		zap.Int("skipped", res.Skipped),
	)
}
