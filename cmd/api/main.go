package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/claimsdesk/backend/internal/config"
	"github.com/claimsdesk/backend/internal/db"
	"github.com/claimsdesk/backend/internal/events"
	apphttp "github.com/claimsdesk/backend/internal/http"
	"github.com/claimsdesk/backend/internal/http/handlers"
	"github.com/claimsdesk/backend/internal/numbering"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/claimsdesk/backend/internal/repositories"
	"github.com/claimsdesk/backend/internal/services"
	"github.com/claimsdesk/backend/internal/sla"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
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
	encoder, err := numbering.NewEncoder(cfg.ClaimNumberSalt, cfg.ClaimNumberMinLen)
	if err != nil {
		log.Fatal("failed to build claim code encoder", zap.Error(err))
	}

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, cfg.DBMaxConns, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Repositories
	clientRepo := repositories.NewClientRepo(pool)
	affiliateRepo := repositories.NewAffiliateRepo(pool)
	policyRepo := repositories.NewPolicyRepo(pool)
	claimRepo := repositories.NewClaimRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	actorRepo := repositories.NewActorRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	resolver := rbac.NewResolver(log)
	claimService := services.NewClaimService(claimRepo, policyRepo, affiliateRepo, auditRepo, resolver, encoder, limits, publisher, log)
	policyService := services.NewPolicyService(policyRepo, clientRepo, resolver, publisher, log)
	clientService := services.NewClientService(clientRepo, resolver, log)
	affiliateService := services.NewAffiliateService(affiliateRepo, resolver, log)

	// Handlers
	claimHandler := handlers.NewClaimHandler(claimService, log)
	policyHandler := handlers.NewPolicyHandler(policyService, log)
	clientHandler := handlers.NewClientHandler(clientService, log)
	affiliateHandler := handlers.NewAffiliateHandler(affiliateService, log)
	metaHandler := handlers.NewMetaHandler(limits)
	wsHub := handlers.NewWSHub(cfg.JWTSecret, actorRepo, resolver, subscriber, log)

	// Start WS hub
	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to start websocket hub", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, reg, actorRepo, claimHandler, policyHandler, clientHandler, affiliateHandler, metaHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr), zap.Int("sla_limits", len(limits)))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
