package http

import (
	"time"

	"github.com/claimsdesk/backend/internal/config"
	"github.com/claimsdesk/backend/internal/http/handlers"
	"github.com/claimsdesk/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	gatherer prometheus.Gatherer,
	actors middleware.ActorLoader,
	claimHandler *handlers.ClaimHandler,
	policyHandler *handlers.PolicyHandler,
	clientHandler *handlers.ClientHandler,
	affiliateHandler *handlers.AffiliateHandler,
	metaHandler *handlers.MetaHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := app.Group("/api/v1")

	// Meta (public, no auth required)
	api.Get("/meta/workflows", metaHandler.GetWorkflows)
	api.Get("/meta/sla-limits", metaHandler.GetSLALimits)

	// Protected endpoints, rate-limited per actor
	protected := api.Group("",
		middleware.AuthMiddleware(cfg.JWTSecret, actors, log),
		middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute, log),
	)

	protected.Get("/me", handlers.GetMe)

	// Clients
	protected.Get("/clients", clientHandler.ListClients)
	protected.Get("/clients/:id", clientHandler.GetClient)
	protected.Patch("/clients/:id", clientHandler.UpdateClient)
	protected.Delete("/clients/:id", clientHandler.DeleteClient)

	// Affiliates
	protected.Get("/clients/:clientId/affiliates", affiliateHandler.ListAffiliates)
	protected.Get("/clients/:clientId/owners", affiliateHandler.ListOwners)
	protected.Post("/clients/:clientId/dependents", affiliateHandler.CreateDependent)
	protected.Get("/affiliates/:id", affiliateHandler.GetAffiliate)

	// Policies
	protected.Post("/policies", policyHandler.CreatePolicy)
	protected.Get("/policies", policyHandler.ListPolicies)
	protected.Get("/policies/:id", policyHandler.GetPolicy)
	protected.Post("/policies/:id/transition", policyHandler.TransitionPolicy)

	// Claims
	protected.Post("/claims", claimHandler.CreateClaim)
	protected.Get("/claims", claimHandler.ListClaims)
	protected.Get("/claims/by-code/:code", claimHandler.GetClaimByCode)
	protected.Get("/claims/:id", claimHandler.GetClaim)
	protected.Post("/claims/:id/transition", claimHandler.TransitionClaim)
	protected.Get("/claims/:id/history", claimHandler.GetHistory)
	protected.Get("/claims/:id/sla", claimHandler.GetSLA)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
