package middleware

import (
	"context"
	"strings"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/auth"
	"github.com/claimsdesk/backend/internal/http/dto"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CtxActorID = "actor_id"
	CtxActor   = "actor"
)

// ActorLoader resolves an actor with its relationships. *repositories.ActorRepo
// implements it.
type ActorLoader interface {
	Load(ctx context.Context, id uuid.UUID) (*rbac.Actor, error)
}

// AuthMiddleware validates the bearer token and loads the actor it names.
func AuthMiddleware(secret string, actors ActorLoader, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(secret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token"})
		}

		actor, err := actors.Load(c.UserContext(), claims.ActorID)
		if err != nil {
			if apperr.IsNotFound(err) || apperr.IsValidation(err) {
				log.Debug("actor rejected", zap.String("actor_id", claims.ActorID.String()), zap.Error(err))
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "unknown actor"})
			}
			log.Error("actor load failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		}

		c.Locals(CtxActorID, actor.ID)
		c.Locals(CtxActor, actor)

		return c.Next()
	}
}

func GetActorID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CtxActorID).(uuid.UUID)
	return id
}

// GetActor returns the authenticated actor, nil on public routes.
func GetActor(c *fiber.Ctx) *rbac.Actor {
	a, _ := c.Locals(CtxActor).(*rbac.Actor)
	return a
}
