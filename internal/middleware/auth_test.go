package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/auth"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubLoader map[uuid.UUID]*rbac.Actor

func (s stubLoader) Load(_ context.Context, id uuid.UUID) (*rbac.Actor, error) {
	if id == brokenID {
		return nil, errors.New("connection refused")
	}
	a, ok := s[id]
	if !ok {
		return nil, apperr.NotFound("actor", id)
	}
	return a, nil
}

var brokenID = uuid.MustParse("00000000-0000-0000-0000-0000000000ff")

func TestAuthMiddleware(t *testing.T) {
	known := &rbac.Actor{ID: uuid.New(), Role: rbac.RoleClaimsEmployee}
	loader := stubLoader{known.ID: known}

	app := fiber.New()
	app.Get("/", AuthMiddleware("secret", loader, zap.NewNop()), func(c *fiber.Ctx) error {
		if GetActor(c) != known || GetActorID(c) != known.ID {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	token := func(id uuid.UUID, secret string) string {
		s, err := auth.GenerateJWT(secret, id, "", time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		return "Bearer " + s
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", token(known.ID, "secret"), fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"no bearer prefix", "Token abc", fiber.StatusUnauthorized},
		{"wrong secret", token(known.ID, "other"), fiber.StatusUnauthorized},
		{"unknown actor", token(uuid.New(), "secret"), fiber.StatusUnauthorized},
		{"store failure", token(brokenID, "secret"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
