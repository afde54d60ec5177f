package handlers

import (
	"github.com/claimsdesk/backend/internal/http/dto"
	"github.com/claimsdesk/backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// GetMe describes the authenticated actor and the relationships its access
// is scoped by.
func GetMe(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "unauthorized"})
	}

	resp := dto.MeResponse{ID: actor.ID.String(), Role: string(actor.Role)}
	for _, id := range actor.ClientIDs {
		resp.ClientIDs = append(resp.ClientIDs, id.String())
	}
	if a := actor.Affiliate; a != nil {
		resp.AffiliateID = a.AffiliateID.String()
		for _, id := range a.DependentIDs {
			resp.DependentIDs = append(resp.DependentIDs, id.String())
		}
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: resp})
}
