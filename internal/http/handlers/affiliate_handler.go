package handlers

import (
	"github.com/claimsdesk/backend/internal/http/dto"
	"github.com/claimsdesk/backend/internal/middleware"
	"github.com/claimsdesk/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AffiliateHandler struct {
	affiliateService *services.AffiliateService
	log              *zap.Logger
}

func NewAffiliateHandler(affiliateService *services.AffiliateService, log *zap.Logger) *AffiliateHandler {
	return &AffiliateHandler{affiliateService: affiliateService, log: log}
}

func (h *AffiliateHandler) GetAffiliate(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	affiliate, err := h.affiliateService.Get(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: affiliate})
}

// ListAffiliates lists the affiliates of a client visible to the actor.
func (h *AffiliateHandler) ListAffiliates(c *fiber.Ctx) error {
	clientID, err := parseIDParam(c, "clientId")
	if err != nil {
		return respondError(c, h.log, err)
	}
	limit, offset := pagination(c)

	affiliates, err := h.affiliateService.List(c.UserContext(), middleware.GetActor(c), clientID, limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ListResponse{Items: affiliates, Limit: limit, Offset: offset}})
}

func (h *AffiliateHandler) ListOwners(c *fiber.Ctx) error {
	clientID, err := parseIDParam(c, "clientId")
	if err != nil {
		return respondError(c, h.log, err)
	}

	owners, err := h.affiliateService.ListOwners(c.UserContext(), middleware.GetActor(c), clientID)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: owners})
}

func (h *AffiliateHandler) CreateDependent(c *fiber.Ctx) error {
	clientID, err := parseIDParam(c, "clientId")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req dto.CreateDependentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return badRequest(c, "invalid owner_id")
	}

	dep, err := h.affiliateService.CreateDependent(c.UserContext(), middleware.GetActor(c), clientID, services.CreateDependentInput{
		OwnerID:    ownerID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		DocumentID: req.DocumentID,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: dep})
}
