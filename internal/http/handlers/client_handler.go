package handlers

import (
	"github.com/claimsdesk/backend/internal/http/dto"
	"github.com/claimsdesk/backend/internal/middleware"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ClientHandler struct {
	clientService *services.ClientService
	log           *zap.Logger
}

func NewClientHandler(clientService *services.ClientService, log *zap.Logger) *ClientHandler {
	return &ClientHandler{clientService: clientService, log: log}
}

func (h *ClientHandler) ListClients(c *fiber.Ctx) error {
	limit, offset := pagination(c)

	clients, err := h.clientService.List(c.UserContext(), middleware.GetActor(c), limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ListResponse{Items: clients, Limit: limit, Offset: offset}})
}

func (h *ClientHandler) GetClient(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	client, err := h.clientService.Get(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: client})
}

func (h *ClientHandler) UpdateClient(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req dto.UpdateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	client, err := h.clientService.Update(c.UserContext(), middleware.GetActor(c), id, models.ClientPatch{
		Name:         req.Name,
		TaxID:        req.TaxID,
		ContactEmail: req.ContactEmail,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: client})
}

func (h *ClientHandler) DeleteClient(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	if err := h.clientService.Delete(c.UserContext(), middleware.GetActor(c), id); err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}
