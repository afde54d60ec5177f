package handlers

import (
	"github.com/claimsdesk/backend/internal/http/dto"
	"github.com/claimsdesk/backend/internal/middleware"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/repositories"
	"github.com/claimsdesk/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PolicyHandler struct {
	policyService *services.PolicyService
	log           *zap.Logger
}

func NewPolicyHandler(policyService *services.PolicyService, log *zap.Logger) *PolicyHandler {
	return &PolicyHandler{policyService: policyService, log: log}
}

func (h *PolicyHandler) CreatePolicy(c *fiber.Ctx) error {
	var req dto.CreatePolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return badRequest(c, "invalid client_id")
	}
	insurerID, err := uuid.Parse(req.InsurerID)
	if err != nil {
		return badRequest(c, "invalid insurer_id")
	}

	policy, err := h.policyService.Create(c.UserContext(), middleware.GetActor(c), services.CreatePolicyInput{
		ClientID:     clientID,
		InsurerID:    insurerID,
		PolicyNumber: req.PolicyNumber,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: policy})
}

func (h *PolicyHandler) GetPolicy(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	policy, err := h.policyService.Get(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: policy})
}

func (h *PolicyHandler) ListPolicies(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	filter := repositories.PolicyFilter{Limit: limit, Offset: offset}

	var err error
	if filter.ClientID, err = parseOptionalID("client_id", c.Query("client_id")); err != nil {
		return respondError(c, h.log, err)
	}
	if v := c.Query("status"); v != "" {
		st, err := models.ParsePolicyStatus(v)
		if err != nil {
			return respondError(c, h.log, err)
		}
		filter.Status = &st
	}

	policies, err := h.policyService.List(c.UserContext(), middleware.GetActor(c), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ListResponse{Items: policies, Limit: limit, Offset: offset}})
}

func (h *PolicyHandler) TransitionPolicy(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	target, err := models.ParsePolicyStatus(req.Status)
	if err != nil {
		return respondError(c, h.log, err)
	}

	policy, err := h.policyService.Transition(c.UserContext(), middleware.GetActor(c), id, target, req.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: policy})
}
