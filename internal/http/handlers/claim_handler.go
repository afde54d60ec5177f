package handlers

import (
	"strings"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/http/dto"
	"github.com/claimsdesk/backend/internal/middleware"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/repositories"
	"github.com/claimsdesk/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ClaimHandler struct {
	claimService *services.ClaimService
	log          *zap.Logger
}

func NewClaimHandler(claimService *services.ClaimService, log *zap.Logger) *ClaimHandler {
	return &ClaimHandler{claimService: claimService, log: log}
}

func (h *ClaimHandler) CreateClaim(c *fiber.Ctx) error {
	var req dto.CreateClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	affiliateID, err := uuid.Parse(req.AffiliateID)
	if err != nil {
		return badRequest(c, "invalid affiliate_id")
	}
	// по умолчанию пациент = сам застрахованный
	patientID := affiliateID
	if req.PatientID != "" {
		if patientID, err = uuid.Parse(req.PatientID); err != nil {
			return badRequest(c, "invalid patient_id")
		}
	}
	var policyID *uuid.UUID
	if req.PolicyID != nil {
		if policyID, err = parseOptionalID("policy_id", *req.PolicyID); err != nil {
			return respondError(c, h.log, err)
		}
	}

	claim, err := h.claimService.Create(c.UserContext(), middleware.GetActor(c), services.CreateClaimInput{
		AffiliateID:     affiliateID,
		PatientID:       patientID,
		PolicyID:        policyID,
		Description:     req.Description,
		AmountSubmitted: req.AmountSubmitted,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: claim})
}

func (h *ClaimHandler) GetClaim(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	claim, err := h.claimService.Get(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: claim})
}

// GetClaimByCode looks a claim up by its public code, case-insensitively.
func (h *ClaimHandler) GetClaimByCode(c *fiber.Ctx) error {
	code := strings.ToUpper(strings.TrimSpace(c.Params("code")))

	claim, err := h.claimService.GetByCode(c.UserContext(), middleware.GetActor(c), code)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: claim})
}

func (h *ClaimHandler) ListClaims(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	filter := repositories.ClaimFilter{Limit: limit, Offset: offset}

	var err error
	if filter.ClientID, err = parseOptionalID("client_id", c.Query("client_id")); err != nil {
		return respondError(c, h.log, err)
	}
	if filter.PatientID, err = parseOptionalID("patient_id", c.Query("patient_id")); err != nil {
		return respondError(c, h.log, err)
	}
	if filter.PolicyID, err = parseOptionalID("policy_id", c.Query("policy_id")); err != nil {
		return respondError(c, h.log, err)
	}
	if v := c.Query("status"); v != "" {
		st, err := models.ParseClaimStatus(v)
		if err != nil {
			return respondError(c, h.log, err)
		}
		filter.Status = &st
	}

	claims, err := h.claimService.List(c.UserContext(), middleware.GetActor(c), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ListResponse{Items: claims, Limit: limit, Offset: offset}})
}

func (h *ClaimHandler) TransitionClaim(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	target, err := models.ParseClaimStatus(req.Status)
	if err != nil {
		return respondError(c, h.log, err)
	}

	claim, err := h.claimService.Transition(c.UserContext(), middleware.GetActor(c), id, target, req.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: claim})
}

func (h *ClaimHandler) GetHistory(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	history, err := h.claimService.History(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if history == nil {
		history = []models.AuditLog{}
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: history})
}

func (h *ClaimHandler) GetSLA(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	report, err := h.claimService.SLA(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		if apperr.IsIntegrity(err) {
			h.log.Warn("claim history inconsistent", zap.String("claim_id", id.String()), zap.Error(err))
		}
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: report})
}
