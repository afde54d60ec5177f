package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/events"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/numbering"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/claimsdesk/backend/internal/repositories"
	"github.com/claimsdesk/backend/internal/sla"
	"github.com/claimsdesk/backend/internal/statemachine"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var amountPattern = regexp.MustCompile(`^\d{1,12}(\.\d{1,2})?$`)

type ClaimService struct {
	claims     ClaimStore
	policies   PolicyStore
	affiliates AffiliateStore
	audit      AuditStore
	resolver   *rbac.Resolver
	encoder    *numbering.Encoder
	limits     sla.Limits
	publisher  events.Publisher
	log        *zap.Logger
	now        func() time.Time
}

func NewClaimService(
	claims ClaimStore,
	policies PolicyStore,
	affiliates AffiliateStore,
	audit AuditStore,
	resolver *rbac.Resolver,
	encoder *numbering.Encoder,
	limits sla.Limits,
	publisher events.Publisher,
	log *zap.Logger,
) *ClaimService {
	return &ClaimService{
		claims:     claims,
		policies:   policies,
		affiliates: affiliates,
		audit:      audit,
		resolver:   resolver,
		encoder:    encoder,
		limits:     limits,
		publisher:  publisher,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type CreateClaimInput struct {
	AffiliateID     uuid.UUID
	PatientID       uuid.UUID
	PolicyID        *uuid.UUID
	Description     *string
	AmountSubmitted string
}

// Create opens a claim in DRAFT for the insured affiliate. The patient is the
// affiliate itself or one of its dependents.
func (s *ClaimService) Create(ctx context.Context, actor *rbac.Actor, in CreateClaimInput) (*models.Claim, error) {
	if in.AmountSubmitted == "" {
		in.AmountSubmitted = "0"
	}
	if !amountPattern.MatchString(in.AmountSubmitted) {
		return nil, apperr.Validation("amount_submitted", "must be a non-negative decimal with at most 2 places")
	}

	insured, err := s.affiliates.GetByID(ctx, in.AffiliateID)
	if err != nil {
		return nil, err
	}
	patient := insured
	if in.PatientID != in.AffiliateID {
		if patient, err = s.affiliates.GetByID(ctx, in.PatientID); err != nil {
			return nil, err
		}
	}
	if err := validatePatient(insured, patient); err != nil {
		return nil, err
	}

	now := s.now()
	claim := &models.Claim{
		ID:              uuid.New(),
		ClientID:        insured.ClientID,
		AffiliateID:     insured.ID,
		PatientID:       patient.ID,
		PolicyID:        in.PolicyID,
		Status:          models.ClaimStatus(statemachine.InitialStatus(statemachine.KindClaim)),
		Description:     in.Description,
		AmountSubmitted: in.AmountSubmitted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.resolver.Authorize(actor, rbac.ResourceClaim, rbac.ClaimRef(claim), rbac.OpCreate); err != nil {
		return nil, err
	}

	if in.PolicyID != nil {
		policy, err := s.policies.GetByID(ctx, *in.PolicyID)
		if err != nil {
			return nil, err
		}
		if policy.ClientID != claim.ClientID {
			return nil, apperr.Validation("policy_id", "policy belongs to another client")
		}
		if policy.Status != models.PolicyStatusActive {
			return nil, apperr.Validation("policy_id", fmt.Sprintf("policy is %s, not ACTIVE", policy.Status))
		}
	}

	if claim.Number, err = s.claims.NextNumber(ctx); err != nil {
		return nil, fmt.Errorf("reserve claim number: %w", err)
	}
	if claim.Code, err = s.encoder.Encode(claim.Number); err != nil {
		return nil, err
	}

	entry := statemachine.Created(claim, &actor.ID, now)
	if err := s.claims.Create(ctx, claim, &entry); err != nil {
		return nil, fmt.Errorf("create claim: %w", err)
	}

	s.log.Info("claim created",
		zap.String("claim_id", claim.ID.String()),
		zap.String("code", claim.Code),
		zap.String("actor_id", actor.ID.String()),
	)
	s.publish(ctx, events.StreamClaims, events.EventClaimCreated, claim, map[string]any{
		"status": string(claim.Status),
	})
	return claim, nil
}

func validatePatient(insured, patient *models.Affiliate) error {
	if patient.ID == insured.ID {
		return nil
	}
	if patient.OwnerID == nil || *patient.OwnerID != insured.ID {
		return apperr.Validation("patient_id", "patient is neither the insured nor one of their dependents")
	}
	if patient.ClientID != insured.ClientID {
		return apperr.Validation("patient_id", "patient belongs to another client")
	}
	return nil
}

// Get returns the claim if actor may read it. A missing claim is NotFound, an
// out-of-scope one Forbidden.
func (s *ClaimService) Get(ctx context.Context, actor *rbac.Actor, id uuid.UUID) (*models.Claim, error) {
	claim, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Authorize(actor, rbac.ResourceClaim, rbac.ClaimRef(claim), rbac.OpRead); err != nil {
		return nil, err
	}
	return claim, nil
}

// GetByCode resolves a public claim code.
func (s *ClaimService) GetByCode(ctx context.Context, actor *rbac.Actor, code string) (*models.Claim, error) {
	number, err := s.encoder.Decode(code)
	if err != nil {
		return nil, err
	}
	claim, err := s.claims.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Authorize(actor, rbac.ResourceClaim, rbac.ClaimRef(claim), rbac.OpRead); err != nil {
		return nil, err
	}
	return claim, nil
}

// List returns the claims in actor's scope that match f. Out-of-scope rows are
// filtered, never reported.
func (s *ClaimService) List(ctx context.Context, actor *rbac.Actor, f repositories.ClaimFilter) ([]models.Claim, error) {
	var ref rbac.ResourceRef
	if f.ClientID != nil {
		ref.ClientID = *f.ClientID
	}
	if err := s.resolver.Authorize(actor, rbac.ResourceClaim, ref, rbac.OpList); err != nil {
		return nil, err
	}

	scope, err := s.resolver.ScopeFor(actor, rbac.ResourceClaim)
	if err != nil {
		return nil, err
	}
	if scope.IsNone() {
		return []models.Claim{}, nil
	}
	return s.claims.List(ctx, scope, f)
}

// Transition moves the claim to target. The status update and its audit entry
// are committed together or not at all.
func (s *ClaimService) Transition(ctx context.Context, actor *rbac.Actor, id uuid.UUID, target models.ClaimStatus, reason string) (*models.Claim, error) {
	claim, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Authorize(actor, rbac.ResourceClaim, rbac.ClaimRef(claim), rbac.OpTransition); err != nil {
		return nil, err
	}

	change, err := statemachine.Transition(claim, string(target), &actor.ID, s.now(), reasonMeta(reason))
	if err != nil {
		return nil, err
	}
	if err := s.claims.ApplyTransition(ctx, change); err != nil {
		return nil, err
	}
	claim.UpdatedAt = change.Entry.CreatedAt

	s.log.Info("claim status changed",
		zap.String("claim_id", claim.ID.String()),
		zap.String("from", change.From),
		zap.String("to", change.To),
		zap.String("actor_id", actor.ID.String()),
	)
	s.publish(ctx, events.StreamClaims, events.EventClaimStatusChanged, claim, map[string]any{
		"old_status": change.From,
		"new_status": change.To,
	})
	return claim, nil
}

// History returns the claim's audit trail, oldest first.
func (s *ClaimService) History(ctx context.Context, actor *rbac.Actor, id uuid.UUID) ([]models.AuditLog, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.audit.History(ctx, models.EntityClaim, id)
}

type ClaimSLA struct {
	ClaimID    uuid.UUID          `json:"claim_id"`
	Status     models.ClaimStatus `json:"status"`
	Stages     []sla.StageRecord  `json:"stages"`
	Current    *sla.StageRecord   `json:"current,omitempty"`
	Worst      sla.Indicator      `json:"worst"`
	ComputedAt time.Time          `json:"computed_at"`
}

// SLA grades every stage of the claim against the configured limits.
func (s *ClaimService) SLA(ctx context.Context, actor *rbac.Actor, id uuid.UUID) (*ClaimSLA, error) {
	claim, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	history, err := s.audit.History(ctx, models.EntityClaim, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stages, err := sla.Compute(claim.Status, history, s.limits, now)
	if err != nil {
		return nil, err
	}

	out := &ClaimSLA{
		ClaimID:    claim.ID,
		Status:     claim.Status,
		Stages:     stages,
		Worst:      sla.Worst(stages),
		ComputedAt: now,
	}
	if out.Stages == nil {
		out.Stages = []sla.StageRecord{}
	}
	if cur, ok := sla.Current(stages); ok {
		out.Current = &cur
	}
	return out, nil
}

func (s *ClaimService) publish(ctx context.Context, stream, eventType string, claim *models.Claim, extra map[string]any) {
	payload := claimPayload(claim)
	for k, v := range extra {
		payload[k] = v
	}
	_ = s.publisher.Publish(ctx, stream, events.Event{Type: eventType, Payload: payload})
}

// claimPayload carries the ownership chain so that subscribers can filter
// events by read scope.
func claimPayload(c *models.Claim) map[string]any {
	return map[string]any{
		"claim_id":     c.ID.String(),
		"code":         c.Code,
		"client_id":    c.ClientID.String(),
		"affiliate_id": c.AffiliateID.String(),
		"patient_id":   c.PatientID.String(),
	}
}

func reasonMeta(reason string) any {
	if reason == "" {
		return nil
	}
	return map[string]any{"reason": reason}
}
