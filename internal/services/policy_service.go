package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/events"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/claimsdesk/backend/internal/repositories"
	"github.com/claimsdesk/backend/internal/statemachine"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PolicyService struct {
	policies  PolicyStore
	clients   ClientStore
	resolver  *rbac.Resolver
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewPolicyService(policies PolicyStore, clients ClientStore, resolver *rbac.Resolver, publisher events.Publisher, log *zap.Logger) *PolicyService {
	return &PolicyService{
		policies:  policies,
		clients:   clients,
		resolver:  resolver,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type CreatePolicyInput struct {
	ClientID     uuid.UUID
	InsurerID    uuid.UUID
	PolicyNumber string
	StartDate    *time.Time
	EndDate      *time.Time
}

func (s *PolicyService) Create(ctx context.Context, actor *rbac.Actor, in CreatePolicyInput) (*models.Policy, error) {
	in.PolicyNumber = strings.TrimSpace(in.PolicyNumber)
	if in.PolicyNumber == "" {
		return nil, apperr.Validation("policy_number", "required")
	}
	if in.InsurerID == uuid.Nil {
		return nil, apperr.Validation("insurer_id", "required")
	}
	if in.StartDate != nil && in.EndDate != nil && !in.EndDate.After(*in.StartDate) {
		return nil, apperr.Validation("end_date", "must be after start_date")
	}

	now := s.now()
	policy := &models.Policy{
		ID:           uuid.New(),
		ClientID:     in.ClientID,
		InsurerID:    in.InsurerID,
		PolicyNumber: in.PolicyNumber,
		Status:       models.PolicyStatus(statemachine.InitialStatus(statemachine.KindPolicy)),
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.resolver.Authorize(actor, rbac.ResourcePolicy, rbac.PolicyRef(policy), rbac.OpCreate); err != nil {
		return nil, err
	}
	if _, err := s.clients.GetByID(ctx, in.ClientID); err != nil {
		return nil, err
	}

	entry := statemachine.Created(policy, &actor.ID, now)
	if err := s.policies.Create(ctx, policy, &entry); err != nil {
		return nil, fmt.Errorf("create policy: %w", err)
	}

	s.log.Info("policy created",
		zap.String("policy_id", policy.ID.String()),
		zap.String("client_id", policy.ClientID.String()),
	)
	return policy, nil
}

func (s *PolicyService) Get(ctx context.Context, actor *rbac.Actor, id uuid.UUID) (*models.Policy, error) {
	policy, err := s.policies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Authorize(actor, rbac.ResourcePolicy, rbac.PolicyRef(policy), rbac.OpRead); err != nil {
		return nil, err
	}
	return policy, nil
}

func (s *PolicyService) List(ctx context.Context, actor *rbac.Actor, f repositories.PolicyFilter) ([]models.Policy, error) {
	var ref rbac.ResourceRef
	if f.ClientID != nil {
		ref.ClientID = *f.ClientID
	}
	if err := s.resolver.Authorize(actor, rbac.ResourcePolicy, ref, rbac.OpList); err != nil {
		return nil, err
	}

	scope, err := s.resolver.ScopeFor(actor, rbac.ResourcePolicy)
	if err != nil {
		return nil, err
	}
	if scope.IsNone() {
		return []models.Policy{}, nil
	}
	return s.policies.List(ctx, scope, f)
}

// Transition moves the policy to target, committing status and audit entry together.
func (s *PolicyService) Transition(ctx context.Context, actor *rbac.Actor, id uuid.UUID, target models.PolicyStatus, reason string) (*models.Policy, error) {
	policy, err := s.policies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Authorize(actor, rbac.ResourcePolicy, rbac.PolicyRef(policy), rbac.OpTransition); err != nil {
		return nil, err
	}

	change, err := statemachine.Transition(policy, string(target), &actor.ID, s.now(), reasonMeta(reason))
	if err != nil {
		return nil, err
	}
	if err := s.policies.ApplyTransition(ctx, change); err != nil {
		return nil, err
	}
	policy.UpdatedAt = change.Entry.CreatedAt

	s.log.Info("policy status changed",
		zap.String("policy_id", policy.ID.String()),
		zap.String("from", change.From),
		zap.String("to", change.To),
	)
	_ = s.publisher.Publish(ctx, events.StreamPolicies, events.Event{
		Type: events.EventPolicyStatusChanged,
		Payload: map[string]any{
			"policy_id":  policy.ID.String(),
			"client_id":  policy.ClientID.String(),
			"old_status": change.From,
			"new_status": change.To,
		},
	})
	return policy, nil
}
