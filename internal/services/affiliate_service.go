package services

import (
	"context"
	"strings"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/claimsdesk/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AffiliateService struct {
	affiliates AffiliateStore
	resolver   *rbac.Resolver
	log        *zap.Logger
}

func NewAffiliateService(affiliates AffiliateStore, resolver *rbac.Resolver, log *zap.Logger) *AffiliateService {
	return &AffiliateService{affiliates: affiliates, resolver: resolver, log: log}
}

func (s *AffiliateService) Get(ctx context.Context, actor *rbac.Actor, id uuid.UUID) (*models.Affiliate, error) {
	a, err := s.affiliates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Authorize(actor, rbac.ResourceAffiliate, rbac.AffiliateRef(a), rbac.OpRead); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns the affiliates of clientID visible to actor.
func (s *AffiliateService) List(ctx context.Context, actor *rbac.Actor, clientID uuid.UUID, limit, offset int) ([]models.Affiliate, error) {
	if err := s.resolver.Authorize(actor, rbac.ResourceAffiliate, rbac.ResourceRef{ClientID: clientID}, rbac.OpList); err != nil {
		return nil, err
	}
	scope, err := s.resolver.ScopeFor(actor, rbac.ResourceAffiliate)
	if err != nil {
		return nil, err
	}
	if scope.IsNone() {
		return []models.Affiliate{}, nil
	}
	return s.affiliates.List(ctx, scope, repositories.AffiliateFilter{ClientID: &clientID, Limit: limit, Offset: offset})
}

// ListOwners returns the valid parents for a new dependent in clientID.
func (s *AffiliateService) ListOwners(ctx context.Context, actor *rbac.Actor, clientID uuid.UUID) ([]models.Affiliate, error) {
	if err := s.resolver.Authorize(actor, rbac.ResourceAffiliate, rbac.ResourceRef{ClientID: clientID}, rbac.OpList); err != nil {
		return nil, err
	}
	scope, err := s.resolver.ScopeFor(actor, rbac.ResourceAffiliate)
	if err != nil {
		return nil, err
	}

	owners, err := s.affiliates.ListOwners(ctx, clientID)
	if err != nil {
		return nil, err
	}
	visible := make([]models.Affiliate, 0, len(owners))
	for _, a := range rbac.FilterOwners(owners, clientID) {
		if scope.Matches(rbac.AffiliateRef(&a)) {
			visible = append(visible, a)
		}
	}
	return visible, nil
}

type CreateDependentInput struct {
	OwnerID    uuid.UUID
	FirstName  string
	LastName   string
	DocumentID *string
}

// CreateDependent adds a dependent under an OWNER of the same client.
func (s *AffiliateService) CreateDependent(ctx context.Context, actor *rbac.Actor, clientID uuid.UUID, in CreateDependentInput) (*models.Affiliate, error) {
	ref := rbac.ResourceRef{ClientID: clientID, AffiliateID: in.OwnerID}
	if err := s.resolver.Authorize(actor, rbac.ResourceAffiliate, ref, rbac.OpCreate); err != nil {
		return nil, err
	}

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.FirstName == "" || in.LastName == "" {
		return nil, apperr.Validation("name", "first_name and last_name are required")
	}

	owner, err := s.affiliates.GetByID(ctx, in.OwnerID)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	if err := rbac.ValidOwner(owner, clientID); err != nil {
		return nil, err
	}

	ownerID := owner.ID
	dep := &models.Affiliate{
		ClientID:   clientID,
		Type:       models.AffiliateDependent,
		OwnerID:    &ownerID,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		DocumentID: in.DocumentID,
		IsActive:   true,
	}
	if err := s.affiliates.Create(ctx, dep); err != nil {
		return nil, err
	}

	s.log.Info("dependent created",
		zap.String("affiliate_id", dep.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.String("client_id", clientID.String()),
	)
	return dep, nil
}
