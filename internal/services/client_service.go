package services

import (
	"context"
	"strings"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ClientService struct {
	clients  ClientStore
	resolver *rbac.Resolver
	log      *zap.Logger
}

func NewClientService(clients ClientStore, resolver *rbac.Resolver, log *zap.Logger) *ClientService {
	return &ClientService{clients: clients, resolver: resolver, log: log}
}

func (s *ClientService) Get(ctx context.Context, actor *rbac.Actor, id uuid.UUID) (*models.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Authorize(actor, rbac.ResourceClient, rbac.ClientRef(client), rbac.OpRead); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ClientService) List(ctx context.Context, actor *rbac.Actor, limit, offset int) ([]models.Client, error) {
	if err := s.resolver.Authorize(actor, rbac.ResourceClient, rbac.ResourceRef{}, rbac.OpList); err != nil {
		return nil, err
	}
	scope, err := s.resolver.ScopeFor(actor, rbac.ResourceClient)
	if err != nil {
		return nil, err
	}
	if scope.IsNone() {
		return []models.Client{}, nil
	}
	return s.clients.List(ctx, scope, limit, offset)
}

// Update applies patch. The resolver sees the touched field names, so a
// client admin flipping is_active is refused as a whole.
func (s *ClientService) Update(ctx context.Context, actor *rbac.Actor, id uuid.UUID, patch models.ClientPatch) (*models.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ref := rbac.ClientRef(client)
	ref.Fields = patch.Fields()
	if err := s.resolver.Authorize(actor, rbac.ResourceClient, ref, rbac.OpUpdate); err != nil {
		return nil, err
	}
	if len(ref.Fields) == 0 {
		return client, nil
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperr.Validation("name", "must not be empty")
	}

	patch.Apply(client)
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, err
	}
	s.log.Info("client updated",
		zap.String("client_id", client.ID.String()),
		zap.Strings("fields", ref.Fields),
		zap.String("actor_id", actor.ID.String()),
	)
	return client, nil
}

func (s *ClientService) Delete(ctx context.Context, actor *rbac.Actor, id uuid.UUID) error {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.resolver.Authorize(actor, rbac.ResourceClient, rbac.ClientRef(client), rbac.OpDelete); err != nil {
		return err
	}
	if err := s.clients.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Warn("client deleted", zap.String("client_id", id.String()), zap.String("actor_id", actor.ID.String()))
	return nil
}
