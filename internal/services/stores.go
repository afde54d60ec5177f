package services

import (
	"context"

	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/claimsdesk/backend/internal/repositories"
	"github.com/claimsdesk/backend/internal/statemachine"
	"github.com/google/uuid"
)

// The stores below are implemented by the pgx repositories. Lookups return
// *apperr.NotFoundError for missing rows; ApplyTransition returns
// apperr.ErrStaleStatus when the row's status moved underneath it.

type ClaimStore interface {
	NextNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, c *models.Claim, entry *models.AuditLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	GetByNumber(ctx context.Context, number int64) (*models.Claim, error)
	List(ctx context.Context, scope rbac.Scope, f repositories.ClaimFilter) ([]models.Claim, error)
	ListInStatuses(ctx context.Context, statuses []models.ClaimStatus) ([]models.Claim, error)
	ApplyTransition(ctx context.Context, change *statemachine.Change) error
}

type PolicyStore interface {
	Create(ctx context.Context, p *models.Policy, entry *models.AuditLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Policy, error)
	List(ctx context.Context, scope rbac.Scope, f repositories.PolicyFilter) ([]models.Policy, error)
	ApplyTransition(ctx context.Context, change *statemachine.Change) error
}

type ClientStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	List(ctx context.Context, scope rbac.Scope, limit, offset int) ([]models.Client, error)
	Update(ctx context.Context, c *models.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type AffiliateStore interface {
	Create(ctx context.Context, a *models.Affiliate) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error)
	List(ctx context.Context, scope rbac.Scope, f repositories.AffiliateFilter) ([]models.Affiliate, error)
	ListOwners(ctx context.Context, clientID uuid.UUID) ([]models.Affiliate, error)
}

type AuditStore interface {
	History(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error)
	HistoryMany(ctx context.Context, entityType string, ids []uuid.UUID) (map[uuid.UUID][]models.AuditLog, error)
}

var (
	_ ClaimStore     = (*repositories.ClaimRepo)(nil)
	_ PolicyStore    = (*repositories.PolicyRepo)(nil)
	_ ClientStore    = (*repositories.ClientRepo)(nil)
	_ AffiliateStore = (*repositories.AffiliateRepo)(nil)
	_ AuditStore     = (*repositories.AuditRepo)(nil)
)
