package repositories

import (
	"context"
	"errors"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AffiliateRepo struct {
	pool *pgxpool.Pool
}

func NewAffiliateRepo(pool *pgxpool.Pool) *AffiliateRepo {
	return &AffiliateRepo{pool: pool}
}

const affiliateColumns = `a.id, a.client_id, a.type, a.owner_id, a.first_name, a.last_name, a.document_id,
	a.is_active, a.created_at, a.updated_at`

var affiliateScope = scopeColumns{Client: "a.client_id", Affiliate: "a.id"}

type AffiliateFilter struct {
	ClientID *uuid.UUID
	Type     *models.AffiliateType
	Limit    int
	Offset   int
}

func (r *AffiliateRepo) Create(ctx context.Context, a *models.Affiliate) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO affiliates (client_id, type, owner_id, first_name, last_name, document_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, a.ClientID, a.Type, a.OwnerID, a.FirstName, a.LastName, a.DocumentID, a.IsActive,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *AffiliateRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error) {
	a, err := scanAffiliate(r.pool.QueryRow(ctx, `SELECT `+affiliateColumns+` FROM affiliates a WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("affiliate", id)
	}
	return a, err
}

func (r *AffiliateRepo) List(ctx context.Context, scope rbac.Scope, f AffiliateFilter) ([]models.Affiliate, error) {
	var q query
	if !q.scope(scope, affiliateScope) {
		return nil, nil
	}
	if f.ClientID != nil {
		q.add("a.client_id = $%d", *f.ClientID)
	}
	if f.Type != nil {
		q.add("a.type = $%d", string(*f.Type))
	}
	sql := q.finish(`SELECT `+affiliateColumns+` FROM affiliates a`, "a.last_name, a.first_name", f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var affiliates []models.Affiliate
	for rows.Next() {
		a, err := scanAffiliate(rows)
		if err != nil {
			return nil, err
		}
		affiliates = append(affiliates, *a)
	}
	return affiliates, rows.Err()
}

// ListOwners returns the OWNER affiliates of clientID, the only valid parents
// for a new dependent.
func (r *AffiliateRepo) ListOwners(ctx context.Context, clientID uuid.UUID) ([]models.Affiliate, error) {
	owner := models.AffiliateOwner
	return r.List(ctx, rbac.Scope{Kind: rbac.ScopeAll}, AffiliateFilter{ClientID: &clientID, Type: &owner, Limit: 100})
}

func dependentIDs(ctx context.Context, q DBTX, ownerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, `SELECT id FROM affiliates WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanAffiliate(row pgx.Row) (*models.Affiliate, error) {
	var a models.Affiliate
	err := row.Scan(&a.ID, &a.ClientID, &a.Type, &a.OwnerID, &a.FirstName, &a.LastName, &a.DocumentID,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
