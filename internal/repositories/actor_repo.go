package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ActorRepo struct {
	pool *pgxpool.Pool
}

func NewActorRepo(pool *pgxpool.Pool) *ActorRepo {
	return &ActorRepo{pool: pool}
}

// Load resolves the actor with its client relationships and, for affiliates,
// the family anchor. An affiliate whose affiliate record is missing is
// returned without an anchor; the resolver rejects it.
func (r *ActorRepo) Load(ctx context.Context, id uuid.UUID) (*rbac.Actor, error) {
	var roleName string
	var affiliateID *uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT role, affiliate_id FROM actors WHERE id = $1`, id).Scan(&roleName, &affiliateID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("actor", id)
	}
	if err != nil {
		return nil, err
	}

	role, err := rbac.ParseRole(roleName)
	if err != nil {
		return nil, err
	}
	actor := &rbac.Actor{ID: id, Role: role}

	if actor.ClientIDs, err = r.clientIDs(ctx, id); err != nil {
		return nil, fmt.Errorf("load actor clients: %w", err)
	}

	if role == rbac.RoleAffiliate && affiliateID != nil {
		anchor, err := r.anchor(ctx, *affiliateID)
		if err != nil {
			return nil, fmt.Errorf("load affiliate anchor: %w", err)
		}
		actor.Affiliate = anchor
	}
	return actor, nil
}

func (r *ActorRepo) clientIDs(ctx context.Context, actorID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT client_id FROM actor_clients WHERE actor_id = $1`, actorID)
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

func (r *ActorRepo) anchor(ctx context.Context, affiliateID uuid.UUID) (*models.AffiliateAnchor, error) {
	a := &models.AffiliateAnchor{AffiliateID: affiliateID}
	err := r.pool.QueryRow(ctx, `SELECT client_id, type FROM affiliates WHERE id = $1`, affiliateID).Scan(&a.ClientID, &a.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if a.Type != models.AffiliateOwner {
		return a, nil
	}

	if a.DependentIDs, err = dependentIDs(ctx, r.pool, affiliateID); err != nil {
		return nil, err
	}
	return a, nil
}
