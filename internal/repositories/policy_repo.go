package repositories

import (
	"context"
	"errors"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/db"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/claimsdesk/backend/internal/statemachine"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PolicyRepo struct {
	pool *pgxpool.Pool
}

func NewPolicyRepo(pool *pgxpool.Pool) *PolicyRepo {
	return &PolicyRepo{pool: pool}
}

const policyColumns = `p.id, p.client_id, p.insurer_id, p.policy_number, p.status, p.start_date, p.end_date,
	p.created_at, p.updated_at`

var policyScope = scopeColumns{Client: "p.client_id"}

type PolicyFilter struct {
	ClientID *uuid.UUID
	Status   *models.PolicyStatus
	Limit    int
	Offset   int
}

func (r *PolicyRepo) Create(ctx context.Context, p *models.Policy, entry *models.AuditLog) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO policies (id, client_id, insurer_id, policy_number, status, start_date, end_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		`, p.ID, p.ClientID, p.InsurerID, p.PolicyNumber, p.Status, p.StartDate, p.EndDate, p.CreatedAt)
		if err != nil {
			return err
		}
		return insertAudit(ctx, tx, entry)
	})
}

func (r *PolicyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Policy, error) {
	p, err := scanPolicy(r.pool.QueryRow(ctx, `SELECT `+policyColumns+` FROM policies p WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("policy", id)
	}
	return p, err
}

func (r *PolicyRepo) List(ctx context.Context, scope rbac.Scope, f PolicyFilter) ([]models.Policy, error) {
	var q query
	if !q.scope(scope, policyScope) {
		return nil, nil
	}
	if f.ClientID != nil {
		q.add("p.client_id = $%d", *f.ClientID)
	}
	if f.Status != nil {
		q.add("p.status = $%d", string(*f.Status))
	}
	sql := q.finish(`SELECT `+policyColumns+` FROM policies p`, "p.created_at DESC", f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []models.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, *p)
	}
	return policies, rows.Err()
}

func (r *PolicyRepo) ApplyTransition(ctx context.Context, change *statemachine.Change) error {
	return applyTransition(ctx, r.pool, "policies", change)
}

func scanPolicy(row pgx.Row) (*models.Policy, error) {
	var p models.Policy
	err := row.Scan(&p.ID, &p.ClientID, &p.InsurerID, &p.PolicyNumber, &p.Status, &p.StartDate, &p.EndDate,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
