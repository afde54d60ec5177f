package repositories

import (
	"context"
	"errors"
	"strconv"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/db"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/claimsdesk/backend/internal/statemachine"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ClaimRepo struct {
	pool *pgxpool.Pool
}

func NewClaimRepo(pool *pgxpool.Pool) *ClaimRepo {
	return &ClaimRepo{pool: pool}
}

const claimColumns = `c.id, c.client_id, c.affiliate_id, c.patient_id, c.policy_id, c.number, c.code, c.status,
	c.description, c.amount_submitted::text, c.amount_approved::text, c.created_at, c.updated_at`

var claimScope = scopeColumns{Client: "c.client_id", Patient: "c.patient_id"}

type ClaimFilter struct {
	ClientID  *uuid.UUID
	PatientID *uuid.UUID
	PolicyID  *uuid.UUID
	Status    *models.ClaimStatus
	Limit     int
	Offset    int
}

// NextNumber reserves the next sequential claim number.
func (r *ClaimRepo) NextNumber(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT nextval('claim_number_seq')`).Scan(&n)
	return n, err
}

// Create inserts the claim together with its creation audit entry.
func (r *ClaimRepo) Create(ctx context.Context, c *models.Claim, entry *models.AuditLog) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO claims (id, client_id, affiliate_id, patient_id, policy_id, number, code, status,
			                    description, amount_submitted, amount_approved, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::numeric, $11::numeric, $12, $12)
		`, c.ID, c.ClientID, c.AffiliateID, c.PatientID, c.PolicyID, c.Number, c.Code, c.Status,
			c.Description, c.AmountSubmitted, c.AmountApproved, c.CreatedAt)
		if err != nil {
			return err
		}
		return insertAudit(ctx, tx, entry)
	})
}

func (r *ClaimRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	c, err := scanClaim(r.pool.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims c WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("claim", id)
	}
	return c, err
}

func (r *ClaimRepo) GetByNumber(ctx context.Context, number int64) (*models.Claim, error) {
	c, err := scanClaim(r.pool.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims c WHERE c.number = $1`, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &apperr.NotFoundError{Resource: "claim", ID: strconv.FormatInt(number, 10)}
	}
	return c, err
}

// List returns the claims matching both scope and f, newest first.
func (r *ClaimRepo) List(ctx context.Context, scope rbac.Scope, f ClaimFilter) ([]models.Claim, error) {
	var q query
	if !q.scope(scope, claimScope) {
		return nil, nil
	}
	if f.ClientID != nil {
		q.add("c.client_id = $%d", *f.ClientID)
	}
	if f.PatientID != nil {
		q.add("c.patient_id = $%d", *f.PatientID)
	}
	if f.PolicyID != nil {
		q.add("c.policy_id = $%d", *f.PolicyID)
	}
	if f.Status != nil {
		q.add("c.status = $%d", string(*f.Status))
	}
	sql := q.finish(`SELECT `+claimColumns+` FROM claims c`, "c.created_at DESC", f.Limit, f.Offset)

	return r.query(ctx, sql, q.args...)
}

// ListInStatuses returns every claim currently in one of statuses.
func (r *ClaimRepo) ListInStatuses(ctx context.Context, statuses []models.ClaimStatus) ([]models.Claim, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return r.query(ctx, `SELECT `+claimColumns+` FROM claims c WHERE c.status = ANY($1) ORDER BY c.created_at`, names)
}

// ApplyTransition persists a validated status change and its audit entry atomically.
func (r *ClaimRepo) ApplyTransition(ctx context.Context, change *statemachine.Change) error {
	return applyTransition(ctx, r.pool, "claims", change)
}

func (r *ClaimRepo) query(ctx context.Context, sql string, args ...any) ([]models.Claim, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []models.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

func scanClaim(row pgx.Row) (*models.Claim, error) {
	var c models.Claim
	err := row.Scan(&c.ID, &c.ClientID, &c.AffiliateID, &c.PatientID, &c.PolicyID, &c.Number, &c.Code, &c.Status,
		&c.Description, &c.AmountSubmitted, &c.AmountApproved, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
