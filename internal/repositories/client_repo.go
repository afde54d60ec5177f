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

type ClientRepo struct {
	pool *pgxpool.Pool
}

func NewClientRepo(pool *pgxpool.Pool) *ClientRepo {
	return &ClientRepo{pool: pool}
}

const clientColumns = `cl.id, cl.name, cl.tax_id, cl.contact_email, cl.is_active, cl.created_at, cl.updated_at`

var clientScope = scopeColumns{Client: "cl.id"}

func (r *ClientRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var c models.Client
	err := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients cl WHERE cl.id = $1`, id).
		Scan(&c.ID, &c.Name, &c.TaxID, &c.ContactEmail, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("client", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepo) List(ctx context.Context, scope rbac.Scope, limit, offset int) ([]models.Client, error) {
	var q query
	if !q.scope(scope, clientScope) {
		return nil, nil
	}
	sql := q.finish(`SELECT `+clientColumns+` FROM clients cl`, "cl.name", limit, offset)

	rows, err := r.pool.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.TaxID, &c.ContactEmail, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *ClientRepo) Update(ctx context.Context, c *models.Client) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE clients SET name = $1, tax_id = $2, contact_email = $3, is_active = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`, c.Name, c.TaxID, c.ContactEmail, c.IsActive, c.ID).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("client", c.ID)
	}
	return err
}

// Delete removes the client and, by cascade, its affiliates, policies and
// claims. Audit entries are kept.
func (r *ClientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("client", id)
	}
	return nil
}
