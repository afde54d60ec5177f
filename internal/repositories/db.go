package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/db"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/claimsdesk/backend/internal/statemachine"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is DBTX plus transactions.
type Pool interface {
	DBTX
	db.TxStarter
}

// scopeColumns names the columns a Scope is matched against.
type scopeColumns struct {
	Client    string
	Affiliate string
	Patient   string
}

// scopeWhere renders s into a predicate starting at placeholder argIdx. ok is
// false when s matches nothing, in which case the query can be skipped.
func scopeWhere(s rbac.Scope, cols scopeColumns, argIdx int) (clause string, args []any, ok bool) {
	if s.Kind == rbac.ScopeAll {
		return "", nil, true
	}
	if s.IsNone() {
		return "", nil, false
	}

	var col string
	switch s.Kind {
	case rbac.ScopeClients:
		col = cols.Client
	case rbac.ScopeAffiliates:
		col = cols.Affiliate
	case rbac.ScopePatients:
		col = cols.Patient
	}
	if col == "" {
		return "", nil, false
	}
	return fmt.Sprintf("%s = ANY($%d)", col, argIdx), []any{s.IDs}, true
}

// query accumulates WHERE conditions with numbered placeholders.
type query struct {
	where []string
	args  []any
}

func (q *query) next() int { return len(q.args) + 1 }

func (q *query) add(cond string, arg any) {
	q.where = append(q.where, fmt.Sprintf(cond, q.next()))
	q.args = append(q.args, arg)
}

func (q *query) scope(s rbac.Scope, cols scopeColumns) bool {
	clause, args, ok := scopeWhere(s, cols, q.next())
	if !ok {
		return false
	}
	if clause != "" {
		q.where = append(q.where, clause)
		q.args = append(q.args, args...)
	}
	return true
}

// finish appends WHERE, ORDER BY and paging to base.
func (q *query) finish(base, orderBy string, limit, offset int) string {
	if len(q.where) > 0 {
		base += " WHERE " + strings.Join(q.where, " AND ")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	n := q.next()
	q.args = append(q.args, limit, offset)
	return fmt.Sprintf("%s ORDER BY %s LIMIT $%d OFFSET $%d", base, orderBy, n, n+1)
}

func insertAudit(ctx context.Context, q DBTX, e *models.AuditLog) error {
	return q.QueryRow(ctx, `
		INSERT INTO audit_log (id, entity_type, entity_id, previous_status, new_status, actor_id, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq
	`, e.ID, e.EntityType, e.EntityID, e.PreviousStatus, e.NewStatus, e.ActorID, e.Meta, e.CreatedAt,
	).Scan(&e.Seq)
}

// applyTransition moves one row of table from change.From to change.To and
// appends the audit entry in the same transaction. A row whose status no
// longer equals change.From yields apperr.ErrStaleStatus and nothing is written.
func applyTransition(ctx context.Context, pool Pool, table string, change *statemachine.Change) error {
	return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"UPDATE "+table+" SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4",
			change.To, change.Entry.CreatedAt, change.Entry.EntityID, change.From)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.ErrStaleStatus
		}
		return insertAudit(ctx, tx, &change.Entry)
	})
}

func decodeMeta(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var meta any
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil
	}
	return meta
}
