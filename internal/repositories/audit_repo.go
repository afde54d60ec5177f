package repositories

import (
	"context"

	"github.com/claimsdesk/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

const auditColumns = `seq, id, entity_type, entity_id, previous_status, new_status, actor_id, meta, created_at`

// History returns the entity's audit entries oldest first.
func (r *AuditRepo) History(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at, seq
	`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		l, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// HistoryMany loads the histories of several entities in one query.
func (r *AuditRepo) HistoryMany(ctx context.Context, entityType string, ids []uuid.UUID) (map[uuid.UUID][]models.AuditLog, error) {
	out := make(map[uuid.UUID][]models.AuditLog, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+auditColumns+`
		FROM audit_log WHERE entity_type = $1 AND entity_id = ANY($2)
		ORDER BY entity_id, created_at, seq
	`, entityType, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		out[l.EntityID] = append(out[l.EntityID], l)
	}
	return out, rows.Err()
}

func scanAudit(row interface{ Scan(...any) error }) (models.AuditLog, error) {
	var l models.AuditLog
	var meta []byte
	err := row.Scan(&l.Seq, &l.ID, &l.EntityType, &l.EntityID, &l.PreviousStatus, &l.NewStatus, &l.ActorID, &meta, &l.CreatedAt)
	l.Meta = decodeMeta(meta)
	return l, err
}
