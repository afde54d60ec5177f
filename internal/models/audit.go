package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Audited entity types
const (
	EntityClaim  = "claim"
	EntityPolicy = "policy"
)

// AuditLog is one status transition. Rows are append-only; PreviousStatus is
// empty for the entry written at creation.
type AuditLog struct {
	ID             string     `json:"id"` // ULID
	Seq            int64      `json:"seq"`
	EntityType     string     `json:"entity_type"`
	EntityID       uuid.UUID  `json:"entity_id"`
	PreviousStatus string     `json:"previous_status,omitempty"`
	NewStatus      string     `json:"new_status"`
	ActorID        *uuid.UUID `json:"actor_id,omitempty"`
	Meta           any        `json:"meta,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SortAuditLogs orders entries by timestamp, ties broken by insertion sequence.
func SortAuditLogs(entries []AuditLog) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].Seq < entries[j].Seq
	})
}
