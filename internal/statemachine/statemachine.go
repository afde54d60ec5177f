// Package statemachine validates and executes claim and policy status
// transitions against the explicit graphs in the models package.
//
// The machine is role-agnostic: who may transition is decided by the rbac
// resolver before the machine is consulted.
package statemachine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/ids"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/google/uuid"
)

type EntityKind string

const (
	KindClaim  EntityKind = models.EntityClaim
	KindPolicy EntityKind = models.EntityPolicy
)

// Stateful is an entity whose status is driven by a graph.
type Stateful interface {
	EntityType() string
	EntityID() uuid.UUID
	CurrentStatus() string
	SetStatus(status string)
}

// Change is the result of a validated transition. The caller persists the
// status update and the audit entry in one transaction.
type Change struct {
	From  string
	To    string
	Entry models.AuditLog
}

// ValidateTransition returns nil when current -> target is an edge of kind's graph.
func ValidateTransition(current, target string, kind EntityKind) error {
	if !isEdge(current, target, kind) {
		return apperr.InvalidTransition(string(kind), current, target)
	}
	return nil
}

// Transition validates the move of entity to target and, on success, sets the
// new status on entity and returns the audit entry to append. On failure the
// entity is left untouched.
func Transition(entity Stateful, target string, actorID *uuid.UUID, now time.Time, meta any) (*Change, error) {
	kind := EntityKind(entity.EntityType())
	from := entity.CurrentStatus()
	if err := ValidateTransition(from, target, kind); err != nil {
		return nil, err
	}

	entity.SetStatus(target)
	return &Change{
		From: from,
		To:   target,
		Entry: models.AuditLog{
			ID:             ids.NewAuditID(now),
			EntityType:     string(kind),
			EntityID:       entity.EntityID(),
			PreviousStatus: from,
			NewStatus:      target,
			ActorID:        actorID,
			Meta:           meta,
			CreatedAt:      now,
		},
	}, nil
}

// Created returns the audit entry recorded when an entity is first persisted in
// its initial status.
func Created(entity Stateful, actorID *uuid.UUID, now time.Time) models.AuditLog {
	return models.AuditLog{
		ID:         ids.NewAuditID(now),
		EntityType: entity.EntityType(),
		EntityID:   entity.EntityID(),
		NewStatus:  entity.CurrentStatus(),
		ActorID:    actorID,
		CreatedAt:  now,
	}
}

// InitialStatus is the status entities of kind are created in.
func InitialStatus(kind EntityKind) string {
	switch kind {
	case KindClaim:
		return string(models.ClaimStatusDraft)
	case KindPolicy:
		return string(models.PolicyStatusPending)
	default:
		return ""
	}
}

func isEdge(from, to string, kind EntityKind) bool {
	switch kind {
	case KindClaim:
		return models.IsValidClaimTransition(models.ClaimStatus(from), models.ClaimStatus(to))
	case KindPolicy:
		return models.IsValidPolicyTransition(models.PolicyStatus(from), models.PolicyStatus(to))
	default:
		return false
	}
}

// Edge is one allowed transition.
type Edge struct {
	From string
	To   string
}

// Statuses lists kind's statuses in declaration order.
func Statuses(kind EntityKind) []string {
	var out []string
	switch kind {
	case KindClaim:
		for _, s := range models.ClaimStatuses {
			out = append(out, string(s))
		}
	case KindPolicy:
		for _, s := range models.PolicyStatuses {
			out = append(out, string(s))
		}
	}
	return out
}

// Edges lists kind's graph, ordered by source status declaration order then target name.
func Edges(kind EntityKind) []Edge {
	var edges []Edge
	for _, from := range Statuses(kind) {
		var targets []string
		for _, to := range Statuses(kind) {
			if isEdge(from, to, kind) {
				targets = append(targets, to)
			}
		}
		sort.Strings(targets)
		for _, to := range targets {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// Terminal lists kind's statuses with no outbound edges.
func Terminal(kind EntityKind) []string {
	out := []string{}
	for _, s := range Statuses(kind) {
		terminal := true
		for _, to := range Statuses(kind) {
			if isEdge(s, to, kind) {
				terminal = false
				break
			}
		}
		if terminal {
			out = append(out, s)
		}
	}
	return out
}

// DOT renders kind's graph in Graphviz format. Terminal statuses are drawn
// with a double border.
func DOT(kind EntityKind) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", kind)
	b.WriteString("\trankdir=LR;\n")
	for _, s := range Terminal(kind) {
		fmt.Fprintf(&b, "\t%q [shape=doublecircle];\n", s)
	}
	for _, e := range Edges(kind) {
		fmt.Fprintf(&b, "\t%q -> %q;\n", e.From, e.To)
	}
	b.WriteString("}\n")
	return b.String()
}
