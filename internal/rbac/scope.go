package rbac

import (
	"fmt"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/google/uuid"
)

type ScopeKind int

const (
	// ScopeNone matches nothing.
	ScopeNone ScopeKind = iota
	// ScopeAll matches every row.
	ScopeAll
	// ScopeClients matches rows whose client id is in IDs.
	ScopeClients
	// ScopeAffiliates matches affiliate rows whose own id is in IDs.
	ScopeAffiliates
	// ScopePatients matches claim rows whose patient id is in IDs.
	ScopePatients
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeAll:
		return "all"
	case ScopeClients:
		return "clients"
	case ScopeAffiliates:
		return "affiliates"
	case ScopePatients:
		return "patients"
	default:
		return "none"
	}
}

// Scope is the list predicate for one actor and resource type. The
// persistence layer renders it into a WHERE clause.
type Scope struct {
	Kind ScopeKind
	IDs  []uuid.UUID
}

func (s Scope) IsNone() bool {
	return s.Kind == ScopeNone || (s.Kind != ScopeAll && len(s.IDs) == 0)
}

// Matches applies the predicate to a single row.
func (s Scope) Matches(ref ResourceRef) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeClients:
		return containsID(s.IDs, ref.ClientID)
	case ScopeAffiliates:
		return containsID(s.IDs, ref.AffiliateID)
	case ScopePatients:
		return containsID(s.IDs, ref.PatientID)
	default:
		return false
	}
}

func (s Scope) String() string {
	if s.Kind == ScopeAll || s.Kind == ScopeNone {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s(%d)", s.Kind, len(s.IDs))
}

// ScopeFor returns the list predicate for actor over rt.
func (r *Resolver) ScopeFor(actor *Actor, rt ResourceType) (Scope, error) {
	if actor == nil {
		return Scope{Kind: ScopeNone}, nil
	}

	switch actor.Role.Class() {
	case ClassInternal:
		return Scope{Kind: ScopeAll}, nil

	case ClassClient:
		ids := make([]uuid.UUID, len(actor.ClientIDs))
		copy(ids, actor.ClientIDs)
		return Scope{Kind: ScopeClients, IDs: ids}, nil

	case ClassAffiliate:
		anchor := actor.Affiliate
		if anchor == nil {
			return Scope{}, apperr.Validation("affiliate", fmt.Sprintf("actor %s has affiliate role but no affiliate record", actor.ID))
		}
		switch rt {
		case ResourceClient:
			return Scope{Kind: ScopeClients, IDs: []uuid.UUID{anchor.ClientID}}, nil
		case ResourceAffiliate:
			return Scope{Kind: ScopeAffiliates, IDs: anchor.Patients()}, nil
		case ResourceClaim:
			return Scope{Kind: ScopePatients, IDs: anchor.Patients()}, nil
		default:
			return Scope{Kind: ScopeNone}, nil
		}

	default:
		return Scope{Kind: ScopeNone}, nil
	}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
