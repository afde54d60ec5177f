package models

import (
	"time"

	"github.com/google/uuid"
)

type AffiliateType string

const (
	AffiliateOwner     AffiliateType = "OWNER"
	AffiliateDependent AffiliateType = "DEPENDENT"
)

type Affiliate struct {
	ID         uuid.UUID     `json:"id"`
	ClientID   uuid.UUID     `json:"client_id"`
	Type       AffiliateType `json:"type"`
	OwnerID    *uuid.UUID    `json:"owner_id,omitempty"` // set iff DEPENDENT
	FirstName  string        `json:"first_name"`
	LastName   string        `json:"last_name"`
	DocumentID *string       `json:"document_id,omitempty"`
	IsActive   bool          `json:"is_active"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// CanOwnDependentsIn reports whether a is a valid parent for a new dependent in clientID.
// Dependents never own dependents, so families are one level deep.
func (a *Affiliate) CanOwnDependentsIn(clientID uuid.UUID) bool {
	return a != nil && a.Type == AffiliateOwner && a.ClientID == clientID
}

// AffiliateAnchor is the scoping anchor of an affiliate-role actor, resolved
// once when the actor is loaded.
type AffiliateAnchor struct {
	AffiliateID  uuid.UUID
	ClientID     uuid.UUID
	Type         AffiliateType
	DependentIDs []uuid.UUID
}

// Patients returns the affiliate itself plus its dependents when it is an owner.
func (a *AffiliateAnchor) Patients() []uuid.UUID {
	ids := []uuid.UUID{a.AffiliateID}
	if a.Type == AffiliateOwner {
		ids = append(ids, a.DependentIDs...)
	}
	return ids
}

func (a *AffiliateAnchor) IsPatient(id uuid.UUID) bool {
	for _, p := range a.Patients() {
		if p == id {
			return true
		}
	}
	return false
}
