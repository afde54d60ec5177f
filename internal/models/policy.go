package models

import (
	"strings"
	"time"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/google/uuid"
)

type PolicyStatus string

// Policy statuses
const (
	PolicyStatusPending   PolicyStatus = "PENDING"
	PolicyStatusActive    PolicyStatus = "ACTIVE"
	PolicyStatusExpired   PolicyStatus = "EXPIRED"
	PolicyStatusCancelled PolicyStatus = "CANCELLED"
)

var PolicyStatuses = []PolicyStatus{
	PolicyStatusPending,
	PolicyStatusActive,
	PolicyStatusExpired,
	PolicyStatusCancelled,
}

// PolicyTransitions is the policy status graph. EXPIRED -> ACTIVE is allowed:
// expiry follows payment and a late payment reactivates the policy.
var PolicyTransitions = map[PolicyStatus][]PolicyStatus{
	PolicyStatusPending:   {PolicyStatusActive, PolicyStatusCancelled},
	PolicyStatusActive:    {PolicyStatusExpired, PolicyStatusCancelled},
	PolicyStatusExpired:   {PolicyStatusActive, PolicyStatusCancelled},
	PolicyStatusCancelled: {},
}

func IsValidPolicyTransition(from, to PolicyStatus) bool {
	for _, s := range PolicyTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s PolicyStatus) IsKnown() bool {
	_, ok := PolicyTransitions[s]
	return ok
}

func ParsePolicyStatus(v string) (PolicyStatus, error) {
	s := PolicyStatus(strings.ToUpper(strings.TrimSpace(v)))
	if !s.IsKnown() {
		return "", apperr.Validation("status", "unknown policy status "+v)
	}
	return s, nil
}

func (s PolicyStatus) IsTerminal() bool {
	allowed, ok := PolicyTransitions[s]
	return ok && len(allowed) == 0
}

type Policy struct {
	ID           uuid.UUID    `json:"id"`
	ClientID     uuid.UUID    `json:"client_id"`
	InsurerID    uuid.UUID    `json:"insurer_id"`
	PolicyNumber string       `json:"policy_number"`
	Status       PolicyStatus `json:"status"`
	StartDate    *time.Time   `json:"start_date,omitempty"`
	EndDate      *time.Time   `json:"end_date,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (p *Policy) EntityType() string { return EntityPolicy }
func (p *Policy) EntityID() uuid.UUID { return p.ID }
func (p *Policy) CurrentStatus() string { return string(p.Status) }
func (p *Policy) SetStatus(status string) { p.Status = PolicyStatus(status) }
