package models

import (
	"strings"
	"time"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/google/uuid"
)

type ClaimStatus string

// Claim statuses
const (
	ClaimStatusDraft       ClaimStatus = "DRAFT"
	ClaimStatusValidation  ClaimStatus = "VALIDATION"
	ClaimStatusSubmitted   ClaimStatus = "SUBMITTED"
	ClaimStatusPendingInfo ClaimStatus = "PENDING_INFO"
	ClaimStatusReturned    ClaimStatus = "RETURNED"
	ClaimStatusSettled     ClaimStatus = "SETTLED"
	ClaimStatusCancelled   ClaimStatus = "CANCELLED"
)

// ClaimStatuses lists every claim status in workflow order.
var ClaimStatuses = []ClaimStatus{
	ClaimStatusDraft,
	ClaimStatusValidation,
	ClaimStatusSubmitted,
	ClaimStatusPendingInfo,
	ClaimStatusReturned,
	ClaimStatusSettled,
	ClaimStatusCancelled,
}

// ClaimTransitions is the claim status graph: from -> []to.
// Every non-terminal status may move to CANCELLED.
var ClaimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimStatusDraft:       {ClaimStatusValidation, ClaimStatusCancelled},
	ClaimStatusValidation:  {ClaimStatusSubmitted, ClaimStatusDraft, ClaimStatusCancelled},
	ClaimStatusSubmitted:   {ClaimStatusPendingInfo, ClaimStatusSettled, ClaimStatusReturned, ClaimStatusCancelled},
	ClaimStatusPendingInfo: {ClaimStatusSubmitted, ClaimStatusCancelled},
	ClaimStatusReturned:    {ClaimStatusValidation, ClaimStatusCancelled},
	ClaimStatusSettled:     {},
	ClaimStatusCancelled:   {},
}

func IsValidClaimTransition(from, to ClaimStatus) bool {
	allowed, ok := ClaimTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

func (s ClaimStatus) IsKnown() bool {
	_, ok := ClaimTransitions[s]
	return ok
}

// ParseClaimStatus accepts a status name in any case.
func ParseClaimStatus(v string) (ClaimStatus, error) {
	s := ClaimStatus(strings.ToUpper(strings.TrimSpace(v)))
	if !s.IsKnown() {
		return "", apperr.Validation("status", "unknown claim status "+v)
	}
	return s, nil
}

func (s ClaimStatus) IsTerminal() bool {
	allowed, ok := ClaimTransitions[s]
	return ok && len(allowed) == 0
}

type Claim struct {
	ID              uuid.UUID   `json:"id"`
	ClientID        uuid.UUID   `json:"client_id"`
	AffiliateID     uuid.UUID   `json:"affiliate_id"`
	PatientID       uuid.UUID   `json:"patient_id"`
	PolicyID        *uuid.UUID  `json:"policy_id,omitempty"`
	Number          int64       `json:"number"`
	Code            string      `json:"code"`
	Status          ClaimStatus `json:"status"`
	Description     *string     `json:"description,omitempty"`
	AmountSubmitted string      `json:"amount_submitted"` // numeric as string
	AmountApproved  *string     `json:"amount_approved,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (c *Claim) EntityType() string { return EntityClaim }
func (c *Claim) EntityID() uuid.UUID { return c.ID }
func (c *Claim) CurrentStatus() string { return string(c.Status) }
func (c *Claim) SetStatus(status string) { c.Status = ClaimStatus(status) }
