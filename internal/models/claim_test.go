package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestIsValidClaimTransition(t *testing.T) {
	tests := []struct {
		from     ClaimStatus
		to       ClaimStatus
		expected bool
	}{
		// Happy path
		{ClaimStatusDraft, ClaimStatusValidation, true},
		{ClaimStatusValidation, ClaimStatusSubmitted, true},
		{ClaimStatusValidation, ClaimStatusDraft, true},
		{ClaimStatusSubmitted, ClaimStatusPendingInfo, true},
		{ClaimStatusSubmitted, ClaimStatusSettled, true},
		{ClaimStatusSubmitted, ClaimStatusReturned, true},
		{ClaimStatusPendingInfo, ClaimStatusSubmitted, true},
		{ClaimStatusReturned, ClaimStatusValidation, true},

		// Cancellation paths
		{ClaimStatusDraft, ClaimStatusCancelled, true},
		{ClaimStatusValidation, ClaimStatusCancelled, true},
		{ClaimStatusSubmitted, ClaimStatusCancelled, true},
		{ClaimStatusPendingInfo, ClaimStatusCancelled, true},
		{ClaimStatusReturned, ClaimStatusCancelled, true},

		// Invalid transitions
		{ClaimStatusDraft, ClaimStatusSubmitted, false},
		{ClaimStatusDraft, ClaimStatusSettled, false},
		{ClaimStatusDraft, ClaimStatusDraft, false},
		{ClaimStatusPendingInfo, ClaimStatusSettled, false},
		{ClaimStatusReturned, ClaimStatusSubmitted, false},
		{ClaimStatusSettled, ClaimStatusSubmitted, false},
		{ClaimStatusSettled, ClaimStatusCancelled, false},
		{ClaimStatusCancelled, ClaimStatusDraft, false},
		{"nonexistent", ClaimStatusDraft, false},
		{ClaimStatusDraft, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			result := IsValidClaimTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidClaimTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllClaimStatusesHaveTransitionEntry(t *testing.T) {
	for _, status := range ClaimStatuses {
		if _, ok := ClaimTransitions[status]; !ok {
			t.Errorf("status %q missing from ClaimTransitions map", status)
		}
	}
	if len(ClaimTransitions) != len(ClaimStatuses) {
		t.Errorf("ClaimTransitions has %d entries, ClaimStatuses has %d", len(ClaimTransitions), len(ClaimStatuses))
	}
}

func TestEveryNonTerminalClaimStatusCanCancel(t *testing.T) {
	for _, status := range ClaimStatuses {
		if status.IsTerminal() {
			continue
		}
		if !IsValidClaimTransition(status, ClaimStatusCancelled) {
			t.Errorf("non-terminal status %q cannot be cancelled", status)
		}
	}
}

func TestTerminalClaimStatusesHaveNoTransitions(t *testing.T) {
	terminal := []ClaimStatus{ClaimStatusSettled, ClaimStatusCancelled}
	for _, status := range terminal {
		if !status.IsTerminal() {
			t.Errorf("status %q should be terminal", status)
		}
		for _, to := range ClaimStatuses {
			if IsValidClaimTransition(status, to) {
				t.Errorf("terminal status %q should not transition to %q", status, to)
			}
		}
	}
}

func TestIsValidPolicyTransition(t *testing.T) {
	tests := []struct {
		from     PolicyStatus
		to       PolicyStatus
		expected bool
	}{
		{PolicyStatusPending, PolicyStatusActive, true},
		{PolicyStatusPending, PolicyStatusCancelled, true},
		{PolicyStatusActive, PolicyStatusExpired, true},
		{PolicyStatusActive, PolicyStatusCancelled, true},
		{PolicyStatusExpired, PolicyStatusActive, true},
		{PolicyStatusExpired, PolicyStatusCancelled, true},

		{PolicyStatusPending, PolicyStatusExpired, false},
		{PolicyStatusActive, PolicyStatusPending, false},
		{PolicyStatusExpired, PolicyStatusPending, false},
		{PolicyStatusCancelled, PolicyStatusActive, false},
		{PolicyStatusCancelled, PolicyStatusPending, false},
		{"nonexistent", PolicyStatusActive, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			result := IsValidPolicyTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidPolicyTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestTerminalPolicyStatuses(t *testing.T) {
	for _, status := range PolicyStatuses {
		want := status == PolicyStatusCancelled
		if status.IsTerminal() != want {
			t.Errorf("PolicyStatus(%q).IsTerminal() = %v, want %v", status, status.IsTerminal(), want)
		}
	}
}

func TestAffiliateAnchorPatients(t *testing.T) {
	owner := uuid.New()
	dep1, dep2 := uuid.New(), uuid.New()

	ownerAnchor := &AffiliateAnchor{AffiliateID: owner, Type: AffiliateOwner, DependentIDs: []uuid.UUID{dep1, dep2}}
	if got := len(ownerAnchor.Patients()); got != 3 {
		t.Fatalf("owner patients = %d, want 3", got)
	}
	if !ownerAnchor.IsPatient(dep2) {
		t.Errorf("owner should have dependent as patient")
	}

	// a dependent only ever sees itself, even if the loader filled DependentIDs
	depAnchor := &AffiliateAnchor{AffiliateID: dep1, Type: AffiliateDependent, DependentIDs: []uuid.UUID{dep2}}
	if got := depAnchor.Patients(); len(got) != 1 || got[0] != dep1 {
		t.Errorf("dependent patients = %v, want only self", got)
	}
	if depAnchor.IsPatient(owner) {
		t.Errorf("dependent must not see its owner")
	}
}

func TestCanOwnDependentsIn(t *testing.T) {
	clientA, clientB := uuid.New(), uuid.New()
	owner := &Affiliate{ID: uuid.New(), ClientID: clientA, Type: AffiliateOwner}
	dependent := &Affiliate{ID: uuid.New(), ClientID: clientA, Type: AffiliateDependent, OwnerID: &owner.ID}

	if !owner.CanOwnDependentsIn(clientA) {
		t.Errorf("owner in same client should be a valid parent")
	}
	if owner.CanOwnDependentsIn(clientB) {
		t.Errorf("owner from another client must not be a valid parent")
	}
	if dependent.CanOwnDependentsIn(clientA) {
		t.Errorf("dependent must never be a valid parent")
	}
	var missing *Affiliate
	if missing.CanOwnDependentsIn(clientA) {
		t.Errorf("nil affiliate must not be a valid parent")
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		claim   ClaimStatus
		policy  PolicyStatus
		claimOK bool
		polOK   bool
	}{
		{"SUBMITTED", ClaimStatusSubmitted, "", true, false},
		{" pending_info ", ClaimStatusPendingInfo, "", true, false},
		{"active", "", PolicyStatusActive, false, true},
		{"cancelled", ClaimStatusCancelled, PolicyStatusCancelled, true, true},
		{"", "", "", false, false},
		{"APPROVED", "", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseClaimStatus(tt.in)
			if (err == nil) != tt.claimOK || c != tt.claim {
				t.Errorf("ParseClaimStatus(%q) = %q, %v", tt.in, c, err)
			}
			p, err := ParsePolicyStatus(tt.in)
			if (err == nil) != tt.polOK || p != tt.policy {
				t.Errorf("ParsePolicyStatus(%q) = %q, %v", tt.in, p, err)
			}
		})
	}
}
