package dto

import "time"

type CreateClaimRequest struct {
	AffiliateID     string  `json:"affiliate_id"`
	PatientID       string  `json:"patient_id"` // пусто: сам застрахованный
	PolicyID        *string `json:"policy_id,omitempty"`
	Description     *string `json:"description,omitempty"`
	AmountSubmitted string  `json:"amount_submitted"` // decimal, e.g. "1250.00"
}

// TransitionRequest moves a claim or policy to Status.
type TransitionRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type CreatePolicyRequest struct {
	ClientID     string     `json:"client_id"`
	InsurerID    string     `json:"insurer_id"`
	PolicyNumber string     `json:"policy_number"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
}

type UpdateClientRequest struct {
	Name         *string `json:"name,omitempty"`
	TaxID        *string `json:"tax_id,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

type CreateDependentRequest struct {
	OwnerID    string  `json:"owner_id"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	DocumentID *string `json:"document_id,omitempty"`
}
