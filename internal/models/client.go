package models

import (
	"time"

	"github.com/google/uuid"
)

type Client struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	TaxID        *string   `json:"tax_id,omitempty"`
	ContactEmail *string   `json:"contact_email,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Client fields that may be patched. is_active is reserved to internal staff.
const (
	ClientFieldName         = "name"
	ClientFieldTaxID        = "tax_id"
	ClientFieldContactEmail = "contact_email"
	ClientFieldIsActive     = "is_active"
)

// ClientPatch carries the mutable client fields; nil means unchanged.
type ClientPatch struct {
	Name         *string
	TaxID        *string
	ContactEmail *string
	IsActive     *bool
}

// Fields lists the field names the patch touches.
func (p ClientPatch) Fields() []string {
	var fields []string
	if p.Name != nil {
		fields = append(fields, ClientFieldName)
	}
	if p.TaxID != nil {
		fields = append(fields, ClientFieldTaxID)
	}
	if p.ContactEmail != nil {
		fields = append(fields, ClientFieldContactEmail)
	}
	if p.IsActive != nil {
		fields = append(fields, ClientFieldIsActive)
	}
	return fields
}

func (p ClientPatch) Apply(c *Client) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.TaxID != nil {
		c.TaxID = p.TaxID
	}
	if p.ContactEmail != nil {
		c.ContactEmail = p.ContactEmail
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
}
