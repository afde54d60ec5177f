package rbac

import (
	"fmt"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/google/uuid"
)

// Role is the closed set of actor roles.
type Role string

// Role constants
const (
	RoleSuperadmin       Role = "superadmin"
	RoleAdmin            Role = "admin"
	RoleClaimsEmployee   Role = "claims_employee"
	RolePoliciesEmployee Role = "policies_employee"
	RoleClientAdmin      Role = "client_admin"
	RoleClientAgent      Role = "client_agent"
	RoleAffiliate        Role = "affiliate"
)

// RoleClass groups roles by how their access is scoped.
type RoleClass int

const (
	ClassUnknown RoleClass = iota
	ClassInternal
	ClassClient
	ClassAffiliate
)

var AllRoles = []Role{
	RoleSuperadmin, RoleAdmin, RoleClaimsEmployee, RolePoliciesEmployee,
	RoleClientAdmin, RoleClientAgent,
	RoleAffiliate,
}

// Class maps every role to its scoping class. A role missing here falls into
// ClassUnknown and is denied everything.
func (r Role) Class() RoleClass {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleClaimsEmployee, RolePoliciesEmployee:
		return ClassInternal
	case RoleClientAdmin, RoleClientAgent:
		return ClassClient
	case RoleAffiliate:
		return ClassAffiliate
	default:
		return ClassUnknown
	}
}

func (r Role) IsInternal() bool { return r.Class() == ClassInternal }

// ParseRole converts a stored role name, rejecting anything outside the enum.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if r.Class() == ClassUnknown {
		return "", apperr.Validation("role", fmt.Sprintf("unknown role %q", s))
	}
	return r, nil
}

type Operation string

const (
	OpRead       Operation = "read"
	OpList       Operation = "list"
	OpCreate     Operation = "create"
	OpUpdate     Operation = "update"
	OpDelete     Operation = "delete"
	OpTransition Operation = "transition"
)

type ResourceType string

const (
	ResourceClient    ResourceType = "client"
	ResourceAffiliate ResourceType = "affiliate"
	ResourceClaim     ResourceType = "claim"
	ResourcePolicy    ResourceType = "policy"
)

// Actor is the authenticated principal with its relationship data.
type Actor struct {
	ID        uuid.UUID
	Role      Role
	ClientIDs []uuid.UUID
	Affiliate *models.AffiliateAnchor // affiliate role only
}

func (a *Actor) HasClient(id uuid.UUID) bool {
	for _, c := range a.ClientIDs {
		if c == id {
			return true
		}
	}
	return false
}

// ResourceRef is the ownership chain of the target resource.
//
// For clients ID and ClientID are the client id. For affiliates AffiliateID is
// the affiliate itself. For claims PatientID is the treated person.
// Fields lists the fields an update touches.
type ResourceRef struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	AffiliateID uuid.UUID
	PatientID   uuid.UUID
	Fields      []string
}

func ClientRef(c *models.Client) ResourceRef {
	return ResourceRef{ID: c.ID, ClientID: c.ID}
}

func AffiliateRef(a *models.Affiliate) ResourceRef {
	return ResourceRef{ID: a.ID, ClientID: a.ClientID, AffiliateID: a.ID}
}

func ClaimRef(c *models.Claim) ResourceRef {
	return ResourceRef{ID: c.ID, ClientID: c.ClientID, AffiliateID: c.AffiliateID, PatientID: c.PatientID}
}

func PolicyRef(p *models.Policy) ResourceRef {
	return ResourceRef{ID: p.ID, ClientID: p.ClientID}
}

// Decision is the outcome of an access check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }
