package rbac

import (
	"fmt"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resolver is the single place that decides what an actor may see or change.
// Rules by role class, in precedence order:
//
//   - internal roles see and change everything; only superadmin deletes
//   - client roles are confined to clients they hold a relationship with
//   - affiliates are confined to themselves and, for owners, their dependents
//
// Claim and policy transitions are reserved to internal roles.
type Resolver struct {
	log *zap.Logger
}

func NewResolver(log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{log: log}
}

// CanAccess decides whether actor may perform op on the resource described by ref.
// For OpList only the container (ref.ClientID, when set) is checked; rows are
// filtered with the Scope returned by ScopeFor.
func (r *Resolver) CanAccess(actor *Actor, rt ResourceType, ref ResourceRef, op Operation) Decision {
	d, err := r.decide(actor, rt, ref, op)
	if err != nil {
		return deny(err.Error())
	}
	return d
}

// Authorize is CanAccess as an error: nil when allowed, *apperr.ForbiddenError
// when denied, *apperr.ValidationError when the actor record is incomplete.
func (r *Resolver) Authorize(actor *Actor, rt ResourceType, ref ResourceRef, op Operation) error {
	d, err := r.decide(actor, rt, ref, op)
	if err != nil {
		return err
	}
	if d.Allowed {
		return nil
	}

	var actorID uuid.UUID
	if actor != nil {
		actorID = actor.ID
	}
	r.log.Debug("access denied",
		zap.String("actor_id", actorID.String()),
		zap.String("resource", string(rt)),
		zap.String("resource_id", ref.ID.String()),
		zap.String("operation", string(op)),
		zap.String("reason", d.Reason),
	)
	return apperr.Forbidden(actorID, string(rt), string(op), d.Reason)
}

func (r *Resolver) decide(actor *Actor, rt ResourceType, ref ResourceRef, op Operation) (Decision, error) {
	if actor == nil {
		return deny("unauthenticated"), nil
	}

	switch actor.Role.Class() {
	case ClassInternal:
		return decideInternal(actor, op), nil
	case ClassClient:
		return decideClient(actor, rt, ref, op), nil
	case ClassAffiliate:
		if actor.Affiliate == nil {
			return Decision{}, apperr.Validation("affiliate", fmt.Sprintf("actor %s has affiliate role but no affiliate record", actor.ID))
		}
		return decideAffiliate(actor.Affiliate, rt, ref, op), nil
	default:
		return deny(fmt.Sprintf("unknown role %q", actor.Role)), nil
	}
}

func decideInternal(actor *Actor, op Operation) Decision {
	if op == OpDelete && actor.Role != RoleSuperadmin {
		return deny("only superadmin may delete")
	}
	return allow()
}

func decideClient(actor *Actor, rt ResourceType, ref ResourceRef, op Operation) Decision {
	switch op {
	case OpDelete:
		return deny("only superadmin may delete")
	case OpTransition:
		return deny("status transitions are reserved to internal staff")
	}
	if rt == ResourceClient && op == OpCreate {
		return deny("clients are created by internal staff")
	}

	if op == OpList && ref.ClientID == uuid.Nil {
		return allow()
	}
	if !actor.HasClient(ref.ClientID) {
		return deny("client is outside the actor's relationships")
	}

	if rt == ResourceClient && op == OpUpdate {
		if actor.Role != RoleClientAdmin {
			return deny("only client admins may edit the client")
		}
		if containsField(ref.Fields, models.ClientFieldIsActive) {
			return deny("is_active may only be changed by internal staff")
		}
	}
	return allow()
}

func decideAffiliate(anchor *models.AffiliateAnchor, rt ResourceType, ref ResourceRef, op Operation) Decision {
	switch op {
	case OpDelete:
		return deny("only superadmin may delete")
	case OpTransition:
		return deny("status transitions are reserved to internal staff")
	}

	// list containers are checked against the family's client only
	if op == OpList {
		if rt == ResourcePolicy {
			return deny("affiliates have no policy access")
		}
		if ref.ClientID != uuid.Nil && ref.ClientID != anchor.ClientID {
			return deny("client is outside the affiliate's family")
		}
		return allow()
	}

	switch rt {
	case ResourcePolicy:
		return deny("affiliates have no policy access")

	case ResourceClient:
		if op != OpRead {
			return deny("affiliates may only read their client")
		}
		if ref.ClientID != anchor.ClientID {
			return deny("client is outside the affiliate's family")
		}
		return allow()

	case ResourceAffiliate:
		if op != OpRead && op != OpUpdate {
			return deny("affiliates may only read or update family records")
		}
		if !anchor.IsPatient(ref.AffiliateID) {
			return deny("affiliate is outside the actor's family")
		}
		return allow()

	case ResourceClaim:
		if op != OpRead && op != OpCreate && op != OpUpdate {
			return deny(fmt.Sprintf("operation %s not allowed for affiliates", op))
		}
		if ref.ClientID != uuid.Nil && ref.ClientID != anchor.ClientID {
			return deny("client is outside the affiliate's family")
		}
		if !anchor.IsPatient(ref.PatientID) {
			return deny("claim patient is outside the actor's family")
		}
		return allow()

	default:
		return deny(fmt.Sprintf("unknown resource %q", rt))
	}
}

// ValidOwner checks that owner may receive a dependent in clientID: it must be
// an OWNER of that same client. Dependents never own dependents.
func ValidOwner(owner *models.Affiliate, clientID uuid.UUID) error {
	if owner == nil {
		return apperr.Validation("owner_id", "owner not found")
	}
	if owner.Type != models.AffiliateOwner {
		return apperr.Validation("owner_id", "dependents cannot own dependents")
	}
	if owner.ClientID != clientID {
		return apperr.Validation("owner_id", "owner belongs to another client")
	}
	return nil
}

// FilterOwners keeps the affiliates that are valid dependent owners in clientID.
func FilterOwners(affiliates []models.Affiliate, clientID uuid.UUID) []models.Affiliate {
	out := make([]models.Affiliate, 0, len(affiliates))
	for i := range affiliates {
		if affiliates[i].CanOwnDependentsIn(clientID) {
			out = append(out, affiliates[i])
		}
	}
	return out
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
