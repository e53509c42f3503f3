package access

import "github.com/spec-kit/policy-admin/internal/domain"

// Actor is the resolved caller identity used for every policy decision.
// It is always built from the canonical users row; token claims are only a
// hint and never feed directly into a decision.
type Actor struct {
	UserID          string
	Role            domain.Role
	Scope           domain.SupportScope
	AssignedAgentID *string
	OwnAgentID      *string
}

// CanAccess decides whether the actor may read or write a resource owned by
// the given agent. Pure; first match wins. A nil owner denies agents and
// scoped support staff (deny by default for unassigned resources).
func CanAccess(actor Actor, resourceOwnerAgentID *string) bool {
	switch actor.Role {
	case domain.RoleSuperAdmin, domain.RoleAdmin:
		return true
	case domain.RoleAgent:
		if actor.OwnAgentID == nil || resourceOwnerAgentID == nil {
			return false
		}
		return *actor.OwnAgentID == *resourceOwnerAgentID
	case domain.RoleSupportStaff:
		switch actor.Scope {
		case domain.ScopeGlobal:
			return true
		case domain.ScopeAgentSpecific:
			if actor.AssignedAgentID == nil || resourceOwnerAgentID == nil {
				return false
			}
			return *actor.AssignedAgentID == *resourceOwnerAgentID
		}
		return false
	default:
		return false
	}
}

// IsSelf reports whether a client actor owns the record. Client visibility is
// identity equality on the user id, not agent linkage.
func IsSelf(actor Actor, ownerUserID string) bool {
	return actor.Role == domain.RoleClient && actor.UserID == ownerUserID
}

// CanChangeStatus reports whether the role may mutate application status at
// all. Clients never can, regardless of ownership.
func CanChangeStatus(actor Actor) bool {
	switch actor.Role {
	case domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleAgent, domain.RoleSupportStaff:
		return true
	default:
		return false
	}
}
