package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/policy-admin/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestCanAccessAdmins(t *testing.T) {
	owner := strPtr("AG1")
	for _, role := range []domain.Role{domain.RoleSuperAdmin, domain.RoleAdmin} {
		actor := Actor{UserID: "u1", Role: role}
		assert.True(t, CanAccess(actor, owner), "role %s should access any resource", role)
		assert.True(t, CanAccess(actor, nil), "role %s should access unassigned resources", role)
	}
}

func TestCanAccessAgent(t *testing.T) {
	actor := Actor{UserID: "u1", Role: domain.RoleAgent, OwnAgentID: strPtr("AG1")}

	assert.True(t, CanAccess(actor, strPtr("AG1")))
	assert.False(t, CanAccess(actor, strPtr("AG2")))
	assert.False(t, CanAccess(actor, nil), "unassigned resource denies agents")

	noAgentRow := Actor{UserID: "u2", Role: domain.RoleAgent}
	assert.False(t, CanAccess(noAgentRow, strPtr("AG1")), "agent without agent row sees nothing")
}

func TestCanAccessSupportStaff(t *testing.T) {
	global := Actor{UserID: "u1", Role: domain.RoleSupportStaff, Scope: domain.ScopeGlobal}
	assert.True(t, CanAccess(global, strPtr("AG1")))
	assert.True(t, CanAccess(global, nil))

	scoped := Actor{
		UserID:          "u2",
		Role:            domain.RoleSupportStaff,
		Scope:           domain.ScopeAgentSpecific,
		AssignedAgentID: strPtr("AG1"),
	}
	assert.True(t, CanAccess(scoped, strPtr("AG1")))
	assert.False(t, CanAccess(scoped, strPtr("AG2")))
	assert.False(t, CanAccess(scoped, nil), "unassigned resource denies scoped staff")

	unassigned := Actor{UserID: "u3", Role: domain.RoleSupportStaff, Scope: domain.ScopeAgentSpecific}
	assert.False(t, CanAccess(unassigned, strPtr("AG1")), "scoped staff without assignment sees nothing")

	noScope := Actor{UserID: "u4", Role: domain.RoleSupportStaff}
	assert.False(t, CanAccess(noScope, strPtr("AG1")), "staff without scope denied by default")
}

func TestCanAccessClientAndUnknownRoles(t *testing.T) {
	client := Actor{UserID: "u1", Role: domain.RoleClient}
	assert.False(t, CanAccess(client, strPtr("AG1")))
	assert.False(t, CanAccess(client, nil))

	unknown := Actor{UserID: "u2", Role: domain.Role("mystery")}
	assert.False(t, CanAccess(unknown, strPtr("AG1")), "unknown roles are denied")
}

func TestIsSelf(t *testing.T) {
	client := Actor{UserID: "u1", Role: domain.RoleClient}
	assert.True(t, IsSelf(client, "u1"))
	assert.False(t, IsSelf(client, "u2"))

	admin := Actor{UserID: "u1", Role: domain.RoleAdmin}
	assert.False(t, IsSelf(admin, "u1"), "self access is a client-only shortcut")
}

func TestCanChangeStatus(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleAgent, domain.RoleSupportStaff} {
		assert.True(t, CanChangeStatus(Actor{Role: role}), "role %s", role)
	}
	assert.False(t, CanChangeStatus(Actor{Role: domain.RoleClient}))
	assert.False(t, CanChangeStatus(Actor{Role: domain.Role("mystery")}))
}
