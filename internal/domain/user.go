package domain

import "time"

// Role enumerates platform roles. Logic must switch over these constants,
// never over raw strings.
type Role string

const (
	RoleSuperAdmin   Role = "super_admin"
	RoleAdmin        Role = "admin"
	RoleAgent        Role = "agent"
	RoleSupportStaff Role = "support_staff"
	RoleClient       Role = "client"
)

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleAgent, RoleSupportStaff, RoleClient:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to internal staff.
func (r Role) IsStaff() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleAgent, RoleSupportStaff:
		return true
	}
	return false
}

// SupportScope narrows support_staff visibility.
type SupportScope string

const (
	ScopeGlobal        SupportScope = "global"
	ScopeAgentSpecific SupportScope = "agent_specific"
)

// User is the canonical account record. Scope and AssignedAgentID are
// meaningful only for support_staff; AgentID only for clients (their owning
// agent). An agent_specific support_staff row must carry AssignedAgentID.
type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	Role            Role
	Scope           *SupportScope
	AssignedAgentID *string
	AgentID         *string
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
