package dto

import (
	"time"

	"github.com/spec-kit/policy-admin/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse wraps a token and user profile.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse is the public account shape.
type UserResponse struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Email           string               `json:"email"`
	Role            domain.Role          `json:"role"`
	Scope           *domain.SupportScope `json:"scope,omitempty"`
	AssignedAgentID *string              `json:"assigned_agent_id,omitempty"`
	AgentID         *string              `json:"agent_id,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// NewUserResponse adapts a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
		Scope:           user.Scope,
		AssignedAgentID: user.AssignedAgentID,
		AgentID:         user.AgentID,
		CreatedAt:       user.CreatedAt,
	}
}
