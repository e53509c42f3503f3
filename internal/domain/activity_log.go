package domain

import "time"

// ActivityLog is an immutable audit trail entry for admin actions.
type ActivityLog struct {
	ID         string
	ActorID    string
	EntityType string
	EntityID   string
	Action     string
	OldValue   map[string]any
	NewValue   map[string]any
	Reason     *string
	CreatedAt  time.Time
}
