package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/policy-admin/internal/config"
	"github.com/spec-kit/policy-admin/internal/domain"
)

type fanoutFixture struct {
	fanout        *NotificationFanout
	users         *mockUserRepo
	agents        *mockAgentRepo
	notifications *mockNotificationRepo
}

func scopePtr(s domain.SupportScope) *domain.SupportScope { return &s }

func newFanoutFixture() *fanoutFixture {
	users := newMockUserRepo()
	agents := newMockAgentRepo()
	notifications := newMockNotificationRepo()

	users.users["client-1"] = &domain.User{ID: "client-1", Name: "Jane Doe", Role: domain.RoleClient, AgentID: strPtr("AG1"), Active: true}
	agents.agents["AG1"] = &domain.Agent{ID: "AG1", UserID: "agent-user-1", Name: "Agent One", Active: true}

	users.admins = []domain.User{
		{ID: "admin-1", Role: domain.RoleAdmin},
		{ID: "super-1", Role: domain.RoleSuperAdmin},
	}
	users.staff = []domain.User{
		{ID: "staff-global-1", Role: domain.RoleSupportStaff, Scope: scopePtr(domain.ScopeGlobal)},
		{ID: "staff-global-2", Role: domain.RoleSupportStaff, Scope: scopePtr(domain.ScopeGlobal)},
		{ID: "staff-ag1", Role: domain.RoleSupportStaff, Scope: scopePtr(domain.ScopeAgentSpecific), AssignedAgentID: strPtr("AG1")},
		{ID: "staff-ag2", Role: domain.RoleSupportStaff, Scope: scopePtr(domain.ScopeAgentSpecific), AssignedAgentID: strPtr("AG2")},
		{ID: "staff-noscope", Role: domain.RoleSupportStaff},
	}

	fanout := NewNotificationFanout(config.NotificationConfig{AdminBaseURL: "https://admin.example.com"},
		FanoutDependencies{UserRepo: users, AgentRepo: agents, NotificationRepo: notifications},
		zap.NewNop())
	return &fanoutFixture{fanout: fanout, users: users, agents: agents, notifications: notifications}
}

func TestNotifyResolvesExactAudience(t *testing.T) {
	f := newFanoutFixture()

	result := f.fanout.Notify(context.Background(), NotificationEvent{
		Type:       domain.NotificationNewApplication,
		ClientID:   "client-1",
		ClientName: "Jane Doe",
		ContextID:  "app-42",
	})

	assert.Equal(t, 6, result.Attempted)
	assert.Equal(t, 0, result.Failed)

	recipients := f.notifications.recipients()
	assert.ElementsMatch(t, []string{
		"admin-1", "super-1",
		"staff-global-1", "staff-global-2",
		"staff-ag1",
		"agent-user-1",
	}, recipients)
	assert.NotContains(t, recipients, "staff-ag2", "staff scoped to another agent stays out")
	assert.NotContains(t, recipients, "staff-noscope", "staff without a scope stays out")
	assert.NotContains(t, recipients, "client-1", "the client never notifies themselves")
}

func TestNotifyComposesLinksAndMetadata(t *testing.T) {
	f := newFanoutFixture()

	f.fanout.Notify(context.Background(), NotificationEvent{
		Type:       domain.NotificationNewApplication,
		ClientID:   "client-1",
		ClientName: "Jane Doe",
		ContextID:  "app-42",
	})

	require.NotEmpty(t, f.notifications.created)
	first := f.notifications.created[0]
	assert.Equal(t, domain.NotificationNewApplication, first.Type)
	assert.Equal(t, "New insurance application", first.Title)
	assert.Contains(t, first.Message, "Jane Doe")
	assert.Equal(t, "https://admin.example.com/applications/app-42", first.LinkURL)
	assert.Equal(t, "client-1", first.Metadata["client_id"])
	assert.Equal(t, "app-42", first.Metadata["context_id"])
}

func TestNotifyClientWithoutAgent(t *testing.T) {
	f := newFanoutFixture()
	f.users.users["client-2"] = &domain.User{ID: "client-2", Role: domain.RoleClient, Active: true}

	result := f.fanout.Notify(context.Background(), NotificationEvent{
		Type:     domain.NotificationDocumentUploaded,
		ClientID: "client-2",
	})

	assert.Equal(t, 4, result.Attempted, "admins and global staff only")
	recipients := f.notifications.recipients()
	assert.NotContains(t, recipients, "agent-user-1")
	assert.NotContains(t, recipients, "staff-ag1")
}

func TestNotifyCountsFailuresWithoutPropagating(t *testing.T) {
	f := newFanoutFixture()
	f.notifications.failFor["admin-1"] = true
	f.notifications.failFor["staff-global-2"] = true

	result := f.fanout.Notify(context.Background(), NotificationEvent{
		Type:     domain.NotificationDocumentRequested,
		ClientID: "client-1",
	})

	assert.Equal(t, 6, result.Attempted)
	assert.Equal(t, 2, result.Failed)
	assert.Len(t, f.notifications.created, 4, "remaining inserts still land")
}

func TestNotifyUnknownClientSkipsQuietly(t *testing.T) {
	f := newFanoutFixture()

	result := f.fanout.Notify(context.Background(), NotificationEvent{
		Type:     domain.NotificationNewApplication,
		ClientID: "missing",
	})

	assert.Equal(t, FanoutResult{}, result)
	assert.Empty(t, f.notifications.created)
}

func TestNotifyDeduplicatesRecipients(t *testing.T) {
	f := newFanoutFixture()
	// The owning agent also appears in the admin list; they must get one row.
	f.users.admins = append(f.users.admins, domain.User{ID: "agent-user-1", Role: domain.RoleAdmin})

	result := f.fanout.Notify(context.Background(), NotificationEvent{
		Type:     domain.NotificationNewApplication,
		ClientID: "client-1",
	})

	assert.Equal(t, 6, result.Attempted)
	count := 0
	for _, id := range f.notifications.recipients() {
		if id == "agent-user-1" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
