package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/policy-admin/internal/config"
	"github.com/spec-kit/policy-admin/internal/domain"
	"github.com/spec-kit/policy-admin/internal/repository"
)

// NotificationEvent describes a client-scoped event to fan out to staff.
type NotificationEvent struct {
	Type       domain.NotificationType
	ClientID   string
	ClientName string
	ContextID  string
}

// FanoutResult reports fanout outcomes. The caller may log it but has
// nothing to propagate: notifications are advisory and a failed insert never
// fails the triggering operation.
type FanoutResult struct {
	Attempted int
	Failed    int
}

// NotificationFanout resolves the staff audience for a client event and
// writes one notification row per recipient.
type NotificationFanout struct {
	users         repository.UserRepository
	agents        repository.AgentRepository
	notifications repository.NotificationRepository
	adminBaseURL  string
	logger        *zap.Logger
}

// FanoutDependencies bundles repositories for the fanout.
type FanoutDependencies struct {
	UserRepo         repository.UserRepository
	AgentRepo        repository.AgentRepository
	NotificationRepo repository.NotificationRepository
}

// NewNotificationFanout creates the fanout.
func NewNotificationFanout(cfg config.NotificationConfig, deps FanoutDependencies, logger *zap.Logger) *NotificationFanout {
	return &NotificationFanout{
		users:         deps.UserRepo,
		agents:        deps.AgentRepo,
		notifications: deps.NotificationRepo,
		adminBaseURL:  cfg.AdminBaseURL,
		logger:        logger,
	}
}

// Notify fans the event out to every staff user who should see it: the
// client's owning agent, all super admins and admins, global support staff,
// and agent_specific support staff assigned to that agent. Inserts run
// concurrently; individual failures are logged and counted, never returned.
func (f *NotificationFanout) Notify(ctx context.Context, event NotificationEvent) FanoutResult {
	recipients, err := f.resolveRecipients(ctx, event.ClientID)
	if err != nil {
		f.logger.Warn("notification fanout skipped",
			zap.String("client_id", event.ClientID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
		return FanoutResult{}
	}

	title, message, link := f.composeTemplate(event)

	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0
	for _, recipientID := range recipients {
		wg.Add(1)
		go func(recipientID string) {
			defer wg.Done()
			notification := &domain.Notification{
				UserID:  recipientID,
				Type:    event.Type,
				Title:   title,
				Message: message,
				LinkURL: link,
				Metadata: map[string]any{
					"client_id":  event.ClientID,
					"context_id": event.ContextID,
				},
			}
			if err := f.notifications.Create(ctx, notification); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				f.logger.Warn("notification insert failed",
					zap.String("recipient_id", recipientID),
					zap.String("type", string(event.Type)),
					zap.Error(err))
			}
		}(recipientID)
	}
	wg.Wait()

	return FanoutResult{Attempted: len(recipients), Failed: failed}
}

func (f *NotificationFanout) resolveRecipients(ctx context.Context, clientID string) ([]string, error) {
	client, err := f.users.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("resolve client: %w", err)
	}

	seen := make(map[string]struct{})
	var recipients []string
	add := func(userID string) {
		if userID == "" || userID == clientID {
			return
		}
		if _, dup := seen[userID]; dup {
			return
		}
		seen[userID] = struct{}{}
		recipients = append(recipients, userID)
	}

	admins, err := f.users.ListByRoles(ctx, domain.RoleSuperAdmin, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("resolve admins: %w", err)
	}
	for _, admin := range admins {
		add(admin.ID)
	}

	staff, err := f.users.ListSupportStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve support staff: %w", err)
	}
	for _, member := range staff {
		if member.Scope == nil {
			continue
		}
		switch *member.Scope {
		case domain.ScopeGlobal:
			add(member.ID)
		case domain.ScopeAgentSpecific:
			if member.AssignedAgentID != nil && client.AgentID != nil &&
				*member.AssignedAgentID == *client.AgentID {
				add(member.ID)
			}
		}
	}

	if client.AgentID != nil {
		agent, err := f.agents.GetByID(ctx, *client.AgentID)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("resolve agent: %w", err)
			}
		} else {
			add(agent.UserID)
		}
	}

	return recipients, nil
}

func (f *NotificationFanout) composeTemplate(event NotificationEvent) (title, message, link string) {
	clientName := event.ClientName
	if clientName == "" {
		clientName = "A client"
	}
	switch event.Type {
	case domain.NotificationNewApplication:
		title = "New insurance application"
		message = fmt.Sprintf("%s submitted a new insurance application.", clientName)
		link = fmt.Sprintf("%s/applications/%s", f.adminBaseURL, event.ContextID)
	case domain.NotificationDocumentRequested:
		title = "Document requested"
		message = fmt.Sprintf("A document was requested from %s.", clientName)
		link = fmt.Sprintf("%s/document-requests/%s", f.adminBaseURL, event.ContextID)
	case domain.NotificationDocumentUploaded:
		title = "Document uploaded"
		message = fmt.Sprintf("%s uploaded a requested document.", clientName)
		link = fmt.Sprintf("%s/document-requests/%s", f.adminBaseURL, event.ContextID)
	case domain.NotificationTicketNew:
		title = "New support ticket"
		message = fmt.Sprintf("%s opened a support ticket.", clientName)
		link = fmt.Sprintf("%s/support/%s", f.adminBaseURL, event.ContextID)
	case domain.NotificationTicketReply:
		title = "Support ticket reply"
		message = fmt.Sprintf("%s replied to a support ticket.", clientName)
		link = fmt.Sprintf("%s/support/%s", f.adminBaseURL, event.ContextID)
	default:
		title = "Account activity"
		message = fmt.Sprintf("New activity on %s's account.", clientName)
		link = fmt.Sprintf("%s/clients/%s", f.adminBaseURL, event.ClientID)
	}
	return title, message, link
}
