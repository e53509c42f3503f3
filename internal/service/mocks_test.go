package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/policy-admin/internal/carrier"
	"github.com/spec-kit/policy-admin/internal/domain"
	"github.com/spec-kit/policy-admin/internal/events"
	"github.com/spec-kit/policy-admin/internal/repository"
)

type mockApplicationRepo struct {
	apps          map[string]*domain.Application
	statusUpdates []repository.StatusUpdate
	updateErr     error
	submissions   []domain.SubmissionResult
}

func newMockApplicationRepo() *mockApplicationRepo {
	return &mockApplicationRepo{apps: make(map[string]*domain.Application)}
}

func (m *mockApplicationRepo) Create(ctx context.Context, app *domain.Application) error {
	if app.ID == "" {
		app.ID = fmt.Sprintf("app-%d", len(m.apps)+1)
	}
	m.apps[app.ID] = app
	return nil
}

func (m *mockApplicationRepo) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	app, ok := m.apps[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *app
	return &copied, nil
}

func (m *mockApplicationRepo) ListWithFilter(ctx context.Context, filter repository.ApplicationFilter) ([]domain.Application, error) {
	var result []domain.Application
	for _, app := range m.apps {
		if filter.UserID != nil && app.UserID != *filter.UserID {
			continue
		}
		if filter.AgentID != nil && (app.AgentID == nil || *app.AgentID != *filter.AgentID) {
			continue
		}
		result = append(result, *app)
	}
	return result, nil
}

func (m *mockApplicationRepo) UpdateStatus(ctx context.Context, update repository.StatusUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	app, ok := m.apps[update.ApplicationID]
	if !ok {
		return pgx.ErrNoRows
	}
	if app.Status != update.OldStatus {
		return repository.ErrStatusMoved
	}
	app.Status = update.NewStatus
	m.statusUpdates = append(m.statusUpdates, update)
	return nil
}

func (m *mockApplicationRepo) AddSubmissionResult(ctx context.Context, result *domain.SubmissionResult) error {
	if result.ID == "" {
		result.ID = fmt.Sprintf("sub-%d", len(m.submissions)+1)
	}
	m.submissions = append(m.submissions, *result)
	return nil
}

type mockUserRepo struct {
	users  map[string]*domain.User
	admins []domain.User
	staff  []domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*domain.User)}
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) ListByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error) {
	return m.admins, nil
}

func (m *mockUserRepo) ListSupportStaff(ctx context.Context) ([]domain.User, error) {
	return m.staff, nil
}

func (m *mockUserRepo) UpdateAgentAssignment(ctx context.Context, userID string, agentID *string) error {
	user, ok := m.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.AgentID = agentID
	return nil
}

type mockAgentRepo struct {
	agents map[string]*domain.Agent
}

func newMockAgentRepo() *mockAgentRepo {
	return &mockAgentRepo{agents: make(map[string]*domain.Agent)}
}

func (m *mockAgentRepo) Create(ctx context.Context, agent *domain.Agent) error {
	m.agents[agent.ID] = agent
	return nil
}

func (m *mockAgentRepo) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	agent, ok := m.agents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return agent, nil
}

func (m *mockAgentRepo) GetByUserID(ctx context.Context, userID string) (*domain.Agent, error) {
	for _, agent := range m.agents {
		if agent.UserID == userID {
			return agent, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockAgentRepo) List(ctx context.Context, limit, offset int) ([]domain.Agent, error) {
	var result []domain.Agent
	for _, agent := range m.agents {
		result = append(result, *agent)
	}
	return result, nil
}

type mockNotificationRepo struct {
	mu      sync.Mutex
	created []domain.Notification
	failFor map[string]bool
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{failFor: make(map[string]bool)}
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[n.UserID] {
		return fmt.Errorf("insert failed for %s", n.UserID)
	}
	n.ID = fmt.Sprintf("notif-%d", len(m.created)+1)
	m.created = append(m.created, *n)
	return nil
}

func (m *mockNotificationRepo) ListByRecipient(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Notification
	for _, n := range m.created {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	return nil
}

func (m *mockNotificationRepo) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.created))
	for _, n := range m.created {
		ids = append(ids, n.UserID)
	}
	return ids
}

type mockEnrollmentSubmitter struct {
	lastEnrollment carrier.Enrollment
	response       *carrier.EnrollmentResponse
	err            error
}

func (m *mockEnrollmentSubmitter) Submit(ctx context.Context, enrollment carrier.Enrollment) (*carrier.EnrollmentResponse, error) {
	m.lastEnrollment = enrollment
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

type mockPlanRater struct {
	lastRequest carrier.RateRequest
	quotes      []carrier.Quote
	err         error
}

func (m *mockPlanRater) Rate(ctx context.Context, req carrier.RateRequest) ([]carrier.Quote, error) {
	m.lastRequest = req
	if m.err != nil {
		return nil, m.err
	}
	return m.quotes, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) eventTypes() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	types := make([]events.EventType, 0, len(d.events))
	for _, event := range d.events {
		types = append(types, event.Type)
	}
	return types
}
