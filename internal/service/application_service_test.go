package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/policy-admin/internal/access"
	"github.com/spec-kit/policy-admin/internal/carrier"
	"github.com/spec-kit/policy-admin/internal/domain"
	"github.com/spec-kit/policy-admin/internal/events"
	"github.com/spec-kit/policy-admin/internal/repository"
	errorutil "github.com/spec-kit/policy-admin/pkg/util/errorutil"
)

func strPtr(s string) *string { return &s }

type applicationFixture struct {
	svc        *ApplicationService
	apps       *mockApplicationRepo
	users      *mockUserRepo
	enrollment *mockEnrollmentSubmitter
	rater      *mockPlanRater
	dispatcher *recordingDispatcher
}

func newApplicationFixture() *applicationFixture {
	apps := newMockApplicationRepo()
	users := newMockUserRepo()
	enrollment := &mockEnrollmentSubmitter{
		response: &carrier.EnrollmentResponse{PolicyNumber: "POL-77", Status: "accepted", Raw: []byte(`{"policyNumber":"POL-77"}`)},
	}
	rater := &mockPlanRater{
		quotes: []carrier.Quote{{PlanKey: "PLAN-A", ProductCode: "PC1", Premium: 101.25}},
	}
	dispatcher := &recordingDispatcher{}

	svc := NewApplicationService(ApplicationDependencies{
		ApplicationRepo: apps,
		UserRepo:        users,
		Enrollment:      enrollment,
		Rater:           rater,
		Dispatcher:      dispatcher,
		Logger:          zap.NewNop(),
	})
	return &applicationFixture{svc: svc, apps: apps, users: users, enrollment: enrollment, rater: rater, dispatcher: dispatcher}
}

func (f *applicationFixture) seedApplication(status domain.ApplicationStatus, agentID *string) *domain.Application {
	app := &domain.Application{
		ID:          "app-1",
		UserID:      "client-1",
		AgentID:     agentID,
		CarrierName: "Acme Mutual",
		Status:      status,
		Applicants: []domain.Applicant{{
			FirstName:    "Jane",
			LastName:     "Doe",
			Relationship: "self",
			BirthDate:    time.Date(1985, 6, 1, 0, 0, 0, 0, time.UTC),
		}},
		Coverages: []domain.Coverage{{PlanKey: "PLAN-A", ProductCode: "PC1", Premium: 99}},
	}
	f.apps.apps[app.ID] = app
	return app
}

func scopedStaff(agentID string) access.Actor {
	return access.Actor{
		UserID:          "staff-1",
		Role:            domain.RoleSupportStaff,
		Scope:           domain.ScopeAgentSpecific,
		AssignedAgentID: strPtr(agentID),
	}
}

func TestChangeStatusScopedStaffAllowedTransition(t *testing.T) {
	f := newApplicationFixture()
	f.seedApplication(domain.StatusSubmitted, strPtr("AG1"))

	app, err := f.svc.ChangeStatus(context.Background(), scopedStaff("AG1"), "app-1", domain.StatusPendingApproval, "docs verified")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, app.Status)
	assert.Equal(t, "staff-1", *app.StatusChangedBy)

	require.Len(t, f.apps.statusUpdates, 1)
	update := f.apps.statusUpdates[0]
	assert.Equal(t, domain.StatusSubmitted, update.OldStatus)
	assert.Equal(t, domain.StatusPendingApproval, update.NewStatus)
	assert.Equal(t, "staff-1", update.ChangedBy)
	require.NotNil(t, update.Reason)
	assert.Equal(t, "docs verified", *update.Reason)

	assert.Contains(t, f.dispatcher.eventTypes(), events.EventApplicationStatusChanged)
}

func TestChangeStatusRejectsSkippedState(t *testing.T) {
	f := newApplicationFixture()
	f.seedApplication(domain.StatusSubmitted, strPtr("AG1"))

	_, err := f.svc.ChangeStatus(context.Background(), scopedStaff("AG1"), "app-1", domain.StatusActive, "")
	require.Error(t, err)

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "STATE_CONFLICT", domainErr.Code)
	assert.Contains(t, domainErr.Message, "cannot move application from submitted to active")
	assert.Empty(t, f.apps.statusUpdates, "no write on a rejected transition")
}

func TestChangeStatusDeniesClients(t *testing.T) {
	f := newApplicationFixture()
	f.seedApplication(domain.StatusDraft, strPtr("AG1"))

	client := access.Actor{UserID: "client-1", Role: domain.RoleClient}
	_, err := f.svc.ChangeStatus(context.Background(), client, "app-1", domain.StatusSubmitted, "")
	require.Error(t, err)

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
}

func TestChangeStatusDeniesOtherAgentsPortfolio(t *testing.T) {
	f := newApplicationFixture()
	f.seedApplication(domain.StatusSubmitted, strPtr("AG1"))

	otherAgent := access.Actor{UserID: "agent-2", Role: domain.RoleAgent, OwnAgentID: strPtr("AG2")}
	_, err := f.svc.ChangeStatus(context.Background(), otherAgent, "app-1", domain.StatusPendingApproval, "")
	require.Error(t, err)

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)

	_, err = f.svc.ChangeStatus(context.Background(), scopedStaff("AG2"), "app-1", domain.StatusPendingApproval, "")
	require.Error(t, err)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
}

func TestChangeStatusConcurrentMove(t *testing.T) {
	f := newApplicationFixture()
	f.seedApplication(domain.StatusSubmitted, strPtr("AG1"))
	f.apps.updateErr = repository.ErrStatusMoved

	_, err := f.svc.ChangeStatus(context.Background(), scopedStaff("AG1"), "app-1", domain.StatusPendingApproval, "")
	require.Error(t, err)

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "STATE_CONFLICT", domainErr.Code)
	assert.Contains(t, domainErr.Message, "changed concurrently")
}

func TestChangeStatusUnknownApplication(t *testing.T) {
	f := newApplicationFixture()

	_, err := f.svc.ChangeStatus(context.Background(), scopedStaff("AG1"), "missing", domain.StatusSubmitted, "")
	require.Error(t, err)

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestCancelRequiresReason(t *testing.T) {
	f := newApplicationFixture()
	f.seedApplication(domain.StatusSubmitted, strPtr("AG1"))

	_, err := f.svc.Cancel(context.Background(), scopedStaff("AG1"), "app-1", "   ")
	require.Error(t, err)

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestCancelGuardsTerminalStates(t *testing.T) {
	for _, status := range []domain.ApplicationStatus{domain.StatusActive, domain.StatusRejected, domain.StatusCancelled} {
		f := newApplicationFixture()
		f.seedApplication(status, strPtr("AG1"))

		_, err := f.svc.Cancel(context.Background(), scopedStaff("AG1"), "app-1", "client withdrew")
		require.Error(t, err, "status %s", status)

		var domainErr *errorutil.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "STATE_CONFLICT", domainErr.Code)
		assert.Contains(t, domainErr.Message, "cannot cancel an application in state "+string(status))
	}
}

func TestCancelWritesStatusAndAudit(t *testing.T) {
	f := newApplicationFixture()
	f.seedApplication(domain.StatusApproved, strPtr("AG1"))

	app, err := f.svc.Cancel(context.Background(), scopedStaff("AG1"), "app-1", "client withdrew")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, app.Status)

	require.Len(t, f.apps.statusUpdates, 1)
	require.NotNil(t, f.apps.statusUpdates[0].Reason)
	assert.Equal(t, "client withdrew", *f.apps.statusUpdates[0].Reason)
}

func TestListScopesByRole(t *testing.T) {
	f := newApplicationFixture()
	f.apps.apps["app-1"] = &domain.Application{ID: "app-1", UserID: "client-1", AgentID: strPtr("AG1"), Status: domain.StatusDraft}
	f.apps.apps["app-2"] = &domain.Application{ID: "app-2", UserID: "client-2", AgentID: strPtr("AG2"), Status: domain.StatusDraft}
	f.apps.apps["app-3"] = &domain.Application{ID: "app-3", UserID: "client-3", Status: domain.StatusDraft}

	admin := access.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	apps, err := f.svc.List(context.Background(), admin, nil, 20, 0)
	require.NoError(t, err)
	assert.Len(t, apps, 3)

	agent := access.Actor{UserID: "agent-1", Role: domain.RoleAgent, OwnAgentID: strPtr("AG1")}
	apps, err = f.svc.List(context.Background(), agent, nil, 20, 0)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "app-1", apps[0].ID)

	agentWithoutRow := access.Actor{UserID: "agent-x", Role: domain.RoleAgent}
	apps, err = f.svc.List(context.Background(), agentWithoutRow, nil, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, apps)

	client := access.Actor{UserID: "client-2", Role: domain.RoleClient}
	apps, err = f.svc.List(context.Background(), client, nil, 20, 0)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "app-2", apps[0].ID)

	unassignedStaff := access.Actor{UserID: "staff-x", Role: domain.RoleSupportStaff, Scope: domain.ScopeAgentSpecific}
	apps, err = f.svc.List(context.Background(), unassignedStaff, nil, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestSubmitToCarrierHappyPath(t *testing.T) {
	f := newApplicationFixture()
	f.seedApplication(domain.StatusApproved, strPtr("AG1"))

	input := SubmitInput{
		Address: carrier.Address{Line1: "123 Main St", City: "Austin", State: "TX", Zip: "78701"},
		Payment: carrier.Payment{Method: carrier.PaymentBank, Bank: &carrier.BankPayment{RoutingNumber: "111000025"}},
	}
	admin := access.Actor{UserID: "admin-1", Role: domain.RoleAdmin}

	app, err := f.svc.SubmitToCarrier(context.Background(), admin, "app-1", input)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, app.Status)

	require.Len(t, f.apps.submissions, 1)
	require.NotNil(t, f.apps.submissions[0].PolicyNumber)
	assert.Equal(t, "POL-77", *f.apps.submissions[0].PolicyNumber)

	require.Len(t, f.enrollment.lastEnrollment.Plans, 1)
	assert.Equal(t, 101.25, f.enrollment.lastEnrollment.Plans[0].Premium, "re-rated premium replaces the stored one")
	assert.Equal(t, "primary-001", f.enrollment.lastEnrollment.Primary.MemberID)

	require.Len(t, f.apps.statusUpdates, 1)
	require.NotNil(t, f.apps.statusUpdates[0].Reason)
	assert.Equal(t, "carrier_submission", *f.apps.statusUpdates[0].Reason)

	types := f.dispatcher.eventTypes()
	assert.Contains(t, types, events.EventApplicationStatusChanged)
	assert.Contains(t, types, events.EventApplicationSubmitted)
}

func TestSubmitToCarrierRequiresApprovedStatus(t *testing.T) {
	f := newApplicationFixture()
	f.seedApplication(domain.StatusSubmitted, strPtr("AG1"))

	admin := access.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	_, err := f.svc.SubmitToCarrier(context.Background(), admin, "app-1", SubmitInput{
		Payment: carrier.Payment{Method: carrier.PaymentBank, Bank: &carrier.BankPayment{}},
	})
	require.Error(t, err)

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "STATE_CONFLICT", domainErr.Code)
	assert.Contains(t, domainErr.Message, "only approved applications")
}

func TestSubmitToCarrierPropagatesUpstreamError(t *testing.T) {
	f := newApplicationFixture()
	f.seedApplication(domain.StatusApproved, strPtr("AG1"))
	f.enrollment.err = errorutil.NewUpstreamError("carrier returned 422: ENR-9: missing signature", 422)

	admin := access.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	_, err := f.svc.SubmitToCarrier(context.Background(), admin, "app-1", SubmitInput{
		Payment: carrier.Payment{Method: carrier.PaymentBank, Bank: &carrier.BankPayment{}},
	})
	require.Error(t, err)

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UPSTREAM_ERROR", domainErr.Code)
	assert.Empty(t, f.apps.submissions, "no submission record on failure")
	assert.Empty(t, f.apps.statusUpdates, "application stays approved on failure")
}

func TestCreateDraftsApplicationAndPublishesEvent(t *testing.T) {
	f := newApplicationFixture()
	f.users.users["client-1"] = &domain.User{ID: "client-1", Role: domain.RoleClient, AgentID: strPtr("AG1"), Active: true}

	client := access.Actor{UserID: "client-1", Role: domain.RoleClient}
	app, err := f.svc.Create(context.Background(), client, ApplicationCreateInput{
		UserID:      "client-1",
		CarrierName: "Acme Mutual",
		Applicants:  []domain.Applicant{{FirstName: "Jane", LastName: "Doe", Relationship: "self"}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, app.Status)
	require.NotNil(t, app.AgentID)
	assert.Equal(t, "AG1", *app.AgentID, "owning agent inherited from the client row")
	assert.Contains(t, f.dispatcher.eventTypes(), events.EventApplicationCreated)
}
