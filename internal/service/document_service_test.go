package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/policy-admin/internal/access"
	"github.com/spec-kit/policy-admin/internal/domain"
	"github.com/spec-kit/policy-admin/internal/events"
	"github.com/spec-kit/policy-admin/internal/repository"
	errorutil "github.com/spec-kit/policy-admin/pkg/util/errorutil"
)

type mockDocumentRepo struct {
	requests  map[string]*domain.DocumentRequest
	documents map[string]*domain.Document
}

func newMockDocumentRepo() *mockDocumentRepo {
	return &mockDocumentRepo{
		requests:  make(map[string]*domain.DocumentRequest),
		documents: make(map[string]*domain.Document),
	}
}

func (m *mockDocumentRepo) CreateRequest(ctx context.Context, req *domain.DocumentRequest) error {
	if req.ID == "" {
		req.ID = fmt.Sprintf("req-%d", len(m.requests)+1)
	}
	m.requests[req.ID] = req
	return nil
}

func (m *mockDocumentRepo) GetRequestByID(ctx context.Context, id string) (*domain.DocumentRequest, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *req
	return &copied, nil
}

func (m *mockDocumentRepo) ListRequests(ctx context.Context, filter repository.DocumentRequestFilter) ([]domain.DocumentRequest, error) {
	var result []domain.DocumentRequest
	for _, req := range m.requests {
		if filter.ClientID != nil && req.ClientID != *filter.ClientID {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		result = append(result, *req)
	}
	return result, nil
}

func (m *mockDocumentRepo) FulfillRequest(ctx context.Context, requestID, documentID string) error {
	req, ok := m.requests[requestID]
	if !ok || req.Status != domain.DocumentRequestPending {
		return pgx.ErrNoRows
	}
	req.Status = domain.DocumentRequestFulfilled
	req.DocumentID = &documentID
	return nil
}

func (m *mockDocumentRepo) CreateDocument(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		doc.ID = fmt.Sprintf("doc-%d", len(m.documents)+1)
	}
	m.documents[doc.ID] = doc
	return nil
}

func (m *mockDocumentRepo) GetDocumentByID(ctx context.Context, id string) (*domain.Document, error) {
	doc, ok := m.documents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return doc, nil
}

type mockActivityRepo struct {
	entries []domain.ActivityLog
}

func (m *mockActivityRepo) Create(ctx context.Context, entry *domain.ActivityLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockActivityRepo) ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]domain.ActivityLog, error) {
	return m.entries, nil
}

type documentFixture struct {
	svc        *DocumentService
	documents  *mockDocumentRepo
	users      *mockUserRepo
	activity   *mockActivityRepo
	dispatcher *recordingDispatcher
}

func newDocumentFixture() *documentFixture {
	documents := newMockDocumentRepo()
	users := newMockUserRepo()
	activity := &mockActivityRepo{}
	dispatcher := &recordingDispatcher{}

	users.users["client-1"] = &domain.User{ID: "client-1", Role: domain.RoleClient, AgentID: strPtr("AG1"), Active: true}

	svc := NewDocumentService(DocumentDependencies{
		DocumentRepo:    documents,
		UserRepo:        users,
		ActivityLogRepo: activity,
		Dispatcher:      dispatcher,
	})
	return &documentFixture{svc: svc, documents: documents, users: users, activity: activity, dispatcher: dispatcher}
}

func TestCreateRequestStaffOnly(t *testing.T) {
	f := newDocumentFixture()

	client := access.Actor{UserID: "client-1", Role: domain.RoleClient}
	_, err := f.svc.CreateRequest(context.Background(), client, "client-1", "proof_of_income", nil)
	require.Error(t, err)

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
}

func TestCreateRequestScopedToOwningAgent(t *testing.T) {
	f := newDocumentFixture()

	_, err := f.svc.CreateRequest(context.Background(), scopedStaff("AG2"), "client-1", "proof_of_income", nil)
	require.Error(t, err)

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)

	req, err := f.svc.CreateRequest(context.Background(), scopedStaff("AG1"), "client-1", "proof_of_income", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentRequestPending, req.Status)
	assert.Equal(t, "staff-1", req.RequestedBy)
	assert.Contains(t, f.dispatcher.eventTypes(), events.EventDocumentRequested)
}

func TestFulfillRequestByClient(t *testing.T) {
	f := newDocumentFixture()
	f.documents.requests["req-1"] = &domain.DocumentRequest{
		ID: "req-1", ClientID: "client-1", RequestedBy: "staff-1",
		DocumentType: "proof_of_income", Status: domain.DocumentRequestPending,
	}

	client := access.Actor{UserID: "client-1", Role: domain.RoleClient}
	req, err := f.svc.FulfillRequest(context.Background(), client, "req-1", DocumentUploadInput{
		FileName:   "income.pdf",
		StorageKey: "uploads/income.pdf",
		MimeType:   "application/pdf",
		SizeBytes:  1024,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentRequestFulfilled, req.Status)
	require.NotNil(t, req.DocumentID)

	doc, err := f.documents.GetDocumentByID(context.Background(), *req.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "client-1", doc.UploadedBy)

	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, "fulfill", f.activity.entries[0].Action)
	assert.Contains(t, f.dispatcher.eventTypes(), events.EventDocumentUploaded)
}

func TestFulfillRequestAlreadyFulfilled(t *testing.T) {
	f := newDocumentFixture()
	docID := "doc-9"
	f.documents.requests["req-1"] = &domain.DocumentRequest{
		ID: "req-1", ClientID: "client-1",
		DocumentType: "proof_of_income", Status: domain.DocumentRequestFulfilled, DocumentID: &docID,
	}

	client := access.Actor{UserID: "client-1", Role: domain.RoleClient}
	_, err := f.svc.FulfillRequest(context.Background(), client, "req-1", DocumentUploadInput{
		FileName:   "income.pdf",
		StorageKey: "uploads/income.pdf",
	})
	require.Error(t, err)

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "STATE_CONFLICT", domainErr.Code)
}

func TestFulfillRequestDeniesUnrelatedClient(t *testing.T) {
	f := newDocumentFixture()
	f.users.users["client-2"] = &domain.User{ID: "client-2", Role: domain.RoleClient, Active: true}
	f.documents.requests["req-1"] = &domain.DocumentRequest{
		ID: "req-1", ClientID: "client-1",
		DocumentType: "proof_of_income", Status: domain.DocumentRequestPending,
	}

	other := access.Actor{UserID: "client-2", Role: domain.RoleClient}
	_, err := f.svc.FulfillRequest(context.Background(), other, "req-1", DocumentUploadInput{
		FileName:   "income.pdf",
		StorageKey: "uploads/income.pdf",
	})
	require.Error(t, err)

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
}

func TestListRequestsClientSeesOnlyOwn(t *testing.T) {
	f := newDocumentFixture()
	f.documents.requests["req-1"] = &domain.DocumentRequest{ID: "req-1", ClientID: "client-1", Status: domain.DocumentRequestPending}
	f.documents.requests["req-2"] = &domain.DocumentRequest{ID: "req-2", ClientID: "client-2", Status: domain.DocumentRequestPending}

	client := access.Actor{UserID: "client-1", Role: domain.RoleClient}
	requests, err := f.svc.ListRequests(context.Background(), client, nil, nil, 20, 0)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "req-1", requests[0].ID)
}

func TestListRequestsScopedStaffFiltered(t *testing.T) {
	f := newDocumentFixture()
	f.users.users["client-2"] = &domain.User{ID: "client-2", Role: domain.RoleClient, AgentID: strPtr("AG2"), Active: true}
	f.documents.requests["req-1"] = &domain.DocumentRequest{ID: "req-1", ClientID: "client-1", Status: domain.DocumentRequestPending}
	f.documents.requests["req-2"] = &domain.DocumentRequest{ID: "req-2", ClientID: "client-2", Status: domain.DocumentRequestPending}

	requests, err := f.svc.ListRequests(context.Background(), scopedStaff("AG1"), nil, nil, 20, 0)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "req-1", requests[0].ID)
}
