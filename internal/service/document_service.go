package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/policy-admin/internal/access"
	"github.com/spec-kit/policy-admin/internal/domain"
	"github.com/spec-kit/policy-admin/internal/events"
	"github.com/spec-kit/policy-admin/internal/repository"
	errorutil "github.com/spec-kit/policy-admin/pkg/util/errorutil"
)

// DocumentService coordinates document request workflows.
type DocumentService struct {
	documents  repository.DocumentRepository
	users      repository.UserRepository
	activity   repository.ActivityLogRepository
	dispatcher events.Dispatcher
}

// DocumentDependencies bundles repositories for the service.
type DocumentDependencies struct {
	DocumentRepo    repository.DocumentRepository
	UserRepo        repository.UserRepository
	ActivityLogRepo repository.ActivityLogRepository
	Dispatcher      events.Dispatcher
}

// DocumentUploadInput describes an uploaded file fulfilling a request.
type DocumentUploadInput struct {
	FileName   string
	StorageKey string
	MimeType   string
	SizeBytes  int64
}

// NewDocumentService constructs the service.
func NewDocumentService(deps DocumentDependencies) *DocumentService {
	return &DocumentService{
		documents:  deps.DocumentRepo,
		users:      deps.UserRepo,
		activity:   deps.ActivityLogRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateRequest opens a document request against a client. Staff only, scoped
// by the client's owning agent.
func (s *DocumentService) CreateRequest(ctx context.Context, actor access.Actor, clientID, documentType string, notes *string) (*domain.DocumentRequest, error) {
	if !actor.Role.IsStaff() {
		return nil, errorutil.NewForbidden("staff role required")
	}
	if strings.TrimSpace(documentType) == "" {
		return nil, errorutil.NewValidationError("document_type required", nil)
	}

	client, err := s.users.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("client", map[string]any{"client_id": clientID})
		}
		return nil, errorutil.MapError(err)
	}
	if !access.CanAccess(actor, client.AgentID) {
		return nil, errorutil.NewForbidden("access denied")
	}

	req := &domain.DocumentRequest{
		ClientID:     clientID,
		RequestedBy:  actor.UserID,
		DocumentType: documentType,
		Status:       domain.DocumentRequestPending,
		Notes:        notes,
	}
	if err := s.documents.CreateRequest(ctx, req); err != nil {
		return nil, errorutil.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventDocumentRequested,
		ActorID:  actor.UserID,
		ClientID: clientID,
		Payload: events.DocumentRequestedPayload{
			DocumentRequestID: req.ID,
			DocumentType:      req.DocumentType,
		},
	})
	return req, nil
}

// ListRequests returns document requests visible to the actor.
func (s *DocumentService) ListRequests(ctx context.Context, actor access.Actor, clientID *string, status *domain.DocumentRequestStatus, limit, offset int) ([]domain.DocumentRequest, error) {
	filter := repository.DocumentRequestFilter{
		Status: status,
		Limit:  limit,
		Offset: offset,
	}
	if actor.Role == domain.RoleClient {
		userID := actor.UserID
		filter.ClientID = &userID
	} else {
		filter.ClientID = clientID
	}

	requests, err := s.documents.ListRequests(ctx, filter)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	if actor.Role == domain.RoleClient || actor.Role == domain.RoleSuperAdmin || actor.Role == domain.RoleAdmin {
		return requests, nil
	}

	// Agents and scoped staff see only requests for clients in their
	// portfolio; ownership comes from the client row, fetched fresh.
	visible := make([]domain.DocumentRequest, 0, len(requests))
	for _, req := range requests {
		client, err := s.users.GetByID(ctx, req.ClientID)
		if err != nil {
			continue
		}
		if access.CanAccess(actor, client.AgentID) {
			visible = append(visible, req)
		}
	}
	return visible, nil
}

// FulfillRequest attaches an uploaded document to a pending request. Allowed
// for the client themselves or staff with matching scope.
func (s *DocumentService) FulfillRequest(ctx context.Context, actor access.Actor, requestID string, upload DocumentUploadInput) (*domain.DocumentRequest, error) {
	if upload.FileName == "" || upload.StorageKey == "" {
		return nil, errorutil.NewValidationError("file_name and storage_key required", nil)
	}

	req, err := s.documents.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("document request", map[string]any{"request_id": requestID})
		}
		return nil, errorutil.MapError(err)
	}
	if req.Status == domain.DocumentRequestFulfilled {
		return nil, errorutil.NewStateConflict("document request already fulfilled", nil)
	}

	if !access.IsSelf(actor, req.ClientID) {
		client, err := s.users.GetByID(ctx, req.ClientID)
		if err != nil {
			return nil, errorutil.MapError(err)
		}
		if !access.CanAccess(actor, client.AgentID) {
			return nil, errorutil.NewForbidden("access denied")
		}
	}

	doc := &domain.Document{
		ClientID:   req.ClientID,
		FileName:   upload.FileName,
		StorageKey: upload.StorageKey,
		MimeType:   upload.MimeType,
		SizeBytes:  upload.SizeBytes,
		UploadedBy: actor.UserID,
	}
	if err := s.documents.CreateDocument(ctx, doc); err != nil {
		return nil, errorutil.MapError(err)
	}
	if err := s.documents.FulfillRequest(ctx, req.ID, doc.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewStateConflict("document request already fulfilled", nil)
		}
		return nil, errorutil.MapError(err)
	}

	req.Status = domain.DocumentRequestFulfilled
	req.DocumentID = &doc.ID

	if s.activity != nil {
		entry := &domain.ActivityLog{
			ActorID:    actor.UserID,
			EntityType: "document_request",
			EntityID:   req.ID,
			Action:     "fulfill",
			NewValue:   map[string]any{"document_id": doc.ID},
		}
		_ = s.activity.Create(ctx, entry)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventDocumentUploaded,
		ActorID:  actor.UserID,
		ClientID: req.ClientID,
		Payload: events.DocumentUploadedPayload{
			DocumentRequestID: req.ID,
			DocumentID:        doc.ID,
			FileName:          doc.FileName,
		},
	})
	return req, nil
}

func (s *DocumentService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
