package events

import (
	"time"

	"github.com/spec-kit/policy-admin/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventApplicationCreated       EventType = "application_created"
	EventApplicationStatusChanged EventType = "application_status_changed"
	EventApplicationSubmitted     EventType = "application_submitted"
	EventDocumentRequested        EventType = "document_requested"
	EventDocumentUploaded         EventType = "document_uploaded"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	ClientID  string      `json:"client_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ApplicationCreatedPayload payload.
type ApplicationCreatedPayload struct {
	ApplicationID string  `json:"application_id"`
	AgentID       *string `json:"agent_id,omitempty"`
	CarrierName   string  `json:"carrier_name"`
}

// ApplicationStatusChangedPayload payload.
type ApplicationStatusChangedPayload struct {
	ApplicationID string                   `json:"application_id"`
	OldStatus     domain.ApplicationStatus `json:"old_status"`
	NewStatus     domain.ApplicationStatus `json:"new_status"`
	Reason        *string                  `json:"reason,omitempty"`
}

// ApplicationSubmittedPayload payload.
type ApplicationSubmittedPayload struct {
	ApplicationID string  `json:"application_id"`
	PolicyNumber  *string `json:"policy_number,omitempty"`
}

// DocumentRequestedPayload payload.
type DocumentRequestedPayload struct {
	DocumentRequestID string `json:"document_request_id"`
	DocumentType      string `json:"document_type"`
}

// DocumentUploadedPayload payload.
type DocumentUploadedPayload struct {
	DocumentRequestID string `json:"document_request_id"`
	DocumentID        string `json:"document_id"`
	FileName          string `json:"file_name"`
}
