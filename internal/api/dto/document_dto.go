package dto

import (
	"time"

	"github.com/spec-kit/policy-admin/internal/domain"
)

// CreateDocumentRequestRequest payload.
type CreateDocumentRequestRequest struct {
	ClientID     string  `json:"client_id"`
	DocumentType string  `json:"document_type"`
	Notes        *string `json:"notes"`
}

// FulfillDocumentRequestRequest payload.
type FulfillDocumentRequestRequest struct {
	FileName   string `json:"file_name"`
	StorageKey string `json:"storage_key"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// DocumentRequestResponse response.
type DocumentRequestResponse struct {
	ID           string                       `json:"id"`
	ClientID     string                       `json:"client_id"`
	RequestedBy  string                       `json:"requested_by"`
	DocumentType string                       `json:"document_type"`
	Status       domain.DocumentRequestStatus `json:"status"`
	DocumentID   *string                      `json:"document_id"`
	Notes        *string                      `json:"notes"`
	CreatedAt    time.Time                    `json:"created_at"`
	UpdatedAt    time.Time                    `json:"updated_at"`
}

// NewDocumentRequestResponse adapts a domain document request.
func NewDocumentRequestResponse(req *domain.DocumentRequest) DocumentRequestResponse {
	return DocumentRequestResponse{
		ID:           req.ID,
		ClientID:     req.ClientID,
		RequestedBy:  req.RequestedBy,
		DocumentType: req.DocumentType,
		Status:       req.Status,
		DocumentID:   req.DocumentID,
		Notes:        req.Notes,
		CreatedAt:    req.CreatedAt,
		UpdatedAt:    req.UpdatedAt,
	}
}
