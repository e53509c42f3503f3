package domain

import "time"

// DocumentRequestStatus enumerates document request states.
type DocumentRequestStatus string

const (
	DocumentRequestPending   DocumentRequestStatus = "pending"
	DocumentRequestFulfilled DocumentRequestStatus = "fulfilled"
)

// DocumentRequest asks a client for a specific document. Created by staff,
// fulfilled by the client or by staff with matching scope.
type DocumentRequest struct {
	ID           string
	ClientID     string
	RequestedBy  string
	DocumentType string
	Status       DocumentRequestStatus
	DocumentID   *string
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Document is an uploaded file reference kept in object storage.
type Document struct {
	ID         string
	ClientID   string
	FileName   string
	StorageKey string
	MimeType   string
	SizeBytes  int64
	UploadedBy string
	CreatedAt  time.Time
}
