package domain

import "time"

// NotificationType enumerates the fanout event templates.
type NotificationType string

const (
	NotificationNewApplication    NotificationType = "new_application"
	NotificationDocumentUploaded  NotificationType = "document_uploaded"
	NotificationDocumentRequested NotificationType = "document_requested"
	NotificationTicketNew         NotificationType = "support_ticket_new"
	NotificationTicketReply       NotificationType = "support_ticket_reply"
)

// Notification is a per-recipient row written by the fanout. Only the
// recipient's read flag is ever updated after insert.
type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	Title     string
	Message   string
	LinkURL   string
	Metadata  map[string]any
	IsRead    bool
	CreatedAt time.Time
}
