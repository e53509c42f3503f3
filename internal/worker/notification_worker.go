package worker

import (
	"context"

	"github.com/spec-kit/policy-admin/internal/domain"
	"github.com/spec-kit/policy-admin/internal/events"
	"github.com/spec-kit/policy-admin/internal/service"
)

// StartNotificationWorker subscribes the fanout to domain events so
// notifications stay decoupled from the triggering operations.
func StartNotificationWorker(dispatcher events.Dispatcher, fanout *service.NotificationFanout) {
	if dispatcher == nil || fanout == nil {
		return
	}

	dispatcher.Subscribe(events.EventApplicationCreated, func(ctx context.Context, event events.Event) error {
		contextID := ""
		if payload, ok := event.Payload.(events.ApplicationCreatedPayload); ok {
			contextID = payload.ApplicationID
		}
		fanout.Notify(ctx, service.NotificationEvent{
			Type:      domain.NotificationNewApplication,
			ClientID:  event.ClientID,
			ContextID: contextID,
		})
		return nil
	})

	dispatcher.Subscribe(events.EventDocumentRequested, func(ctx context.Context, event events.Event) error {
		contextID := ""
		if payload, ok := event.Payload.(events.DocumentRequestedPayload); ok {
			contextID = payload.DocumentRequestID
		}
		fanout.Notify(ctx, service.NotificationEvent{
			Type:      domain.NotificationDocumentRequested,
			ClientID:  event.ClientID,
			ContextID: contextID,
		})
		return nil
	})

	dispatcher.Subscribe(events.EventDocumentUploaded, func(ctx context.Context, event events.Event) error {
		contextID := ""
		if payload, ok := event.Payload.(events.DocumentUploadedPayload); ok {
			contextID = payload.DocumentRequestID
		}
		fanout.Notify(ctx, service.NotificationEvent{
			Type:      domain.NotificationDocumentUploaded,
			ClientID:  event.ClientID,
			ContextID: contextID,
		})
		return nil
	})
}
