package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/policy-admin/internal/api/dto"
	"github.com/spec-kit/policy-admin/internal/auth"
	"github.com/spec-kit/policy-admin/internal/repository"
	errorutil "github.com/spec-kit/policy-admin/pkg/util/errorutil"
)

// NotificationsHandler manages per-recipient notification endpoints.
type NotificationsHandler struct {
	notifications repository.NotificationRepository
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications repository.NotificationRepository) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List GET /api/notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	unreadOnly := c.QueryBool("unread")
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	items, err := h.notifications.ListByRecipient(c.Context(), actor.UserID, unreadOnly, pageSize, (page-1)*pageSize)
	if err != nil {
		return errorutil.MapError(err)
	}
	resp := make([]dto.NotificationResponse, 0, len(items))
	for i := range items {
		resp = append(resp, dto.NewNotificationResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// MarkRead POST /api/notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	if err := h.notifications.MarkRead(c.Context(), c.Params("id"), actor.UserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("notification", map[string]any{"notification_id": c.Params("id")})
		}
		return errorutil.MapError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
