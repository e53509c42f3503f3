package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/policy-admin/internal/api/dto"
	"github.com/spec-kit/policy-admin/internal/auth"
	"github.com/spec-kit/policy-admin/internal/domain"
	"github.com/spec-kit/policy-admin/internal/service"
	errorutil "github.com/spec-kit/policy-admin/pkg/util/errorutil"
)

// DocumentsHandler manages document request endpoints.
type DocumentsHandler struct {
	service *service.DocumentService
}

// NewDocumentsHandler constructs handler.
func NewDocumentsHandler(documentService *service.DocumentService) *DocumentsHandler {
	return &DocumentsHandler{service: documentService}
}

// CreateRequest POST /api/document-requests.
func (h *DocumentsHandler) CreateRequest(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	var req dto.CreateDocumentRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if req.ClientID == "" || req.DocumentType == "" {
		return errorutil.NewValidationError("client_id and document_type required", nil)
	}

	request, err := h.service.CreateRequest(c.Context(), *actor, req.ClientID, req.DocumentType, req.Notes)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewDocumentRequestResponse(request)})
}

// ListRequests GET /api/document-requests.
func (h *DocumentsHandler) ListRequests(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}

	var clientID *string
	if val := c.Query("client_id"); val != "" {
		clientID = &val
	}
	var status *domain.DocumentRequestStatus
	if val := c.Query("status"); val != "" {
		parsed := domain.DocumentRequestStatus(val)
		if parsed != domain.DocumentRequestPending && parsed != domain.DocumentRequestFulfilled {
			return errorutil.NewValidationError("unknown status", map[string]any{"status": val})
		}
		status = &parsed
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	requests, err := h.service.ListRequests(c.Context(), *actor, clientID, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.DocumentRequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, dto.NewDocumentRequestResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// FulfillRequest POST /api/document-requests/:id/fulfill.
func (h *DocumentsHandler) FulfillRequest(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	var req dto.FulfillDocumentRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if req.FileName == "" || req.StorageKey == "" {
		return errorutil.NewValidationError("file_name and storage_key required", nil)
	}

	request, err := h.service.FulfillRequest(c.Context(), *actor, c.Params("id"), service.DocumentUploadInput{
		FileName:   req.FileName,
		StorageKey: req.StorageKey,
		MimeType:   req.MimeType,
		SizeBytes:  req.SizeBytes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDocumentRequestResponse(request)})
}
