package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/policy-admin/internal/api/dto"
	"github.com/spec-kit/policy-admin/internal/auth"
	"github.com/spec-kit/policy-admin/internal/domain"
	"github.com/spec-kit/policy-admin/internal/service"
	errorutil "github.com/spec-kit/policy-admin/pkg/util/errorutil"
)

// LicensesHandler manages agent license and appointment endpoints.
type LicensesHandler struct {
	service *service.LicenseService
}

// NewLicensesHandler constructs handler.
func NewLicensesHandler(licenseService *service.LicenseService) *LicensesHandler {
	return &LicensesHandler{service: licenseService}
}

// CreateLicense POST /api/agents/:agentId/licenses.
func (h *LicensesHandler) CreateLicense(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	var req dto.CreateLicenseRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}

	license := &domain.License{
		AgentID:       c.Params("agentId"),
		State:         req.State,
		LicenseNumber: req.LicenseNumber,
		Status:        domain.CredentialStatus(req.Status),
		ExpiresAt:     req.ExpiresAt,
		DocumentURL:   req.DocumentURL,
	}
	created, err := h.service.CreateLicense(c.Context(), *actor, license)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewLicenseResponse(created)})
}

// ListLicenses GET /api/agents/:agentId/licenses.
func (h *LicensesHandler) ListLicenses(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	licenses, err := h.service.ListLicenses(c.Context(), *actor, c.Params("agentId"))
	if err != nil {
		return err
	}
	items := make([]dto.LicenseResponse, 0, len(licenses))
	for i := range licenses {
		items = append(items, dto.NewLicenseResponse(&licenses[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateLicense PATCH /api/licenses/:id.
func (h *LicensesHandler) UpdateLicense(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	var req dto.UpdateLicenseRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}

	existing, err := h.service.GetLicense(c.Context(), *actor, c.Params("id"))
	if err != nil {
		return err
	}
	if req.State != nil {
		existing.State = *req.State
	}
	if req.LicenseNumber != nil {
		existing.LicenseNumber = *req.LicenseNumber
	}
	if req.Status != nil {
		existing.Status = domain.CredentialStatus(*req.Status)
	}
	if req.ExpiresAt != nil {
		existing.ExpiresAt = req.ExpiresAt
	}
	if req.DocumentURL != nil {
		existing.DocumentURL = req.DocumentURL
	}

	updated, err := h.service.UpdateLicense(c.Context(), *actor, existing)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLicenseResponse(updated)})
}

// DeleteLicense DELETE /api/licenses/:id.
func (h *LicensesHandler) DeleteLicense(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteLicense(c.Context(), *actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateAppointment POST /api/agents/:agentId/appointments.
func (h *LicensesHandler) CreateAppointment(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	var req dto.CreateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}

	appointment := &domain.Appointment{
		AgentID:     c.Params("agentId"),
		CarrierName: req.CarrierName,
		State:       req.State,
		Status:      domain.CredentialStatus(req.Status),
		EffectiveAt: req.EffectiveAt,
		DocumentURL: req.DocumentURL,
	}
	created, err := h.service.CreateAppointment(c.Context(), *actor, appointment)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewAppointmentResponse(created)})
}

// ListAppointments GET /api/agents/:agentId/appointments.
func (h *LicensesHandler) ListAppointments(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	appointments, err := h.service.ListAppointments(c.Context(), *actor, c.Params("agentId"))
	if err != nil {
		return err
	}
	items := make([]dto.AppointmentResponse, 0, len(appointments))
	for i := range appointments {
		items = append(items, dto.NewAppointmentResponse(&appointments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateAppointment PATCH /api/appointments/:id.
func (h *LicensesHandler) UpdateAppointment(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	var req dto.UpdateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}

	existing, err := h.service.GetAppointment(c.Context(), *actor, c.Params("id"))
	if err != nil {
		return err
	}
	if req.CarrierName != nil {
		existing.CarrierName = *req.CarrierName
	}
	if req.State != nil {
		existing.State = *req.State
	}
	if req.Status != nil {
		existing.Status = domain.CredentialStatus(*req.Status)
	}
	if req.EffectiveAt != nil {
		existing.EffectiveAt = req.EffectiveAt
	}
	if req.DocumentURL != nil {
		existing.DocumentURL = req.DocumentURL
	}

	updated, err := h.service.UpdateAppointment(c.Context(), *actor, existing)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAppointmentResponse(updated)})
}

// DeleteAppointment DELETE /api/appointments/:id.
func (h *LicensesHandler) DeleteAppointment(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteAppointment(c.Context(), *actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
