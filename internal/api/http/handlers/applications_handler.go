package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/policy-admin/internal/api/dto"
	"github.com/spec-kit/policy-admin/internal/auth"
	"github.com/spec-kit/policy-admin/internal/carrier"
	"github.com/spec-kit/policy-admin/internal/domain"
	"github.com/spec-kit/policy-admin/internal/service"
	errorutil "github.com/spec-kit/policy-admin/pkg/util/errorutil"
)

// ApplicationsHandler manages application endpoints.
type ApplicationsHandler struct {
	service *service.ApplicationService
}

// NewApplicationsHandler constructs handler.
func NewApplicationsHandler(applicationService *service.ApplicationService) *ApplicationsHandler {
	return &ApplicationsHandler{service: applicationService}
}

// Create POST /api/applications.
func (h *ApplicationsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	var req dto.CreateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" || req.CarrierName == "" {
		return errorutil.NewValidationError("user_id and carrier_name required", nil)
	}
	if len(req.Applicants) == 0 {
		return errorutil.NewValidationError("at least one applicant required", nil)
	}

	input := service.ApplicationCreateInput{
		UserID:        req.UserID,
		AgentID:       req.AgentID,
		CarrierName:   req.CarrierName,
		EffectiveDate: req.EffectiveDate,
	}
	for _, a := range req.Applicants {
		input.Applicants = append(input.Applicants, domain.Applicant{
			FirstName:    a.FirstName,
			LastName:     a.LastName,
			Gender:       a.Gender,
			Relationship: a.Relationship,
			BirthDate:    a.BirthDate,
			Smoker:       a.Smoker,
			RateTier:     a.RateTier,
			Email:        a.Email,
			Phone:        a.Phone,
		})
	}
	for _, cov := range req.Coverages {
		input.Coverages = append(input.Coverages, domain.Coverage{
			PlanKey:        cov.PlanKey,
			ProductCode:    cov.ProductCode,
			CoverageAmount: cov.CoverageAmount,
			Premium:        cov.Premium,
		})
	}
	for _, b := range req.Beneficiaries {
		input.Beneficiaries = append(input.Beneficiaries, domain.Beneficiary{
			FirstName:    b.FirstName,
			LastName:     b.LastName,
			Relationship: b.Relationship,
			Percentage:   b.Percentage,
		})
	}

	app, err := h.service.Create(c.Context(), *actor, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": applicationDetail(app)})
}

// List GET /api/applications.
func (h *ApplicationsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}

	var statuses []domain.ApplicationStatus
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			status := domain.ApplicationStatus(strings.TrimSpace(part))
			if !status.Valid() {
				return errorutil.NewValidationError("unknown status", map[string]any{"status": part})
			}
			statuses = append(statuses, status)
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	apps, err := h.service.List(c.Context(), *actor, statuses, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.ApplicationSummary, 0, len(apps))
	for i := range apps {
		items = append(items, applicationSummary(&apps[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/applications/:id.
func (h *ApplicationsHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	app, err := h.service.Get(c.Context(), *actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationDetail(app)})
}

// ChangeStatus PATCH /api/applications/:id/status.
func (h *ApplicationsHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if !req.Status.Valid() {
		return errorutil.NewValidationError("unknown status", map[string]any{"status": req.Status})
	}

	app, err := h.service.ChangeStatus(c.Context(), *actor, c.Params("id"), req.Status, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationDetail(app)})
}

// Cancel POST /api/applications/:id/cancel.
func (h *ApplicationsHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	var req dto.CancelRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}

	app, err := h.service.Cancel(c.Context(), *actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationDetail(app)})
}

// Submit POST /api/applications/:id/submit.
func (h *ApplicationsHandler) Submit(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("authentication required")
	}
	var req dto.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	input, err := submitInput(req)
	if err != nil {
		return err
	}

	app, err := h.service.SubmitToCarrier(c.Context(), *actor, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationDetail(app)})
}

func submitInput(req dto.SubmitRequest) (service.SubmitInput, error) {
	if req.Address.Line1 == "" || req.Address.City == "" || req.Address.State == "" || req.Address.Zip == "" {
		return service.SubmitInput{}, errorutil.NewValidationError("address line1, city, state, zip required", nil)
	}

	payment := carrier.Payment{Method: carrier.PaymentMethod(req.Payment.Method)}
	switch payment.Method {
	case carrier.PaymentCard:
		if req.Payment.Card == nil {
			return service.SubmitInput{}, errorutil.NewValidationError("card details required", nil)
		}
		payment.Card = &carrier.CardPayment{
			Number:   req.Payment.Card.Number,
			ExpMonth: req.Payment.Card.ExpMonth,
			ExpYear:  req.Payment.Card.ExpYear,
			CVV:      req.Payment.Card.CVV,
			Brand:    req.Payment.Card.Brand,
		}
	case carrier.PaymentBank:
		if req.Payment.Bank == nil {
			return service.SubmitInput{}, errorutil.NewValidationError("bank details required", nil)
		}
		payment.Bank = &carrier.BankPayment{
			RoutingNumber: req.Payment.Bank.RoutingNumber,
			AccountNumber: req.Payment.Bank.AccountNumber,
			BankName:      req.Payment.Bank.BankName,
			DraftDay:      req.Payment.Bank.DraftDay,
		}
	default:
		return service.SubmitInput{}, errorutil.NewValidationError("payment method must be card or bank", nil)
	}

	return service.SubmitInput{
		Address: carrier.Address{
			Line1:    req.Address.Line1,
			Line2:    req.Address.Line2,
			City:     req.Address.City,
			State:    req.Address.State,
			Zip:      req.Address.Zip,
			AltPhone: req.Address.AltPhone,
		},
		Payment: payment,
	}, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func applicationSummary(app *domain.Application) dto.ApplicationSummary {
	return dto.ApplicationSummary{
		ID:              app.ID,
		UserID:          app.UserID,
		AgentID:         app.AgentID,
		CarrierName:     app.CarrierName,
		Status:          app.Status,
		StatusChangedAt: app.StatusChangedAt,
		EffectiveDate:   app.EffectiveDate,
		CreatedAt:       app.CreatedAt,
		UpdatedAt:       app.UpdatedAt,
	}
}

func applicationDetail(app *domain.Application) dto.ApplicationDetail {
	detail := dto.ApplicationDetail{
		ApplicationSummary: applicationSummary(app),
		StatusChangedBy:    app.StatusChangedBy,
		StatusChangeReason: app.StatusChangeReason,
	}
	for _, a := range app.Applicants {
		detail.Applicants = append(detail.Applicants, dto.ApplicantResponse{
			ID:           a.ID,
			FirstName:    a.FirstName,
			LastName:     a.LastName,
			Gender:       a.Gender,
			Relationship: a.Relationship,
			BirthDate:    a.BirthDate,
			Smoker:       a.Smoker,
			RateTier:     a.RateTier,
		})
	}
	for _, cov := range app.Coverages {
		detail.Coverages = append(detail.Coverages, dto.CoverageResponse{
			ID:             cov.ID,
			PlanKey:        cov.PlanKey,
			ProductCode:    cov.ProductCode,
			CoverageAmount: cov.CoverageAmount,
			Premium:        cov.Premium,
		})
	}
	for _, b := range app.Beneficiaries {
		detail.Beneficiaries = append(detail.Beneficiaries, dto.BeneficiaryResponse{
			ID:           b.ID,
			FirstName:    b.FirstName,
			LastName:     b.LastName,
			Relationship: b.Relationship,
			Percentage:   b.Percentage,
		})
	}
	for _, res := range app.SubmissionResults {
		detail.SubmissionResults = append(detail.SubmissionResults, dto.SubmissionResultResponse{
			ID:           res.ID,
			PolicyNumber: res.PolicyNumber,
			Status:       res.Status,
			SubmittedAt:  res.SubmittedAt,
		})
	}
	return detail
}
