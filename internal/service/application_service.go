package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/policy-admin/internal/access"
	"github.com/spec-kit/policy-admin/internal/carrier"
	"github.com/spec-kit/policy-admin/internal/domain"
	"github.com/spec-kit/policy-admin/internal/events"
	"github.com/spec-kit/policy-admin/internal/lifecycle"
	"github.com/spec-kit/policy-admin/internal/repository"
	errorutil "github.com/spec-kit/policy-admin/pkg/util/errorutil"
)

// EnrollmentSubmitter posts an adapted enrollment to the carrier.
type EnrollmentSubmitter interface {
	Submit(ctx context.Context, enrollment carrier.Enrollment) (*carrier.EnrollmentResponse, error)
}

// PlanRater recomputes plan premiums.
type PlanRater interface {
	Rate(ctx context.Context, req carrier.RateRequest) ([]carrier.Quote, error)
}

// ApplicationService coordinates application workflows.
type ApplicationService struct {
	apps       repository.ApplicationRepository
	users      repository.UserRepository
	enrollment EnrollmentSubmitter
	rater      PlanRater
	quotes     *carrier.QuoteCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ApplicationDependencies bundles collaborators for the service.
type ApplicationDependencies struct {
	ApplicationRepo repository.ApplicationRepository
	UserRepo        repository.UserRepository
	Enrollment      EnrollmentSubmitter
	Rater           PlanRater
	QuoteCache      *carrier.QuoteCache
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// ApplicationCreateInput describes application creation payload.
type ApplicationCreateInput struct {
	UserID        string
	AgentID       *string
	CarrierName   string
	EffectiveDate *time.Time
	Applicants    []domain.Applicant
	Coverages     []domain.Coverage
	Beneficiaries []domain.Beneficiary
}

// SubmitInput carries the payment and address details needed for carrier
// submission. Payment instruments are never persisted; they pass through to
// the carrier only.
type SubmitInput struct {
	Address carrier.Address
	Payment carrier.Payment
}

// NewApplicationService constructs the service.
func NewApplicationService(deps ApplicationDependencies) *ApplicationService {
	return &ApplicationService{
		apps:       deps.ApplicationRepo,
		users:      deps.UserRepo,
		enrollment: deps.Enrollment,
		rater:      deps.Rater,
		quotes:     deps.QuoteCache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Create opens a draft application for a client.
func (s *ApplicationService) Create(ctx context.Context, actor access.Actor, input ApplicationCreateInput) (*domain.Application, error) {
	if input.UserID == "" || input.CarrierName == "" {
		return nil, errorutil.NewValidationError("user_id and carrier_name required", nil)
	}
	if len(input.Applicants) == 0 {
		return nil, errorutil.NewValidationError("at least one applicant required", nil)
	}

	client, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("client", map[string]any{"user_id": input.UserID})
		}
		return nil, errorutil.MapError(err)
	}

	agentID := input.AgentID
	if agentID == nil {
		agentID = client.AgentID
	}
	if !access.CanAccess(actor, agentID) && !access.IsSelf(actor, input.UserID) {
		return nil, errorutil.NewForbidden("access denied")
	}

	app := &domain.Application{
		UserID:        input.UserID,
		AgentID:       agentID,
		CarrierName:   input.CarrierName,
		Status:        domain.StatusDraft,
		EffectiveDate: input.EffectiveDate,
		Applicants:    input.Applicants,
		Coverages:     input.Coverages,
		Beneficiaries: input.Beneficiaries,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, errorutil.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventApplicationCreated,
		ActorID:  actor.UserID,
		ClientID: app.UserID,
		Payload: events.ApplicationCreatedPayload{
			ApplicationID: app.ID,
			AgentID:       app.AgentID,
			CarrierName:   app.CarrierName,
		},
	})
	return app, nil
}

// Get fetches an application enforcing access.
func (s *ApplicationService) Get(ctx context.Context, actor access.Actor, appID string) (*domain.Application, error) {
	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("application", map[string]any{"application_id": appID})
		}
		return nil, errorutil.MapError(err)
	}
	if !access.CanAccess(actor, app.AgentID) && !access.IsSelf(actor, app.UserID) {
		return nil, errorutil.NewForbidden("access denied")
	}
	return app, nil
}

// List returns applications visible to the actor.
func (s *ApplicationService) List(ctx context.Context, actor access.Actor, statuses []domain.ApplicationStatus, limit, offset int) ([]domain.Application, error) {
	filter := repository.ApplicationFilter{
		Statuses: statuses,
		Limit:    limit,
		Offset:   offset,
	}
	switch actor.Role {
	case domain.RoleSuperAdmin, domain.RoleAdmin:
		// unrestricted
	case domain.RoleAgent:
		if actor.OwnAgentID == nil {
			return []domain.Application{}, nil
		}
		filter.AgentID = actor.OwnAgentID
	case domain.RoleSupportStaff:
		if actor.Scope == domain.ScopeAgentSpecific {
			if actor.AssignedAgentID == nil {
				return []domain.Application{}, nil
			}
			filter.AgentID = actor.AssignedAgentID
		}
	case domain.RoleClient:
		userID := actor.UserID
		filter.UserID = &userID
	default:
		return nil, errorutil.NewForbidden("access denied")
	}
	result, err := s.apps.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return result, nil
}

// ChangeStatus moves an application through the lifecycle graph. The status
// write and its audit entry commit in the same transaction.
func (s *ApplicationService) ChangeStatus(ctx context.Context, actor access.Actor, appID string, newStatus domain.ApplicationStatus, reason string) (*domain.Application, error) {
	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("application", map[string]any{"application_id": appID})
		}
		return nil, errorutil.MapError(err)
	}

	if !access.CanChangeStatus(actor) {
		return nil, errorutil.NewForbidden("clients cannot change application status")
	}
	if !access.CanAccess(actor, app.AgentID) {
		return nil, errorutil.NewForbidden("access denied")
	}
	if err := lifecycle.Validate(app.Status, newStatus); err != nil {
		return nil, err
	}

	return s.writeStatus(ctx, actor, app, newStatus, reason)
}

// Cancel cancels an application with a mandatory reason. Distinct from the
// generic transition: active, rejected and already-cancelled applications are
// rejected with an error naming the blocking state.
func (s *ApplicationService) Cancel(ctx context.Context, actor access.Actor, appID, reason string) (*domain.Application, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errorutil.NewValidationError("cancellation reason required", nil)
	}

	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("application", map[string]any{"application_id": appID})
		}
		return nil, errorutil.MapError(err)
	}

	if !access.CanChangeStatus(actor) {
		return nil, errorutil.NewForbidden("clients cannot cancel applications")
	}
	if !access.CanAccess(actor, app.AgentID) {
		return nil, errorutil.NewForbidden("access denied")
	}
	if err := lifecycle.ValidateCancel(app.Status); err != nil {
		return nil, err
	}

	return s.writeStatus(ctx, actor, app, domain.StatusCancelled, reason)
}

func (s *ApplicationService) writeStatus(ctx context.Context, actor access.Actor, app *domain.Application, newStatus domain.ApplicationStatus, reason string) (*domain.Application, error) {
	oldStatus := app.Status
	var reasonPtr *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		reasonPtr = &trimmed
	}
	update := repository.StatusUpdate{
		ApplicationID: app.ID,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		ChangedBy:     actor.UserID,
		Reason:        reasonPtr,
	}
	if err := s.apps.UpdateStatus(ctx, update); err != nil {
		if errors.Is(err, repository.ErrStatusMoved) {
			return nil, errorutil.NewStateConflict(
				"application status changed concurrently, retry with current state", nil)
		}
		return nil, errorutil.MapError(err)
	}

	now := time.Now()
	app.Status = newStatus
	app.StatusChangedBy = &actor.UserID
	app.StatusChangedAt = &now
	app.StatusChangeReason = reasonPtr

	s.publishEvent(ctx, events.Event{
		Type:     events.EventApplicationStatusChanged,
		ActorID:  actor.UserID,
		ClientID: app.UserID,
		Payload: events.ApplicationStatusChangedPayload{
			ApplicationID: app.ID,
			OldStatus:     oldStatus,
			NewStatus:     newStatus,
			Reason:        reasonPtr,
		},
	})
	return app, nil
}

// SubmitToCarrier re-rates an approved application, submits the enrollment,
// records the carrier response and activates the application.
func (s *ApplicationService) SubmitToCarrier(ctx context.Context, actor access.Actor, appID string, input SubmitInput) (*domain.Application, error) {
	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("application", map[string]any{"application_id": appID})
		}
		return nil, errorutil.MapError(err)
	}

	if !access.CanChangeStatus(actor) {
		return nil, errorutil.NewForbidden("clients cannot submit applications to the carrier")
	}
	if !access.CanAccess(actor, app.AgentID) {
		return nil, errorutil.NewForbidden("access denied")
	}
	if app.Status != domain.StatusApproved {
		return nil, errorutil.NewStateConflict(
			"only approved applications can be submitted to the carrier",
			map[string]any{"status": app.Status})
	}
	if len(app.Applicants) == 0 || len(app.Coverages) == 0 {
		return nil, errorutil.NewValidationError("application missing applicants or coverages", nil)
	}

	enrollment := s.buildEnrollment(app, input)

	quotes, err := s.rateWithCache(ctx, app, enrollment)
	if err != nil {
		return nil, err
	}
	applyQuotes(&enrollment, quotes)

	resp, err := s.enrollment.Submit(ctx, enrollment)
	if err != nil {
		return nil, err
	}

	result := &domain.SubmissionResult{
		ApplicationID: app.ID,
		Status:        resp.Status,
		RawResponse:   resp.Raw,
	}
	if resp.PolicyNumber != "" {
		policyNumber := resp.PolicyNumber
		result.PolicyNumber = &policyNumber
	}
	if err := s.apps.AddSubmissionResult(ctx, result); err != nil {
		return nil, errorutil.MapError(err)
	}
	app.SubmissionResults = append(app.SubmissionResults, *result)

	updated, err := s.writeStatus(ctx, actor, app, domain.StatusActive, "carrier_submission")
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventApplicationSubmitted,
		ActorID:  actor.UserID,
		ClientID: app.UserID,
		Payload: events.ApplicationSubmittedPayload{
			ApplicationID: app.ID,
			PolicyNumber:  result.PolicyNumber,
		},
	})
	return updated, nil
}

func (s *ApplicationService) buildEnrollment(app *domain.Application, input SubmitInput) carrier.Enrollment {
	enrollment := carrier.Enrollment{
		ApplicationID: app.ID,
		SignatureDate: time.Now(),
		Address:       input.Address,
		Payment:       input.Payment,
	}
	if app.AgentID != nil {
		enrollment.AgentID = *app.AgentID
	}
	if app.EffectiveDate != nil {
		enrollment.EffectiveDate = *app.EffectiveDate
	} else {
		enrollment.EffectiveDate = time.Now()
	}

	primaryIdx := 0
	for i, a := range app.Applicants {
		if carrier.NormalizeRelationship(a.Relationship) == "Primary" {
			primaryIdx = i
			break
		}
	}
	for i, a := range app.Applicants {
		applicant := carrier.Applicant{
			FirstName:    a.FirstName,
			LastName:     a.LastName,
			Gender:       a.Gender,
			Relationship: a.Relationship,
			BirthDate:    a.BirthDate,
			Smoker:       a.Smoker,
			RateTier:     a.RateTier,
		}
		if a.Email != nil {
			applicant.Email = *a.Email
		}
		if a.Phone != nil {
			applicant.Phone = *a.Phone
		}
		if i == primaryIdx {
			applicant.MemberID = "primary-001"
			enrollment.Primary = applicant
		} else {
			applicant.MemberID = ""
			enrollment.Additional = append(enrollment.Additional, applicant)
		}
	}

	for _, cov := range app.Coverages {
		enrollment.Plans = append(enrollment.Plans, carrier.PlanSelection{
			PlanKey:     cov.PlanKey,
			ProductCode: cov.ProductCode,
			Premium:     cov.Premium,
		})
	}
	return enrollment
}

func (s *ApplicationService) rateWithCache(ctx context.Context, app *domain.Application, enrollment carrier.Enrollment) ([]carrier.Quote, error) {
	cacheKey := ""
	if len(enrollment.Plans) > 0 {
		cacheKey = enrollment.Plans[0].PlanKey
	}
	if cached := s.quotes.Get(ctx, app.ID, cacheKey); len(cached) == len(enrollment.Plans) {
		return cached, nil
	}

	applicants := append([]carrier.Applicant{enrollment.Primary}, enrollment.Additional...)
	quotes, err := s.rater.Rate(ctx, carrier.RateRequest{
		AgentID:    enrollment.AgentID,
		Zip:        enrollment.Address.Zip,
		State:      enrollment.Address.State,
		Applicants: applicants,
		Plans:      enrollment.Plans,
	})
	if err != nil {
		return nil, err
	}
	s.quotes.Put(ctx, app.ID, cacheKey, quotes)
	return quotes, nil
}

func applyQuotes(enrollment *carrier.Enrollment, quotes []carrier.Quote) {
	for i := range enrollment.Plans {
		for _, quote := range quotes {
			if quote.PlanKey == enrollment.Plans[i].PlanKey {
				enrollment.Plans[i].Premium = quote.Premium
				break
			}
		}
	}
}

func (s *ApplicationService) publishEvent(ctx context.Context, event events.Event) {
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
