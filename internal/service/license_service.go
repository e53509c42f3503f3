package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/policy-admin/internal/access"
	"github.com/spec-kit/policy-admin/internal/domain"
	"github.com/spec-kit/policy-admin/internal/repository"
	errorutil "github.com/spec-kit/policy-admin/pkg/util/errorutil"
)

// LicenseService manages per-agent licenses and carrier appointments.
type LicenseService struct {
	licenses     repository.LicenseRepository
	appointments repository.AppointmentRepository
	agents       repository.AgentRepository
}

// LicenseDependencies bundles repositories for the service.
type LicenseDependencies struct {
	LicenseRepo     repository.LicenseRepository
	AppointmentRepo repository.AppointmentRepository
	AgentRepo       repository.AgentRepository
}

// NewLicenseService constructs the service.
func NewLicenseService(deps LicenseDependencies) *LicenseService {
	return &LicenseService{
		licenses:     deps.LicenseRepo,
		appointments: deps.AppointmentRepo,
		agents:       deps.AgentRepo,
	}
}

func (s *LicenseService) authorize(ctx context.Context, actor access.Actor, agentID string) error {
	if _, err := s.agents.GetByID(ctx, agentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		return errorutil.MapError(err)
	}
	if !access.CanAccess(actor, &agentID) {
		return errorutil.NewForbidden("access denied")
	}
	return nil
}

// CreateLicense records a license for an agent.
func (s *LicenseService) CreateLicense(ctx context.Context, actor access.Actor, license *domain.License) (*domain.License, error) {
	if license.AgentID == "" || license.State == "" || license.LicenseNumber == "" {
		return nil, errorutil.NewValidationError("agent_id, state and license_number required", nil)
	}
	if err := s.authorize(ctx, actor, license.AgentID); err != nil {
		return nil, err
	}
	if license.Status == "" {
		license.Status = domain.CredentialPending
	}
	if err := s.licenses.Create(ctx, license); err != nil {
		return nil, errorutil.MapError(err)
	}
	return license, nil
}

// GetLicense fetches a single license enforcing agent ownership.
func (s *LicenseService) GetLicense(ctx context.Context, actor access.Actor, licenseID string) (*domain.License, error) {
	license, err := s.licenses.GetByID(ctx, licenseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("license", map[string]any{"license_id": licenseID})
		}
		return nil, errorutil.MapError(err)
	}
	if err := s.authorize(ctx, actor, license.AgentID); err != nil {
		return nil, err
	}
	return license, nil
}

// ListLicenses returns an agent's licenses.
func (s *LicenseService) ListLicenses(ctx context.Context, actor access.Actor, agentID string) ([]domain.License, error) {
	if err := s.authorize(ctx, actor, agentID); err != nil {
		return nil, err
	}
	result, err := s.licenses.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return result, nil
}

// UpdateLicense mutates a license after re-checking agent ownership.
func (s *LicenseService) UpdateLicense(ctx context.Context, actor access.Actor, license *domain.License) (*domain.License, error) {
	existing, err := s.licenses.GetByID(ctx, license.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("license", map[string]any{"license_id": license.ID})
		}
		return nil, errorutil.MapError(err)
	}
	if err := s.authorize(ctx, actor, existing.AgentID); err != nil {
		return nil, err
	}
	license.AgentID = existing.AgentID
	if err := s.licenses.Update(ctx, license); err != nil {
		return nil, errorutil.MapError(err)
	}
	return license, nil
}

// DeleteLicense removes a license.
func (s *LicenseService) DeleteLicense(ctx context.Context, actor access.Actor, licenseID string) error {
	existing, err := s.licenses.GetByID(ctx, licenseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("license", map[string]any{"license_id": licenseID})
		}
		return errorutil.MapError(err)
	}
	if err := s.authorize(ctx, actor, existing.AgentID); err != nil {
		return err
	}
	return errorutil.MapError(s.licenses.Delete(ctx, licenseID))
}

// CreateAppointment records a carrier appointment for an agent.
func (s *LicenseService) CreateAppointment(ctx context.Context, actor access.Actor, appointment *domain.Appointment) (*domain.Appointment, error) {
	if appointment.AgentID == "" || appointment.CarrierName == "" || appointment.State == "" {
		return nil, errorutil.NewValidationError("agent_id, carrier_name and state required", nil)
	}
	if err := s.authorize(ctx, actor, appointment.AgentID); err != nil {
		return nil, err
	}
	if appointment.Status == "" {
		appointment.Status = domain.CredentialPending
	}
	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, errorutil.MapError(err)
	}
	return appointment, nil
}

// GetAppointment fetches a single appointment enforcing agent ownership.
func (s *LicenseService) GetAppointment(ctx context.Context, actor access.Actor, appointmentID string) (*domain.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("appointment", map[string]any{"appointment_id": appointmentID})
		}
		return nil, errorutil.MapError(err)
	}
	if err := s.authorize(ctx, actor, appointment.AgentID); err != nil {
		return nil, err
	}
	return appointment, nil
}

// ListAppointments returns an agent's appointments.
func (s *LicenseService) ListAppointments(ctx context.Context, actor access.Actor, agentID string) ([]domain.Appointment, error) {
	if err := s.authorize(ctx, actor, agentID); err != nil {
		return nil, err
	}
	result, err := s.appointments.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	return result, nil
}

// UpdateAppointment mutates an appointment after re-checking agent ownership.
func (s *LicenseService) UpdateAppointment(ctx context.Context, actor access.Actor, appointment *domain.Appointment) (*domain.Appointment, error) {
	existing, err := s.appointments.GetByID(ctx, appointment.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("appointment", map[string]any{"appointment_id": appointment.ID})
		}
		return nil, errorutil.MapError(err)
	}
	if err := s.authorize(ctx, actor, existing.AgentID); err != nil {
		return nil, err
	}
	appointment.AgentID = existing.AgentID
	if err := s.appointments.Update(ctx, appointment); err != nil {
		return nil, errorutil.MapError(err)
	}
	return appointment, nil
}

// DeleteAppointment removes an appointment.
func (s *LicenseService) DeleteAppointment(ctx context.Context, actor access.Actor, appointmentID string) error {
	existing, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("appointment", map[string]any{"appointment_id": appointmentID})
		}
		return errorutil.MapError(err)
	}
	if err := s.authorize(ctx, actor, existing.AgentID); err != nil {
		return err
	}
	return errorutil.MapError(s.appointments.Delete(ctx, appointmentID))
}
