package dto

import (
	"time"

	"github.com/spec-kit/policy-admin/internal/domain"
)

// CreateLicenseRequest payload.
type CreateLicenseRequest struct {
	State         string     `json:"state"`
	LicenseNumber string     `json:"license_number"`
	Status        string     `json:"status"`
	ExpiresAt     *time.Time `json:"expires_at"`
	DocumentURL   *string    `json:"document_url"`
}

// UpdateLicenseRequest payload. Nil fields are left unchanged.
type UpdateLicenseRequest struct {
	State         *string    `json:"state"`
	LicenseNumber *string    `json:"license_number"`
	Status        *string    `json:"status"`
	ExpiresAt     *time.Time `json:"expires_at"`
	DocumentURL   *string    `json:"document_url"`
}

// CreateAppointmentRequest payload.
type CreateAppointmentRequest struct {
	CarrierName string     `json:"carrier_name"`
	State       string     `json:"state"`
	Status      string     `json:"status"`
	EffectiveAt *time.Time `json:"effective_at"`
	DocumentURL *string    `json:"document_url"`
}

// UpdateAppointmentRequest payload. Nil fields are left unchanged.
type UpdateAppointmentRequest struct {
	CarrierName *string    `json:"carrier_name"`
	State       *string    `json:"state"`
	Status      *string    `json:"status"`
	EffectiveAt *time.Time `json:"effective_at"`
	DocumentURL *string    `json:"document_url"`
}

// LicenseResponse response.
type LicenseResponse struct {
	ID            string                  `json:"id"`
	AgentID       string                  `json:"agent_id"`
	State         string                  `json:"state"`
	LicenseNumber string                  `json:"license_number"`
	Status        domain.CredentialStatus `json:"status"`
	ExpiresAt     *time.Time              `json:"expires_at"`
	DocumentURL   *string                 `json:"document_url"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// NewLicenseResponse adapts a domain license.
func NewLicenseResponse(l *domain.License) LicenseResponse {
	return LicenseResponse{
		ID:            l.ID,
		AgentID:       l.AgentID,
		State:         l.State,
		LicenseNumber: l.LicenseNumber,
		Status:        l.Status,
		ExpiresAt:     l.ExpiresAt,
		DocumentURL:   l.DocumentURL,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

// AppointmentResponse response.
type AppointmentResponse struct {
	ID          string                  `json:"id"`
	AgentID     string                  `json:"agent_id"`
	CarrierName string                  `json:"carrier_name"`
	State       string                  `json:"state"`
	Status      domain.CredentialStatus `json:"status"`
	EffectiveAt *time.Time              `json:"effective_at"`
	DocumentURL *string                 `json:"document_url"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// NewAppointmentResponse adapts a domain appointment.
func NewAppointmentResponse(a *domain.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		AgentID:     a.AgentID,
		CarrierName: a.CarrierName,
		State:       a.State,
		Status:      a.Status,
		EffectiveAt: a.EffectiveAt,
		DocumentURL: a.DocumentURL,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
