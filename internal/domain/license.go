package domain

import "time"

// CredentialStatus covers both licenses and carrier appointments.
type CredentialStatus string

const (
	CredentialActive     CredentialStatus = "active"
	CredentialPending    CredentialStatus = "pending"
	CredentialExpired    CredentialStatus = "expired"
	CredentialTerminated CredentialStatus = "terminated"
)

// License is a per-agent, per-jurisdiction producer license.
type License struct {
	ID            string
	AgentID       string
	State         string
	LicenseNumber string
	Status        CredentialStatus
	ExpiresAt     *time.Time
	DocumentURL   *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Appointment is a per-agent carrier appointment in one jurisdiction.
type Appointment struct {
	ID          string
	AgentID     string
	CarrierName string
	State       string
	Status      CredentialStatus
	EffectiveAt *time.Time
	DocumentURL *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
