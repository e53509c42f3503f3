package dto

import (
	"time"

	"github.com/spec-kit/policy-admin/internal/domain"
)

// ApplicantRequest payload.
type ApplicantRequest struct {
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Gender       string    `json:"gender"`
	Relationship string    `json:"relationship"`
	BirthDate    time.Time `json:"birth_date"`
	Smoker       bool      `json:"smoker"`
	RateTier     string    `json:"rate_tier"`
	Email        *string   `json:"email"`
	Phone        *string   `json:"phone"`
}

// CoverageRequest payload.
type CoverageRequest struct {
	PlanKey        string  `json:"plan_key"`
	ProductCode    string  `json:"product_code"`
	CoverageAmount float64 `json:"coverage_amount"`
	Premium        float64 `json:"premium"`
}

// BeneficiaryRequest payload.
type BeneficiaryRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Relationship string `json:"relationship"`
	Percentage   int    `json:"percentage"`
}

// CreateApplicationRequest payload.
type CreateApplicationRequest struct {
	UserID        string               `json:"user_id"`
	AgentID       *string              `json:"agent_id"`
	CarrierName   string               `json:"carrier_name"`
	EffectiveDate *time.Time           `json:"effective_date"`
	Applicants    []ApplicantRequest   `json:"applicants"`
	Coverages     []CoverageRequest    `json:"coverages"`
	Beneficiaries []BeneficiaryRequest `json:"beneficiaries"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.ApplicationStatus `json:"status"`
	Reason string                   `json:"reason"`
}

// CancelRequest payload.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// SubmitRequest carries submission-time payment and address details.
type SubmitRequest struct {
	Address AddressRequest `json:"address"`
	Payment PaymentRequest `json:"payment"`
}

// AddressRequest payload.
type AddressRequest struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	AltPhone string `json:"alt_phone"`
}

// PaymentRequest payload; exactly one of card or bank must be set.
type PaymentRequest struct {
	Method string       `json:"method"`
	Card   *CardRequest `json:"card,omitempty"`
	Bank   *BankRequest `json:"bank,omitempty"`
}

// CardRequest payload.
type CardRequest struct {
	Number   string `json:"number"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	CVV      string `json:"cvv"`
	Brand    string `json:"brand"`
}

// BankRequest payload.
type BankRequest struct {
	RoutingNumber string `json:"routing_number"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	DraftDay      int    `json:"draft_day"`
}

// ApplicationSummary response.
type ApplicationSummary struct {
	ID              string                   `json:"id"`
	UserID          string                   `json:"user_id"`
	AgentID         *string                  `json:"agent_id"`
	CarrierName     string                   `json:"carrier_name"`
	Status          domain.ApplicationStatus `json:"status"`
	StatusChangedAt *time.Time               `json:"status_changed_at"`
	EffectiveDate   *time.Time               `json:"effective_date"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// ApplicationDetail response.
type ApplicationDetail struct {
	ApplicationSummary
	StatusChangedBy    *string                    `json:"status_changed_by"`
	StatusChangeReason *string                    `json:"status_change_reason"`
	Applicants         []ApplicantResponse        `json:"applicants"`
	Coverages          []CoverageResponse         `json:"coverages"`
	Beneficiaries      []BeneficiaryResponse      `json:"beneficiaries"`
	SubmissionResults  []SubmissionResultResponse `json:"submission_results"`
}

// ApplicantResponse response.
type ApplicantResponse struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Gender       string    `json:"gender"`
	Relationship string    `json:"relationship"`
	BirthDate    time.Time `json:"birth_date"`
	Smoker       bool      `json:"smoker"`
	RateTier     string    `json:"rate_tier"`
}

// CoverageResponse response.
type CoverageResponse struct {
	ID             string  `json:"id"`
	PlanKey        string  `json:"plan_key"`
	ProductCode    string  `json:"product_code"`
	CoverageAmount float64 `json:"coverage_amount"`
	Premium        float64 `json:"premium"`
}

// BeneficiaryResponse response.
type BeneficiaryResponse struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Relationship string `json:"relationship"`
	Percentage   int    `json:"percentage"`
}

// SubmissionResultResponse response.
type SubmissionResultResponse struct {
	ID           string    `json:"id"`
	PolicyNumber *string   `json:"policy_number"`
	Status       string    `json:"status"`
	SubmittedAt  time.Time `json:"submitted_at"`
}
