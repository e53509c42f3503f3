package domain

import "time"

// ApplicationStatus enumerates lifecycle states for insurance applications.
type ApplicationStatus string

const (
	StatusDraft           ApplicationStatus = "draft"
	StatusSubmitted       ApplicationStatus = "submitted"
	StatusPendingApproval ApplicationStatus = "pending_approval"
	StatusApproved        ApplicationStatus = "approved"
	StatusActive          ApplicationStatus = "active"
	StatusRejected        ApplicationStatus = "rejected"
	StatusCancelled       ApplicationStatus = "cancelled"
)

// Valid reports whether the status is one of the closed set.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusPendingApproval, StatusApproved,
		StatusActive, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Application is the aggregate for an insurance enrollment request.
// Applications are never hard-deleted; cancellation is a status.
type Application struct {
	ID                 string
	UserID             string
	AgentID            *string
	CarrierName        string
	Status             ApplicationStatus
	StatusChangedBy    *string
	StatusChangedAt    *time.Time
	StatusChangeReason *string
	EffectiveDate      *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Applicants        []Applicant
	Coverages         []Coverage
	Beneficiaries     []Beneficiary
	SubmissionResults []SubmissionResult
}

// Applicant is a covered person on an application. Relationship is free-form
// on intake and normalized only at the carrier boundary.
type Applicant struct {
	ID            string
	ApplicationID string
	FirstName     string
	LastName      string
	Gender        string
	Relationship  string
	BirthDate     time.Time
	Smoker        bool
	RateTier      string
	Email         *string
	Phone         *string
	CreatedAt     time.Time
}

// Coverage selects a carrier plan on an application.
type Coverage struct {
	ID             string
	ApplicationID  string
	PlanKey        string
	ProductCode    string
	CoverageAmount float64
	Premium        float64
	CreatedAt      time.Time
}

// Beneficiary designates a payout recipient.
type Beneficiary struct {
	ID            string
	ApplicationID string
	FirstName     string
	LastName      string
	Relationship  string
	Percentage    int
	CreatedAt     time.Time
}

// SubmissionResult records a carrier submission outcome.
type SubmissionResult struct {
	ID            string
	ApplicationID string
	PolicyNumber  *string
	Status        string
	RawResponse   []byte
	SubmittedAt   time.Time
}
