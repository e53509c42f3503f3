package carrier

import "time"

// PaymentMethod discriminates the payment sub-object on an enrollment.
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentBank PaymentMethod = "bank"
)

// Enrollment is the internal representation handed to the carrier adapter.
type Enrollment struct {
	ApplicationID string
	AgentID       string
	EffectiveDate time.Time
	SignatureDate time.Time
	Primary       Applicant
	Additional    []Applicant
	Address       Address
	Payment       Payment
	Plans         []PlanSelection
}

// Applicant carries the fields the carrier rates and enrolls on.
type Applicant struct {
	MemberID     string
	FirstName    string
	LastName     string
	Gender       string
	Relationship string
	BirthDate    time.Time
	Smoker       bool
	RateTier     string
	Email        string
	Phone        string
}

// Address is the internal mailing address. Line2 and AltPhone are dropped at
// the carrier boundary.
type Address struct {
	Line1    string
	Line2    string
	City     string
	State    string
	Zip      string
	AltPhone string
}

// Payment holds exactly one of Card or Bank depending on Method.
type Payment struct {
	Method PaymentMethod
	Card   *CardPayment
	Bank   *BankPayment
}

// CardPayment is a credit card instrument.
type CardPayment struct {
	Number   string
	ExpMonth int
	ExpYear  int
	CVV      string
	Brand    string
}

// BankPayment is an ACH instrument.
type BankPayment struct {
	RoutingNumber string
	AccountNumber string
	BankName      string
	DraftDay      int
}

// PlanSelection identifies a carrier plan to enroll or re-rate.
type PlanSelection struct {
	PlanKey     string
	ProductCode string
	Premium     float64
}

// Quote is a re-rated premium for one plan.
type Quote struct {
	PlanKey     string
	ProductCode string
	Premium     float64
}

// EnrollmentResponse is the carrier's success payload.
type EnrollmentResponse struct {
	PolicyNumber string `json:"policyNumber"`
	Status       string `json:"status"`
	Raw          []byte `json:"-"`
}
