package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/policy-admin/internal/config"
	errorutil "github.com/spec-kit/policy-admin/pkg/util/errorutil"
)

const dateLayout = "2006-01-02"

// Wire structs below mirror the carrier's documented contract. The carrier
// validates field order and naming strictly; struct declaration order is the
// emission order, so keep these in contract order.

type enrollmentPayload struct {
	AgentID       string             `json:"agentId"`
	EffectiveDate string             `json:"effectiveDate"`
	SignatureDate string             `json:"signatureDate"`
	Applicants    []applicantPayload `json:"applicants"`
	Address       addressPayload     `json:"address"`
	Payment       paymentPayload     `json:"payment"`
	Plans         []planPayload      `json:"plans"`
}

type applicantPayload struct {
	MemberID     string `json:"memberId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Gender       string `json:"gender"`
	Relationship string `json:"relationship"`
	BirthDate    string `json:"birthDate"`
	Smoker       bool   `json:"smoker"`
	RateTier     string `json:"rateTier"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

type addressPayload struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

type paymentPayload struct {
	CreditCard *cardPayload `json:"creditCard,omitempty"`
	Bank       *bankPayload `json:"bank,omitempty"`
}

type cardPayload struct {
	CardNumber string `json:"cardNumber"`
	ExpMonth   int    `json:"expMonth"`
	ExpYear    int    `json:"expYear"`
	CVV        string `json:"cvv"`
	Brand      string `json:"brand"`
}

type bankPayload struct {
	RoutingNumber string `json:"routingNumber"`
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
	DraftDay      int    `json:"draftDay"`
}

type planPayload struct {
	PlanKey     string  `json:"planKey"`
	ProductCode string  `json:"productCode"`
	Premium     float64 `json:"premium"`
}

// EnrollmentClient submits adapted enrollments to the carrier.
type EnrollmentClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewEnrollmentClient constructs the client.
func NewEnrollmentClient(cfg config.CarrierConfig, logger *zap.Logger) *EnrollmentClient {
	return &EnrollmentClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authToken:  cfg.BasicAuthToken,
		httpClient: &http.Client{},
		logger:     logger,
		now:        time.Now,
	}
}

// Submit adapts the enrollment to the carrier wire format and posts it.
// Non-2xx responses come back as upstream errors with a decoded message.
func (c *EnrollmentClient) Submit(ctx context.Context, enrollment Enrollment) (*EnrollmentResponse, error) {
	payload, err := c.buildPayload(enrollment)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errorutil.MapError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Enrollment", bytes.NewReader(body))
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errorutil.NewUpstreamError(fmt.Sprintf("carrier enrollment request failed: %v", err), 0)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errorutil.NewUpstreamError("carrier enrollment response unreadable", resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeCarrierError(resp.StatusCode, respBody)
	}

	var result EnrollmentResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, errorutil.NewUpstreamError("carrier enrollment response not decodable", resp.StatusCode)
	}
	result.Raw = respBody
	return &result, nil
}

func (c *EnrollmentClient) buildPayload(enrollment Enrollment) (*enrollmentPayload, error) {
	if enrollment.Payment.Card != nil && enrollment.Payment.Bank != nil {
		return nil, errorutil.NewValidationError("enrollment payment must be card or bank, not both", nil)
	}

	effective := c.adjustEffectiveDate(enrollment.ApplicationID, enrollment.EffectiveDate)

	applicants := make([]applicantPayload, 0, 1+len(enrollment.Additional))
	applicants = append(applicants, adaptApplicant(enrollment.Primary))
	for _, a := range enrollment.Additional {
		applicants = append(applicants, adaptApplicant(a))
	}

	payload := &enrollmentPayload{
		AgentID:       enrollment.AgentID,
		EffectiveDate: effective.Format(dateLayout),
		SignatureDate: stripSubSecond(enrollment.SignatureDate),
		Applicants:    applicants,
		Address: addressPayload{
			Address: enrollment.Address.Line1,
			City:    enrollment.Address.City,
			State:   enrollment.Address.State,
			Zip:     enrollment.Address.Zip,
		},
	}

	switch enrollment.Payment.Method {
	case PaymentCard:
		if enrollment.Payment.Card == nil {
			return nil, errorutil.NewValidationError("card payment details required", nil)
		}
		card := enrollment.Payment.Card
		payload.Payment.CreditCard = &cardPayload{
			CardNumber: card.Number,
			ExpMonth:   card.ExpMonth,
			ExpYear:    card.ExpYear,
			CVV:        card.CVV,
			Brand:      card.Brand,
		}
	case PaymentBank:
		if enrollment.Payment.Bank == nil {
			return nil, errorutil.NewValidationError("bank payment details required", nil)
		}
		bank := enrollment.Payment.Bank
		payload.Payment.Bank = &bankPayload{
			RoutingNumber: bank.RoutingNumber,
			AccountNumber: bank.AccountNumber,
			BankName:      bank.BankName,
			DraftDay:      bank.DraftDay,
		}
	default:
		return nil, errorutil.NewValidationError(fmt.Sprintf("unknown payment method %q", enrollment.Payment.Method), nil)
	}

	for _, plan := range enrollment.Plans {
		payload.Plans = append(payload.Plans, planPayload{
			PlanKey:     plan.PlanKey,
			ProductCode: plan.ProductCode,
			Premium:     plan.Premium,
		})
	}

	return payload, nil
}

// adjustEffectiveDate advances a same-day-or-earlier effective date to
// tomorrow. The carrier rejects effective dates that are not strictly in the
// future; the adjustment is logged so it never happens invisibly.
func (c *EnrollmentClient) adjustEffectiveDate(applicationID string, requested time.Time) time.Time {
	today := c.now().Truncate(24 * time.Hour)
	requestedDay := requested.Truncate(24 * time.Hour)
	if requestedDay.After(today) {
		return requested
	}
	adjusted := today.AddDate(0, 0, 1)
	if c.logger != nil {
		c.logger.Warn("effective date adjusted to tomorrow",
			zap.String("application_id", applicationID),
			zap.String("requested", requested.Format(dateLayout)),
			zap.String("adjusted", adjusted.Format(dateLayout)))
	}
	return adjusted
}

func adaptApplicant(a Applicant) applicantPayload {
	tier := a.RateTier
	if tier == "" {
		tier = "Standard"
	}
	return applicantPayload{
		MemberID:     a.MemberID,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Gender:       a.Gender,
		Relationship: NormalizeRelationship(a.Relationship),
		BirthDate:    a.BirthDate.Format(dateLayout),
		Smoker:       a.Smoker,
		RateTier:     tier,
		Email:        a.Email,
		Phone:        a.Phone,
	}
}

// NormalizeRelationship maps free-form relationship strings into the
// carrier's closed enum. Unrecognized values become Dependent.
func NormalizeRelationship(relationship string) string {
	switch strings.ToLower(strings.TrimSpace(relationship)) {
	case "self", "primary":
		return "Primary"
	case "spouse", "wife", "husband":
		return "Spouse"
	default:
		return "Dependent"
	}
}

// stripSubSecond renders an ISO timestamp without fractional seconds. The
// carrier rejects millisecond precision.
func stripSubSecond(t time.Time) string {
	return t.Truncate(time.Second).Format(time.RFC3339)
}

type carrierErrorItem struct {
	ErrorCode   string `json:"errorCode"`
	ErrorDetail string `json:"errorDetail"`
}

const rawErrorLimit = 300

// decodeCarrierError walks the carrier's error shapes: an array of
// {errorCode, errorDetail} where errorDetail is a JSON-encoded string, a
// single object, then raw text. Always yields a single-line message plus the
// original status code.
func decodeCarrierError(status int, body []byte) error {
	var items []carrierErrorItem
	if err := json.Unmarshal(body, &items); err == nil && len(items) > 0 {
		return errorutil.NewUpstreamError(formatCarrierErrors(status, items), status)
	}

	var single carrierErrorItem
	if err := json.Unmarshal(body, &single); err == nil && (single.ErrorCode != "" || single.ErrorDetail != "") {
		return errorutil.NewUpstreamError(formatCarrierErrors(status, []carrierErrorItem{single}), status)
	}

	text := strings.Join(strings.Fields(string(body)), " ")
	if len(text) > rawErrorLimit {
		text = text[:rawErrorLimit]
	}
	if text == "" {
		text = "no response body"
	}
	return errorutil.NewUpstreamError(fmt.Sprintf("carrier returned %d: %s", status, text), status)
}

func formatCarrierErrors(status int, items []carrierErrorItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		detail := decodeErrorDetail(item.ErrorDetail)
		if item.ErrorCode != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", item.ErrorCode, detail))
		} else {
			parts = append(parts, detail)
		}
	}
	return fmt.Sprintf("carrier returned %d: %s", status, strings.Join(parts, "; "))
}

// decodeErrorDetail handles the double-encoded detail payloads some carrier
// responses carry.
func decodeErrorDetail(detail string) string {
	trimmed := strings.TrimSpace(detail)
	if trimmed == "" {
		return "unknown error"
	}
	var nested map[string]any
	if err := json.Unmarshal([]byte(trimmed), &nested); err == nil {
		if msg, ok := nested["message"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := nested["error"].(string); ok && msg != "" {
			return msg
		}
	}
	var nestedStr string
	if err := json.Unmarshal([]byte(trimmed), &nestedStr); err == nil && nestedStr != "" {
		return nestedStr
	}
	return strings.Join(strings.Fields(trimmed), " ")
}
