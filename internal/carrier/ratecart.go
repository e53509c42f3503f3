package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/policy-admin/internal/config"
	errorutil "github.com/spec-kit/policy-admin/pkg/util/errorutil"
)

// RateRequest asks the carrier to re-rate plans for a set of applicants.
type RateRequest struct {
	AgentID    string
	Zip        string
	State      string
	Applicants []Applicant
	Plans      []PlanSelection
}

type rateCartRequest struct {
	AgentID    string              `json:"agentId"`
	Zip        string              `json:"zip"`
	State      string              `json:"state"`
	Applicants []rateApplicant     `json:"applicants"`
	Plans      []ratePlanSelection `json:"plans"`
}

type rateApplicant struct {
	MemberID     string `json:"memberId"`
	BirthDate    string `json:"birthDate"`
	Gender       string `json:"gender"`
	Relationship string `json:"relationship"`
	Smoker       bool   `json:"smoker"`
	RateTier     string `json:"rateTier"`
}

type ratePlanSelection struct {
	PlanKey     string `json:"planKey"`
	ProductCode string `json:"productCode"`
}

type rateCartResponse struct {
	Plans []ratedPlan `json:"plans"`
}

// ratedPlan uses pointers so an absent price field is distinguishable from a
// zero one.
type ratedPlan struct {
	PlanKey        string   `json:"planKey"`
	ProductCode    string   `json:"productCode"`
	InsuranceRate  *float64 `json:"insuranceRate"`
	MonthlyPremium *float64 `json:"monthlyPremium"`
	Rate           *float64 `json:"rate"`
	TotalRate      *float64 `json:"totalRate"`
}

// RateCartClient recomputes premiums through the carrier's rate-cart API.
type RateCartClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRateCartClient constructs the client.
func NewRateCartClient(cfg config.CarrierConfig, logger *zap.Logger) *RateCartClient {
	return &RateCartClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.RateAPIKey,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Rate re-rates the requested plans. Each requested plan must match a plan in
// the response by planKey or productCode and carry a non-zero price.
func (c *RateCartClient) Rate(ctx context.Context, req RateRequest) ([]Quote, error) {
	body, err := json.Marshal(buildRateRequest(req))
	if err != nil {
		return nil, errorutil.MapError(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/RateCartAPI/api/RateCart", bytes.NewReader(body))
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errorutil.NewUpstreamError(fmt.Sprintf("rate cart request failed: %v", err), 0)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errorutil.NewUpstreamError("rate cart response unreadable", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeCarrierError(resp.StatusCode, respBody)
	}

	var rated rateCartResponse
	if err := json.Unmarshal(respBody, &rated); err != nil {
		return nil, errorutil.NewUpstreamError("rate cart response not decodable", resp.StatusCode)
	}
	if c.logger != nil {
		c.logger.Debug("rate cart response",
			zap.String("agent_id", req.AgentID),
			zap.Int("plans", len(rated.Plans)))
	}

	quotes := make([]Quote, 0, len(req.Plans))
	for _, plan := range req.Plans {
		matched, ok := matchPlan(rated.Plans, plan)
		if !ok {
			return nil, errorutil.NewUpstreamError(
				fmt.Sprintf("rate cart response has no plan matching %s/%s", plan.PlanKey, plan.ProductCode),
				resp.StatusCode)
		}
		price, ok := extractPrice(matched)
		if !ok {
			return nil, errorutil.NewUpstreamError(
				fmt.Sprintf("rate cart returned no usable price for plan %s", plan.PlanKey),
				resp.StatusCode)
		}
		quotes = append(quotes, Quote{
			PlanKey:     plan.PlanKey,
			ProductCode: plan.ProductCode,
			Premium:     price,
		})
	}
	return quotes, nil
}

func buildRateRequest(req RateRequest) rateCartRequest {
	applicants := make([]rateApplicant, 0, len(req.Applicants))
	for i, a := range req.Applicants {
		applicants = append(applicants, rateApplicant{
			MemberID:     syntheticMemberID(a.MemberID, i),
			BirthDate:    a.BirthDate.Format(dateLayout),
			Gender:       a.Gender,
			Relationship: NormalizeRelationship(a.Relationship),
			Smoker:       a.Smoker,
			RateTier:     defaultRateTier(a.RateTier),
		})
	}
	plans := make([]ratePlanSelection, 0, len(req.Plans))
	for _, plan := range req.Plans {
		plans = append(plans, ratePlanSelection{PlanKey: plan.PlanKey, ProductCode: plan.ProductCode})
	}
	return rateCartRequest{
		AgentID:    req.AgentID,
		Zip:        req.Zip,
		State:      req.State,
		Applicants: applicants,
		Plans:      plans,
	}
}

// syntheticMemberID fills in member ids when intake did not supply them:
// primary-001 for the first applicant, additional-00N for the rest.
func syntheticMemberID(supplied string, index int) string {
	if supplied != "" {
		return supplied
	}
	if index == 0 {
		return "primary-001"
	}
	return fmt.Sprintf("additional-%03d", index)
}

func defaultRateTier(tier string) string {
	if tier == "" {
		return "Standard"
	}
	return tier
}

func matchPlan(plans []ratedPlan, want PlanSelection) (ratedPlan, bool) {
	for _, plan := range plans {
		if want.PlanKey != "" && plan.PlanKey == want.PlanKey {
			return plan, true
		}
		if want.ProductCode != "" && plan.ProductCode == want.ProductCode {
			return plan, true
		}
	}
	return ratedPlan{}, false
}

// extractPrice walks the fallback priority order. Zero prices are treated as
// absent.
func extractPrice(plan ratedPlan) (float64, bool) {
	for _, candidate := range []*float64{plan.InsuranceRate, plan.MonthlyPremium, plan.Rate, plan.TotalRate} {
		if candidate != nil && *candidate != 0 {
			return *candidate, true
		}
	}
	return 0, false
}
