package carrier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/policy-admin/internal/config"
	errorutil "github.com/spec-kit/policy-admin/pkg/util/errorutil"
)

func testRateClient(t *testing.T, handler http.HandlerFunc) *RateCartClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewRateCartClient(config.CarrierConfig{
		BaseURL:    srv.URL,
		RateAPIKey: "key-123",
	}, zap.NewNop())
}

func sampleRateRequest() RateRequest {
	return RateRequest{
		AgentID: "AG1",
		Zip:     "78701",
		State:   "TX",
		Applicants: []Applicant{
			{Relationship: "self", BirthDate: time.Date(1985, 6, 1, 0, 0, 0, 0, time.UTC), Gender: "F"},
			{Relationship: "spouse", BirthDate: time.Date(1984, 2, 10, 0, 0, 0, 0, time.UTC), Gender: "M"},
			{Relationship: "child", BirthDate: time.Date(2015, 9, 20, 0, 0, 0, 0, time.UTC), Gender: "M"},
		},
		Plans: []PlanSelection{{PlanKey: "PLAN-A", ProductCode: "PC1"}},
	}
}

func TestRatePriceFallbackToTotalRate(t *testing.T) {
	var apiKey string
	client := testRateClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("X-Api-Key")
		assert.Equal(t, "/RateCartAPI/api/RateCart", r.URL.Path)
		_, _ = w.Write([]byte(`{"plans":[{"planKey":"PLAN-A","insuranceRate":0,"monthlyPremium":null,"rate":0,"totalRate":120}]}`))
	})

	quotes, err := client.Rate(context.Background(), sampleRateRequest())
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, 120.0, quotes[0].Premium, "zero prices are skipped, totalRate wins")
	assert.Equal(t, "PLAN-A", quotes[0].PlanKey)
	assert.Equal(t, "key-123", apiKey)
}

func TestRatePrefersInsuranceRate(t *testing.T) {
	client := testRateClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"plans":[{"planKey":"PLAN-A","insuranceRate":95.5,"monthlyPremium":110,"totalRate":120}]}`))
	})

	quotes, err := client.Rate(context.Background(), sampleRateRequest())
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, 95.5, quotes[0].Premium)
}

func TestRateSyntheticMemberIDs(t *testing.T) {
	var captured rateCartRequest
	client := testRateClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		_, _ = w.Write([]byte(`{"plans":[{"planKey":"PLAN-A","insuranceRate":100}]}`))
	})

	_, err := client.Rate(context.Background(), sampleRateRequest())
	require.NoError(t, err)

	require.Len(t, captured.Applicants, 3)
	assert.Equal(t, "primary-001", captured.Applicants[0].MemberID)
	assert.Equal(t, "additional-001", captured.Applicants[1].MemberID)
	assert.Equal(t, "additional-002", captured.Applicants[2].MemberID)
	assert.Equal(t, "Primary", captured.Applicants[0].Relationship)
	assert.Equal(t, "Spouse", captured.Applicants[1].Relationship)
	assert.Equal(t, "Dependent", captured.Applicants[2].Relationship)
	assert.Equal(t, "Standard", captured.Applicants[0].RateTier)
}

func TestRateMatchesByProductCode(t *testing.T) {
	client := testRateClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"plans":[{"planKey":"OTHER-KEY","productCode":"PC1","monthlyPremium":88}]}`))
	})

	quotes, err := client.Rate(context.Background(), sampleRateRequest())
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, 88.0, quotes[0].Premium)
}

func TestRateNoMatchingPlan(t *testing.T) {
	client := testRateClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"plans":[{"planKey":"PLAN-Z","productCode":"PCZ","insuranceRate":50}]}`))
	})

	_, err := client.Rate(context.Background(), sampleRateRequest())
	require.Error(t, err)

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UPSTREAM_ERROR", domainErr.Code)
	assert.Contains(t, domainErr.Message, "no plan matching PLAN-A/PC1")
}

func TestRateNoUsablePrice(t *testing.T) {
	client := testRateClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"plans":[{"planKey":"PLAN-A","insuranceRate":0,"rate":0,"totalRate":0}]}`))
	})

	_, err := client.Rate(context.Background(), sampleRateRequest())
	require.Error(t, err)

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Contains(t, domainErr.Message, "no usable price for plan PLAN-A")
}

func TestRateUpstreamFailure(t *testing.T) {
	client := testRateClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`[{"errorCode":"RC-3","errorDetail":"\"zip not serviceable\""}]`))
	})

	_, err := client.Rate(context.Background(), sampleRateRequest())
	require.Error(t, err)

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, 400, domainErr.Details["upstream_status"])
	assert.Contains(t, domainErr.Message, "RC-3: zip not serviceable")
}

func TestExtractPriceOrder(t *testing.T) {
	v := func(f float64) *float64 { return &f }

	price, ok := extractPrice(ratedPlan{InsuranceRate: v(10), MonthlyPremium: v(20)})
	require.True(t, ok)
	assert.Equal(t, 10.0, price)

	price, ok = extractPrice(ratedPlan{MonthlyPremium: v(20), Rate: v(30)})
	require.True(t, ok)
	assert.Equal(t, 20.0, price)

	price, ok = extractPrice(ratedPlan{Rate: v(30), TotalRate: v(40)})
	require.True(t, ok)
	assert.Equal(t, 30.0, price)

	_, ok = extractPrice(ratedPlan{InsuranceRate: v(0)})
	assert.False(t, ok, "zero is treated as absent")

	_, ok = extractPrice(ratedPlan{})
	assert.False(t, ok)
}
