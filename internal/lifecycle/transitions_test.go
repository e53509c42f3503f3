package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/policy-admin/internal/domain"
	errorutil "github.com/spec-kit/policy-admin/pkg/util/errorutil"
)

var allStatuses = []domain.ApplicationStatus{
	domain.StatusDraft,
	domain.StatusSubmitted,
	domain.StatusPendingApproval,
	domain.StatusApproved,
	domain.StatusActive,
	domain.StatusRejected,
	domain.StatusCancelled,
}

func TestCanTransitionGraphClosure(t *testing.T) {
	allowed := map[[2]domain.ApplicationStatus]bool{
		{domain.StatusDraft, domain.StatusSubmitted}:                  true,
		{domain.StatusDraft, domain.StatusCancelled}:                  true,
		{domain.StatusSubmitted, domain.StatusPendingApproval}:        true,
		{domain.StatusSubmitted, domain.StatusRejected}:               true,
		{domain.StatusSubmitted, domain.StatusCancelled}:              true,
		{domain.StatusPendingApproval, domain.StatusApproved}:         true,
		{domain.StatusPendingApproval, domain.StatusRejected}:         true,
		{domain.StatusPendingApproval, domain.StatusCancelled}:        true,
		{domain.StatusApproved, domain.StatusActive}:                  true,
		{domain.StatusApproved, domain.StatusCancelled}:               true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := allowed[[2]domain.ApplicationStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransitionSelfNeverAllowed(t *testing.T) {
	for _, status := range allStatuses {
		assert.False(t, CanTransition(status, status), "%s -> %s", status, status)
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []domain.ApplicationStatus{domain.StatusActive, domain.StatusRejected, domain.StatusCancelled} {
		for _, to := range allStatuses {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestValidateMessages(t *testing.T) {
	err := Validate(domain.StatusSubmitted, domain.StatusSubmitted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in state submitted")

	err = Validate(domain.StatusSubmitted, domain.StatusActive)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot move application from submitted to active")

	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "STATE_CONFLICT", domainErr.Code)

	err = Validate(domain.StatusDraft, domain.ApplicationStatus("bogus"))
	require.Error(t, err)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)

	assert.NoError(t, Validate(domain.StatusDraft, domain.StatusSubmitted))
	assert.NoError(t, Validate(domain.StatusPendingApproval, domain.StatusApproved))
}

func TestValidateCancel(t *testing.T) {
	for _, status := range []domain.ApplicationStatus{domain.StatusDraft, domain.StatusSubmitted, domain.StatusPendingApproval, domain.StatusApproved} {
		assert.NoError(t, ValidateCancel(status), "%s should be cancellable", status)
	}
	for _, status := range []domain.ApplicationStatus{domain.StatusActive, domain.StatusRejected, domain.StatusCancelled} {
		err := ValidateCancel(status)
		require.Error(t, err, "%s should not be cancellable", status)
		assert.Contains(t, err.Error(), "cannot cancel an application in state "+string(status))
	}
}
