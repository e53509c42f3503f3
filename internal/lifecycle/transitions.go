package lifecycle

import (
	"fmt"

	"github.com/spec-kit/policy-admin/internal/domain"
	errorutil "github.com/spec-kit/policy-admin/pkg/util/errorutil"
)

var allowedTransitions = map[domain.ApplicationStatus][]domain.ApplicationStatus{
	domain.StatusDraft:           {domain.StatusSubmitted, domain.StatusCancelled},
	domain.StatusSubmitted:       {domain.StatusPendingApproval, domain.StatusRejected, domain.StatusCancelled},
	domain.StatusPendingApproval: {domain.StatusApproved, domain.StatusRejected, domain.StatusCancelled},
	domain.StatusApproved:        {domain.StatusActive, domain.StatusCancelled},
	domain.StatusActive:          {},
	domain.StatusRejected:        {},
	domain.StatusCancelled:       {},
}

// CanTransition reports whether the status graph allows from -> to.
// Self-transitions are never allowed.
func CanTransition(from, to domain.ApplicationStatus) bool {
	if from == to {
		return false
	}
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Validate returns a state-conflict error naming the blocking condition when
// the transition is not in the allowed graph.
func Validate(from, to domain.ApplicationStatus) error {
	if !to.Valid() {
		return errorutil.NewValidationError(fmt.Sprintf("unknown application status %q", to), nil)
	}
	if from == to {
		return errorutil.NewStateConflict(
			fmt.Sprintf("application is already in state %s", from),
			map[string]any{"status": from})
	}
	if !CanTransition(from, to) {
		return errorutil.NewStateConflict(
			fmt.Sprintf("cannot move application from %s to %s", from, to),
			map[string]any{"from": from, "to": to})
	}
	return nil
}

// ValidateCancel enforces the cancellation guard: active, rejected and
// already-cancelled applications cannot be cancelled.
func ValidateCancel(from domain.ApplicationStatus) error {
	switch from {
	case domain.StatusActive, domain.StatusRejected, domain.StatusCancelled:
		return errorutil.NewStateConflict(
			fmt.Sprintf("cannot cancel an application in state %s", from),
			map[string]any{"status": from})
	}
	return nil
}
