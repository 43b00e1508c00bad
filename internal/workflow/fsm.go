// Package workflow holds the authoritative status-transition table for
// submissions. Every status change in the system is validated here; no other
// component special-cases a transition.
package workflow

import (
	"fmt"

	"simkah/internal/domain"
	id "simkah/pkg/domain"
	dErrors "simkah/pkg/domain-errors"
)

// transitions maps (current status, role) to the permitted next statuses.
// The table is data: changing the workflow means editing this map, nothing
// else. An identical current→current move is always a permitted no-op and is
// handled in code, not listed here.
var transitions = map[domain.Status]map[id.Role][]domain.Status{
	domain.StatusDraft: {
		id.RoleClerk: {domain.StatusSubmitted},
	},
	domain.StatusSubmitted: {
		id.RoleOperator: {domain.StatusProcessing, domain.StatusNeedsRevision},
		id.RoleVerifier: {domain.StatusProcessing, domain.StatusNeedsRevision},
	},
	domain.StatusNeedsRevision: {
		id.RoleClerk: {domain.StatusSubmitted},
	},
	domain.StatusProcessing: {
		id.RoleOperator: {domain.StatusPendingVerification, domain.StatusNeedsRevision},
		id.RoleVerifier: {domain.StatusPendingVerification, domain.StatusNeedsRevision},
	},
	domain.StatusPendingVerification: {
		id.RoleVerifier: {domain.StatusApproved, domain.StatusRejected},
	},
	// APPROVED and REJECTED are terminal: no entries.
}

// NextStatuses returns the statuses the given role may move the submission
// to from the current status. The result never includes the no-op
// self-transition.
func NextStatuses(current domain.Status, role id.Role) []domain.Status {
	next := transitions[current][role]
	out := make([]domain.Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether the role may move a submission from current
// to target. A same-status move is always allowed.
func CanTransition(current, target domain.Status, role id.Role) bool {
	if current == target {
		return true
	}
	for _, allowed := range transitions[current][role] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ValidateTransition returns nil when the move is legal, otherwise an
// InvalidTransition error carrying the current status, the attempted status,
// and the role's legal next set so callers can present an actionable message.
func ValidateTransition(current, target domain.Status, role id.Role) error {
	if CanTransition(current, target, role) {
		return nil
	}
	legal := NextStatuses(current, role)
	return dErrors.New(dErrors.CodeInvalidTransition,
		fmt.Sprintf("role %s cannot move a submission from %s to %s", role, current, target)).
		WithDetail("current_status", current.String()).
		WithDetail("attempted_status", target.String()).
		WithDetail("allowed_next", statusStrings(legal))
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = s.String()
	}
	return out
}
