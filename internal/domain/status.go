package domain

import dErrors "simkah/pkg/domain-errors"

// Status represents the lifecycle state of a submission.
// Transitions between statuses go through internal/workflow; nothing else
// writes Status directly.
type Status string

const (
	// StatusDraft is the initial state; the dossier is editable by its creator.
	StatusDraft Status = "DRAFT"
	// StatusSubmitted means the dossier passed both gates and sits in the
	// shared work queue awaiting a claim.
	StatusSubmitted Status = "SUBMITTED"
	// StatusNeedsRevision means an operator returned the dossier to the
	// clerk for correction.
	StatusNeedsRevision Status = "NEEDS_REVISION"
	// StatusProcessing means an operator holds the exclusive claim.
	StatusProcessing Status = "PROCESSING"
	// StatusPendingVerification means processing finished and a verifier
	// decision is awaited.
	StatusPendingVerification Status = "PENDING_VERIFICATION"
	// StatusApproved is terminal.
	StatusApproved Status = "APPROVED"
	// StatusRejected is terminal.
	StatusRejected Status = "REJECTED"
)

var validStatuses = map[Status]bool{
	StatusDraft:               true,
	StatusSubmitted:           true,
	StatusNeedsRevision:       true,
	StatusProcessing:          true,
	StatusPendingVerification: true,
	StatusApproved:            true,
	StatusRejected:            true,
}

// ParseStatus constructs a Status from external input.
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := Status(s)
	if !validStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool { return validStatuses[s] }

// IsTerminal reports whether the status admits no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// IsEditable reports whether the dossier content (marriage data, documents)
// may be replaced while in this status.
func (s Status) IsEditable() bool {
	return s == StatusDraft || s == StatusRejected || s == StatusNeedsRevision
}

func (s Status) String() string { return string(s) }
