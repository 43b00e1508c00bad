package audit

import (
	"time"

	id "simkah/pkg/domain"
)

// Action names the workflow fact an event records.
type Action string

const (
	ActionSubmissionCreated   Action = "submission.created"
	ActionSubmissionUpdated   Action = "submission.updated"
	ActionSubmissionSubmitted Action = "submission.submitted"
	ActionSubmissionClaimed   Action = "submission.claimed"
	ActionSubmissionReturned  Action = "submission.returned"
	ActionSubmissionForwarded Action = "submission.forwarded"
	ActionSubmissionDecided   Action = "submission.decided"
)

// Event is emitted from workflow logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// The submission's own status log is the authoritative history and is
// written atomically with each transition; this event stream is the
// read-only monitoring feed layered on top.
type Event struct {
	Timestamp      time.Time       `json:"timestamp"`
	SubmissionID   id.SubmissionID `json:"submission_id"`
	ActorID        id.ActorID      `json:"actor_id"`
	ActorRole      string          `json:"actor_role"`
	Action         Action          `json:"action"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	NewStatus      string          `json:"new_status,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}
