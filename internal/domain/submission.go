package domain

import (
	"time"

	id "simkah/pkg/domain"
	dErrors "simkah/pkg/domain-errors"
)

// Submission is the aggregate root for one marriage-registration dossier.
//
// Invariants:
//   - Status changes only via internal/workflow validation; no direct writes.
//   - CurrentAssignee is non-nil only while Status == PROCESSING and must be
//     cleared by the same atomic update that moves the dossier onward.
//   - Marriage data and documents may be replaced only while
//     Status.IsEditable() (DRAFT, REJECTED, NEEDS_REVISION).
//   - Every accepted status change appends exactly one StatusLogEntry; the
//     log is append-only and is the source of truth for history.
//   - TicketNumber is unique and never reused.
//
// The status/assignee pair is the only contended state. Stores mutate it
// through a single conditional update (see submission/store); the CanX/ApplyX
// pairs below hold the rules, the store holds the atomicity.
type Submission struct {
	ID              id.SubmissionID  `json:"id"`
	TicketNumber    string           `json:"ticket_number"`
	Status          Status           `json:"status"`
	CurrentAssignee *id.ActorID      `json:"current_assignee,omitempty"`
	Creator         id.ActorID       `json:"creator"`
	Marriage        MarriageData     `json:"marriage"`
	Documents       []Document       `json:"documents"`
	StatusLog       []StatusLogEntry `json:"status_log,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// MarriageData is the 1:1 payload of a submission: the two parties, the
// event date, and the procedural scenario with its derived flags.
type MarriageData struct {
	HusbandNIK  string `json:"husband_nik"`
	HusbandName string `json:"husband_name"`
	WifeNIK     string `json:"wife_nik"`
	WifeName    string `json:"wife_name"`

	// MarriageDate is the calendar day of the event; the temporal gate
	// compares it against submission time.
	MarriageDate time.Time `json:"marriage_date"`

	ScenarioID int `json:"scenario_id"`

	// Flags copied from the scenario definition at create/update time so
	// reads never need a catalog lookup.
	OutsideDistrict  bool   `json:"outside_district"`
	KKOption         string `json:"kk_option"`
	HasBiodataChange bool   `json:"has_biodata_change"`
}

// StatusLogEntry records one accepted transition. Entries are append-only
// and never edited or deleted.
type StatusLogEntry struct {
	SubmissionID   id.SubmissionID `json:"submission_id"`
	ActorID        id.ActorID      `json:"actor_id"`
	PreviousStatus Status          `json:"previous_status"`
	NewStatus      Status          `json:"new_status"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewSubmission constructs a DRAFT submission for the originating clerk.
func NewSubmission(submissionID id.SubmissionID, ticket string, creator id.ActorID, marriage MarriageData, docs []Document, now time.Time) (*Submission, error) {
	if ticket == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "ticket number cannot be empty")
	}
	if creator.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "creator cannot be nil")
	}
	return &Submission{
		ID:           submissionID,
		TicketNumber: ticket,
		Status:       StatusDraft,
		Creator:      creator,
		Marriage:     marriage,
		Documents:    docs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CanEdit checks whether the actor may replace this submission's content.
// Only the creator may edit, and only while the status is editable.
func (s *Submission) CanEdit(actor id.ActorID) error {
	if actor != s.Creator {
		return dErrors.New(dErrors.CodeForbidden, "only the creator may edit a submission")
	}
	if !s.Status.IsEditable() {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"submission is not editable in status "+s.Status.String())
	}
	return nil
}

// ApplyEdit replaces the marriage data and document set.
// Call CanEdit first; stores run both inside one conditional update.
func (s *Submission) ApplyEdit(marriage MarriageData, docs []Document, now time.Time) {
	s.Marriage = marriage
	s.Documents = docs
	s.UpdatedAt = now
}

// CanClaim checks the claim precondition: SUBMITTED and unclaimed, or
// already claimed by this same actor (idempotent re-claim).
func (s *Submission) CanClaim(actor id.ActorID) error {
	switch s.Status {
	case StatusSubmitted:
		if s.CurrentAssignee != nil && *s.CurrentAssignee != actor {
			return dErrors.New(dErrors.CodeAlreadyClaimed, "submission already claimed")
		}
		return nil
	case StatusProcessing:
		if s.CurrentAssignee != nil && *s.CurrentAssignee == actor {
			// No-op re-claim by the same actor.
			return nil
		}
		return dErrors.New(dErrors.CodeAlreadyClaimed, "submission already claimed by another actor")
	default:
		return dErrors.New(dErrors.CodeInvariantViolation,
			"submission is not claimable in status "+s.Status.String())
	}
}

// ApplyClaim takes the exclusive processing claim.
func (s *Submission) ApplyClaim(actor id.ActorID, now time.Time) {
	s.Status = StatusProcessing
	s.CurrentAssignee = &actor
	s.UpdatedAt = now
}

// RequireAssignee checks that the actor holds the current claim.
func (s *Submission) RequireAssignee(actor id.ActorID) error {
	if s.CurrentAssignee == nil || *s.CurrentAssignee != actor {
		return dErrors.New(dErrors.CodeNotAssignee, "submission is assigned to another actor")
	}
	return nil
}

// ApplyTransition moves the submission to target and clears the assignee
// whenever the dossier leaves the claimed state. Legality of the move is the
// workflow package's concern; callers validate before applying.
func (s *Submission) ApplyTransition(target Status, now time.Time) {
	s.Status = target
	if target != StatusProcessing {
		s.CurrentAssignee = nil
	}
	s.UpdatedAt = now
}

// AppendLog records one accepted transition on the aggregate's history.
func (s *Submission) AppendLog(actor id.ActorID, previous, next Status, notes string, now time.Time) {
	s.StatusLog = append(s.StatusLog, StatusLogEntry{
		SubmissionID:   s.ID,
		ActorID:        actor,
		PreviousStatus: previous,
		NewStatus:      next,
		Notes:          notes,
		CreatedAt:      now,
	})
}

// DocTypes returns the set of document types present on the submission.
func (s *Submission) DocTypes() []DocType {
	types := make([]DocType, 0, len(s.Documents))
	for _, d := range s.Documents {
		types = append(types, d.Type)
	}
	return types
}
