// Package store defines the persistence boundary for submission aggregates.
//
// Error Contract:
// All store methods follow this pattern:
//   - Return sentinel.ErrNotFound (wrapped) when the submission does not exist
//   - Return sentinel.ErrInvalidState (wrapped) when a guarded update finds the
//     submission in a different status than expected
//   - Return sentinel.ErrConflict (wrapped) when an assignee guard fails, i.e.
//     the claim is held by someone else
//   - Return nil for successful operations
//
// Services translate these into domain errors; stores never import
// pkg/domain-errors.
package store

import (
	"context"
	"time"

	"simkah/internal/domain"
	id "simkah/pkg/domain"
)

// TransitionParams describes one atomic conditional status update. The
// status/assignee pair is the only contended state in the system, so every
// transition is a single check-and-set against it rather than a
// read-modify-write across separate calls.
type TransitionParams struct {
	SubmissionID id.SubmissionID

	// Expected is the CAS guard: the update applies only if the stored
	// status still equals it.
	Expected domain.Status
	Target   domain.Status

	// Actor is recorded on the status log entry and used by the assignee
	// guards below.
	Actor id.ActorID

	// GuardUnclaimed requires the assignee to be null or already the actor
	// (the claim precondition).
	GuardUnclaimed bool
	// GuardAssignee requires the assignee to be exactly the actor (the
	// precondition for forwarding, returning, and deciding).
	GuardAssignee bool
	// Assign sets the actor as assignee on success (the claim itself).
	// When false, the assignee is cleared whenever Target leaves PROCESSING.
	Assign bool

	Notes string
	Now   time.Time
}

// Store is the persistence boundary for submissions. Transition and
// ReplaceContent are atomic: the status log entry (for Transition) and the
// content swap (for ReplaceContent) commit with their guard checks as one
// unit.
type Store interface {
	Create(ctx context.Context, sub *domain.Submission) error
	FindByID(ctx context.Context, submissionID id.SubmissionID) (*domain.Submission, error)

	// ReplaceContent swaps marriage data and documents, guarded on the
	// status still being editable. The caller checks edit permission
	// beforehand; the guard here closes the race with a concurrent submit.
	ReplaceContent(ctx context.Context, submissionID id.SubmissionID, marriage domain.MarriageData, docs []domain.Document, now time.Time) (*domain.Submission, error)

	// Transition applies one conditional status update and appends exactly
	// one status log entry in the same atomic unit. On success the updated
	// aggregate is returned.
	Transition(ctx context.Context, p TransitionParams) (*domain.Submission, error)

	// ListByStatus returns submissions in the given status; oldest-first for
	// work queues, newest-first otherwise. Order is stable within one call.
	ListByStatus(ctx context.Context, status domain.Status, oldestFirst bool, limit int) ([]*domain.Submission, error)

	// ListByCreator returns a clerk's own submissions, newest first.
	ListByCreator(ctx context.Context, creator id.ActorID, limit int) ([]*domain.Submission, error)

	// History returns the append-only status log in transition order.
	History(ctx context.Context, submissionID id.SubmissionID) ([]domain.StatusLogEntry, error)
}
