// Package domain holds shared identifier and role types used across service
// boundaries. Typed UUIDs keep actor and submission ids from being swapped at
// call sites; parse helpers enforce validity at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "simkah/pkg/domain-errors"
)

// ActorID identifies an authenticated actor (clerk, operator, verifier,
// monitor). Supplied by the identity provider; never minted here.
type ActorID uuid.UUID

// SubmissionID identifies a submission aggregate.
type SubmissionID uuid.UUID

func (id ActorID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ActorID) String() string   { return uuid.UUID(id).String() }
func (id SubmissionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SubmissionID) String() string {
	return uuid.UUID(id).String()
}

// ParseActorID constructs an ActorID from external input.
// Errors: CodeInvalidInput when empty, malformed, or nil.
func ParseActorID(s string) (ActorID, error) {
	u, err := parseUUID(s, "actor id")
	if err != nil {
		return ActorID{}, err
	}
	return ActorID(u), nil
}

// ParseSubmissionID constructs a SubmissionID from external input.
// Errors: CodeInvalidInput when empty, malformed, or nil.
func ParseSubmissionID(s string) (SubmissionID, error) {
	u, err := parseUUID(s, "submission id")
	if err != nil {
		return SubmissionID{}, err
	}
	return SubmissionID(u), nil
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be nil")
	}
	return u, nil
}
