package domain

import dErrors "simkah/pkg/domain-errors"

// Role identifies an actor's position in the registration workflow.
// Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Role string

const (
	// RoleClerk originates submissions at the district office.
	RoleClerk Role = "clerk"
	// RoleOperator claims and processes submitted dossiers.
	RoleOperator Role = "operator"
	// RoleVerifier performs final verification and decides the outcome.
	RoleVerifier Role = "verifier"
	// RoleMonitor has read-only oversight access.
	RoleMonitor Role = "monitor"
)

// validRoles is the single source of truth for supported roles.
var validRoles = map[Role]bool{
	RoleClerk:    true,
	RoleOperator: true,
	RoleVerifier: true,
	RoleMonitor:  true,
}

// ParseRole constructs a Role from external input.
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool { return validRoles[r] }

// IsStaff reports whether the role belongs to the processing office
// (operator or verifier) rather than an originating clerk.
func (r Role) IsStaff() bool { return r == RoleOperator || r == RoleVerifier }

func (r Role) String() string { return string(r) }
