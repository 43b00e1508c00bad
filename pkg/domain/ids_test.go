package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "simkah/pkg/domain-errors"
)

// TestParseSubmissionID_Invariants validates the parsing invariant:
// ids must be valid, non-empty, non-nil UUIDs.
func TestParseSubmissionID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseSubmissionID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseSubmissionID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseSubmissionID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseSubmissionID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, SubmissionID(valid), id)
	})
}

func TestParseRole(t *testing.T) {
	t.Run("accepts each supported role", func(t *testing.T) {
		for _, s := range []string{"clerk", "operator", "verifier", "monitor"} {
			role, err := ParseRole(s)
			require.NoError(t, err)
			assert.True(t, role.IsValid())
		}
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := ParseRole("admin")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("staff distinction", func(t *testing.T) {
		assert.True(t, RoleOperator.IsStaff())
		assert.True(t, RoleVerifier.IsStaff())
		assert.False(t, RoleClerk.IsStaff())
		assert.False(t, RoleMonitor.IsStaff())
	})
}
