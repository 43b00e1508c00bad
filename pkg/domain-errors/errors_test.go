package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("row not found")
	err := Wrap(cause, CodeNotFound, "submission not found")

	assert.True(t, errors.Is(err, cause))
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeConflict))
}

func TestHasCodeThroughWrappingChain(t *testing.T) {
	inner := New(CodeAlreadyClaimed, "claimed by another operator")
	outer := fmt.Errorf("claim failed: %w", inner)

	assert.True(t, HasCode(outer, CodeAlreadyClaimed))
	assert.Equal(t, CodeAlreadyClaimed, CodeOf(outer))
}

func TestCodeOfUncodedError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestWithDetail(t *testing.T) {
	err := New(CodeIncompleteDocuments, "missing required documents").
		WithDetail("missing", []string{"KK_ISTRI"})

	details := DetailsOf(err)
	require.NotNil(t, details)
	assert.Equal(t, []string{"KK_ISTRI"}, details["missing"])
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:          http.StatusBadRequest,
		CodeForbidden:           http.StatusForbidden,
		CodeNotFound:            http.StatusNotFound,
		CodeAlreadyClaimed:      http.StatusConflict,
		CodeNotAssignee:         http.StatusConflict,
		CodeInvalidTransition:   http.StatusUnprocessableEntity,
		CodeIncompleteDocuments: http.StatusUnprocessableEntity,
		CodeLeadTimeViolation:   http.StatusUnprocessableEntity,
		CodeInternal:            http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
