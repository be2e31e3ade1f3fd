package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeToHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		CodeInvalidParam:        http.StatusBadRequest,
		CodeChapterNotFound:     http.StatusNotFound,
		CodeGenerationInFlight:  http.StatusConflict,
		CodePreconditionFailure: http.StatusPreconditionFailed,
		CodeInputTooLarge:       http.StatusRequestEntityTooLarge,
		CodeMissingCredential:   http.StatusUnauthorized,
		CodeSchemaViolation:     http.StatusBadGateway,
		CodeUnknown:             http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, New(code, "x").HTTPStatus, "code %s", code)
	}
}

func TestWithDetailDoesNotMutatePredefined(t *testing.T) {
	e := ErrPreconditionFailure.WithDetail("chapter has no content")
	assert.Equal(t, "chapter has no content", e.Detail)
	assert.Empty(t, ErrPreconditionFailure.Detail)
}

func TestIsFollowsWrapChain(t *testing.T) {
	base := ErrSchemaViolation.WithDetail("missing field chapters")
	wrapped := fmt.Errorf("generate outline: %w", base)

	assert.True(t, Is(wrapped, CodeSchemaViolation))
	assert.False(t, Is(wrapped, CodeEmptyResponse))
	assert.True(t, IsAppError(wrapped))
	assert.Equal(t, CodeSchemaViolation, CodeOf(wrapped))

	appErr := AsAppError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, "missing field chapters", appErr.Detail)
}

func TestAsAppErrorWrapsPlainError(t *testing.T) {
	appErr := AsAppError(fmt.Errorf("boom"))
	assert.Equal(t, CodeUnknown, appErr.Code)
	assert.Equal(t, CodeSuccess, CodeOf(nil))
	assert.Contains(t, appErr.Error(), "boom")
}
