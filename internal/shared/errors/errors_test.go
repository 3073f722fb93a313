package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirrorErrorMessage(t *testing.T) {
	err := NewRemoteError("list request failed")
	assert.Equal(t, "list request failed", err.Error())

	cause := stderrors.New("connection refused")
	err = NewRemoteError("list request failed").WithCause(cause)
	assert.Equal(t, "list request failed: connection refused", err.Error())
	assert.Equal(t, cause, stderrors.Unwrap(err))
}

func TestTypePredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"authentication", NewAuthenticationError("rejected", true), IsAuthentication},
		{"not found", NewNotFoundError("collection posts"), IsNotFound},
		{"remote", NewRemoteError("boom"), IsRemote},
		{"validation", NewValidationError("field title: not a string"), IsValidation},
		{"configuration", NewConfigurationError("select field without values"), IsConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.pred(tt.err))
			// The predicate must still match through wrapping.
			assert.True(t, tt.pred(fmt.Errorf("outer: %w", tt.err)))
		})
	}
}

func TestPredicatesRejectOtherTypes(t *testing.T) {
	err := NewValidationError("bad field")
	assert.False(t, IsAuthentication(err))
	assert.False(t, IsNotFound(err))
	assert.False(t, IsRemote(err))
	assert.False(t, IsConfiguration(err))

	assert.False(t, IsValidation(stderrors.New("plain")))
	assert.False(t, IsValidation(nil))
}

func TestSentinelErrors(t *testing.T) {
	assert.True(t, IsAuthentication(ErrNoCredentials))
	assert.True(t, IsAuthentication(ErrTokenRejected))
	assert.True(t, IsNotFound(ErrCollectionNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("fetch: %w", ErrRecordNotFound)))
}

func TestAuthenticationErrorCarriesImpersonationFlag(t *testing.T) {
	err := NewAuthenticationError("superuser token rejected", true)
	require.NotNil(t, err.Details)
	assert.Equal(t, true, err.Details["impersonated"])

	err = NewAuthenticationError("no credentials for protected collection", false)
	assert.Equal(t, false, err.Details["impersonated"])
}

func TestWithDetailAndStatusCode(t *testing.T) {
	err := NewRemoteError("server error").
		WithStatusCode(500).
		WithDetail("url", "/api/collections/posts/records")

	assert.Equal(t, 500, err.StatusCode)
	assert.Equal(t, "/api/collections/posts/records", err.Details["url"])
}

func TestWrapRemote(t *testing.T) {
	// Plain errors become remote errors.
	wrapped := WrapRemote(stderrors.New("dial tcp: timeout"), "list records")
	assert.True(t, IsRemote(wrapped))

	// Typed mirror errors pass through unchanged.
	authErr := NewAuthenticationError("rejected", false)
	assert.Same(t, authErr, WrapRemote(authErr, "list records"))
	assert.True(t, IsAuthentication(WrapRemote(authErr, "list records")))
}
