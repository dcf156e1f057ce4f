package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOAuthErrorCode_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{ErrInvalidClient, "invalid_client", http.StatusUnauthorized},
		{ErrUnauthorizedClient, "unauthorized_client", http.StatusBadRequest},
		{ErrInvalidGrant, "invalid_grant", http.StatusBadRequest},
		{ErrUnsupportedGrantType, "unsupported_grant_type", http.StatusBadRequest},
		{ErrInvalidScope, "invalid_scope", http.StatusBadRequest},
		{ErrInvalidRedirectURI, "invalid_request", http.StatusBadRequest},
		{ErrUnsupportedResponseType, "unsupported_response_type", http.StatusBadRequest},
		{ErrValidation, "invalid_request", http.StatusBadRequest},
		{errors.New("pool exhausted"), "server_error", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		code, status := OAuthErrorCode(tc.err)
		assert.Equal(t, tc.code, code, "error %v", tc.err)
		assert.Equal(t, tc.status, status, "error %v", tc.err)
	}
}

func TestOAuthErrorCode_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("exchange failed: %w", ErrInvalidGrant)
	code, status := OAuthErrorCode(wrapped)
	assert.Equal(t, "invalid_grant", code)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("user@example.com"))
	assert.True(t, ValidateEmail("  user@example.com  "))
	assert.False(t, ValidateEmail(""))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail("missing@tld"))
	assert.False(t, ValidateEmail("two@@example.com"))
}
