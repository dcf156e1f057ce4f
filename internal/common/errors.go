package common

import (
	"errors"
	"net/http"
)

// Client-facing error taxonomy. Every error here is locally recoverable: the
// caller receives a structured response and no partial mutation remains.
// Anything not in this list surfaces as a generic 500.
var (
	ErrValidation              = errors.New("validation failed")
	ErrInvalidClient           = errors.New("invalid client")
	ErrUnauthorizedClient      = errors.New("client not authorized for this grant type")
	ErrInvalidRedirectURI      = errors.New("redirect URI is not registered for this client")
	ErrInvalidScope            = errors.New("requested scope exceeds client's allowed scopes")
	ErrUnsupportedResponseType = errors.New("unsupported response type")
	ErrInvalidGrant            = errors.New("invalid grant")
	ErrUnsupportedGrantType    = errors.New("unsupported grant type")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrLoginRequired           = errors.New("login required")
	ErrRateLimited             = errors.New("too many attempts")
	ErrNotFound                = errors.New("not found")
)

// OAuthErrorCode maps a taxonomy error to its RFC 6749 error code and the
// HTTP status the token endpoint must answer with.
func OAuthErrorCode(err error) (code string, status int) {
	switch {
	case errors.Is(err, ErrInvalidClient):
		return "invalid_client", http.StatusUnauthorized
	case errors.Is(err, ErrUnauthorizedClient):
		return "unauthorized_client", http.StatusBadRequest
	case errors.Is(err, ErrInvalidGrant):
		return "invalid_grant", http.StatusBadRequest
	case errors.Is(err, ErrUnsupportedGrantType):
		return "unsupported_grant_type", http.StatusBadRequest
	case errors.Is(err, ErrInvalidScope):
		return "invalid_scope", http.StatusBadRequest
	case errors.Is(err, ErrInvalidRedirectURI):
		return "invalid_request", http.StatusBadRequest
	case errors.Is(err, ErrUnsupportedResponseType):
		return "unsupported_response_type", http.StatusBadRequest
	case errors.Is(err, ErrValidation):
		return "invalid_request", http.StatusBadRequest
	default:
		return "server_error", http.StatusInternalServerError
	}
}
