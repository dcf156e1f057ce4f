package common

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey        contextKey = "user_id"
	ClientIDKey      contextKey = "client_id"
	ScopesKey        contextKey = "scopes"
	AccessTokenIDKey contextKey = "access_token_id"
)

// GetUserIDFromContext extracts the authenticated user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetClientIDFromContext extracts the OAuth2 client ID from the request context.
func GetClientIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	clientID, ok := ctx.Value(ClientIDKey).(uuid.UUID)
	return clientID, ok
}

// GetScopesFromContext extracts the granted scopes from the request context.
func GetScopesFromContext(ctx context.Context) ([]string, bool) {
	scopes, ok := ctx.Value(ScopesKey).([]string)
	return scopes, ok
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail checks basic email shape. Full RFC 5322 parsing is
// deliberately out of scope; the credential store is the authority.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// ValidationErrorResponse is the 422 body for malformed input: a top-level
// message plus per-field errors.
type ValidationErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// SendValidationError sends a 422 with per-field error messages.
func SendValidationError(c echo.Context, fieldErrors map[string]string) error {
	return c.JSON(http.StatusUnprocessableEntity, &ValidationErrorResponse{
		Message: "The given data was invalid",
		Errors:  fieldErrors,
	})
}

// SendUnauthorizedError sends a 401 with a message body.
func SendUnauthorizedError(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"message": message})
}

// SendServerError sends a generic 500. Internal failure details stay in the
// logs, never in the response.
func SendServerError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
}

// SendRateLimitedError sends a 429.
func SendRateLimitedError(c echo.Context) error {
	return c.JSON(http.StatusTooManyRequests, map[string]string{"message": "Too many login attempts, try again later"})
}
