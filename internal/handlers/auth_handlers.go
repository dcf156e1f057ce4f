package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"authcore/internal/caching"
	"authcore/internal/common"
	"authcore/internal/middleware"
	"authcore/internal/repositories"
	"authcore/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers serves the JSON authentication endpoints. POST /login only
// verifies credentials; tokens are issued exclusively by the OAuth code
// exchange.
type AuthHandlers struct {
	verifier services.CredentialVerifier
	oauth    services.OAuthService
	userRepo repositories.UserRepository
	cache    caching.CacheService
	rateCfg  RateLimitConfig
}

// RateLimitConfig bounds login attempts per email+IP pair.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// NewAuthHandlers creates a new auth handlers instance.
func NewAuthHandlers(verifier services.CredentialVerifier, oauth services.OAuthService, userRepo repositories.UserRepository, cache caching.CacheService, rateCfg RateLimitConfig) *AuthHandlers {
	return &AuthHandlers{
		verifier: verifier,
		oauth:    oauth,
		userRepo: userRepo,
		cache:    cache,
		rateCfg:  rateCfg,
	}
}

// LoginRequest represents the login request payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies an email/password pair. It deliberately issues no tokens.
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, map[string]string{"body": "Request body must be valid JSON"})
	}

	if fieldErrors := validateLoginInput(req.Email, req.Password); len(fieldErrors) > 0 {
		return common.SendValidationError(c, fieldErrors)
	}

	if limited := h.loginRateLimited(c, req.Email); limited {
		return common.SendRateLimitedError(c)
	}

	user, err := h.verifier.Verify(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return common.SendUnauthorizedError(c, "Invalid email or password")
		}
		log.Printf("ERROR: credential verification failed: %v", err)
		return common.SendServerError(c)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Authentication succeeded",
		"user_id": user.ID,
		"email":   user.Email,
		"name":    user.Name,
		"note":    "Use the /oauth/authorize endpoint to obtain an authorization code",
	})
}

// User returns the profile bound to the presented access token.
func (h *AuthHandlers) User(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "User no longer exists")
		}
		log.Printf("ERROR: failed to load user %s: %v", userID, err)
		return common.SendServerError(c)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":                user.ID,
		"name":              user.Name,
		"email":             user.Email,
		"email_verified_at": user.EmailVerifiedAt,
		"created_at":        user.CreatedAt,
	})
}

// Logout revokes the presented access token. Idempotent: revoking twice
// still answers 200.
func (h *AuthHandlers) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	token, ok := middleware.BearerToken(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing or malformed Authorization header")
	}

	if err := h.oauth.RevokeAccessToken(ctx, token); err != nil {
		log.Printf("ERROR: failed to revoke access token: %v", err)
		return common.SendServerError(c)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AuthHandlers) loginRateLimited(c echo.Context, email string) bool {
	key := "login:" + strings.ToLower(email) + ":" + c.RealIP()
	limited, err := h.cache.IsRateLimited(c.Request().Context(), key, h.rateCfg.Limit, h.rateCfg.Window)
	if err != nil {
		// Rate limiting is hardening, not correctness; fail open.
		log.Printf("WARN: rate limit check failed: %v", err)
		return false
	}
	return limited
}

func validateLoginInput(email, password string) map[string]string {
	fieldErrors := map[string]string{}
	switch {
	case strings.TrimSpace(email) == "":
		fieldErrors["email"] = "The email field is required"
	case !common.ValidateEmail(email):
		fieldErrors["email"] = "The email must be a valid email address"
	}
	if password == "" {
		fieldErrors["password"] = "The password field is required"
	}
	return fieldErrors
}
