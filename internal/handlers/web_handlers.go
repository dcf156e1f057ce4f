package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"authcore/internal/caching"
	"authcore/internal/common"
	"authcore/internal/services"

	"github.com/labstack/echo/v4"
)

const sessionCookieName = "authcore_session"

// WebHandlers serves the session-backed HTML pages: login form, logout, and
// the callback page used to copy the authorization code by hand.
type WebHandlers struct {
	verifier services.CredentialVerifier
	sessions services.SessionGateway
	cache    caching.CacheService
	rateCfg  RateLimitConfig
}

// NewWebHandlers creates a new web handlers instance.
func NewWebHandlers(verifier services.CredentialVerifier, sessions services.SessionGateway, cache caching.CacheService, rateCfg RateLimitConfig) *WebHandlers {
	return &WebHandlers{
		verifier: verifier,
		sessions: sessions,
		cache:    cache,
		rateCfg:  rateCfg,
	}
}

// ShowLogin renders the login form.
func (h *WebHandlers) ShowLogin(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", map[string]interface{}{
		"Error": "",
		"Email": "",
	})
}

// Login consumes the login form. On success the session is regenerated and
// the browser resumes the intended URL (an interrupted /oauth/authorize
// request, typically). On failure the form re-renders with inline error text.
func (h *WebHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	email := c.FormValue("email")
	password := c.FormValue("password")

	if fieldErrors := validateLoginInput(email, password); len(fieldErrors) > 0 {
		return h.renderLoginError(c, email, firstError(fieldErrors))
	}

	key := "login:" + strings.ToLower(email) + ":" + c.RealIP()
	if limited, err := h.cache.IsRateLimited(ctx, key, h.rateCfg.Limit, h.rateCfg.Window); err == nil && limited {
		return h.renderLoginError(c, email, "Too many login attempts, try again later")
	}

	user, err := h.verifier.Verify(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return h.renderLoginError(c, email, "Invalid email or password")
		}
		log.Printf("ERROR: web login failed: %v", err)
		return h.renderLoginError(c, email, "Something went wrong, try again")
	}

	oldSessionID := sessionIDFromCookie(c)
	newSessionID, intended, err := h.sessions.Login(ctx, oldSessionID, user.ID)
	if err != nil {
		log.Printf("ERROR: session regeneration failed: %v", err)
		return h.renderLoginError(c, email, "Something went wrong, try again")
	}
	setSessionCookie(c, newSessionID)

	if intended == "" {
		intended = "/"
	}
	return c.Redirect(http.StatusFound, intended)
}

// Logout invalidates the session and returns to the login form.
func (h *WebHandlers) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID := sessionIDFromCookie(c)
	if err := h.sessions.Destroy(ctx, sessionID); err != nil {
		log.Printf("WARN: failed to destroy session: %v", err)
	}
	clearSessionCookie(c)

	return c.Redirect(http.StatusFound, "/login")
}

// Callback displays the authorization code (or the error) that the
// authorization server redirected back with, for manual copy into a token
// exchange command.
func (h *WebHandlers) Callback(c echo.Context) error {
	code := c.QueryParam("code")
	errParam := c.QueryParam("error")
	errDescription := c.QueryParam("error_description")
	state := c.QueryParam("state")

	if errParam == "" && code == "" {
		errParam = "no_code"
		errDescription = "No authorization code was received"
	}

	return c.Render(http.StatusOK, "callback.html", map[string]interface{}{
		"Code":             code,
		"State":            state,
		"Error":            errParam,
		"ErrorDescription": errDescription,
	})
}

func (h *WebHandlers) renderLoginError(c echo.Context, email, message string) error {
	return c.Render(http.StatusUnprocessableEntity, "login.html", map[string]interface{}{
		"Error": message,
		"Email": email,
	})
}

func firstError(fieldErrors map[string]string) string {
	// Deterministic order: email errors outrank password errors.
	if msg, ok := fieldErrors["email"]; ok {
		return msg
	}
	for _, msg := range fieldErrors {
		return msg
	}
	return "Invalid input"
}

func sessionIDFromCookie(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setSessionCookie(c echo.Context, sessionID string) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
