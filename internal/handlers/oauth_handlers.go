package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"authcore/internal/common"
	"authcore/internal/services"

	"github.com/labstack/echo/v4"
)

// OAuthHandlers serves the RFC 6749 authorization-code endpoints.
type OAuthHandlers struct {
	oauth    services.OAuthService
	sessions services.SessionGateway
}

// NewOAuthHandlers creates a new OAuth handlers instance.
func NewOAuthHandlers(oauth services.OAuthService, sessions services.SessionGateway) *OAuthHandlers {
	return &OAuthHandlers{oauth: oauth, sessions: sessions}
}

// Authorize handles GET /oauth/authorize: validates the request, forces a
// login round-trip when the session is anonymous, and renders the consent
// prompt otherwise.
func (h *OAuthHandlers) Authorize(c echo.Context) error {
	ctx := c.Request().Context()
	req := authorizeRequestFromQuery(c)

	sessionID := sessionIDFromCookie(c)
	prompt, err := h.oauth.BeginAuthorization(ctx, sessionID, req)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrLoginRequired):
			return h.redirectToLogin(c, sessionID)
		case errors.Is(err, common.ErrInvalidClient), errors.Is(err, common.ErrInvalidRedirectURI):
			// Never redirect these to the client: the redirect target itself
			// is untrusted.
			code, status := common.OAuthErrorCode(err)
			return c.JSON(status, map[string]string{
				"error":             code,
				"error_description": err.Error(),
			})
		case errors.Is(err, common.ErrInvalidScope), errors.Is(err, common.ErrUnsupportedResponseType):
			// The redirect URI validated, so the error goes back to the
			// client application per RFC 6749 §4.1.2.1.
			code, _ := common.OAuthErrorCode(err)
			return c.Redirect(http.StatusFound, redirectError(req.RedirectURI, code, req.State))
		default:
			log.Printf("ERROR: authorize failed: %v", err)
			return common.SendServerError(c)
		}
	}

	return c.Render(http.StatusOK, "authorize.html", map[string]interface{}{
		"ClientName":   prompt.Client.Name,
		"ClientID":     req.ClientID,
		"UserEmail":    prompt.User.Email,
		"Scopes":       prompt.Scopes,
		"Scope":        c.QueryParam("scope"),
		"RedirectURI":  req.RedirectURI,
		"State":        req.State,
		"ResponseType": req.ResponseType,
	})
}

// Consent handles POST /oauth/authorize: records the user's decision and
// redirects back to the client with a code or error=access_denied.
func (h *OAuthHandlers) Consent(c echo.Context) error {
	ctx := c.Request().Context()

	req := &services.AuthorizeRequest{
		ResponseType: c.FormValue("response_type"),
		ClientID:     c.FormValue("client_id"),
		RedirectURI:  c.FormValue("redirect_uri"),
		State:        c.FormValue("state"),
		Scopes:       services.ParseScopes(c.FormValue("scope")),
	}
	approved := c.FormValue("approved") == "yes"

	sessionID := sessionIDFromCookie(c)
	redirect, err := h.oauth.RecordConsent(ctx, sessionID, approved, req)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrLoginRequired):
			return h.redirectToLogin(c, sessionID)
		case errors.Is(err, common.ErrInvalidClient), errors.Is(err, common.ErrInvalidRedirectURI),
			errors.Is(err, common.ErrInvalidScope), errors.Is(err, common.ErrUnsupportedResponseType):
			code, status := common.OAuthErrorCode(err)
			return c.JSON(status, map[string]string{
				"error":             code,
				"error_description": err.Error(),
			})
		default:
			log.Printf("ERROR: consent failed: %v", err)
			return common.SendServerError(c)
		}
	}

	return c.Redirect(http.StatusFound, redirect)
}

// Token handles POST /oauth/token for both grant variants.
func (h *OAuthHandlers) Token(c echo.Context) error {
	ctx := c.Request().Context()

	grantType := c.FormValue("grant_type")
	req := &services.TokenRequest{
		ClientID:     c.FormValue("client_id"),
		ClientSecret: c.FormValue("client_secret"),
		Code:         c.FormValue("code"),
		RedirectURI:  c.FormValue("redirect_uri"),
		RefreshToken: c.FormValue("refresh_token"),
	}

	pair, err := h.oauth.Exchange(ctx, grantType, req)
	if err != nil {
		code, status := common.OAuthErrorCode(err)
		if status == http.StatusInternalServerError {
			log.Printf("ERROR: token exchange failed: %v", err)
			return c.JSON(status, map[string]string{
				"error":             code,
				"error_description": "The token request could not be processed",
			})
		}
		return c.JSON(status, map[string]string{
			"error":             code,
			"error_description": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, pair)
}

// redirectToLogin stores the in-flight authorize URL on the session (issuing
// one if the browser has none) so login can resume the flow, then bounces to
// the login form.
func (h *OAuthHandlers) redirectToLogin(c echo.Context, sessionID string) error {
	ctx := c.Request().Context()

	if sessionID == "" {
		newID, err := h.sessions.Issue(ctx)
		if err != nil {
			log.Printf("ERROR: failed to issue session: %v", err)
			return common.SendServerError(c)
		}
		sessionID = newID
		setSessionCookie(c, sessionID)
	}

	intended := c.Request().URL.RequestURI()
	if err := h.sessions.SetIntendedURL(ctx, sessionID, intended); err != nil {
		log.Printf("WARN: failed to store intended URL: %v", err)
	}

	return c.Redirect(http.StatusFound, "/login")
}

func authorizeRequestFromQuery(c echo.Context) *services.AuthorizeRequest {
	return &services.AuthorizeRequest{
		ResponseType: c.QueryParam("response_type"),
		ClientID:     c.QueryParam("client_id"),
		RedirectURI:  c.QueryParam("redirect_uri"),
		State:        c.QueryParam("state"),
		Scopes:       services.ParseScopes(c.QueryParam("scope")),
	}
}

func redirectError(redirectURI, code, state string) string {
	params := url.Values{"error": {code}}
	if state != "" {
		params.Set("state", state)
	}
	sep := "?"
	if u, err := url.Parse(redirectURI); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	return redirectURI + sep + params.Encode()
}
