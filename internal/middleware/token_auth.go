package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"authcore/internal/common"
	"authcore/internal/models"
	"authcore/internal/services"

	"github.com/labstack/echo/v4"
)

// TokenAuth validates the bearer access token on protected API routes.
// Tokens are opaque: validity, revocation, and expiry all come from one
// store read, so a revoked token is rejected immediately.
func TokenAuth(oauth services.OAuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := BearerToken(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing or malformed Authorization header")
			}

			access, err := oauth.ValidateAccessToken(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, common.ErrUnauthorized) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "Token validation failed")
			}

			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, access.UserID)
			ctx = context.WithValue(ctx, common.ClientIDKey, access.ClientID)
			ctx = context.WithValue(ctx, common.ScopesKey, access.Scopes)
			ctx = context.WithValue(ctx, common.AccessTokenIDKey, access.ID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// BearerToken extracts the bearer credential from the Authorization header.
func BearerToken(c echo.Context) (models.OpaqueToken, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader || token == "" {
		return "", false
	}
	return models.OpaqueToken(token), true
}
