package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"authcore/internal/common"
	"authcore/internal/models"
	"authcore/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthorizeRequest carries the query parameters of GET /oauth/authorize.
type AuthorizeRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	State        string
	Scopes       []string
}

// AuthorizePrompt is what the consent page renders once the request and the
// session both check out.
type AuthorizePrompt struct {
	Client *models.Client
	User   *models.User
	Scopes []string
}

// TokenRequest carries the form parameters of POST /oauth/token.
type TokenRequest struct {
	ClientID     string
	ClientSecret string
	Code         string
	RedirectURI  string
	RefreshToken string
}

// OAuthService orchestrates the authorization-code dance: client validation,
// session lookup, consent, code issuance, and the grant exchanges.
type OAuthService interface {
	BeginAuthorization(ctx context.Context, sessionID string, req *AuthorizeRequest) (*AuthorizePrompt, error)
	// RecordConsent returns the redirect URL the boundary must send the
	// browser to: redirect_uri with code+state on approval, or with
	// error=access_denied on denial.
	RecordConsent(ctx context.Context, sessionID string, approved bool, req *AuthorizeRequest) (string, error)
	Exchange(ctx context.Context, grantType string, req *TokenRequest) (*models.TokenPair, error)
	ValidateAccessToken(ctx context.Context, token models.OpaqueToken) (*models.AccessToken, error)
	RevokeAccessToken(ctx context.Context, token models.OpaqueToken) error
}

// grantHandler is the common contract every grant variant implements.
// Dispatch happens by grant_type tag, never by type switching on requests.
type grantHandler func(ctx context.Context, client *models.Client, req *TokenRequest) (*models.TokenPair, error)

type oauthService struct {
	clients  repositories.ClientRepository
	issuer   TokenIssuer
	sessions SessionGateway
	grants   map[string]grantHandler
}

func NewOAuthService(clients repositories.ClientRepository, issuer TokenIssuer, sessions SessionGateway) OAuthService {
	s := &oauthService{
		clients:  clients,
		issuer:   issuer,
		sessions: sessions,
	}
	s.grants = map[string]grantHandler{
		models.GrantAuthorizationCode: s.exchangeAuthorizationCode,
		models.GrantRefreshToken:      s.exchangeRefreshToken,
	}
	return s
}

func (s *oauthService) BeginAuthorization(ctx context.Context, sessionID string, req *AuthorizeRequest) (*AuthorizePrompt, error) {
	client, err := s.validateAuthorizeRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	user, err := s.sessions.CurrentUser(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	if user == nil {
		return nil, common.ErrLoginRequired
	}

	return &AuthorizePrompt{Client: client, User: user, Scopes: req.Scopes}, nil
}

func (s *oauthService) RecordConsent(ctx context.Context, sessionID string, approved bool, req *AuthorizeRequest) (string, error) {
	client, err := s.validateAuthorizeRequest(ctx, req)
	if err != nil {
		return "", err
	}

	if !approved {
		return redirectWith(req.RedirectURI, url.Values{
			"error": {"access_denied"},
			"state": {req.State},
		}), nil
	}

	user, err := s.sessions.CurrentUser(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve session: %w", err)
	}
	if user == nil {
		return "", common.ErrLoginRequired
	}

	code, err := s.issuer.IssueAuthorizationCode(ctx, client, user.ID, req.RedirectURI, req.Scopes)
	if err != nil {
		return "", err
	}

	return redirectWith(req.RedirectURI, url.Values{
		"code":  {string(code)},
		"state": {req.State},
	}), nil
}

func (s *oauthService) Exchange(ctx context.Context, grantType string, req *TokenRequest) (*models.TokenPair, error) {
	handler, ok := s.grants[grantType]
	if !ok {
		return nil, common.ErrUnsupportedGrantType
	}

	client, err := s.authenticateClient(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}
	if !client.AllowsGrantType(grantType) {
		return nil, common.ErrUnauthorizedClient
	}

	return handler(ctx, client, req)
}

func (s *oauthService) ValidateAccessToken(ctx context.Context, token models.OpaqueToken) (*models.AccessToken, error) {
	return s.issuer.ValidateAccessToken(ctx, token)
}

func (s *oauthService) RevokeAccessToken(ctx context.Context, token models.OpaqueToken) error {
	return s.issuer.RevokeAccessToken(ctx, token)
}

func (s *oauthService) exchangeAuthorizationCode(ctx context.Context, client *models.Client, req *TokenRequest) (*models.TokenPair, error) {
	if req.Code == "" || req.RedirectURI == "" {
		return nil, common.ErrInvalidGrant
	}
	return s.issuer.ExchangeAuthorizationCode(ctx, client, models.OpaqueToken(req.Code), req.RedirectURI)
}

func (s *oauthService) exchangeRefreshToken(ctx context.Context, client *models.Client, req *TokenRequest) (*models.TokenPair, error) {
	if req.RefreshToken == "" {
		return nil, common.ErrInvalidGrant
	}
	return s.issuer.RotateRefreshToken(ctx, client, models.OpaqueToken(req.RefreshToken))
}

// validateAuthorizeRequest enforces the order of checks the flow depends on:
// client first, then redirect_uri (so errors are never sent to an
// unregistered URI), then response_type and scopes.
func (s *oauthService) validateAuthorizeRequest(ctx context.Context, req *AuthorizeRequest) (*models.Client, error) {
	client, err := s.lookupClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	if req.RedirectURI == "" || !client.HasRedirectURI(req.RedirectURI) {
		return nil, common.ErrInvalidRedirectURI
	}
	if req.ResponseType != "code" {
		return nil, common.ErrUnsupportedResponseType
	}
	if !client.AllowsScopes(req.Scopes) {
		return nil, common.ErrInvalidScope
	}
	return client, nil
}

func (s *oauthService) lookupClient(ctx context.Context, clientID string) (*models.Client, error) {
	id, err := uuid.Parse(clientID)
	if err != nil {
		return nil, common.ErrInvalidClient
	}

	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidClient
		}
		return nil, fmt.Errorf("failed to look up client: %w", err)
	}
	if client.Revoked {
		return nil, common.ErrInvalidClient
	}
	return client, nil
}

func (s *oauthService) authenticateClient(ctx context.Context, clientID, clientSecret string) (*models.Client, error) {
	client, err := s.lookupClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(clientSecret)); err != nil {
		return nil, common.ErrInvalidClient
	}
	return client, nil
}

// redirectWith appends params to a redirect URI, preserving any query it
// already carries.
func redirectWith(redirectURI string, params url.Values) string {
	sep := "?"
	if strings.Contains(redirectURI, "?") {
		sep = "&"
	}
	return redirectURI + sep + params.Encode()
}

// ParseScopes splits a space-delimited scope parameter, dropping empties.
func ParseScopes(scope string) []string {
	if strings.TrimSpace(scope) == "" {
		return nil
	}
	return strings.Fields(scope)
}
