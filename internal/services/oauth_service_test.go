package services

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"authcore/internal/common"
	"authcore/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type OAuthServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	clients   *MockClientRepository
	sessions  *fakeSessionGateway
	service   OAuthService
	client    *models.Client
	secret    string
	user      *models.User
	sessionID string
}

func (s *OAuthServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clients = new(MockClientRepository)
	s.sessions = newFakeSessionGateway()

	s.secret = "client-secret-value"
	secretHash, err := bcrypt.GenerateFromPassword([]byte(s.secret), bcrypt.MinCost)
	s.Require().NoError(err)

	s.client = &models.Client{
		ID:           uuid.New(),
		Name:         "Test App",
		SecretHash:   string(secretHash),
		RedirectURIs: []string{"https://app.example.com/callback"},
		GrantTypes:   []string{models.GrantAuthorizationCode, models.GrantRefreshToken},
		Scopes:       []string{"read", "write"},
	}

	s.user = &models.User{ID: uuid.New(), Name: "Alice", Email: "alice@example.com"}
	s.sessionID = "session-with-user"
	s.sessions.bind(s.sessionID, s.user)

	issuer := NewTokenIssuer(newFakeCodeRepo(), newFakeTokenRepo(), 10*time.Minute, time.Hour, 720*time.Hour)
	s.service = NewOAuthService(s.clients, issuer, s.sessions)
}

func TestOAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OAuthServiceTestSuite))
}

func (s *OAuthServiceTestSuite) authorizeRequest() *AuthorizeRequest {
	return &AuthorizeRequest{
		ResponseType: "code",
		ClientID:     s.client.ID.String(),
		RedirectURI:  s.client.RedirectURIs[0],
		State:        "xyz",
		Scopes:       []string{"read"},
	}
}

func (s *OAuthServiceTestSuite) expectClientLookup() {
	s.clients.On("GetByID", s.ctx, s.client.ID).Return(s.client, nil)
}

func (s *OAuthServiceTestSuite) TestBeginAuthorization_Success() {
	s.expectClientLookup()

	prompt, err := s.service.BeginAuthorization(s.ctx, s.sessionID, s.authorizeRequest())
	s.Require().NoError(err)
	s.Equal(s.client.Name, prompt.Client.Name)
	s.Equal(s.user.Email, prompt.User.Email)
	s.Equal([]string{"read"}, prompt.Scopes)
}

func (s *OAuthServiceTestSuite) TestBeginAuthorization_UnknownClient() {
	unknown := uuid.New()
	s.clients.On("GetByID", s.ctx, unknown).Return(nil, common.ErrNotFound)

	req := s.authorizeRequest()
	req.ClientID = unknown.String()

	_, err := s.service.BeginAuthorization(s.ctx, s.sessionID, req)
	s.ErrorIs(err, common.ErrInvalidClient)
}

func (s *OAuthServiceTestSuite) TestBeginAuthorization_MalformedClientID() {
	req := s.authorizeRequest()
	req.ClientID = "not-a-uuid"

	_, err := s.service.BeginAuthorization(s.ctx, s.sessionID, req)
	s.ErrorIs(err, common.ErrInvalidClient)
}

func (s *OAuthServiceTestSuite) TestBeginAuthorization_RevokedClient() {
	s.client.Revoked = true
	s.expectClientLookup()

	_, err := s.service.BeginAuthorization(s.ctx, s.sessionID, s.authorizeRequest())
	s.ErrorIs(err, common.ErrInvalidClient)
}

func (s *OAuthServiceTestSuite) TestBeginAuthorization_UnregisteredRedirectURI() {
	s.expectClientLookup()

	req := s.authorizeRequest()
	req.RedirectURI = "https://evil.example.com/callback"

	_, err := s.service.BeginAuthorization(s.ctx, s.sessionID, req)
	s.ErrorIs(err, common.ErrInvalidRedirectURI)
}

func (s *OAuthServiceTestSuite) TestBeginAuthorization_RedirectURIPrefixIsNotEnough() {
	s.expectClientLookup()

	req := s.authorizeRequest()
	req.RedirectURI = s.client.RedirectURIs[0] + "/extra"

	_, err := s.service.BeginAuthorization(s.ctx, s.sessionID, req)
	s.ErrorIs(err, common.ErrInvalidRedirectURI)
}

func (s *OAuthServiceTestSuite) TestBeginAuthorization_UnsupportedResponseType() {
	s.expectClientLookup()

	req := s.authorizeRequest()
	req.ResponseType = "token"

	_, err := s.service.BeginAuthorization(s.ctx, s.sessionID, req)
	s.ErrorIs(err, common.ErrUnsupportedResponseType)
}

func (s *OAuthServiceTestSuite) TestBeginAuthorization_ScopeOutsideClientSet() {
	s.expectClientLookup()

	req := s.authorizeRequest()
	req.Scopes = []string{"read", "admin"}

	_, err := s.service.BeginAuthorization(s.ctx, s.sessionID, req)
	s.ErrorIs(err, common.ErrInvalidScope)
}

func (s *OAuthServiceTestSuite) TestBeginAuthorization_AnonymousSession() {
	s.expectClientLookup()

	_, err := s.service.BeginAuthorization(s.ctx, "unknown-session", s.authorizeRequest())
	s.ErrorIs(err, common.ErrLoginRequired)
}

func (s *OAuthServiceTestSuite) TestRecordConsent_DeniedRedirectsWithAccessDenied() {
	s.expectClientLookup()

	redirect, err := s.service.RecordConsent(s.ctx, s.sessionID, false, s.authorizeRequest())
	s.Require().NoError(err)

	u, err := url.Parse(redirect)
	s.Require().NoError(err)
	s.True(strings.HasPrefix(redirect, s.client.RedirectURIs[0]))
	s.Equal("access_denied", u.Query().Get("error"))
	s.Equal("xyz", u.Query().Get("state"))
	s.Empty(u.Query().Get("code"))
}

func (s *OAuthServiceTestSuite) TestRecordConsent_ApprovedCodeExchanges() {
	s.expectClientLookup()

	redirect, err := s.service.RecordConsent(s.ctx, s.sessionID, true, s.authorizeRequest())
	s.Require().NoError(err)

	u, err := url.Parse(redirect)
	s.Require().NoError(err)
	code := u.Query().Get("code")
	s.NotEmpty(code)
	s.Equal("xyz", u.Query().Get("state"))

	pair, err := s.service.Exchange(s.ctx, models.GrantAuthorizationCode, &TokenRequest{
		ClientID:     s.client.ID.String(),
		ClientSecret: s.secret,
		Code:         code,
		RedirectURI:  s.client.RedirectURIs[0],
	})
	s.Require().NoError(err)
	s.NotEmpty(pair.AccessToken)
	s.NotEmpty(pair.RefreshToken)
}

func (s *OAuthServiceTestSuite) TestRecordConsent_PreservesExistingQuery() {
	withQuery := "https://app.example.com/callback?env=prod"
	s.client.RedirectURIs = append(s.client.RedirectURIs, withQuery)
	s.expectClientLookup()

	req := s.authorizeRequest()
	req.RedirectURI = withQuery

	redirect, err := s.service.RecordConsent(s.ctx, s.sessionID, true, req)
	s.Require().NoError(err)

	u, err := url.Parse(redirect)
	s.Require().NoError(err)
	s.Equal("prod", u.Query().Get("env"))
	s.NotEmpty(u.Query().Get("code"))
}

func (s *OAuthServiceTestSuite) TestExchange_WrongClientSecret() {
	s.expectClientLookup()

	_, err := s.service.Exchange(s.ctx, models.GrantAuthorizationCode, &TokenRequest{
		ClientID:     s.client.ID.String(),
		ClientSecret: "wrong-secret",
		Code:         "whatever",
		RedirectURI:  s.client.RedirectURIs[0],
	})
	s.ErrorIs(err, common.ErrInvalidClient)
}

func (s *OAuthServiceTestSuite) TestExchange_UnsupportedGrantType() {
	_, err := s.service.Exchange(s.ctx, "client_credentials", &TokenRequest{
		ClientID:     s.client.ID.String(),
		ClientSecret: s.secret,
	})
	s.ErrorIs(err, common.ErrUnsupportedGrantType)
	s.clients.AssertNotCalled(s.T(), "GetByID", mock.Anything, mock.Anything)
}

func (s *OAuthServiceTestSuite) TestExchange_GrantTypeNotAllowedForClient() {
	s.client.GrantTypes = []string{models.GrantAuthorizationCode}
	s.expectClientLookup()

	_, err := s.service.Exchange(s.ctx, models.GrantRefreshToken, &TokenRequest{
		ClientID:     s.client.ID.String(),
		ClientSecret: s.secret,
		RefreshToken: "whatever",
	})
	s.ErrorIs(err, common.ErrUnauthorizedClient)
}

func (s *OAuthServiceTestSuite) TestExchange_MissingCodeParameters() {
	s.expectClientLookup()

	_, err := s.service.Exchange(s.ctx, models.GrantAuthorizationCode, &TokenRequest{
		ClientID:     s.client.ID.String(),
		ClientSecret: s.secret,
	})
	s.ErrorIs(err, common.ErrInvalidGrant)
}

func (s *OAuthServiceTestSuite) TestExchange_MissingRefreshToken() {
	s.expectClientLookup()

	_, err := s.service.Exchange(s.ctx, models.GrantRefreshToken, &TokenRequest{
		ClientID:     s.client.ID.String(),
		ClientSecret: s.secret,
	})
	s.ErrorIs(err, common.ErrInvalidGrant)
}

func (s *OAuthServiceTestSuite) TestExchange_RefreshRotationEndToEnd() {
	s.expectClientLookup()

	redirect, err := s.service.RecordConsent(s.ctx, s.sessionID, true, s.authorizeRequest())
	s.Require().NoError(err)
	u, err := url.Parse(redirect)
	s.Require().NoError(err)

	pair, err := s.service.Exchange(s.ctx, models.GrantAuthorizationCode, &TokenRequest{
		ClientID:     s.client.ID.String(),
		ClientSecret: s.secret,
		Code:         u.Query().Get("code"),
		RedirectURI:  s.client.RedirectURIs[0],
	})
	s.Require().NoError(err)

	rotated, err := s.service.Exchange(s.ctx, models.GrantRefreshToken, &TokenRequest{
		ClientID:     s.client.ID.String(),
		ClientSecret: s.secret,
		RefreshToken: string(pair.RefreshToken),
	})
	s.Require().NoError(err)
	s.NotEqual(pair.RefreshToken, rotated.RefreshToken)

	// Old refresh token is spent, old access token is revoked.
	_, err = s.service.Exchange(s.ctx, models.GrantRefreshToken, &TokenRequest{
		ClientID:     s.client.ID.String(),
		ClientSecret: s.secret,
		RefreshToken: string(pair.RefreshToken),
	})
	s.ErrorIs(err, common.ErrInvalidGrant)

	_, err = s.service.ValidateAccessToken(s.ctx, pair.AccessToken)
	s.ErrorIs(err, common.ErrUnauthorized)
}

func TestParseScopes(t *testing.T) {
	assert.Nil(t, ParseScopes(""))
	assert.Nil(t, ParseScopes("   "))
	assert.Equal(t, []string{"read"}, ParseScopes("read"))
	assert.Equal(t, []string{"read", "write"}, ParseScopes("read write"))
	assert.Equal(t, []string{"read", "write"}, ParseScopes("  read   write  "))
}
