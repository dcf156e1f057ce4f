package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"authcore/internal/common"
	"authcore/internal/models"
	"authcore/internal/repositories"

	"github.com/google/uuid"
)

// TokenIssuer owns the format, storage, and expiry policy of authorization
// codes, access tokens, and refresh tokens. Nothing else creates, consumes,
// or revokes them.
type TokenIssuer interface {
	IssueAuthorizationCode(ctx context.Context, client *models.Client, userID uuid.UUID, redirectURI string, scopes []string) (models.OpaqueToken, error)
	ExchangeAuthorizationCode(ctx context.Context, client *models.Client, code models.OpaqueToken, redirectURI string) (*models.TokenPair, error)
	// RotateRefreshToken revokes the presented refresh token and issues a new
	// access/refresh pair. Reuse of a rotated token fails with ErrInvalidGrant.
	RotateRefreshToken(ctx context.Context, client *models.Client, refreshToken models.OpaqueToken) (*models.TokenPair, error)
	ValidateAccessToken(ctx context.Context, token models.OpaqueToken) (*models.AccessToken, error)
	RevokeAccessToken(ctx context.Context, token models.OpaqueToken) error
}

type tokenIssuer struct {
	codes      repositories.AuthorizationCodeRepository
	tokens     repositories.TokenRepository
	codeTTL    time.Duration
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenIssuer(codes repositories.AuthorizationCodeRepository, tokens repositories.TokenRepository, codeTTL, accessTTL, refreshTTL time.Duration) TokenIssuer {
	return &tokenIssuer{
		codes:      codes,
		tokens:     tokens,
		codeTTL:    codeTTL,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *tokenIssuer) IssueAuthorizationCode(ctx context.Context, client *models.Client, userID uuid.UUID, redirectURI string, scopes []string) (models.OpaqueToken, error) {
	code, err := NewOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate authorization code: %w", err)
	}

	record := &models.AuthorizationCode{
		CodeHash:    HashToken(code),
		ClientID:    client.ID,
		UserID:      userID,
		RedirectURI: redirectURI,
		Scopes:      scopes,
		ExpiresAt:   time.Now().Add(s.codeTTL),
	}
	if err := s.codes.Create(ctx, record); err != nil {
		return "", err
	}
	return code, nil
}

func (s *tokenIssuer) ExchangeAuthorizationCode(ctx context.Context, client *models.Client, code models.OpaqueToken, redirectURI string) (*models.TokenPair, error) {
	record, err := s.codes.GetByHash(ctx, HashToken(code))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidGrant
		}
		return nil, fmt.Errorf("failed to look up authorization code: %w", err)
	}

	// All validation happens before the consume step, so a failed exchange
	// never burns the code.
	if record.ClientID != client.ID {
		return nil, common.ErrInvalidGrant
	}
	// Exact match against the URI recorded at issuance. A URI that is merely
	// registered for the client is not enough.
	if record.RedirectURI != redirectURI {
		return nil, common.ErrInvalidGrant
	}
	if record.Consumed || time.Now().After(record.ExpiresAt) {
		return nil, common.ErrInvalidGrant
	}

	consumed, err := s.codes.Consume(ctx, record.CodeHash)
	if err != nil {
		return nil, err
	}
	if !consumed {
		// A concurrent exchange won the compare-and-set.
		return nil, common.ErrInvalidGrant
	}

	return s.mintPair(ctx, record.ClientID, record.UserID, record.Scopes)
}

func (s *tokenIssuer) RotateRefreshToken(ctx context.Context, client *models.Client, refreshToken models.OpaqueToken) (*models.TokenPair, error) {
	record, err := s.tokens.GetRefreshTokenByHash(ctx, HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidGrant
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if record.ClientID != client.ID {
		return nil, common.ErrInvalidGrant
	}

	// The conditional revoke also rejects revoked and expired tokens, and
	// under concurrency exactly one caller rotates.
	rotated, err := s.tokens.RevokeRefreshToken(ctx, record.TokenHash)
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, common.ErrInvalidGrant
	}

	// The access token the old refresh token was paired with dies with it.
	if err := s.tokens.RevokeAccessTokenByID(ctx, record.AccessTokenID); err != nil {
		log.Printf("WARN: failed to revoke rotated access token %s: %v", record.AccessTokenID, err)
	}

	return s.mintPair(ctx, record.ClientID, record.UserID, record.Scopes)
}

func (s *tokenIssuer) ValidateAccessToken(ctx context.Context, token models.OpaqueToken) (*models.AccessToken, error) {
	record, err := s.tokens.GetAccessTokenByHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to look up access token: %w", err)
	}

	if record.Revoked || time.Now().After(record.ExpiresAt) {
		return nil, common.ErrUnauthorized
	}
	return record, nil
}

func (s *tokenIssuer) RevokeAccessToken(ctx context.Context, token models.OpaqueToken) error {
	return s.tokens.RevokeAccessToken(ctx, HashToken(token))
}

func (s *tokenIssuer) mintPair(ctx context.Context, clientID, userID uuid.UUID, scopes []string) (*models.TokenPair, error) {
	accessValue, err := NewOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshValue, err := NewOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now()
	access := &models.AccessToken{
		ID:        uuid.New(),
		TokenHash: HashToken(accessValue),
		ClientID:  clientID,
		UserID:    userID,
		Scopes:    scopes,
		ExpiresAt: now.Add(s.accessTTL),
	}
	if err := s.tokens.CreateAccessToken(ctx, access); err != nil {
		return nil, err
	}

	refresh := &models.RefreshToken{
		ID:            uuid.New(),
		TokenHash:     HashToken(refreshValue),
		AccessTokenID: access.ID,
		ClientID:      clientID,
		UserID:        userID,
		Scopes:        scopes,
		ExpiresAt:     now.Add(s.refreshTTL),
	}
	if err := s.tokens.CreateRefreshToken(ctx, refresh); err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken:  accessValue,
		RefreshToken: refreshValue,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.accessTTL.Seconds()),
		Scope:        strings.Join(scopes, " "),
	}, nil
}

// NewOpaqueToken generates a 256-bit credential from a cryptographically
// secure source, base64url-encoded. Never derived from timestamps or
// sequence IDs.
func NewOpaqueToken() (models.OpaqueToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return models.OpaqueToken(base64.RawURLEncoding.EncodeToString(buf)), nil
}

// HashToken returns the SHA-256 hex digest stored in place of the raw
// credential.
func HashToken(token models.OpaqueToken) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
