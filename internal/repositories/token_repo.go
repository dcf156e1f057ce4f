package repositories

import (
	"context"
	"errors"
	"fmt"

	"authcore/internal/common"
	"authcore/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TokenRepository interface {
	CreateAccessToken(ctx context.Context, token *models.AccessToken) error
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// GetAccessTokenByHash is the single consistent read a validation call
	// makes; revoked and expires_at come back from the same row version.
	GetAccessTokenByHash(ctx context.Context, tokenHash string) (*models.AccessToken, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	// RevokeAccessToken is idempotent: revoking a revoked token is a no-op.
	RevokeAccessToken(ctx context.Context, tokenHash string) error
	RevokeAccessTokenByID(ctx context.Context, id uuid.UUID) error
	// RevokeRefreshToken atomically revokes an unrevoked, unexpired refresh
	// token and reports whether this call won the rotation.
	RevokeRefreshToken(ctx context.Context, tokenHash string) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type tokenRepo struct {
	db Database
}

func NewTokenRepo(db Database) TokenRepository {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) CreateAccessToken(ctx context.Context, token *models.AccessToken) error {
	query := `
		INSERT INTO oauth_access_tokens (id, token_hash, client_id, user_id, scopes, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW())
	`
	_, err := r.db.Exec(ctx, query, token.ID, token.TokenHash, token.ClientID, token.UserID, token.Scopes, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	return nil
}

func (r *tokenRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO oauth_refresh_tokens (id, token_hash, access_token_id, client_id, user_id, scopes, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NOW())
	`
	_, err := r.db.Exec(ctx, query, token.ID, token.TokenHash, token.AccessTokenID, token.ClientID, token.UserID, token.Scopes, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (r *tokenRepo) GetAccessTokenByHash(ctx context.Context, tokenHash string) (*models.AccessToken, error) {
	token := &models.AccessToken{}
	query := `
		SELECT id, token_hash, client_id, user_id, scopes, expires_at, revoked, created_at
		FROM oauth_access_tokens
		WHERE token_hash = $1
	`
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(&token.ID, &token.TokenHash, &token.ClientID, &token.UserID, &token.Scopes, &token.ExpiresAt, &token.Revoked, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return token, nil
}

func (r *tokenRepo) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	token := &models.RefreshToken{}
	query := `
		SELECT id, token_hash, access_token_id, client_id, user_id, scopes, expires_at, revoked, created_at
		FROM oauth_refresh_tokens
		WHERE token_hash = $1
	`
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(&token.ID, &token.TokenHash, &token.AccessTokenID, &token.ClientID, &token.UserID, &token.Scopes, &token.ExpiresAt, &token.Revoked, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return token, nil
}

func (r *tokenRepo) RevokeAccessToken(ctx context.Context, tokenHash string) error {
	query := `UPDATE oauth_access_tokens SET revoked = TRUE WHERE token_hash = $1`
	_, err := r.db.Exec(ctx, query, tokenHash)
	return err
}

func (r *tokenRepo) RevokeAccessTokenByID(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE oauth_access_tokens SET revoked = TRUE WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *tokenRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) (bool, error) {
	query := `
		UPDATE oauth_refresh_tokens
		SET revoked = TRUE
		WHERE token_hash = $1 AND revoked = FALSE AND expires_at > NOW()
	`
	tag, err := r.db.Exec(ctx, query, tokenHash)
	if err != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *tokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var total int64
	refreshQuery := `DELETE FROM oauth_refresh_tokens WHERE expires_at <= NOW()`
	accessQuery := `
		DELETE FROM oauth_access_tokens
		WHERE expires_at <= NOW()
		AND id NOT IN (SELECT access_token_id FROM oauth_refresh_tokens)
	`

	// Refresh tokens reference access tokens, so they go first.
	tag, err := r.db.Exec(ctx, refreshQuery)
	if err != nil {
		return 0, err
	}
	total += tag.RowsAffected()

	tag, err = r.db.Exec(ctx, accessQuery)
	if err != nil {
		return total, err
	}
	total += tag.RowsAffected()
	return total, nil
}
