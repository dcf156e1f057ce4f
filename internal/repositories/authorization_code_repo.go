package repositories

import (
	"context"
	"errors"
	"fmt"

	"authcore/internal/common"
	"authcore/internal/models"

	"github.com/jackc/pgx/v5"
)

type AuthorizationCodeRepository interface {
	Create(ctx context.Context, code *models.AuthorizationCode) error
	GetByHash(ctx context.Context, codeHash string) (*models.AuthorizationCode, error)
	// Consume atomically marks an unconsumed, unexpired code as consumed.
	// Returns false when the code was already consumed, expired, or unknown,
	// so two concurrent exchanges of one code produce exactly one true.
	Consume(ctx context.Context, codeHash string) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type authorizationCodeRepo struct {
	db Database
}

func NewAuthorizationCodeRepo(db Database) AuthorizationCodeRepository {
	return &authorizationCodeRepo{db: db}
}

func (r *authorizationCodeRepo) Create(ctx context.Context, code *models.AuthorizationCode) error {
	query := `
		INSERT INTO oauth_authorization_codes (code_hash, client_id, user_id, redirect_uri, scopes, expires_at, consumed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW())
	`
	_, err := r.db.Exec(ctx, query, code.CodeHash, code.ClientID, code.UserID, code.RedirectURI, code.Scopes, code.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to store authorization code: %w", err)
	}
	return nil
}

func (r *authorizationCodeRepo) GetByHash(ctx context.Context, codeHash string) (*models.AuthorizationCode, error) {
	code := &models.AuthorizationCode{}
	query := `
		SELECT code_hash, client_id, user_id, redirect_uri, scopes, expires_at, consumed, created_at
		FROM oauth_authorization_codes
		WHERE code_hash = $1
	`
	err := r.db.QueryRow(ctx, query, codeHash).Scan(&code.CodeHash, &code.ClientID, &code.UserID, &code.RedirectURI, &code.Scopes, &code.ExpiresAt, &code.Consumed, &code.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return code, nil
}

func (r *authorizationCodeRepo) Consume(ctx context.Context, codeHash string) (bool, error) {
	// Compare-and-set, not read-then-write: the WHERE clause is the guard.
	query := `
		UPDATE oauth_authorization_codes
		SET consumed = TRUE
		WHERE code_hash = $1 AND consumed = FALSE AND expires_at > NOW()
	`
	tag, err := r.db.Exec(ctx, query, codeHash)
	if err != nil {
		return false, fmt.Errorf("failed to consume authorization code: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *authorizationCodeRepo) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM oauth_authorization_codes WHERE expires_at <= NOW() OR consumed = TRUE`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
