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

type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}

type clientRepo struct {
	db Database
}

func NewClientRepo(db Database) ClientRepository {
	return &clientRepo{db: db}
}

func (r *clientRepo) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO oauth_clients (id, name, secret_hash, redirect_uris, grant_types, scopes, revoked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, client.ID, client.Name, client.SecretHash, client.RedirectURIs, client.GrantTypes, client.Scopes, client.Revoked)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (r *clientRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client := &models.Client{}
	query := `
		SELECT id, name, secret_hash, redirect_uris, grant_types, scopes, revoked, created_at, updated_at
		FROM oauth_clients
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&client.ID, &client.Name, &client.SecretHash, &client.RedirectURIs, &client.GrantTypes, &client.Scopes, &client.Revoked, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return client, nil
}

func (r *clientRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE oauth_clients SET revoked = TRUE, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
