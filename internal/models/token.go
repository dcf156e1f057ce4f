package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthorizationCode is a single-use, short-lived credential proving the user
// approved access. Only the SHA-256 hash of the code is stored; Consumed
// flips to true atomically on first successful exchange.
type AuthorizationCode struct {
	CodeHash    string    `json:"-" db:"code_hash"`
	ClientID    uuid.UUID `json:"client_id" db:"client_id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	RedirectURI string    `json:"redirect_uri" db:"redirect_uri"`
	Scopes      []string  `json:"scopes" db:"scopes"`
	ExpiresAt   time.Time `json:"expires_at" db:"expires_at"`
	Consumed    bool      `json:"consumed" db:"consumed"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// AccessToken is an opaque bearer credential. Stored hashed; validation is a
// single store read that honors Revoked and ExpiresAt.
type AccessToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TokenHash string    `json:"-" db:"token_hash"`
	ClientID  uuid.UUID `json:"client_id" db:"client_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Scopes    []string  `json:"scopes" db:"scopes"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Revoked   bool      `json:"revoked" db:"revoked"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RefreshToken is rotated on use: redeeming it revokes it and issues a new
// access/refresh pair.
type RefreshToken struct {
	ID            uuid.UUID `json:"id" db:"id"`
	TokenHash     string    `json:"-" db:"token_hash"`
	AccessTokenID uuid.UUID `json:"access_token_id" db:"access_token_id"`
	ClientID      uuid.UUID `json:"client_id" db:"client_id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	Scopes        []string  `json:"scopes" db:"scopes"`
	ExpiresAt     time.Time `json:"expires_at" db:"expires_at"`
	Revoked       bool      `json:"revoked" db:"revoked"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// TokenPair is the RFC 6749 token endpoint success response.
type TokenPair struct {
	AccessToken  OpaqueToken `json:"access_token"`
	RefreshToken OpaqueToken `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	Scope        string      `json:"scope,omitempty"`
}
