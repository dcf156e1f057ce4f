package models

import (
	"time"

	"github.com/google/uuid"
)

// OAuth2 grant types supported by this server.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
)

// Client is a registered OAuth2 client. Immutable after provisioning except
// for the Revoked flag.
type Client struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	SecretHash   string    `json:"-" db:"secret_hash"` // bcrypt, never serialized
	RedirectURIs []string  `json:"redirect_uris" db:"redirect_uris"`
	GrantTypes   []string  `json:"grant_types" db:"grant_types"`
	Scopes       []string  `json:"scopes" db:"scopes"`
	Revoked      bool      `json:"revoked" db:"revoked"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// HasRedirectURI reports whether uri exactly matches a registered redirect
// URI. Matching is byte-exact; no prefix or wildcard logic.
func (c *Client) HasRedirectURI(uri string) bool {
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// AllowsGrantType reports whether the client may use the given grant type.
func (c *Client) AllowsGrantType(grantType string) bool {
	for _, gt := range c.GrantTypes {
		if gt == grantType {
			return true
		}
	}
	return false
}

// AllowsScopes reports whether every requested scope is in the client's
// allowed scope set.
func (c *Client) AllowsScopes(requested []string) bool {
	allowed := make(map[string]bool, len(c.Scopes))
	for _, s := range c.Scopes {
		allowed[s] = true
	}
	for _, s := range requested {
		if !allowed[s] {
			return false
		}
	}
	return true
}
