package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authcore/internal/caching"
	"authcore/internal/common"
	"authcore/internal/models"
	"authcore/internal/repositories"

	"github.com/google/uuid"
)

// SessionGateway maintains logged-in-user identity across the multi-request
// authorization flow. The OAuth service only consumes this interface, so the
// flow is testable without a real HTTP session layer.
type SessionGateway interface {
	// CurrentUser returns the user bound to the session, or nil when the
	// session is unknown, expired, or anonymous.
	CurrentUser(ctx context.Context, sessionID string) (*models.User, error)
	// Issue creates a new anonymous session and returns its ID.
	Issue(ctx context.Context) (string, error)
	// Login binds the user to a freshly generated session ID (the old one is
	// destroyed, defeating fixation) and returns the new ID plus any intended
	// URL stored before authentication.
	Login(ctx context.Context, sessionID string, userID uuid.UUID) (newSessionID, intendedURL string, err error)
	// SetIntendedURL records the URL to resume after login.
	SetIntendedURL(ctx context.Context, sessionID, url string) error
	// Destroy invalidates the session; idempotent.
	Destroy(ctx context.Context, sessionID string) error
}

type sessionGateway struct {
	cache caching.CacheService
	users repositories.UserRepository
	ttl   time.Duration
}

func NewSessionGateway(cache caching.CacheService, users repositories.UserRepository, ttl time.Duration) SessionGateway {
	return &sessionGateway{cache: cache, users: users, ttl: ttl}
}

func (g *sessionGateway) CurrentUser(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := g.cache.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if session == nil || session.UserID == "" {
		return nil, nil
	}

	userID, err := uuid.Parse(session.UserID)
	if err != nil {
		return nil, nil
	}

	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (g *sessionGateway) Issue(ctx context.Context) (string, error) {
	sessionID, err := NewOpaqueToken()
	if err != nil {
		return "", err
	}
	if err := g.cache.SetSession(ctx, string(sessionID), &models.Session{}, g.ttl); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return string(sessionID), nil
}

func (g *sessionGateway) Login(ctx context.Context, sessionID string, userID uuid.UUID) (string, string, error) {
	var intended string
	if sessionID != "" {
		if old, err := g.cache.GetSession(ctx, sessionID); err == nil && old != nil {
			intended = old.IntendedURL
		}
		_ = g.cache.DeleteSession(ctx, sessionID)
	}

	newID, err := NewOpaqueToken()
	if err != nil {
		return "", "", err
	}

	session := &models.Session{UserID: userID.String()}
	if err := g.cache.SetSession(ctx, string(newID), session, g.ttl); err != nil {
		return "", "", fmt.Errorf("failed to regenerate session: %w", err)
	}
	return string(newID), intended, nil
}

func (g *sessionGateway) SetIntendedURL(ctx context.Context, sessionID, url string) error {
	session, err := g.cache.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		session = &models.Session{}
	}
	session.IntendedURL = url
	return g.cache.SetSession(ctx, sessionID, session, g.ttl)
}

func (g *sessionGateway) Destroy(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return g.cache.DeleteSession(ctx, sessionID)
}
