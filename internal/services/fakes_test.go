package services

import (
	"context"
	"sync"
	"time"

	"authcore/internal/common"
	"authcore/internal/models"

	"github.com/google/uuid"
)

// fakeCodeRepo is an in-memory AuthorizationCodeRepository. Consume holds the
// same compare-and-set contract as the SQL implementation, guarded by a mutex
// so concurrency tests are meaningful.
type fakeCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*models.AuthorizationCode
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{codes: make(map[string]*models.AuthorizationCode)}
}

func (r *fakeCodeRepo) Create(ctx context.Context, code *models.AuthorizationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *code
	r.codes[code.CodeHash] = &cp
	return nil
}

func (r *fakeCodeRepo) GetByHash(ctx context.Context, codeHash string) (*models.AuthorizationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.codes[codeHash]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *code
	return &cp, nil
}

func (r *fakeCodeRepo) Consume(ctx context.Context, codeHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.codes[codeHash]
	if !ok || code.Consumed || time.Now().After(code.ExpiresAt) {
		return false, nil
	}
	code.Consumed = true
	return true, nil
}

func (r *fakeCodeRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for hash, code := range r.codes {
		if code.Consumed || time.Now().After(code.ExpiresAt) {
			delete(r.codes, hash)
			n++
		}
	}
	return n, nil
}

// fakeTokenRepo is an in-memory TokenRepository with the same conditional
// semantics as the SQL implementation.
type fakeTokenRepo struct {
	mu       sync.Mutex
	access   map[string]*models.AccessToken
	refresh  map[string]*models.RefreshToken
	accessID map[uuid.UUID]*models.AccessToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		access:   make(map[string]*models.AccessToken),
		refresh:  make(map[string]*models.RefreshToken),
		accessID: make(map[uuid.UUID]*models.AccessToken),
	}
}

func (r *fakeTokenRepo) CreateAccessToken(ctx context.Context, token *models.AccessToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.access[token.TokenHash] = &cp
	r.accessID[token.ID] = &cp
	return nil
}

func (r *fakeTokenRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.refresh[token.TokenHash] = &cp
	return nil
}

func (r *fakeTokenRepo) GetAccessTokenByHash(ctx context.Context, tokenHash string) (*models.AccessToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.access[tokenHash]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *token
	return &cp, nil
}

func (r *fakeTokenRepo) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.refresh[tokenHash]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *token
	return &cp, nil
}

func (r *fakeTokenRepo) RevokeAccessToken(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token, ok := r.access[tokenHash]; ok {
		token.Revoked = true
	}
	return nil
}

func (r *fakeTokenRepo) RevokeAccessTokenByID(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token, ok := r.accessID[id]; ok {
		token.Revoked = true
	}
	return nil
}

func (r *fakeTokenRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.refresh[tokenHash]
	if !ok || token.Revoked || time.Now().After(token.ExpiresAt) {
		return false, nil
	}
	token.Revoked = true
	return true, nil
}

func (r *fakeTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for hash, token := range r.refresh {
		if time.Now().After(token.ExpiresAt) {
			delete(r.refresh, hash)
			n++
		}
	}
	for hash, token := range r.access {
		if time.Now().After(token.ExpiresAt) {
			delete(r.access, hash)
			delete(r.accessID, token.ID)
			n++
		}
	}
	return n, nil
}

// fakeCache is an in-memory caching.CacheService. TTLs are recorded but not
// enforced; rate limit counters behave like INCR with a fixed window.
type fakeCache struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	counters map[string]int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		sessions: make(map[string]*models.Session),
		counters: make(map[string]int),
	}
}

func (c *fakeCache) SetSession(ctx context.Context, sessionID string, session *models.Session, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *session
	c.sessions[sessionID] = &cp
	return nil
}

func (c *fakeCache) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	session, ok := c.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *session
	return &cp, nil
}

func (c *fakeCache) DeleteSession(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
	return nil
}

func (c *fakeCache) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key] > limit, nil
}

func (c *fakeCache) Ping(ctx context.Context) error {
	return nil
}

// fakeSessionGateway binds session IDs to users in memory.
type fakeSessionGateway struct {
	mu       sync.Mutex
	users    map[string]*models.User
	intended map[string]string
}

func newFakeSessionGateway() *fakeSessionGateway {
	return &fakeSessionGateway{
		users:    make(map[string]*models.User),
		intended: make(map[string]string),
	}
}

func (g *fakeSessionGateway) bind(sessionID string, user *models.User) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users[sessionID] = user
}

func (g *fakeSessionGateway) CurrentUser(ctx context.Context, sessionID string) (*models.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.users[sessionID], nil
}

func (g *fakeSessionGateway) Issue(ctx context.Context) (string, error) {
	token, err := NewOpaqueToken()
	if err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users[string(token)] = nil
	return string(token), nil
}

func (g *fakeSessionGateway) Login(ctx context.Context, sessionID string, userID uuid.UUID) (string, string, error) {
	token, err := NewOpaqueToken()
	if err != nil {
		return "", "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	intended := g.intended[sessionID]
	delete(g.users, sessionID)
	delete(g.intended, sessionID)
	g.users[string(token)] = &models.User{ID: userID}
	return string(token), intended, nil
}

func (g *fakeSessionGateway) SetIntendedURL(ctx context.Context, sessionID, url string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intended[sessionID] = url
	return nil
}

func (g *fakeSessionGateway) Destroy(ctx context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.users, sessionID)
	delete(g.intended, sessionID)
	return nil
}
