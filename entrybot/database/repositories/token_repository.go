package repositories

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/disgoorg/entry-bot/entrybot/clock"
	"github.com/disgoorg/entry-bot/entrybot/database"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
)

const tokenBytes = 24

type TokenRepository interface {
	Issue(ctx context.Context, userID snowflake.ID, username string, ttl time.Duration) (*models.AccessToken, error)
	Verify(ctx context.Context, token string) (*models.AccessToken, error)
	CleanupExpired(ctx context.Context) (int, error)
}

type tokenRepository struct {
	mu    sync.Mutex
	store *database.Store
	clock clock.Clock
}

func NewTokenRepository(store *database.Store, c clock.Clock) TokenRepository {
	return &tokenRepository{store: store, clock: c}
}

func (r *tokenRepository) load(ctx context.Context) (map[string]*models.AccessToken, error) {
	tokens := make(map[string]*models.AccessToken)
	if err := r.store.Load(ctx, database.CollectionTokens, &tokens); err != nil {
		return nil, err
	}
	for key, t := range tokens {
		if t == nil {
			delete(tokens, key)
			continue
		}
		t.Token = key
	}
	return tokens, nil
}

func (r *tokenRepository) save(ctx context.Context, tokens map[string]*models.AccessToken) error {
	return r.store.Save(ctx, database.CollectionTokens, tokens)
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Issue stores a new random token valid for ttl. A non-positive ttl yields a
// token that is already expired.
func (r *tokenRepository) Issue(ctx context.Context, userID snowflake.ID, username string, ttl time.Duration) (*models.AccessToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	var token string
	for {
		if token, err = newToken(); err != nil {
			return nil, err
		}
		if _, taken := tokens[token]; !taken {
			break
		}
	}

	now := r.clock.Now()
	expires := now.Add(ttl)
	if ttl <= 0 {
		expires = now.Add(-time.Second)
	}
	record := &models.AccessToken{
		Token:     token,
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: expires,
	}
	tokens[token] = record
	if err := r.save(ctx, tokens); err != nil {
		return nil, err
	}
	issued := *record
	return &issued, nil
}

// Verify returns the token record, or ErrInvalidToken when it is unknown or
// expired. An expired token is deleted.
func (r *tokenRepository) Verify(ctx context.Context, token string) (*models.AccessToken, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tokens, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	record, ok := tokens[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	if !record.Valid(r.clock.Now()) {
		delete(tokens, token)
		if err := r.save(ctx, tokens); err != nil {
			return nil, err
		}
		return nil, ErrInvalidToken
	}
	return record, nil
}

func (r *tokenRepository) CleanupExpired(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	now := r.clock.Now()
	removed := 0
	for key, t := range tokens {
		if !t.Valid(now) {
			delete(tokens, key)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	if err := r.save(ctx, tokens); err != nil {
		return 0, err
	}
	return removed, nil
}
