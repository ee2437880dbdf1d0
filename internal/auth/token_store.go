package auth

import (
	"context"
	"time"

	"clfadmin/internal/cache"
)

const revokedTokenKeyPrefix = "revoked:access_token:"

// TokenStoreInterface defines the interface for token revocation.
type TokenStoreInterface interface {
	RevokeAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsAccessTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenStore records revoked access token IDs in Redis.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

// RevokeAccessToken marks a token ID as revoked until it would have expired anyway.
func (s *TokenStore) RevokeAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsAccessTokenRevoked checks whether a token ID was revoked. Redis errors are
// returned so the caller can fail closed.
func (s *TokenStore) IsAccessTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.cache.Exists(ctx, revokedTokenKeyPrefix+tokenID)
}

// NoopTokenStore never revokes anything. Used when no Redis is configured.
type NoopTokenStore struct{}

var _ TokenStoreInterface = NoopTokenStore{}

func (NoopTokenStore) RevokeAccessToken(context.Context, string, time.Duration) error { return nil }

func (NoopTokenStore) IsAccessTokenRevoked(context.Context, string) (bool, error) { return false, nil }
