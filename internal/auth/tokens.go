package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefreshStore persists issued refresh tokens so logout can revoke them.
type RefreshStore interface {
	Save(ctx context.Context, token, email string, expiresAt time.Time) error
	Revoke(ctx context.Context, token string) error
	Valid(ctx context.Context, token string) bool
}

// RedisRefreshStore keeps refresh tokens in redis with a TTL matching
// their expiry.
type RedisRefreshStore struct {
	client *redis.Client
	prefix string
}

// NewRedisRefreshStore wraps a redis client.
func NewRedisRefreshStore(client *redis.Client) *RedisRefreshStore {
	return &RedisRefreshStore{client: client, prefix: "attendance:refresh:"}
}

// Save stores the token until it expires.
func (s *RedisRefreshStore) Save(ctx context.Context, token, email string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.prefix+token, email, ttl).Err()
}

// Revoke deletes the token.
func (s *RedisRefreshStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.prefix+token).Err()
}

// Valid reports whether the token is still stored.
func (s *RedisRefreshStore) Valid(ctx context.Context, token string) bool {
	return s.client.Exists(ctx, s.prefix+token).Val() > 0
}

// MemoryRefreshStore is the fallback when redis is unreachable. Tokens do
// not survive a restart, which matches the rest of the degraded mode.
type MemoryRefreshStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

// NewMemoryRefreshStore creates an empty in-memory store.
func NewMemoryRefreshStore() *MemoryRefreshStore {
	return &MemoryRefreshStore{tokens: make(map[string]time.Time)}
}

// Save records the token and its expiry.
func (s *MemoryRefreshStore) Save(_ context.Context, token, _ string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = expiresAt
	return nil
}

// Revoke forgets the token.
func (s *MemoryRefreshStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

// Valid reports whether the token exists and has not expired.
func (s *MemoryRefreshStore) Valid(_ context.Context, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(s.tokens, token)
		return false
	}
	return true
}
