package cache

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound is returned for unknown, expired or already used tokens
var ErrTokenNotFound = errors.New("token not found or expired")

// TokenStore keeps single-use tokens such as password reset tokens and OAuth
// state values. Take consumes a token atomically.
type TokenStore interface {
	Put(ctx context.Context, namespace, token, value string, ttl time.Duration) error
	Take(ctx context.Context, namespace, token string) (string, error)
}

// NewToken returns a URL-safe random token of n random bytes
func NewToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func tokenKey(namespace, token string) string {
	return KeyPrefix + namespace + ":" + token
}

// RedisTokenStore implements TokenStore with SET EX / GETDEL
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore creates a token store on a shared client
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

// Put implements TokenStore
func (s *RedisTokenStore) Put(ctx context.Context, namespace, token, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, tokenKey(namespace, token), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store %s token: %w", namespace, err)
	}
	return nil
}

// Take implements TokenStore
func (s *RedisTokenStore) Take(ctx context.Context, namespace, token string) (string, error) {
	v, err := s.client.GetDel(ctx, tokenKey(namespace, token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s token: %w", namespace, err)
	}
	return v, nil
}

var _ TokenStore = (*RedisTokenStore)(nil)

// InMemoryTokenStore implements TokenStore for a single process
type InMemoryTokenStore struct {
	*expiringMap
}

// NewInMemoryTokenStore creates an in-memory token store
func NewInMemoryTokenStore() *InMemoryTokenStore {
	return &InMemoryTokenStore{expiringMap: newExpiringMap(time.Minute)}
}

// Put implements TokenStore
func (s *InMemoryTokenStore) Put(_ context.Context, namespace, token, value string, ttl time.Duration) error {
	s.set(tokenKey(namespace, token), value, ttl)
	return nil
}

// Take implements TokenStore
func (s *InMemoryTokenStore) Take(_ context.Context, namespace, token string) (string, error) {
	v, ok := s.take(tokenKey(namespace, token))
	if !ok {
		return "", ErrTokenNotFound
	}
	return v, nil
}

var _ TokenStore = (*InMemoryTokenStore)(nil)
