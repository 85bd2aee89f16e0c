package cache

import (
	"context"
	"io"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Stores bundles the key/value stores used by the application services
type Stores struct {
	Idempotency shared.IdempotencyStore
	Tokens      TokenStore
	Blacklist   auth.TokenBlacklist

	client  *redis.Client
	closers []io.Closer
}

// Option configures NewStores
type Option func(*options)

type options struct {
	logger        *zap.Logger
	allowFallback bool
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory stores instead of failing. Defaults to true.
func WithInMemoryFallback(allow bool) Option {
	return func(o *options) { o.allowFallback = allow }
}

// NewStores builds Redis-backed stores, or in-memory stores when no Redis
// host is configured
func NewStores(ctx context.Context, cfg config.RedisConfig, opts ...Option) (*Stores, error) {
	o := options{logger: zap.NewNop(), allowFallback: true}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Host == "" {
		o.logger.Info("Redis not configured, using in-memory stores")
		return NewInMemoryStores(), nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		if !o.allowFallback {
			return nil, err
		}
		o.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
			"Tokens and idempotency keys will not be shared between instances.",
			zap.Error(err),
		)
		return NewInMemoryStores(), nil
	}

	o.logger.Info("Using Redis stores", zap.String("addr", cfg.Addr()))
	return &Stores{
		Idempotency: NewRedisIdempotencyStore(client),
		Tokens:      NewRedisTokenStore(client),
		Blacklist:   auth.NewRedisTokenBlacklist(client),
		client:      client,
	}, nil
}

// NewInMemoryStores builds single-process stores
func NewInMemoryStores() *Stores {
	idem := NewInMemoryIdempotencyStore()
	tokens := NewInMemoryTokenStore()
	return &Stores{
		Idempotency: idem,
		Tokens:      tokens,
		Blacklist:   auth.NewInMemoryTokenBlacklist(),
		closers:     []io.Closer{idem, tokens},
	}
}

// Ping checks Redis when configured
func (s *Stores) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

// Close releases the Redis client or stops the in-memory sweepers
func (s *Stores) Close() error {
	for _, c := range s.closers {
		_ = c.Close()
	}
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
