package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/mediassist/internal/config"
	"github.com/wolfman30/mediassist/internal/persistence"
	"github.com/wolfman30/mediassist/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool connects and pings the database.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("bootstrap: DATABASE_URL is required for the postgres store")
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// Closer releases a backend connection.
type Closer func()

// BuildStore selects the persistence backend. An unreachable Redis falls back
// to memory so the desk can keep working; a broken Postgres URL is fatal.
func BuildStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (persistence.Store, Closer, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	noop := func() {}

	switch cfg.StoreBackend {
	case "", "memory":
		logger.Info("using in-memory store; bookings will not survive restarts")
		return persistence.NewMemoryStore(), noop, nil
	case "redis":
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			logger.Warn("redis store unavailable; falling back to in-memory store", "addr", cfg.RedisAddr)
			return persistence.NewMemoryStore(), noop, nil
		}
		logger.Info("using redis store", "addr", cfg.RedisAddr, "prefix", cfg.RedisKeyPrefix)
		return persistence.NewRedisStore(client, cfg.RedisKeyPrefix, nil), func() { _ = client.Close() }, nil
	case "postgres":
		pool, err := BuildPostgresPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres store", "desk_id", cfg.DeskID)
		return persistence.NewPostgresStore(pool, cfg.DeskID, nil), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown store backend %q", cfg.StoreBackend)
	}
}
