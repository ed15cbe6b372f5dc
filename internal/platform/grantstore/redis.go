package grantstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

const defaultKeyPrefix = "pitchroom:grant:"

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Redis stores grants as string keys with a native expiry.
type Redis struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

var _ Store = (*Redis)(nil)

func NewRedis(ctx context.Context, log *logger.Logger, cfg RedisConfig) (*Redis, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisWithClient(log, rdb, cfg.KeyPrefix), nil
}

func newRedisWithClient(log *logger.Logger, rdb *goredis.Client, prefix string) *Redis {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultKeyPrefix
	}
	return &Redis{log: log.With("service", "RedisGrantStore"), rdb: rdb, prefix: prefix}
}

func (r *Redis) key(grant string) string { return r.prefix + strings.TrimSpace(grant) }

func (r *Redis) Put(ctx context.Context, grant string, policyID uuid.UUID, ttl time.Duration) error {
	if r == nil || r.rdb == nil {
		return fmt.Errorf("redis grant store not initialized")
	}
	if strings.TrimSpace(grant) == "" {
		return fmt.Errorf("grant is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	return r.rdb.Set(ctx, r.key(grant), policyID.String(), ttl).Err()
}

func (r *Redis) Lookup(ctx context.Context, grant string) (uuid.UUID, bool, error) {
	if r == nil || r.rdb == nil {
		return uuid.Nil, false, fmt.Errorf("redis grant store not initialized")
	}
	if strings.TrimSpace(grant) == "" {
		return uuid.Nil, false, nil
	}
	raw, err := r.rdb.Get(ctx, r.key(grant)).Result()
	if errors.Is(err, goredis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("redis get grant: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		r.log.Warn("Discarding malformed grant value", "error", err)
		return uuid.Nil, false, nil
	}
	return id, true, nil
}

func (r *Redis) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
