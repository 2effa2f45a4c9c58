package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
)

const keyPrefix = "genstudio:inflight:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another request is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker shares the in-flight guard across API instances.
type RedisLocker struct {
	rdb    redis.UniversalClient
	logger infra.Logger
}

func NewRedisLocker(rdb redis.UniversalClient, logger infra.Logger) *RedisLocker {
	return &RedisLocker{rdb: rdb, logger: logger}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
	}
	if !ok {
		return nil, domain.ErrGenerationInFlight
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be cancelled.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.rdb, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warn().Err(err).Str("key", key).Msg("lock: release failed, lock will expire")
			}
		})
	}, nil
}

var _ Locker = (*RedisLocker)(nil)
