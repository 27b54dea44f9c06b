package keylock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"virtual-doctor-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultRedisTTL  = 6 * time.Minute
	defaultPollDelay = 50 * time.Millisecond
)

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis serializes holders of a key across processes sharing one Redis.
// The TTL bounds how long a crashed holder can block others, so it must exceed
// the longest critical section.
type Redis struct {
	rdb       *redis.Client
	prefix    string
	ttl       time.Duration
	pollDelay time.Duration
	logger    logger.ILogger
}

func NewRedis(rdb *redis.Client, prefix string, ttl time.Duration, log logger.ILogger) *Redis {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl, pollDelay: defaultPollDelay, logger: log}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := r.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.pollDelay)
	defer ticker.Stop()

	for {
		ok, err := r.rdb.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("acquire lock %s: %w", redisKey, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be done; release on a fresh one.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := unlockScript.Run(releaseCtx, r.rdb, []string{redisKey}, token).Err()
			if err != nil && !errors.Is(err, redis.Nil) {
				r.logger.Warn("KeyLock", "Failed to release redis lock, it will expire on its own", map[string]interface{}{
					"key":   redisKey,
					"error": err.Error(),
				})
			}
		})
	}, nil
}
