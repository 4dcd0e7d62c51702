package lock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL      = 5 * time.Second
	defaultPollInterval = 25 * time.Millisecond
	redisLockKeyPattern = "rental:lock:"
)

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every replica that talks to the same Redis.
type RedisLocker struct {
	client       *redis.Client
	ttl          time.Duration
	pollInterval time.Duration
	log          *slog.Logger
}

// NewRedisLocker creates a Redis-backed locker. A zero ttl uses five seconds.
func NewRedisLocker(client *redis.Client, ttl time.Duration, log *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if log == nil {
		log = slog.Default()
	}

	return &RedisLocker{
		client:       client,
		ttl:          ttl,
		pollInterval: defaultPollInterval,
		log:          log,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := redisLockKeyPattern + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrLockTimeout
			}
			l.log.Error("failed to acquire lock", "key", key, "error", err)
			return nil, err
		}

		if acquired {
			break
		}

		select {
		case <-ctx.Done():
			l.log.Warn("lock already held", "key", key)
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.log.Error("failed to release lock", "key", key, "error", err)
			}
		})
	}, nil
}
