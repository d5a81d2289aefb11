package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still carries our token,
// so an expired holder never frees a lock someone else took over.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

type RedisLocker struct {
	rdb      redis.Cmdable
	ttl      time.Duration
	wait     time.Duration
	step     time.Duration
	newToken func() string
	logger   *zap.Logger
}

type RedisOption func(*RedisLocker)

func WithTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLocker) { l.ttl = ttl }
}

func WithWait(wait time.Duration) RedisOption {
	return func(l *RedisLocker) { l.wait = wait }
}

func WithTokenFunc(fn func() string) RedisOption {
	return func(l *RedisLocker) { l.newToken = fn }
}

func WithLogger(logger *zap.Logger) RedisOption {
	return func(l *RedisLocker) {
		if logger != nil {
			l.logger = logger.Named("lock.redis")
		}
	}
}

func NewRedisLocker(rdb redis.Cmdable, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		rdb:      rdb,
		ttl:      DefaultTTL,
		wait:     DefaultWait,
		step:     defaultRetryStep,
		newToken: uuid.NewString,
		logger:   zap.L().Named("lock.redis"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := l.newToken()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, ErrNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.step):
		}
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// the caller's ctx may already be cancelled by now
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := l.rdb.Eval(releaseCtx, releaseScript, []string{key}, token).Err(); err != nil {
				l.logger.Warn("release lock failed", zap.String("key", key), zap.Error(err))
			}
		})
	}
	return release, nil
}
