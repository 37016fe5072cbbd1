package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// BalanceLocker serializes balance read-modify-write cycles per user.
type BalanceLocker interface {
	Lock(ctx context.Context, userID string) (unlock func(), err error)
}

// NoopLocker performs no locking. Concurrent debits for the same user race
// and the last write wins.
type NoopLocker struct{}

// Lock implements BalanceLocker.
func (NoopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// ErrLockTimeout is returned when the lock could not be taken within the
// configured wait.
var ErrLockTimeout = errors.New("balance lock wait exceeded")

const lockKeyPrefix = "pseudorandom:balance-lock:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds a per-user key set with NX and a TTL. The key is only
// released by the holder that set it.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

// NewRedisLocker creates a RedisLocker. ttl bounds how long a crashed holder
// blocks others; wait bounds how long Lock retries.
func NewRedisLocker(client redis.UniversalClient, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, wait: wait, retry: 50 * time.Millisecond}
}

// NewRedisClient parses a redis:// or rediss:// URL.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Lock implements BalanceLocker.
func (l *RedisLocker) Lock(ctx context.Context, userID string) (func(), error) {
	key := lockKeyPrefix + userID
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis SET NX: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	return func() {
		// 释放使用独立 ctx，避免请求 ctx 取消后锁残留到 TTL
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			logrus.WithError(err).WithField("user_id", userID).Warn("failed to release balance lock")
		}
	}, nil
}

var (
	_ BalanceLocker = NoopLocker{}
	_ BalanceLocker = (*RedisLocker)(nil)
)
