package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"habitat/pkg/platform/sentinel"
)

const (
	defaultExpiry     = 10 * time.Second
	defaultTries      = 64
	defaultRetryDelay = 50 * time.Millisecond
)

// RedisLocker is a redsync mutex per key, for deployments running more than
// one server instance.
type RedisLocker struct {
	rs         *redsync.Redsync
	expiry     time.Duration
	tries      int
	retryDelay time.Duration
	logger     *slog.Logger
}

type RedisOption func(*RedisLocker)

// WithExpiry sets how long a lock survives a crashed holder.
func WithExpiry(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.expiry = d
		}
	}
}

// WithRetry sets how many acquisition attempts are made and the delay between
// them.
func WithRetry(tries int, delay time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if tries > 0 {
			l.tries = tries
		}
		if delay > 0 {
			l.retryDelay = delay
		}
	}
}

func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(l *RedisLocker) {
		l.logger = logger
	}
}

func NewRedisLocker(client redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		rs:         redsync.New(goredis.NewPool(client)),
		expiry:     defaultExpiry,
		tries:      defaultTries,
		retryDelay: defaultRetryDelay,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	mutex := l.rs.NewMutex(key,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(l.tries),
		redsync.WithRetryDelay(l.retryDelay),
		redsync.WithDriftFactor(0.01),
	)
	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %v", sentinel.ErrLockTimeout, key, err)
		}
		return nil, fmt.Errorf("%w: acquire %s: %v", sentinel.ErrUnavailable, key, err)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// The caller's ctx may already be done; release on a fresh one.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if ok, err := mutex.UnlockContext(unlockCtx); err != nil || !ok {
			l.logger.Warn("failed to release distributed lock",
				"key", key,
				"error", err,
			)
		}
	}, nil
}
