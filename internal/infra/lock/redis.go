package lock

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/pkg/errs"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errs.New("resource lock not acquired")

// RedisLocker holds a redsync mutex per key so writers on several API
// instances are serialized.
type RedisLocker struct {
	rs     *redsync.Redsync
	prefix string
	ttl    time.Duration
}

func NewRedisLocker(client goredislib.UniversalClient, prefix string, ttl time.Duration) *RedisLocker {
	pool := goredis.NewPool(client)
	return &RedisLocker{
		rs:     redsync.New(pool),
		prefix: prefix,
		ttl:    ttl,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	m := l.rs.NewMutex(l.prefix+key,
		redsync.WithExpiry(l.ttl),
		redsync.WithTries(64),
		redsync.WithRetryDelay(25*time.Millisecond),
	)
	if err := m.LockContext(ctx); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "lock "+key), ErrLockNotAcquired)
	}

	return func() {
		// Unlock must run even if the request context is already cancelled.
		unlockCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if ok, err := m.UnlockContext(unlockCtx); err != nil || !ok {
			slog.Warn("failed to release resource lock", "key", key, "error", err)
		}
	}, nil
}
