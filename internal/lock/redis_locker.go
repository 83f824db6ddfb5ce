package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes a lock key only when it still carries our token, so
// a holder whose lease expired cannot remove a lock someone else now owns.
var releaseScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('DEL', KEYS[1])
    end
    return 0
`)

// extendScript pushes a lease out again while it still carries our token.
var extendScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('PEXPIRE', KEYS[1], ARGV[2])
    end
    return 0
`)

// RedisLocker is a Locker shared by every instance talking to the same
// Redis.  Each key is a lease taken with SET NX PX and renewed every third
// of its length until released; a crashed holder stops renewing and loses
// the lock when the lease runs out.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker returns a locker whose leases last ttl.
func NewRedisLocker(rdb *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if prefix == "" {
		prefix = "amenity:lock"
	}
	return &RedisLocker{rdb: rdb, prefix: prefix, ttl: ttl, retry: 20 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	// Without a deadline a lost lease holder could make us wait forever;
	// bound the wait by one lease length.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.ttl)
		defer cancel()
	}

	token := uuid.NewString()
	held := make([]string, 0, len(keys))
	for _, k := range keys {
		if err := l.acquire(ctx, l.key(k), token); err != nil {
			l.release(held, token)
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, k, err)
		}
		held = append(held, l.key(k))
	}
	stop := make(chan struct{})
	go l.keepAlive(held, token, stop)
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			l.release(held, token)
		})
	}, nil
}

// keepAlive renews the leases on keys until stop is closed.
func (l *RedisLocker) keepAlive(keys []string, token string, stop <-chan struct{}) {
	t := time.NewTicker(l.ttl / 3)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
		for _, k := range keys {
			_ = extendScript.Run(ctx, l.rdb, []string{k}, token, l.ttl.Milliseconds()).Err()
		}
		cancel()
	}
}

func (l *RedisLocker) key(k string) string { return l.prefix + ":" + k }

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	t := time.NewTicker(l.retry)
	defer t.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// release runs on a fresh context so locks are freed even when the caller's
// request context has already been cancelled.
func (l *RedisLocker) release(keys []string, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := len(keys) - 1; i >= 0; i-- {
		_ = releaseScript.Run(ctx, l.rdb, []string{keys[i]}, token).Err()
	}
}
