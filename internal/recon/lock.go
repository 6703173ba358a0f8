package recon

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes reconciliation passes over one spreadsheet. Concurrent
// batches are processed one at a time so every pass sees a settled snapshot.
type Locker interface {
	// Acquire blocks until the lock is held, the wait timeout elapses or ctx
	// is done. The returned release function is idempotent.
	Acquire(ctx context.Context) (release func(), err error)
}

// MutexLocker is the in-process Locker used for single-instance deployments
// and tests.
type MutexLocker struct {
	sem  chan struct{}
	wait time.Duration
}

// NewMutexLocker creates a locker that gives up after wait.
func NewMutexLocker(wait time.Duration) *MutexLocker {
	return &MutexLocker{sem: make(chan struct{}, 1), wait: wait}
}

func (l *MutexLocker) Acquire(ctx context.Context) (func(), error) {
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
		var done bool
		return func() {
			if !done {
				done = true
				<-l.sem
			}
		}, nil
	case <-timer.C:
		return nil, ConflictError("sheet is busy, retry later", nil)
	case <-ctx.Done():
		return nil, ConflictError("canceled while waiting for sheet lock", ctx.Err())
	}
}

// RedisLocker is the cross-instance Locker: SET NX with a TTL, polled until
// the wait timeout. The TTL bounds how long a crashed holder can block
// others.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

// NewRedisLocker creates a distributed locker on the given key.
func NewRedisLocker(client *redis.Client, key string, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		key:    key,
		ttl:    ttl,
		wait:   wait,
		poll:   100 * time.Millisecond,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return nil, InternalError("redis lock", err)
		}
		if ok {
			var done bool
			return func() {
				if done {
					return
				}
				done = true
				// Only the holder's token releases; a lock that expired and
				// was retaken by someone else stays theirs.
				releaseScript.Run(context.Background(), l.client, []string{l.key}, token)
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ConflictError("sheet is busy, retry later", nil)
		}
		select {
		case <-time.After(l.poll):
		case <-ctx.Done():
			return nil, ConflictError("canceled while waiting for sheet lock", ctx.Err())
		}
	}
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)
