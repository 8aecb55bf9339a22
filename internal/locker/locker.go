// Package locker serializes work per key, either inside one process or
// across every replica sharing a Redis instance.
package locker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
	"github.com/gravadigital/eventmaster-api/internal/logger"
)

const retryInterval = 50 * time.Millisecond

// Locker acquires an exclusive lock for key, waiting until ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Local is an in-process Locker. A key's slot lives only while someone holds
// or waits for it.
type Local struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocal returns an empty in-process locker.
func NewLocal() *Local {
	return &Local{slots: make(map[string]*slot)}
}

func (l *Local) acquire(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *Local) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s.refs--; s.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, errors.New("lock key cannot be empty")
	}
	s := l.acquire(key)
	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.release(key, s)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, s)
		return nil, fmt.Errorf("lock %s: %w", key, errors.Join(common.ErrConflict, ctx.Err()))
	}
}

// Len reports how many keys are currently held or waited on.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

// unlockScript deletes the key only while it still holds our token.
var unlockScript = redis.NewScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis is a Locker backed by SET NX PX on a redigo pool. The TTL bounds
// how long a crashed holder can block others.
type Redis struct {
	pool   *redis.Pool
	prefix string
	ttl    time.Duration
	log    *log.Logger
}

// NewPool dials addr lazily; connections are health-checked on borrow.
func NewPool(addr, password string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			opts := []redis.DialOption{redis.DialConnectTimeout(5 * time.Second)}
			if password != "" {
				opts = append(opts, redis.DialPassword(password))
			}
			return redis.Dial("tcp", addr, opts...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// NewRedis creates a Redis locker. Keys are stored as prefix:key.
func NewRedis(pool *redis.Pool, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "LOCKFOR"
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Redis{pool: pool, prefix: prefix, ttl: ttl, log: logger.Integration("redis_locker")}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, errors.New("lock key cannot be empty")
	}
	lockKey := fmt.Sprintf("%s:%s", r.prefix, key)
	token := uuid.NewString()

	for {
		ok, err := r.tryLock(ctx, lockKey, token)
		if err != nil {
			r.log.Error("Failed to acquire lock", "key", lockKey, "error", err)
			return nil, common.Unavailable("acquire lock", err)
		}
		if ok {
			r.log.Debug("Lock acquired", "key", lockKey)
			return func() { r.unlock(lockKey, token) }, nil
		}

		select {
		case <-time.After(retryInterval):
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w", key, errors.Join(common.ErrConflict, ctx.Err()))
		}
	}
}

func (r *Redis) tryLock(ctx context.Context, lockKey, token string) (bool, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	_, err = redis.String(conn.Do("SET", lockKey, token, "NX", "PX", r.ttl.Milliseconds()))
	if errors.Is(err, redis.ErrNil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) unlock(lockKey, token string) {
	conn := r.pool.Get()
	defer conn.Close()

	if _, err := unlockScript.Do(conn, lockKey, token); err != nil {
		r.log.Warn("Failed to release lock", "key", lockKey, "error", err)
		return
	}
	r.log.Debug("Lock released", "key", lockKey)
}
