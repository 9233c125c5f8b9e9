package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"adile/internal/types"
)

// accountLocks serializes work per account id. Entries are dropped once no
// goroutine holds or waits for them.
type accountLocks struct {
	mu    sync.Mutex
	locks map[types.ID]*accountLock
}

type accountLock struct {
	mu   sync.Mutex
	refs int
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[types.ID]*accountLock)}
}

// lock blocks until id is free and returns the matching unlock.
func (a *accountLocks) lock(id types.ID) func() {
	a.mu.Lock()
	l, ok := a.locks[id]
	if !ok {
		l = &accountLock{}
		a.locks[id] = l
	}
	l.refs++
	a.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		a.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(a.locks, id)
		}
		a.mu.Unlock()
	}
}

func (a *accountLocks) size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.locks)
}

const (
	LeaseKeyPrefix  = "adile:account_lease:"
	DefaultLeaseTTL = 5 * time.Second
	leaseRetry      = 10 * time.Millisecond
)

var releaseLease = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLeases extends the account lock across API instances sharing one
// Redis. A lease expires after its TTL if the holder dies.
type RedisLeases struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisLeases(client *redis.Client, ttl time.Duration) *RedisLeases {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	return &RedisLeases{redis: client, ttl: ttl}
}

// acquire polls until the lease on id is free or ctx ends. The release only
// deletes the key while it still holds this caller's token.
func (l *RedisLeases) acquire(ctx context.Context, id types.ID) (func(), error) {
	key := LeaseKeyPrefix + string(id)
	token := string(types.NewID())

	ticker := time.NewTicker(leaseRetry)
	defer ticker.Stop()
	for {
		ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lease %s: %w", id, err)
		}
		if ok {
			return func() {
				_ = releaseLease.Run(context.Background(), l.redis, []string{key}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
