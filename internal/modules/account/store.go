// README: Account stores backed by Redis and process memory.
package account

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "sync"

    "github.com/redis/go-redis/v9"

    "adile/internal/types"
)

const (
    usersKey       = "adile:users"
    emailIndexKey  = "adile:users:email"
    currentUserKey = "adile:current_user"
)

type RedisStore struct {
    redis *redis.Client
}

func NewRedisStore(redis *redis.Client) *RedisStore {
    return &RedisStore{redis: redis}
}

// Create claims the email in the index first so two signups with the same
// address cannot both succeed.
func (s *RedisStore) Create(ctx context.Context, a Account) error {
    b, err := json.Marshal(a)
    if err != nil {
        return fmt.Errorf("encode account: %w", err)
    }
    ok, err := s.redis.HSetNX(ctx, emailIndexKey, a.Email, string(a.ID)).Result()
    if err != nil {
        return err
    }
    if !ok {
        return ErrEmailTaken
    }
    if err := s.redis.HSet(ctx, usersKey, string(a.ID), b).Err(); err != nil {
        _ = s.redis.HDel(ctx, emailIndexKey, a.Email).Err()
        return err
    }
    return nil
}

func (s *RedisStore) Get(ctx context.Context, id types.ID) (Account, error) {
    b, err := s.redis.HGet(ctx, usersKey, string(id)).Bytes()
    if errors.Is(err, redis.Nil) {
        return Account{}, ErrNotFound
    }
    if err != nil {
        return Account{}, err
    }
    var a Account
    if err := json.Unmarshal(b, &a); err != nil {
        return Account{}, fmt.Errorf("decode account %s: %w", id, err)
    }
    return a, nil
}

func (s *RedisStore) GetByEmail(ctx context.Context, email string) (Account, error) {
    id, err := s.redis.HGet(ctx, emailIndexKey, email).Result()
    if errors.Is(err, redis.Nil) {
        return Account{}, ErrNotFound
    }
    if err != nil {
        return Account{}, err
    }
    return s.Get(ctx, types.ID(id))
}

func (s *RedisStore) SetCurrent(ctx context.Context, id types.ID) error {
    return s.redis.Set(ctx, currentUserKey, string(id), 0).Err()
}

func (s *RedisStore) CurrentID(ctx context.Context) (types.ID, error) {
    id, err := s.redis.Get(ctx, currentUserKey).Result()
    if errors.Is(err, redis.Nil) {
        return "", nil
    }
    return types.ID(id), err
}

func (s *RedisStore) ClearCurrent(ctx context.Context) error {
    return s.redis.Del(ctx, currentUserKey).Err()
}

type MemoryStore struct {
    mu       sync.RWMutex
    accounts map[types.ID]Account
    byEmail  map[string]types.ID
    current  types.ID
}

func NewMemoryStore() *MemoryStore {
    return &MemoryStore{
        accounts: make(map[types.ID]Account),
        byEmail:  make(map[string]types.ID),
    }
}

func (s *MemoryStore) Create(_ context.Context, a Account) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.byEmail[a.Email]; ok {
        return ErrEmailTaken
    }
    s.accounts[a.ID] = a
    s.byEmail[a.Email] = a.ID
    return nil
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (Account, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    a, ok := s.accounts[id]
    if !ok {
        return Account{}, ErrNotFound
    }
    return a, nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (Account, error) {
    s.mu.RLock()
    id, ok := s.byEmail[email]
    s.mu.RUnlock()
    if !ok {
        return Account{}, ErrNotFound
    }
    return s.Get(ctx, id)
}

func (s *MemoryStore) SetCurrent(_ context.Context, id types.ID) error {
    s.mu.Lock()
    s.current = id
    s.mu.Unlock()
    return nil
}

func (s *MemoryStore) CurrentID(_ context.Context) (types.ID, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return s.current, nil
}

func (s *MemoryStore) ClearCurrent(_ context.Context) error {
    return s.SetCurrent(context.Background(), "")
}
