// README: App status is the remote kill switch. While killed, the API refuses
// every operation except health, metrics, status and the admin endpoints.
package appstatus

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	KillKey        = "adile:remote_kill"
	DisabledNotice = "This application has been remotely disabled by the administrator. Please contact support."
)

type Status struct {
	Active  bool   `json:"active"`
	Message string `json:"message,omitempty"`
}

type Store interface {
	Killed(ctx context.Context) (bool, error)
	SetKilled(ctx context.Context, killed bool) error
}

type Service struct {
	store Store
	log   logrus.FieldLogger
}

func NewService(store Store, log logrus.FieldLogger) *Service {
	return &Service{store: store, log: log}
}

// Check reports the current status. A store failure is returned with the
// status left active so callers can choose to fail open.
func (s *Service) Check(ctx context.Context) (Status, error) {
	killed, err := s.store.Killed(ctx)
	if err != nil {
		return Status{Active: true}, err
	}
	if killed {
		return Status{Active: false, Message: DisabledNotice}, nil
	}
	return Status{Active: true}, nil
}

func (s *Service) Kill(ctx context.Context) error {
	if err := s.store.SetKilled(ctx, true); err != nil {
		return err
	}
	s.log.Warn("application remotely disabled")
	return nil
}

func (s *Service) Restore(ctx context.Context) error {
	if err := s.store.SetKilled(ctx, false); err != nil {
		return err
	}
	s.log.Info("application restored")
	return nil
}

type MemoryStore struct {
	killed atomic.Bool
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Killed(context.Context) (bool, error) {
	return m.killed.Load(), nil
}

func (m *MemoryStore) SetKilled(_ context.Context, killed bool) error {
	m.killed.Store(killed)
	return nil
}

// RedisStore keeps the flag under KillKey so every instance sees it.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Killed(ctx context.Context) (bool, error) {
	v, err := r.client.Get(ctx, KillKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "1", nil
}

func (r *RedisStore) SetKilled(ctx context.Context, killed bool) error {
	if !killed {
		return r.client.Del(ctx, KillKey).Err()
	}
	return r.client.Set(ctx, KillKey, "1", 0).Err()
}
