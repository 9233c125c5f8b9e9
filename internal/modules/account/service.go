// README: Account service provides signup, login and the current session account.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"adile/internal/types"
)

type Store interface {
	Create(ctx context.Context, a Account) error
	Get(ctx context.Context, id types.ID) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	SetCurrent(ctx context.Context, id types.ID) error
	// CurrentID returns "" when nobody is signed in.
	CurrentID(ctx context.Context) (types.ID, error)
	ClearCurrent(ctx context.Context) error
}

type Service struct {
	store Store
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewService(store Store, log logrus.FieldLogger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

type SignupCommand struct {
	Email       string
	DisplayName string
	Role        Role
	Phone       string
	Vehicle     *Vehicle
}

// Signup creates the account and makes it the current one.
func (s *Service) Signup(ctx context.Context, cmd SignupCommand) (Account, error) {
	if err := cmd.validate(); err != nil {
		return Account{}, err
	}
	a := Account{
		ID:          types.NewID(),
		Email:       normalizeEmail(cmd.Email),
		DisplayName: strings.TrimSpace(cmd.DisplayName),
		Role:        cmd.Role,
		Rating:      DefaultRating,
		Phone:       strings.Join(strings.Fields(cmd.Phone), ""),
		CreatedAt:   s.now().UTC(),
	}
	if cmd.Role == RoleDriver {
		v := *cmd.Vehicle
		a.Vehicle = &v
	}
	if err := s.store.Create(ctx, a); err != nil {
		return Account{}, err
	}
	if err := s.store.SetCurrent(ctx, a.ID); err != nil {
		return Account{}, err
	}
	s.log.WithFields(logrus.Fields{"account_id": a.ID, "role": a.Role}).Info("account created")
	return a, nil
}

func (s *Service) Login(ctx context.Context, email string) (Account, error) {
	a, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return Account{}, err
	}
	if err := s.store.SetCurrent(ctx, a.ID); err != nil {
		return Account{}, err
	}
	return a, nil
}

func (s *Service) Logout(ctx context.Context) error {
	return s.store.ClearCurrent(ctx)
}

// Current returns nil when no account is signed in.
func (s *Service) Current(ctx context.Context) (*Account, error) {
	id, err := s.store.CurrentID(ctx)
	if err != nil || id == "" {
		return nil, err
	}
	a, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (Account, error) {
	return s.store.Get(ctx, id)
}
