// README: Location service records driver positions and answers last-known lookups.
package location

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"adile/internal/observability"
	"adile/internal/types"
)

// DefaultMaxAge is how long a reported position is trusted.
const DefaultMaxAge = 10 * time.Minute

type Store interface {
	SetPosition(ctx context.Context, pos DriverPosition) error
	GetPosition(ctx context.Context, driverID types.ID) (*DriverPosition, error)
}

type Service struct {
	store  Store
	maxAge time.Duration
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewService(store Store, maxAge time.Duration, log logrus.FieldLogger) *Service {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Service{store: store, maxAge: maxAge, log: log, now: time.Now}
}

func (s *Service) Update(ctx context.Context, driverID types.ID, p types.Point) error {
	if driverID == "" || !p.Valid() {
		return ErrInvalidPoint
	}
	if err := s.store.SetPosition(ctx, DriverPosition{DriverID: driverID, Point: p, RecordedAt: s.now()}); err != nil {
		return err
	}
	observability.DriverPositionUpdates.Inc()
	return nil
}

// LastKnown returns nil when the driver never reported a position or the last
// report is older than the configured max age. A store failure is logged and
// also reported as unknown so callers can fall back.
func (s *Service) LastKnown(ctx context.Context, driverID types.ID) *types.Point {
	pos, err := s.store.GetPosition(ctx, driverID)
	if err != nil {
		s.log.WithError(err).WithField("driver_id", driverID).Warn("driver position lookup failed")
		return nil
	}
	if pos == nil || s.now().Sub(pos.RecordedAt) > s.maxAge {
		return nil
	}
	p := pos.Point
	return &p
}
