package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adile/internal/infra"
	"adile/internal/modules/account"
	"adile/internal/modules/ledger"
	"adile/internal/modules/ride"
	"adile/internal/types"
)

const racers = 8

func ledgerBackends() map[string]func(t *testing.T) ledger.Ledger {
	return map[string]func(t *testing.T) ledger.Ledger{
		"memory": func(*testing.T) ledger.Ledger { return ledger.NewMemoryLedger() },
		"redis": func(t *testing.T) ledger.Ledger {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })
			return ledger.NewRedisLedger(rdb)
		},
		"postgres": func(t *testing.T) ledger.Ledger {
			dsn := os.Getenv("ADILE_TEST_DSN")
			if dsn == "" {
				t.Skip("ADILE_TEST_DSN not set; skipping Postgres dispatch tests")
			}
			ctx := context.Background()
			db, err := pgxpool.New(ctx, dsn)
			require.NoError(t, err)
			t.Cleanup(db.Close)

			root, err := infra.RepoRoot()
			require.NoError(t, err)
			require.NoError(t, infra.ApplyMigrations(ctx, db, filepath.Join(root, "migrations")))
			_, err = db.Exec(ctx, "TRUNCATE TABLE rides")
			require.NoError(t, err)
			return ledger.NewPostgresLedger(db)
		},
	}
}

func TestAcceptRide_RaceSingleWinner(t *testing.T) {
	for name, newLedger := range ledgerBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc, _ := newTestService(newLedger(t))
			r := request(t, svc, passenger)

			start := make(chan struct{})
			type result struct {
				driver types.ID
				err    error
			}
			results := make(chan result, racers)

			for i := 0; i < racers; i++ {
				d := account.Account{
					ID:          types.ID(fmt.Sprintf("driver-%d", i)),
					DisplayName: fmt.Sprintf("Driver %d", i),
					Role:        account.RoleDriver,
				}
				go func() {
					<-start
					_, err := svc.AcceptRide(ctx, AcceptCommand{RideID: r.ID, Driver: d})
					results <- result{driver: d.ID, err: err}
				}()
			}
			close(start)

			var winner types.ID
			wins := 0
			for i := 0; i < racers; i++ {
				res := <-results
				switch {
				case res.err == nil:
					wins++
					winner = res.driver
				case errors.Is(res.err, ErrRideUnavailable):
				default:
					t.Fatalf("unexpected error from %s: %v", res.driver, res.err)
				}
			}
			require.Equal(t, 1, wins)

			got, err := svc.Get(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, ride.StatusAccepted, got.Status)
			require.NotNil(t, got.DriverID)
			assert.Equal(t, winner, *got.DriverID)
			assert.Equal(t, 1, got.Version)

			for i := 0; i < racers; i++ {
				id := types.ID(fmt.Sprintf("driver-%d", i))
				active, err := svc.ActiveRide(ctx, id)
				require.NoError(t, err)
				if id == winner {
					require.NotNil(t, active)
				} else {
					assert.Nil(t, active, "loser %s holds a ride", id)
				}
			}
		})
	}
}

func TestAcceptRide_DistinctRidesDoNotConflict(t *testing.T) {
	const rides = 32
	for name, newLedger := range ledgerBackends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc, _ := newTestService(newLedger(t))

			ids := make([]types.ID, rides)
			for i := range ids {
				p := account.Account{
					ID:          types.ID(fmt.Sprintf("passenger-%d", i)),
					DisplayName: fmt.Sprintf("Passenger %d", i),
					Role:        account.RolePassenger,
				}
				ids[i] = request(t, svc, p).ID
			}

			start := make(chan struct{})
			errs := make(chan error, rides)
			for i, id := range ids {
				d := account.Account{
					ID:          types.ID(fmt.Sprintf("driver-%d", i)),
					DisplayName: fmt.Sprintf("Driver %d", i),
					Role:        account.RoleDriver,
				}
				go func(id types.ID) {
					<-start
					_, err := svc.AcceptRide(ctx, AcceptCommand{RideID: id, Driver: d})
					errs <- err
				}(id)
			}
			close(start)
			for i := 0; i < rides; i++ {
				assert.NoError(t, <-errs)
			}

			open, err := svc.ListOpenRequests(ctx)
			require.NoError(t, err)
			assert.Empty(t, open)
			for _, id := range ids {
				got, err := svc.Get(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, ride.StatusAccepted, got.Status)
				assert.Equal(t, 1, got.Version)
			}
		})
	}
}

func TestCancelVersusAccept_Race(t *testing.T) {
	for i := 0; i < 20; i++ {
		ctx := context.Background()
		svc, _ := newTestService(ledger.NewMemoryLedger())
		r := request(t, svc, passenger)

		start := make(chan struct{})
		errs := make(chan error, 2)
		go func() {
			<-start
			_, err := svc.AcceptRide(ctx, AcceptCommand{RideID: r.ID, Driver: driver})
			errs <- err
		}()
		go func() {
			<-start
			_, err := svc.CancelRide(ctx, CancelCommand{RideID: r.ID, Actor: passenger})
			errs <- err
		}()
		close(start)
		for j := 0; j < 2; j++ {
			if err := <-errs; err != nil {
				assert.ErrorIs(t, err, ErrRideUnavailable)
			}
		}

		got, err := svc.Get(ctx, r.ID)
		require.NoError(t, err)
		// Whatever the order, the cancel always lands: either on the pending
		// ride or on the accepted one.
		assert.Equal(t, ride.StatusCancelled, got.Status)
	}
}
