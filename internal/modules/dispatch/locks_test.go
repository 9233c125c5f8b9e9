package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adile/internal/modules/ledger"
	"adile/internal/modules/pricing"
)

func TestAccountLocks_SerialisesSameAccount(t *testing.T) {
	locks := newAccountLocks()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("p1")
			defer unlock()
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, locks.size())
}

func TestAccountLocks_IndependentAccounts(t *testing.T) {
	locks := newAccountLocks()
	unlockA := locks.lock("a")
	unlockB := locks.lock("b")
	assert.Equal(t, 2, locks.size())
	unlockA()
	unlockB()
	assert.Equal(t, 0, locks.size())
}

func setupLeases(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisLeases_BlockUntilReleased(t *testing.T) {
	mr, rdb := setupLeases(t)
	leases := NewRedisLeases(rdb, 0)

	release, err := leases.acquire(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(LeaseKeyPrefix+"p1"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = leases.acquire(ctx, "p1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := leases.acquire(context.Background(), "p2")
	require.NoError(t, err)
	other()

	release()
	assert.False(t, mr.Exists(LeaseKeyPrefix+"p1"))

	again, err := leases.acquire(context.Background(), "p1")
	require.NoError(t, err)
	again()
}

func TestRedisLeases_ReleaseLeavesAnotherHoldersLease(t *testing.T) {
	mr, rdb := setupLeases(t)
	leases := NewRedisLeases(rdb, time.Second)

	release, err := leases.acquire(context.Background(), "p1")
	require.NoError(t, err)

	// The first lease expired and another instance took the account.
	require.NoError(t, mr.Set(LeaseKeyPrefix+"p1", "someone-else"))
	release()

	got, err := mr.Get(LeaseKeyPrefix + "p1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRequestRide_OneActiveRideAcrossInstances(t *testing.T) {
	for i := 0; i < 10; i++ {
		_, rdb := setupLeases(t)
		rides := ledger.NewRedisLedger(rdb)

		// Two services stand in for two API processes: separate in-process
		// locks, one shared Redis.
		a, _ := newTestService(rides)
		b, _ := newTestService(rides)
		a.leases = NewRedisLeases(rdb, 0)
		b.leases = NewRedisLeases(rdb, 0)

		start := make(chan struct{})
		errs := make(chan error, 2)
		for _, svc := range []*Service{a, b} {
			go func(svc *Service) {
				<-start
				_, err := svc.RequestRide(context.Background(), RequestCommand{
					Passenger: passenger,
					Pickup:    pickup,
					Dropoff:   dropoff,
					Vehicle:   pricing.VehicleCar,
				})
				errs <- err
			}(svc)
		}
		close(start)

		ok := 0
		for j := 0; j < 2; j++ {
			if err := <-errs; err == nil {
				ok++
			} else {
				assert.ErrorIs(t, err, ErrActiveRide)
			}
		}
		assert.Equal(t, 1, ok)

		mine, err := rides.QueryBy(context.Background(), ledger.ByParticipant(passenger.ID))
		require.NoError(t, err)
		assert.Len(t, mine, 1)
	}
}
