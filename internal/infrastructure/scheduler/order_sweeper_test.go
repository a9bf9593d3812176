package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aquapet/backend/internal/application/checkout"
	"github.com/aquapet/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingExpirer struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (e *countingExpirer) ExpireStaleOrders(ctx context.Context) (*checkout.ExpiredOrderStats, error) {
	e.calls.Add(1)
	if e.block != nil {
		select {
		case <-e.block:
		case <-ctx.Done():
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	return &checkout.ExpiredOrderStats{TotalStale: 2, Expired: 2, ProcessedAt: time.Now()}, nil
}

func TestOrderSweeper_RunOnce(t *testing.T) {
	expirer := &countingExpirer{}
	sweeper := NewOrderSweeper(OrderSweeperConfig{Interval: time.Hour}, expirer, nil, zap.NewNop())

	stats, err := sweeper.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Expired)
	assert.Equal(t, int32(1), expirer.calls.Load())
}

func TestOrderSweeper_RunOnce_LockHeld(t *testing.T) {
	locker := cache.NewLocalLocker()
	release, ok, err := locker.TryLock(context.Background(), sweepLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	expirer := &countingExpirer{}
	sweeper := NewOrderSweeper(OrderSweeperConfig{Interval: time.Hour}, expirer, locker, zap.NewNop())

	_, err = sweeper.RunOnce(context.Background())

	assert.ErrorIs(t, err, ErrSweepInProgress)
	assert.Zero(t, expirer.calls.Load())
}

func TestOrderSweeper_RunOnce_ReleasesLockOnError(t *testing.T) {
	locker := cache.NewLocalLocker()
	expirer := &countingExpirer{err: errors.New("db down")}
	sweeper := NewOrderSweeper(OrderSweeperConfig{Interval: time.Hour}, expirer, locker, zap.NewNop())

	_, err := sweeper.RunOnce(context.Background())
	require.Error(t, err)

	_, ok, _ := locker.TryLock(context.Background(), sweepLockKey, time.Minute)
	assert.True(t, ok)
}

func TestOrderSweeper_StartStop(t *testing.T) {
	expirer := &countingExpirer{}
	sweeper := NewOrderSweeper(OrderSweeperConfig{Interval: 10 * time.Millisecond}, expirer, nil, zap.NewNop())

	require.NoError(t, sweeper.Start(context.Background()))
	require.NoError(t, sweeper.Start(context.Background()), "second start is a no-op")

	assert.Eventually(t, func() bool { return expirer.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sweeper.Stop(ctx))
	require.NoError(t, sweeper.Stop(ctx), "second stop is a no-op")

	calls := expirer.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, expirer.calls.Load())
}

func TestOrderSweeper_StopCancelsInFlightSweep(t *testing.T) {
	expirer := &countingExpirer{block: make(chan struct{})}
	sweeper := NewOrderSweeper(OrderSweeperConfig{Interval: time.Hour}, expirer, nil, zap.NewNop())

	require.NoError(t, sweeper.Start(context.Background()))
	assert.Eventually(t, func() bool { return expirer.calls.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, sweeper.Stop(ctx))
}

func TestOrderSweeper_Run(t *testing.T) {
	expirer := &countingExpirer{}
	sweeper := NewOrderSweeper(OrderSweeperConfig{Interval: time.Hour}, expirer, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	assert.Eventually(t, func() bool { return expirer.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
