package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aquapet/backend/internal/application/checkout"
	"github.com/aquapet/backend/internal/infrastructure/cache"
	"github.com/aquapet/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const sweepLockKey = "order-sweeper"

// ErrSweepInProgress is returned by RunOnce when another replica holds the lock
var ErrSweepInProgress = errors.New("order sweep already running elsewhere")

// StaleOrderExpirer cancels abandoned checkouts
type StaleOrderExpirer interface {
	ExpireStaleOrders(ctx context.Context) (*checkout.ExpiredOrderStats, error)
}

// OrderSweeperConfig holds the sweep cadence
type OrderSweeperConfig struct {
	Interval time.Duration
	// LockTTL bounds how long a crashed replica can block the others
	LockTTL time.Duration
}

// OrderSweeper periodically expires stale pending orders. Replicas compete for
// a lock so that only one of them sweeps per tick.
type OrderSweeper struct {
	config  OrderSweeperConfig
	expirer StaleOrderExpirer
	locker  cache.Locker
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewOrderSweeper creates a new OrderSweeper
func NewOrderSweeper(cfg OrderSweeperConfig, expirer StaleOrderExpirer, locker cache.Locker, logger *zap.Logger) *OrderSweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.Interval
	}
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	return &OrderSweeper{
		config:  cfg,
		expirer: expirer,
		locker:  locker,
		logger:  logger,
	}
}

// Start launches the sweep loop. The first sweep runs immediately.
func (s *OrderSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Order sweeper started", zap.Duration("interval", s.config.Interval))
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep, up to ctx's deadline
func (s *OrderSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Order sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run blocks until ctx is cancelled. It suits errgroup-managed lifecycles.
func (s *OrderSweeper) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	return s.Stop(stopCtx)
}

func (s *OrderSweeper) runLoop(ctx context.Context) {
	defer s.wg.Done()

	s.sweep(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *OrderSweeper) sweep(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrSweepInProgress) && ctx.Err() == nil {
		s.logger.Error("Order sweep failed", zap.Error(err))
	}
}

// RunOnce performs a single sweep under the lock
func (s *OrderSweeper) RunOnce(ctx context.Context) (stats *checkout.ExpiredOrderStats, err error) {
	release, ok, err := s.locker.TryLock(ctx, sweepLockKey, s.config.LockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Debug("Order sweep skipped, lock held by another replica")
		return nil, ErrSweepInProgress
	}
	defer release()

	ctx, span := telemetry.StartSpan(ctx, "orders.sweep")
	defer func() { telemetry.EndSpan(span, err) }()

	stats, err = s.expirer.ExpireStaleOrders(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("orders.stale", stats.TotalStale),
		attribute.Int("orders.expired", stats.Expired),
		attribute.Int("orders.settled", stats.Settled),
		attribute.Int("orders.deferred", stats.Deferred),
	)
	return stats, nil
}
