package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aquapet/backend/internal/domain/order"
	"github.com/aquapet/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultSweepRetryDelay is used when no retry delay is configured
const DefaultSweepRetryDelay = time.Hour

// ExpirationService cancels checkouts that were abandoned before payment
type ExpirationService struct {
	orders     order.OrderRepository
	settle     settlement
	gateway    PaymentGateway // optional
	ttl        time.Duration
	batchSize  int
	retryDelay time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// ExpirationOption configures an ExpirationService
type ExpirationOption func(*ExpirationService)

// WithRetryDelay sets how long an order that could not be settled is skipped
func WithRetryDelay(d time.Duration) ExpirationOption {
	return func(s *ExpirationService) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// NewExpirationService creates a new ExpirationService. Pending orders older
// than ttl are expired, at most batchSize per run.
func NewExpirationService(
	orders order.OrderRepository,
	txScope TransactionScope,
	gateway PaymentGateway,
	eventBus shared.EventPublisher,
	ttl time.Duration,
	batchSize int,
	logger *zap.Logger,
	opts ...ExpirationOption,
) *ExpirationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExpirationService{
		orders:     orders,
		settle:     settlement{txScope: txScope, eventBus: eventBus},
		gateway:    gateway,
		ttl:        ttl,
		batchSize:  batchSize,
		retryDelay: DefaultSweepRetryDelay,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExpiredOrderStats contains statistics about one expiration run
type ExpiredOrderStats struct {
	TotalStale  int       `json:"total_stale"`
	Expired     int       `json:"expired"`
	Settled     int       `json:"settled"`
	Deferred    int       `json:"deferred"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	ProcessedAt time.Time `json:"processed_at"`
}

// ExpireStaleOrders cancels pending orders older than the TTL. The checkout
// session is expired first. When the provider refuses, the session is read
// back: a paid session settles the order as paid, an expired one cancels it,
// and anything else defers the order by the retry delay so it does not hold
// its place at the head of the next batch.
func (s *ExpirationService) ExpireStaleOrders(ctx context.Context) (*ExpiredOrderStats, error) {
	stats := &ExpiredOrderStats{ProcessedAt: s.now()}

	stale, err := s.orders.FindStalePending(ctx, stats.ProcessedAt.Add(-s.ttl), stats.ProcessedAt, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to find stale orders", zap.Error(err))
		return nil, err
	}
	stats.TotalStale = len(stale)
	if stats.TotalStale == 0 {
		s.logger.Debug("No stale pending orders found")
		return stats, nil
	}

	for i := range stale {
		o := &stale[i]
		log := s.logger.With(
			zap.String("order_id", o.ID.String()),
			zap.String("session_id", o.StripeSessionID))

		if s.gateway != nil && o.StripeSessionID != "" {
			if err := s.gateway.ExpireSession(ctx, o.StripeSessionID); err != nil {
				log.Warn("Could not expire checkout session, checking its state", zap.Error(err))
				s.reconcile(ctx, o, stats, log)
				continue
			}
		}

		s.cancelStale(ctx, o, stats, log)
	}

	s.logger.Info("Completed stale order expiration",
		zap.Int("total", stats.TotalStale),
		zap.Int("expired", stats.Expired),
		zap.Int("settled", stats.Settled),
		zap.Int("deferred", stats.Deferred),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))

	return stats, nil
}

// reconcile settles an order whose session the provider would not expire
func (s *ExpirationService) reconcile(ctx context.Context, o *order.Order, stats *ExpiredOrderStats, log *zap.Logger) {
	state, err := s.gateway.GetSession(ctx, o.StripeSessionID)
	switch {
	case err != nil:
		log.Warn("Could not read checkout session", zap.Error(err))
		s.deferSweep(ctx, o, stats, log)
	case state.IsPaid():
		message, err := s.settle.markPaid(ctx, o.StripeSessionID, state.PaymentIntentID, log)
		if err != nil {
			log.Error("Failed to settle paid order", zap.Error(err))
			stats.Failed++
			return
		}
		if message == MessageOrderPaid {
			log.Info("Settled order paid without webhook")
			stats.Settled++
		} else {
			stats.Skipped++
		}
	case state.Status == SessionStatusExpired:
		s.cancelStale(ctx, o, stats, log)
	default:
		log.Info("Checkout session still awaiting payment",
			zap.String("status", state.Status),
			zap.String("payment_status", state.PaymentStatus))
		s.deferSweep(ctx, o, stats, log)
	}
}

func (s *ExpirationService) cancelStale(ctx context.Context, o *order.Order, stats *ExpiredOrderStats, log *zap.Logger) {
	expired, err := s.expire(ctx, o, log)
	if err != nil {
		log.Error("Failed to expire order", zap.Error(err))
		stats.Failed++
		return
	}
	if expired {
		stats.Expired++
	} else {
		stats.Skipped++
	}
}

func (s *ExpirationService) deferSweep(ctx context.Context, o *order.Order, stats *ExpiredOrderStats, log *zap.Logger) {
	until := stats.ProcessedAt.Add(s.retryDelay)
	if err := s.orders.DeferSweep(ctx, o.ID, until); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			stats.Skipped++
			return
		}
		log.Error("Failed to defer order sweep", zap.Error(err))
		stats.Failed++
		return
	}
	log.Debug("Order sweep deferred", zap.Time("until", until))
	stats.Deferred++
}

// expire re-reads the order under lock and cancels it if still pending
func (s *ExpirationService) expire(ctx context.Context, stale *order.Order, log *zap.Logger) (bool, error) {
	var events []shared.DomainEvent
	expired := false

	err := s.settle.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var (
			o   *order.Order
			err error
		)
		if stale.StripeSessionID != "" {
			o, err = repos.Orders().FindBySessionIDForUpdate(ctx, stale.StripeSessionID)
		} else {
			o, err = repos.Orders().FindByID(ctx, stale.ID)
		}
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load order: %w", err)
		}
		if !o.IsPending() {
			return nil
		}
		if err := o.Cancel(CancelReasonExpired); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		events = o.GetDomainEvents()
		o.ClearDomainEvents()
		expired = true
		return nil
	})
	if err != nil {
		return false, err
	}

	s.settle.publish(ctx, events, log)
	return expired, nil
}
