package checkout

import (
	"context"
	"time"

	"github.com/aquapet/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Cancel reasons recorded on orders closed by the provider
const (
	CancelReasonPaymentFailed = "payment_failed"
	CancelReasonExpired       = "session_expired"
)

// WebhookService reconciles orders and stock with payment notifications
type WebhookService struct {
	parser         WebhookParser
	settle         settlement
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// WebhookServiceConfig contains the dependencies of WebhookService
type WebhookServiceConfig struct {
	Parser         WebhookParser
	TxScope        TransactionScope
	Idempotency    shared.IdempotencyStore // optional
	IdempotencyTTL time.Duration
	EventBus       shared.EventPublisher // optional
	Logger         *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(cfg WebhookServiceConfig) *WebhookService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.IdempotencyTTL
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyConfig().TTL
	}
	return &WebhookService{
		parser:         cfg.Parser,
		settle:         settlement{txScope: cfg.TxScope, eventBus: cfg.EventBus},
		idempotency:    cfg.Idempotency,
		idempotencyTTL: ttl,
		logger:         logger,
	}
}

// ProcessWebhook verifies the notification and applies it. Events already
// applied are acknowledged without effect. The event id is recorded only
// after a successful apply, so a failed attempt is retried by the provider.
func (s *WebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.parser.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("Rejected webhook", zap.Error(err))
		return nil, err
	}

	log := s.logger.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("session_id", event.SessionID))

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: event.Type,
		Processed: true,
	}

	tracked := s.idempotency != nil && event.ID != ""
	if tracked {
		seen, err := s.idempotency.IsProcessed(ctx, event.ID)
		if err != nil {
			// the order row lock still prevents double application
			log.Warn("Idempotency store unavailable, processing anyway", zap.Error(err))
		} else if seen {
			log.Info("Duplicate webhook event ignored")
			result.Duplicate = true
			result.Message = "Event already processed"
			return result, nil
		}
	}

	log.Info("Processing webhook event")

	switch event.Type {
	case EventCheckoutCompleted:
		if event.PaymentStatus == PaymentStatusUnpaid {
			log.Info("Checkout completed without payment, awaiting async confirmation")
			result.Message = "Awaiting asynchronous payment"
			break
		}
		result.Message, err = s.settle.markPaid(ctx, event.SessionID, event.PaymentIntentID, log)
	case EventCheckoutAsyncPaymentOK:
		result.Message, err = s.settle.markPaid(ctx, event.SessionID, event.PaymentIntentID, log)
	case EventCheckoutAsyncPaymentFailed:
		result.Message, err = s.settle.cancel(ctx, event.SessionID, CancelReasonPaymentFailed, log)
	case EventCheckoutExpired:
		result.Message, err = s.settle.cancel(ctx, event.SessionID, CancelReasonExpired, log)
	default:
		log.Debug("Unhandled webhook event type")
		result.Message = "Event type not handled"
	}

	if err != nil {
		log.Error("Failed to process webhook event", zap.Error(err))
		result.Processed = false
		result.Message = err.Error()
		return result, err
	}

	if tracked {
		if _, merr := s.idempotency.MarkProcessed(context.WithoutCancel(ctx), event.ID, s.idempotencyTTL); merr != nil {
			log.Warn("Failed to record processed webhook event", zap.Error(merr))
		}
	}

	return result, nil
}
