package event

import (
	"context"

	"github.com/aquapet/backend/internal/domain/catalog"
	"github.com/aquapet/backend/internal/domain/order"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/aquapet/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LoggingHandler writes a structured log line for every domain event
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a LoggingHandler
func NewLoggingHandler(l *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: l}
}

// EventTypes returns nil: the handler receives all events
func (h *LoggingHandler) EventTypes() []string { return nil }

// Handle logs the event with its business fields
func (h *LoggingHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", evt.EventType()),
		zap.String("event_id", evt.EventID().String()),
		zap.String("aggregate_id", evt.AggregateID().String()),
	}
	if rid := logger.GetRequestID(ctx); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}

	switch e := evt.(type) {
	case *order.OrderPaidEvent:
		fields = append(fields,
			zap.String("total_paid", e.TotalPaid.StringFixed(2)),
			zap.String("stripe_session_id", e.StripeSessionID),
		)
	case *order.OrderCancelledEvent:
		fields = append(fields, zap.String("reason", e.Reason))
	case *order.PaymentOnCancelledOrderEvent:
		fields = append(fields,
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.String("payment_intent_id", e.PaymentIntentID),
			zap.String("cancel_reason", e.CancelReason),
		)
		h.logger.Error("Payment on cancelled order needs a refund", fields...)
		return nil
	case *catalog.StockDepletedEvent:
		fields = append(fields, zap.String("item", e.Name))
		h.logger.Warn("Stock depleted", fields...)
		return nil
	}

	h.logger.Info("Domain event", fields...)
	return nil
}

var _ shared.EventHandler = (*LoggingHandler)(nil)
