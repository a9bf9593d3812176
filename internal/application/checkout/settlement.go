package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/aquapet/backend/internal/domain/catalog"
	"github.com/aquapet/backend/internal/domain/order"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Messages returned by settlement
const (
	MessageOrderPaid      = "Order paid"
	MessageOrderCancelled = "Order cancelled"
	MessageOrderNotFound  = "Order not found"
	MessageAlreadyPaid    = "Order already paid"
	MessageRefundRequired = "Order is cancelled, payment needs a refund"
)

// settlement applies payment outcomes to orders and stock. Every operation
// re-reads the order under a row lock, so concurrent webhook deliveries and
// sweeper runs apply a payment at most once.
type settlement struct {
	txScope  TransactionScope
	eventBus shared.EventPublisher // optional
}

// markPaid flips the order to paid and decrements stock for every physical
// line in one transaction. Orders already paid are left untouched. A payment
// on a cancelled order is recorded and raises PaymentOnCancelledOrderEvent.
func (s settlement) markPaid(ctx context.Context, sessionID, paymentIntentID string, log *zap.Logger) (string, error) {
	var (
		message string
		events  []shared.DomainEvent
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindBySessionIDForUpdate(ctx, sessionID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				log.Warn("No order found for checkout session")
				message = MessageOrderNotFound
				return nil
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		if o.IsPaid() {
			log.Info("Order already paid, skipping", zap.String("order_id", o.ID.String()))
			message = MessageAlreadyPaid
			return nil
		}
		if o.Status == order.StatusCancelled {
			log.Error("Payment received for cancelled order, refund required",
				zap.String("order_id", o.ID.String()),
				zap.String("payment_intent_id", paymentIntentID),
				zap.String("cancel_reason", o.CancelReason))
			if err := o.RecordLatePayment(paymentIntentID); err != nil {
				return err
			}
			if err := repos.Orders().Save(ctx, o); err != nil {
				return fmt.Errorf("failed to save order: %w", err)
			}
			events = append(events, o.GetDomainEvents()...)
			o.ClearDomainEvents()
			message = MessageRefundRequired
			return nil
		}

		if err := o.MarkPaid(paymentIntentID); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		events = append(events, o.GetDomainEvents()...)
		o.ClearDomainEvents()
		events = append(events, s.decrementStock(ctx, repos, o, log)...)

		log.Info("Order paid", zap.String("order_id", o.ID.String()))
		message = MessageOrderPaid
		return nil
	})
	if err != nil {
		return "", err
	}

	s.publish(ctx, events, log)
	return message, nil
}

// decrementStock lowers stock for each physical line, clamped at zero.
// Failures on single lines are logged and do not stop the others.
func (s settlement) decrementStock(ctx context.Context, repos TransactionalRepositories, o *order.Order, log *zap.Logger) []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, item := range o.CartSnapshot.StockLines() {
		var (
			remaining int
			err       error
		)
		if item.HasVariant() {
			remaining, err = repos.Variants().DecrementStock(ctx, *item.VariantID, item.Quantity)
		} else {
			remaining, err = repos.Products().DecrementStock(ctx, item.ProductID, item.Quantity)
		}
		if err != nil {
			log.Error("Failed to decrement stock",
				zap.String("order_id", o.ID.String()),
				zap.String("item", item.DisplayName()),
				zap.Error(err))
			continue
		}

		log.Debug("Stock decremented",
			zap.String("item", item.DisplayName()),
			zap.Int("quantity", item.Quantity),
			zap.Int("remaining", remaining))

		if remaining == 0 {
			var variantID *uuid.UUID
			if item.HasVariant() {
				variantID = item.VariantID
			}
			events = append(events, catalog.NewStockDepletedEvent(item.ProductID, variantID, item.DisplayName()))
		}
	}
	return events
}

// cancel closes a pending order after a failed or expired payment
func (s settlement) cancel(ctx context.Context, sessionID, reason string, log *zap.Logger) (string, error) {
	var (
		message string
		events  []shared.DomainEvent
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindBySessionIDForUpdate(ctx, sessionID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				log.Warn("No order found for checkout session")
				message = MessageOrderNotFound
				return nil
			}
			return fmt.Errorf("failed to load order: %w", err)
		}
		if !o.IsPending() {
			message = fmt.Sprintf("Order is %s, nothing to cancel", o.Status)
			return nil
		}
		if err := o.Cancel(reason); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		events = o.GetDomainEvents()
		o.ClearDomainEvents()
		log.Info("Order cancelled",
			zap.String("order_id", o.ID.String()),
			zap.String("reason", reason))
		message = MessageOrderCancelled
		return nil
	})
	if err != nil {
		return "", err
	}

	s.publish(ctx, events, log)
	return message, nil
}

func (s settlement) publish(ctx context.Context, events []shared.DomainEvent, log *zap.Logger) {
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		log.Warn("Failed to publish domain events", zap.Error(err))
	}
}
