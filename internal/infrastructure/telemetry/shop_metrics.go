package telemetry

import (
	"context"
	"errors"

	"github.com/aquapet/backend/internal/domain/catalog"
	"github.com/aquapet/backend/internal/domain/order"
	"github.com/aquapet/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter is nil")

// ShopMetrics records storefront business metrics. It subscribes to domain
// events and is also called directly for webhook and POS outcomes.
type ShopMetrics struct {
	ordersCreated  metric.Int64Counter
	ordersPaid     metric.Int64Counter
	ordersCanceled metric.Int64Counter
	latePayments   metric.Int64Counter
	revenueCents   metric.Int64Counter
	stockDepleted  metric.Int64Counter
	webhookEvents  metric.Int64Counter
	posScans       metric.Int64Counter
}

// NewShopMetrics creates the instruments on meter
func NewShopMetrics(meter metric.Meter) (*ShopMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &ShopMetrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.ordersCreated, "aquapet_orders_created_total", "Checkout sessions opened", "{orders}"},
		{&m.ordersPaid, "aquapet_orders_paid_total", "Orders confirmed paid", "{orders}"},
		{&m.ordersCanceled, "aquapet_orders_cancelled_total", "Orders cancelled before payment", "{orders}"},
		{&m.latePayments, "aquapet_late_payments_total", "Payments confirmed on cancelled orders, each needs a refund", "{payments}"},
		{&m.revenueCents, "aquapet_revenue_total", "Paid order totals in euro cents", "{cents}"},
		{&m.stockDepleted, "aquapet_stock_depleted_total", "Products or variants that reached zero stock", "{items}"},
		{&m.webhookEvents, "aquapet_webhook_events_total", "Payment webhook deliveries by outcome", "{events}"},
		{&m.posScans, "aquapet_pos_scans_total", "Barcode scans by outcome", "{scans}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}
	return m, nil
}

// RecordWebhook counts one webhook delivery
func (m *ShopMetrics) RecordWebhook(ctx context.Context, eventType, outcome string) {
	m.webhookEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("outcome", outcome),
	))
}

// RecordScan counts one POS scan; outcome is "updated", "not_found", "out_of_stock" or "error"
func (m *ShopMetrics) RecordScan(ctx context.Context, outcome string) {
	m.posScans.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// EventTypes lists the domain events that feed the counters
func (m *ShopMetrics) EventTypes() []string {
	return []string{
		order.EventTypeOrderCreated,
		order.EventTypeOrderPaid,
		order.EventTypeOrderCancelled,
		order.EventTypeLatePayment,
		catalog.EventTypeStockDepleted,
	}
}

// Handle updates the counters for a domain event
func (m *ShopMetrics) Handle(ctx context.Context, evt shared.DomainEvent) error {
	switch e := evt.(type) {
	case *order.OrderCreatedEvent:
		m.ordersCreated.Add(ctx, 1)
	case *order.OrderPaidEvent:
		m.ordersPaid.Add(ctx, 1)
		m.revenueCents.Add(ctx, e.TotalPaid.Shift(2).Round(0).IntPart())
	case *order.OrderCancelledEvent:
		m.ordersCanceled.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", e.Reason)))
	case *order.PaymentOnCancelledOrderEvent:
		m.latePayments.Add(ctx, 1, metric.WithAttributes(attribute.String("cancel_reason", e.CancelReason)))
	case *catalog.StockDepletedEvent:
		kind := "product"
		if e.VariantID != nil {
			kind = "variant"
		}
		m.stockDepleted.Add(ctx, 1, metric.WithAttributes(attribute.String("type", kind)))
	}
	return nil
}

var _ shared.EventHandler = (*ShopMetrics)(nil)
