package order

import (
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated   = "OrderCreated"
	EventTypeOrderPaid      = "OrderPaid"
	EventTypeOrderCancelled = "OrderCancelled"
	EventTypeLatePayment    = "PaymentOnCancelledOrder"
)

// OrderCreatedEvent is raised when a checkout creates a pending order
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID       `json:"order_id"`
	UserID    uuid.UUID       `json:"user_id"`
	TotalPaid decimal.Decimal `json:"total_paid"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		UserID:          o.UserID,
		TotalPaid:       o.TotalPaid,
	}
}

// OrderPaidEvent is raised when the payment provider confirms the payment
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID         uuid.UUID       `json:"order_id"`
	UserID          uuid.UUID       `json:"user_id"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	StripeSessionID string          `json:"stripe_session_id"`
	Lines           int             `json:"lines"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		UserID:          o.UserID,
		TotalPaid:       o.TotalPaid,
		StripeSessionID: o.StripeSessionID,
		Lines:           len(o.CartSnapshot),
	}
}

// OrderCancelledEvent is raised when a pending order is abandoned
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	Reason  string    `json:"reason"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Reason:          o.CancelReason,
	}
}

// PaymentOnCancelledOrderEvent is raised when the provider confirms a payment
// for an order that was already cancelled. The charge needs a manual refund.
type PaymentOnCancelledOrderEvent struct {
	shared.BaseDomainEvent
	OrderID         uuid.UUID       `json:"order_id"`
	UserID          uuid.UUID       `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	StripeSessionID string          `json:"stripe_session_id"`
	PaymentIntentID string          `json:"payment_intent_id"`
	CancelReason    string          `json:"cancel_reason"`
}

// NewPaymentOnCancelledOrderEvent creates a new PaymentOnCancelledOrderEvent
func NewPaymentOnCancelledOrderEvent(o *Order) *PaymentOnCancelledOrderEvent {
	return &PaymentOnCancelledOrderEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLatePayment, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		UserID:          o.UserID,
		Amount:          o.TotalPaid,
		StripeSessionID: o.StripeSessionID,
		PaymentIntentID: o.PaymentIntentID,
		CancelReason:    o.CancelReason,
	}
}
