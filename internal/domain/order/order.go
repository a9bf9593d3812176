package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a customer purchase paid through a hosted checkout session.
// It is the aggregate root for the cart snapshot captured at checkout.
type Order struct {
	shared.BaseAggregateRoot
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	CustomerEmail   string          `gorm:"type:varchar(255);not null" json:"customer_email"`
	Status          Status          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TotalPaid       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_paid"`
	ShippingCost    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"shipping_cost"`
	ShippingDetails ShippingDetails `gorm:"type:text;serializer:json" json:"shipping_details"`
	CartSnapshot    CartSnapshot    `gorm:"type:text;serializer:json" json:"cart_snapshot"`
	StripeSessionID string          `gorm:"column:stripe_session_id;type:varchar(255);uniqueIndex" json:"stripe_id"`
	PaymentIntentID string          `gorm:"type:varchar(255)" json:"payment_intent_id,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason    string          `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`
	SweepAfter      *time.Time      `gorm:"index" json:"-"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a pending order. The id is assigned immediately so it can be
// sent to the payment provider before the order is persisted.
func NewOrder(userID uuid.UUID, email string, cart CartSnapshot, shipping ShippingDetails, shippingCost decimal.Decimal) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Order must belong to a user")
	}
	if strings.TrimSpace(email) == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Customer email is required")
	}
	if err := cart.Validate(); err != nil {
		return nil, err
	}
	if shippingCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Shipping cost cannot be negative")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		CustomerEmail:     strings.ToLower(strings.TrimSpace(email)),
		Status:            StatusPending,
		ShippingCost:      shippingCost.Round(2),
		ShippingDetails:   shipping,
		CartSnapshot:      cart,
	}
	o.TotalPaid = cart.ItemsTotal().Add(o.ShippingCost).Round(2)

	o.AddDomainEvent(NewOrderCreatedEvent(o))

	return o, nil
}

// AttachSession records the checkout session that will collect the payment
func (o *Order) AttachSession(sessionID string) error {
	if sessionID == "" {
		return shared.NewDomainError("INVALID_SESSION", "Checkout session id cannot be empty")
	}
	if o.StripeSessionID != "" && o.StripeSessionID != sessionID {
		return shared.NewDomainError("INVALID_STATE", "Order already has a checkout session")
	}
	o.StripeSessionID = sessionID
	o.UpdatedAt = time.Now()
	return nil
}

// MarkPaid moves a pending order to paid
func (o *Order) MarkPaid(paymentIntentID string) error {
	if !o.Status.CanTransitionTo(StatusPaid) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark order as paid in %s status", o.Status))
	}

	now := time.Now()
	o.Status = StatusPaid
	o.PaidAt = &now
	if paymentIntentID != "" {
		o.PaymentIntentID = paymentIntentID
	}
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderPaidEvent(o))

	return nil
}

// Ship marks a paid order as shipped
func (o *Order) Ship() error {
	if !o.Status.CanTransitionTo(StatusShipped) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot ship order in %s status", o.Status))
	}

	now := time.Now()
	o.Status = StatusShipped
	o.ShippedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	return nil
}

// Complete marks the order as delivered
func (o *Order) Complete() error {
	if !o.Status.CanTransitionTo(StatusCompleted) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete order in %s status", o.Status))
	}

	now := time.Now()
	o.Status = StatusCompleted
	o.CompletedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	return nil
}

// Cancel cancels a pending order (expired or failed payment)
func (o *Order) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	o.Status = StatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderCancelledEvent(o))

	return nil
}

// RecordLatePayment keeps the payment reference of a charge that landed after
// the order was cancelled. The order stays cancelled and the money must be
// refunded, so the event is raised every time the provider reports it.
func (o *Order) RecordLatePayment(paymentIntentID string) error {
	if o.Status != StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Late payment recorded on %s order", o.Status))
	}
	if paymentIntentID != "" && o.PaymentIntentID != paymentIntentID {
		o.PaymentIntentID = paymentIntentID
		o.UpdatedAt = time.Now()
		o.IncrementVersion()
	}

	o.AddDomainEvent(NewPaymentOnCancelledOrderEvent(o))

	return nil
}

// AdvanceTo applies an administrative transition (shipped or completed)
func (o *Order) AdvanceTo(target Status) error {
	switch target {
	case StatusShipped:
		return o.Ship()
	case StatusCompleted:
		return o.Complete()
	default:
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move order to %s manually", target))
	}
}

// IsPending returns true if the order awaits payment
func (o *Order) IsPending() bool {
	return o.Status == StatusPending
}

// IsPaid returns true once the payment has been confirmed, including later
// fulfilment states
func (o *Order) IsPaid() bool {
	return o.Status == StatusPaid || o.Status == StatusShipped || o.Status == StatusCompleted
}

// BelongsTo reports whether the order was placed by the given user
func (o *Order) BelongsTo(userID uuid.UUID) bool {
	return o.UserID == userID
}
