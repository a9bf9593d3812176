package checkout

import (
	"context"
	"time"

	"github.com/aquapet/backend/internal/domain/shared"
)

// Webhook event types handled by WebhookService
const (
	EventCheckoutCompleted          = "checkout.session.completed"
	EventCheckoutAsyncPaymentOK     = "checkout.session.async_payment_succeeded"
	EventCheckoutAsyncPaymentFailed = "checkout.session.async_payment_failed"
	EventCheckoutExpired            = "checkout.session.expired"
)

// Checkout session states reported by the provider
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"
)

// Payment status values reported on a checkout session
const (
	PaymentStatusPaid              = "paid"
	PaymentStatusUnpaid            = "unpaid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
)

// Errors surfaced by the payment gateway
var (
	ErrInvalidSignature = shared.NewDomainError("INVALID_SIGNATURE", "Invalid webhook signature")
	ErrInvalidPayload   = shared.NewDomainError("INVALID_PAYLOAD", "Malformed webhook payload")
	ErrPaymentProvider  = shared.NewDomainError("PAYMENT_PROVIDER_ERROR", "Payment provider is unavailable")
)

// LineItem is one priced row on the hosted payment page. UnitAmount is in
// minor units (cents).
type LineItem struct {
	Name       string
	ImageURL   string
	UnitAmount int64
	Quantity   int64
}

// SessionRequest carries everything needed to open a hosted checkout session
type SessionRequest struct {
	OrderID        string
	CustomerEmail  string
	Currency       string
	PaymentMethods []string
	LineItems      []LineItem
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string
	ExpiresAt      time.Time
	IdempotencyKey string
}

// Session is the provider's answer to a SessionRequest
type Session struct {
	ID  string
	URL string
}

// SessionState is the provider's current view of a checkout session
type SessionState struct {
	ID              string
	Status          string
	PaymentStatus   string
	PaymentIntentID string
}

// IsPaid reports whether the session collected its payment
func (s *SessionState) IsPaid() bool {
	return s.Status == SessionStatusComplete &&
		(s.PaymentStatus == PaymentStatusPaid || s.PaymentStatus == PaymentStatusNoPaymentRequired)
}

// WebhookEvent is a verified provider notification about a checkout session
type WebhookEvent struct {
	ID                string
	Type              string
	SessionID         string
	PaymentStatus     string
	PaymentIntentID   string
	ClientReferenceID string
}

// PaymentGateway is the hosted checkout provider
type PaymentGateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	// ExpireSession closes an open session so it can no longer be paid
	ExpireSession(ctx context.Context, sessionID string) error
	// GetSession reads the current state of a session
	GetSession(ctx context.Context, sessionID string) (*SessionState, error)
}

// WebhookParser verifies and decodes provider notifications. It returns
// ErrInvalidSignature or ErrInvalidPayload on rejection.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
