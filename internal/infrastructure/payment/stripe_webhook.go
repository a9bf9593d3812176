package payment

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/aquapet/backend/internal/application/checkout"
	"github.com/aquapet/backend/internal/infrastructure/config"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// StripeWebhookParser verifies Stripe-Signature headers and decodes
// checkout.session.* events.
type StripeWebhookParser struct {
	secret        string
	allowUnsigned bool
	logger        *zap.Logger
}

// NewStripeWebhookParser creates a parser. allowUnsigned only applies when no
// webhook secret is configured, and config validation rejects it in production.
func NewStripeWebhookParser(cfg config.StripeConfig, logger *zap.Logger) *StripeWebhookParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeWebhookParser{
		secret:        cfg.WebhookSecret,
		allowUnsigned: cfg.AllowUnsigned,
		logger:        logger,
	}
}

// ParseWebhook verifies the payload and extracts the checkout session fields
func (p *StripeWebhookParser) ParseWebhook(payload []byte, signature string) (*checkout.WebhookEvent, error) {
	event, err := p.verify(payload, signature)
	if err != nil {
		return nil, err
	}
	if event.ID == "" || event.Type == "" {
		return nil, checkout.ErrInvalidPayload.WithMessage("Webhook event has no id or type")
	}

	out := &checkout.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(out.Type, "checkout.session.") {
		return out, nil
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, checkout.ErrInvalidPayload.WithMessage("Webhook event has no data object")
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, checkout.ErrInvalidPayload.WithMessage("Malformed checkout session: " + err.Error())
	}
	if sess.ID == "" {
		return nil, checkout.ErrInvalidPayload.WithMessage("Checkout session has no id")
	}

	out.SessionID = sess.ID
	out.PaymentStatus = string(sess.PaymentStatus)
	out.ClientReferenceID = sess.ClientReferenceID
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	return out, nil
}

func (p *StripeWebhookParser) verify(payload []byte, signature string) (stripe.Event, error) {
	if p.secret != "" {
		// once a secret is configured every delivery must be signed
		if signature == "" {
			return stripe.Event{}, checkout.ErrInvalidSignature.WithMessage("Missing Stripe-Signature header")
		}
		// the API version pinned by stripe-go may lag the account's webhook version;
		// only a handful of session fields are read
		event, err := webhook.ConstructEventWithOptions(payload, signature, p.secret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			if isSignatureError(err) {
				return stripe.Event{}, checkout.ErrInvalidSignature.WithMessage("Invalid webhook signature: " + err.Error())
			}
			return stripe.Event{}, checkout.ErrInvalidPayload
		}
		return event, nil
	}

	if !p.allowUnsigned {
		return stripe.Event{}, checkout.ErrInvalidSignature.WithMessage("Webhook secret is not configured")
	}

	p.logger.Warn("Accepting unsigned webhook payload")
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return stripe.Event{}, checkout.ErrInvalidPayload
	}
	return event, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

var _ checkout.WebhookParser = (*StripeWebhookParser)(nil)
