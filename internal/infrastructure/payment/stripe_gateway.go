package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aquapet/backend/internal/application/checkout"
	"github.com/aquapet/backend/internal/infrastructure/config"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"go.uber.org/zap"
)

// StripeGateway opens and expires hosted Checkout Sessions
type StripeGateway struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeGateway creates a gateway with its own API client, so the secret
// key is never set on the package-level stripe.Key.
func NewStripeGateway(cfg config.StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(cfg.APIMaxRetries),
		LeveledLogger:     newLeveledLogger(logger),
	})
	return NewStripeGatewayWithBackend(cfg.SecretKey, backend, logger), nil
}

// NewStripeGatewayWithBackend creates a gateway on a custom backend
func NewStripeGatewayWithBackend(secretKey string, backend stripe.Backend, logger *zap.Logger) *StripeGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	api := &client.API{}
	api.Init(secretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &StripeGateway{api: api, logger: logger}
}

// CreateSession opens a payment-mode Checkout Session with inline price data
func (g *StripeGateway) CreateSession(ctx context.Context, req checkout.SessionRequest) (*checkout.Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail:     stripe.String(req.CustomerEmail),
		ClientReferenceID: stripe.String(req.OrderID),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		LineItems:         make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.LineItems)),
	}
	params.Context = ctx
	if len(req.PaymentMethods) > 0 {
		params.PaymentMethodTypes = stripe.StringSlice(req.PaymentMethods)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(req.ExpiresAt.Unix())
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	for _, item := range req.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.ImageURL != "" {
			product.Images = stripe.StringSlice([]string{item.ImageURL})
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				UnitAmount:  stripe.Int64(item.UnitAmount),
				ProductData: product,
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe checkout session",
			zap.String("order_id", req.OrderID),
			zap.Error(err))
		return nil, providerError("create checkout session", err)
	}

	g.logger.Debug("Created Stripe checkout session",
		zap.String("order_id", req.OrderID),
		zap.String("session_id", sess.ID))

	return &checkout.Session{ID: sess.ID, URL: sess.URL}, nil
}

// ExpireSession expires an open session. A session that is already expired
// counts as success; a completed one is reported as an error.
func (g *StripeGateway) ExpireSession(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	_, err := g.api.CheckoutSessions.Expire(sessionID, params)
	if err == nil {
		return nil
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusBadRequest {
		getParams := &stripe.CheckoutSessionParams{}
		getParams.Context = ctx
		sess, getErr := g.api.CheckoutSessions.Get(sessionID, getParams)
		if getErr == nil {
			if sess.Status == stripe.CheckoutSessionStatusExpired {
				return nil
			}
			return fmt.Errorf("stripe: session %s is %s and cannot be expired", sessionID, sess.Status)
		}
	}
	return providerError("expire checkout session", err)
}

// GetSession reads the status of a session, including the payment intent
// once the session has been paid
func (g *StripeGateway) GetSession(ctx context.Context, sessionID string) (*checkout.SessionState, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, providerError("get checkout session", err)
	}

	state := &checkout.SessionState{
		ID:            sess.ID,
		Status:        string(sess.Status),
		PaymentStatus: string(sess.PaymentStatus),
	}
	if sess.PaymentIntent != nil {
		state.PaymentIntentID = sess.PaymentIntent.ID
	}
	return state, nil
}

func providerError(op string, err error) error {
	return fmt.Errorf("stripe: failed to %s: %w", op, errors.Join(checkout.ErrPaymentProvider, err))
}

// leveledLogger routes stripe-go's own logging through zap
type leveledLogger struct {
	sugar *zap.SugaredLogger
}

func newLeveledLogger(l *zap.Logger) stripe.LeveledLoggerInterface {
	if l == nil {
		l = zap.NewNop()
	}
	return &leveledLogger{sugar: l.Named("stripe").Sugar()}
}

func (l *leveledLogger) Debugf(format string, v ...any) { l.sugar.Debugf(format, v...) }

// Infof is demoted: stripe-go logs every request at info
func (l *leveledLogger) Infof(format string, v ...any)  { l.sugar.Debugf(format, v...) }
func (l *leveledLogger) Warnf(format string, v ...any)  { l.sugar.Warnf(format, v...) }
func (l *leveledLogger) Errorf(format string, v ...any) { l.sugar.Errorf(format, v...) }

var _ checkout.PaymentGateway = (*StripeGateway)(nil)
