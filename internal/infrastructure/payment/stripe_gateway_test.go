package payment

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aquapet/backend/internal/application/checkout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
)

type stripeStub struct {
	t        *testing.T
	requests []*http.Request
	forms    []url.Values
	handler  func(w http.ResponseWriter, r *http.Request)
}

func newStripeStub(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*StripeGateway, *stripeStub) {
	t.Helper()
	stub := &stripeStub{t: t, handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		stub.requests = append(stub.requests, r)
		stub.forms = append(stub.forms, form)
		w.Header().Set("Content-Type", "application/json")
		stub.handler(w, r)
	}))
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     newLeveledLogger(nil),
	})
	return NewStripeGatewayWithBackend("sk_test_123", backend, nil), stub
}

func stripeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `{"error":{"type":"invalid_request_error","message":"`+msg+`"}}`)
}

func TestStripeGateway_CreateSession(t *testing.T) {
	gw, stub := newStripeStub(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`)
	})

	expires := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	sess, err := gw.CreateSession(context.Background(), checkout.SessionRequest{
		OrderID:        "ord-1",
		CustomerEmail:  "mario@example.com",
		Currency:       "eur",
		PaymentMethods: []string{"card"},
		LineItems: []checkout.LineItem{
			{Name: "Crocchette (2kg)", ImageURL: "https://cdn.test/c.jpg", UnitAmount: 1900, Quantity: 2},
			{Name: "Spedizione", UnitAmount: 499, Quantity: 1},
		},
		SuccessURL:     "https://shop.test/#/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:      "https://shop.test/#/checkout",
		Metadata:       map[string]string{"order_id": "ord-1", "userId": "u-1"},
		ExpiresAt:      expires,
		IdempotencyKey: "checkout-ord-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", sess.URL)

	require.Len(t, stub.requests, 1)
	req, form := stub.requests[0], stub.forms[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v1/checkout/sessions", req.URL.Path)
	assert.Equal(t, "Bearer sk_test_123", req.Header.Get("Authorization"))
	assert.Equal(t, "checkout-ord-1", req.Header.Get("Idempotency-Key"))

	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "card", form.Get("payment_method_types[0]"))
	assert.Equal(t, "mario@example.com", form.Get("customer_email"))
	assert.Equal(t, "ord-1", form.Get("client_reference_id"))
	assert.Equal(t, "u-1", form.Get("metadata[userId]"))
	assert.Equal(t, "1777629600", form.Get("expires_at"))
	assert.Equal(t, "eur", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "Crocchette (2kg)", form.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "https://cdn.test/c.jpg", form.Get("line_items[0][price_data][product_data][images][0]"))
	assert.Equal(t, "1900", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "2", form.Get("line_items[0][quantity]"))
	assert.Equal(t, "Spedizione", form.Get("line_items[1][price_data][product_data][name]"))
	assert.Empty(t, form.Get("line_items[1][price_data][product_data][images][0]"))
}

func TestStripeGateway_CreateSessionFailure(t *testing.T) {
	gw, _ := newStripeStub(t, func(w http.ResponseWriter, r *http.Request) {
		stripeError(w, http.StatusBadRequest, "Invalid currency")
	})

	_, err := gw.CreateSession(context.Background(), checkout.SessionRequest{OrderID: "ord-1", Currency: "xxx"})

	require.Error(t, err)
	assert.ErrorIs(t, err, checkout.ErrPaymentProvider)
	assert.True(t, strings.HasPrefix(err.Error(), "stripe: failed to create checkout session"))

	var stripeErr *stripe.Error
	require.True(t, errors.As(err, &stripeErr))
	assert.Equal(t, "Invalid currency", stripeErr.Msg)
}

func TestStripeGateway_ExpireSession(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter, r *http.Request)
		wantErr bool
		calls   int
	}{
		{
			name: "open session",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"id":"cs_1","object":"checkout.session","status":"expired"}`)
			},
			calls: 1,
		},
		{
			name: "already expired",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPost {
					stripeError(w, http.StatusBadRequest, "Only Checkout Sessions with a status of open can be expired.")
					return
				}
				_, _ = io.WriteString(w, `{"id":"cs_1","object":"checkout.session","status":"expired"}`)
			},
			calls: 2,
		},
		{
			name: "completed meanwhile",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPost {
					stripeError(w, http.StatusBadRequest, "Only Checkout Sessions with a status of open can be expired.")
					return
				}
				_, _ = io.WriteString(w, `{"id":"cs_1","object":"checkout.session","status":"complete"}`)
			},
			wantErr: true,
			calls:   2,
		},
		{
			name: "provider down",
			handler: func(w http.ResponseWriter, r *http.Request) {
				stripeError(w, http.StatusInternalServerError, "boom")
			},
			wantErr: true,
			calls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, stub := newStripeStub(t, tt.handler)

			err := gw.ExpireSession(context.Background(), "cs_1")

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			require.Len(t, stub.requests, tt.calls)
			assert.Equal(t, "/v1/checkout/sessions/cs_1/expire", stub.requests[0].URL.Path)
		})
	}
}

func TestStripeGateway_GetSession(t *testing.T) {
	t.Run("paid session", func(t *testing.T) {
		gw, stub := newStripeStub(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"id":"cs_1","object":"checkout.session","status":"complete","payment_status":"paid","payment_intent":"pi_42"}`)
		})

		state, err := gw.GetSession(context.Background(), "cs_1")

		require.NoError(t, err)
		assert.Equal(t, checkout.SessionStatusComplete, state.Status)
		assert.Equal(t, checkout.PaymentStatusPaid, state.PaymentStatus)
		assert.Equal(t, "pi_42", state.PaymentIntentID)
		assert.True(t, state.IsPaid())
		require.Len(t, stub.requests, 1)
		assert.Equal(t, http.MethodGet, stub.requests[0].Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_1", stub.requests[0].URL.Path)
	})

	t.Run("completed awaiting async payment", func(t *testing.T) {
		gw, _ := newStripeStub(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"id":"cs_1","object":"checkout.session","status":"complete","payment_status":"unpaid"}`)
		})

		state, err := gw.GetSession(context.Background(), "cs_1")

		require.NoError(t, err)
		assert.False(t, state.IsPaid())
		assert.Empty(t, state.PaymentIntentID)
	})

	t.Run("provider down", func(t *testing.T) {
		gw, _ := newStripeStub(t, func(w http.ResponseWriter, r *http.Request) {
			stripeError(w, http.StatusInternalServerError, "boom")
		})

		_, err := gw.GetSession(context.Background(), "cs_1")

		assert.ErrorIs(t, err, checkout.ErrPaymentProvider)
	})
}

func TestNewStripeGateway_RequiresKey(t *testing.T) {
	_, err := NewStripeGateway(stripeConfigWithoutKey(), nil)
	assert.Error(t, err)
}
