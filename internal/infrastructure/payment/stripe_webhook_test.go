package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/aquapet/backend/internal/application/checkout"
	"github.com/aquapet/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

func stripeConfigWithoutKey() config.StripeConfig {
	return config.StripeConfig{WebhookSecret: testWebhookSecret}
}

func sign(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func sessionEvent(eventType, paymentStatus string) []byte {
	return []byte(`{
  "id": "evt_1",
  "object": "event",
  "type": "` + eventType + `",
  "data": {"object": {
    "id": "cs_test_1",
    "object": "checkout.session",
    "payment_status": "` + paymentStatus + `",
    "payment_intent": "pi_123",
    "client_reference_id": "ord-1"
  }}
}`)
}

func TestStripeWebhookParser_SignedSession(t *testing.T) {
	parser := NewStripeWebhookParser(config.StripeConfig{WebhookSecret: testWebhookSecret}, nil)
	payload := sessionEvent(checkout.EventCheckoutCompleted, "paid")

	event, err := parser.ParseWebhook(payload, sign(payload, testWebhookSecret, time.Now()))

	require.NoError(t, err)
	assert.Equal(t, &checkout.WebhookEvent{
		ID:                "evt_1",
		Type:              checkout.EventCheckoutCompleted,
		SessionID:         "cs_test_1",
		PaymentStatus:     "paid",
		PaymentIntentID:   "pi_123",
		ClientReferenceID: "ord-1",
	}, event)
}

func TestStripeWebhookParser_Rejections(t *testing.T) {
	payload := sessionEvent(checkout.EventCheckoutCompleted, "paid")

	tests := []struct {
		name      string
		cfg       config.StripeConfig
		payload   []byte
		signature string
		want      error
	}{
		{"missing signature", config.StripeConfig{WebhookSecret: testWebhookSecret}, payload, "", checkout.ErrInvalidSignature},
		{"wrong secret", config.StripeConfig{WebhookSecret: testWebhookSecret}, payload, sign(payload, "whsec_other", time.Now()), checkout.ErrInvalidSignature},
		{"stale timestamp", config.StripeConfig{WebhookSecret: testWebhookSecret}, payload, sign(payload, testWebhookSecret, time.Now().Add(-time.Hour)), checkout.ErrInvalidSignature},
		{"garbage header", config.StripeConfig{WebhookSecret: testWebhookSecret}, payload, "nonsense", checkout.ErrInvalidSignature},
		{"no secret configured", config.StripeConfig{}, payload, "t=1,v1=abc", checkout.ErrInvalidSignature},
		{"secret set ignores allow unsigned", config.StripeConfig{WebhookSecret: testWebhookSecret, AllowUnsigned: true}, payload, "", checkout.ErrInvalidSignature},
		{"secret set with bad header and allow unsigned", config.StripeConfig{WebhookSecret: testWebhookSecret, AllowUnsigned: true}, payload, "nonsense", checkout.ErrInvalidSignature},
		{"signed but not json", config.StripeConfig{WebhookSecret: testWebhookSecret}, []byte("not json"), sign([]byte("not json"), testWebhookSecret, time.Now()), checkout.ErrInvalidPayload},
		{"unsigned garbage", config.StripeConfig{AllowUnsigned: true}, []byte("{"), "", checkout.ErrInvalidPayload},
		{"no event id", config.StripeConfig{AllowUnsigned: true}, []byte(`{"type":"checkout.session.completed"}`), "", checkout.ErrInvalidPayload},
		{"session without data", config.StripeConfig{AllowUnsigned: true}, []byte(`{"id":"evt_1","type":"checkout.session.completed"}`), "", checkout.ErrInvalidPayload},
		{"session without id", config.StripeConfig{AllowUnsigned: true}, []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"object":"checkout.session"}}}`), "", checkout.ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewStripeWebhookParser(tt.cfg, nil)
			_, err := parser.ParseWebhook(tt.payload, tt.signature)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStripeWebhookParser_Unsigned(t *testing.T) {
	parser := NewStripeWebhookParser(config.StripeConfig{AllowUnsigned: true}, nil)

	event, err := parser.ParseWebhook(sessionEvent(checkout.EventCheckoutExpired, "unpaid"), "")

	require.NoError(t, err)
	assert.Equal(t, checkout.EventCheckoutExpired, event.Type)
	assert.Equal(t, "cs_test_1", event.SessionID)
	assert.Equal(t, "unpaid", event.PaymentStatus)
}

func TestStripeWebhookParser_OtherEventTypes(t *testing.T) {
	parser := NewStripeWebhookParser(config.StripeConfig{AllowUnsigned: true}, nil)

	event, err := parser.ParseWebhook([]byte(`{"id":"evt_9","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`), "")

	require.NoError(t, err)
	assert.Equal(t, "charge.refunded", event.Type)
	assert.Empty(t, event.SessionID)
}
