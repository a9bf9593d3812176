package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/aquapet/backend/internal/application/checkout"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/aquapet/backend/internal/infrastructure/logger"
	"github.com/aquapet/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultWebhookMaxPayload bounds webhook bodies; Stripe events are small
const DefaultWebhookMaxPayload = 64 * 1024

// StripeSignatureHeader carries the webhook signature
const StripeSignatureHeader = "Stripe-Signature"

// Webhook outcomes reported to metrics
const (
	webhookOutcomeProcessed = "processed"
	webhookOutcomeDuplicate = "duplicate"
	webhookOutcomeRejected  = "rejected"
	webhookOutcomeFailed    = "failed"
)

// WebhookProcessor applies verified payment notifications
type WebhookProcessor interface {
	ProcessWebhook(ctx context.Context, payload []byte, signature string) (*checkout.WebhookResult, error)
}

// WebhookRecorder counts webhook deliveries
type WebhookRecorder interface {
	RecordWebhook(ctx context.Context, eventType, outcome string)
}

// WebhookHandler receives payment provider notifications. The endpoint is
// called by Stripe and authenticated by the payload signature only.
type WebhookHandler struct {
	BaseHandler
	processor  WebhookProcessor
	metrics    WebhookRecorder // optional
	maxPayload int64
}

// NewWebhookHandler creates a new WebhookHandler. maxPayload <= 0 selects
// DefaultWebhookMaxPayload; metrics may be nil.
func NewWebhookHandler(processor WebhookProcessor, metrics WebhookRecorder, maxPayload int64) *WebhookHandler {
	if maxPayload <= 0 {
		maxPayload = DefaultWebhookMaxPayload
	}
	return &WebhookHandler{
		processor:  processor,
		metrics:    metrics,
		maxPayload: maxPayload,
	}
}

// WebhookResponse is the acknowledgement returned to Stripe
type WebhookResponse struct {
	Received  bool   `json:"received"`
	EventID   string `json:"event_id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}

// HandleStripeWebhook handles POST /orders/webhook. The raw body is required
// for signature verification, so it is read before any JSON decoding.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxPayload+1))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.reject(c, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		h.reject(c, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if int64(len(payload)) > h.maxPayload {
		h.reject(c, http.StatusRequestEntityTooLarge, "Payload too large")
		return
	}

	result, err := h.processor.ProcessWebhook(ctx, payload, c.GetHeader(StripeSignatureHeader))
	if err != nil {
		eventType := "unknown"
		if result != nil {
			eventType = result.EventType
		}

		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && dto.GetHTTPStatus(domainErr.Code) < http.StatusInternalServerError {
			h.record(ctx, eventType, webhookOutcomeRejected)
			h.reject(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Message)
			return
		}

		// a 5xx makes Stripe retry the delivery
		h.record(ctx, eventType, webhookOutcomeFailed)
		logger.Enrich(ctx, logger.GetGinLogger(c)).Error("Webhook processing failed",
			zap.String("event_type", eventType),
			zap.Error(err))
		h.reject(c, http.StatusInternalServerError, "Webhook processing failed")
		return
	}

	outcome := webhookOutcomeProcessed
	if result.Duplicate {
		outcome = webhookOutcomeDuplicate
	}
	h.record(ctx, result.EventType, outcome)

	c.JSON(http.StatusOK, WebhookResponse{
		Received:  true,
		EventID:   result.EventID,
		EventType: result.EventType,
		Duplicate: result.Duplicate,
		Message:   result.Message,
	})
}

func (h *WebhookHandler) reject(c *gin.Context, status int, message string) {
	c.JSON(status, WebhookResponse{Received: false, Message: message})
}

func (h *WebhookHandler) record(ctx context.Context, eventType, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordWebhook(ctx, eventType, outcome)
	}
}
