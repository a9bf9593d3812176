package handler

import (
	"context"

	"github.com/aquapet/backend/internal/application/checkout"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Order listing limits
const (
	defaultOrderPageSize = 20
	maxOrderPageSize     = 100
)

// CheckoutService opens payment sessions and serves the customer's orders
type CheckoutService interface {
	Quote(ctx context.Context, req checkout.QuoteRequest) (*checkout.QuoteResponse, error)
	CreateCheckout(ctx context.Context, userID uuid.UUID, req checkout.CreateCheckoutRequest) (*checkout.CheckoutResponse, error)
	ListForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]checkout.OrderResponse, int64, error)
	GetBySession(ctx context.Context, userID uuid.UUID, sessionID string) (*checkout.OrderResponse, error)
	AdvanceStatus(ctx context.Context, orderID uuid.UUID, target string) (*checkout.OrderResponse, error)
}

// OrderHandler handles checkout and order endpoints
type OrderHandler struct {
	BaseHandler
	checkout CheckoutService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(svc CheckoutService) *OrderHandler {
	return &OrderHandler{checkout: svc}
}

// OrderListQuery is the pagination query of GET /orders
type OrderListQuery struct {
	Page     int `form:"page" binding:"min=0"`
	PageSize int `form:"page_size" binding:"min=0,max=100"`
}

// Quote handles POST /checkout/quote
func (h *OrderHandler) Quote(c *gin.Context) {
	var req checkout.QuoteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	quote, err := h.checkout.Quote(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// CreateCheckout handles POST /orders. The response carries the hosted
// payment page URL the storefront redirects to.
func (h *OrderHandler) CreateCheckout(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	var req checkout.CreateCheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.checkout.CreateCheckout(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListOrders handles GET /orders, newest first
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	var q OrderListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultOrderPageSize
	}
	q.PageSize = min(q.PageSize, maxOrderPageSize)

	orders, total, err := h.checkout.ListForUser(c.Request.Context(), userID, shared.Filter{
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, q.Page, q.PageSize)
}

// GetBySession handles GET /orders/session/:session_id for the success page
func (h *OrderHandler) GetBySession(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	sessionID := c.Param("session_id")
	if sessionID == "" {
		h.BadRequest(c, "session_id is required")
		return
	}

	resp, err := h.checkout.GetBySession(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AdvanceStatus handles PATCH /admin/orders/:id/status
func (h *OrderHandler) AdvanceStatus(c *gin.Context) {
	orderID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req checkout.AdvanceStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.checkout.AdvanceStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
