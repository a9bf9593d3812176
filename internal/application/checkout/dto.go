package checkout

import (
	"time"

	"github.com/aquapet/backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItemInput is one cart line as sent by the storefront
type CartItemInput struct {
	ProductID    uuid.UUID       `json:"id" binding:"required"`
	VariantID    *uuid.UUID      `json:"variant_id"`
	Name         string          `json:"name" binding:"max=200"`
	Variant      string          `json:"variant" binding:"max=120"`
	Quantity     int             `json:"quantity" binding:"required,min=1,max=999"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image" binding:"omitempty,max=500"`
	IsService    bool            `json:"is_service"`
	ServiceDate  string          `json:"service_date" binding:"max=50"`
	ServiceNotes string          `json:"service_notes" binding:"max=1000"`
}

// ShippingInput is the delivery address entered at checkout
type ShippingInput struct {
	Address       string `json:"address" binding:"max=255"`
	City          string `json:"city" binding:"max=100"`
	Zip           string `json:"zip" binding:"max=20"`
	Phone         string `json:"phone" binding:"max=32"`
	Notes         string `json:"notes" binding:"max=500"`
	LocalDelivery bool   `json:"local_delivery"`
}

func (s ShippingInput) toDomain() order.ShippingDetails {
	return order.ShippingDetails{
		Address:       s.Address,
		City:          s.City,
		Zip:           s.Zip,
		Phone:         s.Phone,
		Notes:         s.Notes,
		LocalDelivery: s.LocalDelivery,
	}
}

// CreateCheckoutRequest opens a payment session for the cart
type CreateCheckoutRequest struct {
	CartSnapshot    []CartItemInput `json:"cart_snapshot" binding:"max=100,dive"`
	ShippingDetails ShippingInput   `json:"shipping_details"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
}

// QuoteRequest asks for the server-side price of a cart
type QuoteRequest struct {
	CartSnapshot    []CartItemInput `json:"cart_snapshot" binding:"max=100,dive"`
	ShippingDetails ShippingInput   `json:"shipping_details"`
}

// QuoteResponse is the authoritative price breakdown for a cart
type QuoteResponse struct {
	Items                 []order.CartItem `json:"items"`
	ItemsTotal            decimal.Decimal  `json:"items_total"`
	Shipping              decimal.Decimal  `json:"shipping"`
	Total                 decimal.Decimal  `json:"total"`
	FreeShippingThreshold decimal.Decimal  `json:"free_shipping_threshold"`
	LocalDeliveryEligible bool             `json:"local_delivery_eligible"`
	RequiresAddress       bool             `json:"requires_address"`
}

// CheckoutResponse tells the storefront where to redirect the customer
type CheckoutResponse struct {
	StripeSessionID string    `json:"stripeSessionId"`
	URL             string    `json:"url"`
	ID              uuid.UUID `json:"id"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID             `json:"id"`
	Status          order.Status          `json:"status"`
	StatusLabel     string                `json:"status_label"`
	TotalPaid       decimal.Decimal       `json:"total_paid"`
	ShippingCost    decimal.Decimal       `json:"shipping_cost"`
	ShippingDetails order.ShippingDetails `json:"shipping_details"`
	CartSnapshot    order.CartSnapshot    `json:"cart_snapshot"`
	StripeID        string                `json:"stripe_id"`
	CustomerEmail   string                `json:"customer_email"`
	PaidAt          *time.Time            `json:"paid_at,omitempty"`
	ShippedAt       *time.Time            `json:"shipped_at,omitempty"`
	CompletedAt     *time.Time            `json:"completed_at,omitempty"`
	CancelledAt     *time.Time            `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *order.Order) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		Status:          o.Status,
		StatusLabel:     o.Status.Label(),
		TotalPaid:       o.TotalPaid,
		ShippingCost:    o.ShippingCost,
		ShippingDetails: o.ShippingDetails,
		CartSnapshot:    o.CartSnapshot,
		StripeID:        o.StripeSessionID,
		CustomerEmail:   o.CustomerEmail,
		PaidAt:          o.PaidAt,
		ShippedAt:       o.ShippedAt,
		CompletedAt:     o.CompletedAt,
		CancelledAt:     o.CancelledAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// ToOrderResponses converts a slice of orders
func ToOrderResponses(orders []order.Order) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses
}

// AdvanceStatusRequest moves an order forward in fulfilment
type AdvanceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=shipped completed"`
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}
