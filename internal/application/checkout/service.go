package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aquapet/backend/internal/domain/catalog"
	"github.com/aquapet/backend/internal/domain/identity"
	"github.com/aquapet/backend/internal/domain/order"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Errors returned by checkout
var (
	ErrAddressRequired = shared.NewDomainError("ADDRESS_REQUIRED", "Address, city and zip are required for physical items")
	ErrTotalMismatch   = shared.NewDomainError("TOTAL_MISMATCH", "Cart total does not match current prices")
)

// Config holds checkout settings
type Config struct {
	ClientURL       string
	Currency        string
	ShippingLabel   string
	PaymentMethods  []string
	MetadataMaxSize int
	TotalTolerance  decimal.Decimal
	SessionTTL      time.Duration
	PhoneRegion     string
}

// DefaultConfig returns EUR card checkout with a 24h session
func DefaultConfig() Config {
	return Config{
		ClientURL:       "http://localhost:5173",
		Currency:        "eur",
		ShippingLabel:   "Spedizione",
		PaymentMethods:  []string{"card"},
		MetadataMaxSize: 500,
		TotalTolerance:  decimal.RequireFromString("0.01"),
		SessionTTL:      24 * time.Hour,
		PhoneRegion:     identity.DefaultPhoneRegion,
	}
}

// Service orchestrates checkout: repricing, stock checks, payment session
// creation and order persistence.
type Service struct {
	config   Config
	policy   order.ShippingPolicy
	products catalog.ProductRepository
	orders   order.OrderRepository
	users    identity.UserRepository
	gateway  PaymentGateway
	eventBus shared.EventPublisher
	logger   *zap.Logger
}

// ServiceConfig contains the dependencies of Service
type ServiceConfig struct {
	Config   Config
	Policy   order.ShippingPolicy
	Products catalog.ProductRepository
	Orders   order.OrderRepository
	Users    identity.UserRepository
	Gateway  PaymentGateway
	EventBus shared.EventPublisher
	Logger   *zap.Logger
}

// NewService creates a new checkout Service
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		config:   cfg.Config,
		policy:   cfg.Policy,
		products: cfg.Products,
		orders:   cfg.Orders,
		users:    cfg.Users,
		gateway:  cfg.Gateway,
		eventBus: cfg.EventBus,
		logger:   logger,
	}
}

// pricedCart is a cart repriced from the catalog
type pricedCart struct {
	items    order.CartSnapshot
	shipping decimal.Decimal
	details  order.ShippingDetails
}

func (p pricedCart) total() decimal.Decimal {
	return p.items.ItemsTotal().Add(p.shipping).Round(2)
}

// Quote reprices the cart and computes shipping without touching stock
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	priced, err := s.price(ctx, req.CartSnapshot, req.ShippingDetails, false)
	if err != nil {
		return nil, err
	}
	return &QuoteResponse{
		Items:                 priced.items,
		ItemsTotal:            priced.items.ItemsTotal().Round(2),
		Shipping:              priced.shipping,
		Total:                 priced.total(),
		FreeShippingThreshold: s.policy.FreeThreshold,
		LocalDeliveryEligible: s.policy.IsLocalEligible(priced.details),
		RequiresAddress:       priced.items.HasPhysicalItems(),
	}, nil
}

// CreateCheckout validates the cart against catalog prices and stock, opens a
// hosted payment session and persists the pending order.
func (s *Service) CreateCheckout(ctx context.Context, userID uuid.UUID, req CreateCheckoutRequest) (*CheckoutResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}
	if !user.CanLogin() {
		return nil, shared.ErrForbidden
	}

	priced, err := s.price(ctx, req.CartSnapshot, req.ShippingDetails, true)
	if err != nil {
		return nil, err
	}
	if priced.items.HasPhysicalItems() && !priced.details.HasAddress() {
		return nil, ErrAddressRequired
	}

	expected := priced.total()
	if req.TotalPaid.Sub(expected).Abs().GreaterThan(s.config.TotalTolerance) {
		return nil, ErrTotalMismatch.WithDetails(map[string]any{
			"expected": expected.StringFixed(2),
			"received": req.TotalPaid.StringFixed(2),
		})
	}

	o, err := order.NewOrder(user.ID, user.Email, priced.items, priced.details, priced.shipping)
	if err != nil {
		return nil, err
	}

	if s.gateway == nil {
		return nil, ErrPaymentProvider.WithMessage("Online payments are not configured")
	}
	session, err := s.gateway.CreateSession(ctx, s.sessionRequest(o, user))
	if err != nil {
		s.logger.Error("Failed to create checkout session",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
		return nil, err
	}

	if err := o.AttachSession(session.ID); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		s.logger.Error("Failed to persist order, expiring checkout session",
			zap.String("order_id", o.ID.String()),
			zap.String("session_id", session.ID),
			zap.Error(err))
		if expErr := s.gateway.ExpireSession(context.WithoutCancel(ctx), session.ID); expErr != nil {
			s.logger.Warn("Failed to expire orphaned checkout session",
				zap.String("session_id", session.ID),
				zap.Error(expErr))
		}
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.publish(ctx, o)

	s.logger.Info("Checkout session created",
		zap.String("order_id", o.ID.String()),
		zap.String("session_id", session.ID),
		zap.String("total", o.TotalPaid.StringFixed(2)))

	return &CheckoutResponse{
		StripeSessionID: session.ID,
		URL:             session.URL,
		ID:              o.ID,
	}, nil
}

// ListForUser returns the user's orders, newest first
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]OrderResponse, int64, error) {
	orders, err := s.orders.FindByUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orders.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderResponses(orders), total, nil
}

// GetBySession returns the user's order for a checkout session. Orders of
// other users are reported as not found.
func (s *Service) GetBySession(ctx context.Context, userID uuid.UUID, sessionID string) (*OrderResponse, error) {
	o, err := s.orders.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !o.BelongsTo(userID) {
		return nil, shared.ErrNotFound
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// AdvanceStatus applies an administrative fulfilment transition
func (s *Service) AdvanceStatus(ctx context.Context, orderID uuid.UUID, target string) (*OrderResponse, error) {
	status := order.Status(target)
	if !status.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("Unknown order status %q", target))
	}

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := o.AdvanceTo(status); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.Info("Order status advanced",
		zap.String("order_id", o.ID.String()),
		zap.String("status", o.Status.String()))

	resp := ToOrderResponse(o)
	return &resp, nil
}

// price rebuilds the cart from the catalog. Client names and prices are
// replaced by catalog values; quantities, images and service booking fields
// are kept. With checkStock set, physical lines are checked against stock,
// summing quantities of lines that share a product or variant.
func (s *Service) price(ctx context.Context, lines []CartItemInput, shipping ShippingInput, checkStock bool) (*pricedCart, error) {
	if len(lines) == 0 {
		return nil, order.ErrEmptyCart
	}

	details := shipping.toDomain()
	if strings.TrimSpace(details.Phone) != "" {
		phone, err := identity.NormalizePhone(details.Phone, s.config.PhoneRegion)
		if err != nil {
			return nil, err
		}
		details.Phone = phone
	}

	type stockNeed struct {
		name      string
		available int
		requested int
	}
	needs := make(map[uuid.UUID]*stockNeed)
	products := make(map[uuid.UUID]*catalog.Product)

	items := make(order.CartSnapshot, 0, len(lines))
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			p, err := s.products.FindByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil, shared.ErrNotFound.WithMessage(fmt.Sprintf("Product not found: %s", line.Name))
				}
				return nil, err
			}
			products[line.ProductID] = p
			product = p
		}

		item := order.CartItem{
			ProductID:    product.ID,
			Name:         product.Name,
			Quantity:     line.Quantity,
			Image:        line.Image,
			IsService:    product.IsService,
			ServiceDate:  line.ServiceDate,
			ServiceNotes: line.ServiceNotes,
		}
		if item.Image == "" {
			item.Image = product.ImageURL
		}

		var variant *catalog.Variant
		if line.VariantID != nil && *line.VariantID != uuid.Nil {
			variant = product.FindVariant(*line.VariantID)
			if variant == nil {
				return nil, shared.ErrNotFound.WithMessage(
					fmt.Sprintf("Variant not found: %s (%s)", line.Variant, product.Name))
			}
			id := variant.ID
			item.VariantID = &id
			item.Variant = variant.Name
		}
		item.Price = product.PriceWith(variant)

		if err := item.Validate(); err != nil {
			return nil, err
		}
		items = append(items, item)

		if !checkStock || item.IsService {
			continue
		}
		key, available := product.ID, product.Stock
		if variant != nil {
			key, available = variant.ID, variant.Stock
		}
		need, ok := needs[key]
		if !ok {
			need = &stockNeed{name: item.DisplayName(), available: available}
			needs[key] = need
		}
		need.requested += item.Quantity
		if need.available < need.requested {
			return nil, shared.ErrInsufficientStock.
				WithMessage(fmt.Sprintf("Insufficient stock for %s. Available: %d, requested: %d",
					need.name, need.available, need.requested)).
				WithDetails(map[string]any{
					"item":      need.name,
					"available": need.available,
					"requested": need.requested,
				})
		}
	}

	if err := items.Validate(); err != nil {
		return nil, err
	}

	return &pricedCart{
		items:    items,
		shipping: s.policy.Quote(items, details).Round(2),
		details:  details,
	}, nil
}

// sessionRequest builds the hosted checkout request for a pending order
func (s *Service) sessionRequest(o *order.Order, user *identity.User) SessionRequest {
	lineItems := make([]LineItem, 0, len(o.CartSnapshot)+1)
	for _, item := range o.CartSnapshot {
		lineItems = append(lineItems, LineItem{
			Name:       item.DisplayName(),
			ImageURL:   item.Image,
			UnitAmount: ToMinorUnits(item.Price),
			Quantity:   int64(item.Quantity),
		})
	}
	if o.ShippingCost.GreaterThan(s.config.TotalTolerance) {
		lineItems = append(lineItems, LineItem{
			Name:       s.config.ShippingLabel,
			UnitAmount: ToMinorUnits(o.ShippingCost),
			Quantity:   1,
		})
	}

	orderID := o.ID.String()
	req := SessionRequest{
		OrderID:        orderID,
		CustomerEmail:  user.Email,
		Currency:       s.config.Currency,
		PaymentMethods: s.config.PaymentMethods,
		LineItems:      lineItems,
		SuccessURL:     s.config.ClientURL + "/#/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:      s.config.ClientURL + "/#/checkout",
		Metadata: map[string]string{
			"order_id":         orderID,
			"userId":           user.ID.String(),
			"shipping_address": s.metadataJSON(o.ShippingDetails),
			"cart_snapshot":    s.metadataJSON(o.CartSnapshot),
		},
		IdempotencyKey: "checkout-" + orderID,
	}
	if s.config.SessionTTL > 0 {
		req.ExpiresAt = time.Now().Add(s.config.SessionTTL)
	}
	return req
}

// metadataJSON encodes v and truncates it to the provider's value limit
func (s *Service) metadataJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return TruncateMetadata(string(raw), s.config.MetadataMaxSize)
}

func (s *Service) publish(ctx context.Context, o *order.Order) {
	events := o.GetDomainEvents()
	o.ClearDomainEvents()
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish order events",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
	}
}

// ToMinorUnits converts an amount to integer cents, rounding half away from zero
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// TruncateMetadata caps s at limit bytes without splitting a UTF-8 sequence.
// A non-positive limit leaves s unchanged.
func TruncateMetadata(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
