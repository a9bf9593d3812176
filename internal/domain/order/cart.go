package order

import (
	"fmt"
	"strings"

	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxCartLines bounds the number of distinct lines accepted in one checkout
const MaxCartLines = 100

// CartItem is one line of the cart snapshot stored with an order.
// JSON names follow the storefront client payload.
type CartItem struct {
	ProductID    uuid.UUID       `json:"id"`
	VariantID    *uuid.UUID      `json:"variant_id,omitempty"`
	Name         string          `json:"name"`
	Variant      string          `json:"variant,omitempty"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image,omitempty"`
	IsService    bool            `json:"is_service"`
	ServiceDate  string          `json:"service_date,omitempty"`
	ServiceNotes string          `json:"service_notes,omitempty"`
}

// DisplayName returns the name shown on the payment page: "Name (Variant)"
func (i CartItem) DisplayName() string {
	if i.Variant == "" {
		return i.Name
	}
	return fmt.Sprintf("%s (%s)", i.Name, i.Variant)
}

// LineTotal returns price * quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// HasVariant reports whether the line refers to a product variant
func (i CartItem) HasVariant() bool {
	return i.VariantID != nil && *i.VariantID != uuid.Nil
}

// Validate checks the line is well formed
func (i CartItem) Validate() error {
	if i.ProductID == uuid.Nil {
		return shared.NewDomainError("INVALID_CART_ITEM", "Cart item is missing the product id")
	}
	if strings.TrimSpace(i.Name) == "" {
		return shared.NewDomainError("INVALID_CART_ITEM", "Cart item is missing the product name")
	}
	if i.Quantity < 1 {
		return shared.NewDomainError("INVALID_CART_ITEM", fmt.Sprintf("Invalid quantity for %s", i.DisplayName()))
	}
	if i.Price.IsNegative() {
		return shared.NewDomainError("INVALID_CART_ITEM", fmt.Sprintf("Invalid price for %s", i.DisplayName()))
	}
	return nil
}

// CartSnapshot is the immutable list of lines captured at checkout time
type CartSnapshot []CartItem

// ErrEmptyCart is returned when a checkout is attempted with no lines
var ErrEmptyCart = shared.NewDomainError("EMPTY_CART", "Cart is empty")

// Validate checks the snapshot is non-empty and every line is well formed
func (c CartSnapshot) Validate() error {
	if len(c) == 0 {
		return ErrEmptyCart
	}
	if len(c) > MaxCartLines {
		return shared.NewDomainError("INVALID_CART", fmt.Sprintf("Cart cannot contain more than %d lines", MaxCartLines))
	}
	for _, item := range c {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ItemsTotal sums every line total
func (c CartSnapshot) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.LineTotal())
	}
	return total
}

// PhysicalItemsTotal sums line totals for non-service lines
func (c CartSnapshot) PhysicalItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		if !item.IsService {
			total = total.Add(item.LineTotal())
		}
	}
	return total
}

// HasPhysicalItems reports whether any line must be shipped
func (c CartSnapshot) HasPhysicalItems() bool {
	for _, item := range c {
		if !item.IsService {
			return true
		}
	}
	return false
}

// StockLines returns the lines that move stock (non-service)
func (c CartSnapshot) StockLines() []CartItem {
	lines := make([]CartItem, 0, len(c))
	for _, item := range c {
		if !item.IsService {
			lines = append(lines, item)
		}
	}
	return lines
}
