package catalog

import (
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeStockDepleted = "StockDepleted"
)

// StockDepletedEvent is published when a product or variant reaches zero stock
type StockDepletedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Name      string     `json:"name"`
}

// NewStockDepletedEvent creates a new StockDepletedEvent
func NewStockDepletedEvent(productID uuid.UUID, variantID *uuid.UUID, name string) *StockDepletedEvent {
	return &StockDepletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDepleted, AggregateTypeProduct, productID),
		ProductID:       productID,
		VariantID:       variantID,
		Name:            name,
	}
}
