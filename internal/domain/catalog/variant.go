package catalog

import (
	"strings"
	"time"

	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Variant is a purchasable option of a product (size, flavour, weight).
// Variants carry their own stock and barcode.
type Variant struct {
	shared.BaseEntity
	ProductID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"product_id"`
	Name       string           `gorm:"type:varchar(120);not null" json:"name"`
	ExtraPrice decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"extra_price"`
	SalePrice  *decimal.Decimal `gorm:"type:decimal(12,2)" json:"sale_price,omitempty"`
	WeightKg   decimal.Decimal  `gorm:"type:decimal(8,3);not null;default:0" json:"weight_kg"`
	Options    map[string]any   `gorm:"type:text;serializer:json" json:"options,omitempty"`
	Stock      int              `gorm:"not null;default:0" json:"stock"`
	Barcode    *string          `gorm:"type:varchar(64);uniqueIndex" json:"barcode,omitempty"`
}

// TableName returns the table name for GORM
func (Variant) TableName() string {
	return "product_variants"
}

// NewVariant creates a variant for the given product
func NewVariant(productID uuid.UUID, name string, extraPrice decimal.Decimal) (*Variant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Variant name cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Variant must belong to a product")
	}
	return &Variant{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Name:       name,
		ExtraPrice: extraPrice.Round(2),
	}, nil
}

// CanFulfil reports whether the variant covers the requested quantity
func (v *Variant) CanFulfil(quantity int) bool {
	return v.Stock >= quantity
}

// DecrementStock lowers the stock by quantity, never below zero
func (v *Variant) DecrementStock(quantity int) int {
	v.Stock = ClampDecrement(v.Stock, quantity)
	v.UpdatedAt = time.Now()
	return v.Stock
}

// SetStock replaces the stock level
func (v *Variant) SetStock(stock int) error {
	if stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	v.Stock = stock
	v.UpdatedAt = time.Now()
	return nil
}

// SetBarcode sets the variant barcode. An empty string clears it.
func (v *Variant) SetBarcode(barcode string) error {
	code, err := normalizeBarcode(barcode)
	if err != nil {
		return err
	}
	v.Barcode = code
	v.UpdatedAt = time.Now()
	return nil
}
