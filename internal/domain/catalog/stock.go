package catalog

import (
	"github.com/google/uuid"
)

// ItemKind tells whether a barcode resolved to a product or a variant
type ItemKind string

const (
	ItemKindProduct ItemKind = "product"
	ItemKindVariant ItemKind = "variant"
)

// StockItem is the result of a barcode lookup. Exactly one of Product or
// Variant is set, matching Kind.
type StockItem struct {
	Kind    ItemKind
	Product *Product
	Variant *Variant
}

// ID returns the id of the resolved record
func (s StockItem) ID() uuid.UUID {
	if s.Kind == ItemKindVariant && s.Variant != nil {
		return s.Variant.ID
	}
	if s.Product != nil {
		return s.Product.ID
	}
	return uuid.Nil
}

// Stock returns the stock level of the resolved record
func (s StockItem) Stock() int {
	if s.Kind == ItemKindVariant && s.Variant != nil {
		return s.Variant.Stock
	}
	if s.Product != nil {
		return s.Product.Stock
	}
	return 0
}

// Item returns the resolved record for serialisation
func (s StockItem) Item() any {
	if s.Kind == ItemKindVariant {
		return s.Variant
	}
	return s.Product
}
