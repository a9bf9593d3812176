package catalog

import (
	"context"

	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter keys understood by ProductRepository.FindAll and Count
const (
	FilterCategory = "category"
	FilterAnimal   = "animal"
	FilterFeatured = "featured"
	FilterService  = "is_service"
)

// ProductRepository defines the persistence operations for products
type ProductRepository interface {
	// FindByID loads a published or unpublished product with its variants
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByName(ctx context.Context, name string) (*Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)
	// FindAll lists published products with variants, category and animal preloaded
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, product *Product) error
	// UpdateDetails writes the editable fields of an existing product. Stock
	// and version are left alone so concurrent decrements are never undone.
	UpdateDetails(ctx context.Context, product *Product) error

	// DecrementStock lowers stock by quantity clamped at zero and returns the new level
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error)
	// TakeOne atomically lowers stock by one when positive. Returns
	// shared.ErrOutOfStock when the stock is already zero.
	TakeOne(ctx context.Context, id uuid.UUID) (int, error)
}

// VariantRepository defines the persistence operations for product variants
type VariantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Variant, error)
	FindByBarcode(ctx context.Context, barcode string) (*Variant, error)
	Save(ctx context.Context, variant *Variant) error
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error)
	TakeOne(ctx context.Context, id uuid.UUID) (int, error)
}

// TaxonomyRepository stores categories and animals
type TaxonomyRepository interface {
	CategoryNames(ctx context.Context) ([]string, error)
	AnimalNames(ctx context.Context) ([]string, error)
	EnsureCategory(ctx context.Context, name string) (*Category, error)
	EnsureAnimal(ctx context.Context, name string) (*Animal, error)
}
