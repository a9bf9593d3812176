package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aquapet/backend/internal/domain/catalog"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Preload("Category").
		Preload("Animal")
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.withRelations(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

// FindByName finds a product by exact name
func (r *GormProductRepository) FindByName(ctx context.Context, name string) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.withRelations(ctx).Where("name = ?", name).First(&product).Error; err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

// FindByBarcode finds a product by barcode
func (r *GormProductRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	if barcode == "" {
		return nil, shared.ErrNotFound
	}
	var product catalog.Product
	if err := r.withRelations(ctx).Where("barcode = ?", barcode).First(&product).Error; err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

// FindAll lists published products matching the filter
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	var products []catalog.Product
	query := r.applyFilter(r.withRelations(ctx).Model(&catalog.Product{}), filter)

	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Count counts published products matching the filter
func (r *GormProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&catalog.Product{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a product and its variants
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// productDetailColumns are the columns UpdateDetails writes
var productDetailColumns = []string{
	"name", "description", "price", "sale_price", "category_id", "animal_id",
	"is_service", "is_featured", "published", "image_url", "gallery", "barcode",
	"updated_at",
}

// UpdateDetails updates the editable columns of an existing product. Stock is
// only ever changed through DecrementStock and TakeOne.
func (r *GormProductRepository) UpdateDetails(ctx context.Context, product *catalog.Product) error {
	product.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).Model(product).
		Select(productDetailColumns).
		Updates(product)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DecrementStock lowers stock by quantity, clamped at zero, and returns the new level
func (r *GormProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	if quantity < 0 {
		quantity = 0
	}
	result := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock":      gorm.Expr("CASE WHEN stock > ? THEN stock - ? ELSE 0 END", quantity, quantity),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrNotFound
	}
	return r.currentStock(ctx, id)
}

// TakeOne atomically removes one unit when stock is positive
func (r *GormProductRepository) TakeOne(ctx context.Context, id uuid.UUID) (int, error) {
	result := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("id = ? AND stock > 0", id).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - 1"),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, r.missingOrEmpty(ctx, id)
	}
	return r.currentStock(ctx, id)
}

func (r *GormProductRepository) currentStock(ctx context.Context, id uuid.UUID) (int, error) {
	var stock int
	err := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("id = ?", id).
		Select("stock").
		Scan(&stock).Error
	return stock, err
}

// missingOrEmpty tells apart an unknown id from an exhausted stock
func (r *GormProductRepository) missingOrEmpty(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&catalog.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrOutOfStock
}

// applyFilter applies filter options to the query
func (r *GormProductRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, ProductSortFields, "name")
	orderDir := ValidateSortOrder(filter.OrderDir, "ASC")
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormProductRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = query.Where("published = ?", true)

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case catalog.FilterCategory:
			if name, ok := value.(string); ok && name != "" {
				query = query.Where("category_id IN (SELECT id FROM categories WHERE LOWER(name) = ?)", strings.ToLower(name))
			}
		case catalog.FilterAnimal:
			if name, ok := value.(string); ok && name != "" {
				query = query.Where("animal_id IN (SELECT id FROM animals WHERE LOWER(name) = ?)", strings.ToLower(name))
			}
		case catalog.FilterFeatured:
			if featured, ok := value.(bool); ok {
				query = query.Where("is_featured = ?", featured)
			}
		case catalog.FilterService:
			if service, ok := value.(bool); ok {
				query = query.Where("is_service = ?", service)
			}
		}
	}

	return query
}

// translateError maps GORM sentinel errors to domain errors
func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
