package persistence

import (
	"context"
	"time"

	"github.com/aquapet/backend/internal/domain/catalog"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVariantRepository implements VariantRepository using GORM
type GormVariantRepository struct {
	db *gorm.DB
}

// NewGormVariantRepository creates a new GormVariantRepository
func NewGormVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// FindByID finds a variant by its ID
func (r *GormVariantRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Variant, error) {
	var variant catalog.Variant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &variant, nil
}

// FindByBarcode finds a variant by barcode
func (r *GormVariantRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Variant, error) {
	if barcode == "" {
		return nil, shared.ErrNotFound
	}
	var variant catalog.Variant
	if err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&variant).Error; err != nil {
		return nil, translateError(err)
	}
	return &variant, nil
}

// Save creates or updates a variant
func (r *GormVariantRepository) Save(ctx context.Context, variant *catalog.Variant) error {
	return r.db.WithContext(ctx).Save(variant).Error
}

// DecrementStock lowers stock by quantity, clamped at zero, and returns the new level
func (r *GormVariantRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	if quantity < 0 {
		quantity = 0
	}
	result := r.db.WithContext(ctx).Model(&catalog.Variant{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock":      gorm.Expr("CASE WHEN stock > ? THEN stock - ? ELSE 0 END", quantity, quantity),
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
func (r *GormVariantRepository) TakeOne(ctx context.Context, id uuid.UUID) (int, error) {
	result := r.db.WithContext(ctx).Model(&catalog.Variant{}).
		Where("id = ? AND stock > 0", id).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&catalog.Variant{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, shared.ErrNotFound
		}
		return 0, shared.ErrOutOfStock
	}
	return r.currentStock(ctx, id)
}

func (r *GormVariantRepository) currentStock(ctx context.Context, id uuid.UUID) (int, error) {
	var stock int
	err := r.db.WithContext(ctx).Model(&catalog.Variant{}).
		Where("id = ?", id).
		Select("stock").
		Scan(&stock).Error
	return stock, err
}

// Ensure GormVariantRepository implements VariantRepository
var _ catalog.VariantRepository = (*GormVariantRepository)(nil)
