package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/aquapet/backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// GormTaxonomyRepository stores categories and animals
type GormTaxonomyRepository struct {
	db *gorm.DB
}

// NewGormTaxonomyRepository creates a new GormTaxonomyRepository
func NewGormTaxonomyRepository(db *gorm.DB) *GormTaxonomyRepository {
	return &GormTaxonomyRepository{db: db}
}

// CategoryNames returns every category name in alphabetical order
func (r *GormTaxonomyRepository) CategoryNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&catalog.Category{}).Order("name ASC").Pluck("name", &names).Error
	return names, err
}

// AnimalNames returns every animal name in alphabetical order
func (r *GormTaxonomyRepository) AnimalNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&catalog.Animal{}).Order("name ASC").Pluck("name", &names).Error
	return names, err
}

// EnsureCategory returns the category with the given name, creating it when missing
func (r *GormTaxonomyRepository) EnsureCategory(ctx context.Context, name string) (*catalog.Category, error) {
	var existing catalog.Category
	err := r.db.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category, err := catalog.NewCategory(name)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, translateError(err)
	}
	return category, nil
}

// EnsureAnimal returns the animal with the given name, creating it when missing
func (r *GormTaxonomyRepository) EnsureAnimal(ctx context.Context, name string) (*catalog.Animal, error) {
	var existing catalog.Animal
	err := r.db.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	animal, err := catalog.NewAnimal(name)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(animal).Error; err != nil {
		return nil, translateError(err)
	}
	return animal, nil
}

// Ensure GormTaxonomyRepository implements TaxonomyRepository
var _ catalog.TaxonomyRepository = (*GormTaxonomyRepository)(nil)
