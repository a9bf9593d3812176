package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/aquapet/backend/internal/domain/catalog"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Listing limits
const (
	DefaultPageSize      = 20
	MaxPageSize          = 100
	DefaultFeaturedLimit = 3
	DefaultSearchLimit   = 5
	MaxSearchLimit       = 50
)

// Demo product ensured by SeedDemo
const (
	DemoProductName        = "Prodotto Test"
	DemoProductDescription = "Questo è un prodotto di test creato automaticamente."
)

var (
	demoPrice     = decimal.RequireFromString("19.99")
	demoSalePrice = decimal.RequireFromString("14.99")
)

// Service serves the storefront catalog
type Service struct {
	products catalog.ProductRepository
	taxonomy catalog.TaxonomyRepository
	logger   *zap.Logger

	images       ImageStorage
	maxImageSize int64
}

// NewService creates a new catalog Service
func NewService(products catalog.ProductRepository, taxonomy catalog.TaxonomyRepository, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		products: products,
		taxonomy: taxonomy,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a page of published products ordered by name, plus the total
func (s *Service) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "name",
		OrderDir: "asc",
		Search:   strings.TrimSpace(filter.Search),
		Filters:  make(map[string]any),
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	if filter.Category != "" {
		f.Filters[catalog.FilterCategory] = filter.Category
	}
	if filter.Animal != "" {
		f.Filters[catalog.FilterAnimal] = filter.Animal
	}
	if filter.Featured != nil {
		f.Filters[catalog.FilterFeatured] = *filter.Featured
	}
	if filter.IsService != nil {
		f.Filters[catalog.FilterService] = *filter.IsService
	}

	products, err := s.products.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.products.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// Featured returns up to limit featured products. A non-positive limit means 3.
func (s *Service) Featured(ctx context.Context, limit int) ([]ProductResponse, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	products, err := s.products.FindAll(ctx, shared.Filter{
		Page:     1,
		PageSize: limit,
		OrderBy:  "name",
		OrderDir: "asc",
		Filters:  map[string]any{catalog.FilterFeatured: true},
	})
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products), nil
}

// Search matches product names case-insensitively. An empty query yields an
// empty list.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]ProductResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []ProductResponse{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	products, err := s.products.FindAll(ctx, shared.Filter{
		Page:     1,
		PageSize: limit,
		OrderBy:  "name",
		OrderDir: "asc",
		Search:   query,
	})
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products), nil
}

// Get returns a published product with its variants
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Published {
		return nil, shared.ErrNotFound
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// Categories returns all category names, sorted
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	names, err := s.taxonomy.CategoryNames(ctx)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Animals returns all animal names, sorted
func (s *Service) Animals(ctx context.Context) ([]string, error) {
	names, err := s.taxonomy.AnimalNames(ctx)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// SeedDemo makes sure the demo product exists and is published. Running it
// twice leaves a single demo product.
func (s *Service) SeedDemo(ctx context.Context) (*ProductResponse, error) {
	product, err := s.products.FindByName(ctx, DemoProductName)
	switch {
	case err == nil:
		changed := product.Description != DemoProductDescription || !product.Published
		product.Description = DemoProductDescription
		product.Published = true
		if changed {
			if err := s.products.UpdateDetails(ctx, product); err != nil {
				return nil, err
			}
			s.logger.Info("Demo product updated", zap.String("product_id", product.ID.String()))
		}
	case errors.Is(err, shared.ErrNotFound):
		product, err = catalog.NewProduct(DemoProductName, demoPrice)
		if err != nil {
			return nil, err
		}
		sale := demoSalePrice
		if err := product.SetSalePrice(&sale); err != nil {
			return nil, err
		}
		product.Description = DemoProductDescription
		product.IsFeatured = true
		if err := s.products.Save(ctx, product); err != nil {
			return nil, err
		}
		s.logger.Info("Demo product created", zap.String("product_id", product.ID.String()))
	default:
		return nil, err
	}

	resp := ToProductResponse(product)
	return &resp, nil
}
