package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/aquapet/backend/internal/domain/catalog"
	"github.com/aquapet/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// POS errors
var (
	ErrBarcodeRequired = shared.NewDomainError("BARCODE_REQUIRED", "Barcode is required")
	ErrProductNotFound = shared.ErrNotFound.WithMessage("Product not found")
	ErrOutOfStock      = shared.ErrOutOfStock
)

// ScanMessage is returned after a successful scan
const ScanMessage = "Stock updated"

// POSService resolves barcodes and takes single units off the shelf
type POSService struct {
	products catalog.ProductRepository
	variants catalog.VariantRepository
	eventBus shared.EventPublisher
	logger   *zap.Logger
}

// NewPOSService creates a new POSService. eventBus may be nil.
func NewPOSService(
	products catalog.ProductRepository,
	variants catalog.VariantRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *POSService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &POSService{
		products: products,
		variants: variants,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Scan decrements the stock of the product or variant carrying barcode by one
func (s *POSService) Scan(ctx context.Context, barcode string) (*ScanResponse, error) {
	item, err := s.resolve(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if item.Stock() <= 0 {
		return nil, outOfStock(item)
	}

	remaining, err := s.takeOne(ctx, item)
	if err != nil {
		if errors.Is(err, shared.ErrOutOfStock) {
			// another till took the last unit between lookup and update
			s.setStock(item, 0)
			return nil, outOfStock(item)
		}
		return nil, err
	}
	s.setStock(item, remaining)

	s.logger.Info("POS scan",
		zap.String("barcode", strings.TrimSpace(barcode)),
		zap.String("type", string(item.Kind)),
		zap.String("item_id", item.ID().String()),
		zap.Int("remaining", remaining))

	if remaining == 0 {
		s.publishDepleted(ctx, item)
	}

	return &ScanResponse{Message: ScanMessage, Item: item.Item(), Type: item.Kind}, nil
}

// Lookup returns the product or variant carrying barcode
func (s *POSService) Lookup(ctx context.Context, barcode string) (*LookupResponse, error) {
	item, err := s.resolve(ctx, barcode)
	if err != nil {
		return nil, err
	}
	return &LookupResponse{Item: item.Item(), Type: item.Kind}, nil
}

// resolve searches products first, then variants
func (s *POSService) resolve(ctx context.Context, barcode string) (catalog.StockItem, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return catalog.StockItem{}, ErrBarcodeRequired
	}

	product, err := s.products.FindByBarcode(ctx, barcode)
	if err == nil {
		return catalog.StockItem{Kind: catalog.ItemKindProduct, Product: product}, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return catalog.StockItem{}, err
	}

	variant, err := s.variants.FindByBarcode(ctx, barcode)
	if err == nil {
		return catalog.StockItem{Kind: catalog.ItemKindVariant, Variant: variant}, nil
	}
	if errors.Is(err, shared.ErrNotFound) {
		return catalog.StockItem{}, ErrProductNotFound
	}
	return catalog.StockItem{}, err
}

func (s *POSService) takeOne(ctx context.Context, item catalog.StockItem) (int, error) {
	if item.Kind == catalog.ItemKindVariant {
		return s.variants.TakeOne(ctx, item.Variant.ID)
	}
	return s.products.TakeOne(ctx, item.Product.ID)
}

func (s *POSService) setStock(item catalog.StockItem, stock int) {
	if item.Kind == catalog.ItemKindVariant {
		item.Variant.Stock = stock
		return
	}
	item.Product.Stock = stock
}

func (s *POSService) publishDepleted(ctx context.Context, item catalog.StockItem) {
	if s.eventBus == nil {
		return
	}
	var event *catalog.StockDepletedEvent
	if item.Kind == catalog.ItemKindVariant {
		variantID := item.Variant.ID
		event = catalog.NewStockDepletedEvent(item.Variant.ProductID, &variantID, item.Variant.Name)
	} else {
		event = catalog.NewStockDepletedEvent(item.Product.ID, nil, item.Product.Name)
	}
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish stock depleted event", zap.Error(err))
	}
}

func outOfStock(item catalog.StockItem) error {
	return ErrOutOfStock.WithDetails(map[string]any{
		"item": item.Item(),
		"type": item.Kind,
	})
}
