package catalog

import (
	"slices"
	"strings"
	"time"

	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a sellable article or bookable service in the shop.
// It is the aggregate root for its variants.
type Product struct {
	shared.BaseAggregateRoot
	Name        string           `gorm:"type:varchar(200);not null;index" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	Price       decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	SalePrice   *decimal.Decimal `gorm:"type:decimal(12,2)" json:"sale_price,omitempty"`
	CategoryID  *uuid.UUID       `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category    *Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	AnimalID    *uuid.UUID       `gorm:"type:uuid;index" json:"animal_id,omitempty"`
	Animal      *Animal          `gorm:"foreignKey:AnimalID" json:"animal,omitempty"`
	IsService   bool             `gorm:"not null;default:false" json:"is_service"`
	IsFeatured  bool             `gorm:"not null;default:false;index" json:"is_featured"`
	Published   bool             `gorm:"not null;default:true" json:"published"`
	ImageURL    string           `gorm:"type:varchar(500)" json:"image_url,omitempty"`
	Gallery     []string         `gorm:"type:text;serializer:json" json:"gallery,omitempty"`
	Stock       int              `gorm:"not null;default:0" json:"stock"`
	Barcode     *string          `gorm:"type:varchar(64);uniqueIndex" json:"barcode,omitempty"`
	Variants    []Variant        `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a published product with a base price
func NewProduct(name string, price decimal.Decimal) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Price:             price.Round(2),
		Published:         true,
	}
	return product, nil
}

// NewService creates a bookable service. Services never track stock.
func NewService(name string, price decimal.Decimal) (*Product, error) {
	product, err := NewProduct(name, price)
	if err != nil {
		return nil, err
	}
	product.IsService = true
	return product, nil
}

// EffectivePrice returns the sale price when one is set, the list price otherwise
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil && p.SalePrice.IsPositive() {
		return *p.SalePrice
	}
	return p.Price
}

// PriceWith returns the unit price charged for the product in the given variant.
// A nil variant prices the base product.
func (p *Product) PriceWith(v *Variant) decimal.Decimal {
	price := p.EffectivePrice()
	if v != nil {
		price = price.Add(v.ExtraPrice)
	}
	return price.Round(2)
}

// TracksStock reports whether sales of this product move stock
func (p *Product) TracksStock() bool {
	return !p.IsService
}

// CanFulfil reports whether the product (without variant) covers the requested quantity
func (p *Product) CanFulfil(quantity int) bool {
	if !p.TracksStock() {
		return true
	}
	return p.Stock >= quantity
}

// DecrementStock lowers the stock by quantity, never below zero.
// Returns the resulting stock level.
func (p *Product) DecrementStock(quantity int) int {
	p.Stock = ClampDecrement(p.Stock, quantity)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return p.Stock
}

// SetStock replaces the stock level
func (p *Product) SetStock(stock int) error {
	if stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	p.Stock = stock
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetSalePrice sets or clears (nil) the discounted price
func (p *Product) SetSalePrice(price *decimal.Decimal) error {
	if price != nil {
		if err := validatePrice(*price); err != nil {
			return err
		}
		rounded := price.Round(2)
		price = &rounded
	}
	p.SalePrice = price
	p.UpdatedAt = time.Now()
	return nil
}

// SetBarcode sets the product barcode. An empty string clears it.
func (p *Product) SetBarcode(barcode string) error {
	code, err := normalizeBarcode(barcode)
	if err != nil {
		return err
	}
	p.Barcode = code
	p.UpdatedAt = time.Now()
	return nil
}

// FindVariant returns the variant with the given id, or nil
func (p *Product) FindVariant(id uuid.UUID) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// AddVariant attaches a new variant to the product
func (p *Product) AddVariant(name string, extraPrice decimal.Decimal) (*Variant, error) {
	v, err := NewVariant(p.ID, name, extraPrice)
	if err != nil {
		return nil, err
	}
	p.Variants = append(p.Variants, *v)
	p.UpdatedAt = time.Now()
	return &p.Variants[len(p.Variants)-1], nil
}

// MaxImages caps the number of pictures of a product, cover included
const MaxImages = 12

// ErrTooManyImages is returned when a product already has MaxImages pictures
var ErrTooManyImages = shared.NewDomainError("TOO_MANY_IMAGES", "Product already has the maximum number of images")

// AddImage attaches a picture. The first one becomes the cover image and
// later ones go to the gallery. Adding a URL twice is a no-op.
func (p *Product) AddImage(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return shared.ErrInvalidInput.WithMessage("Image URL is required")
	}
	if p.ImageURL == url || slices.Contains(p.Gallery, url) {
		return nil
	}
	if p.ImageURL == "" {
		p.ImageURL = url
		return nil
	}
	if len(p.Gallery)+1 >= MaxImages {
		return ErrTooManyImages
	}
	p.Gallery = append(p.Gallery, url)
	return nil
}

// CategoryName returns the category display name, "Generale" when unset
func (p *Product) CategoryName() string {
	if p.Category == nil || p.Category.Name == "" {
		return DefaultCategoryName
	}
	return p.Category.Name
}

// AnimalName returns the animal display name, "Tutti" when unset
func (p *Product) AnimalName() string {
	if p.Animal == nil || p.Animal.Name == "" {
		return DefaultAnimalName
	}
	return p.Animal.Name
}

// ClampDecrement subtracts quantity from stock without going below zero
func ClampDecrement(stock, quantity int) int {
	if quantity < 0 {
		return stock
	}
	if stock-quantity < 0 {
		return 0
	}
	return stock - quantity
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return nil
}

func normalizeBarcode(barcode string) (*string, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, nil
	}
	if len(barcode) > 64 {
		return nil, shared.NewDomainError("INVALID_BARCODE", "Barcode cannot exceed 64 characters")
	}
	return &barcode, nil
}
