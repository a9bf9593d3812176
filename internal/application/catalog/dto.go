package catalog

import (
	"time"

	"github.com/aquapet/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductListFilter represents filter options for the storefront listing
type ProductListFilter struct {
	Search    string `form:"search" binding:"max=100"`
	Category  string `form:"category" binding:"max=100"`
	Animal    string `form:"animal" binding:"max=100"`
	Featured  *bool  `form:"featured"`
	IsService *bool  `form:"is_service"`
	Page      int    `form:"page" binding:"min=0"`
	PageSize  int    `form:"page_size" binding:"min=0,max=100"`
}

// VariantResponse represents a variant in API responses
type VariantResponse struct {
	ID         uuid.UUID        `json:"id"`
	ProductID  uuid.UUID        `json:"product_id"`
	Name       string           `json:"name"`
	ExtraPrice decimal.Decimal  `json:"extra_price"`
	Price      decimal.Decimal  `json:"price"`
	SalePrice  *decimal.Decimal `json:"sale_price,omitempty"`
	WeightKg   decimal.Decimal  `json:"weight_kg"`
	Options    map[string]any   `json:"options,omitempty"`
	Stock      int              `json:"stock"`
	Barcode    *string          `json:"barcode,omitempty"`
}

// ProductResponse represents a product in API responses. Price is the list
// price; EffectivePrice is what the customer is charged without a variant.
type ProductResponse struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price"`
	SalePrice      *decimal.Decimal  `json:"sale_price,omitempty"`
	EffectivePrice decimal.Decimal   `json:"effective_price"`
	Category       string            `json:"category"`
	Animal         string            `json:"animal"`
	IsService      bool              `json:"is_service"`
	IsFeatured     bool              `json:"is_featured"`
	ImageURL       string            `json:"image_url,omitempty"`
	Gallery        []string          `json:"gallery"`
	Stock          int               `json:"stock"`
	Barcode        *string           `json:"barcode,omitempty"`
	Variants       []VariantResponse `json:"variants"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// ToProductResponse converts a domain product to a response
func ToProductResponse(p *catalog.Product) ProductResponse {
	gallery := p.Gallery
	if gallery == nil {
		gallery = []string{}
	}
	variants := make([]VariantResponse, len(p.Variants))
	for i := range p.Variants {
		v := &p.Variants[i]
		variants[i] = VariantResponse{
			ID:         v.ID,
			ProductID:  v.ProductID,
			Name:       v.Name,
			ExtraPrice: v.ExtraPrice,
			Price:      p.PriceWith(v),
			SalePrice:  v.SalePrice,
			WeightKg:   v.WeightKg,
			Options:    v.Options,
			Stock:      v.Stock,
			Barcode:    v.Barcode,
		}
	}
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		SalePrice:      p.SalePrice,
		EffectivePrice: p.EffectivePrice(),
		Category:       p.CategoryName(),
		Animal:         p.AnimalName(),
		IsService:      p.IsService,
		IsFeatured:     p.IsFeatured,
		ImageURL:       p.ImageURL,
		Gallery:        gallery,
		Stock:          p.Stock,
		Barcode:        p.Barcode,
		Variants:       variants,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses
}
