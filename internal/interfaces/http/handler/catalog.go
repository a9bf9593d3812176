package handler

import (
	"context"
	"strconv"

	catalogapp "github.com/aquapet/backend/internal/application/catalog"
	"github.com/aquapet/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CatalogService is the read side of the product catalog
type CatalogService interface {
	List(ctx context.Context, filter catalogapp.ProductListFilter) ([]catalogapp.ProductResponse, int64, error)
	Featured(ctx context.Context, limit int) ([]catalogapp.ProductResponse, error)
	Search(ctx context.Context, query string, limit int) ([]catalogapp.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error)
	Categories(ctx context.Context) ([]string, error)
	Animals(ctx context.Context) ([]string, error)
}

// CatalogHandler serves the public storefront catalog
type CatalogHandler struct {
	BaseHandler
	catalog CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	products, total, err := h.catalog.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = catalogapp.DefaultPageSize
	}
	h.SuccessWithMeta(c, products, total, page, min(pageSize, catalogapp.MaxPageSize))
}

// Featured handles GET /products/featured
func (h *CatalogHandler) Featured(c *gin.Context) {
	products, err := h.catalog.Featured(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// Search handles GET /products/search?q=
func (h *CatalogHandler) Search(c *gin.Context) {
	products, err := h.catalog.Search(c.Request.Context(), c.Query("q"), queryInt(c, "limit"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// GetProduct handles GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Categories handles GET /categories
func (h *CatalogHandler) Categories(c *gin.Context) {
	names, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, names)
}

// Animals handles GET /animals
func (h *CatalogHandler) Animals(c *gin.Context) {
	names, err := h.catalog.Animals(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, names)
}

// queryInt parses an optional integer query parameter; junk reads as 0 and
// lets the service apply its default.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
