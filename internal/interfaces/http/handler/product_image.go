package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	catalogapp "github.com/aquapet/backend/internal/application/catalog"
	"github.com/aquapet/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ImageFormField is the multipart field carrying the picture
const ImageFormField = "image"

// ImageUploader attaches uploaded pictures to products
type ImageUploader interface {
	UploadImage(ctx context.Context, productID uuid.UUID, data []byte) (*catalogapp.ProductResponse, error)
}

// ProductImageHandler serves admin image uploads
type ProductImageHandler struct {
	BaseHandler
	images  ImageUploader
	maxSize int64
}

// NewProductImageHandler creates a new ProductImageHandler. Files larger than
// maxSize are rejected before they reach the uploader.
func NewProductImageHandler(images ImageUploader, maxSize int64) *ProductImageHandler {
	if maxSize <= 0 {
		maxSize = catalogapp.DefaultMaxImageSize
	}
	return &ProductImageHandler{images: images, maxSize: maxSize}
}

// Upload handles POST /admin/products/:id/images (multipart, field "image")
func (h *ProductImageHandler) Upload(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile(ImageFormField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size")
			return
		}
		h.BadRequest(c, "An image file is required in the \""+ImageFormField+"\" field")
		return
	}
	if header.Size > h.maxSize {
		h.HandleError(c, catalogapp.ErrImageTooLarge.WithDetails(map[string]any{"max_bytes": h.maxSize}))
		return
	}

	file, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxSize+1))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	product, err := h.images.UploadImage(c.Request.Context(), id, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}
