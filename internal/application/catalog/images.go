package catalog

import (
	"bytes"
	"context"
	"net/http"
	"path"

	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageStorage is the object store that holds product pictures
type ImageStorage interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL returns the public address of key
	URL(key string) string
}

// Image upload errors
var (
	ErrStorageUnavailable   = shared.NewDomainError("STORAGE_UNAVAILABLE", "Image storage is not configured")
	ErrUnsupportedMediaType = shared.NewDomainError("UNSUPPORTED_MEDIA_TYPE", "Only JPEG, PNG, WebP and GIF images are accepted")
	ErrImageTooLarge        = shared.NewDomainError("IMAGE_TOO_LARGE", "Image exceeds the maximum allowed size")
)

// DefaultMaxImageSize is used when no limit is configured
const DefaultMaxImageSize int64 = 5 << 20

// ThumbnailWidth is the width of generated listing thumbnails
const ThumbnailWidth = 400

// imageExtensions maps the accepted sniffed content types to file extensions
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ServiceOption configures optional catalog Service features
type ServiceOption func(*Service)

// WithImageStorage enables product image uploads. maxSize <= 0 means
// DefaultMaxImageSize.
func WithImageStorage(store ImageStorage, maxSize int64) ServiceOption {
	return func(s *Service) {
		s.images = store
		s.maxImageSize = maxSize
		if s.maxImageSize <= 0 {
			s.maxImageSize = DefaultMaxImageSize
		}
	}
}

// UploadImage stores a picture for a product and attaches its public URL.
// The content type is sniffed from the bytes; the client-declared one is
// ignored.
func (s *Service) UploadImage(ctx context.Context, productID uuid.UUID, data []byte) (*ProductResponse, error) {
	if s.images == nil {
		return nil, ErrStorageUnavailable
	}
	if int64(len(data)) > s.maxImageSize {
		return nil, ErrImageTooLarge.WithDetails(map[string]any{"max_bytes": s.maxImageSize})
	}
	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, ErrUnsupportedMediaType.WithDetails(map[string]any{"content_type": contentType})
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	key := path.Join("products", productID.String(), uuid.NewString()+ext)
	url := s.images.URL(key)
	if err := product.AddImage(url); err != nil {
		return nil, err
	}

	if err := s.images.Put(ctx, key, data, contentType); err != nil {
		return nil, err
	}
	if err := s.products.UpdateDetails(ctx, product); err != nil {
		if delErr := s.images.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn("Failed to remove orphaned image", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	if contentType != "image/webp" {
		s.storeThumbnail(ctx, key, data)
	}

	s.logger.Info("Product image uploaded",
		zap.String("product_id", productID.String()),
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)))

	resp := ToProductResponse(product)
	return &resp, nil
}

// ThumbnailKey is where the thumbnail of the image stored at key lives.
// Thumbnails are always JPEG.
func ThumbnailKey(key string) string {
	base := path.Base(key)
	base = base[:len(base)-len(path.Ext(base))] + ".jpg"
	return path.Join(path.Dir(key), "thumbnails", base)
}

// storeThumbnail uploads a ThumbnailWidth-wide JPEG next to the original.
// Failures only cost the thumbnail; the storefront falls back to the original.
func (s *Service) storeThumbnail(ctx context.Context, key string, data []byte) {
	thumb, err := makeThumbnail(data)
	if err != nil {
		s.logger.Warn("Failed to build thumbnail", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.images.Put(ctx, ThumbnailKey(key), thumb, "image/jpeg"); err != nil {
		s.logger.Warn("Failed to upload thumbnail", zap.String("key", key), zap.Error(err))
	}
}

func makeThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > ThumbnailWidth {
		img = imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
