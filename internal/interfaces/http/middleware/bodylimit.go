package middleware

import (
	"net/http"

	"github.com/aquapet/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RouteLimit overrides the body limit for one route pattern, as reported by
// gin's FullPath (e.g. "/api/v1/admin/products/:id/images")
type RouteLimit struct {
	Path     string
	MaxBytes int64
}

// BodyLimit rejects requests whose declared length exceeds maxBytes and caps
// streamed bodies at the same size. Zero or less disables the limit.
func BodyLimit(maxBytes int64, overrides ...RouteLimit) gin.HandlerFunc {
	perRoute := make(map[string]int64, len(overrides))
	for _, o := range overrides {
		perRoute[o.Path] = o.MaxBytes
	}
	return func(c *gin.Context) {
		maxBytes := maxBytes
		if limit, ok := perRoute[c.FullPath()]; ok {
			maxBytes = limit
		}
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodePayloadTooLarge,
				"Request body exceeds maximum allowed size",
				GetRequestID(c),
			))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
