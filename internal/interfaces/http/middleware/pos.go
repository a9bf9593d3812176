package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/aquapet/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// POSKeyHeader carries the shared key of the shop's barcode terminals
const POSKeyHeader = "X-POS-Key"

// POSKey guards the POS endpoints with a shared key. An empty key leaves the
// endpoints open, which is how terminals on the shop LAN run by default.
func POSKey(key string) gin.HandlerFunc {
	if key == "" {
		return func(c *gin.Context) { c.Next() }
	}
	want := []byte(key)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(POSKeyHeader))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Invalid POS key", GetRequestID(c)))
			return
		}
		c.Next()
	}
}
