package middleware

import (
	"slices"
	"time"

	"github.com/aquapet/backend/internal/infrastructure/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS builds the cross-origin policy for the storefront. An empty origin
// list rejects every cross-origin request; "*" opens the API to any origin
// but then drops credentials, which browsers refuse to combine with a wildcard.
func CORS(cfg config.HTTPConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  cfg.CORSAllowMethods,
		AllowHeaders:  cfg.CORSAllowHeaders,
		ExposeHeaders: []string{RequestIDHeader, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(c.AllowHeaders) == 0 {
		c.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", RequestIDHeader, POSKeyHeader}
	}

	switch {
	case slices.Contains(cfg.CORSAllowOrigins, "*"):
		c.AllowAllOrigins = true
	case len(cfg.CORSAllowOrigins) > 0:
		c.AllowOrigins = cfg.CORSAllowOrigins
		c.AllowCredentials = true
	default:
		c.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(c)
}
