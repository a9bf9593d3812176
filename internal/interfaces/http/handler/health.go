package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/aquapet/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Pinger is anything whose liveness can be probed
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping calls f(ctx)
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler reports service liveness for load balancers
type HealthHandler struct {
	BaseHandler
	db        Pinger
	redis     Pinger // optional
	version   string
	startTime time.Time
	timeout   time.Duration
}

// NewHealthHandler creates a new HealthHandler. redis may be nil.
func NewHealthHandler(db, redis Pinger, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		redis:     redis,
		version:   version,
		startTime: time.Now(),
		timeout:   2 * time.Second,
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version,omitempty"`
	Uptime   string            `json:"uptime"`
	Services map[string]string `json:"services"`
}

// Health pings the database (and Redis when configured). The database is
// required; a Redis failure degrades the status without failing the check
// because every Redis-backed feature has an in-process fallback.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:   "healthy",
		Version:  h.version,
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
		Services: map[string]string{"database": "up"},
	}

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Services["database"] = "down"
		c.JSON(http.StatusServiceUnavailable, dto.Response{
			Success: false,
			Data:    resp,
			Error:   &dto.ErrorInfo{Code: dto.ErrCodeUnavailable, Message: "Database unreachable"},
		})
		return
	}

	if h.redis != nil {
		resp.Services["redis"] = "up"
		if err := h.redis.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Services["redis"] = "down"
		}
	}

	h.Success(c, resp)
}
