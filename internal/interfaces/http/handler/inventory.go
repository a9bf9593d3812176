package handler

import (
	"context"
	"errors"
	"io"

	"github.com/aquapet/backend/internal/application/inventory"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// Scan outcomes reported to metrics
const (
	scanOutcomeUpdated    = "updated"
	scanOutcomeNotFound   = "not_found"
	scanOutcomeOutOfStock = "out_of_stock"
	scanOutcomeInvalid    = "invalid"
	scanOutcomeError      = "error"
)

// POSService is the barcode terminal use case
type POSService interface {
	Scan(ctx context.Context, barcode string) (*inventory.ScanResponse, error)
	Lookup(ctx context.Context, barcode string) (*inventory.LookupResponse, error)
}

// ScanRecorder counts POS scans
type ScanRecorder interface {
	RecordScan(ctx context.Context, outcome string)
}

// InventoryHandler serves the in-store barcode terminals
type InventoryHandler struct {
	BaseHandler
	pos     POSService
	metrics ScanRecorder // optional
}

// NewInventoryHandler creates a new InventoryHandler; metrics may be nil
func NewInventoryHandler(pos POSService, metrics ScanRecorder) *InventoryHandler {
	return &InventoryHandler{pos: pos, metrics: metrics}
}

// Scan handles POST /inventory/scan. An empty body is treated as an empty
// barcode so the terminal gets the same "Barcode is required" answer.
func (h *InventoryHandler) Scan(c *gin.Context) {
	var req inventory.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.bindError(c, err)
		return
	}

	resp, err := h.pos.Scan(c.Request.Context(), req.Barcode)
	h.record(c.Request.Context(), err)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Lookup handles GET /inventory/lookup/:barcode
func (h *InventoryHandler) Lookup(c *gin.Context) {
	resp, err := h.pos.Lookup(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *InventoryHandler) record(ctx context.Context, err error) {
	if h.metrics == nil {
		return
	}
	outcome := scanOutcomeUpdated
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrNotFound):
		outcome = scanOutcomeNotFound
	case errors.Is(err, shared.ErrOutOfStock):
		outcome = scanOutcomeOutOfStock
	case errors.Is(err, inventory.ErrBarcodeRequired):
		outcome = scanOutcomeInvalid
	default:
		outcome = scanOutcomeError
	}
	h.metrics.RecordScan(ctx, outcome)
}
