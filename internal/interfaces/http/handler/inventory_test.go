package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/aquapet/backend/internal/application/inventory"
	"github.com/aquapet/backend/internal/domain/catalog"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupInventoryRouter(pos *MockPOSService, rec *MockRecorder) *gin.Engine {
	var recorder ScanRecorder
	if rec != nil {
		recorder = rec
	}
	h := NewInventoryHandler(pos, recorder)
	router := gin.New()
	router.POST("/inventory/scan", h.Scan)
	router.GET("/inventory/lookup/:barcode", h.Lookup)
	return router
}

func TestInventoryHandler_Scan(t *testing.T) {
	pos := new(MockPOSService)
	rec := new(MockRecorder)
	pos.On("Scan", mock.Anything, "8001234567890").Return(&inventory.ScanResponse{
		Message: inventory.ScanMessage,
		Item:    map[string]any{"name": "Mangime", "stock": 4},
		Type:    catalog.ItemKindProduct,
	}, nil)
	rec.On("RecordScan", mock.Anything, scanOutcomeUpdated).Return()

	w := doJSON(t, setupInventoryRouter(pos, rec), http.MethodPost, "/inventory/scan", map[string]string{"barcode": "8001234567890"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"message":"Stock updated","item":{"name":"Mangime","stock":4},"type":"product"}}`, w.Body.String())
	rec.AssertExpectations(t)
}

func TestInventoryHandler_ScanErrors(t *testing.T) {
	outOfStock := shared.ErrOutOfStock.WithDetails(map[string]any{"type": "variant"})

	tests := []struct {
		name    string
		body    any
		barcode string
		err     error
		status  int
		code    string
		outcome string
	}{
		{"empty body", nil, "", inventory.ErrBarcodeRequired, http.StatusBadRequest, "BARCODE_REQUIRED", scanOutcomeInvalid},
		{"unknown barcode", map[string]string{"barcode": "nope"}, "nope", inventory.ErrProductNotFound, http.StatusNotFound, "NOT_FOUND", scanOutcomeNotFound},
		{"out of stock", map[string]string{"barcode": "b1"}, "b1", outOfStock, http.StatusBadRequest, "OUT_OF_STOCK", scanOutcomeOutOfStock},
		{"storage failure", map[string]string{"barcode": "b1"}, "b1", errors.New("db down"), http.StatusInternalServerError, "ERR_INTERNAL", scanOutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := new(MockPOSService)
			rec := new(MockRecorder)
			pos.On("Scan", mock.Anything, tt.barcode).Return(nil, tt.err)
			rec.On("RecordScan", mock.Anything, tt.outcome).Return()

			w := doJSON(t, setupInventoryRouter(pos, rec), http.MethodPost, "/inventory/scan", tt.body)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.Equal(t, tt.code, resp.Error.Code)
			rec.AssertExpectations(t)
		})
	}
}

func TestInventoryHandler_ScanOutOfStockDetails(t *testing.T) {
	pos := new(MockPOSService)
	pos.On("Scan", mock.Anything, "b1").Return(nil, shared.ErrOutOfStock.WithDetails(map[string]any{
		"item": map[string]any{"name": "Acquario 60L"},
		"type": "product",
	}))

	w := doJSON(t, setupInventoryRouter(pos, nil), http.MethodPost, "/inventory/scan", map[string]string{"barcode": "b1"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "Out of stock", resp.Error.Message)
	assert.Equal(t, "product", resp.Error.Details["type"])
}

func TestInventoryHandler_Lookup(t *testing.T) {
	pos := new(MockPOSService)
	pos.On("Lookup", mock.Anything, "v-1").Return(&inventory.LookupResponse{
		Item: map[string]any{"name": "Taglia M"},
		Type: catalog.ItemKindVariant,
	}, nil)
	pos.On("Lookup", mock.Anything, "missing").Return(nil, inventory.ErrProductNotFound)
	router := setupInventoryRouter(pos, nil)

	w := doJSON(t, router, http.MethodGet, "/inventory/lookup/v-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"variant"`)

	w = doJSON(t, router, http.MethodGet, "/inventory/lookup/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", decodeResponse(t, w).Error.Message)
}
