package inventory

import "github.com/aquapet/backend/internal/domain/catalog"

// ScanRequest is the body of a POS scan
type ScanRequest struct {
	Barcode string `json:"barcode" binding:"max=64"`
}

// ScanResponse reports the record whose stock was taken
type ScanResponse struct {
	Message string           `json:"message"`
	Item    any              `json:"item"`
	Type    catalog.ItemKind `json:"type"`
}

// LookupResponse reports the record matching a barcode without touching stock
type LookupResponse struct {
	Item any              `json:"item"`
	Type catalog.ItemKind `json:"type"`
}
