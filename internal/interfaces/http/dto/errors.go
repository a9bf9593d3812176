package dto

import (
	"net/http"
	"strings"
)

// Transport-level error codes. Domain errors keep their own codes
// (NOT_FOUND, INSUFFICIENT_STOCK, ...) in responses.
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"
)

// Resource and limit error codes
const (
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
	ErrCodeUnavailable     = "ERR_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,

	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,

	// domain codes
	"NOT_FOUND":              http.StatusNotFound,
	"ALREADY_EXISTS":         http.StatusConflict,
	"UNAUTHORIZED":           http.StatusUnauthorized,
	"FORBIDDEN":              http.StatusForbidden,
	"INVALID_INPUT":          http.StatusBadRequest,
	"INVALID_STATE":          http.StatusUnprocessableEntity,
	"EMPTY_CART":             http.StatusBadRequest,
	"ADDRESS_REQUIRED":       http.StatusBadRequest,
	"BARCODE_REQUIRED":       http.StatusBadRequest,
	"OUT_OF_STOCK":           http.StatusBadRequest,
	"INSUFFICIENT_STOCK":     http.StatusUnprocessableEntity,
	"TOTAL_MISMATCH":         http.StatusUnprocessableEntity,
	"INVALID_SIGNATURE":      http.StatusUnauthorized,
	"INVALID_PAYLOAD":        http.StatusBadRequest,
	"PAYMENT_PROVIDER_ERROR": http.StatusBadGateway,
	"INVALID_CREDENTIALS":    http.StatusUnauthorized,
	"INVALID_TOKEN":          http.StatusUnauthorized,
	"ACCOUNT_BLOCKED":        http.StatusForbidden,
	"PASSWORD_HASH_ERROR":    http.StatusInternalServerError,
	"TOO_MANY_IMAGES":        http.StatusUnprocessableEntity,
	"UNSUPPORTED_MEDIA_TYPE": http.StatusUnsupportedMediaType,
	"IMAGE_TOO_LARGE":        http.StatusRequestEntityTooLarge,
	"STORAGE_UNAVAILABLE":    http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code. Unlisted
// INVALID_* codes are input errors (400); anything else unlisted is 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
