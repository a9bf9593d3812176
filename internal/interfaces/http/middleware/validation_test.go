package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aquapet/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleValidationError(t *testing.T) {
	type scanBody struct {
		Barcode string `json:"barcode" binding:"required,max=8"`
		Qty     int    `json:"qty" binding:"omitempty,gte=1"`
		Note    string `json:"note" binding:"omitempty,notblank"`
	}
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/scan", func(c *gin.Context) {
		var req scanBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		body   string
		fields map[string]string
	}{
		{
			name:   "missing barcode",
			body:   `{}`,
			fields: map[string]string{"barcode": "This field is required"},
		},
		{
			name: "too long and bad qty",
			body: `{"barcode":"123456789","qty":-1}`,
			fields: map[string]string{
				"barcode": "Must be at most 8 characters",
				"qty":     "Must be at least 1",
			},
		},
		{
			name:   "whitespace note",
			body:   `{"barcode":"123","note":"   "}`,
			fields: map[string]string{"note": "This field is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(RequestIDHeader, "req-42")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusBadRequest, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			assert.Equal(t, "req-42", resp.Error.RequestID)

			got := map[string]string{}
			for _, f := range resp.Error.Fields {
				got[f.Field] = f.Message
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "")
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Empty(t, resp.Error.Fields)
}
