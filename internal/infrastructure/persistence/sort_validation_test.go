package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		in, def, want string
	}{
		{"asc", "DESC", "ASC"},
		{" DESC ", "ASC", "DESC"},
		{"", "ASC", "ASC"},
		{"name; DROP TABLE products", "DESC", "DESC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateSortOrder(tt.in, tt.def), tt.in)
	}
}

func TestValidateSortField(t *testing.T) {
	assert.Equal(t, "price", ValidateSortField("price", ProductSortFields, "name"))
	assert.Equal(t, "name", ValidateSortField("", ProductSortFields, "name"))
	assert.Equal(t, "name", ValidateSortField("barcode", ProductSortFields, "name"))
	assert.Equal(t, "created_at", ValidateSortField("id; --", OrderSortFields, "created_at"))
}
