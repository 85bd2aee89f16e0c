package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"ASC uppercase returns ASC", "ASC", "ASC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"desc lowercase returns DESC", "desc", "DESC"},
		{"invalid value returns DESC", "INVALID", "DESC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE users;--", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		allowed  map[string]bool
		expected string
	}{
		{"empty string returns default", "", ProductSortFields, "created_at"},
		{"whitelisted product field", "price", ProductSortFields, "price"},
		{"field from another table is rejected", "number", ProductSortFields, "created_at"},
		{"case sensitive", "PRICE", ProductSortFields, "created_at"},
		{"whitespace around valid field", "  total  ", OrderSortFields, "total"},
		{"sql injection attempt returns default", "id; DROP TABLE users;--", OrderSortFields, "created_at"},
		{"quotes injection returns default", "rating'--", ReviewSortFields, "created_at"},
		{"scheduled posts sort", "scheduled_at", PostSortFields, "scheduled_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, tt.allowed, "created_at"))
		})
	}
}

func TestSortFieldMaps_OnlyPlainColumns(t *testing.T) {
	for name, fields := range map[string]map[string]bool{
		"user":     UserSortFields,
		"category": CategorySortFields,
		"brand":    BrandSortFields,
		"product":  ProductSortFields,
		"order":    OrderSortFields,
		"discount": DiscountSortFields,
		"review":   ReviewSortFields,
		"post":     PostSortFields,
	} {
		for field := range fields {
			assert.Regexp(t, `^[a-z_]+$`, field, "%s sort field %q", name, field)
		}
	}
}
