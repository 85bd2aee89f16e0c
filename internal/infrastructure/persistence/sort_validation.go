package persistence

import "strings"

// ValidateSortOrder normalizes the direction to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, otherwise
// defaultField. Column names are interpolated into ORDER BY, so only
// whitelisted names may pass.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

var (
	UserSortFields = map[string]bool{
		"created_at": true, "updated_at": true, "username": true, "email": true,
		"status": true, "last_login_at": true,
	}
	CategorySortFields = map[string]bool{
		"created_at": true, "name": true, "slug": true, "level": true, "sort_order": true, "path": true,
	}
	BrandSortFields = map[string]bool{
		"created_at": true, "name": true, "slug": true,
	}
	ProductSortFields = map[string]bool{
		"created_at": true, "updated_at": true, "name": true, "sku": true,
		"price": true, "stock": true, "status": true,
	}
	OrderSortFields = map[string]bool{
		"created_at": true, "updated_at": true, "number": true, "total": true, "status": true,
	}
	DiscountSortFields = map[string]bool{
		"created_at": true, "code": true, "ends_at": true, "used_count": true,
	}
	ReviewSortFields = map[string]bool{
		"created_at": true, "rating": true, "status": true,
	}
	PostSortFields = map[string]bool{
		"created_at": true, "scheduled_at": true, "status": true,
	}
)
