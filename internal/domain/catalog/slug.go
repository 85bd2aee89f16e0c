package catalog

import (
	"strings"

	"github.com/gosimple/slug"
	"github.com/storefront/backend/internal/domain/shared"
)

// MakeSlug derives a URL slug from a display name
func MakeSlug(name string) string {
	return slug.Make(strings.TrimSpace(name))
}

// normalizeSlug returns the explicit slug when given, otherwise one derived from name
func normalizeSlug(explicit, name string) (string, error) {
	s := strings.TrimSpace(explicit)
	if s == "" {
		s = MakeSlug(name)
	} else {
		s = slug.Make(s)
	}
	if s == "" {
		return "", shared.NewDomainError("INVALID_SLUG", "Slug cannot be empty")
	}
	if len(s) > 200 {
		return "", shared.NewDomainError("INVALID_SLUG", "Slug cannot exceed 200 characters")
	}
	return s, nil
}
