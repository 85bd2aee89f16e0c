package identity

import (
	"regexp"
	"sort"
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

var roleCodePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// Role groups permissions that can be assigned to back-office users
type Role struct {
	shared.BaseAggregateRoot
	Code         string
	Name         string
	Description  string
	IsSystemRole bool
	Permissions  []string
}

// NewRole creates a new role with the given code and name
func NewRole(code, name string) (*Role, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.TrimSpace(name)

	if err := validateRoleCode(code); err != nil {
		return nil, err
	}
	if err := validateRoleName(name); err != nil {
		return nil, err
	}

	return &Role{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Permissions:       make([]string, 0),
	}, nil
}

// NewSystemRole creates a role that cannot be deleted
func NewSystemRole(code, name string, permissions []string) (*Role, error) {
	role, err := NewRole(code, name)
	if err != nil {
		return nil, err
	}
	role.IsSystemRole = true
	if err := role.SetPermissions(permissions); err != nil {
		return nil, err
	}
	return role, nil
}

// Update changes the display name and description
func (r *Role) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if err := validateRoleName(name); err != nil {
		return err
	}
	if len(description) > 500 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}
	r.Name = name
	r.Description = strings.TrimSpace(description)
	r.Touch()
	return nil
}

// SetPermissions replaces the permission set. Every code must be in the catalog.
func (r *Role) SetPermissions(codes []string) error {
	seen := make(map[string]bool, len(codes))
	perms := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.ToLower(strings.TrimSpace(code))
		if !IsKnownPermission(code) {
			return shared.NewDomainError("INVALID_PERMISSION", "Unknown permission: "+code)
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		perms = append(perms, code)
	}
	sort.Strings(perms)

	r.Permissions = perms
	r.Touch()
	return nil
}

// HasPermission checks if the role grants a permission
func (r *Role) HasPermission(code string) bool {
	for _, p := range r.Permissions {
		if p == code {
			return true
		}
	}
	return false
}

// CanDelete reports whether the role may be removed
func (r *Role) CanDelete() error {
	if r.IsSystemRole {
		return shared.NewDomainError("CANNOT_DELETE_SYSTEM_ROLE", "System roles cannot be deleted")
	}
	return nil
}

func validateRoleCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_ROLE_CODE", "Role code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_ROLE_CODE", "Role code cannot exceed 50 characters")
	}
	if !roleCodePattern.MatchString(code) {
		return shared.NewDomainError("INVALID_ROLE_CODE", "Role code must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

func validateRoleName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_ROLE_NAME", "Role name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_ROLE_NAME", "Role name cannot exceed 100 characters")
	}
	return nil
}
