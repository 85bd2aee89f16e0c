package identity

import "sort"

// Resources guarded by permissions in the admin panel
const (
	ResourceProduct   = "product"
	ResourceCategory  = "category"
	ResourceBrand     = "brand"
	ResourceOrder     = "order"
	ResourceDiscount  = "discount"
	ResourceLoyalty   = "loyalty"
	ResourceReview    = "review"
	ResourceUser      = "user"
	ResourceRole      = "role"
	ResourceDashboard = "dashboard"
	ResourceSocial    = "social"
)

// Standard actions
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// PermissionDef describes one entry of the permission catalog
type PermissionDef struct {
	Code        string `json:"code"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

var crudResources = []string{
	ResourceProduct, ResourceCategory, ResourceBrand, ResourceOrder,
	ResourceDiscount, ResourceLoyalty, ResourceReview, ResourceUser,
	ResourceRole, ResourceSocial,
}

var extraPermissions = []PermissionDef{
	{Code: "order:fulfill", Resource: ResourceOrder, Action: "fulfill", Description: "Mark orders paid, shipped or delivered"},
	{Code: "order:cancel", Resource: ResourceOrder, Action: "cancel", Description: "Cancel or refund orders"},
	{Code: "social:publish", Resource: ResourceSocial, Action: "publish", Description: "Publish social posts immediately"},
	{Code: "dashboard:read", Resource: ResourceDashboard, Action: ActionRead, Description: "View dashboard analytics"},
}

var permissionCatalog = buildCatalog()

func buildCatalog() map[string]PermissionDef {
	catalog := make(map[string]PermissionDef)
	for _, res := range crudResources {
		for _, action := range []string{ActionCreate, ActionRead, ActionUpdate, ActionDelete} {
			code := res + ":" + action
			catalog[code] = PermissionDef{Code: code, Resource: res, Action: action}
		}
	}
	for _, p := range extraPermissions {
		catalog[p.Code] = p
	}
	return catalog
}

// IsKnownPermission reports whether code is part of the catalog
func IsKnownPermission(code string) bool {
	_, ok := permissionCatalog[code]
	return ok
}

// AllPermissions returns the permission catalog sorted by code
func AllPermissions() []PermissionDef {
	out := make([]PermissionDef, 0, len(permissionCatalog))
	for _, p := range permissionCatalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// AllPermissionCodes returns every permission code, sorted
func AllPermissionCodes() []string {
	perms := AllPermissions()
	codes := make([]string, len(perms))
	for i, p := range perms {
		codes[i] = p.Code
	}
	return codes
}
