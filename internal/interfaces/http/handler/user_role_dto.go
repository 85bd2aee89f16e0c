package handler

import "github.com/google/uuid"

// CreateUserRequest represents an admin-created user
type CreateUserRequest struct {
	Email     string      `json:"email" binding:"required,email,max=200"`
	Username  string      `json:"username" binding:"required,min=3,max=50"`
	Password  string      `json:"password" binding:"required,min=8,max=128"`
	FirstName string      `json:"first_name" binding:"max=100"`
	LastName  string      `json:"last_name" binding:"max=100"`
	Phone     string      `json:"phone" binding:"max=30"`
	IsAdmin   bool        `json:"is_admin"`
	RoleIDs   []uuid.UUID `json:"role_ids"`
}

// UpdateUserRequest represents a partial user update
type UpdateUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email,max=200"`
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=30"`
	IsAdmin   *bool   `json:"is_admin"`
}

// AssignRolesRequest replaces a user's roles
type AssignRolesRequest struct {
	RoleIDs []uuid.UUID `json:"role_ids" binding:"required"`
}

// UserListQuery represents user list query parameters
type UserListQuery struct {
	Search    string `form:"search"`
	Status    string `form:"status" binding:"omitempty,oneof=pending active locked deactivated"`
	IsAdmin   *bool  `form:"is_admin"`
	RoleID    string `form:"role_id" binding:"omitempty,uuid"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy    string `form:"order_by" binding:"omitempty,oneof=created_at updated_at username email last_login_at"`
	SortOrder string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CreateRoleRequest represents a new role
type CreateRoleRequest struct {
	Code        string   `json:"code" binding:"required,min=2,max=50"`
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description" binding:"max=500"`
	Permissions []string `json:"permissions"`
}

// UpdateRoleRequest represents a role rename
type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// SetPermissionsRequest replaces a role's permissions
type SetPermissionsRequest struct {
	Permissions []string `json:"permissions" binding:"required"`
}
