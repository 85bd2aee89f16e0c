package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
)

// RegisterInput contains the input for customer sign-up
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// LoginInput contains the input for user login. Login accepts either the
// username or the email address.
type LoginInput struct {
	Login    string
	Password string
	IP       string
}

// TokenResult is an issued access/refresh token pair
type TokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	TokenResult
	User UserDTO `json:"user"`
}

// LogoutInput identifies the access token being logged out
type LogoutInput struct {
	UserID   uuid.UUID
	TokenJTI string
	TokenTTL time.Duration
}

// UpdateProfileInput contains the editable profile fields
type UpdateProfileInput struct {
	UserID    uuid.UUID
	FirstName string
	LastName  string
	Phone     string
	AvatarURL string
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// ResetPasswordInput consumes a reset token
type ResetPasswordInput struct {
	Token       string
	NewPassword string
}

// CurrentUserResult contains the current user's information
type CurrentUserResult struct {
	User        UserDTO  `json:"user"`
	Permissions []string `json:"permissions"`
}

// UserDTO is the public view of a user. It never carries the password hash.
type UserDTO struct {
	ID          uuid.UUID   `json:"id"`
	Email       string      `json:"email"`
	Username    string      `json:"username"`
	FirstName   string      `json:"first_name,omitempty"`
	LastName    string      `json:"last_name,omitempty"`
	FullName    string      `json:"full_name"`
	Phone       string      `json:"phone,omitempty"`
	AvatarURL   string      `json:"avatar_url,omitempty"`
	Status      string      `json:"status"`
	IsAdmin     bool        `json:"is_admin"`
	RoleIDs     []uuid.UUID `json:"role_ids"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ToUserDTO converts a domain user
func ToUserDTO(u *identity.User) UserDTO {
	roleIDs := u.RoleIDs
	if roleIDs == nil {
		roleIDs = []uuid.UUID{}
	}
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		Phone:       u.Phone,
		AvatarURL:   u.AvatarURL,
		Status:      string(u.Status),
		IsAdmin:     u.IsAdmin,
		RoleIDs:     roleIDs,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// CreateUserInput contains input for creating a user from the admin panel
type CreateUserInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	IsAdmin   bool
	RoleIDs   []uuid.UUID
}

// UpdateUserInput contains input for updating a user. Nil fields are left
// unchanged.
type UpdateUserInput struct {
	ID        uuid.UUID
	Email     *string
	FirstName *string
	LastName  *string
	Phone     *string
	IsAdmin   *bool
}

// UserListResult is a page of users
type UserListResult struct {
	Users      []UserDTO `json:"users"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// RoleDTO is the public view of a role
type RoleDTO struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsSystemRole bool      `json:"is_system_role"`
	Permissions  []string  `json:"permissions"`
	UserCount    int64     `json:"user_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateRoleInput contains input for creating a role
type CreateRoleInput struct {
	Code        string
	Name        string
	Description string
	Permissions []string
}

// UpdateRoleInput contains input for updating a role
type UpdateRoleInput struct {
	ID          uuid.UUID
	Name        string
	Description string
}

func toRoleDTO(role *identity.Role, userCount int64) RoleDTO {
	perms := role.Permissions
	if perms == nil {
		perms = []string{}
	}
	return RoleDTO{
		ID:           role.ID,
		Code:         role.Code,
		Name:         role.Name,
		Description:  role.Description,
		IsSystemRole: role.IsSystemRole,
		Permissions:  perms,
		UserCount:    userCount,
		CreatedAt:    role.CreatedAt,
		UpdatedAt:    role.UpdatedAt,
	}
}
