package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	Logger *zap.Logger
}

// RequireAdmin only lets admin panel users through
func RequireAdmin(cfg PermissionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil || !claims.IsAdmin {
			denied(c, cfg, nil, "Admin access required")
			return
		}
		c.Next()
	}
}

// RequirePermission requires a single permission
func RequirePermission(cfg PermissionConfig, permission string) gin.HandlerFunc {
	return RequireAnyPermission(cfg, permission)
}

// RequireAnyPermission requires at least one of the permissions
func RequireAnyPermission(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			denied(c, cfg, permissions, "No authentication claims found")
			return
		}
		if !claims.HasAnyPermission(permissions...) {
			denied(c, cfg, permissions, "User lacks required permission")
			return
		}
		c.Next()
	}
}

// RequireResource derives the action from the HTTP method:
// GET read, POST create, PUT/PATCH update, DELETE delete
func RequireResource(cfg PermissionConfig, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		permission := resource + ":" + methodToAction(c.Request.Method)
		claims := GetJWTClaims(c)
		if claims == nil || !claims.HasPermission(permission) {
			denied(c, cfg, []string{permission}, "User lacks required permission for resource")
			return
		}
		c.Next()
	}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

func denied(c *gin.Context, cfg PermissionConfig, required []string, reason string) {
	if cfg.Logger != nil {
		fields := []zap.Field{
			zap.String("reason", reason),
			zap.Strings("required_permissions", required),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		}
		if claims := GetJWTClaims(c); claims != nil {
			fields = append(fields, zap.String("user_id", claims.UserID))
		}
		cfg.Logger.Warn("Permission denied", fields...)
	}
	abortWithError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
}
