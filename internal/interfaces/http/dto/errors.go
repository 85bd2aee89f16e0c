package dto

import (
	"net/http"
	"strings"
)

// Error codes produced by the HTTP layer itself. Domain errors carry their
// own codes, which are passed through unchanged.
const (
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeTokenExpired        = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid        = "TOKEN_INVALID"
	ErrCodeTokenRevoked        = "TOKEN_REVOKED"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeRequestTooLarge     = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes whose status cannot be derived from
// their shape
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:   http.StatusUnprocessableEntity,
	ErrCodeInsufficientBalance: http.StatusUnprocessableEntity,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,

	// identity
	"INVALID_CREDENTIALS":       http.StatusUnauthorized,
	"RESET_TOKEN_INVALID":       http.StatusBadRequest,
	"ACCOUNT_LOCKED":            http.StatusForbidden,
	"ACCOUNT_INACTIVE":          http.StatusForbidden,
	"ACCOUNT_DEACTIVATED":       http.StatusForbidden,
	"USER_DEACTIVATED":          http.StatusForbidden,
	"CANNOT_DELETE_SYSTEM_ROLE": http.StatusForbidden,
	"CANNOT_DELETE_SELF":        http.StatusForbidden,
	"CANNOT_DEACTIVATE_SELF":    http.StatusForbidden,
	"ROLE_IN_USE":               http.StatusConflict,
	"PASSWORD_HASH_ERROR":       http.StatusInternalServerError,

	// catalog
	"HAS_CHILDREN":        http.StatusConflict,
	"HAS_PRODUCTS":        http.StatusConflict,
	"DUPLICATE_VARIATION": http.StatusConflict,
	"DUPLICATE_OPTION":    http.StatusConflict,

	// checkout
	"REQUEST_IN_PROGRESS": http.StatusConflict,
	"DISCOUNT_IN_USE":     http.StatusConflict,

	// social
	"OAUTH_FAILED": http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status for an error code. Codes missing
// from ErrorCodeHTTPStatus are classified by their shape: INVALID_* and
// *_REQUIRED are input errors, *_NOT_FOUND is 404, TOKEN_* is 401, and
// every other domain code is a business rule violation (422).
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case code == "":
		return http.StatusInternalServerError
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "TOKEN_"):
		return http.StatusUnauthorized
	case strings.HasPrefix(code, "INVALID_"), strings.HasSuffix(code, "_REQUIRED"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "ALREADY_"):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
