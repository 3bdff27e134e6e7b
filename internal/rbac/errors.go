package rbac

import "errors"

var (
	// ErrPrincipalNotFound indicates that the principal id has no backing record.
	ErrPrincipalNotFound = errors.New("rbac: principal not found")
	// ErrUnknownRole is returned when parsing a role outside the catalog.
	ErrUnknownRole = errors.New("rbac: unknown role")
	// ErrUnknownPermission is returned when parsing a permission outside the catalog.
	ErrUnknownPermission = errors.New("rbac: unknown permission")
)

// Stable error codes surfaced to clients.
const (
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeAccountInactive      = "ACCOUNT_INACTIVE"
	CodeForbidden            = "FORBIDDEN"
	CodeRoleCheckError       = "ROLE_CHECK_ERROR"
	CodePermissionCheckError = "PERMISSION_CHECK_ERROR"
)
