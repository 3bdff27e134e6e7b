package users

import (
	"fmt"
	"time"

	"github.com/classhub/classhub/internal/platform/httpx"
	"github.com/classhub/classhub/internal/rbac"
)

// ErrNotFound indicates that the user does not exist.
var ErrNotFound = fmt.Errorf("users: %w", httpx.ErrNotFound)

// User represents a user account for management.
type User struct {
	ID                string                `json:"id"`
	Email             string                `json:"email"`
	Name              string                `json:"name"`
	Role              rbac.Role             `json:"role"`
	IsActive          bool                  `json:"is_active"`
	IsVerified        bool                  `json:"is_verified"`
	CustomPermissions []string              `json:"custom_permissions"`
	PermissionSource  rbac.PermissionSource `json:"permission_source"`
	WhitelistEntryID  string                `json:"whitelist_entry_id,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// Principal converts the stored account into the authorization view.
func (u User) Principal() rbac.Principal {
	perms := make([]rbac.Permission, 0, len(u.CustomPermissions))
	for _, p := range u.CustomPermissions {
		perms = append(perms, rbac.Permission(p))
	}
	source := u.PermissionSource
	if source == "" {
		source = rbac.SourceDefault
	}
	return rbac.Principal{
		ID:                u.ID,
		Email:             u.Email,
		Role:              u.Role,
		IsActive:          u.IsActive,
		IsVerified:        u.IsVerified,
		CustomPermissions: rbac.NewPermissionSet(perms...),
		PermissionSource:  source,
		WhitelistEntryID:  u.WhitelistEntryID,
	}
}

// UpdateUserRequest is an administrative change to an account.
type UpdateUserRequest struct {
	Role              *string   `json:"role" validate:"omitempty,oneof=guest student parent teacher moderator admin developer"`
	IsActive          *bool     `json:"is_active"`
	CustomPermissions *[]string `json:"custom_permissions" validate:"omitempty,dive,required"`
}
