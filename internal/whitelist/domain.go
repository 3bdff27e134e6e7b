package whitelist

import (
	"fmt"
	"time"

	"github.com/classhub/classhub/internal/platform/httpx"
	"github.com/classhub/classhub/internal/rbac"
)

// ErrNotFound indicates that the entry does not exist or is already revoked.
var ErrNotFound = fmt.Errorf("whitelist: %w", httpx.ErrNotFound)

// ErrPrincipalNotFound indicates that the grant targets an unknown principal.
var ErrPrincipalNotFound = fmt.Errorf("whitelist: principal %w", httpx.ErrNotFound)

// Entry is a stored whitelist grant.
type Entry struct {
	ID          string     `json:"id"`
	PrincipalID string     `json:"principal_id"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	GrantedBy   string     `json:"granted_by,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

// Authorization converts the entry into the form consumed by the resolver.
func (e Entry) Authorization() *rbac.WhitelistEntry {
	perms := make([]rbac.Permission, 0, len(e.Permissions))
	for _, p := range e.Permissions {
		perms = append(perms, rbac.Permission(p))
	}
	return &rbac.WhitelistEntry{
		ID:          e.ID,
		PrincipalID: e.PrincipalID,
		Permissions: rbac.NewPermissionSet(perms...),
		IsActive:    e.IsActive,
		ExpiresAt:   e.ExpiresAt,
	}
}

// GrantRequest creates a new entry for a principal. Any active entry the
// principal already holds is superseded.
type GrantRequest struct {
	PrincipalID string     `json:"principal_id" validate:"required,uuid"`
	Permissions []string   `json:"permissions" validate:"required,min=1,dive,required"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Reason      string     `json:"reason" validate:"max=500"`
}
