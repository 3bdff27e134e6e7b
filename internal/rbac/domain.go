package rbac

import (
	"context"
	"time"
)

// PermissionSource tells the resolver where a principal's permissions come from.
type PermissionSource string

const (
	SourceDefault   PermissionSource = "default"
	SourceWhitelist PermissionSource = "whitelist"
)

// Principal is the live record of an authenticated actor.
type Principal struct {
	ID                string
	Email             string
	Role              Role
	IsActive          bool
	IsVerified        bool
	CustomPermissions PermissionSet
	PermissionSource  PermissionSource
	WhitelistEntryID  string
}

// WhitelistEntry is a time-boxed permission override.
type WhitelistEntry struct {
	ID          string
	PrincipalID string
	Permissions PermissionSet
	IsActive    bool
	ExpiresAt   *time.Time
}

// Effective reports whether the entry may be used at now.
func (e WhitelistEntry) Effective(now time.Time) bool {
	if !e.IsActive {
		return false
	}
	return e.ExpiresAt == nil || e.ExpiresAt.After(now)
}

// PrincipalLoader reads the current state of a principal. Implementations
// return ErrPrincipalNotFound when no record exists.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, id string) (Principal, error)
}

// WhitelistLoader reads a whitelist entry. A missing entry is (nil, nil).
type WhitelistLoader interface {
	LoadWhitelistEntry(ctx context.Context, id string) (*WhitelistEntry, error)
}

// Identity is the public view of an authorised principal attached to the
// request context.
type Identity struct {
	ID               string         `json:"id"`
	Email            string         `json:"email,omitempty"`
	Role             Role           `json:"role"`
	Permissions      []Permission   `json:"permissions"`
	PermissionSource ResolvedSource `json:"permission_source"`
	IsActive         bool           `json:"is_active"`
	IsVerified       bool           `json:"is_verified"`
}
