package rbac

import (
	"context"
	"errors"
	"net/http"
)

// State is a step of the authorization state machine.
type State string

const (
	StateUnchecked             State = "unchecked"
	StatePrincipalLoaded       State = "principal_loaded"
	StateAllowed               State = "allowed"
	StateDeniedUnauthenticated State = "denied_unauthenticated"
	StateDeniedInactive        State = "denied_inactive"
	StateDeniedInsufficient    State = "denied_insufficient"
	StateDeniedError           State = "denied_error"
)

// Decision is the terminal outcome of Guard.Check.
type Decision struct {
	State              State
	Requirement        Requirement
	Principal          *Principal
	Resolution         Resolution
	MissingRoles       []Role
	MissingPermissions []Permission
	Details            map[string]any
	Err                error

	canceled bool
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.State == StateAllowed
}

// Canceled reports whether the request context ended during the check.
// Storage errors that merely wrap a context error do not count.
func (d Decision) Canceled() bool {
	return d.canceled
}

// Status maps the decision to an HTTP status code.
func (d Decision) Status() int {
	switch d.State {
	case StateAllowed:
		return http.StatusOK
	case StateDeniedUnauthenticated:
		return http.StatusUnauthorized
	case StateDeniedInactive, StateDeniedInsufficient:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Code maps the decision to a stable client error code.
func (d Decision) Code() string {
	switch d.State {
	case StateAllowed:
		return ""
	case StateDeniedUnauthenticated:
		return CodeUnauthorized
	case StateDeniedInactive:
		return CodeAccountInactive
	case StateDeniedInsufficient:
		return CodeForbidden
	}
	if d.Requirement != nil && d.Requirement.Kind() == KindRole {
		return CodeRoleCheckError
	}
	return CodePermissionCheckError
}

// Identity returns the public view of the authorised principal.
func (d Decision) Identity() Identity {
	if d.Principal == nil {
		return Identity{}
	}
	return Identity{
		ID:               d.Principal.ID,
		Email:            d.Principal.Email,
		Role:             d.Principal.Role,
		Permissions:      d.Resolution.Permissions.Slice(),
		PermissionSource: d.Resolution.Source,
		IsActive:         d.Principal.IsActive,
		IsVerified:       d.Principal.IsVerified,
	}
}

// Guard decides whether a principal satisfies a requirement. It re-reads
// the principal on every call and keeps no state between calls.
type Guard struct {
	principals PrincipalLoader
	resolver   *Resolver
}

// NewGuard builds a Guard.
func NewGuard(principals PrincipalLoader, resolver *Resolver) *Guard {
	return &Guard{principals: principals, resolver: resolver}
}

// Check runs the state machine for one request.
func (g *Guard) Check(ctx context.Context, principalID string, req Requirement) Decision {
	d := Decision{State: StateUnchecked, Requirement: req}
	if principalID == "" {
		d.State = StateDeniedUnauthenticated
		return d
	}
	if g == nil || g.principals == nil {
		d.State = StateDeniedError
		d.Err = errors.New("rbac: guard not configured")
		return d
	}

	principal, err := g.principals.LoadPrincipal(ctx, principalID)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			d.State = StateDeniedError
			d.Err = ctx.Err()
			d.canceled = true
		case errors.Is(err, ErrPrincipalNotFound):
			d.State = StateDeniedUnauthenticated
			d.Err = err
		default:
			d.State = StateDeniedError
			d.Err = err
		}
		return d
	}
	d.State = StatePrincipalLoaded
	d.Principal = &principal

	if !principal.IsActive {
		d.State = StateDeniedInactive
		return d
	}

	resolver := g.resolver
	if resolver == nil {
		resolver = NewResolver(nil, nil, nil)
	}
	d.Resolution = resolver.Resolve(ctx, principal)
	if err := ctx.Err(); err != nil {
		d.State = StateDeniedError
		d.Err = err
		d.canceled = true
		return d
	}

	outcome := req.Evaluate(principal, d.Resolution.Permissions)
	if !outcome.OK {
		d.State = StateDeniedInsufficient
		d.MissingRoles = outcome.MissingRoles
		d.MissingPermissions = outcome.MissingPermissions
		d.Details = outcome.Details
		return d
	}
	d.State = StateAllowed
	return d
}
