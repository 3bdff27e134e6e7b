package rbac

import "strings"

// CheckKind separates role checks from permission checks for error codes.
type CheckKind string

const (
	KindRole       CheckKind = "role"
	KindPermission CheckKind = "permission"
)

// Outcome is the result of evaluating a Requirement.
type Outcome struct {
	OK                 bool
	MissingRoles       []Role
	MissingPermissions []Permission
	Details            map[string]any
}

// Requirement is the access rule a guard variant enforces.
type Requirement interface {
	Name() string
	Kind() CheckKind
	Evaluate(p Principal, effective PermissionSet) Outcome
	String() string
}

// RoleRequirement requires a minimum role level.
type RoleRequirement struct {
	Role Role
}

func (RoleRequirement) Name() string    { return "require_role" }
func (RoleRequirement) Kind() CheckKind { return KindRole }
func (r RoleRequirement) String() string {
	return "role:" + string(r.Role)
}

func (r RoleRequirement) Evaluate(p Principal, _ PermissionSet) Outcome {
	if HasRole(p.Role, r.Role) {
		return Outcome{OK: true}
	}
	return Outcome{
		MissingRoles: []Role{r.Role},
		Details: map[string]any{
			"userRole":     p.Role,
			"requiredRole": r.Role,
		},
	}
}

// AnyRoleRequirement is satisfied when any listed role is met.
type AnyRoleRequirement struct {
	Roles []Role
}

func (AnyRoleRequirement) Name() string    { return "require_any_role" }
func (AnyRoleRequirement) Kind() CheckKind { return KindRole }
func (r AnyRoleRequirement) String() string {
	names := make([]string, len(r.Roles))
	for i, role := range r.Roles {
		names[i] = string(role)
	}
	return "any_role:" + strings.Join(names, ",")
}

func (r AnyRoleRequirement) Evaluate(p Principal, _ PermissionSet) Outcome {
	if HasAnyRole(p.Role, r.Roles...) {
		return Outcome{OK: true}
	}
	return Outcome{
		MissingRoles: append([]Role(nil), r.Roles...),
		Details: map[string]any{
			"userRole":      p.Role,
			"requiredRoles": r.Roles,
		},
	}
}

// PermissionRequirement requires one permission.
type PermissionRequirement struct {
	Permission Permission
}

func (PermissionRequirement) Name() string    { return "require_permission" }
func (PermissionRequirement) Kind() CheckKind { return KindPermission }
func (r PermissionRequirement) String() string {
	return "permission:" + string(r.Permission)
}

func (r PermissionRequirement) Evaluate(_ Principal, effective PermissionSet) Outcome {
	if HasPermission(effective, r.Permission) {
		return Outcome{OK: true}
	}
	missing := []Permission{r.Permission}
	return Outcome{
		MissingPermissions: missing,
		Details: map[string]any{
			"requiredPermission": r.Permission,
			"missing":            missing,
		},
	}
}

// AllPermissionsRequirement requires every listed permission.
type AllPermissionsRequirement struct {
	Permissions []Permission
}

func (AllPermissionsRequirement) Name() string    { return "require_all_permissions" }
func (AllPermissionsRequirement) Kind() CheckKind { return KindPermission }
func (r AllPermissionsRequirement) String() string {
	return "all_permissions:" + joinPermissions(r.Permissions)
}

func (r AllPermissionsRequirement) Evaluate(_ Principal, effective PermissionSet) Outcome {
	ok, missing := HasAllPermissions(effective, r.Permissions...)
	if ok {
		return Outcome{OK: true}
	}
	return Outcome{
		MissingPermissions: missing,
		Details: map[string]any{
			"requiredPermissions": r.Permissions,
			"missing":             missing,
		},
	}
}

// AnyPermissionRequirement is satisfied by any listed permission.
type AnyPermissionRequirement struct {
	Permissions []Permission
}

func (AnyPermissionRequirement) Name() string    { return "require_any_permission" }
func (AnyPermissionRequirement) Kind() CheckKind { return KindPermission }
func (r AnyPermissionRequirement) String() string {
	return "any_permission:" + joinPermissions(r.Permissions)
}

func (r AnyPermissionRequirement) Evaluate(_ Principal, effective PermissionSet) Outcome {
	if HasAnyPermission(effective, r.Permissions...) {
		return Outcome{OK: true}
	}
	missing := append([]Permission(nil), r.Permissions...)
	return Outcome{
		MissingPermissions: missing,
		Details: map[string]any{
			"requiredAnyOf": r.Permissions,
			"missing":       missing,
		},
	}
}

func joinPermissions(perms []Permission) string {
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = string(p)
	}
	return strings.Join(names, ",")
}
