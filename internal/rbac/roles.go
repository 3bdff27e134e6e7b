package rbac

import (
	"fmt"
	"sort"
	"strings"
)

// Role is a closed set of principal roles ordered by privilege level.
type Role string

const (
	RoleGuest     Role = "guest"
	RoleStudent   Role = "student"
	RoleParent    Role = "parent"
	RoleTeacher   Role = "teacher"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
)

// roleLevels is read-only after package initialisation.
var roleLevels = map[Role]int{
	RoleGuest:     0,
	RoleStudent:   1,
	RoleParent:    1,
	RoleTeacher:   2,
	RoleModerator: 3,
	RoleAdmin:     4,
	RoleDeveloper: 5,
}

// ParseRole normalises raw input into a known Role.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.TrimSpace(strings.ToLower(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
	return role, nil
}

// Valid reports whether the role belongs to the catalog.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Level returns the hierarchy level of the role.
func (r Role) Level() (int, bool) {
	level, ok := roleLevels[r]
	return level, ok
}

func (r Role) String() string {
	return string(r)
}

// HasRole reports whether actual is at least as privileged as required.
// Unknown roles on either side never grant access.
func HasRole(actual, required Role) bool {
	have, ok := actual.Level()
	if !ok {
		return false
	}
	need, ok := required.Level()
	if !ok {
		return false
	}
	return have >= need
}

// HasAnyRole reports whether actual satisfies at least one of required.
func HasAnyRole(actual Role, required ...Role) bool {
	for _, r := range required {
		if HasRole(actual, r) {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether actual satisfies every required role and
// returns the unmet ones.
func HasAllRoles(actual Role, required ...Role) (bool, []Role) {
	var missing []Role
	for _, r := range required {
		if !HasRole(actual, r) {
			missing = append(missing, r)
		}
	}
	return len(missing) == 0, missing
}

// Roles lists the catalog ordered by level, then name.
func Roles() []Role {
	roles := make([]Role, 0, len(roleLevels))
	for r := range roleLevels {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool {
		li, lj := roleLevels[roles[i]], roleLevels[roles[j]]
		if li != lj {
			return li < lj
		}
		return roles[i] < roles[j]
	})
	return roles
}
