package rbac

import (
	"fmt"
	"sort"
	"strings"
)

// Permission is a namespaced capability tag. Namespaces are advisory only:
// permissions compare by plain string equality.
type Permission string

const (
	PermUsersView         Permission = "users.view"
	PermUsersManage       Permission = "users.manage"
	PermLessonsView       Permission = "lessons.view"
	PermLessonsCreate     Permission = "lessons.create"
	PermLessonsManage     Permission = "lessons.manage"
	PermAssessmentsView   Permission = "assessments.view"
	PermAssessmentsTake   Permission = "assessments.take"
	PermAssessmentsCreate Permission = "assessments.create"
	PermAssessmentsGrade  Permission = "assessments.grade"
	PermAssessmentsManage Permission = "assessments.manage"
	PermChildrenView      Permission = "children.view"
	PermProgressView      Permission = "progress.view"
	PermReportsView       Permission = "reports.view"
	PermStorageUpload     Permission = "storage.upload"
	PermStorageManage     Permission = "storage.manage"
	PermAIUse             Permission = "ai.use"
	PermModerationReview  Permission = "moderation.review"
	PermModerationManage  Permission = "moderation.manage"
	PermAdminDashboard    Permission = "admin.dashboard"
	PermAdminSettings     Permission = "admin.settings"
	PermWhitelistManage   Permission = "whitelist.manage"
	PermSystemDebug       Permission = "system.debug"
)

var knownPermissions = NewPermissionSet(
	PermUsersView, PermUsersManage,
	PermLessonsView, PermLessonsCreate, PermLessonsManage,
	PermAssessmentsView, PermAssessmentsTake, PermAssessmentsCreate, PermAssessmentsGrade, PermAssessmentsManage,
	PermChildrenView, PermProgressView, PermReportsView,
	PermStorageUpload, PermStorageManage,
	PermAIUse,
	PermModerationReview, PermModerationManage,
	PermAdminDashboard, PermAdminSettings, PermWhitelistManage,
	PermSystemDebug,
)

// ParsePermission normalises raw input into a known Permission.
func ParsePermission(raw string) (Permission, error) {
	p := Permission(strings.TrimSpace(strings.ToLower(raw)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPermission, raw)
	}
	return p, nil
}

// ParsePermissions parses every entry, failing on the first unknown one.
func ParsePermissions(raw []string) (PermissionSet, error) {
	perms := make([]Permission, 0, len(raw))
	for _, r := range raw {
		p, err := ParsePermission(r)
		if err != nil {
			return PermissionSet{}, err
		}
		perms = append(perms, p)
	}
	return NewPermissionSet(perms...), nil
}

// Valid reports whether the permission belongs to the catalog.
func (p Permission) Valid() bool {
	return knownPermissions.Has(p)
}

func (p Permission) String() string {
	return string(p)
}

// Permissions lists the whole catalog in sorted order.
func Permissions() []Permission {
	return knownPermissions.Slice()
}

// PermissionSet is a value set of permissions. The zero value is empty and
// usable; sets are not mutated after construction.
type PermissionSet struct {
	items map[Permission]struct{}
}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	items := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		if p == "" {
			continue
		}
		items[p] = struct{}{}
	}
	return PermissionSet{items: items}
}

// Has reports membership.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s.items[p]
	return ok
}

// Len returns the number of permissions.
func (s PermissionSet) Len() int {
	return len(s.items)
}

// Slice returns the permissions sorted by name.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s.items))
	for p := range s.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted permission names.
func (s PermissionSet) Strings() []string {
	perms := s.Slice()
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

// Equal reports whether both sets hold the same permissions.
func (s PermissionSet) Equal(other PermissionSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for p := range s.items {
		if !other.Has(p) {
			return false
		}
	}
	return true
}

// HasPermission is a membership test.
func HasPermission(set PermissionSet, required Permission) bool {
	return set.Has(required)
}

// HasAnyPermission reports whether set intersects required.
func HasAnyPermission(set PermissionSet, required ...Permission) bool {
	for _, p := range required {
		if set.Has(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether set covers required and returns every
// permission that is missing.
func HasAllPermissions(set PermissionSet, required ...Permission) (bool, []Permission) {
	var missing []Permission
	for _, p := range required {
		if !set.Has(p) {
			missing = append(missing, p)
		}
	}
	return len(missing) == 0, missing
}
