package rbac

// Role defaults are curated per role. Higher roles are deliberately not
// supersets of lower ones (moderator lacks lessons.create and
// assessments.grade that teacher has).
var roleDefaults = map[Role]PermissionSet{
	RoleGuest: NewPermissionSet(
		PermLessonsView,
	),
	RoleStudent: NewPermissionSet(
		PermLessonsView,
		PermAssessmentsView,
		PermAssessmentsTake,
		PermProgressView,
		PermStorageUpload,
		PermAIUse,
	),
	RoleParent: NewPermissionSet(
		PermLessonsView,
		PermAssessmentsView,
		PermChildrenView,
		PermProgressView,
		PermReportsView,
	),
	RoleTeacher: NewPermissionSet(
		PermLessonsView,
		PermLessonsCreate,
		PermLessonsManage,
		PermAssessmentsView,
		PermAssessmentsCreate,
		PermAssessmentsGrade,
		PermProgressView,
		PermReportsView,
		PermStorageUpload,
		PermAIUse,
		PermUsersView,
	),
	RoleModerator: NewPermissionSet(
		PermLessonsView,
		PermLessonsManage,
		PermAssessmentsView,
		PermReportsView,
		PermUsersView,
		PermModerationReview,
		PermModerationManage,
		PermStorageManage,
	),
	RoleAdmin: NewPermissionSet(
		PermUsersView,
		PermUsersManage,
		PermLessonsView,
		PermLessonsCreate,
		PermLessonsManage,
		PermAssessmentsView,
		PermAssessmentsCreate,
		PermAssessmentsGrade,
		PermAssessmentsManage,
		PermProgressView,
		PermReportsView,
		PermStorageUpload,
		PermStorageManage,
		PermAIUse,
		PermModerationReview,
		PermModerationManage,
		PermAdminDashboard,
		PermAdminSettings,
		PermWhitelistManage,
	),
	RoleDeveloper: NewPermissionSet(
		PermUsersView,
		PermUsersManage,
		PermLessonsView,
		PermLessonsCreate,
		PermLessonsManage,
		PermAssessmentsView,
		PermAssessmentsCreate,
		PermAssessmentsGrade,
		PermAssessmentsManage,
		PermProgressView,
		PermReportsView,
		PermStorageUpload,
		PermStorageManage,
		PermAIUse,
		PermModerationReview,
		PermModerationManage,
		PermAdminDashboard,
		PermAdminSettings,
		PermWhitelistManage,
		PermSystemDebug,
	),
}

// RolePermissions returns the default permission set of role, or an empty
// set for unknown roles.
func RolePermissions(role Role) PermissionSet {
	set, ok := roleDefaults[role]
	if !ok {
		return PermissionSet{}
	}
	return set
}
