// Package classroom serves the education endpoints that sit behind the
// authorization guards: lessons, grading, moderation and the admin dashboard.
package classroom

import "time"

// Lesson is a published or draft lesson.
type Lesson struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary,omitempty"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	AuthorID      string    `json:"author_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateLessonRequest is the payload for a new lesson. Lessons always carry
// an uploaded attachment, so creation needs storage.upload as well.
type CreateLessonRequest struct {
	Title         string `json:"title" validate:"required,max=200"`
	Summary       string `json:"summary" validate:"max=2000"`
	AttachmentURL string `json:"attachment_url" validate:"required,url"`
}

// Submission is an assessment attempt waiting for a grade.
type Submission struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessment_id"`
	StudentID    string    `json:"student_id"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// Report is a flagged item in the moderation queue.
type Report struct {
	ID         string    `json:"id"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Reason     string    `json:"reason"`
	ReportedAt time.Time `json:"reported_at"`
}

// DashboardStats summarises platform state for administrators.
type DashboardStats struct {
	Users            map[string]int `json:"users_by_role"`
	InactiveUsers    int            `json:"inactive_users"`
	ActiveWhitelists int            `json:"active_whitelist_entries"`
	Lessons          int            `json:"lessons"`
}
