package classroom

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads and writes classroom data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListLessons returns lessons newest first.
func (r *Repository) ListLessons(ctx context.Context, limit int) ([]Lesson, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, title, summary, attachment_url, author_id::text, created_at
		FROM lessons ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Lesson, error) {
		var l Lesson
		err := row.Scan(&l.ID, &l.Title, &l.Summary, &l.AttachmentURL, &l.AuthorID, &l.CreatedAt)
		return l, err
	})
}

// CreateLesson stores a lesson authored by authorID.
func (r *Repository) CreateLesson(ctx context.Context, authorID string, req CreateLessonRequest) (Lesson, error) {
	var l Lesson
	err := r.pool.QueryRow(ctx, `INSERT INTO lessons (title, summary, attachment_url, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, title, summary, attachment_url, author_id::text, created_at`,
		req.Title, req.Summary, req.AttachmentURL, authorID,
	).Scan(&l.ID, &l.Title, &l.Summary, &l.AttachmentURL, &l.AuthorID, &l.CreatedAt)
	return l, err
}

// ListUngraded returns submissions without a grade, oldest first.
func (r *Repository) ListUngraded(ctx context.Context, limit int) ([]Submission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, assessment_id::text, student_id::text, submitted_at
		FROM assessment_submissions WHERE graded_at IS NULL ORDER BY submitted_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Submission, error) {
		var s Submission
		err := row.Scan(&s.ID, &s.AssessmentID, &s.StudentID, &s.SubmittedAt)
		return s, err
	})
}

// ListOpenReports returns unresolved moderation reports, oldest first.
func (r *Repository) ListOpenReports(ctx context.Context, limit int) ([]Report, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, target_type, target_id::text, reason, reported_at
		FROM moderation_reports WHERE resolved_at IS NULL ORDER BY reported_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Report, error) {
		var rep Report
		err := row.Scan(&rep.ID, &rep.TargetType, &rep.TargetID, &rep.Reason, &rep.ReportedAt)
		return rep, err
	})
}

// DashboardStats aggregates counts for the admin dashboard.
func (r *Repository) DashboardStats(ctx context.Context) (DashboardStats, error) {
	stats := DashboardStats{Users: make(map[string]int)}
	rows, err := r.pool.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return DashboardStats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return DashboardStats{}, err
		}
		stats.Users[role] = count
	}
	if err := rows.Err(); err != nil {
		return DashboardStats{}, err
	}
	err = r.pool.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM users WHERE NOT is_active),
		(SELECT COUNT(*) FROM whitelist_entries WHERE is_active),
		(SELECT COUNT(*) FROM lessons)`,
	).Scan(&stats.InactiveUsers, &stats.ActiveWhitelists, &stats.Lessons)
	if err != nil {
		return DashboardStats{}, err
	}
	return stats, nil
}
