package classroom

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/classhub/classhub/internal/platform/httpx"
	"github.com/classhub/classhub/internal/rbac"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Store is the data access the handler depends on.
type Store interface {
	ListLessons(ctx context.Context, limit int) ([]Lesson, error)
	CreateLesson(ctx context.Context, authorID string, req CreateLessonRequest) (Lesson, error)
	ListUngraded(ctx context.Context, limit int) ([]Submission, error)
	ListOpenReports(ctx context.Context, limit int) ([]Report, error)
	DashboardStats(ctx context.Context) (DashboardStats, error)
}

// Handler exposes classroom endpoints.
type Handler struct {
	logger    *slog.Logger
	store     Store
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, store Store, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, store: store, validator: validator.New(), rbac: rbac}
}

// MountRoutes registers classroom routes on the API router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/lessons", func(r chi.Router) {
		r.With(h.rbac.RequirePermission(rbac.PermLessonsView)).Get("/", h.listLessons)
		r.With(h.rbac.RequireAllPermissions(rbac.PermLessonsCreate, rbac.PermStorageUpload)).Post("/", h.createLesson)
	})
	r.With(h.rbac.RequireAnyPermission(rbac.PermAssessmentsGrade, rbac.PermAssessmentsManage)).
		Get("/assessments/grading", h.gradingQueue)
	r.With(h.rbac.RequireAnyRole(rbac.RoleModerator, rbac.RoleTeacher)).
		Get("/moderation/queue", h.moderationQueue)
	r.With(h.rbac.RequireRole(rbac.RoleAdmin)).
		Get("/admin/dashboard", h.dashboard)
}

func (h *Handler) listLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.store.ListLessons(r.Context(), pageSize(r))
	if err != nil {
		h.logger.Error("list lessons failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, nonNil(lessons))
}

func (h *Handler) createLesson(w http.ResponseWriter, r *http.Request) {
	var req CreateLessonRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "invalid request body", nil)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.FailValidation(w, err)
		return
	}
	identity, _ := rbac.IdentityFromContext(r.Context())
	lesson, err := h.store.CreateLesson(r.Context(), identity.ID, req)
	if err != nil {
		h.logger.Error("create lesson failed", slog.String("author_id", identity.ID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, lesson)
}

func (h *Handler) gradingQueue(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.ListUngraded(r.Context(), pageSize(r))
	if err != nil {
		h.logger.Error("list grading queue failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, nonNil(subs))
}

func (h *Handler) moderationQueue(w http.ResponseWriter, r *http.Request) {
	reports, err := h.store.ListOpenReports(r.Context(), pageSize(r))
	if err != nil {
		h.logger.Error("list moderation queue failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, nonNil(reports))
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.DashboardStats(r.Context())
	if err != nil {
		h.logger.Error("load dashboard failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, stats)
}

func pageSize(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
