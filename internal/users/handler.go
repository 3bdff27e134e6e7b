package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/classhub/classhub/internal/platform/httpx"
	"github.com/classhub/classhub/internal/rbac"
)

// Handler manages user endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: rbac}
}

// MountMe registers the self-service identity route.
func (h *Handler) MountMe(r chi.Router) {
	r.With(h.rbac.RequireRole(rbac.RoleGuest)).Get("/", h.me)
}

// MountRoutes registers user administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.PermUsersView))
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.getUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.PermUsersManage))
		r.Patch("/{id}", h.updateUser)
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity, ok := rbac.IdentityFromContext(r.Context())
	if !ok {
		httpx.Fail(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required", nil)
		return
	}
	httpx.OK(w, http.StatusOK, identity)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if users == nil {
		users = []User{}
	}
	httpx.OK(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("get user failed", slog.String("user_id", chi.URLParam(r, "id")), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "invalid request body", nil)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.FailValidation(w, err)
		return
	}
	identity, _ := rbac.IdentityFromContext(r.Context())
	id := chi.URLParam(r, "id")
	user, err := h.service.UpdateUser(r.Context(), identity.ID, id, req)
	if err != nil {
		h.logger.Warn("update user failed", slog.String("user_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("user updated", slog.String("user_id", id), slog.String("actor_id", identity.ID))
	httpx.OK(w, http.StatusOK, user)
}
