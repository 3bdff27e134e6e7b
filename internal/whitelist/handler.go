package whitelist

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/classhub/classhub/internal/platform/httpx"
	"github.com/classhub/classhub/internal/rbac"
)

// Handler exposes whitelist administration.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: rbac}
}

// MountRoutes registers whitelist routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequirePermission(rbac.PermWhitelistManage))
	r.Get("/", h.list)
	r.Post("/", h.grant)
	r.Delete("/{id}", h.revoke)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list whitelist failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	httpx.OK(w, http.StatusOK, entries)
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "invalid request body", nil)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.FailValidation(w, err)
		return
	}
	identity, _ := rbac.IdentityFromContext(r.Context())
	entry, err := h.service.Grant(r.Context(), identity.ID, req)
	if err != nil {
		h.logger.Warn("grant whitelist failed", slog.String("principal_id", req.PrincipalID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, entry)
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	identity, _ := rbac.IdentityFromContext(r.Context())
	entry, err := h.service.Revoke(r.Context(), identity.ID, chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Warn("revoke whitelist failed", slog.String("entry_id", chi.URLParam(r, "id")), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, entry)
}
