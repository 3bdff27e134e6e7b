package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/classhub/classhub/internal/platform/httpx"
)

// CodeInvalidCredentials is returned for failed logins.
const CodeInvalidCredentials = "INVALID_CREDENTIALS"

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	loginRate int
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, loginRatePerMinute int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		loginRate: loginRatePerMinute,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.loginRate > 0 {
			r.Use(httprate.LimitByIP(h.loginRate, time.Minute))
		}
		r.Post("/login", h.handleLogin)
	})
	r.Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "invalid request body", nil)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.FailValidation(w, err)
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpx.Fail(w, http.StatusUnauthorized, CodeInvalidCredentials, "invalid email or password", nil)
			return
		}
		h.logger.Error("login failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, token)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	tok, ok := TokenFromContext(r.Context())
	if !ok {
		httpx.Fail(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "authentication required", nil)
		return
	}
	if err := h.service.Logout(r.Context(), tok); err != nil {
		h.logger.Error("logout failed", slog.String("principal_id", tok.PrincipalID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"revoked": true})
}
