package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/classhub/classhub/internal/platform/httpx"
)

// CatalogRole describes a role with its level and default permissions.
type CatalogRole struct {
	Name        Role         `json:"name" yaml:"name"`
	Level       int          `json:"level" yaml:"level"`
	Permissions []Permission `json:"permissions" yaml:"permissions"`
}

// CatalogDocument is the static role and permission catalog.
type CatalogDocument struct {
	Roles       []CatalogRole `json:"roles" yaml:"roles"`
	Permissions []Permission  `json:"permissions" yaml:"permissions"`
}

// Catalog snapshots the static catalog.
func Catalog() CatalogDocument {
	roles := Roles()
	doc := CatalogDocument{
		Roles:       make([]CatalogRole, 0, len(roles)),
		Permissions: Permissions(),
	}
	for _, role := range roles {
		level, _ := role.Level()
		doc.Roles = append(doc.Roles, CatalogRole{
			Name:        role,
			Level:       level,
			Permissions: RolePermissions(role).Slice(),
		})
	}
	return doc
}

// YAML renders the catalog as a YAML document.
func (c CatalogDocument) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// PermissionsHandler exposes the catalog to administrators.
type PermissionsHandler struct {
	logger *slog.Logger
	rbac   Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, rbac: rbac}
}

// MountRoutes registers catalog routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAnyPermission(PermAdminSettings, PermSystemDebug))
		r.Get("/", h.listCatalog)
		r.Get("/export.yaml", h.exportCatalog)
	})
}

func (h *PermissionsHandler) listCatalog(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, http.StatusOK, Catalog())
}

func (h *PermissionsHandler) exportCatalog(w http.ResponseWriter, r *http.Request) {
	body, err := Catalog().YAML()
	if err != nil {
		if h.logger != nil {
			h.logger.Error("export catalog", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
