package rbac

import (
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/classhub/classhub/internal/platform/httpx"
	"github.com/classhub/classhub/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Guard   *Guard
	Logger  *slog.Logger
	Metrics *Metrics
	// ExposeDetails controls whether denial details reach the client. They
	// are always logged.
	ExposeDetails bool
}

// RequireRole ensures the current principal is at least role.
func (m Middleware) RequireRole(role Role) func(http.Handler) http.Handler {
	return m.require(RoleRequirement{Role: role})
}

// RequireAnyRole ensures the current principal satisfies one of roles.
func (m Middleware) RequireAnyRole(roles ...Role) func(http.Handler) http.Handler {
	return m.require(AnyRoleRequirement{Roles: roles})
}

// RequirePermission ensures the current principal holds perm.
func (m Middleware) RequirePermission(perm Permission) func(http.Handler) http.Handler {
	return m.require(PermissionRequirement{Permission: perm})
}

// RequireAllPermissions ensures the current principal holds every perm.
func (m Middleware) RequireAllPermissions(perms ...Permission) func(http.Handler) http.Handler {
	return m.require(AllPermissionsRequirement{Permissions: perms})
}

// RequireAnyPermission ensures the current principal holds one of perms.
func (m Middleware) RequireAnyPermission(perms ...Permission) func(http.Handler) http.Handler {
	return m.require(AnyPermissionRequirement{Permissions: perms})
}

func (m Middleware) require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principalID := shared.PrincipalIDFromContext(r.Context())
			decision := m.Guard.Check(r.Context(), principalID, req)
			m.Metrics.Observe(decision)
			if decision.Allowed() {
				ctx := WithIdentity(r.Context(), decision.Identity())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			if decision.Canceled() {
				m.logger().Debug("authorization abandoned, request ended",
					slog.String("principal_id", principalID),
					slog.String("requirement", req.String()),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("error", decision.Err))
				return
			}
			m.audit(r, principalID, decision)
			m.deny(w, r, decision)
		})
	}
}

func (m Middleware) audit(r *http.Request, principalID string, d Decision) {
	attrs := []any{
		slog.String("principal_id", principalID),
		slog.String("guard", d.Requirement.Name()),
		slog.String("requirement", d.Requirement.String()),
		slog.String("state", string(d.State)),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	}
	if d.Principal != nil {
		attrs = append(attrs,
			slog.String("role", string(d.Principal.Role)),
			slog.String("permission_source", string(d.Resolution.Source)),
			slog.Any("permissions", d.Resolution.Permissions.Strings()),
		)
	}
	if len(d.MissingRoles) > 0 {
		attrs = append(attrs, slog.Any("missing_roles", d.MissingRoles))
	}
	if len(d.MissingPermissions) > 0 {
		attrs = append(attrs, slog.Any("missing_permissions", d.MissingPermissions))
	}
	if d.State == StateDeniedError {
		attrs = append(attrs, slog.String("error", sanitize(d.Err)))
		m.logger().Error("authorization failed", attrs...)
		return
	}
	m.logger().Warn("authorization denied", attrs...)
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, d Decision) {
	var details map[string]any
	if m.ExposeDetails && d.State == StateDeniedInsufficient {
		details = d.Details
	}
	httpx.Fail(w, d.Status(), d.Code(), d.Message(printerFor(r)), details)
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

// sanitize reduces an error to its message, keeping log lines single-line.
func sanitize(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	const limit = 256
	if len(msg) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	out := make([]rune, 0, len(msg))
	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		out = append(out, r)
	}
	return string(out)
}
