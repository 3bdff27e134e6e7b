package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/classhub/internal/auth"
	"github.com/classhub/classhub/internal/observability"
	"github.com/classhub/classhub/internal/platform/httpx"
	"github.com/classhub/classhub/internal/rbac"
	"github.com/classhub/classhub/internal/shared"
	"github.com/classhub/classhub/internal/users"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]users.User
}

func (m *memUsers) ListUsers(ctx context.Context) ([]users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]users.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) GetUser(ctx context.Context, id string) (users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) UpdateUser(ctx context.Context, id string, req users.UpdateUserRequest, _ shared.AuditLog) (users.User, error) {
	return users.User{}, users.ErrNotFound
}

func (m *memUsers) LoadPrincipal(ctx context.Context, id string) (rbac.Principal, error) {
	u, err := m.GetUser(ctx, id)
	if err != nil {
		return rbac.Principal{}, rbac.ErrPrincipalNotFound
	}
	return u.Principal(), nil
}

func (m *memUsers) setRole(id string, role rbac.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.Role = role
	m.users[id] = u
}

const routerAdminID = "0c8e4a9b-0000-4000-8000-0000000000a1"

type routerFixture struct {
	handler http.Handler
	tokens  *auth.JWTManager
	store   *memUsers
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	cfg := &Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second, RateLimitPerMinute: 1000}
	store := &memUsers{users: map[string]users.User{
		routerAdminID: {ID: routerAdminID, Email: "admin@classhub.test", Role: rbac.RoleAdmin, IsActive: true, IsVerified: true},
	}}
	tokens, err := auth.NewJWTManager(auth.JWTConfig{Secret: "router-secret", Issuer: "classhub", TTL: time.Hour})
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	mw := rbac.Middleware{
		Guard:         rbac.NewGuard(store, rbac.NewResolver(nil, nil, nil)),
		Metrics:       rbac.NewMetrics(metrics.Registerer()),
		ExposeDetails: cfg.ExposeDenialDetails(),
	}
	handler := NewRouter(RouterParams{
		Config:             cfg,
		Authenticator:      auth.Authenticator{Verifier: tokens},
		Metrics:            metrics,
		RBAC:               mw,
		UsersHandler:       users.NewHandler(nil, users.NewService(store), mw),
		PermissionsHandler: rbac.NewPermissionsHandler(nil, mw),
	})
	return &routerFixture{handler: handler, tokens: tokens, store: store}
}

func (fx *routerFixture) get(t *testing.T, path, principalID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if principalID != "" {
		tok, err := fx.tokens.Issue(principalID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	}
	res := httptest.NewRecorder()
	fx.handler.ServeHTTP(res, req)
	return res
}

func TestRouterHealthAndMetrics(t *testing.T) {
	fx := newRouterFixture(t)

	res := fx.get(t, "/healthz", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"status":"ok"}`, res.Body.String())
	assert.Equal(t, "nosniff", res.Header().Get("X-Content-Type-Options"))

	fx.get(t, "/api/v1/me", routerAdminID)
	res = fx.get(t, "/metrics", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `classhub_authz_decisions_total{guard="require_role",state="allowed"} 1`)
}

func TestRouterAuthenticatedIdentity(t *testing.T) {
	fx := newRouterFixture(t)

	res := fx.get(t, "/api/v1/me", routerAdminID)

	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var body struct {
		Data rbac.Identity `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, routerAdminID, body.Data.ID)
	assert.Equal(t, rbac.RoleAdmin, body.Data.Role)
}

func TestRouterMissingTokenIsUnauthorized(t *testing.T) {
	fx := newRouterFixture(t)

	res := fx.get(t, "/api/v1/admin/users", "")

	require.Equal(t, http.StatusUnauthorized, res.Code)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &env))
	assert.Equal(t, rbac.CodeUnauthorized, env.Error.Code)
}

func TestRouterRoleChangeAppliesToNextRequest(t *testing.T) {
	fx := newRouterFixture(t)

	res := fx.get(t, "/api/v1/admin/catalog", routerAdminID)
	require.Equal(t, http.StatusOK, res.Code)

	fx.store.setRole(routerAdminID, rbac.RoleStudent)

	res = fx.get(t, "/api/v1/admin/catalog", routerAdminID)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestRouterNotFoundEnvelope(t *testing.T) {
	fx := newRouterFixture(t)

	res := fx.get(t, "/api/v1/nowhere", "")

	require.Equal(t, http.StatusNotFound, res.Code)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &env))
	assert.Equal(t, httpx.CodeNotFound, env.Error.Code)
}
