package users_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/classhub/internal/platform/httpx"
	"github.com/classhub/classhub/internal/rbac"
	"github.com/classhub/classhub/internal/shared"
	"github.com/classhub/classhub/internal/users"
	_ "github.com/classhub/classhub/testing"
)

type stubRepo struct {
	mu    sync.Mutex
	users map[string]users.User
	order []string
	audit *stubAudit
}

func newStubRepo(us ...users.User) *stubRepo {
	s := &stubRepo{users: make(map[string]users.User)}
	for _, u := range us {
		s.users[u.ID] = u
		s.order = append(s.order, u.ID)
	}
	return s
}

func (s *stubRepo) ListUsers(ctx context.Context) ([]users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]users.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.users[id])
	}
	return out, nil
}

func (s *stubRepo) GetUser(ctx context.Context, id string) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

// UpdateUser writes the audit record first and changes nothing when it
// fails, matching the repository transaction.
func (s *stubRepo) UpdateUser(ctx context.Context, id string, req users.UpdateUserRequest, audit shared.AuditLog) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, audit); err != nil {
			return users.User{}, err
		}
	}
	if req.Role != nil {
		u.Role = rbac.Role(*req.Role)
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.CustomPermissions != nil {
		u.CustomPermissions = *req.CustomPermissions
	}
	s.users[id] = u
	return u, nil
}

func (s *stubRepo) LoadPrincipal(ctx context.Context, id string) (rbac.Principal, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return rbac.Principal{}, rbac.ErrPrincipalNotFound
	}
	return u.Principal(), nil
}

type stubAudit struct {
	logs []shared.AuditLog
	err  error
}

func (s *stubAudit) Record(ctx context.Context, log shared.AuditLog) error {
	if s.err != nil {
		return s.err
	}
	s.logs = append(s.logs, log)
	return nil
}

const (
	adminID   = "9b2e0c1a-0000-4000-8000-0000000000a1"
	teacherID = "9b2e0c1a-0000-4000-8000-0000000000b2"
	studentID = "9b2e0c1a-0000-4000-8000-0000000000c3"
)

type usersFixture struct {
	router http.Handler
	repo   *stubRepo
	audit  *stubAudit
}

func newUsersFixture(t *testing.T) *usersFixture {
	t.Helper()
	repo := newStubRepo(
		users.User{ID: adminID, Email: "admin@classhub.test", Name: "Admin", Role: rbac.RoleAdmin, IsActive: true, IsVerified: true},
		users.User{ID: teacherID, Email: "teacher@classhub.test", Name: "Teacher", Role: rbac.RoleTeacher, IsActive: true, IsVerified: true},
		users.User{ID: studentID, Email: "student@classhub.test", Name: "Student", Role: rbac.RoleStudent, IsActive: true},
	)
	audit := &stubAudit{}
	repo.audit = audit
	mw := rbac.Middleware{Guard: rbac.NewGuard(repo, rbac.NewResolver(nil, nil, nil))}
	handler := users.NewHandler(nil, users.NewService(repo), mw)

	r := chi.NewRouter()
	r.Route("/api/v1/me", handler.MountMe)
	r.Route("/api/v1/admin/users", handler.MountRoutes)
	return &usersFixture{router: r, repo: repo, audit: audit}
}

func do(router http.Handler, method, path, principalID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if principalID != "" {
		req = req.WithContext(shared.ContextWithPrincipalID(req.Context(), principalID))
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestMeReturnsResolvedIdentity(t *testing.T) {
	fx := newUsersFixture(t)

	res := do(fx.router, http.MethodGet, "/api/v1/me", studentID, "")

	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var body struct {
		Data rbac.Identity `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, studentID, body.Data.ID)
	assert.Equal(t, rbac.RoleStudent, body.Data.Role)
	assert.Equal(t, rbac.ResolvedRole, body.Data.PermissionSource)
	assert.Contains(t, body.Data.Permissions, rbac.PermLessonsView)
	assert.False(t, body.Data.IsVerified)
}

func TestMeRequiresAuthentication(t *testing.T) {
	fx := newUsersFixture(t)

	res := do(fx.router, http.MethodGet, "/api/v1/me", "", "")

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestListUsersRequiresUsersView(t *testing.T) {
	fx := newUsersFixture(t)

	res := do(fx.router, http.MethodGet, "/api/v1/admin/users", studentID, "")
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = do(fx.router, http.MethodGet, "/api/v1/admin/users", adminID, "")
	require.Equal(t, http.StatusOK, res.Code)
	var body struct {
		Data []users.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Len(t, body.Data, 3)
}

func TestGetUserNotFound(t *testing.T) {
	fx := newUsersFixture(t)

	res := do(fx.router, http.MethodGet, "/api/v1/admin/users/missing", adminID, "")

	require.Equal(t, http.StatusNotFound, res.Code)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &env))
	assert.Equal(t, httpx.CodeNotFound, env.Error.Code)
}

func TestUpdateUserChangesNextDecision(t *testing.T) {
	fx := newUsersFixture(t)

	res := do(fx.router, http.MethodGet, "/api/v1/admin/users", studentID, "")
	require.Equal(t, http.StatusForbidden, res.Code)

	res = do(fx.router, http.MethodPatch, "/api/v1/admin/users/"+studentID, adminID,
		`{"custom_permissions":["users.view","lessons.view"]}`)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.Len(t, fx.audit.logs, 1)
	assert.Equal(t, "user.update", fx.audit.logs[0].Action)
	assert.Equal(t, adminID, fx.audit.logs[0].ActorID)

	res = do(fx.router, http.MethodGet, "/api/v1/admin/users", studentID, "")
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestUpdateUserDeactivationDeniesImmediately(t *testing.T) {
	fx := newUsersFixture(t)

	res := do(fx.router, http.MethodPatch, "/api/v1/admin/users/"+studentID, adminID, `{"is_active":false}`)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	res = do(fx.router, http.MethodGet, "/api/v1/me", studentID, "")
	require.Equal(t, http.StatusForbidden, res.Code)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &env))
	assert.Equal(t, rbac.CodeAccountInactive, env.Error.Code)
}

func TestUpdateUserAuditFailureKeepsAccess(t *testing.T) {
	fx := newUsersFixture(t)
	fx.audit.err = errors.New("audit table unavailable")

	res := do(fx.router, http.MethodPatch, "/api/v1/admin/users/"+studentID, adminID, `{"is_active":false}`)
	require.Equal(t, http.StatusInternalServerError, res.Code, res.Body.String())

	res = do(fx.router, http.MethodGet, "/api/v1/me", studentID, "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Empty(t, fx.audit.logs)
}

func TestUpdateUserValidation(t *testing.T) {
	fx := newUsersFixture(t)

	t.Run("unknown role tag", func(t *testing.T) {
		res := do(fx.router, http.MethodPatch, "/api/v1/admin/users/"+studentID, adminID, `{"role":"superuser"}`)
		require.Equal(t, http.StatusBadRequest, res.Code)
		var env httpx.Envelope
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &env))
		assert.Equal(t, "oneof", env.Error.Details["Role"])
	})

	t.Run("unknown permission", func(t *testing.T) {
		res := do(fx.router, http.MethodPatch, "/api/v1/admin/users/"+studentID, adminID, `{"custom_permissions":["lessons.fly"]}`)
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("empty patch", func(t *testing.T) {
		res := do(fx.router, http.MethodPatch, "/api/v1/admin/users/"+studentID, adminID, `{}`)
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("teacher cannot manage", func(t *testing.T) {
		res := do(fx.router, http.MethodPatch, "/api/v1/admin/users/"+studentID, teacherID, `{"is_active":false}`)
		assert.Equal(t, http.StatusForbidden, res.Code)
	})

	assert.Empty(t, fx.audit.logs)
}

func TestUserPrincipalDefaultsSource(t *testing.T) {
	u := users.User{ID: studentID, Role: rbac.RoleStudent, CustomPermissions: []string{"ai.use"}}

	p := u.Principal()

	assert.Equal(t, rbac.SourceDefault, p.PermissionSource)
	assert.True(t, p.CustomPermissions.Has(rbac.PermAIUse))
	assert.Equal(t, 1, p.CustomPermissions.Len())
}
