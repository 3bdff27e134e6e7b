package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/classhub/classhub/internal/auth"
	"github.com/classhub/classhub/internal/platform/httpx"
	"github.com/classhub/classhub/internal/shared"
	_ "github.com/classhub/classhub/testing"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || !strings.EqualFold(s.user.Email, email) {
		return nil, auth.ErrUserNotFound
	}
	return s.user, nil
}

type authFixture struct {
	router      http.Handler
	manager     *auth.JWTManager
	revocations *auth.RevocationStore
}

func newAuthFixture(t *testing.T, user *auth.User) *authFixture {
	t.Helper()
	clock := newClock(t)
	revocations, _ := newRevocations(t, clock)
	manager := newManager(t, clock, revocations)
	service := auth.NewService(&stubRepo{user: user}, manager, revocations)
	handler := auth.NewHandler(nil, service, 0)

	r := chi.NewRouter()
	r.Use(auth.Authenticator{Verifier: manager}.Handler)
	r.Route("/auth", handler.MountRoutes)
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(shared.PrincipalIDFromContext(r.Context())))
	})
	return &authFixture{router: r, manager: manager, revocations: revocations}
}

func activeUser(t *testing.T) *auth.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return &auth.User{ID: "3f1c7d4e-0000-4000-8000-000000000001", Email: "teacher@classhub.test", PasswordHash: string(hashed), IsActive: true}
}

func postJSON(router http.Handler, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func get(router http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func login(t *testing.T, fx *authFixture) string {
	t.Helper()
	res := postJSON(fx.router, "/auth/login", `{"email":"teacher@classhub.test","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var body struct {
		Success bool             `json:"success"`
		Data    auth.IssuedToken `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.NotEmpty(t, body.Data.AccessToken)
	return body.Data.AccessToken
}

func TestLoginIssuesUsableToken(t *testing.T) {
	user := activeUser(t)
	fx := newAuthFixture(t, user)

	token := login(t, fx)

	res := get(fx.router, "/whoami", token)
	assert.Equal(t, user.ID, res.Body.String())
}

func TestLoginInvalidCredentials(t *testing.T) {
	fx := newAuthFixture(t, activeUser(t))

	res := postJSON(fx.router, "/auth/login", `{"email":"teacher@classhub.test","password":"wrong-password"}`, "")

	require.Equal(t, http.StatusUnauthorized, res.Code)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &env))
	assert.Equal(t, auth.CodeInvalidCredentials, env.Error.Code)
}

func TestLoginInactiveUser(t *testing.T) {
	user := activeUser(t)
	user.IsActive = false
	fx := newAuthFixture(t, user)

	res := postJSON(fx.router, "/auth/login", `{"email":"teacher@classhub.test","password":"correct-horse"}`, "")
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginValidation(t *testing.T) {
	fx := newAuthFixture(t, activeUser(t))

	res := postJSON(fx.router, "/auth/login", `{"email":"not-an-email","password":"short"}`, "")

	require.Equal(t, http.StatusBadRequest, res.Code)
	var env httpx.Envelope
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &env))
	assert.Equal(t, httpx.CodeValidation, env.Error.Code)
	assert.Equal(t, "email", env.Error.Details["Email"])
	assert.Equal(t, "min", env.Error.Details["Password"])
}

func TestLogoutRevokesToken(t *testing.T) {
	fx := newAuthFixture(t, activeUser(t))
	token := login(t, fx)

	res := postJSON(fx.router, "/auth/logout", "", token)
	require.Equal(t, http.StatusOK, res.Code)

	res = get(fx.router, "/whoami", token)
	assert.Empty(t, res.Body.String(), "revoked token must not resolve a principal")

	res = postJSON(fx.router, "/auth/logout", "", token)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAuthenticatorIgnoresMalformedHeaders(t *testing.T) {
	fx := newAuthFixture(t, activeUser(t))
	token := login(t, fx)

	for _, header := range []string{"Basic " + token, "Bearer", token, "Bearer    "} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", header)
		res := httptest.NewRecorder()
		fx.router.ServeHTTP(res, req)
		assert.Empty(t, res.Body.String(), "header %q", header)
	}
}
