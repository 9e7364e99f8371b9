package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	identityapp "github.com/poinmhs/backend/internal/application/identity"
	"github.com/poinmhs/backend/internal/domain/identity"
	"github.com/poinmhs/backend/internal/infrastructure/auth"
	"github.com/poinmhs/backend/internal/infrastructure/config"
	"github.com/poinmhs/backend/internal/interfaces/http/middleware"
	"github.com/poinmhs/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type authFixture struct {
	store  *testutil.MemoryStore
	engine *gin.Engine
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	store := testutil.NewMemoryStore()
	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars",
		Expiration: time.Hour,
		Issuer:     "test",
	})
	svc := identityapp.NewAuthService(store.Users(), store.Students(), jwtSvc, auth.NewInMemoryTokenBlacklist(),
		identityapp.DefaultAuthServiceConfig(), zaptest.NewLogger(t))
	h := NewAuthHandler(svc, CookieSettings{Name: "poin_session", SameSite: "strict"})

	jwtCfg := middleware.DefaultJWTConfig(svc)
	jwtCfg.CookieName = "poin_session"

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.JWTAuthMiddlewareWithConfig(jwtCfg))
	api := engine.Group("/api/v1/auth")
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)
	api.GET("/me", h.Me)
	api.PUT("/password", h.ChangePassword)
	return &authFixture{store: store, engine: engine}
}

func (f *authFixture) login(t *testing.T, identifier, password string) (identityapp.LoginResult, *http.Cookie) {
	t.Helper()
	w := testutil.Serve(f.engine, testutil.JSONRequest(t, http.MethodPost, "/api/v1/auth/login",
		identityapp.LoginInput{Identifier: identifier, Password: password}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	return testutil.DecodeJSON[envelope[identityapp.LoginResult]](t, w).Data, cookies[0]
}

func bearer(t *testing.T, method, path, token string, body any) *http.Request {
	req := testutil.JSONRequest(t, method, path, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthHandler_LoginSetsCookie(t *testing.T) {
	f := newAuthFixture(t)
	st := f.store.SeedStudent("2201001", "Ani Putri")
	u, err := identity.NewStudentUser(st.ID, st.NIM, "Ani Putri")
	require.NoError(t, err)
	f.store.SeedUser(u)

	result, cookie := f.login(t, "2201001", "2201001")
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "mahasiswa", result.User.Role)
	require.NotNil(t, result.User.StudentID)
	assert.Equal(t, st.ID, *result.User.StudentID)

	assert.Equal(t, "poin_session", cookie.Name)
	assert.Equal(t, result.AccessToken, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Greater(t, cookie.MaxAge, 0)

	req := testutil.JSONRequest(t, http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	w := testutil.Serve(f.engine, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := testutil.DecodeJSON[envelope[identityapp.MeResult]](t, w).Data
	require.NotNil(t, me.Student)
	assert.Equal(t, "2201001", me.Student.NIM)
}

func TestAuthHandler_LoginRejections(t *testing.T) {
	f := newAuthFixture(t)
	admin, err := identity.NewAdminUser("198001", "Admin", "rahasia123")
	require.NoError(t, err)
	f.store.SeedUser(admin)

	w := testutil.Serve(f.engine, testutil.JSONRequest(t, http.MethodPost, "/api/v1/auth/login",
		identityapp.LoginInput{Identifier: "198001", Password: "salah"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	testutil.AssertErrorResponse(t, w, "ERR_INVALID_CREDENTIALS")
	assert.Empty(t, w.Result().Cookies())

	w = testutil.Serve(f.engine, testutil.JSONRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"identifier": "198001"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	testutil.AssertErrorResponse(t, w, "ERR_VALIDATION")

	w = testutil.Serve(f.engine, testutil.JSONRequest(t, http.MethodGet, "/api/v1/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_LogoutRevokesToken(t *testing.T) {
	f := newAuthFixture(t)
	admin, err := identity.NewAdminUser("198001", "Admin", "rahasia123")
	require.NoError(t, err)
	f.store.SeedUser(admin)
	result, _ := f.login(t, "198001", "rahasia123")

	w := testutil.Serve(f.engine, bearer(t, http.MethodPost, "/api/v1/auth/logout", result.AccessToken, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)

	w = testutil.Serve(f.engine, bearer(t, http.MethodGet, "/api/v1/auth/me", result.AccessToken, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	testutil.AssertErrorResponse(t, w, "ERR_TOKEN_REVOKED")
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	admin, err := identity.NewAdminUser("198001", "Admin", "rahasia123")
	require.NoError(t, err)
	f.store.SeedUser(admin)
	result, _ := f.login(t, "198001", "rahasia123")

	w := testutil.Serve(f.engine, bearer(t, http.MethodPut, "/api/v1/auth/password", result.AccessToken,
		identityapp.ChangePasswordInput{OldPassword: "keliru", NewPassword: "baru123456"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.Serve(f.engine, bearer(t, http.MethodPut, "/api/v1/auth/password", result.AccessToken,
		identityapp.ChangePasswordInput{OldPassword: "rahasia123", NewPassword: "123"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Serve(f.engine, bearer(t, http.MethodPut, "/api/v1/auth/password", result.AccessToken,
		identityapp.ChangePasswordInput{OldPassword: "rahasia123", NewPassword: "baru123456"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	f.login(t, "198001", "baru123456")
}
