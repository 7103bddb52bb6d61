package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/char-projects/PokeAPI/internal/middleware"
	"github.com/char-projects/PokeAPI/internal/model"
	"github.com/char-projects/PokeAPI/internal/service"
	"github.com/char-projects/PokeAPI/internal/token"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]model.User)}
}

func (s *memUserStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[username]
	return ok, nil
}

func (s *memUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return model.ErrUsernameTaken
	}
	s.users[u.Username] = u
	return nil
}

func (s *memUserStore) SetLastLogout(_ context.Context, username string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return model.ErrUserNotFound
	}
	u.LastLogoutAt = &at
	s.users[username] = u
	return nil
}

func newTestAuthSetup(t *testing.T) (*AuthHandler, *service.AuthService) {
	t.Helper()
	codec, err := token.NewCodec("test-secret", time.Hour)
	require.NoError(t, err)
	authService := service.NewAuthService(newMemUserStore(), codec, "password")
	return NewAuthHandler(authService, time.Hour, "http://localhost:5173"), authService
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginSetsSessionCookie(t *testing.T) {
	h, _ := newTestAuthSetup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"alice","password":"password"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"access_token"`)

	cookie := findCookie(t, rec, middleware.AccessTokenCookie)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.False(t, cookie.Secure)
}

func TestLoginSecureCookieBehindTLSProxy(t *testing.T) {
	h, _ := newTestAuthSetup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"alice","password":"password"}`))
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	cookie := findCookie(t, rec, middleware.AccessTokenCookie)
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
}

func TestLoginInvalidCredentials(t *testing.T) {
	h, _ := newTestAuthSetup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"alice","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
	assert.Nil(t, findCookie(t, rec, middleware.AccessTokenCookie))
}

func TestLoginValidation(t *testing.T) {
	h, _ := newTestAuthSetup(t)

	for _, body := range []string{`not json`, `{"username":"alice"}`, `{"password":"x"}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Login(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestRegisterFlow(t *testing.T) {
	h, _ := newTestAuthSetup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/register",
		strings.NewReader(`{"username":"alice","password":"s3cret-pass"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, findCookie(t, rec, middleware.AccessTokenCookie))

	// Same username again conflicts.
	req = httptest.NewRequest(http.MethodPost, "/api/register",
		strings.NewReader(`{"username":"alice","password":"other-pass"}`))
	rec = httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "ALREADY_EXISTS")
}

func TestRegisterWeakPassword(t *testing.T) {
	h, _ := newTestAuthSetup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/register",
		strings.NewReader(`{"username":"alice","password":"abc"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "WEAK_PASSWORD")
}

func TestLogoutAlwaysSucceedsAndClearsCookies(t *testing.T) {
	h, authService := newTestAuthSetup(t)

	tr, err := authService.Register(context.Background(), "alice", "s3cret-pass")
	require.NoError(t, err)

	logout := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.Logout(rec, req)
		return rec
	}

	rec := logout(tr.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"logged_out":true`)

	access := findCookie(t, rec, middleware.AccessTokenCookie)
	require.NotNil(t, access)
	assert.Empty(t, access.Value)
	assert.Less(t, access.MaxAge, 0)
	refresh := findCookie(t, rec, "refresh_token")
	require.NotNil(t, refresh)
	assert.Less(t, refresh.MaxAge, 0)

	// The token is now revoked.
	_, err = authService.Authenticate(context.Background(), tr.AccessToken)
	assert.ErrorIs(t, err, model.ErrTokenRevoked)

	// Logging out again, with the revoked token, with garbage, or with no
	// token at all, still reports success.
	for _, tok := range []string{tr.AccessToken, "garbage", ""} {
		rec := logout(tok)
		assert.Equal(t, http.StatusOK, rec.Code, "token %q", tok)
	}
}

func TestLogoutClearRedirectsToFrontend(t *testing.T) {
	h, _ := newTestAuthSetup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/logout/clear", nil)
	rec := httptest.NewRecorder()
	h.LogoutClear(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Location"))
	state := findCookie(t, rec, stateCookie)
	require.NotNil(t, state)
	assert.Less(t, state.MaxAge, 0)
}

func TestMeBehindAuthGate(t *testing.T) {
	h, authService := newTestAuthSetup(t)

	tr, err := authService.Register(context.Background(), "alice", "s3cret-pass")
	require.NoError(t, err)

	gate := middleware.NewAuthMiddleware(authService)
	protected := gate.RequireAuth(http.HandlerFunc(h.Me))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+tr.AccessToken)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sub":"alice"`)

	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
