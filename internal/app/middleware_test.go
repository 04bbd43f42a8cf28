package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/helios-erp/helios-erp/internal/auth"
	"github.com/helios-erp/helios-erp/internal/rbac"
	"github.com/helios-erp/helios-erp/internal/shared"
	"github.com/helios-erp/helios-erp/internal/users"
)

type staticUserRepo struct {
	byUsername map[string]users.User
	nextID     int64
}

func (f *staticUserRepo) List(context.Context, int, int) ([]users.User, int, error) {
	return nil, 0, nil
}

func (f *staticUserRepo) Get(_ context.Context, id int64) (users.User, error) {
	for _, u := range f.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return users.User{}, shared.ErrNotFound
}

func (f *staticUserRepo) GetByUsername(_ context.Context, username string) (users.User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return u, nil
}

func (f *staticUserRepo) Create(_ context.Context, user users.User) (users.User, error) {
	f.nextID++
	user.ID = f.nextID
	if f.byUsername == nil {
		f.byUsername = make(map[string]users.User)
	}
	f.byUsername[user.Username] = user
	return user, nil
}

func (f *staticUserRepo) Update(context.Context, int64, users.User) error { return nil }

func (f *staticUserRepo) UpdatePassword(context.Context, int64, string) error { return nil }

func (f *staticUserRepo) Deactivate(context.Context, int64) error { return nil }

// newAuthRouter assembles the full middleware chain plus the auth routes,
// exactly as the runtime wires them.
func newAuthRouter(t *testing.T) (chi.Router, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := shared.NewSessionManager(client, "helios_session", "test-session-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("test-csrf-secret")

	userSvc := users.NewService(&staticUserRepo{}, nil)
	_, err := userSvc.Create(context.Background(), users.CreateInput{
		Username: "boss",
		Name:     "The Boss",
		Password: "super secret",
		Role:     "super_admin",
	})
	require.NoError(t, err)

	resolver := rbac.NewResolver()
	require.NoError(t, resolver.Validate())

	h := auth.NewHandler(logger, userSvc, resolver, sessions, csrf, nil)

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         logger,
		SessionManager: sessions,
		CSRFManager:    csrf,
	}) {
		r.Use(mw)
	}
	r.Route("/api/auth", h.MountRoutes)
	return r, client
}

func sessionCookies(res *http.Response) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == "helios_session" {
			out = append(out, c)
		}
	}
	return out
}

func postLogin(t *testing.T, r chi.Router, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"boss","password":"super secret"}`))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLoginThroughStackSetsSingleUsableCookie(t *testing.T) {
	r, _ := newAuthRouter(t)

	rec := postLogin(t, r, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := sessionCookies(rec.Result())
	require.Len(t, cookies, 1)
	require.NotEmpty(t, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)

	var resp struct {
		UserID    int64  `json:"user_id"`
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotZero(t, resp.UserID)
	require.NotEmpty(t, resp.CSRFToken)

	// Replaying the cookie must reach the authenticated session.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(cookies[0])
	out := httptest.NewRecorder()
	r.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)

	var who struct {
		UserID int64 `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(out.Body.Bytes(), &who))
	require.Equal(t, resp.UserID, who.UserID)
}

func TestLoginRotatesAnonymousSession(t *testing.T) {
	r, client := newAuthRouter(t)

	// An unauthenticated request still gets an anonymous session cookie.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	anon := sessionCookies(rec.Result())
	require.Len(t, anon, 1)

	login := postLogin(t, r, anon[0])
	require.Equal(t, http.StatusOK, login.Code)

	rotated := sessionCookies(login.Result())
	require.Len(t, rotated, 1)
	require.NotEqual(t, anon[0].Value, rotated[0].Value)

	// The pre-login session entry is gone from Redis.
	n, err := client.Exists(context.Background(), "helios:session:"+anon[0].Value).Result()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestLogoutThroughStackExpiresSession(t *testing.T) {
	r, _ := newAuthRouter(t)

	login := postLogin(t, r, nil)
	require.Equal(t, http.StatusOK, login.Code)
	cookie := sessionCookies(login.Result())[0]

	var resp struct {
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(cookie)
	req.Header.Set(shared.CSRFHeader, resp.CSRFToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	expired := sessionCookies(rec.Result())
	require.Len(t, expired, 1)
	require.Empty(t, expired[0].Value)

	// The old cookie no longer authenticates.
	again := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	again.AddCookie(cookie)
	out := httptest.NewRecorder()
	r.ServeHTTP(out, again)
	require.Equal(t, http.StatusUnauthorized, out.Code)
}

func TestMutatingRequestNeedsCSRFToken(t *testing.T) {
	r, _ := newAuthRouter(t)

	login := postLogin(t, r, nil)
	require.Equal(t, http.StatusOK, login.Code)
	cookie := sessionCookies(login.Result())[0]

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
