package auth

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
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/helios-erp/helios-erp/internal/rbac"
	"github.com/helios-erp/helios-erp/internal/shared"
	"github.com/helios-erp/helios-erp/internal/users"
)

type fakeUserRepo struct {
	byUsername map[string]users.User
	nextID     int64
}

func (f *fakeUserRepo) List(context.Context, int, int) ([]users.User, int, error) {
	return nil, 0, nil
}

func (f *fakeUserRepo) Get(_ context.Context, id int64) (users.User, error) {
	for _, u := range f.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return users.User{}, shared.ErrNotFound
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (users.User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user users.User) (users.User, error) {
	f.nextID++
	user.ID = f.nextID
	if f.byUsername == nil {
		f.byUsername = make(map[string]users.User)
	}
	f.byUsername[user.Username] = user
	return user, nil
}

func (f *fakeUserRepo) Update(context.Context, int64, users.User) error { return nil }

func (f *fakeUserRepo) UpdatePassword(context.Context, int64, string) error { return nil }

func (f *fakeUserRepo) Deactivate(context.Context, int64) error { return nil }

func newTestHandler(t *testing.T) (*Handler, *shared.SessionManager) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "helios_session", "test-session-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("test-secret")
	userSvc := users.NewService(&fakeUserRepo{}, nil)

	_, err := userSvc.Create(context.Background(), users.CreateInput{
		Username: "cash.r",
		Name:     "Cash R",
		Password: "pos terminal",
		Role:     "cashier",
	})
	require.NoError(t, err)
	_, err = userSvc.Create(context.Background(), users.CreateInput{
		Username: "boss",
		Name:     "The Boss",
		Password: "super secret",
		Role:     "super_admin",
	})
	require.NoError(t, err)
	_, err = userSvc.Create(context.Background(), users.CreateInput{
		Username:         "mgr",
		Name:             "Branch Manager",
		Password:         "floor price",
		Role:             "branch_manager",
		CanOverridePrice: true,
	})
	require.NoError(t, err)

	resolver := rbac.NewResolver()
	require.NoError(t, resolver.Validate())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, userSvc, resolver, sessions, csrf, nil), sessions
}

// doLogin stands in for the session middleware: it loads a fresh session,
// parks it on the context and invokes the handler directly.
func doLogin(t *testing.T, h *Handler, sessions *shared.SessionManager, body string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessions.Load(req.Context(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	h.login(rec, req)
	return rec, sess
}

func TestLoginIssuesSessionAndCSRF(t *testing.T) {
	h, sessions := newTestHandler(t)

	rec, sess := doLogin(t, h, sessions, `{"username":"boss","password":"super secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, rbac.RoleSuperAdmin, resp.Role)
	require.True(t, resp.Permissions.ManageUsers)
	require.NotEmpty(t, resp.CSRFToken)
	require.Equal(t, "/dashboard", resp.LandingPath)

	// The handler mutates the context session; writing cookies is the
	// session middleware's job alone.
	require.Empty(t, rec.Result().Cookies())
	require.NotEmpty(t, sess.UserID())
	require.Equal(t, "super_admin", sess.Role())
	require.Equal(t, resp.CSRFToken, sess.Get(shared.CSRFSessionKey))
}

func TestLoginSendsCashierToPOS(t *testing.T) {
	h, sessions := newTestHandler(t)

	rec, _ := doLogin(t, h, sessions, `{"username":"cash.r","password":"pos terminal"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "/pos", resp.LandingPath)
	require.True(t, resp.Permissions.UsePOS)
	require.False(t, resp.Permissions.ViewDashboard)
}

func TestLoginStampsOverrideGrant(t *testing.T) {
	h, sessions := newTestHandler(t)

	rec, sess := doLogin(t, h, sessions, `{"username":"mgr","password":"floor price"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", sess.Get(shared.SessionKeyCanOverridePrice))

	rec, sess = doLogin(t, h, sessions, `{"username":"boss","password":"super secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, sess.Get(shared.SessionKeyCanOverridePrice))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h, sessions := newTestHandler(t)

	rec, _ := doLogin(t, h, sessions, `{"username":"boss","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doLogin(t, h, sessions, `{"username":"ghost","password":"super secret"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutDestroysSession(t *testing.T) {
	h, sessions := newTestHandler(t)

	rec, sess := doLogin(t, h, sessions, `{"username":"boss","password":"super secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// Commit the login session the way the middleware does to obtain the
	// cookie a real client would replay.
	commit := httptest.NewRecorder()
	require.NoError(t, sessions.Commit(context.Background(), commit, sess))
	cookies := commit.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	reloaded, err := sessions.Load(req.Context(), req)
	require.NoError(t, err)
	require.NotEmpty(t, reloaded.UserID())
	req = req.WithContext(shared.ContextWithSession(req.Context(), reloaded))

	out := httptest.NewRecorder()
	h.logout(out, req)
	require.Equal(t, http.StatusNoContent, out.Code)
	require.NoError(t, sessions.Commit(context.Background(), httptest.NewRecorder(), reloaded))

	// A subsequent load with the same cookie has no user.
	again := httptest.NewRequest(http.MethodGet, "/session", nil)
	again.AddCookie(cookie)
	reloaded, err = sessions.Load(again.Context(), again)
	require.NoError(t, err)
	require.Empty(t, reloaded.UserID())
}

func TestSessionEndpointRequiresLogin(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	rec := httptest.NewRecorder()
	h.session(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
