package shared

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) (*SessionManager, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "helios_session", "test-session-secret", time.Hour, false), client
}

func commitSession(t *testing.T, sm *SessionManager, sess *Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, sess))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestCommitMintsSignedSessionID(t *testing.T) {
	sm, _ := newTestSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.Empty(t, sess.ID)

	cookie := commitSession(t, sm, sess)
	require.Equal(t, sess.ID, cookie.Value)

	// IDs are HMAC-SHA256 digests of a random nonce.
	raw, err := base64.RawURLEncoding.DecodeString(sess.ID)
	require.NoError(t, err)
	require.Len(t, raw, 32)
}

func TestRenewRotatesIDAndDropsOldEntry(t *testing.T) {
	sm, client := newTestSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.Set("csrf_token", "abc")
	first := commitSession(t, sm, sess)

	// Second request replays the cookie, logs in, and rotates.
	req = httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(first)
	sess, err = sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first.Value, sess.ID)

	sess.Renew()
	sess.SetUser("7", "cashier")
	second := commitSession(t, sm, sess)
	require.NotEqual(t, first.Value, second.Value)

	// Rotation drops the carried values along with the old Redis entry.
	require.Empty(t, sess.Get("csrf_token"))
	n, err := client.Exists(context.Background(), "helios:session:"+first.Value).Result()
	require.NoError(t, err)
	require.Zero(t, n)

	// The rotated cookie still authenticates.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(second)
	sess, err = sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "7", sess.UserID())
	require.Equal(t, "cashier", sess.Role())
}

func TestDestroyedSessionExpiresCookie(t *testing.T) {
	sm, client := newTestSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("7", "cashier")
	cookie := commitSession(t, sm, sess)

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	sess, err = sm.Load(context.Background(), req)
	require.NoError(t, err)
	sm.Destroy(sess)

	expired := commitSession(t, sm, sess)
	require.Empty(t, expired.Value)
	require.Less(t, expired.MaxAge, 0)

	n, err := client.Exists(context.Background(), "helios:session:"+cookie.Value).Result()
	require.NoError(t, err)
	require.Zero(t, n)
}
