package rbac_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/helios-erp/helios-erp/internal/rbac"
	"github.com/helios-erp/helios-erp/internal/shared"
)

func requestWithRole(t *testing.T, role string) *http.Request {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := shared.NewSessionManager(client, "test_session", "test-secret", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(context.Background(), req)
	require.NoError(t, err)
	if role != "" {
		sess.SetUser("42", role)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestRequireGranted(t *testing.T) {
	mw := rbac.Middleware{Resolver: rbac.NewResolver()}

	called := false
	handler := mw.Require(rbac.CapUsePOS)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithRole(t, "cashier"))
	require.True(t, called)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestRequireDenied(t *testing.T) {
	mw := rbac.Middleware{Resolver: rbac.NewResolver()}

	handler := mw.Require(rbac.CapManageBranches)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithRole(t, "cashier"))
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireNoSessionUser(t *testing.T) {
	mw := rbac.Middleware{Resolver: rbac.NewResolver()}

	handler := mw.Require(rbac.CapUsePOS)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithRole(t, ""))
	require.Equal(t, http.StatusUnauthorized, res.Code)
}
