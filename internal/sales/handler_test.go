package sales

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/helios-erp/helios-erp/internal/rbac"
	"github.com/helios-erp/helios-erp/internal/shared"
)

func newTestSalesHandler(t *testing.T) *Handler {
	t.Helper()
	resolver := rbac.NewResolver()
	require.NoError(t, resolver.Validate())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(newMemoryRepo(), testCatalog(), &recordingStock{}, nil)
	return NewHandler(logger, svc, rbac.Middleware{Resolver: resolver, Logger: logger}, nil)
}

// checkoutAs issues the POS checkout request with a logged-in session of the
// given role, optionally carrying the personal price override grant.
func checkoutAs(t *testing.T, h *Handler, role string, granted bool, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	sessions := shared.NewSessionManager(nil, "helios_session", "test-secret", time.Hour, false)
	sess, err := sessions.Load(req.Context(), req)
	require.NoError(t, err)
	sess.SetUser("7", role)
	if granted {
		sess.Set(shared.SessionKeyCanOverridePrice, "1")
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	rec := httptest.NewRecorder()
	h.checkout(rec, req)
	return rec
}

const belowMinBody = `{"branch_id":1,"lines":[{"product_id":1,"quantity":1,"unit_price":90}]}`

func TestCheckoutOverrideNeedsPersonalGrant(t *testing.T) {
	h := newTestSalesHandler(t)

	// Capability without the per-user grant is not enough.
	rec := checkoutAs(t, h, "branch_manager", false, belowMinBody)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Price Override Required")
}

func TestCheckoutOverrideWithGrantSucceeds(t *testing.T) {
	h := newTestSalesHandler(t)

	rec := checkoutAs(t, h, "branch_manager", true, belowMinBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"overridden":true`)
}

func TestCheckoutGrantWithoutCapabilityIsRejected(t *testing.T) {
	h := newTestSalesHandler(t)

	// A cashier's role lacks override_prices, so a stray grant is inert.
	rec := checkoutAs(t, h, "cashier", true, belowMinBody)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
