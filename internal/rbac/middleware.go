package rbac

import (
	"log/slog"
	"net/http"

	"github.com/helios-erp/helios-erp/internal/shared"
)

// Middleware wires capability checks into HTTP route groups.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// Require ensures the session user's role grants the capability. Requests
// without an authenticated session get 401, denied roles get 403.
func (m Middleware) Require(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := CurrentRole(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if !m.Resolver.HasPermission(role, capability) {
				if m.Logger != nil {
					m.Logger.Debug("capability denied",
						slog.String("role", string(role)),
						slog.String("capability", string(capability)))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentRole extracts the authenticated role from the request session.
func CurrentRole(r *http.Request) (Role, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.UserID() == "" {
		return "", false
	}
	return ParseRole(sess.Role())
}
