package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helios-erp/helios-erp/internal/platform/httpx"
)

// PermissionsHandler exposes the permission matrix over HTTP so the SPA can
// hide or disable controls up front instead of probing endpoints.
type PermissionsHandler struct {
	logger   *slog.Logger
	resolver *Resolver
	rbac     Middleware
}

// NewPermissionsHandler builds a PermissionsHandler.
func NewPermissionsHandler(logger *slog.Logger, resolver *Resolver, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, resolver: resolver, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/me", h.myPermissions)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(CapManageUsers))
		r.Get("/matrix", h.matrix)
	})
}

func (h *PermissionsHandler) myPermissions(w http.ResponseWriter, r *http.Request) {
	role, ok := CurrentRole(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	perms, err := h.resolver.GetPermissions(role)
	if err != nil {
		// A session holding a role without a table row is a config defect.
		h.logger.Error("resolve permissions", slog.Any("error", err), slog.String("role", string(role)))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"role":        role,
		"permissions": perms,
	})
}

func (h *PermissionsHandler) matrix(w http.ResponseWriter, r *http.Request) {
	matrix := make(map[Role]PermissionSet, len(Roles()))
	for _, role := range Roles() {
		perms, err := h.resolver.GetPermissions(role)
		if err != nil {
			h.logger.Error("resolve permissions", slog.Any("error", err), slog.String("role", string(role)))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		matrix[role] = perms
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": matrix})
}
