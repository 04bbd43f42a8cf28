package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/helios-erp/helios-erp/internal/observability"
	"github.com/helios-erp/helios-erp/internal/platform/httpx"
	"github.com/helios-erp/helios-erp/internal/rbac"
	"github.com/helios-erp/helios-erp/internal/shared"
	"github.com/helios-erp/helios-erp/internal/users"
)

// Handler owns login and logout. On login it rotates the session, stores the
// user id and role, and hands the client a CSRF token plus the landing path
// for the role. Cashiers land straight on the POS screen.
type Handler struct {
	logger   *slog.Logger
	users    *users.Service
	resolver *rbac.Resolver
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
	metrics  *observability.Metrics
	validate *validator.Validate
}

// NewHandler constructs a Handler. Metrics may be nil.
func NewHandler(logger *slog.Logger, userSvc *users.Service, resolver *rbac.Resolver, sessions *shared.SessionManager, csrf *shared.CSRFManager, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		users:    userSvc,
		resolver: resolver,
		sessions: sessions,
		csrf:     csrf,
		metrics:  metrics,
		validate: validator.New(),
	}
}

// MountRoutes attaches /login and /logout. Login is reachable without a
// session; logout needs one.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/session", h.session)
}

type loginReq struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

type loginResp struct {
	UserID      int64               `json:"user_id"`
	Name        string              `json:"name"`
	Role        rbac.Role           `json:"role"`
	Permissions rbac.PermissionSet  `json:"permissions"`
	LandingPath string              `json:"landing_path"`
	CSRFToken   string              `json:"csrf_token"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			h.metrics.LoginFailed()
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid username or password")
			return
		}
		h.logger.Error("authenticate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	perms, err := h.resolver.GetPermissions(user.Role)
	if err != nil {
		h.logger.Error("resolve permissions", slog.Any("error", err), slog.String("role", string(user.Role)))
		httpx.RespondError(w, err)
		return
	}

	// Rotate the request session in place; the session middleware performs
	// the single commit (and Set-Cookie) when the response starts.
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("login reached without session middleware")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "session unavailable")
		return
	}
	sess.Renew()
	sess.SetUser(strconv.FormatInt(user.ID, 10), string(user.Role))
	if user.CanOverridePrice {
		sess.Set(shared.SessionKeyCanOverridePrice, "1")
	}
	token, err := h.csrf.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("issue csrf token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	h.logger.Info("login", slog.Int64("user_id", user.ID), slog.String("role", string(user.Role)))
	httpx.JSON(w, http.StatusOK, loginResp{
		UserID:      user.ID,
		Name:        user.Name,
		Role:        user.Role,
		Permissions: perms,
		LandingPath: LandingPath(user.Role),
		CSRFToken:   token,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
		return
	}
	// Marking the session destroyed is enough; the middleware commit deletes
	// the Redis entry and expires the cookie.
	h.sessions.Destroy(sess)
	w.WriteHeader(http.StatusNoContent)
}

// session reports who is logged in, for front-end bootstrapping.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	role, ok := rbac.CurrentRole(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
		return
	}
	perms, err := h.resolver.GetPermissions(role)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	userID, _ := strconv.ParseInt(sess.UserID(), 10, 64)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":      userID,
		"role":         role,
		"permissions":  perms,
		"landing_path": LandingPath(role),
	})
}

// LandingPath is where the front end sends a role after login. Cashiers are
// POS-only operators, so they skip the dashboard entirely.
func LandingPath(role rbac.Role) string {
	if role == rbac.RoleCashier {
		return "/pos"
	}
	return "/dashboard"
}
