package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/helios-erp/helios-erp/internal/auth"
	"github.com/helios-erp/helios-erp/internal/barter"
	"github.com/helios-erp/helios-erp/internal/dashboard"
	"github.com/helios-erp/helios-erp/internal/installations"
	"github.com/helios-erp/helios-erp/internal/inventory"
	"github.com/helios-erp/helios-erp/internal/masterdata/branches"
	"github.com/helios-erp/helios-erp/internal/masterdata/products"
	"github.com/helios-erp/helios-erp/internal/observability"
	"github.com/helios-erp/helios-erp/internal/partners"
	"github.com/helios-erp/helios-erp/internal/rbac"
	"github.com/helios-erp/helios-erp/internal/sales"
	"github.com/helios-erp/helios-erp/internal/shared"
	"github.com/helios-erp/helios-erp/internal/users"
	"github.com/helios-erp/helios-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler          *auth.Handler
	PermissionsHandler   *rbac.PermissionsHandler
	DashboardHandler     *dashboard.Handler
	ProductsHandler      *products.Handler
	BranchesHandler      *branches.Handler
	InventoryHandler     *inventory.Handler
	SalesHandler         *sales.Handler
	PartnersHandler      *partners.Handler
	BarterHandler        *barter.Handler
	InstallationsHandler *installations.Handler
	UsersHandler         *users.Handler
	JobHandler           *jobs.Handler
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router with Helios defaults. All business
// endpoints sit under /api; every group past /api/auth assumes the session
// middleware has already resolved the caller.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", params.AuthHandler.MountRoutes)
		api.Route("/permissions", params.PermissionsHandler.MountRoutes)
		api.Route("/dashboard", params.DashboardHandler.MountRoutes)
		api.Route("/products", params.ProductsHandler.MountRoutes)
		api.Route("/branches", params.BranchesHandler.MountRoutes)
		api.Route("/inventory", params.InventoryHandler.MountRoutes)
		api.Route("/sales", params.SalesHandler.MountRoutes)
		api.Route("/partners", params.PartnersHandler.MountRoutes)
		api.Route("/barter", params.BarterHandler.MountRoutes)
		api.Route("/installations", params.InstallationsHandler.MountRoutes)
		api.Route("/users", params.UsersHandler.MountRoutes)
		if params.JobHandler != nil {
			api.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
