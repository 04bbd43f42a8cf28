package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/helios-erp/helios-erp/internal/app"
	"github.com/helios-erp/helios-erp/internal/auth"
	"github.com/helios-erp/helios-erp/internal/barter"
	"github.com/helios-erp/helios-erp/internal/dashboard"
	"github.com/helios-erp/helios-erp/internal/installations"
	"github.com/helios-erp/helios-erp/internal/inventory"
	"github.com/helios-erp/helios-erp/internal/masterdata/branches"
	"github.com/helios-erp/helios-erp/internal/masterdata/products"
	"github.com/helios-erp/helios-erp/internal/observability"
	"github.com/helios-erp/helios-erp/internal/partners"
	"github.com/helios-erp/helios-erp/internal/platform/cache"
	"github.com/helios-erp/helios-erp/internal/platform/db"
	"github.com/helios-erp/helios-erp/internal/rbac"
	"github.com/helios-erp/helios-erp/internal/sales"
	"github.com/helios-erp/helios-erp/internal/shared"
	"github.com/helios-erp/helios-erp/internal/users"
	"github.com/helios-erp/helios-erp/jobs"
)

// stockKeeper bridges the inventory service into the sales checkout path.
type stockKeeper struct {
	inv *inventory.Service
}

func (s stockKeeper) Deduct(ctx context.Context, branchID, productID int64, qty float64, actorID int64) error {
	_, err := s.inv.Deduct(ctx, branchID, productID, qty, actorID)
	if errors.Is(err, inventory.ErrNegativeStock) {
		return sales.ErrInsufficientStock
	}
	return err
}

func (s stockKeeper) Restock(ctx context.Context, branchID, productID int64, qty float64, actorID int64) error {
	_, err := s.inv.Adjust(ctx, inventory.AdjustInput{BranchID: branchID, ProductID: productID, Delta: qty, ActorID: actorID})
	return err
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	resolver := rbac.NewResolver()
	if err := resolver.Validate(); err != nil {
		logger.Error("permission table invalid", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 10, MaxConnLifetime: time.Hour})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "helios_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	rbacMiddleware := rbac.Middleware{Resolver: resolver, Logger: logger}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	userService := users.NewService(users.NewRepository(pool), auditLogger)
	productService := products.NewService(products.NewRepository(pool))
	branchService := branches.NewService(branches.NewRepository(pool))
	inventoryService := inventory.NewService(inventory.NewRepository(pool), auditLogger, jobs.NewShortageNotifier(jobClient))
	salesService := sales.NewService(sales.NewRepository(pool), productService, stockKeeper{inv: inventoryService}, auditLogger)
	partnerService := partners.NewService(partners.NewRepository(pool))
	barterService := barter.NewService(barter.NewRepository(pool), auditLogger)
	installService := installations.NewService(installations.NewRepository(pool), auditLogger)

	dashboardService, err := dashboard.NewService(pool, redisClient, cfg.CurrencyCode)
	if err != nil {
		logger.Error("init dashboard", slog.Any("error", err))
		os.Exit(1)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,

		AuthHandler:          auth.NewHandler(logger, userService, resolver, sessionManager, csrfManager, metrics),
		PermissionsHandler:   rbac.NewPermissionsHandler(logger, resolver, rbacMiddleware),
		DashboardHandler:     dashboard.NewHandler(logger, dashboardService, rbacMiddleware),
		ProductsHandler:      products.NewHandler(logger, productService, rbacMiddleware),
		BranchesHandler:      branches.NewHandler(logger, branchService, rbacMiddleware),
		InventoryHandler:     inventory.NewHandler(logger, inventoryService, rbacMiddleware),
		SalesHandler:         sales.NewHandler(logger, salesService, rbacMiddleware, metrics),
		PartnersHandler:      partners.NewHandler(logger, partnerService, rbacMiddleware),
		BarterHandler:        barter.NewHandler(logger, barterService, rbacMiddleware, metrics),
		InstallationsHandler: installations.NewHandler(logger, installService, rbacMiddleware),
		UsersHandler:         users.NewHandler(logger, userService, rbacMiddleware),
		JobHandler:           jobs.NewHandler(inspector, logger),
		Metrics:              metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
