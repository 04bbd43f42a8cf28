package sales

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
)

// Handler exposes the POS endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     rbac.Middleware
	metrics  *observability.Metrics
}

// NewHandler constructs a Handler. Metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		rbac:     rbacMW,
		metrics:  metrics,
	}
}

// MountRoutes attaches sales routes. Checkout needs use_pos; listing and
// status changes need create_sales (the back-office sales capability).
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.CapUsePOS))
		r.Post("/", h.checkout)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.CapCreateSales))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
		r.Get("/{id}/overrides", h.overrides)
		r.Post("/{id}/deliver", h.deliver)
		r.Post("/{id}/cancel", h.cancel)
	})
}

type checkoutLineReq struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required"`
	UnitPrice float64 `json:"unit_price"`
}

type checkoutReq struct {
	BranchID     int64             `json:"branch_id" validate:"required,gt=0"`
	CustomerName string            `json:"customer_name" validate:"max=200"`
	CustomerTier string            `json:"customer_tier" validate:"omitempty,oneof=retail wholesale partner"`
	Lines        []checkoutLineReq `json:"lines" validate:"required,min=1,dive"`
	Notes        string            `json:"notes" validate:"max=2000"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	lines := make([]LineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, LineInput{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}

	sale, err := h.service.Checkout(r.Context(), CheckoutInput{
		BranchID:      req.BranchID,
		CashierID:     currentActorID(r),
		CustomerName:  req.CustomerName,
		CustomerTier:  CustomerTier(req.CustomerTier),
		Lines:         lines,
		Notes:         req.Notes,
		AllowOverride: h.allowOverride(r),
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.metrics.SaleCompleted()
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	branchID, _ := strconv.ParseInt(r.URL.Query().Get("branch_id"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	var status *Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := Status(raw)
		status = &st
	}

	sales, total, err := h.service.List(r.Context(), branchID, status, limit, offset)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales": sales, "total": total})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid sale id")
		return
	}
	sale, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) overrides(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid sale id")
		return
	}
	logs, err := h.service.Overrides(r.Context(), id)
	if err != nil {
		h.logger.Error("list price overrides", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"overrides": logs})
}

func (h *Handler) deliver(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusDelivered)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusCancelled)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, to Status) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid sale id")
		return
	}
	sale, err := h.service.Transition(r.Context(), id, to, currentActorID(r))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

// allowOverride is true only when the role carries the override capability
// AND the user record grants it personally; the grant is stamped into the
// session at login.
func (h *Handler) allowOverride(r *http.Request) bool {
	role, ok := rbac.CurrentRole(r)
	if !ok || !h.rbac.Resolver.HasPermission(role, rbac.CapOverridePrices) {
		return false
	}
	sess := shared.SessionFromContext(r.Context())
	return sess != nil && sess.Get(shared.SessionKeyCanOverridePrice) == "1"
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	var lineErr *LineError
	switch {
	case errors.Is(err, ErrBelowMinPrice):
		httpx.Problem(w, http.StatusForbidden, "Price Override Required", err.Error())
	case errors.Is(err, ErrInsufficientStock):
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	case errors.As(err, &lineErr), errors.Is(err, ErrEmptySale), errors.Is(err, ErrBadTier):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrBadTransition):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		h.logger.Error("sales operation", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func currentActorID(r *http.Request) int64 {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.UserID(), 10, 64)
	return id
}
