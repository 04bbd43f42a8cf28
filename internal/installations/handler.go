package installations

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/helios-erp/helios-erp/internal/platform/httpx"
	"github.com/helios-erp/helios-erp/internal/rbac"
	"github.com/helios-erp/helios-erp/internal/shared"
)

// Handler exposes installation scheduling and lifecycle endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), rbac: rbacMW}
}

// MountRoutes attaches installation routes behind manage_installations.
// Installers reach their queue and progress updates through the same
// capability; the installer role carries it.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.CapManageInstallations))
		r.Get("/", h.list)
		r.Post("/", h.schedule)
		r.Get("/{id}", h.show)
		r.Post("/{id}/start", h.start)
		r.Post("/{id}/complete", h.complete)
		r.Post("/{id}/cancel", h.cancel)
	})
}

type itemReq struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Name      string  `json:"name" validate:"required,max=255"`
	Quantity  float64 `json:"quantity" validate:"required"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

type scheduleReq struct {
	BranchID     int64     `json:"branch_id" validate:"required,gt=0"`
	InstallerID  int64     `json:"installer_id" validate:"required,gt=0"`
	CustomerName string    `json:"customer_name" validate:"required,max=200"`
	Address      string    `json:"address" validate:"required,max=500"`
	Phone        string    `json:"phone" validate:"max=64"`
	Items        []itemReq `json:"items" validate:"dive"`
	LaborCost    float64   `json:"labor_cost" validate:"gte=0"`
	ScheduledFor time.Time `json:"scheduled_for" validate:"required"`
	Notes        string    `json:"notes" validate:"max=2000"`
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	items := make([]ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ItemInput{ProductID: it.ProductID, Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}

	created, err := h.service.Schedule(r.Context(), ScheduleInput{
		BranchID:     req.BranchID,
		InstallerID:  req.InstallerID,
		CustomerName: req.CustomerName,
		Address:      req.Address,
		Phone:        req.Phone,
		Items:        items,
		LaborCost:    req.LaborCost,
		ScheduledFor: req.ScheduledFor,
		Notes:        req.Notes,
		ActorID:      currentActorID(r),
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	branchID, _ := strconv.ParseInt(r.URL.Query().Get("branch_id"), 10, 64)
	installerID, _ := strconv.ParseInt(r.URL.Query().Get("installer_id"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	var status *Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := Status(raw)
		status = &st
	}

	jobs, total, err := h.service.List(r.Context(), branchID, installerID, status, limit, offset)
	if err != nil {
		h.logger.Error("list installations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"installations": jobs, "total": total})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid installation id")
		return
	}
	inst, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inst)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request)    { h.transition(w, r, StatusInProgress) }
func (h *Handler) complete(w http.ResponseWriter, r *http.Request) { h.transition(w, r, StatusCompleted) }
func (h *Handler) cancel(w http.ResponseWriter, r *http.Request)   { h.transition(w, r, StatusCancelled) }

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, to Status) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid installation id")
		return
	}
	inst, err := h.service.Transition(r.Context(), id, to, currentActorID(r))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inst)
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadItem), errors.Is(err, ErrNegativeLabor):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrBadTransition):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		h.logger.Error("installation operation", slog.Any("error", err))
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
