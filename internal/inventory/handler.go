package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/helios-erp/helios-erp/internal/platform/httpx"
	"github.com/helios-erp/helios-erp/internal/rbac"
	"github.com/helios-erp/helios-erp/internal/shared"
)

// Handler exposes stock records and the shortage workflow over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		rbac:     rbacMW,
	}
}

// MountRoutes attaches inventory routes. Stock mutations and shortage
// requests need manage_inventory; moving a shortage forward needs
// approve_shortages.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.CapManageInventory))
		r.Post("/adjust", h.adjust)
		r.Get("/shortages", h.listShortages)
		r.Post("/shortages", h.requestShortage)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.CapApproveShortages))
		r.Post("/shortages/{id}/advance", h.advanceShortage)
	})
}

type adjustReq struct {
	BranchID  int64    `json:"branch_id" validate:"required,gt=0"`
	ProductID int64    `json:"product_id" validate:"required,gt=0"`
	Delta     float64  `json:"delta"`
	MinLevel  *float64 `json:"min_stock_level"`
}

type shortageReq struct {
	BranchID  int64   `json:"branch_id" validate:"required,gt=0"`
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"required"`
	Notes     string  `json:"notes" validate:"max=2000"`
}

type advanceReq struct {
	Status string `json:"status" validate:"required,oneof=approved shipped received"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	branchID, _ := strconv.ParseInt(r.URL.Query().Get("branch_id"), 10, 64)
	lowOnly := r.URL.Query().Get("low_stock") == "true"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, total, err := h.service.List(r.Context(), branchID, lowOnly, limit, offset)
	if err != nil {
		h.logger.Error("list inventory", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"records": records, "total": total})
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rec, err := h.service.Adjust(r.Context(), AdjustInput{
		BranchID:  req.BranchID,
		ProductID: req.ProductID,
		Delta:     req.Delta,
		MinLevel:  req.MinLevel,
		ActorID:   currentActorID(r),
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) requestShortage(w http.ResponseWriter, r *http.Request) {
	var req shortageReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	created, err := h.service.RequestShortage(r.Context(), req.BranchID, req.ProductID, req.Quantity, req.Notes, currentActorID(r))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listShortages(w http.ResponseWriter, r *http.Request) {
	branchID, _ := strconv.ParseInt(r.URL.Query().Get("branch_id"), 10, 64)
	var status *ShortageStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := ShortageStatus(raw)
		status = &st
	}

	reqs, err := h.service.ListShortages(r.Context(), branchID, status)
	if err != nil {
		h.logger.Error("list shortages", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"shortages": reqs})
}

func (h *Handler) advanceShortage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid shortage id")
		return
	}
	var req advanceReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	updated, err := h.service.AdvanceShortage(r.Context(), id, ShortageStatus(req.Status), currentActorID(r))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNegativeStock), errors.Is(err, ErrBadQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrBadTransition):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		h.logger.Error("inventory operation", slog.Any("error", err))
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
