package barter

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/observability"
	"github.com/helios-erp/helios-erp/internal/platform/httpx"
	"github.com/helios-erp/helios-erp/internal/rbac"
	"github.com/helios-erp/helios-erp/internal/shared"
)

// Handler exposes the settlement endpoints.
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

// MountRoutes attaches barter routes behind the manage_barter capability.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.CapManageBarter))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
		r.Post("/preview", h.preview)
		r.Post("/", h.finalize)
	})
}

type lineItemReq struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name" validate:"required"`
	Quantity  int64           `json:"quantity"`
	UnitValue decimal.Decimal `json:"unit_value"`
}

type settlementReq struct {
	PartnerID     int64         `json:"partner_id"`
	ItemsGiven    []lineItemReq `json:"items_given" validate:"dive"`
	ItemsReceived []lineItemReq `json:"items_received" validate:"dive"`
	Notes         string        `json:"notes" validate:"max=2000"`
}

func toLineItems(reqs []lineItemReq) []LineItem {
	items := make([]LineItem, 0, len(reqs))
	for _, req := range reqs {
		items = append(items, LineItem{
			ProductID: req.ProductID,
			Name:      req.Name,
			Quantity:  req.Quantity,
			UnitValue: req.UnitValue,
		})
	}
	return items
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req settlementReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.Preview(toLineItems(req.ItemsGiven), toLineItems(req.ItemsReceived))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) finalize(w http.ResponseWriter, r *http.Request) {
	var req settlementReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actorID := currentActorID(r)
	tx, err := h.service.Finalize(r.Context(), FinalizeInput{
		PartnerID:     req.PartnerID,
		ItemsGiven:    toLineItems(req.ItemsGiven),
		ItemsReceived: toLineItems(req.ItemsReceived),
		Notes:         req.Notes,
		ActorID:       actorID,
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	h.metrics.BarterFinalized()
	httpx.JSON(w, http.StatusCreated, tx)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	partnerID, _ := strconv.ParseInt(r.URL.Query().Get("partner_id"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	txs, total, err := h.service.List(r.Context(), partnerID, limit, offset)
	if err != nil {
		h.logger.Error("list barter transactions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": txs, "total": total})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid transaction id")
		return
	}
	tx, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("get barter transaction", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tx)
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	var valErr *ValidationError
	switch {
	case errors.As(err, &valErr):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", valErr.Error())
	case errors.Is(err, ErrNoPartner), errors.Is(err, ErrEmptyExchange):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("barter operation", slog.Any("error", err))
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
