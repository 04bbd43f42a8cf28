package partners

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

// PartnerForm carries create/update payloads.
type PartnerForm struct {
	Name     string `json:"name" validate:"required,max=255"`
	Company  string `json:"company" validate:"max=255"`
	Phone    string `json:"phone" validate:"max=64"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Address  string `json:"address" validate:"max=500"`
	Notes    string `json:"notes" validate:"max=2000"`
	IsActive bool   `json:"is_active"`
}

// CatalogItemForm carries catalog upserts.
type CatalogItemForm struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name" validate:"required,max=255"`
	Unit          string  `json:"unit" validate:"required,max=32"`
	ExchangeValue float64 `json:"exchange_value" validate:"gte=0"`
	IsActive      bool    `json:"is_active"`
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), rbac: rbacMW}
}

// MountRoutes attaches partner routes behind the manage_partners capability.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.CapManagePartners))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Get("/{id}/catalog", h.catalog)
		r.Post("/{id}/catalog", h.saveCatalogItem)
		r.Delete("/{id}/catalog/{itemID}", h.deleteCatalogItem)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	activeOnly := r.URL.Query().Get("active") == "true"

	items, total, err := h.service.List(r.Context(), r.URL.Query().Get("search"), activeOnly, limit, offset)
	if err != nil {
		h.logger.Error("list partners", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"partners": items, "total": total})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	partner, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, notFoundErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, partner)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	form, ok := h.decodeForm(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), fromForm(form))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	form, ok := h.decodeForm(w, r)
	if !ok {
		return
	}
	if err := h.service.Update(r.Context(), id, fromForm(form)); err != nil {
		httpx.RespondError(w, notFoundErr(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, notFoundErr(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	items, err := h.service.Catalog(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, notFoundErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) saveCatalogItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var form CatalogItemForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	saved, err := h.service.SaveCatalogItem(r.Context(), CatalogItem{
		ID:            form.ID,
		PartnerID:     id,
		Name:          form.Name,
		Unit:          form.Unit,
		ExchangeValue: form.ExchangeValue,
		IsActive:      form.IsActive,
	})
	if err != nil {
		httpx.RespondError(w, notFoundErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

func (h *Handler) deleteCatalogItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(w, r, "itemID")
	if !ok {
		return
	}
	if err := h.service.DeleteCatalogItem(r.Context(), id, itemID); err != nil {
		httpx.RespondError(w, notFoundErr(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid "+name)
		return 0, false
	}
	return id, true
}

func (h *Handler) decodeForm(w http.ResponseWriter, r *http.Request) (PartnerForm, bool) {
	var form PartnerForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return form, false
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return form, false
	}
	return form, true
}

func fromForm(form PartnerForm) Partner {
	return Partner{
		Name:     form.Name,
		Company:  form.Company,
		Phone:    form.Phone,
		Email:    form.Email,
		Address:  form.Address,
		Notes:    form.Notes,
		IsActive: form.IsActive,
	}
}

func notFoundErr(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return httpx.ErrNotFound
	}
	return err
}
