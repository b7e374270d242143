package products

import (
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	mdshared "github.com/inkwell-erp/inkwell-erp/internal/masterdata/shared"
	"github.com/inkwell-erp/inkwell-erp/internal/platform/httpx"
	"github.com/inkwell-erp/inkwell-erp/internal/shared"
)

// Handler manages product catalog endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     shared.Guard
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, guard shared.Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.CapMasterdataView))
		r.Get("/products", h.handleList)
		r.Get("/products/{id}", h.handleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.CapMasterdataEdit))
		r.Post("/products", h.handleCreate)
		r.Put("/products/{id}", h.handleUpdate)
		r.Delete("/products/{id}", h.handleDelete)
	})
}

type productRequest struct {
	SKU      string  `json:"sku" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Type     string  `json:"type" validate:"required,oneof=toner printer part"`
	Brand    string  `json:"brand"`
	Cost     float64 `json:"cost" validate:"gte=0"`
	Price    float64 `json:"price" validate:"gte=0"`
	IsActive *bool   `json:"is_active"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filters := mdshared.ParseFilters(r.URL.Query())
	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.respondError(w, "list products", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": list, "total": total, "page": filters.Page, "limit": filters.Limit})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Product ID", err.Error())
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	product, err := h.service.Create(r.Context(), req.toProduct())
	if err != nil {
		h.respondError(w, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Product ID", err.Error())
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := h.service.Update(r.Context(), id, req.toProduct()); err != nil {
		h.respondError(w, "update product", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Product ID", err.Error())
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, "delete product", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (productRequest, bool) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, false
	}
	return req, true
}

func (req productRequest) toProduct() Product {
	product := Product{
		SKU:      req.SKU,
		Name:     req.Name,
		Type:     req.Type,
		Brand:    req.Brand,
		Cost:     req.Cost,
		Price:    req.Price,
		IsActive: true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	return product
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, httpx.ErrNotFound),
		errors.Is(err, httpx.ErrConflict),
		errors.Is(err, httpx.ErrValidation):
	default:
		h.logger.Error(action, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("numeric id required")
	}
	return id, nil
}
