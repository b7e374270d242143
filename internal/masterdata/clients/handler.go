package clients

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

// Handler manages client master data endpoints.
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
		r.Get("/clients", h.handleList)
		r.Get("/clients/{id}", h.handleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.CapMasterdataEdit))
		r.Post("/clients", h.handleCreate)
		r.Put("/clients/{id}", h.handleUpdate)
		r.Delete("/clients/{id}", h.handleDelete)
	})
}

type clientRequest struct {
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	IsActive    *bool  `json:"is_active"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filters := mdshared.ParseFilters(r.URL.Query())
	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.respondError(w, "list clients", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"clients": list, "total": total, "page": filters.Page, "limit": filters.Limit})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Client ID", err.Error())
		return
	}
	client, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get client", err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	client, err := h.service.Create(r.Context(), req.toClient())
	if err != nil {
		h.respondError(w, "create client", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, client)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Client ID", err.Error())
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := h.service.Update(r.Context(), id, req.toClient()); err != nil {
		h.respondError(w, "update client", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Client ID", err.Error())
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, "delete client", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (clientRequest, bool) {
	var req clientRequest
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

func (req clientRequest) toClient() Client {
	client := Client{
		Code:        req.Code,
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		IsActive:    true,
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}
	return client
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
