package printers

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

// Handler manages printer fleet endpoints.
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
		r.Get("/printers", h.handleList)
		r.Get("/printers/{id}", h.handleGet)
		r.Get("/printers/{id}/assignments", h.handleHistory)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.CapMasterdataEdit))
		r.Post("/printers", h.handleCreate)
		r.Put("/printers/{id}", h.handleUpdate)
		r.Delete("/printers/{id}", h.handleDelete)
		r.Post("/printers/{id}/assign", h.handleAssign)
		r.Post("/printers/{id}/unassign", h.handleUnassign)
	})
}

type printerRequest struct {
	SerialNumber string `json:"serial_number" validate:"required"`
	ProductID    int64  `json:"product_id" validate:"required,gt=0"`
	Location     string `json:"location"`
	Note         string `json:"note"`
	IsActive     *bool  `json:"is_active"`
}

type assignRequest struct {
	ClientID int64 `json:"client_id" validate:"required,gt=0"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filters := mdshared.ParseFilters(r.URL.Query())
	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.respondError(w, "list printers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"printers": list, "total": total, "page": filters.Page, "limit": filters.Limit})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Printer ID", err.Error())
		return
	}
	printer, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get printer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, printer)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Printer ID", err.Error())
		return
	}
	history, err := h.service.History(r.Context(), id)
	if err != nil {
		h.respondError(w, "printer history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"printer_id": id, "assignments": history})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	printer, err := h.service.Create(r.Context(), req.toPrinter())
	if err != nil {
		h.respondError(w, "create printer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, printer)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Printer ID", err.Error())
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := h.service.Update(r.Context(), id, req.toPrinter()); err != nil {
		h.respondError(w, "update printer", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Printer ID", err.Error())
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, "delete printer", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Printer ID", err.Error())
		return
	}
	var req assignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	assignment, err := h.service.Assign(r.Context(), id, req.ClientID)
	if err != nil {
		h.respondError(w, "assign printer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, assignment)
}

func (h *Handler) handleUnassign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Printer ID", err.Error())
		return
	}
	if err := h.service.Unassign(r.Context(), id); err != nil {
		h.respondError(w, "unassign printer", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (printerRequest, bool) {
	var req printerRequest
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

func (req printerRequest) toPrinter() Printer {
	printer := Printer{
		SerialNumber: req.SerialNumber,
		ProductID:    req.ProductID,
		Location:     req.Location,
		Note:         req.Note,
		IsActive:     true,
	}
	if req.IsActive != nil {
		printer.IsActive = *req.IsActive
	}
	return printer
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
