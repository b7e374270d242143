package deliveries

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/inkwell-erp/inkwell-erp/internal/platform/httpx"
	"github.com/inkwell-erp/inkwell-erp/internal/shared"
)

// Handler manages delivery endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     shared.Guard
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard shared.Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers delivery routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.CapDeliveriesView))
		r.Get("/deliveries", h.handleList)
		r.Get("/deliveries/{id}", h.handleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.CapDeliveriesEdit))
		r.Post("/deliveries", h.handleRecord)
	})
}

type recordDeliveryRequest struct {
	Number     string                `json:"number"`
	OrderID    int64                 `json:"order_id" validate:"required,gt=0"`
	ReceivedAt time.Time             `json:"received_at"`
	Note       string                `json:"note"`
	Lines      []deliveryLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type deliveryLineRequest struct {
	ProductID int64                 `json:"product_id" validate:"required,gt=0"`
	Qty       int                   `json:"qty" validate:"required,gt=0"`
	Units     []deliveryUnitRequest `json:"units" validate:"dive"`
}

type deliveryUnitRequest struct {
	SerialNumber *string `json:"serial_number"`
	BatchNumber  *string `json:"batch_number"`
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req recordDeliveryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := RecordDeliveryInput{Number: req.Number, OrderID: req.OrderID, ReceivedAt: req.ReceivedAt, Note: req.Note}
	for _, line := range req.Lines {
		li := LineInput{ProductID: line.ProductID, Qty: line.Qty}
		for _, unit := range line.Units {
			li.Units = append(li.Units, UnitInput{SerialNumber: unit.SerialNumber, BatchNumber: unit.BatchNumber})
		}
		input.Lines = append(input.Lines, li)
	}
	delivery, err := h.service.RecordDelivery(r.Context(), input)
	if err != nil {
		h.respondError(w, "record delivery", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, delivery)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Delivery ID", "numeric id required")
		return
	}
	delivery, lines, err := h.service.GetDelivery(r.Context(), id)
	if err != nil {
		h.respondError(w, "get delivery", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"delivery": delivery, "lines": lines})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	orderID, _ := strconv.ParseInt(r.URL.Query().Get("order_id"), 10, 64)
	filters := ListFilters{
		OrderID: orderID,
		Search:  r.URL.Query().Get("search"),
		SortBy:  r.URL.Query().Get("sort"),
		SortDir: r.URL.Query().Get("dir"),
	}
	items, total, err := h.service.ListDeliveries(r.Context(), limit, offset, filters)
	if err != nil {
		h.respondError(w, "list deliveries", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deliveries": items, "total": total, "limit": limit, "offset": offset})
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrOrderNotApproved):
		httpx.Problem(w, http.StatusConflict, "Order Not Approved", err.Error())
	case IsDuplicate(err):
		httpx.Problem(w, http.StatusConflict, "Duplicate Delivery", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
