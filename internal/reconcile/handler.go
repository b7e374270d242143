package reconcile

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/inkwell-erp/inkwell-erp/internal/observability"
	"github.com/inkwell-erp/inkwell-erp/internal/platform/httpx"
	"github.com/inkwell-erp/inkwell-erp/internal/shared"
)

// Handler exposes the reconciliation API.
type Handler struct {
	logger    *slog.Logger
	engine    *Engine
	ledger    *Ledger
	cache     *ReportCache
	metrics   *observability.Metrics
	guard     shared.Guard
	validator *validator.Validate
	reports   singleflight.Group
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, engine *Engine, ledger *Ledger, cache *ReportCache, metrics *observability.Metrics, guard shared.Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		engine:    engine,
		ledger:    ledger,
		cache:     cache,
		metrics:   metrics,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers reconciliation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.CapReconcileView))
		r.Get("/orders/{id}/report", h.handleReport)
		r.Get("/orders/{id}/links", h.handleOrderLinks)
		r.Get("/deliveries/{id}/links", h.handleDeliveryLinks)
		r.Post("/links/check", h.handleCheckLink)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.CapReconcileEdit))
		r.Post("/orders/{id}/reconcile", h.handleReconcile)
		r.Post("/links", h.handleProposeLink)
		r.Post("/links/{id}/confirm", h.handleConfirmLink)
		r.Post("/links/{id}/dispute", h.handleDisputeLink)
		r.Delete("/links/{id}", h.handleRemoveLink)
	})
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Order ID", err.Error())
		return
	}
	key, err := h.cache.Key(r.Context(), orderID)
	if err != nil {
		h.serverError(w, "resolve cache key", err)
		return
	}
	// Concurrent report requests for one order share a single rebuild.
	result, err, _ := h.reports.Do(key, func() (any, error) {
		return h.cache.Fetch(r.Context(), key, func(ctx context.Context) (ReconciliationReport, error) {
			defer h.observeRun()
			return h.engine.Reconcile(ctx, orderID)
		})
	})
	if err != nil {
		h.respondError(w, "build report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Order ID", err.Error())
		return
	}
	report, err := h.engine.Reconcile(r.Context(), orderID)
	if err != nil {
		h.respondError(w, "reconcile order", err)
		return
	}
	h.observeRun()
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("bump report cache", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, report)
}

type proposeLinkRequest struct {
	OrderedUnitID   int64 `json:"ordered_unit_id" validate:"required,gt=0"`
	DeliveredUnitID int64 `json:"delivered_unit_id" validate:"required,gt=0"`
}

func (h *Handler) handleProposeLink(w http.ResponseWriter, r *http.Request) {
	var req proposeLinkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.engine.ProposeLink(r.Context(), req.OrderedUnitID, req.DeliveredUnitID)
	if err != nil {
		h.respondError(w, "propose link", err)
		return
	}
	if !result.Validation.Valid {
		httpx.JSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("bump report cache", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) handleCheckLink(w http.ResponseWriter, r *http.Request) {
	var req proposeLinkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	validation, err := h.engine.Validate(r.Context(), req.OrderedUnitID, req.DeliveredUnitID)
	if err != nil {
		h.respondError(w, "check link", err)
		return
	}
	httpx.JSON(w, http.StatusOK, validation)
}

func (h *Handler) handleConfirmLink(w http.ResponseWriter, r *http.Request) {
	h.mutateLink(w, r, "confirm link", h.engine.ConfirmLink)
}

func (h *Handler) handleDisputeLink(w http.ResponseWriter, r *http.Request) {
	h.mutateLink(w, r, "dispute link", h.engine.DisputeLink)
}

func (h *Handler) mutateLink(w http.ResponseWriter, r *http.Request, action string, fn func(context.Context, int64) (UnitLink, error)) {
	linkID, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Link ID", err.Error())
		return
	}
	link, err := fn(r.Context(), linkID)
	if err != nil {
		h.respondError(w, action, err)
		return
	}
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("bump report cache", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, link)
}

func (h *Handler) handleRemoveLink(w http.ResponseWriter, r *http.Request) {
	linkID, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Link ID", err.Error())
		return
	}
	if err := h.engine.RemoveLink(r.Context(), linkID); err != nil {
		h.respondError(w, "remove link", err)
		return
	}
	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("bump report cache", slog.Any("error", err))
	}
	httpx.NoContent(w)
}

func (h *Handler) handleOrderLinks(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Order ID", err.Error())
		return
	}
	links, err := h.engine.LinksForOrder(r.Context(), orderID)
	if err != nil {
		h.respondError(w, "list order links", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"links": links})
}

func (h *Handler) handleDeliveryLinks(w http.ResponseWriter, r *http.Request) {
	deliveryID, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Delivery ID", err.Error())
		return
	}
	links, err := h.engine.LinksForDelivery(r.Context(), deliveryID)
	if err != nil {
		h.respondError(w, "list delivery links", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"links": links})
}

func (h *Handler) observeRun() {
	if h.metrics != nil {
		h.metrics.ObserveReconcileRun()
	}
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrAlreadyLinked):
		httpx.Problem(w, http.StatusConflict, "Unit Already Linked", err.Error())
	case errors.Is(err, ErrConcurrencyConflict):
		httpx.Problem(w, http.StatusConflict, "Concurrent Update", err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrConfirmedLinkImmutable):
		httpx.Problem(w, http.StatusConflict, "Invalid Link State", err.Error())
	case errors.Is(err, ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Quantity", err.Error())
	default:
		h.serverError(w, action, err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, action string, err error) {
	h.logger.Error(action, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("numeric id required")
	}
	return id, nil
}
