package finance

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

// Handler manages cash book endpoints.
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
		r.Use(h.guard.Require(shared.CapFinanceView))
		r.Get("/finance/entries", h.handleList)
		r.Get("/finance/entries/{id}", h.handleGet)
		r.Get("/finance/summary", h.handleSummary)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(shared.CapFinanceEdit))
		r.Post("/finance/entries", h.handleCreate)
	})
}

type entryRequest struct {
	Kind       string  `json:"kind" validate:"required,oneof=INCOME EXPENSE"`
	Category   string  `json:"category" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Reference  string  `json:"reference"`
	Note       string  `json:"note"`
	OccurredAt string  `json:"occurred_at"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := EntryInput{
		Kind:      EntryKind(req.Kind),
		Category:  req.Category,
		Amount:    req.Amount,
		Reference: req.Reference,
		Note:      req.Note,
	}
	if req.OccurredAt != "" {
		occurred, err := time.Parse("2006-01-02", req.OccurredAt)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "occurred_at must be YYYY-MM-DD")
			return
		}
		input.OccurredAt = occurred
	}
	entry, err := h.service.RecordEntry(r.Context(), input)
	if err != nil {
		h.respondError(w, "record entry", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Entry ID", "numeric id required")
		return
	}
	entry, err := h.service.GetEntry(r.Context(), id)
	if err != nil {
		h.respondError(w, "get entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	filters := ListFilters{
		Kind:     EntryKind(r.URL.Query().Get("kind")),
		Category: r.URL.Query().Get("category"),
		SortDir:  r.URL.Query().Get("dir"),
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err := time.Parse("2006-01-02", raw); err == nil {
			filters.From = from
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err := time.Parse("2006-01-02", raw); err == nil {
			filters.To = to
		}
	}
	entries, total, err := h.service.ListEntries(r.Context(), limit, offset, filters)
	if err != nil {
		h.respondError(w, "list entries", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries, "total": total})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "to must be YYYY-MM-DD")
			return
		}
		to = parsed
	}
	summary, err := h.service.Summary(r.Context(), from, to)
	if err != nil {
		h.respondError(w, "finance summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"months": summary})
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, httpx.ErrNotFound), errors.Is(err, httpx.ErrValidation):
	default:
		h.logger.Error(action, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
