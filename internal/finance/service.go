package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/inkwell-erp/inkwell-erp/internal/shared"
)

// RepositoryPort abstracts cash book persistence.
type RepositoryPort interface {
	InsertEntry(ctx context.Context, entry Entry) (Entry, error)
	GetEntry(ctx context.Context, id int64) (Entry, error)
	ListEntries(ctx context.Context, limit, offset int, filters ListFilters) ([]Entry, int, error)
	MonthlySummary(ctx context.Context, from, to time.Time) ([]MonthlySummary, error)
}

// AuditPort records finance events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates cash book entries and summaries.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// EntryInput carries a new cash book line.
type EntryInput struct {
	Kind       EntryKind
	Category   string
	Amount     float64
	Reference  string
	Note       string
	OccurredAt time.Time
}

// RecordEntry validates and persists a cash book line.
func (s *Service) RecordEntry(ctx context.Context, input EntryInput) (Entry, error) {
	if !input.Kind.Valid() {
		return Entry{}, fmt.Errorf("%w: unknown kind %q", ErrValidation, input.Kind)
	}
	if strings.TrimSpace(input.Category) == "" {
		return Entry{}, fmt.Errorf("%w: category is required", ErrValidation)
	}
	if input.Amount <= 0 {
		return Entry{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	occurred := input.OccurredAt
	if occurred.IsZero() {
		occurred = s.now()
	}
	entry, err := s.repo.InsertEntry(ctx, Entry{
		Kind:       input.Kind,
		Category:   strings.TrimSpace(input.Category),
		Amount:     input.Amount,
		Reference:  input.Reference,
		Note:       input.Note,
		OccurredAt: occurred,
	})
	if err != nil {
		return Entry{}, err
	}
	s.recordAudit(ctx, "FINANCE_ENTRY", entry.ID, map[string]any{
		"kind":     string(entry.Kind),
		"category": entry.Category,
		"amount":   entry.Amount,
	})
	return entry, nil
}

// GetEntry returns a single cash book line.
func (s *Service) GetEntry(ctx context.Context, id int64) (Entry, error) {
	return s.repo.GetEntry(ctx, id)
}

// ListEntries returns a page of the cash book.
func (s *Service) ListEntries(ctx context.Context, limit, offset int, filters ListFilters) ([]Entry, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListEntries(ctx, limit, offset, filters)
}

// Summary aggregates income and expense per calendar month over the window.
// A zero To means "up to now".
func (s *Service) Summary(ctx context.Context, from, to time.Time) ([]MonthlySummary, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.AddDate(-1, 0, 0)
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: from is after to", ErrValidation)
	}
	return s.repo.MonthlySummary(ctx, from, to)
}

func (s *Service) recordAudit(ctx context.Context, action string, entryID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{
		Action:   action,
		Entity:   "finance",
		EntityID: fmt.Sprintf("%d", entryID),
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
