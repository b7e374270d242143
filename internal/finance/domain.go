package finance

import (
	"fmt"
	"time"

	"github.com/inkwell-erp/inkwell-erp/internal/platform/httpx"
)

// EntryKind partitions the cash book.
type EntryKind string

const (
	KindIncome  EntryKind = "INCOME"
	KindExpense EntryKind = "EXPENSE"
)

// Valid reports whether the kind is one of the known values.
func (k EntryKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Entry is a single cash book line: toner sales, printer lease income,
// purchase costs, repairs, and the like.
type Entry struct {
	ID         int64     `json:"id"`
	Kind       EntryKind `json:"kind"`
	Category   string    `json:"category"`
	Amount     float64   `json:"amount"`
	Reference  string    `json:"reference,omitempty"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// MonthlySummary aggregates the cash book per calendar month.
type MonthlySummary struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// ListFilters narrows the cash book listing.
type ListFilters struct {
	Kind     EntryKind
	Category string
	From     time.Time
	To       time.Time
	SortDir  string
}

// Sentinels wrap the transport-level set so the handler can hand status
// mapping to httpx.RespondError.
var (
	ErrNotFound   = fmt.Errorf("finance: %w", httpx.ErrNotFound)
	ErrValidation = fmt.Errorf("finance: %w", httpx.ErrValidation)
)
