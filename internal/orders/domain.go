package orders

import (
	"errors"
	"time"

	"github.com/inkwell-erp/inkwell-erp/internal/reconcile"
)

// Order workflow statuses. Once approved, fulfillment progress is carried by
// the engine-derived FulfillmentStatus on the same row.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusApproved  Status = "APPROVED"
	StatusCancelled Status = "CANCELLED"
)

// Order is a purchase order toward a supplier.
type Order struct {
	ID                int64                 `json:"id"`
	Number            string                `json:"number"`
	SupplierID        int64                 `json:"supplier_id"`
	Status            Status                `json:"status"`
	FulfillmentStatus reconcile.OrderStatus `json:"fulfillment_status"`
	Note              string                `json:"note,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// LineItem is one product row on an order.
type LineItem struct {
	ID         int64   `json:"id"`
	OrderID    int64   `json:"order_id"`
	ProductID  int64   `json:"product_id"`
	OrderedQty int     `json:"ordered_qty"`
	UnitPrice  float64 `json:"unit_price"`
}

// ListItem is the flattened row returned by listings.
type ListItem struct {
	ID                int64                 `json:"id"`
	Number            string                `json:"number"`
	SupplierID        int64                 `json:"supplier_id"`
	SupplierName      string                `json:"supplier_name"`
	Status            Status                `json:"status"`
	FulfillmentStatus reconcile.OrderStatus `json:"fulfillment_status"`
	TotalQty          int                   `json:"total_qty"`
	CreatedAt         time.Time             `json:"created_at"`
}

// ListFilters narrows order listings.
type ListFilters struct {
	Status     string
	SupplierID int64
	Search     string
	SortBy     string
	SortDir    string
}

var (
	// ErrInvalidState occurs when action violates status workflow.
	ErrInvalidState = errors.New("orders: invalid state transition")
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("orders: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("orders: invalid input")
)
