package reconcile

import (
	"errors"
	"time"
)

// Individual unit lifecycle statuses.
type UnitStatus string

const (
	UnitStatusPending   UnitStatus = "PENDING"
	UnitStatusLinked    UnitStatus = "LINKED"
	UnitStatusCancelled UnitStatus = "CANCELLED"
)

// Unit link statuses. CONFIRMED and DISPUTED are terminal.
type LinkStatus string

const (
	LinkStatusUnconfirmed LinkStatus = "UNCONFIRMED"
	LinkStatusConfirmed   LinkStatus = "CONFIRMED"
	LinkStatusDisputed    LinkStatus = "DISPUTED"
)

// IsTerminal reports whether the link status accepts no further transition.
func (s LinkStatus) IsTerminal() bool {
	return s == LinkStatusConfirmed || s == LinkStatusDisputed
}

// Order fulfillment statuses derived from the completion percentage.
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusPartial    OrderStatus = "PARTIAL"
	StatusIncomplete OrderStatus = "INCOMPLETE"
	StatusCompleted  OrderStatus = "COMPLETED"
)

// OrderedUnit is one individual unit of product ordered under one line item.
type OrderedUnit struct {
	ID              int64
	OrderLineItemID int64
	ProductID       int64
	SerialNumber    *string
	BatchNumber     *string
	Status          UnitStatus
}

// DeliveredUnit is one individual unit physically received under a delivery line.
type DeliveredUnit struct {
	ID                 int64
	DeliveryLineItemID int64
	ProductID          int64
	SerialNumber       *string
	BatchNumber        *string
	Status             UnitStatus
}

// UnitLink claims that one ordered unit is satisfied by one delivered unit.
// An ordered unit and a delivered unit each carry at most one active link.
type UnitLink struct {
	ID              int64
	OrderedUnitID   int64
	DeliveredUnitID int64
	Status          LinkStatus
	CreatedAt       time.Time
}

// OrderLineItem is the flat view of one purchase order row the engine needs.
type OrderLineItem struct {
	ID         int64
	OrderID    int64
	ProductID  int64
	OrderedQty int
}

// ValidationResult is returned as data, never thrown: callers render warnings
// without aborting the link flow.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// SerialMismatch flags an active link whose two sides carry different serials.
type SerialMismatch struct {
	LinkID          int64  `json:"link_id"`
	OrderedUnitID   int64  `json:"ordered_unit_id"`
	DeliveredUnitID int64  `json:"delivered_unit_id"`
	OrderedSerial   string `json:"ordered_serial"`
	DeliveredSerial string `json:"delivered_serial"`
}

// ReconciliationReport answers how much of an order has been fulfilled.
type ReconciliationReport struct {
	OrderID                 int64            `json:"order_id"`
	TotalOrdered            int              `json:"total_ordered"`
	TotalDelivered          int              `json:"total_delivered"`
	TotalLinked             int              `json:"total_linked"`
	FulfilledLineItems      int              `json:"fulfilled_line_items"`
	CountedLineItems        int              `json:"counted_line_items"`
	UnmatchedOrderedUnits   []int64          `json:"unmatched_ordered_units"`
	UnmatchedDeliveredUnits []int64          `json:"unmatched_delivered_units"`
	MismatchedSerials       []SerialMismatch `json:"mismatched_serials"`
	CompletionPercentage    float64          `json:"completion_percentage"`
}

var (
	// ErrNotFound indicates a referenced unit or link does not exist.
	ErrNotFound = errors.New("reconcile: not found")
	// ErrAlreadyLinked occurs when a unit already carries an active link.
	ErrAlreadyLinked = errors.New("reconcile: unit already linked")
	// ErrConcurrencyConflict occurs when a racing write invalidated this one; retryable.
	ErrConcurrencyConflict = errors.New("reconcile: concurrent write conflict")
	// ErrInvalidTransition occurs when a link status change violates the workflow.
	ErrInvalidTransition = errors.New("reconcile: invalid link status transition")
	// ErrConfirmedLinkImmutable occurs when deleting a confirmed link.
	ErrConfirmedLinkImmutable = errors.New("reconcile: confirmed link cannot be removed")
	// ErrInvalidQuantity indicates a non-positive unit count.
	ErrInvalidQuantity = errors.New("reconcile: invalid quantity")
)
