package deliveries

import (
	"errors"
	"time"
)

// Delivery is one inbound shipment against an order.
type Delivery struct {
	ID         int64     `json:"id"`
	Number     string    `json:"number"`
	OrderID    int64     `json:"order_id"`
	ReceivedAt time.Time `json:"received_at"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// LineItem is one product row on a delivery.
type LineItem struct {
	ID         int64 `json:"id"`
	DeliveryID int64 `json:"delivery_id"`
	ProductID  int64 `json:"product_id"`
	Qty        int   `json:"qty"`
}

// ListItem is the flattened row returned by listings.
type ListItem struct {
	ID          int64     `json:"id"`
	Number      string    `json:"number"`
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	TotalQty    int       `json:"total_qty"`
	ReceivedAt  time.Time `json:"received_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListFilters narrows delivery listings.
type ListFilters struct {
	OrderID int64
	Search  string
	SortBy  string
	SortDir string
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("deliveries: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("deliveries: invalid input")
	// ErrOrderNotApproved occurs when the referenced order cannot receive goods.
	ErrOrderNotApproved = errors.New("deliveries: order not approved")
)
