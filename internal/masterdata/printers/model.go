package printers

import "time"

// Printer is a physical machine in the leased fleet, identified by its serial number.
type Printer struct {
	ID           int64     `json:"id"`
	SerialNumber string    `json:"serial_number"`
	ProductID    int64     `json:"product_id"`
	ProductName  string    `json:"product_name,omitempty"`
	Location     string    `json:"location,omitempty"`
	Note         string    `json:"note,omitempty"`
	ClientID     *int64    `json:"client_id,omitempty"`
	ClientName   string    `json:"client_name,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Assignment is one placement of a printer at a client site.
// UnassignedAt is nil while the placement is current.
type Assignment struct {
	ID           int64      `json:"id"`
	PrinterID    int64      `json:"printer_id"`
	ClientID     int64      `json:"client_id"`
	ClientName   string     `json:"client_name,omitempty"`
	AssignedAt   time.Time  `json:"assigned_at"`
	UnassignedAt *time.Time `json:"unassigned_at,omitempty"`
}
