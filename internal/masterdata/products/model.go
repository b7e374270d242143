package products

import "time"

// Product types carried in the catalog.
const (
	TypeToner   = "toner"
	TypePrinter = "printer"
	TypePart    = "part"
)

// Product is a catalog item: a toner cartridge, a printer model, or a spare part.
type Product struct {
	ID        int64     `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Brand     string    `json:"brand,omitempty"`
	Cost      float64   `json:"cost"`
	Price     float64   `json:"price"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidType reports whether t is a known product type.
func ValidType(t string) bool {
	switch t {
	case TypeToner, TypePrinter, TypePart:
		return true
	}
	return false
}
