package products

import (
	"fmt"
	"strings"

	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/shared"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("product sku: %w", shared.ErrRequiredField)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product name: %w", shared.ErrRequiredField)
	}
	if !ValidType(p.Type) {
		return fmt.Errorf("product type %q: %w", p.Type, shared.ErrValidation)
	}
	if p.Cost < 0 || p.Price < 0 {
		return fmt.Errorf("product pricing must not be negative: %w", shared.ErrValidation)
	}
	return nil
}
