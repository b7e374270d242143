package printers

import (
	"fmt"
	"strings"

	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/shared"
)

func (s *Service) validate(p Printer) error {
	if strings.TrimSpace(p.SerialNumber) == "" {
		return fmt.Errorf("printer serial number: %w", shared.ErrRequiredField)
	}
	if p.ProductID <= 0 {
		return fmt.Errorf("printer product: %w", shared.ErrRequiredField)
	}
	return nil
}
