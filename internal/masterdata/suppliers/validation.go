package suppliers

import (
	"fmt"
	"strings"

	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/shared"
)

func (s *Service) validate(sup Supplier) error {
	if strings.TrimSpace(sup.Code) == "" {
		return fmt.Errorf("supplier code: %w", shared.ErrRequiredField)
	}
	if strings.TrimSpace(sup.Name) == "" {
		return fmt.Errorf("supplier name: %w", shared.ErrRequiredField)
	}
	if sup.Email != "" && !strings.Contains(sup.Email, "@") {
		return fmt.Errorf("supplier email malformed: %w", shared.ErrValidation)
	}
	return nil
}
