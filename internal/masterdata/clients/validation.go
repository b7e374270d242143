package clients

import (
	"fmt"
	"strings"

	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/shared"
)

func (s *Service) validate(c Client) error {
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("client code: %w", shared.ErrRequiredField)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("client name: %w", shared.ErrRequiredField)
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return fmt.Errorf("client email malformed: %w", shared.ErrValidation)
	}
	return nil
}
