package shared

import (
	"fmt"

	"github.com/inkwell-erp/inkwell-erp/internal/platform/httpx"
)

// Package sentinels wrap the transport-level set so handlers can hand status
// mapping to httpx.RespondError.
var (
	ErrNotFound      = httpx.ErrNotFound
	ErrDuplicate     = fmt.Errorf("duplicate entry: %w", httpx.ErrConflict)
	ErrValidation    = httpx.ErrValidation
	ErrInvalidID     = fmt.Errorf("invalid id: %w", httpx.ErrValidation)
	ErrRequiredField = fmt.Errorf("field is required: %w", httpx.ErrValidation)
)
