package reconcile

import (
	"context"
	"errors"
	"fmt"
)

// Validate runs the pre-flight checks for a proposed link and reports the
// outcome as data. Product identity is the only structurally required match;
// serial and batch numbers are advisory because delivery paperwork is
// inconsistent, so they surface as warnings rather than hard failures.
func (e *Engine) Validate(ctx context.Context, orderedUnitID, deliveredUnitID int64) (ValidationResult, error) {
	result := ValidationResult{Errors: []string{}, Warnings: []string{}}

	ordered, err := e.repo.GetOrderedUnit(ctx, orderedUnitID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("ordered unit %d not found", orderedUnitID))
		} else {
			return ValidationResult{}, err
		}
	}
	delivered, err := e.repo.GetDeliveredUnit(ctx, deliveredUnitID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			result.Errors = append(result.Errors, fmt.Sprintf("delivered unit %d not found", deliveredUnitID))
		} else {
			return ValidationResult{}, err
		}
	}
	if len(result.Errors) > 0 {
		return result, nil
	}

	if _, err := e.repo.ActiveLinkForOrderedUnit(ctx, orderedUnitID); err == nil {
		result.Errors = append(result.Errors, fmt.Sprintf("ordered unit %d is already linked", orderedUnitID))
	} else if !errors.Is(err, ErrNotFound) {
		return ValidationResult{}, err
	}
	if _, err := e.repo.ActiveLinkForDeliveredUnit(ctx, deliveredUnitID); err == nil {
		result.Errors = append(result.Errors, fmt.Sprintf("delivered unit %d is already linked", deliveredUnitID))
	} else if !errors.Is(err, ErrNotFound) {
		return ValidationResult{}, err
	}

	if ordered.ProductID != delivered.ProductID {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"product mismatch: ordered unit carries product %d, delivered unit carries product %d",
			ordered.ProductID, delivered.ProductID))
	}

	switch {
	case ordered.SerialNumber != nil && delivered.SerialNumber != nil:
		if *ordered.SerialNumber != *delivered.SerialNumber {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"serial number mismatch: ordered %q, delivered %q", *ordered.SerialNumber, *delivered.SerialNumber))
		}
	case ordered.SerialNumber != nil:
		result.Warnings = append(result.Warnings, "serial number present only on the ordered unit")
	case delivered.SerialNumber != nil:
		result.Warnings = append(result.Warnings, "serial number present only on the delivered unit")
	}

	switch {
	case ordered.BatchNumber != nil && delivered.BatchNumber != nil:
		if *ordered.BatchNumber != *delivered.BatchNumber {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"batch number mismatch: ordered %q, delivered %q", *ordered.BatchNumber, *delivered.BatchNumber))
		}
	case ordered.BatchNumber != nil:
		result.Warnings = append(result.Warnings, "batch number present only on the ordered unit")
	case delivered.BatchNumber != nil:
		result.Warnings = append(result.Warnings, "batch number present only on the delivered unit")
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}
