package reconcile

import (
	"context"
	"fmt"

	"github.com/inkwell-erp/inkwell-erp/internal/shared"
)

// UnitSpec carries optional per-unit tracking numbers supplied at creation.
type UnitSpec struct {
	SerialNumber *string
	BatchNumber  *string
}

// Ledger is the append-only store of ordered and delivered units. Units are
// never physically deleted, only status-transitioned, so the audit history of
// what was ordered and received stays intact.
type Ledger struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewLedger constructs the unit ledger.
func NewLedger(repo RepositoryPort, audit AuditPort) *Ledger {
	return &Ledger{repo: repo, audit: audit}
}

// CreateOrderedUnits creates count pending units under an order line item.
// Specs, when provided, assign serial/batch numbers positionally; leftover
// units are created without tracking numbers.
func (l *Ledger) CreateOrderedUnits(ctx context.Context, lineItemID, productID int64, count int, specs ...UnitSpec) ([]OrderedUnit, error) {
	if count <= 0 {
		return nil, ErrInvalidQuantity
	}
	if len(specs) > count {
		return nil, fmt.Errorf("reconcile: %d unit specs for %d units: %w", len(specs), count, ErrInvalidQuantity)
	}
	units := make([]OrderedUnit, 0, count)
	err := l.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for i := 0; i < count; i++ {
			unit := OrderedUnit{
				OrderLineItemID: lineItemID,
				ProductID:       productID,
				Status:          UnitStatusPending,
			}
			if i < len(specs) {
				unit.SerialNumber = specs[i].SerialNumber
				unit.BatchNumber = specs[i].BatchNumber
			}
			id, err := tx.InsertOrderedUnit(ctx, unit)
			if err != nil {
				return err
			}
			unit.ID = id
			units = append(units, unit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.recordAudit(ctx, "ORDERED_UNITS_CREATE", lineItemID, map[string]any{"count": count, "product_id": productID})
	return units, nil
}

// CreateDeliveredUnits creates count pending units under a delivery line item.
func (l *Ledger) CreateDeliveredUnits(ctx context.Context, deliveryLineItemID, productID int64, count int, specs ...UnitSpec) ([]DeliveredUnit, error) {
	if count <= 0 {
		return nil, ErrInvalidQuantity
	}
	if len(specs) > count {
		return nil, fmt.Errorf("reconcile: %d unit specs for %d units: %w", len(specs), count, ErrInvalidQuantity)
	}
	units := make([]DeliveredUnit, 0, count)
	err := l.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for i := 0; i < count; i++ {
			unit := DeliveredUnit{
				DeliveryLineItemID: deliveryLineItemID,
				ProductID:          productID,
				Status:             UnitStatusPending,
			}
			if i < len(specs) {
				unit.SerialNumber = specs[i].SerialNumber
				unit.BatchNumber = specs[i].BatchNumber
			}
			id, err := tx.InsertDeliveredUnit(ctx, unit)
			if err != nil {
				return err
			}
			unit.ID = id
			units = append(units, unit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.recordAudit(ctx, "DELIVERED_UNITS_CREATE", deliveryLineItemID, map[string]any{"count": count, "product_id": productID})
	return units, nil
}

// CancelOrderedUnit marks a unit cancelled, excluding it from fulfillment.
func (l *Ledger) CancelOrderedUnit(ctx context.Context, unitID int64) error {
	unit, err := l.repo.GetOrderedUnit(ctx, unitID)
	if err != nil {
		return err
	}
	if unit.Status == UnitStatusLinked {
		return ErrInvalidTransition
	}
	return l.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetOrderedUnitStatus(ctx, unitID, UnitStatusCancelled)
	})
}

func (l *Ledger) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if l.audit == nil {
		return
	}
	_ = l.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "unit_ledger", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
