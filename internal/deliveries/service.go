package deliveries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/inkwell-erp/inkwell-erp/internal/reconcile"
	"github.com/inkwell-erp/inkwell-erp/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetDelivery(ctx context.Context, id int64) (Delivery, []LineItem, error)
	ListDeliveries(ctx context.Context, limit, offset int, filters ListFilters) ([]ListItem, int, error)
	OrderWorkflowStatus(ctx context.Context, orderID int64) (string, error)
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreateDelivery(ctx context.Context, delivery Delivery) (int64, error)
	InsertLineItem(ctx context.Context, line LineItem) (int64, error)
}

// UnitLedger materializes delivered units for each received line.
type UnitLedger interface {
	CreateDeliveredUnits(ctx context.Context, deliveryLineItemID, productID int64, count int, specs ...reconcile.UnitSpec) ([]reconcile.DeliveredUnit, error)
}

// ReconcileEnqueuer schedules a fulfillment refresh after goods arrive.
type ReconcileEnqueuer interface {
	EnqueueReconcileRefresh(ctx context.Context, orderID int64) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates inbound deliveries.
type Service struct {
	repo        RepositoryPort
	ledger      UnitLedger
	enqueuer    ReconcileEnqueuer
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	logger      *slog.Logger
}

// NewService constructs the delivery service.
func NewService(repo RepositoryPort, ledger UnitLedger, enqueuer ReconcileEnqueuer, audit AuditPort, idem *shared.IdempotencyStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ledger: ledger, enqueuer: enqueuer, audit: audit, idempotency: idem, logger: logger}
}

// RecordDeliveryInput describes an inbound shipment.
type RecordDeliveryInput struct {
	Number     string
	OrderID    int64
	ReceivedAt time.Time
	Note       string
	Lines      []LineInput
}

// LineInput is one received product row. Units, when present, carry per-unit
// serial and batch numbers positionally.
type LineInput struct {
	ProductID int64
	Qty       int
	Units     []UnitInput
}

// UnitInput holds optional tracking numbers for one physical unit.
type UnitInput struct {
	SerialNumber *string
	BatchNumber  *string
}

// RecordDelivery persists the delivery, materializes one delivered unit per
// received quantity unit, and queues a reconciliation refresh for the order.
func (s *Service) RecordDelivery(ctx context.Context, input RecordDeliveryInput) (Delivery, error) {
	if len(input.Lines) == 0 {
		return Delivery{}, fmt.Errorf("deliveries: at least one line required: %w", ErrValidation)
	}
	status, err := s.repo.OrderWorkflowStatus(ctx, input.OrderID)
	if err != nil {
		return Delivery{}, err
	}
	if status != "APPROVED" {
		return Delivery{}, ErrOrderNotApproved
	}
	if input.Number == "" {
		input.Number = generateNumber("DLV")
	}
	if input.ReceivedAt.IsZero() {
		input.ReceivedAt = time.Now()
	}

	key := fmt.Sprintf("DELIVERY:%s", input.Number)
	inserted := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "deliveries"); err != nil {
			return Delivery{}, err
		}
		inserted = true
	}

	delivery := Delivery{Number: input.Number, OrderID: input.OrderID, ReceivedAt: input.ReceivedAt, Note: input.Note}
	var lines []LineItem
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		deliveryID, err := tx.CreateDelivery(ctx, delivery)
		if err != nil {
			return err
		}
		delivery.ID = deliveryID
		for _, line := range input.Lines {
			if line.ProductID <= 0 || line.Qty <= 0 {
				return fmt.Errorf("deliveries: line needs product and positive qty: %w", ErrValidation)
			}
			if len(line.Units) > line.Qty {
				return fmt.Errorf("deliveries: %d unit records for qty %d: %w", len(line.Units), line.Qty, ErrValidation)
			}
			lineID, err := tx.InsertLineItem(ctx, LineItem{DeliveryID: deliveryID, ProductID: line.ProductID, Qty: line.Qty})
			if err != nil {
				return err
			}
			lines = append(lines, LineItem{ID: lineID, DeliveryID: deliveryID, ProductID: line.ProductID, Qty: line.Qty})
		}
		return nil
	})
	if err != nil {
		if inserted {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Delivery{}, err
	}

	for i, line := range input.Lines {
		specs := make([]reconcile.UnitSpec, 0, len(line.Units))
		for _, unit := range line.Units {
			specs = append(specs, reconcile.UnitSpec{SerialNumber: unit.SerialNumber, BatchNumber: unit.BatchNumber})
		}
		if _, err := s.ledger.CreateDeliveredUnits(ctx, lines[i].ID, line.ProductID, line.Qty, specs...); err != nil {
			return Delivery{}, fmt.Errorf("deliveries: materialize units for line %d: %w", lines[i].ID, err)
		}
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueReconcileRefresh(ctx, input.OrderID); err != nil {
			// Delivery is recorded either way; the next reconcile run catches up.
			s.logger.Warn("enqueue reconcile refresh", slog.Int64("order_id", input.OrderID), slog.Any("error", err))
		}
	}
	s.recordAudit(ctx, "DELIVERY_RECORD", delivery.ID, map[string]any{"number": delivery.Number, "order_id": input.OrderID, "lines": len(input.Lines)})
	return delivery, nil
}

// GetDelivery fetches header plus lines.
func (s *Service) GetDelivery(ctx context.Context, id int64) (Delivery, []LineItem, error) {
	return s.repo.GetDelivery(ctx, id)
}

// ListDeliveries returns a filtered page.
func (s *Service) ListDeliveries(ctx context.Context, limit, offset int, filters ListFilters) ([]ListItem, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListDeliveries(ctx, limit, offset, filters)
}

// IsDuplicate reports whether the error is the idempotency guard firing.
func IsDuplicate(err error) bool {
	return errors.Is(err, shared.ErrIdempotencyConflict)
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "deliveries", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
