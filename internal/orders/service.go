package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/inkwell-erp/inkwell-erp/internal/reconcile"
	"github.com/inkwell-erp/inkwell-erp/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (Order, []LineItem, error)
	ListOrders(ctx context.Context, limit, offset int, filters ListFilters) ([]ListItem, int, error)
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreateOrder(ctx context.Context, order Order) (int64, error)
	InsertLineItem(ctx context.Context, line LineItem) (int64, error)
	UpdateOrderStatus(ctx context.Context, id int64, status Status) error
}

// UnitLedger materializes individual units when an order is approved.
type UnitLedger interface {
	CreateOrderedUnits(ctx context.Context, lineItemID, productID int64, count int, specs ...reconcile.UnitSpec) ([]reconcile.OrderedUnit, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the order workflow.
type Service struct {
	repo   RepositoryPort
	ledger UnitLedger
	audit  AuditPort
}

// NewService constructs the order service.
func NewService(repo RepositoryPort, ledger UnitLedger, audit AuditPort) *Service {
	return &Service{repo: repo, ledger: ledger, audit: audit}
}

// CreateOrderInput describes creation payload.
type CreateOrderInput struct {
	Number     string
	SupplierID int64
	Note       string
	Lines      []LineInput
}

// LineInput describes one requested product row.
type LineInput struct {
	ProductID int64
	Qty       int
	UnitPrice float64
}

// CreateOrder persists order header and lines in DRAFT.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error) {
	if len(input.Lines) == 0 {
		return Order{}, fmt.Errorf("orders: at least one line required: %w", ErrValidation)
	}
	if input.SupplierID <= 0 {
		return Order{}, fmt.Errorf("orders: supplier required: %w", ErrValidation)
	}
	if input.Number == "" {
		input.Number = generateNumber("PO")
	}
	order := Order{
		Number:            input.Number,
		SupplierID:        input.SupplierID,
		Status:            StatusDraft,
		FulfillmentStatus: reconcile.StatusPending,
		Note:              input.Note,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		orderID, err := tx.CreateOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = orderID
		for _, line := range input.Lines {
			if line.ProductID <= 0 || line.Qty <= 0 {
				return fmt.Errorf("orders: line needs product and positive qty: %w", ErrValidation)
			}
			if _, err := tx.InsertLineItem(ctx, LineItem{OrderID: orderID, ProductID: line.ProductID, OrderedQty: line.Qty, UnitPrice: line.UnitPrice}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	s.recordAudit(ctx, "ORDER_CREATE", order.ID, map[string]any{"number": order.Number, "lines": len(input.Lines)})
	return order, nil
}

// ApproveOrder transitions a draft order to APPROVED and materializes one
// pending ordered unit per quantity unit so the reconciliation engine can
// track them individually.
func (s *Service) ApproveOrder(ctx context.Context, orderID int64) error {
	order, lines, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != StatusDraft {
		return ErrInvalidState
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateOrderStatus(ctx, orderID, StatusApproved)
	})
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := s.ledger.CreateOrderedUnits(ctx, line.ID, line.ProductID, line.OrderedQty); err != nil {
			return fmt.Errorf("orders: materialize units for line %d: %w", line.ID, err)
		}
	}
	s.recordAudit(ctx, "ORDER_APPROVE", orderID, map[string]any{"number": order.Number})
	return nil
}

// CancelOrder marks a draft order cancelled. Approved orders with units in
// flight go through the reconciliation flow instead.
func (s *Service) CancelOrder(ctx context.Context, orderID int64) error {
	order, _, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != StatusDraft {
		return ErrInvalidState
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateOrderStatus(ctx, orderID, StatusCancelled)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "ORDER_CANCEL", orderID, map[string]any{"number": order.Number})
	return nil
}

// GetOrder fetches header plus lines.
func (s *Service) GetOrder(ctx context.Context, orderID int64) (Order, []LineItem, error) {
	return s.repo.GetOrder(ctx, orderID)
}

// ListOrders returns a filtered page of orders.
func (s *Service) ListOrders(ctx context.Context, limit, offset int, filters ListFilters) ([]ListItem, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListOrders(ctx, limit, offset, filters)
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "orders", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
