package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkwell-erp/inkwell-erp/internal/shared"
)

// RepositoryPort describes repository operations used by the engine.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	OrderLineItems(ctx context.Context, orderID int64) ([]OrderLineItem, error)
	OrderedUnitsForOrder(ctx context.Context, orderID int64) ([]OrderedUnit, error)
	DeliveredUnitsForOrder(ctx context.Context, orderID int64) ([]DeliveredUnit, error)
	ActiveLinksForOrder(ctx context.Context, orderID int64) ([]UnitLink, error)
	LinksForDelivery(ctx context.Context, deliveryID int64) ([]UnitLink, error)
	GetOrderedUnit(ctx context.Context, id int64) (OrderedUnit, error)
	GetDeliveredUnit(ctx context.Context, id int64) (DeliveredUnit, error)
	GetLink(ctx context.Context, id int64) (UnitLink, error)
	ActiveLinkForOrderedUnit(ctx context.Context, unitID int64) (UnitLink, error)
	ActiveLinkForDeliveredUnit(ctx context.Context, unitID int64) (UnitLink, error)
	OrderForOrderedUnit(ctx context.Context, unitID int64) (int64, error)
	FulfillmentStatus(ctx context.Context, orderID int64) (OrderStatus, error)
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	InsertOrderedUnit(ctx context.Context, unit OrderedUnit) (int64, error)
	InsertDeliveredUnit(ctx context.Context, unit DeliveredUnit) (int64, error)
	InsertLink(ctx context.Context, link UnitLink) (int64, error)
	UpdateLinkStatus(ctx context.Context, id int64, status LinkStatus) error
	DeleteLink(ctx context.Context, id int64) error
	SetOrderedUnitStatus(ctx context.Context, id int64, status UnitStatus) error
	SetDeliveredUnitStatus(ctx context.Context, id int64, status UnitStatus) error
	SetFulfillmentStatus(ctx context.Context, orderID int64, status OrderStatus) error
}

// AuditPort records audit trail entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts engine activity.
type MetricsPort interface {
	ObserveStatusTransition(status string)
}

// Engine derives order fulfillment from the unit ledger and link store.
// It never caches across calls: every Reconcile re-reads current state.
type Engine struct {
	repo    RepositoryPort
	audit   AuditPort
	logger  *slog.Logger
	metrics MetricsPort
}

// NewEngine constructs the reconciliation engine.
func NewEngine(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{repo: repo, audit: audit, logger: logger}
}

// WithMetrics attaches a transition counter. Returns the engine for chaining.
func (e *Engine) WithMetrics(m MetricsPort) *Engine {
	e.metrics = m
	return e
}

// ProposeLinkResult carries the outcome of a link proposal. Validation is
// always populated; Link is set only when the proposal was persisted.
type ProposeLinkResult struct {
	Link       *UnitLink        `json:"link,omitempty"`
	Validation ValidationResult `json:"validation"`
}

// Reconcile recomputes the fulfillment report for an order and persists the
// derived status when it changed. Safe to call repeatedly.
func (e *Engine) Reconcile(ctx context.Context, orderID int64) (ReconciliationReport, error) {
	items, err := e.repo.OrderLineItems(ctx, orderID)
	if err != nil {
		return ReconciliationReport{}, fmt.Errorf("reconcile: load line items: %w", err)
	}
	ordered, err := e.repo.OrderedUnitsForOrder(ctx, orderID)
	if err != nil {
		return ReconciliationReport{}, fmt.Errorf("reconcile: load ordered units: %w", err)
	}
	delivered, err := e.repo.DeliveredUnitsForOrder(ctx, orderID)
	if err != nil {
		return ReconciliationReport{}, fmt.Errorf("reconcile: load delivered units: %w", err)
	}
	links, err := e.repo.ActiveLinksForOrder(ctx, orderID)
	if err != nil {
		return ReconciliationReport{}, fmt.Errorf("reconcile: load links: %w", err)
	}

	report := BuildReport(orderID, items, ordered, delivered, links)
	next := Classify(report.CompletionPercentage)

	current, err := e.repo.FulfillmentStatus(ctx, orderID)
	if err != nil {
		return ReconciliationReport{}, fmt.Errorf("reconcile: load order status: %w", err)
	}
	if current != next {
		err = e.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			return tx.SetFulfillmentStatus(ctx, orderID, next)
		})
		if err != nil {
			return ReconciliationReport{}, fmt.Errorf("reconcile: persist status: %w", err)
		}
		e.logger.Info("order fulfillment status changed",
			slog.Int64("order_id", orderID),
			slog.String("from", string(current)),
			slog.String("to", string(next)),
			slog.Float64("completion_pct", report.CompletionPercentage),
		)
		if e.metrics != nil {
			e.metrics.ObserveStatusTransition(string(next))
		}
		e.recordAudit(ctx, "ORDER_STATUS", orderID, map[string]any{
			"from": string(current),
			"to":   string(next),
			"pct":  report.CompletionPercentage,
		})
	}
	return report, nil
}

// ProposeLink validates and, when legal, persists a new unit link. Validation
// failures come back as data so callers can show blocking or non-blocking
// notices; warnings alone never stop the link.
func (e *Engine) ProposeLink(ctx context.Context, orderedUnitID, deliveredUnitID int64) (ProposeLinkResult, error) {
	validation, err := e.Validate(ctx, orderedUnitID, deliveredUnitID)
	if err != nil {
		return ProposeLinkResult{}, err
	}
	result := ProposeLinkResult{Validation: validation}
	if !validation.Valid {
		return result, nil
	}

	link := UnitLink{
		OrderedUnitID:   orderedUnitID,
		DeliveredUnitID: deliveredUnitID,
		Status:          LinkStatusUnconfirmed,
		CreatedAt:       time.Now(),
	}
	err = e.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertLink(ctx, link)
		if err != nil {
			return err
		}
		link.ID = id
		if err := tx.SetOrderedUnitStatus(ctx, orderedUnitID, UnitStatusLinked); err != nil {
			return err
		}
		return tx.SetDeliveredUnitStatus(ctx, deliveredUnitID, UnitStatusLinked)
	})
	if err != nil {
		return ProposeLinkResult{}, err
	}
	result.Link = &link
	e.recordAudit(ctx, "LINK_CREATE", link.ID, map[string]any{
		"ordered_unit":   orderedUnitID,
		"delivered_unit": deliveredUnitID,
		"warnings":       len(validation.Warnings),
	})
	return result, nil
}

// ConfirmLink transitions an unconfirmed link to CONFIRMED.
func (e *Engine) ConfirmLink(ctx context.Context, linkID int64) (UnitLink, error) {
	return e.setLinkStatus(ctx, linkID, LinkStatusConfirmed)
}

// DisputeLink transitions an unconfirmed link to DISPUTED.
func (e *Engine) DisputeLink(ctx context.Context, linkID int64) (UnitLink, error) {
	return e.setLinkStatus(ctx, linkID, LinkStatusDisputed)
}

func (e *Engine) setLinkStatus(ctx context.Context, linkID int64, status LinkStatus) (UnitLink, error) {
	link, err := e.repo.GetLink(ctx, linkID)
	if err != nil {
		return UnitLink{}, err
	}
	if link.Status != LinkStatusUnconfirmed {
		return UnitLink{}, ErrInvalidTransition
	}
	err = e.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateLinkStatus(ctx, linkID, status)
	})
	if err != nil {
		return UnitLink{}, err
	}
	link.Status = status
	e.recordAudit(ctx, "LINK_"+string(status), linkID, nil)
	return link, nil
}

// RemoveLink deletes an unconfirmed or disputed link, freeing both units for
// re-linking. Confirmed links are immutable.
func (e *Engine) RemoveLink(ctx context.Context, linkID int64) error {
	link, err := e.repo.GetLink(ctx, linkID)
	if err != nil {
		return err
	}
	if link.Status == LinkStatusConfirmed {
		return ErrConfirmedLinkImmutable
	}
	err = e.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteLink(ctx, linkID); err != nil {
			return err
		}
		if err := tx.SetOrderedUnitStatus(ctx, link.OrderedUnitID, UnitStatusPending); err != nil {
			return err
		}
		return tx.SetDeliveredUnitStatus(ctx, link.DeliveredUnitID, UnitStatusPending)
	})
	if err != nil {
		return err
	}
	e.recordAudit(ctx, "LINK_DELETE", linkID, map[string]any{
		"ordered_unit":   link.OrderedUnitID,
		"delivered_unit": link.DeliveredUnitID,
	})
	return nil
}

// LinksForOrder lists active links whose ordered units belong to the order.
func (e *Engine) LinksForOrder(ctx context.Context, orderID int64) ([]UnitLink, error) {
	return e.repo.ActiveLinksForOrder(ctx, orderID)
}

// LinksForDelivery lists active links whose delivered units belong to the delivery.
func (e *Engine) LinksForDelivery(ctx context.Context, deliveryID int64) ([]UnitLink, error) {
	return e.repo.LinksForDelivery(ctx, deliveryID)
}

// OrderForOrderedUnit resolves the owning order, used by callers that need to
// refresh a report after a link mutation.
func (e *Engine) OrderForOrderedUnit(ctx context.Context, unitID int64) (int64, error) {
	return e.repo.OrderForOrderedUnit(ctx, unitID)
}

func (e *Engine) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if e.audit == nil {
		return
	}
	_ = e.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "reconcile", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
