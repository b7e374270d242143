package reconcile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for the engine.
//
// The 1:1 link invariant is enforced by partial unique indexes on
// unit_links(ordered_unit_id) and unit_links(delivered_unit_id), so of two
// racing link creates exactly one commits and the other surfaces
// ErrAlreadyLinked.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepo{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return mapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err)
	}
	return nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.ConstraintName == "uq_unit_links_ordered" || pgErr.ConstraintName == "uq_unit_links_delivered":
			return ErrAlreadyLinked
		case pgErr.Code == "40001":
			return ErrConcurrencyConflict
		}
	}
	return err
}

// OrderLineItems returns the flat line-item view for one order.
func (r *Repository) OrderLineItems(ctx context.Context, orderID int64) ([]OrderLineItem, error) {
	query := `
		SELECT id, order_id, product_id, ordered_qty
		FROM order_line_items
		WHERE order_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderLineItem
	for rows.Next() {
		var item OrderLineItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.OrderedQty); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// OrderedUnitsForOrder returns every ordered unit belonging to the order.
func (r *Repository) OrderedUnitsForOrder(ctx context.Context, orderID int64) ([]OrderedUnit, error) {
	query := `
		SELECT ou.id, ou.order_line_item_id, ou.product_id, ou.serial_number, ou.batch_number, ou.status
		FROM ordered_units ou
		INNER JOIN order_line_items oli ON oli.id = ou.order_line_item_id
		WHERE oli.order_id = $1
		ORDER BY ou.id
	`
	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []OrderedUnit
	for rows.Next() {
		var u OrderedUnit
		if err := rows.Scan(&u.ID, &u.OrderLineItemID, &u.ProductID, &u.SerialNumber, &u.BatchNumber, &u.Status); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// DeliveredUnitsForOrder returns delivered units joined transitively through
// the delivery-to-order association, pre-flattened so the calculator never
// builds queries.
func (r *Repository) DeliveredUnitsForOrder(ctx context.Context, orderID int64) ([]DeliveredUnit, error) {
	query := `
		SELECT du.id, du.delivery_line_item_id, du.product_id, du.serial_number, du.batch_number, du.status
		FROM delivered_units du
		INNER JOIN delivery_line_items dli ON dli.id = du.delivery_line_item_id
		INNER JOIN deliveries d ON d.id = dli.delivery_id
		WHERE d.order_id = $1
		ORDER BY du.id
	`
	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []DeliveredUnit
	for rows.Next() {
		var u DeliveredUnit
		if err := rows.Scan(&u.ID, &u.DeliveryLineItemID, &u.ProductID, &u.SerialNumber, &u.BatchNumber, &u.Status); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// ActiveLinksForOrder returns links whose ordered unit belongs to the order.
func (r *Repository) ActiveLinksForOrder(ctx context.Context, orderID int64) ([]UnitLink, error) {
	query := `
		SELECT ul.id, ul.ordered_unit_id, ul.delivered_unit_id, ul.status, ul.created_at
		FROM unit_links ul
		INNER JOIN ordered_units ou ON ou.id = ul.ordered_unit_id
		INNER JOIN order_line_items oli ON oli.id = ou.order_line_item_id
		WHERE oli.order_id = $1
		ORDER BY ul.id
	`
	return r.queryLinks(ctx, query, orderID)
}

// LinksForDelivery returns links whose delivered unit belongs to the delivery.
func (r *Repository) LinksForDelivery(ctx context.Context, deliveryID int64) ([]UnitLink, error) {
	query := `
		SELECT ul.id, ul.ordered_unit_id, ul.delivered_unit_id, ul.status, ul.created_at
		FROM unit_links ul
		INNER JOIN delivered_units du ON du.id = ul.delivered_unit_id
		INNER JOIN delivery_line_items dli ON dli.id = du.delivery_line_item_id
		WHERE dli.delivery_id = $1
		ORDER BY ul.id
	`
	return r.queryLinks(ctx, query, deliveryID)
}

func (r *Repository) queryLinks(ctx context.Context, query string, arg any) ([]UnitLink, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []UnitLink
	for rows.Next() {
		var l UnitLink
		if err := rows.Scan(&l.ID, &l.OrderedUnitID, &l.DeliveredUnitID, &l.Status, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// GetOrderedUnit fetches one ordered unit by ID.
func (r *Repository) GetOrderedUnit(ctx context.Context, id int64) (OrderedUnit, error) {
	query := `
		SELECT id, order_line_item_id, product_id, serial_number, batch_number, status
		FROM ordered_units
		WHERE id = $1
	`
	var u OrderedUnit
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.OrderLineItemID, &u.ProductID, &u.SerialNumber, &u.BatchNumber, &u.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrderedUnit{}, ErrNotFound
		}
		return OrderedUnit{}, err
	}
	return u, nil
}

// GetDeliveredUnit fetches one delivered unit by ID.
func (r *Repository) GetDeliveredUnit(ctx context.Context, id int64) (DeliveredUnit, error) {
	query := `
		SELECT id, delivery_line_item_id, product_id, serial_number, batch_number, status
		FROM delivered_units
		WHERE id = $1
	`
	var u DeliveredUnit
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.DeliveryLineItemID, &u.ProductID, &u.SerialNumber, &u.BatchNumber, &u.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DeliveredUnit{}, ErrNotFound
		}
		return DeliveredUnit{}, err
	}
	return u, nil
}

// GetLink fetches one link by ID.
func (r *Repository) GetLink(ctx context.Context, id int64) (UnitLink, error) {
	query := `SELECT id, ordered_unit_id, delivered_unit_id, status, created_at FROM unit_links WHERE id = $1`
	return r.scanLink(r.pool.QueryRow(ctx, query, id))
}

// ActiveLinkForOrderedUnit returns the active link of an ordered unit.
func (r *Repository) ActiveLinkForOrderedUnit(ctx context.Context, unitID int64) (UnitLink, error) {
	query := `SELECT id, ordered_unit_id, delivered_unit_id, status, created_at FROM unit_links WHERE ordered_unit_id = $1`
	return r.scanLink(r.pool.QueryRow(ctx, query, unitID))
}

// ActiveLinkForDeliveredUnit returns the active link of a delivered unit.
func (r *Repository) ActiveLinkForDeliveredUnit(ctx context.Context, unitID int64) (UnitLink, error) {
	query := `SELECT id, ordered_unit_id, delivered_unit_id, status, created_at FROM unit_links WHERE delivered_unit_id = $1`
	return r.scanLink(r.pool.QueryRow(ctx, query, unitID))
}

func (r *Repository) scanLink(row pgx.Row) (UnitLink, error) {
	var l UnitLink
	err := row.Scan(&l.ID, &l.OrderedUnitID, &l.DeliveredUnitID, &l.Status, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UnitLink{}, ErrNotFound
		}
		return UnitLink{}, err
	}
	return l, nil
}

// OrderForOrderedUnit resolves the order that owns an ordered unit.
func (r *Repository) OrderForOrderedUnit(ctx context.Context, unitID int64) (int64, error) {
	query := `
		SELECT oli.order_id
		FROM ordered_units ou
		INNER JOIN order_line_items oli ON oli.id = ou.order_line_item_id
		WHERE ou.id = $1
	`
	var orderID int64
	if err := r.pool.QueryRow(ctx, query, unitID).Scan(&orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return orderID, nil
}

// FulfillmentStatus returns the currently stored fulfillment status of an order.
func (r *Repository) FulfillmentStatus(ctx context.Context, orderID int64) (OrderStatus, error) {
	var status OrderStatus
	err := r.pool.QueryRow(ctx, `SELECT fulfillment_status FROM orders WHERE id = $1`, orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return status, nil
}

func (t *txRepo) InsertOrderedUnit(ctx context.Context, unit OrderedUnit) (int64, error) {
	query := `
		INSERT INTO ordered_units (order_line_item_id, product_id, serial_number, batch_number, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query, unit.OrderLineItemID, unit.ProductID, unit.SerialNumber, unit.BatchNumber, unit.Status).Scan(&id)
	return id, err
}

func (t *txRepo) InsertDeliveredUnit(ctx context.Context, unit DeliveredUnit) (int64, error) {
	query := `
		INSERT INTO delivered_units (delivery_line_item_id, product_id, serial_number, batch_number, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query, unit.DeliveryLineItemID, unit.ProductID, unit.SerialNumber, unit.BatchNumber, unit.Status).Scan(&id)
	return id, err
}

func (t *txRepo) InsertLink(ctx context.Context, link UnitLink) (int64, error) {
	query := `
		INSERT INTO unit_links (ordered_unit_id, delivered_unit_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query, link.OrderedUnitID, link.DeliveredUnitID, link.Status, link.CreatedAt).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return id, nil
}

func (t *txRepo) UpdateLinkStatus(ctx context.Context, id int64, status LinkStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE unit_links SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteLink(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM unit_links WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) SetOrderedUnitStatus(ctx context.Context, id int64, status UnitStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE ordered_units SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) SetDeliveredUnitStatus(ctx context.Context, id int64, status UnitStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE delivered_units SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) SetFulfillmentStatus(ctx context.Context, orderID int64, status OrderStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE orders SET fulfillment_status = $1, updated_at = NOW() WHERE id = $2`, status, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
