package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for orders.
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
	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// GetOrder fetches header and lines.
func (r *Repository) GetOrder(ctx context.Context, id int64) (Order, []LineItem, error) {
	var order Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, number, supplier_id, status, fulfillment_status, COALESCE(note, ''), created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.Number, &order.SupplierID, &order.Status, &order.FulfillmentStatus, &order.Note, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, nil, ErrNotFound
		}
		return Order{}, nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, ordered_qty, unit_price
		FROM order_line_items
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return Order{}, nil, err
	}
	defer rows.Close()

	var lines []LineItem
	for rows.Next() {
		var line LineItem
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.OrderedQty, &line.UnitPrice); err != nil {
			return Order{}, nil, err
		}
		lines = append(lines, line)
	}
	return order, lines, rows.Err()
}

// ListOrders returns a filtered, sorted page plus the unfiltered total.
func (r *Repository) ListOrders(ctx context.Context, limit, offset int, filters ListFilters) ([]ListItem, int, error) {
	countSQL := `SELECT COUNT(*) FROM orders o WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Status != "" {
		countSQL += ` AND (o.status = $` + itoa(argNum) + ` OR o.fulfillment_status = $` + itoa(argNum) + `)`
		args = append(args, filters.Status)
		argNum++
	}
	if filters.SupplierID > 0 {
		countSQL += ` AND o.supplier_id = $` + itoa(argNum)
		args = append(args, filters.SupplierID)
		argNum++
	}
	if filters.Search != "" {
		countSQL += ` AND o.number ILIKE $` + itoa(argNum)
		args = append(args, "%"+filters.Search+"%")
		argNum++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT o.id, o.number, o.supplier_id, COALESCE(s.name, '') AS supplier_name,
		o.status, o.fulfillment_status,
		COALESCE((SELECT SUM(ordered_qty) FROM order_line_items WHERE order_id = o.id), 0) AS total_qty,
		o.created_at
	FROM orders o
	LEFT JOIN suppliers s ON s.id = o.supplier_id
	WHERE 1=1`

	args2 := []any{}
	argNum2 := 1
	if filters.Status != "" {
		dataSQL += ` AND (o.status = $` + itoa(argNum2) + ` OR o.fulfillment_status = $` + itoa(argNum2) + `)`
		args2 = append(args2, filters.Status)
		argNum2++
	}
	if filters.SupplierID > 0 {
		dataSQL += ` AND o.supplier_id = $` + itoa(argNum2)
		args2 = append(args2, filters.SupplierID)
		argNum2++
	}
	if filters.Search != "" {
		dataSQL += ` AND o.number ILIKE $` + itoa(argNum2)
		args2 = append(args2, "%"+filters.Search+"%")
		argNum2++
	}

	dataSQL += ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir) + ` LIMIT $` + itoa(argNum2) + ` OFFSET $` + itoa(argNum2+1)
	args2 = append(args2, limit, offset)

	rows, err := r.pool.Query(ctx, dataSQL, args2...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []ListItem
	for rows.Next() {
		var item ListItem
		if err := rows.Scan(&item.ID, &item.Number, &item.SupplierID, &item.SupplierName,
			&item.Status, &item.FulfillmentStatus, &item.TotalQty, &item.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (t *txRepo) CreateOrder(ctx context.Context, order Order) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO orders (number, supplier_id, status, fulfillment_status, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id
	`, order.Number, order.SupplierID, order.Status, order.FulfillmentStatus, order.Note).Scan(&id)
	return id, err
}

func (t *txRepo) InsertLineItem(ctx context.Context, line LineItem) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO order_line_items (order_id, product_id, ordered_qty, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, line.OrderID, line.ProductID, line.OrderedQty, line.UnitPrice).Scan(&id)
	return id, err
}

func (t *txRepo) UpdateOrderStatus(ctx context.Context, id int64, status Status) error {
	tag, err := t.tx.Exec(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func itoa(i int) string {
	return fmt.Sprintf("%d", i)
}

// sortOrder returns a safe ORDER BY clause for order queries.
func sortOrder(sortBy, sortDir string) string {
	dir := "DESC"
	if sortDir == "asc" {
		dir = "ASC"
	}
	switch sortBy {
	case "number":
		return "o.number " + dir
	case "supplier":
		return "supplier_name " + dir
	case "status":
		return "o.status " + dir
	case "fulfillment":
		return "o.fulfillment_status " + dir
	default:
		return "o.created_at DESC"
	}
}
