package deliveries

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for deliveries.
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

// GetDelivery fetches header and lines.
func (r *Repository) GetDelivery(ctx context.Context, id int64) (Delivery, []LineItem, error) {
	var d Delivery
	err := r.pool.QueryRow(ctx, `
		SELECT id, number, order_id, received_at, COALESCE(note, ''), created_at
		FROM deliveries
		WHERE id = $1
	`, id).Scan(&d.ID, &d.Number, &d.OrderID, &d.ReceivedAt, &d.Note, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Delivery{}, nil, ErrNotFound
		}
		return Delivery{}, nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, delivery_id, product_id, qty
		FROM delivery_line_items
		WHERE delivery_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return Delivery{}, nil, err
	}
	defer rows.Close()

	var lines []LineItem
	for rows.Next() {
		var line LineItem
		if err := rows.Scan(&line.ID, &line.DeliveryID, &line.ProductID, &line.Qty); err != nil {
			return Delivery{}, nil, err
		}
		lines = append(lines, line)
	}
	return d, lines, rows.Err()
}

// ListDeliveries returns a filtered, sorted page plus the unfiltered total.
func (r *Repository) ListDeliveries(ctx context.Context, limit, offset int, filters ListFilters) ([]ListItem, int, error) {
	countSQL := `SELECT COUNT(*) FROM deliveries d WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.OrderID > 0 {
		countSQL += ` AND d.order_id = $` + itoa(argNum)
		args = append(args, filters.OrderID)
		argNum++
	}
	if filters.Search != "" {
		countSQL += ` AND d.number ILIKE $` + itoa(argNum)
		args = append(args, "%"+filters.Search+"%")
		argNum++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT d.id, d.number, d.order_id, COALESCE(o.number, '') AS order_number,
		COALESCE((SELECT SUM(qty) FROM delivery_line_items WHERE delivery_id = d.id), 0) AS total_qty,
		d.received_at, d.created_at
	FROM deliveries d
	LEFT JOIN orders o ON o.id = d.order_id
	WHERE 1=1`

	args2 := []any{}
	argNum2 := 1
	if filters.OrderID > 0 {
		dataSQL += ` AND d.order_id = $` + itoa(argNum2)
		args2 = append(args2, filters.OrderID)
		argNum2++
	}
	if filters.Search != "" {
		dataSQL += ` AND d.number ILIKE $` + itoa(argNum2)
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
		if err := rows.Scan(&item.ID, &item.Number, &item.OrderID, &item.OrderNumber, &item.TotalQty, &item.ReceivedAt, &item.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// OrderWorkflowStatus reads the workflow status of the referenced order.
func (r *Repository) OrderWorkflowStatus(ctx context.Context, orderID int64) (string, error) {
	var status string
	err := r.pool.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return status, nil
}

func (t *txRepo) CreateDelivery(ctx context.Context, delivery Delivery) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO deliveries (number, order_id, received_at, note, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id
	`, delivery.Number, delivery.OrderID, delivery.ReceivedAt, delivery.Note).Scan(&id)
	return id, err
}

func (t *txRepo) InsertLineItem(ctx context.Context, line LineItem) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO delivery_line_items (delivery_id, product_id, qty)
		VALUES ($1, $2, $3)
		RETURNING id
	`, line.DeliveryID, line.ProductID, line.Qty).Scan(&id)
	return id, err
}

func itoa(i int) string {
	return fmt.Sprintf("%d", i)
}

// sortOrder returns a safe ORDER BY clause for delivery queries.
func sortOrder(sortBy, sortDir string) string {
	dir := "DESC"
	if sortDir == "asc" {
		dir = "ASC"
	}
	switch sortBy {
	case "number":
		return "d.number " + dir
	case "order":
		return "order_number " + dir
	case "received":
		return "d.received_at " + dir
	default:
		return "d.created_at DESC"
	}
}
