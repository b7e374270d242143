package printers

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-erp/inkwell-erp/internal/masterdata/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Printer, int, error)
	Get(ctx context.Context, id int64) (Printer, error)
	Create(ctx context.Context, printer Printer) (Printer, error)
	Update(ctx context.Context, id int64, printer Printer) error
	Delete(ctx context.Context, id int64) error

	Assignments(ctx context.Context, printerID int64) ([]Assignment, error)
	CurrentAssignment(ctx context.Context, printerID int64) (Assignment, error)
	OpenAssignment(ctx context.Context, printerID, clientID int64) (Assignment, error)
	CloseAssignment(ctx context.Context, assignmentID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const printerColumns = `p.id, p.serial_number, p.product_id, COALESCE(pr.name, ''), COALESCE(p.location, ''), COALESCE(p.note, ''), a.client_id, COALESCE(c.name, ''), p.is_active, p.created_at, p.updated_at`

const printerJoins = `
	FROM printers p
	LEFT JOIN products pr ON pr.id = p.product_id
	LEFT JOIN printer_assignments a ON a.printer_id = p.id AND a.unassigned_at IS NULL
	LEFT JOIN clients c ON c.id = a.client_id`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Printer, int, error) {
	query := `SELECT ` + printerColumns + printerJoins + ` WHERE 1=1`
	countQuery := `SELECT COUNT(*)` + printerJoins + ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND (p.serial_number ILIKE $` + strconv.Itoa(argCount) + ` OR pr.name ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.ClientID != nil {
		argCount++
		clause := ` AND a.client_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.ClientID)
	}
	if filters.IsActive != nil {
		argCount++
		clause := ` AND p.is_active = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.IsActive)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, filters.Limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, filters.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Printer
	for rows.Next() {
		var p Printer
		if err := rows.Scan(&p.ID, &p.SerialNumber, &p.ProductID, &p.ProductName, &p.Location, &p.Note, &p.ClientID, &p.ClientName, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	return list, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Printer, error) {
	var p Printer
	err := r.pool.QueryRow(ctx, `SELECT `+printerColumns+printerJoins+` WHERE p.id = $1`, id).
		Scan(&p.ID, &p.SerialNumber, &p.ProductID, &p.ProductName, &p.Location, &p.Note, &p.ClientID, &p.ClientName, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Printer{}, shared.ErrNotFound
		}
		return Printer{}, err
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, printer Printer) (Printer, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO printers (serial_number, product_id, location, note, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, printer.SerialNumber, printer.ProductID, printer.Location, printer.Note, printer.IsActive).
		Scan(&printer.ID, &printer.CreatedAt, &printer.UpdatedAt)
	if err != nil {
		return Printer{}, mapDuplicate(err)
	}
	return printer, nil
}

func (r *repository) Update(ctx context.Context, id int64, printer Printer) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE printers
		SET serial_number = $1, product_id = $2, location = $3, note = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6
	`, printer.SerialNumber, printer.ProductID, printer.Location, printer.Note, printer.IsActive, id)
	if err != nil {
		return mapDuplicate(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM printers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Assignments(ctx context.Context, printerID int64) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.printer_id, a.client_id, COALESCE(c.name, ''), a.assigned_at, a.unassigned_at
		FROM printer_assignments a
		LEFT JOIN clients c ON c.id = a.client_id
		WHERE a.printer_id = $1
		ORDER BY a.assigned_at DESC
	`, printerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.PrinterID, &a.ClientID, &a.ClientName, &a.AssignedAt, &a.UnassignedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *repository) CurrentAssignment(ctx context.Context, printerID int64) (Assignment, error) {
	var a Assignment
	err := r.pool.QueryRow(ctx, `
		SELECT a.id, a.printer_id, a.client_id, COALESCE(c.name, ''), a.assigned_at, a.unassigned_at
		FROM printer_assignments a
		LEFT JOIN clients c ON c.id = a.client_id
		WHERE a.printer_id = $1 AND a.unassigned_at IS NULL
	`, printerID).Scan(&a.ID, &a.PrinterID, &a.ClientID, &a.ClientName, &a.AssignedAt, &a.UnassignedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, shared.ErrNotFound
		}
		return Assignment{}, err
	}
	return a, nil
}

// OpenAssignment relies on the uq_printer_assignments_open partial unique
// index to reject a second open assignment for the same printer.
func (r *repository) OpenAssignment(ctx context.Context, printerID, clientID int64) (Assignment, error) {
	a := Assignment{PrinterID: printerID, ClientID: clientID}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO printer_assignments (printer_id, client_id, assigned_at)
		VALUES ($1, $2, NOW())
		RETURNING id, assigned_at
	`, printerID, clientID).Scan(&a.ID, &a.AssignedAt)
	if err != nil {
		return Assignment{}, mapDuplicate(err)
	}
	return a, nil
}

func (r *repository) CloseAssignment(ctx context.Context, assignmentID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE printer_assignments SET unassigned_at = NOW()
		WHERE id = $1 AND unassigned_at IS NULL
	`, assignmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func mapDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "client":
		return "c.name " + dir
	case "product":
		return "pr.name " + dir
	case "created":
		return "p.created_at " + dir
	default:
		return "p.serial_number " + dir
	}
}
