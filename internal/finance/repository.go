package finance

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the pgx-backed cash book store.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `id, kind, category, amount, COALESCE(reference, ''), COALESCE(note, ''), occurred_at, created_at`

func (r *Repository) InsertEntry(ctx context.Context, entry Entry) (Entry, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO finance_entries (kind, category, amount, reference, note, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`, string(entry.Kind), entry.Category, entry.Amount, entry.Reference, entry.Note, entry.OccurredAt).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *Repository) GetEntry(ctx context.Context, id int64) (Entry, error) {
	var e Entry
	err := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM finance_entries WHERE id = $1`, id).
		Scan(&e.ID, &e.Kind, &e.Category, &e.Amount, &e.Reference, &e.Note, &e.OccurredAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return e, nil
}

func (r *Repository) ListEntries(ctx context.Context, limit, offset int, filters ListFilters) ([]Entry, int, error) {
	query := `SELECT ` + entryColumns + ` FROM finance_entries WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM finance_entries WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Kind != "" {
		argCount++
		clause := ` AND kind = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, string(filters.Kind))
	}
	if filters.Category != "" {
		argCount++
		clause := ` AND category = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, filters.Category)
	}
	if !filters.From.IsZero() {
		argCount++
		clause := ` AND occurred_at >= $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, filters.From)
	}
	if !filters.To.IsZero() {
		argCount++
		clause := ` AND occurred_at <= $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, filters.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "DESC"
	if filters.SortDir == "asc" {
		dir = "ASC"
	}
	query += ` ORDER BY occurred_at ` + dir + `, id ` + dir
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Category, &e.Amount, &e.Reference, &e.Note, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, e)
	}
	return list, total, rows.Err()
}

func (r *Repository) MonthlySummary(ctx context.Context, from, to time.Time) ([]MonthlySummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(date_trunc('month', occurred_at), 'YYYY-MM') AS month,
		       COALESCE(SUM(amount) FILTER (WHERE kind = 'INCOME'), 0) AS income,
		       COALESCE(SUM(amount) FILTER (WHERE kind = 'EXPENSE'), 0) AS expense
		FROM finance_entries
		WHERE occurred_at >= $1 AND occurred_at <= $2
		GROUP BY 1
		ORDER BY 1
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []MonthlySummary
	for rows.Next() {
		var s MonthlySummary
		if err := rows.Scan(&s.Month, &s.Income, &s.Expense); err != nil {
			return nil, err
		}
		s.Net = s.Income - s.Expense
		list = append(list, s)
	}
	return list, rows.Err()
}
