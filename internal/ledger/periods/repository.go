package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository persists fiscal periods.
type Repository interface {
	Insert(ctx context.Context, code string, start, end time.Time) (Period, error)
	GetByID(ctx context.Context, id int64) (Period, error)
	List(ctx context.Context) ([]Period, error)
	RangeConflict(ctx context.Context, start, end time.Time) (bool, error)
	Close(ctx context.Context, id int64, at time.Time) (Period, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const periodColumns = `id, code, start_date, end_date, status, closed_at, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Code, &p.StartDate, &p.EndDate, &p.Status, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) Insert(ctx context.Context, code string, start, end time.Time) (Period, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO fiscal_periods (code, start_date, end_date, status)
VALUES ($1,$2,$3,'open') RETURNING `+periodColumns, code, start, end)
	return scanPeriod(row)
}

func (r *repository) GetByID(ctx context.Context, id int64) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM fiscal_periods ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) RangeConflict(ctx context.Context, start, end time.Time) (bool, error) {
	var conflict bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM fiscal_periods WHERE start_date <= $2 AND end_date >= $1)`, start, end).Scan(&conflict)
	return conflict, err
}

// Close flips the period to closed inside a short transaction; the row lock
// serializes against in-flight postings that checked this period.
func (r *repository) Close(ctx context.Context, id int64, at time.Time) (Period, error) {
	var closed Period
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanPeriod(tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrPeriodNotFound
			}
			return err
		}
		if current.Status == StatusClosed {
			return shared.ErrPeriodAlreadyClosed
		}
		closed, err = scanPeriod(tx.QueryRow(ctx, `UPDATE fiscal_periods SET status='closed', closed_at=$2, updated_at=NOW()
WHERE id=$1 RETURNING `+periodColumns, id, at))
		return err
	})
	if err != nil {
		return Period{}, err
	}
	return closed, nil
}
