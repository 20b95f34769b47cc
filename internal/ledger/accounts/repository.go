package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// ListFilter narrows List results.
type ListFilter struct {
	Type     AccountType
	IsActive *bool
	Search   string
	Limit    int
	Offset   int
}

// BalanceDrift reports a divergence between the cached balance and the
// balance recomputed from posted history.
type BalanceDrift struct {
	AccountID int64
	Number    string
	Cached    decimal.Decimal
	Computed  decimal.Decimal
}

// Repository persists chart of accounts rows.
type Repository interface {
	Create(ctx context.Context, a Account) (Account, error)
	GetByID(ctx context.Context, id int64) (Account, error)
	GetByNumber(ctx context.Context, number string) (Account, error)
	List(ctx context.Context, f ListFilter) ([]Account, int, error)
	Update(ctx context.Context, a Account) (Account, error)
	Delete(ctx context.Context, id int64) error
	HasPostedActivity(ctx context.Context, id int64) (bool, error)
	BalanceAsOf(ctx context.Context, id int64, asOf time.Time) (decimal.Decimal, error)
	RebuildBalances(ctx context.Context) ([]BalanceDrift, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, number, name, type, normal_balance, current_balance, is_system, is_active, description, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Number, &a.Name, &a.Type, &a.NormalBalance, &a.CurrentBalance,
		&a.IsSystem, &a.IsActive, &a.Description, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) Create(ctx context.Context, a Account) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (number, name, type, normal_balance, current_balance, is_system, is_active, description)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING `+accountColumns,
		a.Number, a.Name, a.Type, a.NormalBalance, a.CurrentBalance, a.IsSystem, a.IsActive, a.Description)
	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicateAccountNumber
		}
		return Account{}, err
	}
	return created, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) GetByNumber(ctx context.Context, number string) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE number=$1`, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Account, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	idx := 1
	if f.Type != "" {
		clauses = append(clauses, fmt.Sprintf("type=$%d", idx))
		args = append(args, f.Type)
		idx++
	}
	if f.IsActive != nil {
		clauses = append(clauses, fmt.Sprintf("is_active=$%d", idx))
		args = append(args, *f.IsActive)
		idx++
	}
	if f.Search != "" {
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR number ILIKE $%d)", idx, idx))
		args = append(args, "%"+f.Search+"%")
		idx++
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE %s ORDER BY number LIMIT $%d OFFSET $%d`,
		accountColumns, where, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, a Account) (Account, error) {
	row := r.db.QueryRow(ctx, `UPDATE accounts SET number=$2, name=$3, type=$4, normal_balance=$5, is_active=$6, description=$7, updated_at=NOW()
WHERE id=$1 RETURNING `+accountColumns,
		a.ID, a.Number, a.Name, a.Type, a.NormalBalance, a.IsActive, a.Description)
	updated, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicateAccountNumber
		}
		return Account{}, err
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *repository) HasPostedActivity(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_id = $1 AND e.status <> 'draft')`, id).Scan(&exists)
	return exists, err
}

// BalanceAsOf reconstructs the balance from posted history up to asOf.
// Reversed originals still count; their mirror entries compensate.
func (r *repository) BalanceAsOf(ctx context.Context, id int64, asOf time.Time) (decimal.Decimal, error) {
	account, err := r.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	var debit, credit decimal.Decimal
	err = r.db.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_id = $1 AND e.status <> 'draft' AND e.posted_at <= $2`, id, asOf).Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, err
	}
	return LineDelta(account.NormalBalance, debit, credit), nil
}

// RebuildBalances recomputes every cached balance from posted history inside
// one transaction and returns the accounts whose cache had drifted.
func (r *repository) RebuildBalances(ctx context.Context) ([]BalanceDrift, error) {
	var drifts []BalanceDrift
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		// FOR UPDATE cannot be combined with aggregates, so lock first then sum.
		rows, err := tx.Query(ctx, `SELECT id, number, normal_balance, current_balance FROM accounts ORDER BY id FOR UPDATE`)
		if err != nil {
			return err
		}
		type lockedAccount struct {
			id     int64
			number string
			normal NormalBalance
			cached decimal.Decimal
		}
		var all []lockedAccount
		for rows.Next() {
			var a lockedAccount
			if err := rows.Scan(&a.id, &a.number, &a.normal, &a.cached); err != nil {
				rows.Close()
				return err
			}
			all = append(all, a)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		sums := make(map[int64][2]decimal.Decimal, len(all))
		sumRows, err := tx.Query(ctx, `SELECT l.account_id, COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status <> 'draft'
GROUP BY l.account_id`)
		if err != nil {
			return err
		}
		for sumRows.Next() {
			var (
				id            int64
				debit, credit decimal.Decimal
			)
			if err := sumRows.Scan(&id, &debit, &credit); err != nil {
				sumRows.Close()
				return err
			}
			sums[id] = [2]decimal.Decimal{debit, credit}
		}
		sumRows.Close()
		if err := sumRows.Err(); err != nil {
			return err
		}

		for _, a := range all {
			pair := sums[a.id]
			computed := LineDelta(a.normal, pair[0], pair[1])
			if !a.cached.Equal(computed) {
				drifts = append(drifts, BalanceDrift{AccountID: a.id, Number: a.number, Cached: a.cached, Computed: computed})
				if _, err := tx.Exec(ctx, `UPDATE accounts SET current_balance=$2, updated_at=NOW() WHERE id=$1`, a.id, computed); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drifts, nil
}
