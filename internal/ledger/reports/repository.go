package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

// BalanceSource supplies account balances for report building.
type BalanceSource interface {
	LiveBalances(ctx context.Context) ([]AccountRow, error)
	BalancesAsOf(ctx context.Context, asOf time.Time) ([]AccountRow, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed balance source.
func NewRepository(db *pgxpool.Pool) BalanceSource {
	return &repository{db: db}
}

// LiveBalances reads the cached running balances of active accounts.
func (r *repository) LiveBalances(ctx context.Context) ([]AccountRow, error) {
	rows, err := r.db.Query(ctx, `SELECT number, name, type, normal_balance, current_balance
FROM accounts WHERE is_active ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountRow
	for rows.Next() {
		var row AccountRow
		if err := rows.Scan(&row.Number, &row.Name, &row.Type, &row.NormalBalance, &row.Balance); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// BalancesAsOf reconstructs balances from posted history up to asOf, reading
// a consistent snapshot so a concurrent post is either fully in or fully out.
func (r *repository) BalancesAsOf(ctx context.Context, asOf time.Time) ([]AccountRow, error) {
	rows, err := r.db.Query(ctx, `SELECT a.number, a.name, a.type, a.normal_balance,
COALESCE(SUM(l.debit) FILTER (WHERE e.posted_at <= $1), 0),
COALESCE(SUM(l.credit) FILTER (WHERE e.posted_at <= $1), 0)
FROM accounts a
LEFT JOIN journal_lines l ON l.account_id = a.id
LEFT JOIN journal_entries e ON e.id = l.entry_id AND e.status <> 'draft'
WHERE a.is_active
GROUP BY a.id, a.number, a.name, a.type, a.normal_balance
ORDER BY a.number`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountRow
	for rows.Next() {
		var (
			row           AccountRow
			debit, credit decimal.Decimal
		)
		if err := rows.Scan(&row.Number, &row.Name, &row.Type, &row.NormalBalance, &debit, &credit); err != nil {
			return nil, err
		}
		row.Balance = accounts.LineDelta(row.NormalBalance, debit, credit)
		out = append(out, row)
	}
	return out, rows.Err()
}
