package journal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository encapsulates journal persistence. All writes run through WithTx
// so one entry's effect commits as a single unit.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, f ListFilter) ([]JournalEntry, int, error)
	Get(ctx context.Context, id int64) (JournalEntry, error)
	MissingAccounts(ctx context.Context, ids []int64) ([]int64, error)
}

// TxRepository exposes operations available inside a posting transaction.
type TxRepository interface {
	InsertEntry(ctx context.Context, in DraftInput) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []LineInput) error
	GetEntryForUpdate(ctx context.Context, id int64) (JournalEntry, error)
	GetLines(ctx context.Context, entryID int64) ([]JournalLine, error)
	DeleteEntry(ctx context.Context, id int64) error
	MarkPosted(ctx context.Context, id int64, at time.Time) error
	MarkReversed(ctx context.Context, id int64, reversalID int64, at time.Time) error
	MissingAccounts(ctx context.Context, ids []int64) ([]int64, error)
	LockAccounts(ctx context.Context, ids []int64) (map[int64]accounts.Account, error)
	ApplyDelta(ctx context.Context, accountID int64, delta decimal.Decimal) error
	PeriodsCovering(ctx context.Context, date time.Time) ([]periods.Period, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, number, date, description, reference, status, total_debit, total_credit, posted_at, reversed_at, reversal_of_id, created_at, updated_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.Number, &e.Date, &e.Description, &e.Reference, &e.Status,
		&e.TotalDebit, &e.TotalCredit, &e.PostedAt, &e.ReversedAt, &e.ReversalOfID, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// WithTx executes fn within a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]JournalEntry, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	idx := 1
	if f.Status != "" {
		clauses = append(clauses, fmt.Sprintf("status=$%d", idx))
		args = append(args, f.Status)
		idx++
	}
	if f.StartDate != nil {
		clauses = append(clauses, fmt.Sprintf("date >= $%d", idx))
		args = append(args, *f.StartDate)
		idx++
	}
	if f.EndDate != nil {
		clauses = append(clauses, fmt.Sprintf("date <= $%d", idx))
		args = append(args, *f.EndDate)
		idx++
	}
	if f.Search != "" {
		clauses = append(clauses, fmt.Sprintf("(description ILIKE $%d OR reference ILIKE $%d)", idx, idx))
		args = append(args, "%"+f.Search+"%")
		idx++
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM journal_entries WHERE %s ORDER BY date DESC, number DESC LIMIT $%d OFFSET $%d`,
		entryColumns, where, idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	entry.Lines, err = queryLines(ctx, r.db, id)
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *repository) MissingAccounts(ctx context.Context, ids []int64) ([]int64, error) {
	return missingAccounts(ctx, r.db, ids)
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q queryer, entryID int64) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT id, entry_id, account_id, debit, credit, description
FROM journal_lines WHERE entry_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Debit, &line.Credit, &line.Description); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func missingAccounts(ctx context.Context, q queryer, ids []int64) ([]int64, error) {
	unique := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	deduped := make([]int64, 0, len(unique))
	for id := range unique {
		deduped = append(deduped, id)
	}
	rows, err := q.Query(ctx, `SELECT id FROM accounts WHERE id = ANY($1)`, deduped)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	found := make(map[int64]struct{}, len(deduped))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var missing []int64
	for _, id := range deduped {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing, nil
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertEntry(ctx context.Context, in DraftInput) (JournalEntry, error) {
	debit, credit := in.Totals()
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (date, description, reference, status, total_debit, total_credit)
VALUES ($1,$2,$3,'draft',$4,$5) RETURNING `+entryColumns,
		in.Date, in.Description, in.Reference, debit, credit)
	return scanEntry(row)
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []LineInput) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (entry_id, account_id, debit, credit, description)
VALUES ($1,$2,$3,$4,$5)`, entryID, line.AccountID, line.Debit, line.Credit, line.Description); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, id int64) (JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) GetLines(ctx context.Context, entryID int64) ([]JournalLine, error) {
	return queryLines(ctx, r.tx, entryID)
}

func (r *txRepository) DeleteEntry(ctx context.Context, id int64) error {
	// Lines cascade via FK.
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) MarkPosted(ctx context.Context, id int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='posted', posted_at=$2, updated_at=NOW() WHERE id=$1`, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) MarkReversed(ctx context.Context, id int64, reversalID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='reversed', reversed_at=$2, reversal_of_id=$3, updated_at=NOW() WHERE id=$1`, id, at, reversalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) MissingAccounts(ctx context.Context, ids []int64) ([]int64, error) {
	return missingAccounts(ctx, r.tx, ids)
}

// LockAccounts acquires row locks in ascending id order so concurrent posts
// touching the same accounts cannot deadlock.
func (r *txRepository) LockAccounts(ctx context.Context, ids []int64) (map[int64]accounts.Account, error) {
	unique := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	ordered := make([]int64, 0, len(unique))
	for id := range unique {
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	rows, err := r.tx.Query(ctx, `SELECT id, number, name, type, normal_balance, current_balance, is_system, is_active, description, created_at, updated_at
FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ordered)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]accounts.Account, len(ordered))
	for rows.Next() {
		var a accounts.Account
		if err := rows.Scan(&a.ID, &a.Number, &a.Name, &a.Type, &a.NormalBalance, &a.CurrentBalance,
			&a.IsSystem, &a.IsActive, &a.Description, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

func (r *txRepository) ApplyDelta(ctx context.Context, accountID int64, delta decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET current_balance = current_balance + $2, updated_at=NOW() WHERE id=$1`, accountID, delta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrUnknownAccount
	}
	return nil
}

// PeriodsCovering locks any fiscal period whose range contains date, so a
// concurrent period close serializes against this posting.
func (r *txRepository) PeriodsCovering(ctx context.Context, date time.Time) ([]periods.Period, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, code, start_date, end_date, status, closed_at, created_at, updated_at
FROM fiscal_periods WHERE $1::date BETWEEN start_date AND end_date ORDER BY id FOR UPDATE`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []periods.Period
	for rows.Next() {
		var p periods.Period
		if err := rows.Scan(&p.ID, &p.Code, &p.StartDate, &p.EndDate, &p.Status, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
