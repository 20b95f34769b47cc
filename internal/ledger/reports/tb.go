// Package reports derives trial balance and balance sheet snapshots from the
// account registry. Pure read-side; nothing here mutates ledger state.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// AccountRow is one registry account with its signed balance, the input to
// the report builders.
type AccountRow struct {
	Number        string
	Name          string
	Type          accounts.AccountType
	NormalBalance accounts.NormalBalance
	Balance       decimal.Decimal
}

// TrialBalanceRow projects an account balance onto a single column: debit or
// credit, never both.
type TrialBalanceRow struct {
	AccountNumber string                `json:"account_number"`
	AccountName   string                `json:"account_name"`
	AccountType   accounts.AccountType  `json:"account_type"`
	Debit         decimal.Decimal       `json:"debit"`
	Credit        decimal.Decimal       `json:"credit"`
}

// TrialBalance is the full report. TotalDebit must equal TotalCredit on any
// ledger reachable through the posting engine alone.
type TrialBalance struct {
	AsOf        time.Time         `json:"as_of_date"`
	Accounts    []TrialBalanceRow `json:"accounts"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	IsBalanced  bool              `json:"is_balanced"`
}

// BuildTrialBalance projects signed balances into debit/credit columns.
// Zero-balance accounts are omitted; a negative balance flips to the
// opposite column.
func BuildTrialBalance(rows []AccountRow, asOf time.Time) TrialBalance {
	tb := TrialBalance{AsOf: asOf}
	for _, row := range rows {
		if row.Balance.IsZero() {
			continue
		}
		var debit, credit decimal.Decimal
		if row.NormalBalance == accounts.NormalDebit {
			if row.Balance.IsPositive() {
				debit = row.Balance
			} else {
				credit = row.Balance.Abs()
			}
		} else {
			if row.Balance.IsPositive() {
				credit = row.Balance
			} else {
				debit = row.Balance.Abs()
			}
		}
		tb.Accounts = append(tb.Accounts, TrialBalanceRow{
			AccountNumber: row.Number,
			AccountName:   row.Name,
			AccountType:   row.Type,
			Debit:         debit,
			Credit:        credit,
		})
		tb.TotalDebit = tb.TotalDebit.Add(debit)
		tb.TotalCredit = tb.TotalCredit.Add(credit)
	}
	tb.IsBalanced = shared.WithinTolerance(tb.TotalDebit.Sub(tb.TotalCredit))
	return tb
}
