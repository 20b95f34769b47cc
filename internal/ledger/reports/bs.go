package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// BalanceSheetRow summarises one account. Balance is shown as an absolute
// value; section totals keep the sign.
type BalanceSheetRow struct {
	AccountNumber string          `json:"account_number"`
	AccountName   string          `json:"account_name"`
	Balance       decimal.Decimal `json:"balance"`
}

// BalanceSheet groups asset, liability, and equity accounts. Both sides of
// the accounting equation are exposed so callers can assert equality instead
// of trusting a single computed figure.
type BalanceSheet struct {
	AsOf                   time.Time         `json:"as_of_date"`
	Assets                 []BalanceSheetRow `json:"assets"`
	Liabilities            []BalanceSheetRow `json:"liabilities"`
	Equity                 []BalanceSheetRow `json:"equity"`
	TotalAssets            decimal.Decimal   `json:"total_assets"`
	TotalLiabilities       decimal.Decimal   `json:"total_liabilities"`
	TotalEquity            decimal.Decimal   `json:"total_equity"`
	TotalLiabilitiesEquity decimal.Decimal   `json:"total_liabilities_equity"`
	IsBalanced             bool              `json:"is_balanced"`
}

// BuildBalanceSheet groups balances by account type. Revenue and expense
// balances not yet closed into retained earnings are folded into equity as a
// computed net income row; without it the accounting equation cannot hold
// while the period is open.
func BuildBalanceSheet(rows []AccountRow, asOf time.Time) BalanceSheet {
	bs := BalanceSheet{AsOf: asOf}
	var netIncome decimal.Decimal
	for _, row := range rows {
		item := BalanceSheetRow{
			AccountNumber: row.Number,
			AccountName:   row.Name,
			Balance:       row.Balance.Abs(),
		}
		switch row.Type {
		case accounts.TypeAsset:
			bs.Assets = append(bs.Assets, item)
			bs.TotalAssets = bs.TotalAssets.Add(sectionSigned(row, accounts.NormalDebit))
		case accounts.TypeLiability:
			bs.Liabilities = append(bs.Liabilities, item)
			bs.TotalLiabilities = bs.TotalLiabilities.Add(sectionSigned(row, accounts.NormalCredit))
		case accounts.TypeEquity:
			bs.Equity = append(bs.Equity, item)
			bs.TotalEquity = bs.TotalEquity.Add(sectionSigned(row, accounts.NormalCredit))
		case accounts.TypeRevenue:
			netIncome = netIncome.Add(sectionSigned(row, accounts.NormalCredit))
		case accounts.TypeExpense:
			netIncome = netIncome.Sub(sectionSigned(row, accounts.NormalDebit))
		}
	}
	if !netIncome.IsZero() {
		bs.Equity = append(bs.Equity, BalanceSheetRow{
			AccountName: "Net Income (current period)",
			Balance:     netIncome.Abs(),
		})
		bs.TotalEquity = bs.TotalEquity.Add(netIncome)
	}
	bs.TotalLiabilitiesEquity = bs.TotalLiabilities.Add(bs.TotalEquity)
	bs.IsBalanced = shared.WithinTolerance(bs.TotalAssets.Sub(bs.TotalLiabilitiesEquity))
	return bs
}

// sectionSigned orients a balance toward its section's conventional side, so
// contra accounts (e.g. a credit-normal asset like accumulated depreciation)
// subtract from their section total.
func sectionSigned(row AccountRow, sectionNormal accounts.NormalBalance) decimal.Decimal {
	if row.NormalBalance == sectionNormal {
		return row.Balance
	}
	return row.Balance.Neg()
}
