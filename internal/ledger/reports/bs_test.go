package reports

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

func TestBuildBalanceSheetFoldsNetIncomeIntoEquity(t *testing.T) {
	// A single cash sale: assets 100, revenue 100, no explicit equity rows.
	rows := []AccountRow{
		{Number: "1000", Name: "Cash", Type: accounts.TypeAsset, NormalBalance: accounts.NormalDebit, Balance: amount("100.00")},
		{Number: "4000", Name: "Revenue", Type: accounts.TypeRevenue, NormalBalance: accounts.NormalCredit, Balance: amount("100.00")},
	}

	bs := BuildBalanceSheet(rows, asOfDate())

	assert.True(t, bs.TotalAssets.Equal(amount("100.00")))
	assert.True(t, bs.TotalLiabilities.IsZero())
	require.Len(t, bs.Equity, 1)
	assert.Equal(t, "Net Income (current period)", bs.Equity[0].AccountName)
	assert.True(t, bs.TotalEquity.Equal(amount("100.00")))
	assert.True(t, bs.TotalLiabilitiesEquity.Equal(amount("100.00")))
	assert.True(t, bs.IsBalanced)
}

func TestBuildBalanceSheetNetIncomeSubtractsExpenses(t *testing.T) {
	rows := []AccountRow{
		{Number: "1000", Name: "Cash", Type: accounts.TypeAsset, NormalBalance: accounts.NormalDebit, Balance: amount("60.00")},
		{Number: "4000", Name: "Revenue", Type: accounts.TypeRevenue, NormalBalance: accounts.NormalCredit, Balance: amount("100.00")},
		{Number: "5000", Name: "Rent", Type: accounts.TypeExpense, NormalBalance: accounts.NormalDebit, Balance: amount("40.00")},
	}

	bs := BuildBalanceSheet(rows, asOfDate())

	assert.True(t, bs.TotalEquity.Equal(amount("60.00")), "net income is revenue minus expenses")
	assert.True(t, bs.IsBalanced)
}

func TestBuildBalanceSheetContraAccountSubtracts(t *testing.T) {
	// Accumulated depreciation is a credit-normal asset; it reduces the
	// asset section while still listing under assets.
	rows := []AccountRow{
		{Number: "1500", Name: "Equipment", Type: accounts.TypeAsset, NormalBalance: accounts.NormalDebit, Balance: amount("1000.00")},
		{Number: "1510", Name: "Accumulated Depreciation", Type: accounts.TypeAsset, NormalBalance: accounts.NormalCredit, Balance: amount("200.00")},
		{Number: "3000", Name: "Owner Equity", Type: accounts.TypeEquity, NormalBalance: accounts.NormalCredit, Balance: amount("800.00")},
	}

	bs := BuildBalanceSheet(rows, asOfDate())

	require.Len(t, bs.Assets, 2)
	assert.True(t, bs.TotalAssets.Equal(amount("800.00")))
	assert.True(t, bs.Assets[1].Balance.Equal(amount("200.00")), "row shows absolute value")
	assert.True(t, bs.IsBalanced)
}

func TestBuildBalanceSheetGroupsSections(t *testing.T) {
	rows := []AccountRow{
		{Number: "1000", Name: "Cash", Type: accounts.TypeAsset, NormalBalance: accounts.NormalDebit, Balance: amount("500.00")},
		{Number: "2000", Name: "Payables", Type: accounts.TypeLiability, NormalBalance: accounts.NormalCredit, Balance: amount("200.00")},
		{Number: "3000", Name: "Owner Equity", Type: accounts.TypeEquity, NormalBalance: accounts.NormalCredit, Balance: amount("300.00")},
	}

	bs := BuildBalanceSheet(rows, asOfDate())

	require.Len(t, bs.Assets, 1)
	require.Len(t, bs.Liabilities, 1)
	require.Len(t, bs.Equity, 1, "no net income row when revenue and expenses are flat")
	assert.True(t, bs.TotalLiabilitiesEquity.Equal(amount("500.00")))
	assert.True(t, bs.IsBalanced)
}

func TestBuildBalanceSheetDetectsEquationViolation(t *testing.T) {
	rows := []AccountRow{
		{Number: "1000", Name: "Cash", Type: accounts.TypeAsset, NormalBalance: accounts.NormalDebit, Balance: amount("500.00")},
		{Number: "3000", Name: "Owner Equity", Type: accounts.TypeEquity, NormalBalance: accounts.NormalCredit, Balance: amount("450.00")},
	}

	bs := BuildBalanceSheet(rows, asOfDate())
	assert.False(t, bs.IsBalanced)
}

func TestBuildBalanceSheetEmptyLedger(t *testing.T) {
	bs := BuildBalanceSheet(nil, asOfDate())
	assert.Empty(t, bs.Assets)
	assert.Empty(t, bs.Equity)
	assert.True(t, bs.TotalAssets.Equal(decimal.Zero))
	assert.True(t, bs.IsBalanced)
}
