package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

func amount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func asOfDate() time.Time {
	return time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
}

func TestBuildTrialBalanceColumns(t *testing.T) {
	rows := []AccountRow{
		{Number: "1000", Name: "Cash", Type: accounts.TypeAsset, NormalBalance: accounts.NormalDebit, Balance: amount("100.00")},
		{Number: "4000", Name: "Revenue", Type: accounts.TypeRevenue, NormalBalance: accounts.NormalCredit, Balance: amount("100.00")},
	}

	tb := BuildTrialBalance(rows, asOfDate())

	require.Len(t, tb.Accounts, 2)
	assert.True(t, tb.Accounts[0].Debit.Equal(amount("100.00")))
	assert.True(t, tb.Accounts[0].Credit.IsZero())
	assert.True(t, tb.Accounts[1].Credit.Equal(amount("100.00")))
	assert.True(t, tb.TotalDebit.Equal(tb.TotalCredit))
	assert.True(t, tb.IsBalanced)
	assert.Equal(t, asOfDate(), tb.AsOf)
}

func TestBuildTrialBalanceSkipsZeroBalances(t *testing.T) {
	rows := []AccountRow{
		{Number: "1000", Name: "Cash", Type: accounts.TypeAsset, NormalBalance: accounts.NormalDebit, Balance: amount("50.00")},
		{Number: "1200", Name: "Receivables", Type: accounts.TypeAsset, NormalBalance: accounts.NormalDebit, Balance: decimal.Zero},
		{Number: "4000", Name: "Revenue", Type: accounts.TypeRevenue, NormalBalance: accounts.NormalCredit, Balance: amount("50.00")},
	}

	tb := BuildTrialBalance(rows, asOfDate())

	require.Len(t, tb.Accounts, 2)
	for _, row := range tb.Accounts {
		assert.NotEqual(t, "1200", row.AccountNumber)
	}
}

func TestBuildTrialBalanceFlipsNegativeToOppositeColumn(t *testing.T) {
	// Cash driven negative (overdraft) shows in the credit column.
	rows := []AccountRow{
		{Number: "1000", Name: "Cash", Type: accounts.TypeAsset, NormalBalance: accounts.NormalDebit, Balance: amount("-25.00")},
		{Number: "2000", Name: "Payables", Type: accounts.TypeLiability, NormalBalance: accounts.NormalCredit, Balance: amount("-25.00")},
	}

	tb := BuildTrialBalance(rows, asOfDate())

	require.Len(t, tb.Accounts, 2)
	assert.True(t, tb.Accounts[0].Debit.IsZero())
	assert.True(t, tb.Accounts[0].Credit.Equal(amount("25.00")))
	assert.True(t, tb.Accounts[1].Debit.Equal(amount("25.00")))
	assert.True(t, tb.Accounts[1].Credit.IsZero())
	assert.True(t, tb.IsBalanced)
}

func TestBuildTrialBalanceDetectsImbalance(t *testing.T) {
	rows := []AccountRow{
		{Number: "1000", Name: "Cash", Type: accounts.TypeAsset, NormalBalance: accounts.NormalDebit, Balance: amount("100.00")},
		{Number: "4000", Name: "Revenue", Type: accounts.TypeRevenue, NormalBalance: accounts.NormalCredit, Balance: amount("90.00")},
	}

	tb := BuildTrialBalance(rows, asOfDate())
	assert.False(t, tb.IsBalanced)
}

func TestBuildTrialBalanceEmptyLedger(t *testing.T) {
	tb := BuildTrialBalance(nil, asOfDate())
	assert.Empty(t, tb.Accounts)
	assert.True(t, tb.TotalDebit.IsZero())
	assert.True(t, tb.TotalCredit.IsZero())
	assert.True(t, tb.IsBalanced, "an empty ledger balances trivially")
}
