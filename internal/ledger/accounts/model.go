package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates chart of accounts categories.
type AccountType string

const (
	TypeAsset     AccountType = "asset"
	TypeLiability AccountType = "liability"
	TypeEquity    AccountType = "equity"
	TypeRevenue   AccountType = "revenue"
	TypeExpense   AccountType = "expense"
)

// Valid reports whether the account type is a known category.
func (t AccountType) Valid() bool {
	switch t {
	case TypeAsset, TypeLiability, TypeEquity, TypeRevenue, TypeExpense:
		return true
	}
	return false
}

// NormalBalance is the side on which an account conventionally increases.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "debit"
	NormalCredit NormalBalance = "credit"
)

// Valid reports whether the normal balance side is known.
func (n NormalBalance) Valid() bool {
	return n == NormalDebit || n == NormalCredit
}

// Account models a chart of accounts node. CurrentBalance is a materialized
// view of posted journal lines; only the posting path may mutate it.
type Account struct {
	ID             int64
	Number         string
	Name           string
	Type           AccountType
	NormalBalance  NormalBalance
	CurrentBalance decimal.Decimal
	IsSystem       bool
	IsActive       bool
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LineDelta converts a journal line into the signed balance movement for an
// account: debit-normal accounts grow on debits, credit-normal on credits.
func LineDelta(normal NormalBalance, debit, credit decimal.Decimal) decimal.Decimal {
	if normal == NormalDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}
