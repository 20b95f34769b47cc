package journal

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// LineInput describes one journal line of a draft.
type LineInput struct {
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// DraftInput groups fields required to create a draft entry.
type DraftInput struct {
	Date        time.Time
	Description string
	Reference   string
	Lines       []LineInput
}

// Totals sums the debit and credit columns.
func (in DraftInput) Totals() (debit, credit decimal.Decimal) {
	for _, line := range in.Lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// Validate checks the entry-level invariant without touching storage: at
// least two lines, non-negative amounts, and balanced totals. A line may
// carry both sides; only the entry-level balance is authoritative.
func (in DraftInput) Validate() error {
	if in.Date.IsZero() {
		return errors.New("journal: entry date required")
	}
	if len(in.Lines) < 2 {
		return shared.ErrTooFewLines
	}
	for idx, line := range in.Lines {
		if line.AccountID == 0 {
			return fmt.Errorf("journal: line %d missing account", idx)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("journal: line %d negative amount", idx)
		}
	}
	debit, credit := in.Totals()
	if !shared.WithinTolerance(debit.Sub(credit)) {
		return &shared.UnbalancedError{Debit: debit, Credit: credit}
	}
	return nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Status    Status
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
	Limit     int
	Offset    int
}
