// Package shared holds the error taxonomy common to the ledger packages.
package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateAccountNumber indicates the account number is taken.
	ErrDuplicateAccountNumber = errors.New("ledger: account number already exists")
	// ErrSystemAccountImmutable indicates an edit or delete against a system account.
	ErrSystemAccountImmutable = errors.New("ledger: system account is immutable")
	// ErrAccountHasActivity indicates the account is referenced by posted lines.
	ErrAccountHasActivity = errors.New("ledger: account has posted activity")
	// ErrAccountNotFound indicates a missing account.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrUnknownAccount indicates a journal line references a nonexistent account.
	ErrUnknownAccount = errors.New("ledger: unknown account referenced")
	// ErrUnbalanced indicates debit and credit totals differ beyond tolerance.
	ErrUnbalanced = errors.New("ledger: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: journal requires at least two lines")
	// ErrEntryNotFound indicates a missing journal entry.
	ErrEntryNotFound = errors.New("ledger: journal entry not found")
	// ErrAlreadyPosted indicates a post against an entry that left draft.
	ErrAlreadyPosted = errors.New("ledger: journal entry already posted")
	// ErrNotPosted indicates a reversal against an entry that is not posted.
	ErrNotPosted = errors.New("ledger: journal entry is not posted")
	// ErrAlreadyReversed indicates a second reversal of the same entry.
	ErrAlreadyReversed = errors.New("ledger: journal entry already reversed")
	// ErrEntryImmutable indicates an edit or delete against a non-draft entry.
	ErrEntryImmutable = errors.New("ledger: posted entries are immutable")
	// ErrPeriodClosed indicates the entry date falls inside a closed fiscal period.
	ErrPeriodClosed = errors.New("ledger: fiscal period is closed for posting")
	// ErrPeriodNotFound indicates a missing fiscal period.
	ErrPeriodNotFound = errors.New("ledger: fiscal period not found")
	// ErrPeriodOverlap indicates a new period intersects an existing one.
	ErrPeriodOverlap = errors.New("ledger: fiscal period overlaps an existing period")
	// ErrPeriodAlreadyClosed indicates a second close of the same period.
	ErrPeriodAlreadyClosed = errors.New("ledger: fiscal period already closed")
)

// UnbalancedError carries the computed debit/credit totals for diagnostics.
// It matches ErrUnbalanced under errors.Is.
type UnbalancedError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Difference returns debit minus credit.
func (e *UnbalancedError) Difference() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("ledger: journal lines must balance (debit %s, credit %s, difference %s)",
		e.Debit.StringFixed(2), e.Credit.StringFixed(2), e.Difference().StringFixed(2))
}

// Is reports equivalence with ErrUnbalanced.
func (e *UnbalancedError) Is(target error) bool {
	return target == ErrUnbalanced
}

// BalanceTolerance is the absolute debit/credit difference accepted as balanced.
// Amounts are fixed-point decimals, so a nonzero difference within tolerance
// only arises from callers that pre-rounded with binary floats.
var BalanceTolerance = decimal.New(1, -2)

// WithinTolerance reports whether a difference counts as balanced.
func WithinTolerance(diff decimal.Decimal) bool {
	return diff.Abs().LessThanOrEqual(BalanceTolerance)
}
