package journal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// Status enumerates the journal entry lifecycle: draft -> posted -> reversed.
// Posted and reversed entries are immutable history.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPosted   Status = "posted"
	StatusReversed Status = "reversed"
)

// Valid reports whether the status is a known lifecycle value.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPosted, StatusReversed:
		return true
	}
	return false
}

// CanTransition reports whether the edge s -> to is legal.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusDraft:
		return to == StatusPosted
	case StatusPosted:
		return to == StatusReversed
	}
	return false
}

// EnsureCanPost rejects posting from any state but draft. A posted or
// reversed entry was committed exactly once already; a retried post is a
// no-op error, never a second application.
func (s Status) EnsureCanPost() error {
	switch s {
	case StatusDraft:
		return nil
	case StatusPosted, StatusReversed:
		return shared.ErrAlreadyPosted
	}
	return fmt.Errorf("journal: unknown status %q", s)
}

// EnsureCanReverse rejects reversal from any state but posted.
func (s Status) EnsureCanReverse() error {
	switch s {
	case StatusPosted:
		return nil
	case StatusDraft:
		return shared.ErrNotPosted
	case StatusReversed:
		return shared.ErrAlreadyReversed
	}
	return fmt.Errorf("journal: unknown status %q", s)
}

// JournalEntry is a multi-line transaction. Totals are computed at creation
// and re-validated when the entry is posted.
type JournalEntry struct {
	ID           int64
	Number       int64
	Date         time.Time
	Description  string
	Reference    string
	Status       Status
	TotalDebit   decimal.Decimal
	TotalCredit  decimal.Decimal
	PostedAt     *time.Time
	ReversedAt   *time.Time
	ReversalOfID *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Lines        []JournalLine
}

// EntryNumber formats the sequential number the way statements reference it.
func (e JournalEntry) EntryNumber() string {
	return fmt.Sprintf("JE%06d", e.Number)
}

// JournalLine stores the debit or credit amount against one account.
type JournalLine struct {
	ID          int64
	EntryID     int64
	AccountID   int64
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}
