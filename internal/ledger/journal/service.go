package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// CacheBumper invalidates cached reports after balances move.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// MetricsPort counts posting activity.
type MetricsPort interface {
	JournalPosted()
	JournalReversed()
}

// Service coordinates draft creation, posting, and reversal.
type Service struct {
	repo    Repository
	audit   AuditPort
	cache   CacheBumper
	metrics MetricsPort
	now     func() time.Time
}

// NewService constructs the journal service.
func NewService(repo Repository, audit AuditPort, cache CacheBumper, metrics MetricsPort) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, metrics: metrics, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Validate checks a draft without persisting anything: structure, balance,
// and account existence. Safe to retry.
func (s *Service) Validate(ctx context.Context, in DraftInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	ids := make([]int64, 0, len(in.Lines))
	for _, line := range in.Lines {
		ids = append(ids, line.AccountID)
	}
	missing, err := s.repo.MissingAccounts(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", shared.ErrUnknownAccount, missing)
	}
	return nil
}

// Create persists a validated draft. The sequential entry number is assigned
// here, at creation time: a draft deleted later leaves a visible gap, which
// is the intended audit trail of attempted entries.
func (s *Service) Create(ctx context.Context, in DraftInput, actorID int64) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ids := make([]int64, 0, len(in.Lines))
		for _, line := range in.Lines {
			ids = append(ids, line.AccountID)
		}
		missing, err := tx.MissingAccounts(ctx, ids)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %v", shared.ErrUnknownAccount, missing)
		}
		inserted, err := tx.InsertEntry(ctx, in)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, in.Lines); err != nil {
			return err
		}
		entry = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, actorID, "journal.create", entry.ID, map[string]any{"number": entry.Number})
	return entry, nil
}

// Post commits a draft entry's effect onto account balances. The full set of
// line deltas, the period guard, and the status flip share one transaction:
// a failure anywhere leaves every balance untouched.
func (s *Service) Post(ctx context.Context, entryID int64, actorID int64) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if err := current.Status.EnsureCanPost(); err != nil {
			return err
		}
		lines, err := tx.GetLines(ctx, current.ID)
		if err != nil {
			return err
		}
		if err := s.applyLines(ctx, tx, current.Date, toLineInputs(lines)); err != nil {
			return err
		}
		postedAt := s.now()
		if err := tx.MarkPosted(ctx, current.ID, postedAt); err != nil {
			return err
		}
		current.Status = StatusPosted
		current.PostedAt = &postedAt
		current.Lines = lines
		entry = current
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.metrics != nil {
		s.metrics.JournalPosted()
	}
	s.bump(ctx)
	s.record(ctx, actorID, "journal.post", entry.ID, map[string]any{"number": entry.Number})
	return entry, nil
}

// Reverse creates and posts a mirror entry, then marks the original
// reversed. The original's lines are never mutated; the net effect on every
// touched account is zero.
func (s *Service) Reverse(ctx context.Context, entryID int64, actorID int64, memo string) (JournalEntry, error) {
	var reversal JournalEntry
	var originalNumber int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if err := original.Status.EnsureCanReverse(); err != nil {
			return err
		}
		lines, err := tx.GetLines(ctx, original.ID)
		if err != nil {
			return err
		}
		originalNumber = original.Number

		now := s.now()
		draft := DraftInput{
			Date:        now,
			Description: reversalMemo(memo, original),
			Reference:   original.Reference,
			Lines:       mirrorLines(lines),
		}
		inserted, err := tx.InsertEntry(ctx, draft)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, draft.Lines); err != nil {
			return err
		}
		if err := s.applyLines(ctx, tx, draft.Date, draft.Lines); err != nil {
			return err
		}
		if err := tx.MarkPosted(ctx, inserted.ID, now); err != nil {
			return err
		}
		if err := tx.MarkReversed(ctx, original.ID, inserted.ID, now); err != nil {
			return err
		}
		inserted.Status = StatusPosted
		inserted.PostedAt = &now
		reversal = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.metrics != nil {
		s.metrics.JournalReversed()
	}
	s.bump(ctx)
	s.record(ctx, actorID, "journal.reverse", entryID, map[string]any{
		"reversal_id":     reversal.ID,
		"reversal_number": reversal.Number,
		"original_number": originalNumber,
	})
	return reversal, nil
}

// Delete removes a draft. Posted entries are immutable history; reverse them
// instead.
func (s *Service) Delete(ctx context.Context, entryID int64, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return shared.ErrEntryImmutable
		}
		return tx.DeleteEntry(ctx, current.ID)
	})
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "journal.delete", entryID, nil)
	return nil
}

// List returns matching entries plus the unpaginated total.
func (s *Service) List(ctx context.Context, f ListFilter) ([]JournalEntry, int, error) {
	return s.repo.List(ctx, f)
}

// Get fetches one entry with its lines.
func (s *Service) Get(ctx context.Context, id int64) (JournalEntry, error) {
	return s.repo.Get(ctx, id)
}

// applyLines re-validates balance, enforces the period guard, locks the
// touched accounts, and applies one aggregated delta per account.
func (s *Service) applyLines(ctx context.Context, tx TxRepository, date time.Time, lines []LineInput) error {
	var debit, credit decimal.Decimal
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
		ids = append(ids, line.AccountID)
	}
	if !shared.WithinTolerance(debit.Sub(credit)) {
		return &shared.UnbalancedError{Debit: debit, Credit: credit}
	}

	covering, err := tx.PeriodsCovering(ctx, date)
	if err != nil {
		return err
	}
	for _, p := range covering {
		if p.Status == periods.StatusClosed {
			return shared.ErrPeriodClosed
		}
	}

	locked, err := tx.LockAccounts(ctx, ids)
	if err != nil {
		return err
	}
	deltas := make(map[int64]decimal.Decimal, len(locked))
	order := make([]int64, 0, len(locked))
	for _, line := range lines {
		account, ok := locked[line.AccountID]
		if !ok {
			return fmt.Errorf("%w: %d", shared.ErrUnknownAccount, line.AccountID)
		}
		if _, seen := deltas[account.ID]; !seen {
			order = append(order, account.ID)
		}
		deltas[account.ID] = deltas[account.ID].Add(
			accounts.LineDelta(account.NormalBalance, line.Debit, line.Credit))
	}
	for _, id := range order {
		if err := tx.ApplyDelta(ctx, id, deltas[id]); err != nil {
			return err
		}
	}
	return nil
}

func toLineInputs(lines []JournalLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	return out
}

func mirrorLines(lines []JournalLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID:   line.AccountID,
			Debit:       line.Credit,
			Credit:      line.Debit,
			Description: line.Description,
		})
	}
	return out
}

func reversalMemo(memo string, original JournalEntry) string {
	if memo != "" {
		return memo
	}
	return fmt.Sprintf("Reversal of %s", original.EntryNumber())
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
		At:       s.now(),
	})
}
