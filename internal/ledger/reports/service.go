package reports

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// AlertMetrics surfaces integrity problems to monitoring.
type AlertMetrics interface {
	IntegrityAlert()
}

// Service builds ledger reports, caching them until the next posting.
type Service struct {
	source  BalanceSource
	cache   *Cache
	logger  *slog.Logger
	metrics AlertMetrics
	now     func() time.Time
}

// NewService constructs the report service.
func NewService(source BalanceSource, cache *Cache, logger *slog.Logger, metrics AlertMetrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, cache: cache, logger: logger, metrics: metrics, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// TrialBalance builds the trial balance. With a nil asOf it reads the cached
// running balances; otherwise it reconstructs balances from posting history.
func (s *Service) TrialBalance(ctx context.Context, asOf *time.Time) (TrialBalance, error) {
	rows, at, err := s.balances(ctx, asOf)
	if err != nil {
		return TrialBalance{}, err
	}
	var tb TrialBalance
	err = s.fetch(ctx, "trial-balance", asOf, &tb, func(context.Context) (any, error) {
		return BuildTrialBalance(rows, at), nil
	})
	if err != nil {
		return TrialBalance{}, err
	}
	if !tb.IsBalanced {
		s.alert(ctx, "trial balance out of balance",
			slog.String("total_debit", tb.TotalDebit.String()),
			slog.String("total_credit", tb.TotalCredit.String()))
	}
	return tb, nil
}

// BalanceSheet builds the balance sheet for the same balance sources as
// TrialBalance.
func (s *Service) BalanceSheet(ctx context.Context, asOf *time.Time) (BalanceSheet, error) {
	rows, at, err := s.balances(ctx, asOf)
	if err != nil {
		return BalanceSheet{}, err
	}
	var bs BalanceSheet
	err = s.fetch(ctx, "balance-sheet", asOf, &bs, func(context.Context) (any, error) {
		return BuildBalanceSheet(rows, at), nil
	})
	if err != nil {
		return BalanceSheet{}, err
	}
	if !bs.IsBalanced {
		s.alert(ctx, "balance sheet violates accounting equation",
			slog.String("total_assets", bs.TotalAssets.String()),
			slog.String("total_liabilities_equity", bs.TotalLiabilitiesEquity.String()))
	}
	return bs, nil
}

// Summary bundles both statements for a single point in time.
type Summary struct {
	TrialBalance TrialBalance `json:"trial_balance"`
	BalanceSheet BalanceSheet `json:"balance_sheet"`
}

// Summary builds the trial balance and balance sheet concurrently.
func (s *Service) Summary(ctx context.Context, asOf *time.Time) (Summary, error) {
	var out Summary
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tb, err := s.TrialBalance(ctx, asOf)
		if err != nil {
			return err
		}
		out.TrialBalance = tb
		return nil
	})
	g.Go(func() error {
		bs, err := s.BalanceSheet(ctx, asOf)
		if err != nil {
			return err
		}
		out.BalanceSheet = bs
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *Service) balances(ctx context.Context, asOf *time.Time) ([]AccountRow, time.Time, error) {
	if asOf == nil {
		rows, err := s.source.LiveBalances(ctx)
		return rows, s.now(), err
	}
	rows, err := s.source.BalancesAsOf(ctx, *asOf)
	return rows, *asOf, err
}

func (s *Service) fetch(ctx context.Context, report string, asOf *time.Time, dest any, loader func(context.Context) (any, error)) error {
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return reencode(value, dest)
	}
	parts := []string{report, "live"}
	if asOf != nil {
		parts[1] = asOf.UTC().Format(time.RFC3339)
	}
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		// Cache trouble must not take reporting down.
		s.logger.WarnContext(ctx, "report cache unavailable", slog.Any("error", err))
		value, lerr := loader(ctx)
		if lerr != nil {
			return lerr
		}
		return reencode(value, dest)
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}

// An imbalanced report means posted lines and materialized balances disagree,
// which the posting engine should make impossible. Page someone.
func (s *Service) alert(ctx context.Context, msg string, attrs ...any) {
	s.logger.ErrorContext(ctx, msg, attrs...)
	if s.metrics != nil {
		s.metrics.IntegrityAlert()
	}
}
