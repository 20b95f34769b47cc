package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
	"github.com/meridian-erp/meridian-erp/internal/ledger/reports"
)

// TrialBalancer produces the current trial balance.
type TrialBalancer interface {
	TrialBalance(ctx context.Context, asOf *time.Time) (reports.TrialBalance, error)
}

// IntegrityJob periodically checks that debits equal credits across the
// ledger. The report service already raises the alert metric; the job exists
// so the check happens even when nobody is requesting reports.
type IntegrityJob struct {
	Reports TrialBalancer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewIntegrityJob initialises the integrity handler.
func NewIntegrityJob(rep TrialBalancer, logger *slog.Logger, metrics *jobmetrics.Metrics) *IntegrityJob {
	return &IntegrityJob{Reports: rep, Logger: logger, Metrics: metrics}
}

// Handle executes the integrity check.
func (j *IntegrityJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("integrity: handler not configured")
	}
	tracker := j.Metrics.Track(TaskLedgerIntegrity)
	tb, err := j.Reports.TrialBalance(ctx, nil)
	if err != nil {
		j.logger().Error("integrity check failed", slog.Any("error", err))
		return tracker.End(err)
	}
	if !tb.IsBalanced {
		j.logger().Error("ledger out of balance",
			slog.String("total_debit", tb.TotalDebit.String()),
			slog.String("total_credit", tb.TotalCredit.String()),
		)
		return tracker.End(errors.New("integrity: trial balance totals differ"))
	}
	j.logger().Info("ledger integrity verified", slog.Int("accounts", len(tb.Accounts)))
	return tracker.End(nil)
}

func (j *IntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
