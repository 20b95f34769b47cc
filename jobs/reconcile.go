package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
)

// BalanceRebuilder recomputes cached balances and reports drifts.
type BalanceRebuilder interface {
	Rebuild(ctx context.Context, actorID int64) ([]accounts.BalanceDrift, error)
}

// ReconcileJob rebuilds materialized account balances from posted history.
// Posting keeps balances in sync transactionally; this job is the safety net
// that catches drift from manual database surgery or bugs.
type ReconcileJob struct {
	Rebuilder BalanceRebuilder
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewReconcileJob initialises the reconciliation handler.
func NewReconcileJob(rebuilder BalanceRebuilder, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReconcileJob {
	return &ReconcileJob{Rebuilder: rebuilder, Logger: logger, Metrics: metrics}
}

// Handle executes the reconciliation.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Rebuilder == nil {
		return errors.New("reconcile: handler not configured")
	}
	var payload ReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.Metrics.Track(TaskLedgerReconcile)
	start := time.Now()
	drifts, err := j.Rebuilder.Rebuild(ctx, payload.ActorID)
	if err != nil {
		j.logger().Error("balance reconciliation failed", slog.Any("error", err))
		return tracker.End(err)
	}

	for _, d := range drifts {
		j.logger().Warn("balance drift corrected",
			slog.Int64("account_id", d.AccountID),
			slog.String("number", d.Number),
			slog.String("cached", d.Cached.String()),
			slog.String("computed", d.Computed.String()),
		)
	}
	j.Metrics.AddDrift(len(drifts))
	j.logger().Info("balance reconciliation completed",
		slog.Int("drifted", len(drifts)),
		slog.Duration("duration", time.Since(start)),
	)
	return tracker.End(nil)
}

func (j *ReconcileJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
