package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/reports"
)

type stubRebuilder struct {
	drifts  []accounts.BalanceDrift
	err     error
	calls   int
	actorID int64
}

func (s *stubRebuilder) Rebuild(ctx context.Context, actorID int64) ([]accounts.BalanceDrift, error) {
	s.calls++
	s.actorID = actorID
	return s.drifts, s.err
}

type stubTrialBalancer struct {
	tb  reports.TrialBalance
	err error
}

func (s *stubTrialBalancer) TrialBalance(ctx context.Context, asOf *time.Time) (reports.TrialBalance, error) {
	return s.tb, s.err
}

type stubCleaner struct {
	olderThan time.Duration
	err       error
	calls     int
}

func (s *stubCleaner) Cleanup(ctx context.Context, olderThan time.Duration) error {
	s.calls++
	s.olderThan = olderThan
	return s.err
}

func TestReconcileJobPassesActor(t *testing.T) {
	rebuilder := &stubRebuilder{drifts: []accounts.BalanceDrift{{
		AccountID: 1,
		Number:    "1000",
		Cached:    decimal.NewFromInt(90),
		Computed:  decimal.NewFromInt(100),
	}}}
	job := NewReconcileJob(rebuilder, nil, nil)

	task, err := NewReconcileTask(ReconcilePayload{ActorID: 42})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, rebuilder.calls)
	assert.Equal(t, int64(42), rebuilder.actorID)
}

func TestReconcileJobSkipsRetryOnBadPayload(t *testing.T) {
	job := NewReconcileJob(&stubRebuilder{}, nil, nil)
	task := asynq.NewTask(TaskLedgerReconcile, []byte("{not json"))

	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestReconcileJobPropagatesFailure(t *testing.T) {
	rebuilder := &stubRebuilder{err: errors.New("db down")}
	job := NewReconcileJob(rebuilder, nil, nil)

	task, err := NewReconcileTask(ReconcilePayload{})
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))
}

func TestIntegrityJobBalancedLedger(t *testing.T) {
	balancer := &stubTrialBalancer{tb: reports.TrialBalance{
		TotalDebit:  decimal.NewFromInt(100),
		TotalCredit: decimal.NewFromInt(100),
		IsBalanced:  true,
	}}
	job := NewIntegrityJob(balancer, nil, nil)

	require.NoError(t, job.Handle(context.Background(), NewIntegrityTask()))
}

func TestIntegrityJobFailsOnImbalance(t *testing.T) {
	balancer := &stubTrialBalancer{tb: reports.TrialBalance{
		TotalDebit:  decimal.NewFromInt(100),
		TotalCredit: decimal.NewFromInt(90),
		IsBalanced:  false,
	}}
	job := NewIntegrityJob(balancer, nil, nil)

	require.Error(t, job.Handle(context.Background(), NewIntegrityTask()))
}

func TestCleanupJobUsesRetention(t *testing.T) {
	cleaner := &stubCleaner{}
	job := NewCleanupJob(cleaner, 48*time.Hour, nil, nil)

	require.NoError(t, job.Handle(context.Background(), NewIdempotencyCleanupTask()))
	assert.Equal(t, 1, cleaner.calls)
	assert.Equal(t, 48*time.Hour, cleaner.olderThan)
}

func TestCleanupJobDefaultRetention(t *testing.T) {
	job := NewCleanupJob(&stubCleaner{}, 0, nil, nil)
	assert.Equal(t, 7*24*time.Hour, job.Retention)
}
