package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ReconcileJobName is the name of the grand total reconciliation job
const ReconcileJobName = "estimate_reconcile"

// ReconcileResult counts what a reconciliation run did
type ReconcileResult struct {
	Checked  int
	Repaired int
	Failed   int
}

// Reconciler recomputes stored grand total snapshots from their documents.
// Defined here so the job does not import the service package.
type Reconciler interface {
	Reconcile(ctx context.Context) (ReconcileResult, error)
}

// ReconcileJob rewrites drifted estimate snapshots and bid values
type ReconcileJob struct {
	reconciler Reconciler
	logger     *zap.Logger
	timeout    time.Duration
}

// NewReconcileJob creates a reconciliation job bounded by timeout
func NewReconcileJob(reconciler Reconciler, logger *zap.Logger, timeout time.Duration) *ReconcileJob {
	return &ReconcileJob{
		reconciler: reconciler,
		logger:     logger,
		timeout:    timeout,
	}
}

// Run executes one reconciliation pass.
// This is called by the scheduler according to the cron expression.
func (j *ReconcileJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	result, err := j.reconciler.Reconcile(ctx)
	if err != nil {
		j.logger.Error("estimate reconciliation failed",
			zap.Error(err),
			zap.Int("checked", result.Checked),
			zap.Int("repaired", result.Repaired),
			zap.Duration("duration", time.Since(start)))
		return
	}

	fields := []zap.Field{
		zap.Int("checked", result.Checked),
		zap.Int("repaired", result.Repaired),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", time.Since(start)),
	}
	if result.Repaired > 0 || result.Failed > 0 {
		j.logger.Warn("estimate reconciliation found drifted snapshots", fields...)
		return
	}
	j.logger.Info("estimate reconciliation completed", fields...)
}

// RegisterReconcileJob registers the reconciliation job with the scheduler
func RegisterReconcileJob(scheduler *Scheduler, reconciler Reconciler, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewReconcileJob(reconciler, logger, timeout)
	return scheduler.AddJob(ReconcileJobName, cronExpr, job.Run)
}
