package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/straye-as/bid-estimator/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeReconciler struct {
	result   jobs.ReconcileResult
	err      error
	calls    int
	deadline bool
}

func (f *fakeReconciler) Reconcile(ctx context.Context) (jobs.ReconcileResult, error) {
	f.calls++
	_, f.deadline = ctx.Deadline()
	return f.result, f.err
}

func TestScheduler_AddJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("b", "0 30 2 * * *", func() {}))
	require.NoError(t, s.AddJob("a", "@every 1h", func() {}))
	assert.Equal(t, []string{"a", "b"}, s.GetJobNames())

	assert.Error(t, s.AddJob("a", "@every 1h", func() {}), "duplicate names are rejected")
	assert.Equal(t, []string{"a", "b"}, s.GetJobNames())
}

func TestScheduler_RejectsInvalidCron(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	assert.Error(t, s.AddJob("bad", "not a cron", func() {}))
	assert.Empty(t, s.GetJobNames())
}

func TestScheduler_RunsJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	ran := make(chan struct{}, 1)

	require.NoError(t, s.AddJob("tick", "@every 1s", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))
	s.Start()
	defer func() { <-s.Stop().Done() }()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job did not run")
	}
}

func TestReconcileJob_Run(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	rec := &fakeReconciler{result: jobs.ReconcileResult{Checked: 4, Repaired: 1}}

	jobs.NewReconcileJob(rec, zap.New(core), time.Minute).Run()

	assert.Equal(t, 1, rec.calls)
	assert.True(t, rec.deadline, "run is bounded by the timeout")
	warn := logs.FilterMessage("estimate reconciliation found drifted snapshots").All()
	require.Len(t, warn, 1)
	assert.Equal(t, int64(1), warn[0].ContextMap()["repaired"])
}

func TestReconcileJob_RunLogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	rec := &fakeReconciler{err: errors.New("db down")}

	jobs.NewReconcileJob(rec, zap.New(core), time.Minute).Run()

	assert.Equal(t, 1, logs.FilterMessage("estimate reconciliation failed").Len())
}

func TestRegisterReconcileJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, jobs.RegisterReconcileJob(s, &fakeReconciler{}, zap.NewNop(), "0 30 2 * * *", time.Minute))
	assert.Equal(t, []string{jobs.ReconcileJobName}, s.GetJobNames())
}
