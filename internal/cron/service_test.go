package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/logger"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/metrics"
)

type stubLock struct {
	busy     bool
	failWith error
	acquired int
	released int
}

func (l *stubLock) Acquire(context.Context) (bool, error) {
	if l.failWith != nil {
		return false, l.failWith
	}
	if l.busy {
		return false, nil
	}
	l.busy = true
	l.acquired++
	return true, nil
}

func (l *stubLock) Release(context.Context) error {
	l.busy = false
	l.released++
	return nil
}

type countingJob struct {
	name     string
	err      error
	calls    int
	deadline bool
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.calls++
	_, j.deadline = ctx.Deadline()
	return j.err
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestRunOnceRunsEveryJobAndCombinesFailures(t *testing.T) {
	expiry := &countingJob{name: "cart-expiry"}
	retention := &countingJob{name: "outbox-retention", err: errors.New("boom")}
	lock := &stubLock{}
	reg := prometheus.NewRegistry()

	svc, err := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: NewRegistry(retention, expiry),
		Lock:     lock,
		Metrics:  metrics.NewCronMetrics(reg),
	})
	require.NoError(t, err)

	err = svc.RunOnce(context.Background())
	require.ErrorIs(t, err, retention.err)
	require.ErrorContains(t, err, "outbox-retention")
	require.Equal(t, 1, expiry.calls)
	require.Equal(t, 1, retention.calls)
	require.True(t, expiry.deadline, "jobs run under the job timeout")
	require.Equal(t, 1, lock.acquired)
	require.Equal(t, 1, lock.released)
	require.False(t, lock.busy)

	require.Equal(t, 1.0, runCount(t, reg, "cart-expiry", "success"))
	require.Equal(t, 1.0, runCount(t, reg, "outbox-retention", "failure"))
}

func TestRunOnceSkipsWhileAnotherReplicaHoldsTheLock(t *testing.T) {
	job := &countingJob{name: "cart-expiry"}
	svc, err := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: NewRegistry(job),
		Lock:     &stubLock{busy: true},
	})
	require.NoError(t, err)

	require.NoError(t, svc.RunOnce(context.Background()))
	require.Zero(t, job.calls)
}

func TestRunOnceSurfacesLockErrors(t *testing.T) {
	job := &countingJob{name: "cart-expiry"}
	svc, err := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: NewRegistry(job),
		Lock:     &stubLock{failWith: errors.New("redis down")},
	})
	require.NoError(t, err)

	require.ErrorContains(t, svc.RunOnce(context.Background()), "redis down")
	require.Zero(t, job.calls)
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &countingJob{name: "cart-expiry"}
	svc, err := NewService(ServiceParams{
		Logger:   quietLogger(),
		Registry: NewRegistry(job),
		Lock:     &stubLock{},
		Interval: time.Hour,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, svc.Run(ctx), context.Canceled)
	require.Equal(t, 1, job.calls)
}

func TestNewServiceRequiresLoggerAndLock(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &stubLock{}})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Logger: quietLogger()})
	require.Error(t, err)
}

func runCount(t *testing.T, reg *prometheus.Registry, job, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "storefront_cron_job_runs_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			got := map[string]string{}
			for _, pair := range m.GetLabel() {
				got[pair.GetName()] = pair.GetValue()
			}
			if got["job"] == job && got["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
