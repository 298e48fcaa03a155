package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestScheduler(timeout time.Duration) *Scheduler {
	return New(time.UTC, timeout, logger.NewZapLogger(zap.NewNop().Sugar()))
}

func TestTrigger_NoOverlap(t *testing.T) {
	s := newTestScheduler(0)

	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	var runs atomic.Int32

	require.NoError(t, s.Register("publish", "0 14 * * *", func(ctx context.Context) error {
		runs.Add(1)
		entered <- struct{}{}
		<-release
		return nil
	}))

	started, err := s.Trigger("publish")
	require.NoError(t, err)
	assert.True(t, started)
	<-entered

	started, err = s.Trigger("publish")
	require.NoError(t, err)
	assert.False(t, started, "second trigger must be dropped while the first runs")

	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Stop(ctx)

	assert.Equal(t, int32(1), runs.Load())
}

func TestTrigger_RunsAgainAfterCompletion(t *testing.T) {
	s := newTestScheduler(0)

	done := make(chan struct{}, 2)
	require.NoError(t, s.Register("ingest", "0 0 * * *", func(ctx context.Context) error {
		done <- struct{}{}
		return errors.New("feed down")
	}))

	for i := 0; i < 2; i++ {
		started, err := s.Trigger("ingest")
		require.NoError(t, err)
		require.True(t, started)
		<-done
		// the flag is released after fn returns
		require.Eventually(t, func() bool { return !s.jobs["ingest"].running.Load() }, time.Second, time.Millisecond)
	}
}

func TestTrigger_UnknownJob(t *testing.T) {
	s := newTestScheduler(0)

	_, err := s.Trigger("nope")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestRegister_Validation(t *testing.T) {
	s := newTestScheduler(0)
	noop := func(ctx context.Context) error { return nil }

	assert.Error(t, s.Register("bad", "every day", noop))
	require.NoError(t, s.Register("ingest", "0 0 * * *", noop))
	assert.Error(t, s.Register("ingest", "0 1 * * *", noop))
}

func TestExecute_AppliesTimeout(t *testing.T) {
	s := newTestScheduler(20 * time.Millisecond)

	errc := make(chan error, 1)
	require.NoError(t, s.Register("publish", "0 14 * * *", func(ctx context.Context) error {
		<-ctx.Done()
		errc <- ctx.Err()
		return ctx.Err()
	}))

	_, err := s.Trigger("publish")
	require.NoError(t, err)

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("job context was not cancelled")
	}
}

func TestTick_RecoversPanics(t *testing.T) {
	s := newTestScheduler(0)
	require.NoError(t, s.Register("publish", "0 14 * * *", func(ctx context.Context) error {
		panic("boom")
	}))

	assert.NotPanics(t, func() { s.tick(s.jobs["publish"]) })
	assert.False(t, s.jobs["publish"].running.Load())
}
