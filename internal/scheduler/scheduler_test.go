package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndexHistory/internal/model"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(context.Context) (*model.Series, error) {
	r.calls.Add(1)
	return nil, r.err
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(context.Background(), &countingRunner{}, zerolog.Nop())

	assert.NoError(t, s.Register("0 30 22 * * 1-5"))
	assert.NoError(t, s.Register("@daily"))
	assert.Error(t, s.Register("30 22 * * 1-5"))
	assert.Error(t, s.Register("whenever"))
	assert.Len(t, s.Cron.Entries(), 2)
}

func TestScheduler_RunNow(t *testing.T) {
	runner := &countingRunner{err: errors.New("boom")}
	s := NewScheduler(context.Background(), runner, zerolog.Nop())

	assert.EqualError(t, s.RunNow(), "boom")
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestScheduler_TaskSkipsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &countingRunner{}
	s := NewScheduler(ctx, runner, zerolog.Nop())

	s.task()
	require.Equal(t, int32(1), runner.calls.Load())

	cancel()
	s.task()
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(context.Background(), &countingRunner{}, zerolog.Nop())
	require.NoError(t, s.Register("@every 1h"))
	s.Start()
	s.Stop()
}

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	active  atomic.Int32
	peak    atomic.Int32
	calls   atomic.Int32
}

func (r *blockingRunner) Run(context.Context) (*model.Series, error) {
	r.calls.Add(1)
	n := r.active.Add(1)
	defer r.active.Add(-1)
	if n > r.peak.Load() {
		r.peak.Store(n)
	}
	r.started <- struct{}{}
	<-r.release
	return nil, nil
}

func TestScheduler_ImmediateAndScheduledRunsDoNotOverlap(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}, 4), release: make(chan struct{})}
	s := NewScheduler(context.Background(), runner, zerolog.Nop())
	require.NoError(t, s.Register("@every 1h"))

	done := make(chan error, 1)
	go func() { done <- s.RunNow() }()
	<-runner.started

	// a cron tick and a second immediate run while the first is active
	s.Cron.Entries()[0].WrappedJob.Run()
	assert.ErrorIs(t, s.RunNow(), ErrAlreadyRunning)

	close(runner.release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), runner.calls.Load())
	assert.Equal(t, int32(1), runner.peak.Load())

	// the guard is released once the run finishes
	runner.release = make(chan struct{})
	close(runner.release)
	require.NoError(t, s.RunNow())
	assert.Equal(t, int32(2), runner.calls.Load())
}
