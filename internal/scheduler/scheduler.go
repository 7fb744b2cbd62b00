package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"IndexHistory/internal/config"
	"IndexHistory/internal/model"
)

// ErrAlreadyRunning is returned by RunNow while another run is in progress.
var ErrAlreadyRunning = errors.New("pipeline run already in progress")

// Runner is one pipeline pass.
type Runner interface {
	Run(ctx context.Context) (*model.Series, error)
}

// Scheduler re-runs the pipeline on a cron schedule. Runs never overlap.
type Scheduler struct {
	Cron   *cron.Cron
	Runner Runner
	Ctx    context.Context
	Logger zerolog.Logger

	running sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner Runner, logger zerolog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		Cron: cron.New(
			cron.WithParser(config.CronParser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Runner: runner,
		Ctx:    ctx,
		Logger: logger,
	}
}

// Register adds the pipeline job for spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.task); err != nil {
		return fmt.Errorf("register pipeline task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info().Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info().Msg("scheduler stopped")
}

// RunNow executes the pipeline immediately. Scheduled and immediate runs
// share one guard, so it returns ErrAlreadyRunning instead of overlapping.
func (s *Scheduler) RunNow() error {
	if !s.running.TryLock() {
		return ErrAlreadyRunning
	}
	defer s.running.Unlock()
	_, err := s.Runner.Run(s.Ctx)
	return err
}

func (s *Scheduler) task() {
	if s.Ctx.Err() != nil {
		return
	}
	s.Logger.Info().Msg("running scheduled pipeline")
	switch err := s.RunNow(); {
	case errors.Is(err, ErrAlreadyRunning):
		s.Logger.Warn().Msg("previous run still in progress, skipping")
	case err != nil:
		s.Logger.Error().Err(err).Msg("scheduled pipeline failed")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
