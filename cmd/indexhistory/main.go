package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"IndexHistory/internal/collector"
	"IndexHistory/internal/config"
	"IndexHistory/internal/exporter"
	"IndexHistory/internal/pipeline"
	"IndexHistory/internal/recorder"
	"IndexHistory/internal/scheduler"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}).
		With().Timestamp().Logger()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error().Err(err).Msg("load config")
		return 1
	}
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("config validation")
		return 1
	}
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		logger = logger.Level(level)
	}
	start, end, _ := cfg.Dates()

	// Init provider
	var provider collector.Provider
	if cfg.Provider.BaseURL != "" {
		provider = collector.NewRESTProvider(cfg.Provider.BaseURL, cfg.Provider.Proxy, cfg.Provider.Timeout)
	} else {
		provider = collector.NewYahooProvider(cfg.Provider.Proxy, cfg.Provider.Timeout)
	}
	logger.Info().Str("provider", provider.Name()).Msg("data source")

	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
			defer sr.Close()
		}
	}
	if runs, err := rec.RecentRuns(1); err != nil {
		logger.Warn().Err(err).Msg("read run history")
	} else if len(runs) > 0 {
		logger.Info().
			Str("status", runs[0].Status).
			Str("started", runs[0].StartedAt.Format(time.DateTime)).
			Int("rows", runs[0].Rows).
			Msg("previous run")
	}

	p := &pipeline.Pipeline{
		Fetcher:  collector.NewFetcher(provider, logger),
		Saver:    exporter.NewPersister(cfg.Output.Dir, logger),
		Recorder: rec,
		Params: pipeline.Params{
			Symbol:   cfg.Provider.Symbol,
			Start:    start,
			End:      end,
			BaseName: cfg.Output.BaseName,
			Verify:   cfg.Output.Verify,
		},
		Out:    os.Stdout,
		Logger: logger,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Schedule.Cron == "" {
		if _, err := p.Run(ctx); err != nil {
			return 1
		}
		return 0
	}

	sched := scheduler.NewScheduler(ctx, p, logger)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		logger.Error().Err(err).Msg("register cron task")
		return 1
	}
	sched.Start()

	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info().Msg("RUN_ON_START enabled, running pipeline now")
		if err := sched.RunNow(); err != nil {
			logger.Warn().Err(err).Msg("initial run failed")
		}
	}
	logger.Info().Str("cron", cfg.Schedule.Cron).Msg("waiting for schedule, press Ctrl+C to stop")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received, stopping...")
	sched.Stop()
	return 0
}
