package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"IndexHistory/internal/calculator"
	"IndexHistory/internal/collector"
	"IndexHistory/internal/exporter"
	"IndexHistory/internal/model"
	"IndexHistory/internal/recorder"
	"IndexHistory/internal/report"
)

// Fetcher retrieves a cleaned series.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) (*model.Series, error)
	Name() string
}

// Saver writes a series under a base file name.
type Saver interface {
	Save(s *model.Series, base string) (*exporter.SaveResult, error)
}

// Params are the inputs of one run.
type Params struct {
	Symbol     string
	Start      time.Time
	End        time.Time // zero means today, resolved when the run starts
	BaseName   string
	Verify     bool
	SampleRows int
}

// Pipeline runs fetch, analysis and persistence in sequence.
type Pipeline struct {
	Fetcher  Fetcher
	Saver    Saver
	Recorder recorder.Recorder
	Params   Params
	Out      io.Writer
	Logger   zerolog.Logger
}

// Run executes one pass. It returns the series on success; on failure it
// prints the reason, records the run and returns the error.
func (p *Pipeline) Run(ctx context.Context) (*model.Series, error) {
	prm := p.Params
	if prm.SampleRows <= 0 {
		prm.SampleRows = 5
	}
	started := time.Now()
	toPresent := prm.End.IsZero()
	if toPresent {
		prm.End = model.Day(started)
	}
	rec := recorder.NewRunRecord(p.Fetcher.Name(), prm.Symbol, started)
	rec.RangeStart = prm.Start.Format(model.DateLayout)
	rec.RangeEnd = prm.End.Format(model.DateLayout)
	log := p.Logger.With().Str("run_id", rec.ID).Str("symbol", prm.Symbol).Logger()

	bannerEnd := rec.RangeEnd
	if toPresent {
		bannerEnd = ""
	}
	p.print(report.FormatBanner(prm.Symbol, rec.RangeStart, bannerEnd))

	series, err := p.Fetcher.Fetch(ctx, prm.Symbol, prm.Start, prm.End)
	if err != nil {
		rec.Status = recorder.StatusFetchFailed
		rec.FailKind = collector.KindOf(err).String()
		return nil, p.fail(log, rec, "fetch", err)
	}
	rec.Rows = series.Len()
	rec.FirstDate = series.FirstDate().Format(model.DateLayout)
	rec.LastDate = series.LastDate().Format(model.DateLayout)
	p.print(report.FormatFetched(series))

	sum := calculator.Summarize(series)
	if sum.Price != nil {
		rec.TotalReturn = sum.Price.TotalReturn
		rec.AnnualizedReturn = sum.Price.AnnualizedReturn
	}
	p.print(report.FormatAnalysis(sum, toPresent))

	p.print("\n💾 Saving data...\n")
	res, err := p.Saver.Save(series, prm.BaseName)
	if err != nil {
		rec.Status = recorder.StatusSaveFailed
		return nil, p.fail(log, rec, "save", err)
	}
	rec.CSVPath, rec.XLSXPath = res.CSVPath, res.XLSXPath
	rec.CSVBytes, rec.XLSXBytes = res.CSVBytes, res.XLSXBytes
	p.print(report.FormatSaved(res))

	if prm.Verify {
		if err := exporter.Verify(series, res); err != nil {
			rec.Status = recorder.StatusSaveFailed
			return nil, p.fail(log, rec, "verify", err)
		}
		log.Info().Msg("output files verified")
	}

	p.print(report.FormatSample(series, prm.SampleRows))
	p.print(report.FormatSuccess(series, filepath.Dir(res.CSVPath)))

	rec.Status = recorder.StatusSuccess
	p.record(log, rec)
	log.Info().Int("rows", series.Len()).Msg("run completed")
	return series, nil
}

func (p *Pipeline) fail(log zerolog.Logger, rec *recorder.RunRecord, stage string, err error) error {
	rec.Error = err.Error()
	p.print(report.FormatFailure(stage, rec.Symbol, err))
	p.record(log, rec)
	log.Error().Err(err).Str("stage", stage).Msg("run failed")
	return fmt.Errorf("%s: %w", stage, err)
}

func (p *Pipeline) record(log zerolog.Logger, rec *recorder.RunRecord) {
	if p.Recorder == nil {
		return
	}
	rec.FinishedAt = time.Now()
	if err := p.Recorder.RecordRun(rec); err != nil {
		log.Error().Err(err).Msg("record run")
	}
}

func (p *Pipeline) print(s string) {
	if p.Out == nil || s == "" {
		return
	}
	fmt.Fprint(p.Out, s)
}
