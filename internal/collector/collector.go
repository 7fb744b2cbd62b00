package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v5"
	"github.com/rs/zerolog"

	"IndexHistory/internal/model"
)

var (
	// ErrNoData is returned when the provider response holds no rows.
	ErrNoData = errors.New("no data retrieved")
	// ErrNoUsableColumns is returned when none of the OHLCV columns are present.
	ErrNoUsableColumns = errors.New("no OHLCV columns in response")
)

// FetchKind classifies a fetch failure.
type FetchKind int

const (
	KindTransport FetchKind = iota
	KindNoData
	KindNoColumns
)

func (k FetchKind) String() string {
	switch k {
	case KindNoData:
		return "no_data"
	case KindNoColumns:
		return "no_columns"
	default:
		return "transport"
	}
}

// FetchError reports why a fetch produced no series.
type FetchError struct {
	Kind     FetchKind
	Provider string
	Symbol   string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s: %v", e.Symbol, e.Provider, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf returns the failure kind of err, or KindTransport when err is not a FetchError.
func KindOf(err error) FetchKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindTransport
}

// StubProvider returns a fixed table for development and testing.
type StubProvider struct {
	Table *Table
	Err   error
	Calls int

	LastStart, LastEnd time.Time
}

func (s *StubProvider) Name() string { return "stub" }

func (s *StubProvider) FetchHistory(_ context.Context, _ string, start, end time.Time) (*Table, error) {
	s.Calls++
	s.LastStart, s.LastEnd = start, end
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Table, nil
}

// GenerateTable builds a flat OHLCV table of count consecutive days from start.
func GenerateTable(basePrice float64, start time.Time, count int) *Table {
	t := &Table{}
	for _, c := range model.CanonicalColumns {
		t.AddColumn(string(c))
	}
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		r := t.AddRow(start.AddDate(0, 0, i))
		t.Cells[r] = []null.Float{
			null.FloatFrom(p * 0.999),
			null.FloatFrom(p * 1.005),
			null.FloatFrom(p * 0.995),
			null.FloatFrom(p),
			null.FloatFrom(1000000),
		}
	}
	return t
}

// Fetcher retrieves a provider table and cleans it into a series.
type Fetcher struct {
	Provider Provider
	Logger   zerolog.Logger
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// NewFetcher creates a new Fetcher.
func NewFetcher(p Provider, logger zerolog.Logger) *Fetcher {
	return &Fetcher{Provider: p, Logger: logger, Now: time.Now}
}

// Name returns the provider name.
func (f *Fetcher) Name() string { return f.Provider.Name() }

// Fetch downloads daily bars for symbol between start and end. A zero end
// means today. Every failure, including a panic inside the provider, is
// returned as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) (series *model.Series, err error) {
	if end.IsZero() {
		now := time.Now
		if f.Now != nil {
			now = f.Now
		}
		end = model.Day(now())
	}
	name := f.Provider.Name()
	fail := func(kind FetchKind, cause error) error {
		f.Logger.Error().Err(cause).Str("provider", name).Str("kind", kind.String()).Msg("fetch failed")
		return &FetchError{Kind: kind, Provider: name, Symbol: symbol, Err: cause}
	}
	defer func() {
		if r := recover(); r != nil {
			series = nil
			err = fail(KindTransport, fmt.Errorf("panic: %v", r))
		}
	}()

	f.Logger.Info().
		Str("provider", name).
		Str("symbol", symbol).
		Str("start", start.Format(model.DateLayout)).
		Str("end", end.Format(model.DateLayout)).
		Msg("fetching daily bars")

	table, err := f.Provider.FetchHistory(ctx, symbol, start, end)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			return nil, fail(KindNoData, err)
		}
		return nil, fail(KindTransport, err)
	}

	series, err = Clean(table, symbol)
	switch {
	case errors.Is(err, ErrNoUsableColumns):
		return nil, fail(KindNoColumns, err)
	case errors.Is(err, ErrNoData):
		return nil, fail(KindNoData, err)
	case err != nil:
		return nil, fail(KindTransport, err)
	}

	cols := make([]string, len(series.Columns))
	for i, c := range series.Columns {
		cols[i] = string(c)
	}
	f.Logger.Info().
		Int("rows", series.Len()).
		Str("first", series.FirstDate().Format(model.DateLayout)).
		Str("last", series.LastDate().Format(model.DateLayout)).
		Str("columns", strings.Join(cols, ",")).
		Msg("fetched daily bars")
	return series, nil
}
