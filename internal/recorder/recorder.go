package recorder

import (
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
)

// Run statuses.
const (
	StatusSuccess     = "SUCCESS"
	StatusFetchFailed = "FETCH_FAILED"
	StatusSaveFailed  = "SAVE_FAILED"
)

// RunRecord holds the outcome of one pipeline run.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Provider   string
	Symbol     string
	RangeStart string
	RangeEnd   string
	Status     string
	FailKind   string // "transport", "no_data", "no_columns" or empty
	Error      string

	Rows             int
	FirstDate        string
	LastDate         string
	TotalReturn      null.Float
	AnnualizedReturn null.Float

	CSVPath   string
	XLSXPath  string
	CSVBytes  int64
	XLSXBytes int64
}

// NewRunRecord starts a record with a fresh ID.
func NewRunRecord(provider, symbol string, startedAt time.Time) *RunRecord {
	return &RunRecord{
		ID:        uuid.NewString(),
		StartedAt: startedAt,
		Provider:  provider,
		Symbol:    symbol,
	}
}

// Recorder persists run history.
type Recorder interface {
	RecordRun(run *RunRecord) error
	RecentRuns(limit int) ([]RunRecord, error)
	Close() error
}
