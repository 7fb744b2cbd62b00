package collector

import (
	"context"
	"time"

	"github.com/guregu/null/v5"
)

// Provider defines the interface for fetching daily price history.
type Provider interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) (*Table, error)
	Name() string
}

// Table is a raw tabular provider response. Each column is a list of name
// levels: one level for flat names, more for hierarchical ones such as
// [field, ticker]. Cells is row-major and aligned with Index and Columns.
type Table struct {
	Index   []time.Time
	Columns [][]string
	Cells   [][]null.Float
}

// Empty reports whether the table has no rows or no columns.
func (t *Table) Empty() bool {
	return t == nil || len(t.Index) == 0 || len(t.Columns) == 0
}

// AddColumn appends a column and returns its position.
func (t *Table) AddColumn(levels ...string) int {
	t.Columns = append(t.Columns, levels)
	for i := range t.Cells {
		t.Cells[i] = append(t.Cells[i], null.Float{})
	}
	return len(t.Columns) - 1
}

// AddRow appends a row of empty cells for date and returns its position.
func (t *Table) AddRow(date time.Time) int {
	t.Index = append(t.Index, date)
	t.Cells = append(t.Cells, make([]null.Float, len(t.Columns)))
	return len(t.Index) - 1
}
