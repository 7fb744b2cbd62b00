package collector

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IndexHistory/internal/model"
)

func day(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func f(v float64) null.Float { return null.FloatFrom(v) }

var empty = null.Float{}

func dates(s *model.Series) []time.Time {
	out := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Date
	}
	return out
}

func TestClean_DropsEmptyRowsAndExtraColumns(t *testing.T) {
	tbl := &Table{
		Columns: [][]string{
			{"Adj Close", "^GSPC"}, {"Close", "^GSPC"}, {"High", "^GSPC"},
			{"Low", "^GSPC"}, {"Open", "^GSPC"}, {"Volume", "^GSPC"},
		},
		Index: []time.Time{day("2024-01-02"), day("2024-01-03"), day("2024-01-04"), day("2024-01-05")},
		Cells: [][]null.Float{
			{f(4742.8), f(4742.8), f(4754.3), f(4722.7), f(4745.2), f(3743050000)},
			{empty, empty, empty, empty, empty, empty},
			{f(4688.7), empty, empty, empty, empty, empty}, // only a dropped column has data
			{empty, empty, empty, empty, empty, f(3844370000)},
		},
	}

	s, err := Clean(tbl, "^GSPC")
	require.NoError(t, err)

	if diff := cmp.Diff(model.CanonicalColumns, s.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]time.Time{day("2024-01-02"), day("2024-01-05")}, dates(s)); diff != "" {
		t.Errorf("dates mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "^GSPC", s.Symbol)
	assert.Equal(t, 4745.2, s.Bars[0].Open.ValueOrZero())
	assert.Equal(t, 4742.8, s.Bars[0].Close.ValueOrZero())
	assert.False(t, s.Bars[1].Close.Valid)
	assert.Equal(t, 3844370000.0, s.Bars[1].Volume.ValueOrZero())
}

func TestClean_PartialColumnsKeepCanonicalOrder(t *testing.T) {
	tbl := &Table{
		Columns: [][]string{{"Volume"}, {"Dividends"}, {"Close"}},
		Index:   []time.Time{day("2024-01-02")},
		Cells:   [][]null.Float{{f(10), f(0.5), f(100)}},
	}
	s, err := Clean(tbl, "X")
	require.NoError(t, err)
	assert.Equal(t, []model.Column{model.Close, model.Volume}, s.Columns)
	assert.True(t, s.Has(model.Close))
	assert.False(t, s.Has(model.Open))
}

func TestClean_SortsAndDropsDuplicateDates(t *testing.T) {
	tbl := &Table{
		Columns: [][]string{{"Close"}},
		Index:   []time.Time{day("2024-01-03"), day("2024-01-02"), day("2024-01-03")},
		Cells:   [][]null.Float{{f(2)}, {f(1)}, {f(3)}},
	}
	s, err := Clean(tbl, "X")
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, day("2024-01-02"), s.Bars[0].Date)
	assert.Equal(t, day("2024-01-03"), s.Bars[1].Date)
	assert.Equal(t, 2.0, s.Bars[1].Close.ValueOrZero())
}

func TestClean_FlattenKeepsFirstDuplicate(t *testing.T) {
	tbl := &Table{
		Columns: [][]string{{"Close", "^GSPC"}, {"Close", "^DJI"}},
		Index:   []time.Time{day("2024-01-02")},
		Cells:   [][]null.Float{{f(4742.8), f(37715.0)}},
	}
	s, err := Clean(tbl, "^GSPC")
	require.NoError(t, err)
	assert.Equal(t, []model.Column{model.Close}, s.Columns)
	assert.Equal(t, 4742.8, s.Bars[0].Close.ValueOrZero())
}

func TestClean_Errors(t *testing.T) {
	tests := []struct {
		name  string
		table *Table
		want  error
	}{
		{name: "nil table", table: nil, want: ErrNoData},
		{name: "no rows", table: &Table{Columns: [][]string{{"Close"}}}, want: ErrNoData},
		{
			name: "no canonical columns",
			table: &Table{
				Columns: [][]string{{"Adj Close"}, {"Dividends"}},
				Index:   []time.Time{day("2024-01-02")},
				Cells:   [][]null.Float{{f(1), f(2)}},
			},
			want: ErrNoUsableColumns,
		},
		{
			name: "every row empty",
			table: &Table{
				Columns: [][]string{{"Close"}},
				Index:   []time.Time{day("2024-01-02")},
				Cells:   [][]null.Float{{empty}},
			},
			want: ErrNoData,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Clean(tt.table, "X")
			assert.Nil(t, s)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
