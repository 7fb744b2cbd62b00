package collector

import (
	"sort"

	"IndexHistory/internal/model"
)

// flattenColumns reduces hierarchical column names to their first level.
func flattenColumns(cols [][]string) []string {
	flat := make([]string, len(cols))
	for i, levels := range cols {
		if len(levels) > 0 {
			flat[i] = levels[0]
		}
	}
	return flat
}

// Clean turns a raw provider table into a series restricted to the canonical
// OHLCV columns. Rows with every kept column empty are dropped, rows are
// ordered by date and only the first row of a repeated date is kept.
// It returns ErrNoData for an empty table or when every row is empty, and
// ErrNoUsableColumns when no canonical column is present.
func Clean(t *Table, symbol string) (*model.Series, error) {
	if t.Empty() {
		return nil, ErrNoData
	}

	// First occurrence wins when flattening yields duplicate names.
	pos := make(map[model.Column]int)
	for i, name := range flattenColumns(t.Columns) {
		c, ok := model.ParseColumn(name)
		if !ok {
			continue
		}
		if _, seen := pos[c]; !seen {
			pos[c] = i
		}
	}

	var cols []model.Column
	for _, c := range model.CanonicalColumns {
		if _, ok := pos[c]; ok {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return nil, ErrNoUsableColumns
	}

	bars := make([]model.Bar, 0, len(t.Index))
	for r, date := range t.Index {
		bar := model.Bar{Date: model.Day(date)}
		empty := true
		for _, c := range cols {
			i := pos[c]
			if r >= len(t.Cells) || i >= len(t.Cells[r]) {
				continue
			}
			v := t.Cells[r][i]
			if v.Valid {
				empty = false
			}
			bar.Set(c, v)
		}
		if empty {
			continue
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	deduped := bars[:0]
	for _, b := range bars {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(b.Date) {
			continue
		}
		deduped = append(deduped, b)
	}
	if len(deduped) == 0 {
		return nil, ErrNoData
	}

	return &model.Series{Symbol: symbol, Columns: cols, Bars: deduped}, nil
}
