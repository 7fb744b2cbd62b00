package model

import (
	"time"

	"github.com/guregu/null/v5"
)

// DateLayout is the calendar date format used in configs and output files.
const DateLayout = "2006-01-02"

// Column names one canonical OHLCV field.
type Column string

const (
	Open   Column = "Open"
	High   Column = "High"
	Low    Column = "Low"
	Close  Column = "Close"
	Volume Column = "Volume"
)

// CanonicalColumns lists the OHLCV columns in output order.
var CanonicalColumns = []Column{Open, High, Low, Close, Volume}

// ParseColumn maps a name to its canonical column.
func ParseColumn(name string) (Column, bool) {
	for _, c := range CanonicalColumns {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// Bar is one daily OHLCV record. An invalid value means the cell was empty.
type Bar struct {
	Date   time.Time
	Open   null.Float
	High   null.Float
	Low    null.Float
	Close  null.Float
	Volume null.Float
}

// Get returns the value of column c.
func (b *Bar) Get(c Column) null.Float {
	switch c {
	case Open:
		return b.Open
	case High:
		return b.High
	case Low:
		return b.Low
	case Close:
		return b.Close
	case Volume:
		return b.Volume
	}
	return null.Float{}
}

// Set stores v under column c.
func (b *Bar) Set(c Column, v null.Float) {
	switch c {
	case Open:
		b.Open = v
	case High:
		b.High = v
	case Low:
		b.Low = v
	case Close:
		b.Close = v
	case Volume:
		b.Volume = v
	}
}

// Series is a date-ordered run of daily bars for one symbol.
// Columns holds the canonical columns actually present, in canonical order.
type Series struct {
	Symbol  string
	Columns []Column
	Bars    []Bar
}

// Len returns the number of bars.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Has reports whether column c is present.
func (s *Series) Has(c Column) bool {
	for _, col := range s.Columns {
		if col == c {
			return true
		}
	}
	return false
}

// FirstDate returns the date of the first bar.
func (s *Series) FirstDate() time.Time {
	if s.Len() == 0 {
		return time.Time{}
	}
	return s.Bars[0].Date
}

// LastDate returns the date of the last bar.
func (s *Series) LastDate() time.Time {
	if s.Len() == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Date
}

// YearsCovered returns the span between the first and last bar in years of 365.25 days.
func (s *Series) YearsCovered() float64 {
	return YearsBetween(s.FirstDate(), s.LastDate())
}

// Head returns up to n leading bars.
func (s *Series) Head(n int) []Bar {
	if s == nil {
		return nil
	}
	if n > s.Len() {
		n = s.Len()
	}
	return s.Bars[:n]
}

// Tail returns up to n trailing bars.
func (s *Series) Tail(n int) []Bar {
	if s == nil {
		return nil
	}
	if n > s.Len() {
		n = s.Len()
	}
	return s.Bars[s.Len()-n:]
}

// YearsBetween returns whole days between a and b divided by 365.25.
func YearsBetween(a, b time.Time) float64 {
	days := int(b.Sub(a).Hours() / 24)
	return float64(days) / 365.25
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
