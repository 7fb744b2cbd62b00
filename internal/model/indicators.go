package model

import (
	"time"

	"github.com/guregu/null/v5"
)

// DatedValue is a value observed on a given day.
type DatedValue struct {
	Value float64
	Date  time.Time
}

// PriceStats describes the Close column.
type PriceStats struct {
	First DatedValue
	Last  DatedValue
	Min   DatedValue
	Max   DatedValue

	// TotalReturn and AnnualizedReturn are percentages; invalid when undefined.
	TotalReturn      null.Float
	AnnualizedReturn null.Float
	AnnualizedNote   string
}

// VolumeStats describes the Volume column.
type VolumeStats struct {
	Mean float64
	Max  DatedValue
}

// MissingStats counts empty cells in one column.
type MissingStats struct {
	Column  Column
	Missing int
	Percent float64
}

// TrendStats holds the recent-market indicators derived from closes.
type TrendStats struct {
	LastClose   float64
	MA200       null.Float
	High52w     null.Float
	Low52w      null.Float
	Position52w null.Float // 0.0 ~ 1.0
	RSI14       null.Float
}

// Summary is the analyzer output for a series.
type Summary struct {
	Symbol       string
	TradingDays  int
	FirstDate    time.Time
	LastDate     time.Time
	YearsCovered float64

	Price   *PriceStats
	Volume  *VolumeStats
	Trend   *TrendStats
	Missing []MissingStats
}
