package calculator

import (
	"github.com/guregu/null/v5"

	"IndexHistory/internal/model"
)

// Summarize computes descriptive statistics for s. It returns nil for a nil series.
func Summarize(s *model.Series) *model.Summary {
	if s == nil {
		return nil
	}
	sum := &model.Summary{
		Symbol:       s.Symbol,
		TradingDays:  s.Len(),
		FirstDate:    s.FirstDate(),
		LastDate:     s.LastDate(),
		YearsCovered: s.YearsCovered(),
	}
	if s.Has(model.Close) {
		sum.Price = priceStats(s.Bars)
		sum.Trend = trendStats(s.Bars)
	}
	if s.Has(model.Volume) {
		sum.Volume = volumeStats(s.Bars)
	}
	for _, c := range s.Columns {
		sum.Missing = append(sum.Missing, missingStats(s, c))
	}
	return sum
}

// priceStats returns nil when no close has a value.
func priceStats(bars []model.Bar) *model.PriceStats {
	var ps *model.PriceStats
	for _, b := range bars {
		if !b.Close.Valid {
			continue
		}
		v := model.DatedValue{Value: b.Close.ValueOrZero(), Date: b.Date}
		if ps == nil {
			ps = &model.PriceStats{First: v, Min: v, Max: v}
		}
		ps.Last = v
		if v.Value < ps.Min.Value {
			ps.Min = v
		}
		if v.Value > ps.Max.Value {
			ps.Max = v
		}
	}
	if ps == nil {
		return nil
	}

	if tr, err := TotalReturn(ps.First.Value, ps.Last.Value); err == nil {
		ps.TotalReturn = null.FloatFrom(tr)
	}
	years := model.YearsBetween(ps.First.Date, ps.Last.Date)
	if ar, err := AnnualizedReturn(ps.First.Value, ps.Last.Value, years); err != nil {
		ps.AnnualizedNote = err.Error()
	} else {
		ps.AnnualizedReturn = null.FloatFrom(ar)
	}
	return ps
}

// volumeStats returns nil when no volume has a value.
func volumeStats(bars []model.Bar) *model.VolumeStats {
	var (
		vs    *model.VolumeStats
		total float64
		n     int
	)
	for _, b := range bars {
		if !b.Volume.Valid {
			continue
		}
		v := b.Volume.ValueOrZero()
		dv := model.DatedValue{Value: v, Date: b.Date}
		if vs == nil {
			vs = &model.VolumeStats{Max: dv}
		} else if v > vs.Max.Value {
			vs.Max = dv
		}
		total += v
		n++
	}
	if vs == nil {
		return nil
	}
	vs.Mean = total / float64(n)
	return vs
}

func missingStats(s *model.Series, c model.Column) model.MissingStats {
	ms := model.MissingStats{Column: c}
	for i := range s.Bars {
		if !s.Bars[i].Get(c).Valid {
			ms.Missing++
		}
	}
	if n := s.Len(); n > 0 {
		ms.Percent = float64(ms.Missing) / float64(n) * 100
	}
	return ms
}

// trendStats fills whatever indicators the available closes allow.
func trendStats(bars []model.Bar) *model.TrendStats {
	closes := extractCloses(bars)
	if len(closes) == 0 {
		return nil
	}
	ts := &model.TrendStats{LastClose: closes[len(closes)-1]}
	if ma, err := CalculateMA200(bars); err == nil {
		ts.MA200 = null.FloatFrom(ma)
	}
	if h, l, err := Calculate52WeekRange(closes); err == nil {
		ts.High52w = null.FloatFrom(h)
		ts.Low52w = null.FloatFrom(l)
		if pos, err := Calculate52WeekPosition(ts.LastClose, h, l); err == nil {
			ts.Position52w = null.FloatFrom(pos)
		}
	}
	if rsi, err := CalculateRSI(closes, 14); err == nil {
		ts.RSI14 = null.FloatFrom(rsi)
	}
	return ts
}
