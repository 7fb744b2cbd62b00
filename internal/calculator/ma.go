package calculator

import (
	"errors"

	"IndexHistory/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateMA200 returns the 200-day simple moving average of the non-empty closes.
func CalculateMA200(bars []model.Bar) (float64, error) {
	return CalculateSMA(extractCloses(bars), 200)
}

// extractCloses returns the non-empty closes in date order.
func extractCloses(bars []model.Bar) []float64 {
	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.Close.Valid {
			closes = append(closes, b.Close.ValueOrZero())
		}
	}
	return closes
}
