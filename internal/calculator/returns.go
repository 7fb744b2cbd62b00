package calculator

import (
	"errors"
	"math"
)

var (
	ErrZeroBase      = errors.New("first value is zero")
	ErrZeroElapsed   = errors.New("no time elapsed")
	ErrNegativeRatio = errors.New("growth ratio is negative")
)

// TotalReturn returns (last/first - 1) * 100.
func TotalReturn(first, last float64) (float64, error) {
	if first == 0 {
		return 0, ErrZeroBase
	}
	return (last/first - 1) * 100, nil
}

// AnnualizedReturn returns the compound growth rate ((last/first)^(1/years) - 1) * 100.
func AnnualizedReturn(first, last, years float64) (float64, error) {
	if first == 0 {
		return 0, ErrZeroBase
	}
	if years <= 0 {
		return 0, ErrZeroElapsed
	}
	ratio := last / first
	if ratio < 0 {
		return 0, ErrNegativeRatio
	}
	r := (math.Pow(ratio, 1/years) - 1) * 100
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, errors.New("annualized return is not finite")
	}
	return r, nil
}
