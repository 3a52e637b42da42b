// Package volatility estimates historical volatility from closing prices.
package volatility

import (
	"math"

	"github.com/montanaflynn/stats"
)

const (
	// DefaultVolatility is used when there is not enough history to estimate.
	DefaultVolatility = 0.30
	// TradingDaysPerYear annualizes daily returns.
	TradingDaysPerYear = 252.0
)

// LogReturns returns ln(closes[i]/closes[i-1]). Pairs with a non-positive
// close are skipped.
func LogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	rets := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i] <= 0 || closes[i-1] <= 0 {
			continue
		}
		rets = append(rets, math.Log(closes[i]/closes[i-1]))
	}
	return rets
}

// Annualized is the sample standard deviation of log returns scaled by
// √periodsPerYear. It returns DefaultVolatility when fewer than two returns
// are available.
func Annualized(closes []float64, periodsPerYear float64) float64 {
	rets := LogReturns(closes)
	if len(rets) < 2 {
		return DefaultVolatility
	}

	sd, err := stats.StandardDeviationSample(rets)
	if err != nil || math.IsNaN(sd) {
		return DefaultVolatility
	}
	return sd * math.Sqrt(periodsPerYear)
}
