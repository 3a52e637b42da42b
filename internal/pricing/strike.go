package pricing

import (
	"math"
	"time"
)

// StrikeFromDelta computes the strike whose delta equals targetDelta.
//
// Parameters:
//   - spot: spot price of the underlying
//   - targetDelta: desired delta (positive for calls, negative for puts)
//   - r: risk-free rate
//   - q: dividend yield
//   - vol: volatility used for the inversion
//   - t: time to maturity in years
//   - isCall: true for a call strike, false for a put strike
//
// Returns:
//
//	The strike, or NaN when the target delta is not reachable
//	(|targetDelta| must lie strictly inside (0, exp(-q·t)) with the option's sign).
func StrikeFromDelta(spot, targetDelta, r, q, vol, t float64, isCall bool) float64 {
	in := NewOptionInputs(isCall, spot, math.NaN(), r, q, t)
	sign := in.Sign()

	// delta = sign·exp(-q·t)·Φ(sign·d1)
	d1 := sign * normInv(sign*targetDelta/in.DividendDiscount())

	stdDev := vol * math.Sqrt(t)
	return spot * math.Exp(-d1*stdDev+(r-q+vol*vol/2)*t)
}

// YearsBetween returns the calendar year fraction from `from` to `to` on a
// DaysPerYear basis. It is negative when `to` is before `from`.
func YearsBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24 / DaysPerYear
}
