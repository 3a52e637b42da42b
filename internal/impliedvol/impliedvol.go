// Package impliedvol prices options on a forward with the undiscounted Black
// formula and inverts it for volatility.
//
// Both functions take the option direction as q = +1 for calls and -1 for
// puts. Prices are undiscounted; callers apply their own discount factors.
package impliedvol

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Failure values returned by FromPrice. All are non-positive so callers can
// test for success with vol > 0.
const (
	// BelowIntrinsic is returned when the price is below intrinsic value.
	BelowIntrinsic = -math.MaxFloat64
	// AboveMaximum is returned when the price reaches the forward (call) or strike (put).
	AboveMaximum = -1.0
	// Unsolvable is returned for invalid inputs or when the iteration fails to converge.
	Unsolvable = -2.0
)

const (
	maxIterations = 100
	maxVolatility = 1e3
	relTolerance  = 1e-14
)

// Black returns the undiscounted Black price of an option struck at strike
// on forward with volatility sigma and maturity t (years).
func Black(forward, strike, sigma, t, q float64) float64 {
	intrinsic := math.Max(q*(forward-strike), 0)
	stdDev := sigma * math.Sqrt(t)
	if math.IsNaN(stdDev) {
		return math.NaN()
	}
	if stdDev <= 0 {
		return intrinsic
	}

	d1 := math.Log(forward/strike)/stdDev + stdDev/2
	d2 := d1 - stdDev
	price := q * (forward*distuv.UnitNormal.CDF(q*d1) - strike*distuv.UnitNormal.CDF(q*d2))

	return math.Max(price, intrinsic)
}

// vega is ∂Black/∂sigma, identical for calls and puts.
func vega(forward, strike, sigma, t float64) float64 {
	sqrtT := math.Sqrt(t)
	d1 := math.Log(forward/strike)/(sigma*sqrtT) + sigma*sqrtT/2
	return forward * distuv.UnitNormal.Prob(d1) * sqrtT
}

// FromPrice returns the volatility that reproduces the undiscounted price.
//
// Parameters:
//   - price: undiscounted option price
//   - forward: forward price of the underlying
//   - strike: strike price
//   - t: time to maturity in years
//   - q: +1 for a call, -1 for a put
//
// Returns:
//
//	A positive volatility on success. On failure one of BelowIntrinsic,
//	AboveMaximum or Unsolvable; exactly 0 when price equals intrinsic value.
//
// The iteration is Newton-Raphson on sigma, falling back to bisection
// whenever a step would leave the bracket that is known to contain the root.
func FromPrice(price, forward, strike, t, q float64) float64 {
	if math.IsNaN(price) || !(forward > 0) || !(strike > 0) || !(t > 0) || (q != 1 && q != -1) {
		return Unsolvable
	}

	intrinsic := math.Max(q*(forward-strike), 0)
	if price < intrinsic {
		return BelowIntrinsic
	}

	upper := strike
	if q > 0 {
		upper = forward
	}
	if price >= upper {
		return AboveMaximum
	}
	if price == intrinsic {
		return 0
	}

	// work on the out-of-the-money side: only the time value is left to fit
	if intrinsic > 0 {
		price -= intrinsic
		q = -q
	}

	lo, hi := 0.0, 1.0
	for Black(forward, strike, hi, t, q) < price {
		lo = hi
		hi *= 2
		if hi > maxVolatility {
			return Unsolvable
		}
	}

	sigma := initialGuess(price, forward, strike, t)
	if !(sigma > lo && sigma < hi) {
		sigma = 0.5 * (lo + hi)
	}

	for i := 0; i < maxIterations; i++ {
		diff := Black(forward, strike, sigma, t, q) - price
		if math.Abs(diff) <= relTolerance*price {
			return sigma
		}
		if diff > 0 {
			hi = sigma
		} else {
			lo = sigma
		}

		next := sigma - diff/vega(forward, strike, sigma, t)
		if !(next > lo && next < hi) {
			next = 0.5 * (lo + hi)
		}
		if math.Abs(next-sigma) <= relTolerance*sigma {
			return next
		}
		sigma = next
	}

	if hi-lo <= 1e-10*sigma {
		return sigma
	}
	return Unsolvable
}

// initialGuess uses the Manaster-Koehler start point, which sits at the
// inflection of the price curve, and Brenner-Subrahmanyam at the money.
func initialGuess(price, forward, strike, t float64) float64 {
	logMoneyness := math.Abs(math.Log(forward / strike))
	if logMoneyness > 0 {
		return math.Sqrt(2 * logMoneyness / t)
	}
	return math.Sqrt(2*math.Pi/t) * price / forward
}
