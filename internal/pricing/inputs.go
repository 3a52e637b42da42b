// Package pricing prices European options under Black-Scholes-Merton with a
// continuous dividend yield, recovers implied volatility from observed prices,
// and exposes closed-form Greeks up to third order.
//
// Inputs are not validated. Degenerate values (t = 0, zero
// volatility, an unpriced container) surface as NaN or ±Inf in the results,
// which callers detect with math.IsNaN / math.IsInf.
//
// Example usage:
//
//	in := pricing.NewOptionInputs(true, 100, 110, 0.05, 0.05, 20/pricing.DaysPerYear)
//	in.WithImpliedVol(0.2)
//	fmt.Println(in.Price(), in.Delta(), in.Vega())
package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/contactkeval/option-greeks/internal/impliedvol"
)

var (
	// ErrImpliedVol is the root of every implied volatility failure returned by TryWithPrice.
	ErrImpliedVol = errors.New("implied volatility not found")
	// ErrBelowIntrinsic means the price is below the option's intrinsic value.
	ErrBelowIntrinsic = fmt.Errorf("%w: price below intrinsic value", ErrImpliedVol)
	// ErrAboveMaximum means the price is at or above its no-arbitrage upper bound.
	ErrAboveMaximum = fmt.Errorf("%w: price above maximum value", ErrImpliedVol)
	// ErrNoConvergence covers invalid inputs and solver non-convergence.
	ErrNoConvergence = fmt.Errorf("%w: solver did not converge", ErrImpliedVol)
)

// derived holds every quantity computed from one volatility. It is replaced
// as a whole so the fields always agree with each other.
type derived struct {
	impliedVol float64
	price      float64
	d1         float64
	d2         float64
	nd1        float64 // Φ(sign·d1)
	nd2        float64 // Φ(sign·d2)
	nprimed1   float64 // φ(d1)
	nprimed2   float64 // φ(d2)
}

func unset() derived {
	nan := math.NaN()
	return derived{
		impliedVol: nan,
		price:      nan,
		d1:         nan,
		d2:         nan,
		nd1:        nan,
		nd2:        nan,
		nprimed1:   nan,
		nprimed2:   nan,
	}
}

// OptionInputs holds the contract terms of a European option together with
// the quantities derived from the volatility that last priced it.
//
// An OptionInputs is not safe for concurrent mutation. Once priced, Greek
// readers may run concurrently as long as no WithImpliedVol / WithPrice call
// is in flight.
type OptionInputs struct {
	IsCall bool    // call when true, put otherwise
	S      float64 // spot price
	K      float64 // strike price
	R      float64 // risk-free rate (continuous, annual)
	Q      float64 // dividend yield (continuous, annual)
	T      float64 // time to maturity in years

	state derived
}

// NewOptionInputs creates an unpriced container for the given contract terms.
func NewOptionInputs(isCall bool, s, k, r, q, t float64) *OptionInputs {
	return &OptionInputs{
		IsCall: isCall,
		S:      s,
		K:      k,
		R:      r,
		Q:      q,
		T:      t,
		state:  unset(),
	}
}

// Sign returns +1 for a call and -1 for a put.
func (o *OptionInputs) Sign() float64 {
	if o.IsCall {
		return 1.0
	}
	return -1.0
}

// DividendDiscount returns exp(-q·t).
func (o *OptionInputs) DividendDiscount() float64 {
	return math.Exp(-o.Q * o.T)
}

// RateDiscount returns exp(-r·t).
func (o *OptionInputs) RateDiscount() float64 {
	return math.Exp(-o.R * o.T)
}

// ImpliedVol returns the volatility behind the current derived state, or NaN when unpriced.
func (o *OptionInputs) ImpliedVol() float64 {
	return o.state.impliedVol
}

// Price returns the discounted option price, or NaN when unpriced.
func (o *OptionInputs) Price() float64 {
	return o.state.price
}

// Priced reports whether the derived state has been populated.
func (o *OptionInputs) Priced() bool {
	return !math.IsNaN(o.state.impliedVol)
}

// forward returns the forward price s·exp((r-q)·t).
func (o *OptionInputs) forward() float64 {
	return o.S * math.Exp((o.R-o.Q)*o.T)
}

// WithImpliedVol prices the option from volatility v and replaces the
// derived state. The price is always re-derived from v, even when the state
// was already populated. It returns the receiver so calls can be chained.
func (o *OptionInputs) WithImpliedVol(v float64) *OptionInputs {
	o.derive(v, math.NaN())
	return o
}

// CalculateOptionPrice is shorthand for WithImpliedVol(v).Price().
func (o *OptionInputs) CalculateOptionPrice(v float64) float64 {
	return o.WithImpliedVol(v).Price()
}

// WithPrice recovers the implied volatility from an observed, discounted
// market price p and then derives everything else from it. The stored price
// is p itself, not a re-derived value.
//
// When no volatility reproduces p (price outside no-arbitrage bounds, solver
// failure) the derived state is left untouched. Use TryWithPrice to get the
// reason.
func (o *OptionInputs) WithPrice(p float64) *OptionInputs {
	_ = o.TryWithPrice(p)
	return o
}

// TryWithPrice behaves like WithPrice but reports solver failures. The
// returned error wraps ErrImpliedVol.
func (o *OptionInputs) TryWithPrice(p float64) error {
	// the solver works on undiscounted prices and the forward
	rateInvDiscount := math.Exp(o.R * o.T)
	undiscounted := p * rateInvDiscount
	forward := o.S * rateInvDiscount * o.DividendDiscount()

	vol := impliedvol.FromPrice(undiscounted, forward, o.K, o.T, o.Sign())
	if vol > 0 {
		o.derive(vol, p)
		return nil
	}

	switch vol {
	case impliedvol.BelowIntrinsic:
		return fmt.Errorf("price %g: %w", p, ErrBelowIntrinsic)
	case impliedvol.AboveMaximum:
		return fmt.Errorf("price %g: %w", p, ErrAboveMaximum)
	case 0:
		// exactly intrinsic: zero volatility leaves every Greek undefined
		return fmt.Errorf("price %g equals intrinsic value: %w", p, ErrImpliedVol)
	default:
		return fmt.Errorf("price %g: %w", p, ErrNoConvergence)
	}
}

// derive computes the full derived state for volatility v. A NaN price means
// the price must be computed from v; anything else is kept as the
// authoritative price.
func (o *OptionInputs) derive(v, price float64) {
	sign := o.Sign()
	sqrtT := math.Sqrt(o.T)

	numerator := math.Log(o.S/o.K) + (o.R-o.Q+v*v/2)*o.T
	denominator := v * sqrtT

	var d derived
	d.impliedVol = v
	d.d1 = numerator / denominator
	d.d2 = d.d1 - denominator

	d.nd1 = normCDF(sign * d.d1)
	d.nd2 = normCDF(sign * d.d2)

	d.nprimed1 = normPDF(d.d1)
	d.nprimed2 = normPDF(d.d2)

	if math.IsNaN(price) {
		undiscounted := impliedvol.Black(o.forward(), o.K, v, o.T, sign)
		price = undiscounted * o.RateDiscount()
	}
	d.price = price

	o.state = d
}
