package pricing

import "math"

// Greeks is a snapshot of every sensitivity of a priced option.
type Greeks struct {
	Delta     float64
	Gamma     float64
	Theta     float64
	Vega      float64
	Rho       float64
	Epsilon   float64
	Lambda    float64
	Vanna     float64
	Charm     float64
	Veta      float64
	Vomma     float64
	Speed     float64
	Zomma     float64
	Color     float64
	Ultima    float64
	DualDelta float64
	DualGamma float64
}

// AllGreeks evaluates every sensitivity against the current derived state.
func (o *OptionInputs) AllGreeks() Greeks {
	return Greeks{
		Delta:     o.Delta(),
		Gamma:     o.Gamma(),
		Theta:     o.Theta(),
		Vega:      o.Vega(),
		Rho:       o.Rho(),
		Epsilon:   o.Epsilon(),
		Lambda:    o.Lambda(),
		Vanna:     o.Vanna(),
		Charm:     o.Charm(),
		Veta:      o.Veta(),
		Vomma:     o.Vomma(),
		Speed:     o.Speed(),
		Zomma:     o.Zomma(),
		Color:     o.Color(),
		Ultima:    o.Ultima(),
		DualDelta: o.DualDelta(),
		DualGamma: o.DualGamma(),
	}
}

// Delta is ∂price/∂s.
func (o *OptionInputs) Delta() float64 {
	return o.Sign() * o.state.nd1 * o.DividendDiscount()
}

// Gamma is ∂²price/∂s².
func (o *OptionInputs) Gamma() float64 {
	return o.DividendDiscount() * o.state.nprimed1 / (o.S * o.state.impliedVol * math.Sqrt(o.T))
}

// Theta is ∂price/∂t per calendar day.
func (o *OptionInputs) Theta() float64 {
	sign := o.Sign()
	dividendDiscount := o.DividendDiscount()

	return (-(o.S * o.state.impliedVol * dividendDiscount * o.state.nprimed1 / (2.0 * math.Sqrt(o.T))) -
		sign*o.R*o.K*o.RateDiscount()*o.state.nd2 +
		sign*o.Q*o.S*dividendDiscount*o.state.nd1) / DaysPerYear
}

// Vega is ∂price/∂vol for a one point (0.01) move in volatility.
func (o *OptionInputs) Vega() float64 {
	return 0.01 * o.S * o.DividendDiscount() * math.Sqrt(o.T) * o.state.nprimed1
}

// Rho is ∂price/∂r for a one point (0.01) move in the rate.
func (o *OptionInputs) Rho() float64 {
	return o.Sign() * 0.01 * o.K * o.T * o.RateDiscount() * o.state.nd2
}

// Epsilon is ∂price/∂q.
func (o *OptionInputs) Epsilon() float64 {
	return -o.Sign() * o.S * o.T * o.DividendDiscount() * o.state.nd1
}

// Lambda is the elasticity delta·s/price. It is NaN or ±Inf when the price
// is unset or zero.
func (o *OptionInputs) Lambda() float64 {
	return o.Delta() * o.S / o.state.price
}

// Vanna is ∂delta/∂vol, equivalently ∂vega/∂s, scaled like vega.
func (o *OptionInputs) Vanna() float64 {
	return o.state.d2 * o.DividendDiscount() * o.state.nprimed1 * -0.01 / o.state.impliedVol
}

// Charm is ∂delta/∂t.
func (o *OptionInputs) Charm() float64 {
	dividendDiscount := o.DividendDiscount()
	sqrtT := math.Sqrt(o.T)
	v := o.state.impliedVol

	return o.Sign()*o.Q*dividendDiscount*o.state.nd1 -
		dividendDiscount*o.state.nprimed1*
			(2.0*(o.R-o.Q)*o.T-o.state.d2*v*sqrtT)/
			(2.0*o.T*v*sqrtT)
}

// Veta is ∂vega/∂t.
func (o *OptionInputs) Veta() float64 {
	sqrtT := math.Sqrt(o.T)
	d1, d2 := o.state.d1, o.state.d2

	return -o.S * o.DividendDiscount() * o.state.nprimed1 * sqrtT *
		(o.Q + ((o.R-o.Q)*d1)/(o.state.impliedVol*sqrtT) - ((1.0 + d1*d2) / (2.0 * o.T)))
}

// Vomma is ∂vega/∂vol.
func (o *OptionInputs) Vomma() float64 {
	return o.Vega() * o.state.d1 * o.state.d2 / o.state.impliedVol
}

// Speed is ∂gamma/∂s.
func (o *OptionInputs) Speed() float64 {
	return -o.Gamma() / o.S * (o.state.d1/(o.state.impliedVol*math.Sqrt(o.T)) + 1.0)
}

// Zomma is ∂gamma/∂vol.
func (o *OptionInputs) Zomma() float64 {
	return o.Gamma() * ((o.state.d1*o.state.d2 - 1.0) / o.state.impliedVol)
}

// Color is ∂gamma/∂t.
func (o *OptionInputs) Color() float64 {
	sqrtT := math.Sqrt(o.T)
	v := o.state.impliedVol
	d1, d2 := o.state.d1, o.state.d2

	return -o.DividendDiscount() *
		(o.state.nprimed1 / (2.0 * o.S * o.T * v * sqrtT)) *
		(2.0*o.Q*o.T + 1.0 + (2.0*(o.R-o.Q)*o.T-d2*v*sqrtT)/(v*sqrtT)*d1)
}

// Ultima is ∂vomma/∂vol.
func (o *OptionInputs) Ultima() float64 {
	v := o.state.impliedVol
	d1, d2 := o.state.d1, o.state.d2

	return -o.Vega() / (v * v) * (d1*d2*(1.0-d1*d2) + d1*d1 + d2*d2)
}

// DualDelta is ∂price/∂k.
func (o *OptionInputs) DualDelta() float64 {
	return -o.Sign() * o.RateDiscount() * o.state.nd2
}

// DualGamma is ∂²price/∂k².
func (o *OptionInputs) DualGamma() float64 {
	return o.RateDiscount() * (o.state.nprimed2 / (o.K * o.state.impliedVol * math.Sqrt(o.T)))
}
