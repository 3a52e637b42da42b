package pricing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greekTolerance = 1e-5 // relative

type point struct{ s, k, r, q, t, v float64 }

func (p point) inputs(isCall bool) *OptionInputs {
	return NewOptionInputs(isCall, p.s, p.k, p.r, p.q, p.t).WithImpliedVol(p.v)
}

// centralDiff bumps one input of p both ways and differences f.
func centralDiff(isCall bool, p point, bump func(*point, float64), f func(*OptionInputs) float64) float64 {
	const h = 1e-4
	up, down := p, p
	bump(&up, h)
	bump(&down, -h)
	return (f(up.inputs(isCall)) - f(down.inputs(isCall))) / (2 * h)
}

var (
	bumpS = func(p *point, h float64) { p.s += h }
	bumpK = func(p *point, h float64) { p.k += h }
	bumpR = func(p *point, h float64) { p.r += h }
	bumpQ = func(p *point, h float64) { p.q += h }
	bumpT = func(p *point, h float64) { p.t += h }
	bumpV = func(p *point, h float64) { p.v += h }
)

func TestGreeksMatchFiniteDifferences(t *testing.T) {
	base := point{s: 100, k: 95, r: 0.03, q: 0.01, t: 0.5, v: 0.25}

	for _, isCall := range []bool{true, false} {
		name := "put"
		if isCall {
			name = "call"
		}
		in := base.inputs(isCall)

		t.Run(name, func(t *testing.T) {
			tests := []struct {
				greek    string
				got      float64
				expected float64
			}{
				{"delta", in.Delta(), centralDiff(isCall, base, bumpS, (*OptionInputs).Price)},
				{"gamma", in.Gamma(), centralDiff(isCall, base, bumpS, (*OptionInputs).Delta)},
				{"theta", in.Theta(), -centralDiff(isCall, base, bumpT, (*OptionInputs).Price) / DaysPerYear},
				{"vega", in.Vega(), 0.01 * centralDiff(isCall, base, bumpV, (*OptionInputs).Price)},
				{"rho", in.Rho(), 0.01 * centralDiff(isCall, base, bumpR, (*OptionInputs).Price)},
				{"epsilon", in.Epsilon(), centralDiff(isCall, base, bumpQ, (*OptionInputs).Price)},
				{"vanna", in.Vanna(), 0.01 * centralDiff(isCall, base, bumpV, (*OptionInputs).Delta)},
				{"vanna via vega", in.Vanna(), centralDiff(isCall, base, bumpS, (*OptionInputs).Vega)},
				{"charm", in.Charm(), -centralDiff(isCall, base, bumpT, (*OptionInputs).Delta)},
				{"veta", in.Veta(), 100 * centralDiff(isCall, base, bumpT, (*OptionInputs).Vega)},
				{"vomma", in.Vomma(), centralDiff(isCall, base, bumpV, (*OptionInputs).Vega)},
				{"speed", in.Speed(), centralDiff(isCall, base, bumpS, (*OptionInputs).Gamma)},
				{"zomma", in.Zomma(), centralDiff(isCall, base, bumpV, (*OptionInputs).Gamma)},
				{"color", in.Color(), centralDiff(isCall, base, bumpT, (*OptionInputs).Gamma)},
				{"ultima", in.Ultima(), centralDiff(isCall, base, bumpV, (*OptionInputs).Vomma)},
				{"dual delta", in.DualDelta(), centralDiff(isCall, base, bumpK, (*OptionInputs).Price)},
				{"dual gamma", in.DualGamma(), centralDiff(isCall, base, bumpK, (*OptionInputs).DualDelta)},
				{"lambda", in.Lambda(), in.Delta() * base.s / in.Price()},
			}

			for _, tt := range tests {
				assert.InEpsilonf(t, tt.expected, tt.got, greekTolerance, "%s", tt.greek)
			}
		})
	}
}

func TestAllGreeksMatchesIndividualReaders(t *testing.T) {
	in := NewOptionInputs(false, 42, 40, 0.1, 0.0, 0.5).WithImpliedVol(0.2)
	g := in.AllGreeks()

	assert.Equal(t, in.Delta(), g.Delta)
	assert.Equal(t, in.Theta(), g.Theta)
	assert.Equal(t, in.Color(), g.Color)
	assert.Equal(t, in.DualGamma(), g.DualGamma)
}

func TestKnownGreeks(t *testing.T) {
	// Hull, Options Futures and Other Derivatives: S=49, K=50, r=0.05, σ=0.2, T=0.3846
	in := NewOptionInputs(true, 49, 50, 0.05, 0, 0.3846).WithImpliedVol(0.2)

	assert.InDelta(t, 2.40, in.Price(), 0.005)
	assert.InDelta(t, 0.522, in.Delta(), 0.001)
	assert.InDelta(t, 0.066, in.Gamma(), 0.001)
	assert.InDelta(t, 0.121, in.Vega(), 0.001)
	assert.InDelta(t, 0.0891, in.Rho(), 0.001)
}

func TestLambdaUndefinedWithoutPrice(t *testing.T) {
	t.Run("unpriced", func(t *testing.T) {
		in := NewOptionInputs(true, 100, 100, 0.05, 0, 1)
		assert.True(t, math.IsNaN(in.Lambda()))
	})

	t.Run("zero price", func(t *testing.T) {
		in := NewOptionInputs(true, 100, 300, 0.05, 0, 0.01).WithImpliedVol(0.05)
		require.Equal(t, 0.0, in.Price())
		assert.False(t, isFinite(in.Lambda()))
	})
}

func TestStrikeFromDelta(t *testing.T) {
	tests := []struct {
		name   string
		isCall bool
		delta  float64
	}{
		{"call 25 delta", true, 0.25},
		{"call 50 delta", true, 0.50},
		{"put 25 delta", false, -0.25},
		{"put 10 delta", false, -0.10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strike := StrikeFromDelta(100, tt.delta, 0.04, 0.01, 0.3, 0.5, tt.isCall)
			require.False(t, math.IsNaN(strike))

			in := NewOptionInputs(tt.isCall, 100, strike, 0.04, 0.01, 0.5).WithImpliedVol(0.3)
			assert.InDelta(t, tt.delta, in.Delta(), 1e-9)
		})
	}

	t.Run("unreachable delta", func(t *testing.T) {
		assert.True(t, math.IsNaN(StrikeFromDelta(100, 1.2, 0.04, 0.01, 0.3, 0.5, true)))
		assert.True(t, math.IsNaN(StrikeFromDelta(100, 0.3, 0.04, 0.01, 0.3, 0.5, false)))
	})
}

func TestYearsBetween(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 20)

	assert.InDelta(t, twentyDays, YearsBetween(from, to), 1e-15)
	assert.Less(t, YearsBetween(to, from), 0.0)
}
