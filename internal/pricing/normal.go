package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// SqrtTwoPi is √(2π), the normalising constant of the standard normal density.
	SqrtTwoPi = 2.5066282746310002

	// DaysPerYear is the calendar day count used for theta and year fractions.
	DaysPerYear = 365.25
)

// normPDF calculates the probability density function (PDF) of the standard normal distribution.
// The formula used is: exp(-0.5 * x^2) / sqrt(2π)
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / SqrtTwoPi
}

// normCDF computes the cumulative distribution function of the standard normal distribution.
// NaN in gives NaN out, which keeps unpriced inputs flowing through as the sentinel.
func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// normInv is the standard normal quantile. It returns NaN for p outside (0, 1)
// instead of panicking like distuv does.
func normInv(p float64) float64 {
	if !(p > 0 && p < 1) {
		return math.NaN()
	}
	return distuv.UnitNormal.Quantile(p)
}
