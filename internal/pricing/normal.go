package pricing

import "gonum.org/v1/gonum/stat/distuv"

// stdNormal is the unit normal distribution shared by the pricing formulas.
// gonum's implementation is erf-based and accurate to double precision,
// which the closed forms below rely on near deep ITM/OTM strikes.
var stdNormal = distuv.UnitNormal

// normCDF returns Φ(x), the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return stdNormal.CDF(x)
}

// normPDF returns φ(x), the standard normal density.
func normPDF(x float64) float64 {
	return stdNormal.Prob(x)
}
