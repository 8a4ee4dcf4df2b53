// Package pricing implements closed-form Black–Scholes–Merton pricing for
// European options with a continuous dividend yield, the five standard
// Greeks, and a bisection-based implied volatility solver.
//
// All rates are annualized and continuously compounded. Every function is a
// pure, deterministic function of its inputs; the package holds no state and
// is safe for concurrent use without coordination.
package pricing

import (
	"math"
	"strings"
)

// OptionType distinguishes calls from puts.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType normalizes a user-supplied option type string.
// Accepts "call"/"c" and "put"/"p", case-insensitive.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(s) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", invalidParam("type", "must be 'call' or 'put', got '"+s+"'")
}

// ContractSpec fully determines a pricing request together with a volatility.
// Immutable once constructed.
type ContractSpec struct {
	S    float64    // spot price, > 0
	K    float64    // strike, > 0
	R    float64    // risk-free rate (annual, cont. comp)
	Q    float64    // continuous dividend yield (annual, cont. comp), 0 for non-dividend underlyings
	T    float64    // time to expiry in years, > 0
	Type OptionType // call or put
}

// PriceResult holds a computed option price.
type PriceResult struct {
	Price float64 `json:"price"`
}

// GreeksResult holds the five standard sensitivities.
// Theta is per year (no day-count rescaling; divide by 365 for a per-day
// number). Vega and Rho are per unit change in sigma/r, not per 1%.
type GreeksResult struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

// validate checks the contract parameters shared by all entry points.
// Sigma is checked separately because the IV solver supplies its own.
func (c ContractSpec) validate() error {
	switch {
	case c.S <= 0 || math.IsNaN(c.S) || math.IsInf(c.S, 0):
		return invalidParam("S", "spot must be > 0")
	case c.K <= 0 || math.IsNaN(c.K) || math.IsInf(c.K, 0):
		return invalidParam("K", "strike must be > 0")
	case c.T <= 0 || math.IsNaN(c.T) || math.IsInf(c.T, 0):
		return invalidParam("T", "time to expiry must be > 0")
	}
	if c.Type != Call && c.Type != Put {
		return invalidParam("type", "must be 'call' or 'put'")
	}
	return nil
}

func checkSigma(sigma float64) error {
	if sigma <= 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return invalidParam("sigma", "volatility must be > 0")
	}
	return nil
}

// d1d2 evaluates the two BSM quantiles:
//
//	d1 = (ln(S/K) + (r - q + σ²/2)·T) / (σ·√T)
//	d2 = d1 - σ·√T
func (c ContractSpec) d1d2(sigma float64) (d1, d2 float64) {
	sqrtT := math.Sqrt(c.T)
	d1 = (math.Log(c.S/c.K) + (c.R-c.Q+0.5*sigma*sigma)*c.T) / (sigma * sqrtT)
	d2 = d1 - sigma*sqrtT
	return d1, d2
}

// Price returns the Black–Scholes–Merton price of the contract at the given
// volatility. Fails with InvalidParameter if any precondition (S, K, T,
// sigma > 0, known option type) is violated; T=0 and sigma=0 are rejected,
// not approximated by intrinsic value.
func Price(spec ContractSpec, sigma float64) (PriceResult, error) {
	if err := spec.validate(); err != nil {
		return PriceResult{}, err
	}
	if err := checkSigma(sigma); err != nil {
		return PriceResult{}, err
	}

	d1, d2 := spec.d1d2(sigma)
	dfR := math.Exp(-spec.R * spec.T)
	dfQ := math.Exp(-spec.Q * spec.T)

	if spec.Type == Call {
		return PriceResult{Price: spec.S*dfQ*normCDF(d1) - spec.K*dfR*normCDF(d2)}, nil
	}
	return PriceResult{Price: spec.K*dfR*normCDF(-d2) - spec.S*dfQ*normCDF(-d1)}, nil
}

// Greeks returns delta, gamma, vega, theta, and rho for the contract at the
// given volatility. Same preconditions as Price.
func Greeks(spec ContractSpec, sigma float64) (GreeksResult, error) {
	if err := spec.validate(); err != nil {
		return GreeksResult{}, err
	}
	if err := checkSigma(sigma); err != nil {
		return GreeksResult{}, err
	}

	d1, d2 := spec.d1d2(sigma)
	pdf := normPDF(d1)
	sqrtT := math.Sqrt(spec.T)
	dfR := math.Exp(-spec.R * spec.T)
	dfQ := math.Exp(-spec.Q * spec.T)

	var g GreeksResult
	if spec.Type == Call {
		g.Delta = dfQ * normCDF(d1)
		g.Theta = -(spec.S*dfQ*pdf*sigma)/(2*sqrtT) -
			spec.R*spec.K*dfR*normCDF(d2) +
			spec.Q*spec.S*dfQ*normCDF(d1)
		g.Rho = spec.K * spec.T * dfR * normCDF(d2)
	} else {
		g.Delta = dfQ * (normCDF(d1) - 1)
		g.Theta = -(spec.S*dfQ*pdf*sigma)/(2*sqrtT) +
			spec.R*spec.K*dfR*normCDF(-d2) -
			spec.Q*spec.S*dfQ*normCDF(-d1)
		g.Rho = -spec.K * spec.T * dfR * normCDF(-d2)
	}

	g.Gamma = dfQ * pdf / (spec.S * sigma * sqrtT)
	g.Vega = spec.S * dfQ * pdf * sqrtT

	return g, nil
}
