package pricing

import "math"

// SolverConfig controls the bisection search for implied volatility.
type SolverConfig struct {
	SigmaLo  float64 // lower bracket endpoint
	SigmaHi  float64 // upper bracket endpoint (5.0 = 500% annualized vol)
	PriceTol float64 // stop when |price(mid) - target| < PriceTol
	SigmaTol float64 // stop when bracket width < SigmaTol
	MaxIter  int     // iteration budget
}

// DefaultSolverConfig returns the standard bracket and tolerances.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		SigmaLo:  1e-6,
		SigmaHi:  5.0,
		PriceTol: 1e-6,
		SigmaTol: 1e-8,
		MaxIter:  100,
	}
}

// ImpliedVolResult is the outcome of an implied volatility search.
// Converged=false is not an error: it means the iteration budget ran out and
// Sigma is the best-effort midpoint. Iterations reports the actual count
// performed, for diagnostics.
type ImpliedVolResult struct {
	Sigma      float64 `json:"sigma"`
	Converged  bool    `json:"converged"`
	Iterations int     `json:"iterations"`
}

// ImpliedVolatility solves for the volatility that reproduces marketPrice
// under the pricing engine, using the default bracket and tolerances.
func ImpliedVolatility(spec ContractSpec, marketPrice float64) (ImpliedVolResult, error) {
	return ImpliedVolatilityWithConfig(spec, marketPrice, DefaultSolverConfig())
}

// ImpliedVolatilityWithConfig solves for implied volatility by bisection on
// sigma over [cfg.SigmaLo, cfg.SigmaHi].
//
// Bisection is used instead of Newton's method on purpose: the BSM price is
// monotonically increasing in sigma, but vega can be numerically near zero
// deep out-of-the-money, which makes Newton steps blow up. Bisection trades
// iteration count for guaranteed convergence given a valid bracket.
//
// Fails with InvalidParameter for non-positive marketPrice, with
// UnattainablePrice when marketPrice lies at or outside the no-arbitrage
// bounds for the contract, and with ErrBracketingFailure when the bracket
// does not straddle the target (defensive; the bound checks run first).
func ImpliedVolatilityWithConfig(spec ContractSpec, marketPrice float64, cfg SolverConfig) (ImpliedVolResult, error) {
	if err := spec.validate(); err != nil {
		return ImpliedVolResult{}, err
	}
	if marketPrice <= 0 || math.IsNaN(marketPrice) || math.IsInf(marketPrice, 0) {
		return ImpliedVolResult{}, invalidParam("market_price", "must be > 0")
	}
	if cfg.SigmaLo <= 0 || cfg.SigmaHi <= cfg.SigmaLo {
		return ImpliedVolResult{}, invalidParam("bracket", "must satisfy 0 < sigma_lo < sigma_hi")
	}
	if cfg.MaxIter <= 0 {
		return ImpliedVolResult{}, invalidParam("max_iter", "must be > 0")
	}
	if err := checkNoArbitrage(spec, marketPrice); err != nil {
		return ImpliedVolResult{}, err
	}

	// price(sigma) cannot fail here: spec is validated and both bracket
	// endpoints are positive.
	price := func(sigma float64) float64 {
		res, _ := Price(spec, sigma)
		return res.Price
	}

	lo, hi := cfg.SigmaLo, cfg.SigmaHi
	fLo := price(lo) - marketPrice
	fHi := price(hi) - marketPrice
	if fLo > 0 || fHi < 0 {
		return ImpliedVolResult{}, ErrBracketingFailure
	}

	var mid float64
	for i := 0; i < cfg.MaxIter; i++ {
		mid = 0.5 * (lo + hi)
		fMid := price(mid) - marketPrice

		if math.Abs(fMid) < cfg.PriceTol {
			return ImpliedVolResult{Sigma: mid, Converged: true, Iterations: i + 1}, nil
		}

		// keep the sign change inside [lo, hi]
		if fLo*fMid <= 0 {
			hi = mid
		} else {
			lo, fLo = mid, fMid
		}

		if hi-lo < cfg.SigmaTol {
			return ImpliedVolResult{Sigma: mid, Converged: true, Iterations: i + 1}, nil
		}
	}

	// budget exhausted: best-effort result, caller decides whether to accept
	return ImpliedVolResult{Sigma: mid, Converged: false, Iterations: cfg.MaxIter}, nil
}

// checkNoArbitrage rejects market prices no volatility can reproduce:
// at or below discounted intrinsic value, or at or above the asset bound
// (S·e^(-qT) for calls, K·e^(-rT) for puts).
func checkNoArbitrage(spec ContractSpec, marketPrice float64) error {
	fwdS := spec.S * math.Exp(-spec.Q*spec.T)
	fwdK := spec.K * math.Exp(-spec.R*spec.T)

	var intrinsic, upper float64
	if spec.Type == Call {
		intrinsic = math.Max(0, fwdS-fwdK)
		upper = fwdS
	} else {
		intrinsic = math.Max(0, fwdK-fwdS)
		upper = fwdK
	}

	if marketPrice <= intrinsic {
		return &UnattainablePriceError{Bound: "intrinsic value", Limit: intrinsic, Price: marketPrice}
	}
	if marketPrice >= upper {
		return &UnattainablePriceError{Bound: "asset bound", Limit: upper, Price: marketPrice}
	}
	return nil
}
