package pricing

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestImpliedVolRoundTrip(t *testing.T) {
	specs := []ContractSpec{
		{S: 100, K: 100, R: 0.05, T: 1, Type: Call},
		{S: 100, K: 100, R: 0.05, Q: 0.01, T: 1, Type: Call},
		{S: 100, K: 110, R: 0.03, Q: 0.02, T: 0.5, Type: Put},
		{S: 250, K: 180, R: 0.07, T: 2, Type: Call},
		{S: 120, K: 100, R: 0.02, Q: 0.01, T: 1.5, Type: Put},
	}
	sigmas := []float64{0.08, 0.2, 0.35, 0.9, 2.5}

	for _, spec := range specs {
		for _, sigmaTrue := range sigmas {
			market, err := Price(spec, sigmaTrue)
			if err != nil {
				t.Fatalf("price failed: %v", err)
			}

			res, err := ImpliedVolatility(spec, market.Price)
			if err != nil {
				t.Fatalf("implied vol failed for %+v sigma=%f: %v", spec, sigmaTrue, err)
			}
			if !res.Converged {
				t.Fatalf("expected convergence for %+v sigma=%f, stopped after %d iterations", spec, sigmaTrue, res.Iterations)
			}
			if !approx(res.Sigma, sigmaTrue, 1e-4) {
				t.Fatalf("round trip off for %+v: true sigma %f, solved %f", spec, sigmaTrue, res.Sigma)
			}
			if res.Iterations <= 0 || res.Iterations > DefaultSolverConfig().MaxIter {
				t.Fatalf("implausible iteration count %d", res.Iterations)
			}
		}
	}
}

// The concrete end-to-end case from the reference tables: ATM call at 20%
// vol is worth ~10.45, and inverting that price recovers sigma=0.2.
func TestImpliedVolEndToEnd(t *testing.T) {
	spec := ContractSpec{S: 100, K: 100, R: 0.05, T: 1, Type: Call}
	market, err := Price(spec, 0.2)
	if err != nil {
		t.Fatalf("price failed: %v", err)
	}
	if !approx(market.Price, 10.45, 0.01) {
		t.Fatalf("expected ~10.45, got %f", market.Price)
	}

	res, err := ImpliedVolatility(spec, market.Price)
	if err != nil {
		t.Fatalf("implied vol failed: %v", err)
	}
	if !res.Converged || !approx(res.Sigma, 0.2, 1e-4) {
		t.Fatalf("expected sigma ~0.2 converged, got %+v", res)
	}
}

func TestImpliedVolRejectsNonPositivePrice(t *testing.T) {
	spec := ContractSpec{S: 100, K: 100, R: 0.05, T: 1, Type: Call}
	for _, p := range []float64{0, -5, math.NaN()} {
		_, err := ImpliedVolatility(spec, p)
		var invalid *InvalidParameterError
		if !errors.As(err, &invalid) {
			t.Fatalf("market price %f: expected InvalidParameterError, got %v", p, err)
		}
	}
}

func TestImpliedVolBelowIntrinsicFails(t *testing.T) {
	// deep ITM call: discounted intrinsic is ~54.88
	spec := ContractSpec{S: 150, K: 100, R: 0.05, T: 1, Type: Call}
	intrinsic := spec.S - spec.K*math.Exp(-spec.R*spec.T)

	for _, p := range []float64{intrinsic, intrinsic - 1} {
		_, err := ImpliedVolatility(spec, p)
		var unattainable *UnattainablePriceError
		if !errors.As(err, &unattainable) {
			t.Fatalf("price %f: expected UnattainablePriceError, got %v", p, err)
		}
		if unattainable.Bound != "intrinsic value" {
			t.Fatalf("expected intrinsic bound named, got %q", unattainable.Bound)
		}
		if !strings.Contains(err.Error(), "intrinsic") {
			t.Fatalf("error should name the violated bound: %v", err)
		}
	}
}

func TestImpliedVolAboveAssetBoundFails(t *testing.T) {
	callSpec := ContractSpec{S: 100, K: 100, R: 0.05, Q: 0.02, T: 1, Type: Call}
	callBound := callSpec.S * math.Exp(-callSpec.Q*callSpec.T)

	putSpec := ContractSpec{S: 100, K: 100, R: 0.05, Q: 0.02, T: 1, Type: Put}
	putBound := putSpec.K * math.Exp(-putSpec.R*putSpec.T)

	cases := []struct {
		spec  ContractSpec
		price float64
	}{
		{callSpec, callBound},
		{callSpec, callBound + 10},
		{putSpec, putBound},
		{putSpec, putBound + 10},
	}

	for _, c := range cases {
		_, err := ImpliedVolatility(c.spec, c.price)
		var unattainable *UnattainablePriceError
		if !errors.As(err, &unattainable) {
			t.Fatalf("%s at %f: expected UnattainablePriceError, got %v", c.spec.Type, c.price, err)
		}
		if unattainable.Bound != "asset bound" {
			t.Fatalf("expected asset bound named, got %q", unattainable.Bound)
		}
	}
}

func TestImpliedVolInvalidSpecRejectedFirst(t *testing.T) {
	_, err := ImpliedVolatility(ContractSpec{S: -1, K: 100, R: 0.05, T: 1, Type: Call}, 10)
	var invalid *InvalidParameterError
	if !errors.As(err, &invalid) || invalid.Param != "S" {
		t.Fatalf("expected InvalidParameterError on S, got %v", err)
	}
}

// Exhausting the iteration budget is a best-effort result, not an error.
func TestImpliedVolBudgetExhausted(t *testing.T) {
	spec := ContractSpec{S: 100, K: 100, R: 0.05, T: 1, Type: Call}
	market, err := Price(spec, 0.2)
	if err != nil {
		t.Fatalf("price failed: %v", err)
	}

	cfg := DefaultSolverConfig()
	cfg.MaxIter = 3
	cfg.PriceTol = 1e-12 // unreachable in three halvings
	res, err := ImpliedVolatilityWithConfig(spec, market.Price, cfg)
	if err != nil {
		t.Fatalf("budget exhaustion must not be an error, got %v", err)
	}
	if res.Converged {
		t.Fatalf("expected converged=false after %d iterations", cfg.MaxIter)
	}
	if res.Iterations != 3 {
		t.Fatalf("expected 3 iterations reported, got %d", res.Iterations)
	}
	if res.Sigma <= cfg.SigmaLo || res.Sigma >= cfg.SigmaHi {
		t.Fatalf("best-effort sigma %f escaped the bracket", res.Sigma)
	}
}

func TestImpliedVolBracketingFailure(t *testing.T) {
	spec := ContractSpec{S: 100, K: 100, R: 0.05, T: 1, Type: Call}
	market, err := Price(spec, 0.2)
	if err != nil {
		t.Fatalf("price failed: %v", err)
	}

	// Bracket pinned above the root: f(lo) > target.
	cfg := DefaultSolverConfig()
	cfg.SigmaLo = 0.5
	cfg.SigmaHi = 1.0
	_, err = ImpliedVolatilityWithConfig(spec, market.Price, cfg)
	if !errors.Is(err, ErrBracketingFailure) {
		t.Fatalf("expected ErrBracketingFailure, got %v", err)
	}
}
