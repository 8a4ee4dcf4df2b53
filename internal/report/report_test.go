package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/contactkeval/options-lab/internal/pricing"
)

func TestWritePriceText(t *testing.T) {
	var buf bytes.Buffer
	WritePriceText(&buf, PriceReport{Type: pricing.Call, Price: 10.450584})

	got := buf.String()
	if got != "Call price: 10.450584\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestWritePriceTextWithGreeks(t *testing.T) {
	var buf bytes.Buffer
	WritePriceText(&buf, PriceReport{
		Type:   pricing.Put,
		Price:  5.573526,
		Greeks: &pricing.GreeksResult{Delta: -0.363169, Gamma: 0.018762, Vega: 37.524035, Theta: -1.657880, Rho: -41.890461},
	})

	got := buf.String()
	if !strings.HasPrefix(got, "Put price: 5.573526\n") {
		t.Fatalf("unexpected header: %q", got)
	}
	for _, want := range []string{"Delta : -0.363169", "Gamma : 0.018762", "Vega  : 37.524035", "Theta : -1.657880", "Rho   : -41.890461"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in output:\n%s", want, got)
		}
	}
}

func TestWriteImpliedVolText(t *testing.T) {
	var buf bytes.Buffer
	WriteImpliedVolText(&buf, ImpliedVolReport{Sigma: 0.2, Converged: true, Iterations: 21, HistoricalVol: 0.1834})

	got := buf.String()
	if !strings.Contains(got, "Implied vol (sigma): 0.200000") {
		t.Fatalf("missing implied vol line: %q", got)
	}
	if !strings.Contains(got, "Realized vol (252d) : 0.183400") {
		t.Fatalf("missing realized vol line: %q", got)
	}
	if strings.Contains(got, "Warning") {
		t.Fatalf("converged result should not warn: %q", got)
	}
}

func TestWriteImpliedVolTextNotConverged(t *testing.T) {
	var buf bytes.Buffer
	WriteImpliedVolText(&buf, ImpliedVolReport{Sigma: 0.31, Converged: false, Iterations: 100})
	if !strings.Contains(buf.String(), "did not converge after 100 iterations") {
		t.Fatalf("expected non-convergence warning: %q", buf.String())
	}
}

func TestWriteJSONOmitsEmptyGreeks(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, ImpliedVolReport{Sigma: 0.2, Converged: true, Iterations: 21}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if strings.Contains(buf.String(), "greeks") || strings.Contains(buf.String(), "historical_vol") {
		t.Fatalf("empty optional fields should be omitted: %s", buf.String())
	}

	var round ImpliedVolReport
	if err := json.Unmarshal(buf.Bytes(), &round); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if round.Sigma != 0.2 || !round.Converged || round.Iterations != 21 {
		t.Fatalf("round trip mismatch: %+v", round)
	}
}
