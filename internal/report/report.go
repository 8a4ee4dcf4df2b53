// Package report renders pricing and implied-volatility results for the CLI
// (plain text) and the REST surface (JSON).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/contactkeval/options-lab/internal/pricing"
)

// PriceReport bundles a price with its optional Greeks.
type PriceReport struct {
	Type   pricing.OptionType    `json:"type"`
	Price  float64               `json:"price"`
	Greeks *pricing.GreeksResult `json:"greeks,omitempty"`
}

// ImpliedVolReport bundles a solver result with optional Greeks evaluated at
// the solved volatility and an optional realized-vol reference.
type ImpliedVolReport struct {
	Sigma         float64               `json:"sigma"`
	Converged     bool                  `json:"converged"`
	Iterations    int                   `json:"iterations"`
	Greeks        *pricing.GreeksResult `json:"greeks,omitempty"`
	HistoricalVol float64               `json:"historical_vol,omitempty"`
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// WritePriceText prints a price report in the CLI's human-readable form:
//
//	Call price: 10.450584
//	Delta : 0.636831
//	...
func WritePriceText(w io.Writer, rep PriceReport) {
	fmt.Fprintf(w, "%s price: %.6f\n", capitalize(string(rep.Type)), rep.Price)
	if rep.Greeks != nil {
		writeGreeksText(w, rep.Greeks)
	}
}

// WriteImpliedVolText prints a solver report. Non-convergence is flagged but
// the best-effort sigma is still shown.
func WriteImpliedVolText(w io.Writer, rep ImpliedVolReport) {
	fmt.Fprintf(w, "Implied vol (sigma): %.6f\n", rep.Sigma)
	if !rep.Converged {
		fmt.Fprintf(w, "Warning: did not converge after %d iterations (best effort)\n", rep.Iterations)
	}
	if rep.HistoricalVol > 0 {
		fmt.Fprintf(w, "Realized vol (252d) : %.6f\n", rep.HistoricalVol)
	}
	if rep.Greeks != nil {
		writeGreeksText(w, rep.Greeks)
	}
}

func writeGreeksText(w io.Writer, g *pricing.GreeksResult) {
	fmt.Fprintf(w, "Delta : %.6f\n", g.Delta)
	fmt.Fprintf(w, "Gamma : %.6f\n", g.Gamma)
	fmt.Fprintf(w, "Vega  : %.6f\n", g.Vega)
	fmt.Fprintf(w, "Theta : %.6f\n", g.Theta)
	fmt.Fprintf(w, "Rho   : %.6f\n", g.Rho)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
