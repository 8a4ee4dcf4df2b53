// Command options-lab prices European options under Black–Scholes–Merton
// with a continuous dividend yield, and solves for implied volatility.
//
// Three ways to use it:
//
//	options-lab --S 100 --K 100 --r 0.05 --T 1 --sigma 0.2 --greeks
//	options-lab --S 100 --K 100 --r 0.05 --T 1 --iv 10.45
//	options-lab --underlying SPY --strike 580 --expiry 2026-12-18 --r 0.05
//
// The third form fetches the spot and option mid price from a market data
// provider (Massive when POLYGON_API_KEY is set, synthetic otherwise) and
// inverts the mid into an implied volatility. --rest serves the same
// operations over HTTP.
package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/contactkeval/options-lab/internal/data"
	"github.com/contactkeval/options-lab/internal/logger"
	"github.com/contactkeval/options-lab/internal/pricing"
	"github.com/contactkeval/options-lab/internal/report"
	"github.com/contactkeval/options-lab/internal/server"
)

func main() {
	spot := flag.Float64("S", 0, "spot price")
	strike := flag.Float64("K", 0, "strike")
	rate := flag.Float64("r", 0, "risk-free rate (annual, cont. comp)")
	yield := flag.Float64("q", 0, "dividend yield (annual, cont. comp)")
	years := flag.Float64("T", 0, "time to maturity in years")
	optType := flag.String("type", "call", "option type: call or put")
	sigma := flag.Float64("sigma", 0, "volatility (annualized); required unless --iv or quote mode is used")
	market := flag.Float64("iv", 0, "market price; solve for implied vol instead of pricing")
	greeks := flag.Bool("greeks", false, "also print greeks")
	jsonOut := flag.Bool("json", false, "emit JSON instead of text")

	underlying := flag.String("underlying", "", "quote mode: underlying symbol (e.g. SPY)")
	quoteStrike := flag.Float64("strike", 0, "quote mode: option strike")
	expiry := flag.String("expiry", "", "quote mode: option expiry (2006-01-02)")
	barsCSV := flag.String("bars-csv", "", "quote mode: read daily bars from a local CSV file")

	rest := flag.Bool("rest", false, "run as REST server")
	port := flag.String("port", ":8080", "REST server listen address")
	verbosity := flag.Int("v", 1, "verbosity: 0=errors 1=info 2=debug 3=trace")
	flag.Parse()

	logger.SetVerbosity(*verbosity)

	// API keys may live in a .env next to the binary or the cwd.
	_ = godotenv.Load()

	if *rest {
		srv := server.New()
		logger.Infof("starting REST server on %s", *port)
		if err := http.ListenAndServe(*port, srv.Mux()); err != nil {
			fail(err)
		}
		return
	}

	if *underlying != "" {
		runQuote(*underlying, *quoteStrike, *expiry, *optType, *rate, *yield, *barsCSV, *greeks, *jsonOut)
		return
	}

	parsedType, err := pricing.ParseOptionType(*optType)
	if err != nil {
		fail(err)
	}
	spec := pricing.ContractSpec{S: *spot, K: *strike, R: *rate, Q: *yield, T: *years, Type: parsedType}

	switch {
	case *market > 0 && *sigma > 0:
		fail(errors.New("pass exactly one of --sigma and --iv"))
	case *market > 0:
		runImpliedVol(spec, *market, *greeks, *jsonOut)
	case *sigma > 0:
		runPrice(spec, *sigma, *greeks, *jsonOut)
	default:
		fail(errors.New("--sigma is required unless you pass --iv or use quote mode"))
	}
}

func runPrice(spec pricing.ContractSpec, sigma float64, withGreeks, jsonOut bool) {
	res, err := pricing.Price(spec, sigma)
	if err != nil {
		fail(err)
	}

	rep := report.PriceReport{Type: spec.Type, Price: res.Price}
	if withGreeks {
		g, err := pricing.Greeks(spec, sigma)
		if err != nil {
			fail(err)
		}
		rep.Greeks = &g
	}
	emit(rep, jsonOut, func() { report.WritePriceText(os.Stdout, rep) })
}

func runImpliedVol(spec pricing.ContractSpec, marketPrice float64, withGreeks, jsonOut bool) {
	res, err := pricing.ImpliedVolatility(spec, marketPrice)
	if err != nil {
		fail(err)
	}

	rep := report.ImpliedVolReport{Sigma: res.Sigma, Converged: res.Converged, Iterations: res.Iterations}
	if withGreeks {
		g, err := pricing.Greeks(spec, res.Sigma)
		if err != nil {
			fail(err)
		}
		rep.Greeks = &g
	}
	emit(rep, jsonOut, func() { report.WriteImpliedVolText(os.Stdout, rep) })
}

// runQuote fetches live (or synthetic) market data, solves implied vol from
// the observed option mid, and reports it next to realized volatility.
func runQuote(underlying string, strike float64, expiryStr, optType string, rate, yield float64, barsCSV string, withGreeks, jsonOut bool) {
	if strike <= 0 {
		fail(errors.New("quote mode requires --strike > 0"))
	}
	expiry, err := time.Parse("2006-01-02", expiryStr)
	if err != nil {
		fail(errors.New("quote mode requires --expiry in 2006-01-02 form"))
	}
	parsedType, err := pricing.ParseOptionType(optType)
	if err != nil {
		fail(err)
	}

	prov := chooseProvider(barsCSV)
	asOf := time.Now().UTC()

	years := expiry.Sub(asOf).Hours() / 24 / 365
	if years <= 0 {
		fail(errors.New("--expiry must be in the future"))
	}

	spotPrice, err := prov.GetSpot(underlying, asOf)
	if err != nil {
		fail(err)
	}
	mid, err := prov.GetOptionMid(underlying, strike, expiry, string(parsedType), asOf)
	if err != nil {
		fail(err)
	}
	logger.Infof("%s spot=%.2f, %s %s %.2f mid=%.4f", underlying, spotPrice, expiryStr, parsedType, strike, mid)

	spec := pricing.ContractSpec{S: spotPrice, K: strike, R: rate, Q: yield, T: years, Type: parsedType}
	res, err := pricing.ImpliedVolatility(spec, mid)
	if err != nil {
		fail(err)
	}

	rep := report.ImpliedVolReport{Sigma: res.Sigma, Converged: res.Converged, Iterations: res.Iterations}
	if bars, err := prov.GetDailyBars(underlying, asOf.AddDate(-1, 0, 0), asOf); err == nil && len(bars) > 1 {
		rep.HistoricalVol = data.AnnualizedVolatility(data.ExtractCloses(bars))
	} else if err != nil {
		logger.Debugf("realized vol unavailable: %v", err)
	}
	if withGreeks {
		g, err := pricing.Greeks(spec, res.Sigma)
		if err != nil {
			fail(err)
		}
		rep.Greeks = &g
	}
	emit(rep, jsonOut, func() { report.WriteImpliedVolText(os.Stdout, rep) })
}

// chooseProvider mirrors the usual fallback: local CSV if given, Massive if
// an API key is configured, synthetic otherwise.
func chooseProvider(barsCSV string) data.Provider {
	var prov data.Provider
	apiKey := os.Getenv("POLYGON_API_KEY")
	if apiKey != "" {
		prov = data.NewMassiveDataProvider(apiKey)
		logger.Infof("massive provider enabled")
	} else {
		prov = data.NewSyntheticProvider(time.Now().UnixNano())
		logger.Infof("synthetic provider enabled")
	}
	if barsCSV != "" {
		prov = data.NewLocalCSVDataProvider(barsCSV, prov)
		logger.Infof("reading bars from %s", barsCSV)
	}
	return prov
}

func emit(rep any, jsonOut bool, text func()) {
	if jsonOut {
		if err := report.WriteJSON(os.Stdout, rep); err != nil {
			fail(err)
		}
		return
	}
	text()
}

func fail(err error) {
	logger.Errorf("%v", err)
	os.Exit(1)
}
