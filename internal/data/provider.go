// Package data supplies market data for the quote workflow: daily bars for
// the underlying, an as-of spot price, and an option mid price to invert
// into implied volatility.
package data

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Bar is a simplified daily OHLCV record.
type Bar struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
	Vol   float64
}

// Provider supplies market data. Implementations may chain to a fallback
// via Secondary.
type Provider interface {
	// Secondary returns the configured fallback provider, if any.
	Secondary() Provider

	// GetDailyBars returns daily bars for the symbol over [fromDate, toDate].
	GetDailyBars(symbol string, fromDate, toDate time.Time) ([]Bar, error)

	// GetSpot returns the most recent close for the symbol as of the given date.
	GetSpot(symbol string, asOf time.Time) (float64, error)

	// GetOptionMid returns the mid price of the option contract as of the
	// given date.
	GetOptionMid(underlying string, strike float64, expiry time.Time, optType string, asOf time.Time) (float64, error)
}

// OptionSymbolFromParts formats an OCC-style option ticker:
// <root><YYMMDD><C|P><strike*1000 padded to 8 digits>, prefixed "O:".
func OptionSymbolFromParts(underlying string, expiry time.Time, optType string, strike float64) string {
	expDt := expiry.UTC().Format("060102")
	cp := "C"
	if strings.HasPrefix(strings.ToLower(optType), "p") {
		cp = "P"
	}
	strikeInt := int(math.Round(strike * 1000))
	return fmt.Sprintf("O:%s%s%s%08d", strings.ToUpper(underlying), expDt, cp, strikeInt)
}

// lastCloseBefore returns the close of the last bar dated at or before asOf.
func lastCloseBefore(bars []Bar, asOf time.Time) (float64, error) {
	best := -1
	for i, b := range bars {
		if !b.Date.After(asOf) {
			if best < 0 || b.Date.After(bars[best].Date) {
				best = i
			}
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("no bar at or before %s", asOf.Format("2006-01-02"))
	}
	return bars[best].Close, nil
}
