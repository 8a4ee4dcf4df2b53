package data

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/contactkeval/options-lab/internal/logger"
)

// massiveDataProvider implements Provider against the Massive HTTP APIs.
// Raw HTTP is used rather than the official SDK; the aggs endpoints are
// simple enough that a client dependency buys nothing here.
type massiveDataProvider struct {
	APIKey    string
	Client    *http.Client
	BaseURL   string
	secondary Provider
}

// NewMassiveDataProvider constructs a Massive-backed data provider with
// sensible HTTP client defaults (timeouts, pooling, gzip, HTTP/2).
func NewMassiveDataProvider(apiKey string) *massiveDataProvider {
	logger.Infof("initializing Massive data provider")

	return &massiveDataProvider{
		APIKey: apiKey,
		Client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				DisableCompression:    false, // must stay false for gzip auto-decompression
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		BaseURL: "https://api.massive.com",
	}
}

func (massiveDataProv *massiveDataProvider) Secondary() Provider {
	return massiveDataProv.secondary
}

// GetDailyBars retrieves daily OHLCV bars via the aggs endpoint.
func (massiveDataProv *massiveDataProvider) GetDailyBars(symbol string, fromDate, toDate time.Time) ([]Bar, error) {
	return massiveDataProv.getBars(symbol, fromDate, toDate, 1, "day")
}

func (massiveDataProv *massiveDataProvider) getBars(symbol string, fromDate, toDate time.Time, timespan int, multiplier string) ([]Bar, error) {
	logger.Debugf(
		"fetching bars: %s from=%s to=%s span=%d%s",
		symbol,
		fromDate.Format("2006-01-02"),
		toDate.Format("2006-01-02"),
		timespan,
		multiplier,
	)

	url := fmt.Sprintf(
		"%s/v2/aggs/ticker/%s/range/%d/%s/%s/%s?adjusted=true&sort=asc&limit=50000&apiKey=%s",
		massiveDataProv.BaseURL,
		symbol,
		timespan,
		multiplier,
		fromDate.Format("2006-01-02"),
		toDate.Format("2006-01-02"),
		massiveDataProv.APIKey,
	)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", massiveDataProv.APIKey)

	resp, err := massiveDataProv.processGetRequest(req)
	if err != nil {
		return nil, fmt.Errorf("massive api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf(
			"massive bars status=%d body=%s",
			resp.StatusCode,
			string(bodyBytes),
		)
	}

	var body struct {
		Ticker  string `json:"ticker"`
		Results []struct {
			Open      float64 `json:"o"`
			Close     float64 `json:"c"`
			High      float64 `json:"h"`
			Low       float64 `json:"l"`
			Volume    float64 `json:"v"`
			Timestamp int64   `json:"t"` // epoch millis
		} `json:"results"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parsing massive response: %w", err)
	}

	logger.Tracef("bars received: %d records", len(body.Results))

	out := make([]Bar, 0, len(body.Results))
	for _, r := range body.Results {
		out = append(out, Bar{
			Date:  time.UnixMilli(r.Timestamp).UTC(),
			Open:  r.Open,
			High:  r.High,
			Low:   r.Low,
			Close: r.Close,
			Vol:   r.Volume,
		})
	}
	return out, nil
}

// GetSpot returns the last daily close at or before asOf, looking back up to
// ten calendar days to skip weekends and holidays.
func (massiveDataProv *massiveDataProvider) GetSpot(symbol string, asOf time.Time) (float64, error) {
	bars, err := massiveDataProv.GetDailyBars(symbol, asOf.AddDate(0, 0, -10), asOf)
	if err != nil {
		if massiveDataProv.secondary != nil {
			return massiveDataProv.secondary.GetSpot(symbol, asOf)
		}
		return 0, fmt.Errorf("fetch spot bars: %w", err)
	}
	return lastCloseBefore(bars, asOf)
}

// GetOptionMid returns a mid price for the contract around asOf.
// Minute bars ending at asOf are preferred; if none exist the first bar in
// the following five minutes is used.
func (massiveDataProv *massiveDataProvider) GetOptionMid(underlying string, strike float64, expiry time.Time, optType string, asOf time.Time) (float64, error) {
	symbol := OptionSymbolFromParts(underlying, expiry, optType, strike)

	logger.Debugf(
		"option mid lookup: %s strike=%.2f expiry=%s at %s",
		underlying,
		strike,
		expiry.Format("2006-01-02"),
		asOf.Format(time.RFC3339),
	)

	bars, err := massiveDataProv.getBars(symbol, asOf.Add(-5*time.Minute), asOf, 1, "minute")
	if err != nil {
		return 0, fmt.Errorf("fetch option bars: %w", err)
	}
	if len(bars) != 0 {
		return bars[len(bars)-1].Close, nil
	}

	logger.Tracef("no bars before asOf, trying forward window")
	bars, err = massiveDataProv.getBars(symbol, asOf, asOf.Add(5*time.Minute), 1, "minute")
	if err != nil {
		return 0, fmt.Errorf("fetch option bars: %w", err)
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf(
			"no option bars found for %s on %s",
			symbol,
			asOf.Format("2006-01-02 15:04"),
		)
	}
	return bars[0].Open, nil
}

// processGetRequest executes a GET with rate-limit handling: on HTTP 429 it
// sleeps until the next minute boundary and retries; other >=400 statuses
// return an error.
func (massiveDataProv *massiveDataProvider) processGetRequest(req *http.Request) (*http.Response, error) {
	for {
		resp, err := massiveDataProv.Client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 400 {
			return resp, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()

			now := time.Now()
			sleepDuration := time.Until(now.Truncate(time.Minute).Add(time.Minute))
			logger.Infof("rate limit hit, sleeping for %s", sleepDuration)
			time.Sleep(sleepDuration)
			continue
		}

		return resp, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}
