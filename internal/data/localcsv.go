package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/contactkeval/options-lab/internal/logger"
)

// localCSVDataProvider reads daily bars from a local CSV file, for offline
// use. Expected columns: date (2006-01-02), open, high, low, close, volume.
// A header row is skipped if present. Option quotes are delegated to the
// secondary provider.
type localCSVDataProvider struct {
	path      string
	secondary Provider
}

// NewLocalCSVDataProvider constructs a CSV-file-backed provider.
func NewLocalCSVDataProvider(path string, secondary Provider) Provider {
	return &localCSVDataProvider{path: path, secondary: secondary}
}

func (localCSVDataProv *localCSVDataProvider) Secondary() Provider {
	return localCSVDataProv.secondary
}

func (localCSVDataProv *localCSVDataProvider) GetDailyBars(symbol string, fromDate, toDate time.Time) ([]Bar, error) {
	f, err := os.Open(localCSVDataProv.path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	var out []Bar
	for i, row := range records {
		if len(row) < 6 {
			continue
		}
		dt, err := time.Parse("2006-01-02", strings.TrimSpace(row[0]))
		if err != nil {
			if i == 0 {
				continue // header row
			}
			logger.Debugf("skipping malformed csv row %d: %v", i+1, err)
			continue
		}
		if dt.Before(fromDate) || dt.After(toDate) {
			continue
		}

		vals := make([]float64, 5)
		ok := true
		for j := 1; j <= 5; j++ {
			vals[j-1], err = strconv.ParseFloat(strings.TrimSpace(row[j]), 64)
			if err != nil {
				ok = false
				break
			}
		}
		if !ok {
			logger.Debugf("skipping malformed csv row %d", i+1)
			continue
		}

		out = append(out, Bar{Date: dt, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Vol: vals[4]})
	}

	logger.Tracef("loaded %d bars from %s", len(out), localCSVDataProv.path)
	return out, nil
}

func (localCSVDataProv *localCSVDataProvider) GetSpot(symbol string, asOf time.Time) (float64, error) {
	bars, err := localCSVDataProv.GetDailyBars(symbol, asOf.AddDate(0, 0, -10), asOf)
	if err != nil || len(bars) == 0 {
		if localCSVDataProv.secondary != nil {
			return localCSVDataProv.secondary.GetSpot(symbol, asOf)
		}
		if err == nil {
			err = fmt.Errorf("no bars in %s at or before %s", localCSVDataProv.path, asOf.Format("2006-01-02"))
		}
		return 0, err
	}
	return lastCloseBefore(bars, asOf)
}

func (localCSVDataProv *localCSVDataProvider) GetOptionMid(underlying string, strike float64, expiry time.Time, optType string, asOf time.Time) (float64, error) {
	if localCSVDataProv.secondary != nil {
		return localCSVDataProv.secondary.GetOptionMid(underlying, strike, expiry, optType, asOf)
	}
	return 0, fmt.Errorf("no option market data in csv provider")
}
