package data

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/contactkeval/option-greeks/internal/logger"
)

const csvDateLayout = "2006-01-02"

// csvDate reads and writes dates as YYYY-MM-DD.
type csvDate struct {
	time.Time
}

func (d *csvDate) UnmarshalCSV(s string) error {
	t, err := time.Parse(csvDateLayout, strings.TrimSpace(s))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d csvDate) MarshalCSV() (string, error) {
	return d.Format(csvDateLayout), nil
}

type barRow struct {
	Date   csvDate `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

type optionRow struct {
	Date   csvDate `csv:"date"`
	Expiry csvDate `csv:"expiry"`
	Type   string  `csv:"type"`
	Strike float64 `csv:"strike"`
	Close  float64 `csv:"close"`
}

// csvProvider reads bars from <dir>/<TICKER>.csv and option closes from
// <dir>/<UNDERLYING>_options.csv.
type csvProvider struct {
	dir       string
	secondary Provider
}

// NewCSVProvider returns a provider backed by local CSV files. Requests the
// files cannot answer go to secondary when it is not nil.
func NewCSVProvider(dir string, secondary Provider) Provider {
	return &csvProvider{dir: dir, secondary: secondary}
}

func (p *csvProvider) GetBars(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	var rows []*barRow
	err := p.load(strings.ToUpper(ticker)+".csv", &rows)
	if errors.Is(err, ErrNoData) && p.secondary != nil {
		logger.Debugf("csv: no bars file for %s, using secondary", ticker)
		return p.secondary.GetBars(ctx, ticker, from, to)
	}
	if err != nil {
		return nil, err
	}

	out := make([]Bar, 0, len(rows))
	for _, r := range rows {
		if r.Date.Before(truncateDay(from)) || r.Date.After(to) {
			continue
		}
		out = append(out, Bar{Date: r.Date.Time, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Vol: r.Volume})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (p *csvProvider) GetOptionPrice(ctx context.Context, underlying string, strike float64, expiry time.Time, optType string, asOf time.Time) (float64, error) {
	price, err := p.optionPrice(underlying, strike, expiry, optType, asOf)
	if errors.Is(err, ErrNoData) && p.secondary != nil {
		logger.Debugf("csv: %v, using secondary", err)
		return p.secondary.GetOptionPrice(ctx, underlying, strike, expiry, optType, asOf)
	}
	return price, err
}

func (p *csvProvider) optionPrice(underlying string, strike float64, expiry time.Time, optType string, asOf time.Time) (float64, error) {
	isCall, err := IsCall(optType)
	if err != nil {
		return 0, err
	}

	var rows []*optionRow
	if err := p.load(strings.ToUpper(underlying)+"_options.csv", &rows); err != nil {
		return 0, err
	}

	symbol := OptionSymbolFromParts(underlying, expiry, optType, strike)
	day, expDay := truncateDay(asOf), truncateDay(expiry)

	var strikes []float64
	byStrike := make(map[float64]float64)
	for _, r := range rows {
		rowCall, err := IsCall(r.Type)
		if err != nil || rowCall != isCall || !r.Expiry.Equal(expDay) || !r.Date.Equal(day) {
			continue
		}
		strikes = append(strikes, r.Strike)
		byStrike[r.Strike] = r.Close
	}
	sort.Float64s(strikes)

	// listed strikes are rounded, so accept anything within a hundredth of a cent
	nearest := Closest(strikes, strike)
	if math.IsNaN(nearest) || math.Abs(nearest-strike) > 1e-4 {
		return 0, fmt.Errorf("%s on %s: %w", symbol, day.Format(csvDateLayout), ErrNoData)
	}
	return byStrike[nearest], nil
}

func (p *csvProvider) load(name string, out any) error {
	path := filepath.Join(p.dir, name)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, ErrNoData)
	}
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// WriteBarsCSV writes bars in the layout NewCSVProvider reads.
func WriteBarsCSV(path string, bars []Bar) error {
	rows := make([]*barRow, len(bars))
	for i, b := range bars {
		rows[i] = &barRow{Date: csvDate{truncateDay(b.Date)}, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Vol}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gocsv.MarshalFile(&rows, f)
}
