package data

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// ErrNoData is returned when a provider has nothing for the request. Providers
// with a secondary fall back on it.
var ErrNoData = errors.New("no market data")

type DateMatchType string

// Provider supplies market data.
type Provider interface {
	// GetBars returns daily bars for ticker in [from, to], oldest first.
	GetBars(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error)
	// GetOptionPrice returns the option's traded price as of asOf.
	GetOptionPrice(ctx context.Context, underlying string, strike float64, expiry time.Time, optType string, asOf time.Time) (float64, error)
}

const (
	MatchExact   DateMatchType = "exact"   // must match exactly
	MatchHigher  DateMatchType = "higher"  // next available date after target
	MatchLower   DateMatchType = "lower"   // last available date before target
	MatchNearest DateMatchType = "nearest" // closest available date (default)
)

// Bar simplified OHLC
type Bar struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
	Vol   float64
	Count int64
}

// Closes extracts the closing prices of bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// IsCall reports whether optType names a call ("call", "c"). Anything
// else that is "put" or "p" is a put; other values are rejected.
func IsCall(optType string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(optType)) {
	case "call", "c":
		return true, nil
	case "put", "p":
		return false, nil
	default:
		return false, fmt.Errorf("unknown option type %q", optType)
	}
}

// SpotAsOf returns the close of the last bar on or before asOf.
func SpotAsOf(ctx context.Context, prov Provider, ticker string, asOf time.Time) (Bar, error) {
	bars, err := prov.GetBars(ctx, ticker, asOf.AddDate(0, 0, -10), asOf)
	if err != nil {
		return Bar{}, err
	}

	dates := make([]time.Time, len(bars))
	byDate := make(map[time.Time]Bar, len(bars))
	for i, b := range bars {
		day := truncateDay(b.Date)
		dates[i] = day
		byDate[day] = b
	}

	day := truncateDay(asOf)
	match := MatchBarDate(day, dates, MatchExact)
	if match.IsZero() {
		match = MatchBarDate(day, dates, MatchLower)
	}
	if match.IsZero() {
		return Bar{}, fmt.Errorf("%s on %s: %w", ticker, asOf.Format("2006-01-02"), ErrNoData)
	}
	return byDate[match], nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --------------------------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------------------------

// OptionSymbolFromParts formats an OCC option ticker with the O: prefix:
// <root><YYMMDD><C|P><strike*1000 padded to 8 digits>.
func OptionSymbolFromParts(underlying string, expiryDate time.Time, optionType string, strike float64) string {
	expDt := expiryDate.UTC().Format("060102")
	optType := "C"
	if strings.ToLower(optionType) == "put" || strings.ToLower(optionType) == "p" {
		optType = "P"
	}
	strikeInt := int(math.Round(strike * 1000))
	return fmt.Sprintf("O:%s%s%s%08d", strings.ToUpper(underlying), expDt, optType, strikeInt)
}

// MatchBarDate picks a date from dates relative to d according to mode.
// It returns the zero time when nothing matches. dates is sorted in place.
func MatchBarDate(d time.Time, dates []time.Time, mode DateMatchType) time.Time {
	var (
		exact  time.Time
		lower  time.Time
		higher time.Time
	)

	switch mode {
	case MatchExact, MatchHigher, MatchLower, MatchNearest:
	default:
		mode = MatchNearest
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	for _, dt := range dates {
		if dt.Equal(d) {
			exact = dt
		}
		if dt.Before(d) {
			lower = dt // keeps the last one before d
		}
		if dt.After(d) && higher.IsZero() {
			higher = dt
		}
	}

	switch mode {
	case MatchExact:
		return exact
	case MatchLower:
		return lower
	case MatchHigher:
		return higher
	case MatchNearest:
		if !exact.IsZero() {
			return exact
		}
		switch {
		case !lower.IsZero() && !higher.IsZero():
			if d.Sub(lower) <= higher.Sub(d) {
				return lower
			}
			return higher
		case !lower.IsZero():
			return lower
		case !higher.IsZero():
			return higher
		}
	}

	return time.Time{}
}

// Closest finds the value in the sorted slice nearest to target. Ties go to
// the larger value. It returns NaN for an empty slice.
func Closest(numList []float64, target float64) float64 {
	n := len(numList)
	if n == 0 {
		return math.NaN()
	}

	i := sort.Search(n, func(i int) bool {
		return numList[i] >= target
	})

	if i == 0 {
		return numList[0]
	}
	if i == n {
		return numList[n-1]
	}

	before := numList[i-1]
	after := numList[i]

	if math.Abs(before-target) < math.Abs(after-target) {
		return before
	}
	return after
}
