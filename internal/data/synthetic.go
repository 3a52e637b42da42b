package data

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/contactkeval/option-greeks/internal/pricing"
)

// synthDataProvider generates deterministic random-walk bars and prices
// options off them with a flat volatility.
type synthDataProvider struct {
	vol      float64
	rate     float64
	dividend float64
	seed     int64
}

// NewSyntheticProvider returns a provider whose bars follow a geometric random
// walk with the given annual volatility. The same seed and ticker always
// produce the same series.
func NewSyntheticProvider(vol, rate, dividend float64, seed int64) Provider {
	return &synthDataProvider{vol: vol, rate: rate, dividend: dividend, seed: seed}
}

// epoch anchors the walk so overlapping date ranges agree.
var epoch = time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC)

func (p *synthDataProvider) rng(ticker string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(ticker)))
	return rand.New(rand.NewSource(p.seed ^ int64(h.Sum64())))
}

func (p *synthDataProvider) GetBars(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	if from.Before(epoch) {
		return nil, fmt.Errorf("synthetic bars start at %s", epoch.Format("2006-01-02"))
	}

	r := p.rng(ticker)
	dailyVol := p.vol / math.Sqrt(252)
	price := 50.0 + float64(r.Intn(200))

	start, end := truncateDay(from), truncateDay(to)
	var out []Bar
	for cur := epoch; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		if cur.Weekday() == time.Saturday || cur.Weekday() == time.Sunday {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		open := price
		close := open * math.Exp(r.NormFloat64()*dailyVol-dailyVol*dailyVol/2)
		high := math.Max(open, close) * (1 + math.Abs(r.NormFloat64())*dailyVol/4)
		low := math.Min(open, close) * (1 - math.Abs(r.NormFloat64())*dailyVol/4)
		volume := float64(1000 + r.Intn(5000))
		price = close

		if cur.Before(start) {
			continue
		}
		out = append(out, Bar{Date: cur, Open: open, High: high, Low: low, Close: close, Vol: volume})
	}
	return out, nil
}

func (p *synthDataProvider) GetOptionPrice(ctx context.Context, underlying string, strike float64, expiry time.Time, optType string, asOf time.Time) (float64, error) {
	isCall, err := IsCall(optType)
	if err != nil {
		return 0, err
	}

	years := pricing.YearsBetween(asOf, expiry)
	if years <= 0 {
		return 0, fmt.Errorf("option %s expired as of %s: %w",
			OptionSymbolFromParts(underlying, expiry, optType, strike), asOf.Format("2006-01-02"), ErrNoData)
	}

	bar, err := SpotAsOf(ctx, p, underlying, asOf)
	if err != nil {
		return 0, err
	}

	in := pricing.NewOptionInputs(isCall, bar.Close, strike, p.rate, p.dividend, years)
	return in.CalculateOptionPrice(p.vol), nil
}
