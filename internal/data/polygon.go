package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/contactkeval/option-greeks/internal/logger"
)

// polygonDataProvider implements Provider on the Polygon.io aggregates API.
type polygonDataProvider struct {
	client *polygon.Client
}

// NewPolygonProvider returns a Polygon.io backed provider.
func NewPolygonProvider(apiKey string) Provider {
	return &polygonDataProvider{client: polygon.New(apiKey)}
}

func aggsParams(ticker string, from, to time.Time, multiplier int, timespan models.Timespan) *models.ListAggsParams {
	return models.ListAggsParams{
		Ticker:     strings.ToUpper(ticker),
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}.WithOrder(models.Asc).WithAdjusted(true)
}

func barFromAgg(a models.Agg) Bar {
	return Bar{
		Date:  time.Time(a.Timestamp).UTC(),
		Open:  a.Open,
		High:  a.High,
		Low:   a.Low,
		Close: a.Close,
		Vol:   a.Volume,
		Count: a.Transactions,
	}
}

func (p *polygonDataProvider) aggs(ctx context.Context, ticker string, from, to time.Time, multiplier int, timespan models.Timespan) ([]Bar, error) {
	logger.Tracef("polygon aggs %s %d/%s %s..%s", ticker, multiplier, timespan,
		from.Format(time.RFC3339), to.Format(time.RFC3339))

	iter := p.client.ListAggs(ctx, aggsParams(ticker, from, to, multiplier, timespan))

	var out []Bar
	for iter.Next() {
		out = append(out, barFromAgg(iter.Item()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("polygon aggs %s: %w", ticker, err)
	}
	return out, nil
}

func (p *polygonDataProvider) GetBars(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	return p.aggs(ctx, ticker, from, to, 1, models.Day)
}

// GetOptionPrice returns the last minute close at or before asOf, or failing
// that the first minute open in the five minutes after it.
func (p *polygonDataProvider) GetOptionPrice(ctx context.Context, underlying string, strike float64, expiry time.Time, optType string, asOf time.Time) (float64, error) {
	if _, err := IsCall(optType); err != nil {
		return 0, err
	}

	symbol := OptionSymbolFromParts(underlying, expiry, optType, strike)
	logger.Debugf("option price lookup: %s at %s", symbol, asOf.Format(time.RFC3339))

	bars, err := p.aggs(ctx, symbol, asOf.Add(-5*time.Minute), asOf, 1, models.Minute)
	if err != nil {
		return 0, fmt.Errorf("fetch option bars: %w", err)
	}
	if len(bars) != 0 {
		return bars[len(bars)-1].Close, nil
	}

	logger.Tracef("no bars before %s, trying forward window", asOf.Format(time.RFC3339))
	bars, err = p.aggs(ctx, symbol, asOf, asOf.Add(5*time.Minute), 1, models.Minute)
	if err != nil {
		return 0, fmt.Errorf("fetch option bars: %w", err)
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("%s on %s: %w", symbol, asOf.Format("2006-01-02 15:04"), ErrNoData)
	}
	return bars[0].Open, nil
}
