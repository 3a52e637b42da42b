// Package chain evaluates batches of option quotes. Each quote is priced from
// a volatility or solved for implied volatility from a price, then every
// Greek is computed. Quotes are independent and run concurrently.
package chain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/contactkeval/option-greeks/internal/logger"
	"github.com/contactkeval/option-greeks/internal/pricing"
)

// DefaultWorkers is used when Evaluate is given a non-positive worker count.
const DefaultWorkers = 8

// ErrInvalidQuote wraps every quote validation failure.
var ErrInvalidQuote = errors.New("invalid quote")

// Quote is one row of a chain. Exactly one of Vol and Price must be positive:
// Vol prices the option, Price is solved for implied volatility.
type Quote struct {
	ID       string  `csv:"id"       json:"id,omitempty"`
	Type     string  `csv:"type"     json:"type"     validate:"required,oneof=call put"`
	Spot     float64 `csv:"spot"     json:"spot"     validate:"finite,gt=0"`
	Strike   float64 `csv:"strike"   json:"strike"   validate:"finite,gt=0"`
	Rate     float64 `csv:"rate"     json:"rate"     validate:"finite,gte=-1,lte=1"`
	Dividend float64 `csv:"dividend" json:"dividend" validate:"finite,gte=-1,lte=1"`
	Years    float64 `csv:"years"    json:"years"    validate:"finite,gt=0"`
	Vol      float64 `csv:"vol"      json:"vol,omitempty"      validate:"finite,gte=0"`
	Price    float64 `csv:"price"    json:"price,omitempty"    validate:"finite,gte=0"`
}

// Result is an evaluated quote. When Solved is false the price could not be
// inverted; Error says why and the numeric fields are NaN.
type Result struct {
	Quote
	Solved      bool
	Error       string
	ImpliedVol  float64
	OptionPrice float64
	Greeks      pricing.Greeks
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// gt/gte accept +Inf, which the JSON encoder later refuses.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsInf(f, 0) && !math.IsNaN(f)
	})
	return v
}

// Validate checks q's fields.
func (q Quote) Validate() error {
	q.Type = strings.ToLower(strings.TrimSpace(q.Type))
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuote, err)
	}
	if (q.Vol > 0) == (q.Price > 0) {
		return fmt.Errorf("%w: exactly one of vol and price must be set", ErrInvalidQuote)
	}
	return nil
}

// IsCall reports whether q is a call.
func (q Quote) IsCall() bool {
	return strings.EqualFold(strings.TrimSpace(q.Type), "call")
}

// EvaluateOne prices a single quote. The quote is assumed valid.
func EvaluateOne(q Quote) Result {
	in := pricing.NewOptionInputs(q.IsCall(), q.Spot, q.Strike, q.Rate, q.Dividend, q.Years)
	res := Result{Quote: q, Solved: true}

	if q.Vol > 0 {
		in.WithImpliedVol(q.Vol)
	} else if err := in.TryWithPrice(q.Price); err != nil {
		res.Solved = false
		res.Error = err.Error()
		logger.WithFields(logrus.Fields{
			"id":     q.ID,
			"type":   q.Type,
			"strike": q.Strike,
			"price":  q.Price,
		}).Debugf("implied vol not solved: %v", err)
	}

	res.ImpliedVol = in.ImpliedVol()
	res.OptionPrice = in.Price()
	res.Greeks = in.AllGreeks()
	return res
}

// Evaluate validates every quote, then evaluates them on up to workers
// goroutines. Results keep the order of quotes. A quote whose price cannot be
// inverted is reported in its Result, not as an error.
func Evaluate(ctx context.Context, quotes []Quote, workers int) ([]Result, error) {
	for i, q := range quotes {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]Result, len(quotes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range quotes {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = EvaluateOne(quotes[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debugf("evaluated %d quotes on %d workers", len(quotes), workers)
	return results, nil
}

// ReadQuotes decodes CSV quotes with a header row.
func ReadQuotes(r io.Reader) ([]Quote, error) {
	var rows []*Quote
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("read quotes: %w", err)
	}

	quotes := make([]Quote, len(rows))
	for i, row := range rows {
		quotes[i] = *row
	}
	return quotes, nil
}
