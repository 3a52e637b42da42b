package main

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/contactkeval/option-greeks/internal/chain"
	"github.com/contactkeval/option-greeks/internal/pricing"
	"github.com/contactkeval/option-greeks/internal/report"
)

// contractFlags are the option terms shared by price and iv.
type contractFlags struct {
	optType  string
	spot     float64
	strike   float64
	rate     float64
	dividend float64
	years    float64
	expiry   string
	asOf     string
	asJSON   bool
}

func (f *contractFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.optType, "type", "call", "call or put")
	fl.Float64Var(&f.spot, "spot", 0, "spot price of the underlying")
	fl.Float64Var(&f.strike, "strike", 0, "strike price")
	fl.Float64Var(&f.rate, "rate", 0, "risk-free rate (default from config)")
	fl.Float64Var(&f.dividend, "dividend", 0, "continuous dividend yield (default from config)")
	fl.Float64Var(&f.years, "years", 0, "time to maturity in years")
	fl.StringVar(&f.expiry, "expiry", "", "expiry date YYYY-MM-DD, instead of --years")
	fl.StringVar(&f.asOf, "as-of", "", "valuation date YYYY-MM-DD or RFC3339 time for --expiry (default now)")
	fl.BoolVar(&f.asJSON, "json", false, "print JSON instead of a table")

	_ = cmd.MarkFlagRequired("spot")
	_ = cmd.MarkFlagRequired("strike")
	cmd.MarkFlagsMutuallyExclusive("years", "expiry")
}

func (f *contractFlags) quote(cmd *cobra.Command, a *app) (chain.Quote, error) {
	q := chain.Quote{
		Type:     f.optType,
		Spot:     f.spot,
		Strike:   f.strike,
		Rate:     a.cfg.Pricing.Rate,
		Dividend: a.cfg.Pricing.Dividend,
		Years:    f.years,
	}
	if cmd.Flags().Changed("rate") {
		q.Rate = f.rate
	}
	if cmd.Flags().Changed("dividend") {
		q.Dividend = f.dividend
	}

	if f.expiry != "" {
		years, err := yearsToExpiry(f.expiry, f.asOf, time.Now())
		if err != nil {
			return chain.Quote{}, err
		}
		q.Years = years
	}
	return q, nil
}

func yearsToExpiry(expiry, asOf string, now time.Time) (float64, error) {
	exp, err := time.Parse(dateLayout, expiry)
	if err != nil {
		return 0, fmt.Errorf("parse --expiry: %w", err)
	}

	from, err := parseWhen(asOf, now)
	if err != nil {
		return 0, err
	}
	return pricing.YearsBetween(from, exp), nil
}

func printResults(w io.Writer, results []chain.Result, asJSON bool) error {
	if asJSON {
		return report.EncodeJSON(w, results)
	}
	report.WriteTable(w, results)
	return nil
}

func (a *app) runSingle(cmd *cobra.Command, q chain.Quote, asJSON bool) error {
	if err := q.Validate(); err != nil {
		return err
	}
	res := chain.EvaluateOne(q)
	if err := printResults(cmd.OutOrStdout(), []chain.Result{res}, asJSON); err != nil {
		return err
	}
	if !res.Solved {
		return fmt.Errorf("implied volatility: %s", res.Error)
	}
	return nil
}

func (a *app) priceCmd() *cobra.Command {
	var (
		f   contractFlags
		vol float64
	)
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price an option from a volatility and print its Greeks",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := f.quote(cmd, a)
			if err != nil {
				return err
			}
			q.Vol = vol
			return a.runSingle(cmd, q, f.asJSON)
		},
	}
	f.register(cmd)
	cmd.Flags().Float64Var(&vol, "vol", 0, "annualized volatility, e.g. 0.2")
	_ = cmd.MarkFlagRequired("vol")
	return cmd
}

func (a *app) ivCmd() *cobra.Command {
	var (
		f     contractFlags
		price float64
	)
	cmd := &cobra.Command{
		Use:   "iv",
		Short: "Solve implied volatility from an option price and print its Greeks",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := f.quote(cmd, a)
			if err != nil {
				return err
			}
			q.Price = price
			return a.runSingle(cmd, q, f.asJSON)
		},
	}
	f.register(cmd)
	cmd.Flags().Float64Var(&price, "price", 0, "option price")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func (a *app) strikeCmd() *cobra.Command {
	var (
		optType     string
		spot, delta float64
		vol, years  float64
		rate, div   float64
	)
	cmd := &cobra.Command{
		Use:   "strike",
		Short: "Find the strike with a given delta",
		RunE: func(cmd *cobra.Command, args []string) error {
			isCall := optType == "call"
			if !isCall && optType != "put" {
				return fmt.Errorf("unknown option type %q", optType)
			}
			if !cmd.Flags().Changed("rate") {
				rate = a.cfg.Pricing.Rate
			}
			if !cmd.Flags().Changed("dividend") {
				div = a.cfg.Pricing.Dividend
			}

			k := pricing.StrikeFromDelta(spot, delta, rate, div, vol, years, isCall)
			if math.IsNaN(k) {
				return fmt.Errorf("delta %g is not reachable for a %s", delta, optType)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f\n", k)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&optType, "type", "call", "call or put")
	fl.Float64Var(&spot, "spot", 0, "spot price of the underlying")
	fl.Float64Var(&delta, "delta", 0, "target delta, negative for puts")
	fl.Float64Var(&vol, "vol", 0, "annualized volatility")
	fl.Float64Var(&years, "years", 0, "time to maturity in years")
	fl.Float64Var(&rate, "rate", 0, "risk-free rate (default from config)")
	fl.Float64Var(&div, "dividend", 0, "continuous dividend yield (default from config)")
	for _, name := range []string{"spot", "delta", "vol", "years"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
