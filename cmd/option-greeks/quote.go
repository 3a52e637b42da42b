package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/contactkeval/option-greeks/internal/chain"
	"github.com/contactkeval/option-greeks/internal/data"
	"github.com/contactkeval/option-greeks/internal/logger"
	"github.com/contactkeval/option-greeks/internal/pricing"
	"github.com/contactkeval/option-greeks/internal/volatility"
)

func (a *app) quoteCmd() *cobra.Command {
	var (
		underlying, optType string
		expiry, asOf        string
		strike              float64
		histVol, asJSON     bool
		lookback            int
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Fetch spot and option prices from the data provider and compute Greeks",
		Long: `quote looks up the underlying close and the option's traded price as of
--as-of, solves implied volatility and prints the Greeks. With --hist-vol the
option is instead priced from the annualized historical volatility of the
underlying over --lookback calendar days.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prov, err := a.provider()
			if err != nil {
				return err
			}

			exp, err := time.Parse(dateLayout, expiry)
			if err != nil {
				return fmt.Errorf("parse --expiry: %w", err)
			}
			at, err := parseWhen(asOf, time.Now())
			if err != nil {
				return err
			}

			spot, err := data.SpotAsOf(ctx, prov, underlying, at)
			if err != nil {
				return fmt.Errorf("spot for %s: %w", underlying, err)
			}

			q := chain.Quote{
				ID:       data.OptionSymbolFromParts(underlying, exp, optType, strike),
				Type:     optType,
				Spot:     spot.Close,
				Strike:   strike,
				Rate:     a.cfg.Pricing.Rate,
				Dividend: a.cfg.Pricing.Dividend,
				Years:    pricing.YearsBetween(at, exp),
			}

			if histVol {
				bars, err := prov.GetBars(ctx, underlying, at.AddDate(0, 0, -lookback), at)
				if err != nil {
					return fmt.Errorf("history for %s: %w", underlying, err)
				}
				q.Vol = volatility.Annualized(data.Closes(bars), volatility.TradingDaysPerYear)
				logger.Infof("hist vol = %.2f%% over %d bars", q.Vol*100, len(bars))
			} else {
				q.Price, err = prov.GetOptionPrice(ctx, underlying, strike, exp, optType, at)
				if err != nil {
					return fmt.Errorf("option price for %s: %w", q.ID, err)
				}
			}

			logger.WithFields(logrus.Fields{
				"symbol": q.ID,
				"spot":   q.Spot,
				"years":  q.Years,
			}).Debugf("quote inputs")
			return a.runSingle(cmd, q, asJSON)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&underlying, "underlying", "", "underlying ticker, e.g. SPY")
	fl.StringVar(&optType, "type", "call", "call or put")
	fl.Float64Var(&strike, "strike", 0, "strike price")
	fl.StringVar(&expiry, "expiry", "", "expiry date YYYY-MM-DD")
	fl.StringVar(&asOf, "as-of", "", "valuation date YYYY-MM-DD or RFC3339 time (default now)")
	fl.BoolVar(&histVol, "hist-vol", false, "price from historical volatility instead of the market price")
	fl.IntVar(&lookback, "lookback", 90, "calendar days of history for --hist-vol")
	fl.BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	for _, name := range []string{"underlying", "strike", "expiry"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
