// Command option-greeks prices European options, solves implied volatility
// and reports every Black-Scholes-Merton sensitivity, from the command line,
// from CSV chains, from market data or over HTTP.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/contactkeval/option-greeks/internal/config"
	"github.com/contactkeval/option-greeks/internal/data"
	"github.com/contactkeval/option-greeks/internal/logger"
)

const dateLayout = "2006-01-02"

// app carries state shared by every subcommand.
type app struct {
	configFile string
	verbosity  int
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "option-greeks",
		Short:         "Black-Scholes-Merton pricing, implied volatility and Greeks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "path to a YAML config file")
	root.PersistentFlags().IntVarP(&a.verbosity, "verbosity", "v", int(logger.Info), "log verbosity: 0 error, 1 info, 2 debug, 3 trace")

	root.AddCommand(
		a.priceCmd(),
		a.ivCmd(),
		a.strikeCmd(),
		a.chainCmd(),
		a.quoteCmd(),
		a.serveCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("verbosity") {
		cfg.Verbosity = a.verbosity
	}
	a.cfg = cfg

	logger.SetVerbosity(cfg.Verbosity)
	return logger.EnableFile(logger.FileConfig{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
}

// provider builds the configured market data provider.
func (a *app) provider() (data.Provider, error) {
	d := a.cfg.Data
	synthetic := data.NewSyntheticProvider(d.SyntheticVol, a.cfg.Pricing.Rate, a.cfg.Pricing.Dividend, d.Seed)

	switch d.Provider {
	case "synthetic":
		logger.Infof("synthetic provider enabled")
		return synthetic, nil
	case "polygon":
		logger.Infof("polygon provider enabled")
		return data.NewPolygonProvider(d.PolygonAPIKey), nil
	case "csv":
		var secondary data.Provider
		switch d.Secondary {
		case "synthetic":
			secondary = synthetic
		case "polygon":
			if d.PolygonAPIKey == "" {
				return nil, fmt.Errorf("polygon secondary needs an API key")
			}
			secondary = data.NewPolygonProvider(d.PolygonAPIKey)
		}
		logger.Infof("csv provider enabled on %s", d.CSVDir)
		return data.NewCSVProvider(d.CSVDir, secondary), nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", d.Provider)
	}
}

// parseWhen reads an --as-of value: a date, an RFC3339 time, or now when empty.
func parseWhen(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --as-of %q: want YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
