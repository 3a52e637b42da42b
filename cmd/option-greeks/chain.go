package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contactkeval/option-greeks/internal/chain"
	"github.com/contactkeval/option-greeks/internal/logger"
	"github.com/contactkeval/option-greeks/internal/report"
)

func (a *app) chainCmd() *cobra.Command {
	var (
		in, out string
		quiet   bool
	)
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Evaluate a CSV file of quotes and write JSON and CSV reports",
		Long: `Each row of --in needs id,type,spot,strike,rate,dividend,years and
exactly one of vol (to price) or price (to solve implied volatility).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(in)
			if err != nil {
				return err
			}
			defer f.Close()

			quotes, err := chain.ReadQuotes(f)
			if err != nil {
				return err
			}

			results, err := chain.Evaluate(cmd.Context(), quotes, a.cfg.Pricing.Workers)
			if err != nil {
				return err
			}

			if out == "" {
				out = a.cfg.Report.Dir
			}
			jsonPath, err := report.WriteJSON(results, out)
			if err != nil {
				return err
			}
			csvPath, err := report.WriteCSV(results, out)
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if !r.Solved {
					failed++
				}
			}
			logger.Infof("evaluated %d quotes (%d unsolved), wrote %s and %s", len(results), failed, jsonPath, csvPath)

			if !quiet {
				report.WriteTable(cmd.OutOrStdout(), results)
			}
			if failed > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d quotes could not be solved\n", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input CSV of quotes")
	cmd.Flags().StringVar(&out, "out", "", "report directory (default from config)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the table")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
