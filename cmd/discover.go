package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	discoverIndicators []string
	discoverMaxPer     int
	discoverSourceHint string
	discoverBundle     bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover <topic>",
	Short: "Search the web for strategy research and extract normalized rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		spinner := getSpinner(fmt.Sprintf("Discovering %q strategies...", args[0]))
		report, err := a.pipeline.Discover(cmd.Context(), args[0], discoverIndicators, discoverMaxPer, discoverSourceHint,
			func(stage, detail string) {
				spinner.Add(1)
			})
		spinner.Finish()
		fmt.Println()
		if err != nil {
			return err
		}

		color.Blue("Queries: %d  Candidate URLs: %d  Documents: %d  Rule candidates: %d",
			report.Queries, report.CandidateURLs, report.Documents, report.Candidates)
		if report.DroppedSpans > 0 {
			color.Yellow("Dropped %d unverifiable evidence spans", report.DroppedSpans)
		}
		if len(report.Skipped) > 0 {
			reasons := make([]string, 0, len(report.Skipped))
			for reason := range report.Skipped {
				reasons = append(reasons, reason)
			}
			sort.Strings(reasons)
			for _, reason := range reasons {
				color.Yellow("Skipped %d: %s", report.Skipped[reason], reason)
			}
		}

		if len(report.StrategyURIs) == 0 {
			color.Red("No strategies extracted")
			return nil
		}
		color.Green("Extracted %d strategies:", len(report.StrategyURIs))
		for _, uri := range report.StrategyURIs {
			fmt.Println("  " + uri)
		}

		if discoverBundle {
			bundle, uri, err := a.store.BundleResults(report.StrategyURIs)
			if err != nil {
				return err
			}
			color.Green("Bundle %s -> %s", bundle.ID, uri)
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringSliceVarP(&discoverIndicators, "indicators", "i", nil, "Indicator hints (e.g. RSI,MACD)")
	discoverCmd.Flags().IntVar(&discoverMaxPer, "max-per-indicator", 2, "Query templates per indicator")
	discoverCmd.Flags().StringVar(&discoverSourceHint, "source-hint", "", "Restrict search to a site (e.g. arxiv.org)")
	discoverCmd.Flags().BoolVar(&discoverBundle, "bundle", false, "Write a results bundle referencing the extracted strategies")
	rootCmd.AddCommand(discoverCmd)
}
