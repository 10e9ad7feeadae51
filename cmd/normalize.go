package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/pkg/dedup"
	"github.com/taforge/taforge/pkg/normalizer"
)

var (
	normalizeName      string
	normalizeUniverse  []string
	normalizeTimeframe string
	normalizeSource    string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <candidates.json>",
	Short: "Deduplicate and normalize rule candidates into a stored strategy record",
	Long: `Reads a JSON array of rule candidates (as produced by the extractor),
deduplicates them, normalizes the result into a strategy.v1 record and stores
it under its signature. Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		var data []byte
		if args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}

		var candidates []models.RuleCandidate
		if err := json.Unmarshal(data, &candidates); err != nil {
			return err
		}

		merged := dedup.NewWithConfig(a.config.DedupConfig(), a.registry).Dedupe(candidates)
		s, uri, err := a.normalizer.Normalize(normalizer.Input{
			Name:       normalizeName,
			Universe:   normalizeUniverse,
			Timeframe:  normalizeTimeframe,
			Candidates: merged,
			SourceURL:  normalizeSource,
		})
		if err != nil {
			return err
		}

		color.Green("Strategy %s (confidence %.2f) stored: %s", s.Name, s.Confidence, uri)
		return nil
	},
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeName, "name", "", "Strategy name (derived from indicators when empty)")
	normalizeCmd.Flags().StringSliceVar(&normalizeUniverse, "universe", nil, "Instruments (default BTCUSDT)")
	normalizeCmd.Flags().StringVar(&normalizeTimeframe, "timeframe", "", "Bar timeframe (default 1h)")
	normalizeCmd.Flags().StringVar(&normalizeSource, "source", "", "Source URL for the records")
	rootCmd.AddCommand(normalizeCmd)
}
