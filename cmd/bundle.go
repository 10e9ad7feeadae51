package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taforge/taforge/internal/models"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Manage results bundles",
}

var bundleCreateCmd = &cobra.Command{
	Use:   "create <strategy-uri>...",
	Short: "Create a results bundle referencing normalized strategies",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		bundle, uri, err := a.store.BundleResults(args)
		if err != nil {
			return err
		}
		color.Green("Bundle %s -> %s", bundle.ID, uri)
		return nil
	},
}

var bundleShowCmd = &cobra.Command{
	Use:   "show <bundle-id>",
	Short: "Print a results bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		bundle, err := a.store.ReadBundle(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(bundle)
	},
}

var evalFlags models.Evaluation

var bundleEvalCmd = &cobra.Command{
	Use:   "eval <bundle-id> <signature>",
	Short: "Attach a backtest evaluation to a bundled strategy",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		bundle, err := a.store.AttachEvaluation(args[0], args[1], evalFlags)
		if err != nil {
			return err
		}
		color.Green("Bundle %s now carries %d evaluations", bundle.ID, len(bundle.Evaluations))
		return nil
	},
}

var bundleListCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List all normalized strategies in the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		strategies, err := a.store.ListStrategies()
		if err != nil {
			return err
		}
		for _, s := range strategies {
			fmt.Printf("%s  %-40s  confidence=%.2f\n", s.Signature[:12], s.Name, s.Confidence)
		}
		return nil
	},
}

func init() {
	bundleEvalCmd.Flags().Float64Var(&evalFlags.Sharpe, "sharpe", 0, "Sharpe ratio")
	bundleEvalCmd.Flags().Float64Var(&evalFlags.CAGR, "cagr", 0, "Compound annual growth rate")
	bundleEvalCmd.Flags().Float64Var(&evalFlags.MaxDrawdown, "max-drawdown", 0, "Maximum drawdown")
	bundleEvalCmd.Flags().Float64Var(&evalFlags.TailRisk, "tail-risk", 0, "Tail risk")
	bundleEvalCmd.Flags().Float64Var(&evalFlags.HitRate, "hit-rate", 0, "Hit rate")
	bundleEvalCmd.Flags().Float64Var(&evalFlags.Exposure, "exposure", 0, "Market exposure")

	bundleCmd.AddCommand(bundleCreateCmd, bundleShowCmd, bundleEvalCmd, bundleListCmd)
	rootCmd.AddCommand(bundleCmd)
}
