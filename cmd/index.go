package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/pkg/llm"
	"github.com/taforge/taforge/pkg/store"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the similarity index from stored strategies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		if a.config.Database.URL == "" {
			return fmt.Errorf("indexing requires database.url or DATABASE_URL")
		}

		embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
			BaseURL: a.config.LLM.BaseURL,
		})
		if err != nil {
			return err
		}

		ix, err := store.NewIndex(cmd.Context(), a.config.DatabaseConfig(), embedder)
		if err != nil {
			return err
		}
		defer ix.Close()

		strategies, err := a.store.ListStrategies()
		if err != nil {
			return err
		}
		if len(strategies) == 0 {
			color.Yellow("Nothing to index")
			return nil
		}

		bar := getProgressBar(len(strategies), "Indexing strategies")
		for _, s := range strategies {
			if err := ix.Upsert(cmd.Context(), []models.Strategy{s}); err != nil {
				return err
			}
			bar.Add(1)
		}
		bar.Finish()
		fmt.Println()
		color.Green("Indexed %d strategies", len(strategies))
		return nil
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar <query>",
	Short: "Find stored strategies whose rules match a free-text question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		if a.config.Database.URL == "" {
			return fmt.Errorf("similarity search requires database.url or DATABASE_URL")
		}

		embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
			BaseURL: a.config.LLM.BaseURL,
		})
		if err != nil {
			return err
		}

		ix, err := store.NewIndex(cmd.Context(), a.config.DatabaseConfig(), embedder)
		if err != nil {
			return err
		}
		defer ix.Close()

		strategies, err := ix.Similar(cmd.Context(), args[0], 0)
		if err != nil {
			return err
		}
		for _, s := range strategies {
			color.Green("%s  (confidence %.2f)", s.Name, s.Confidence)
			for _, rule := range s.EntryRules {
				fmt.Println("  entry: " + rule)
			}
			for _, rule := range s.ExitRules {
				fmt.Println("  exit:  " + rule)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd, similarCmd)
}
