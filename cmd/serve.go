package main

import (
	"github.com/spf13/cobra"

	"github.com/taforge/taforge/pkg/llm"
	"github.com/taforge/taforge/pkg/store"
	"github.com/taforge/taforge/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the discovery pipeline over a WebSocket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		var index *store.Index
		if a.config.Database.URL != "" {
			embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
				BaseURL: a.config.LLM.BaseURL,
			})
			if err != nil {
				return err
			}
			index, err = store.NewIndex(cmd.Context(), a.config.DatabaseConfig(), embedder)
			if err != nil {
				return err
			}
			defer index.Close()
		}

		return server.NewWSServer(a.pipeline, index, a.log).Start(serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
