package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taforge/taforge/internal/models"
)

var extractIndicators []string

var extractCmd = &cobra.Command{
	Use:   "extract <url-or-file>",
	Short: "Extract rules from a single document and store the normalized strategy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		target := args[0]
		var doc models.Document
		if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
			doc, err = a.fetcher.Fetch(cmd.Context(), target)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", target, err)
			}
		} else {
			var data []byte
			if target == "-" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(target)
			}
			if err != nil {
				return err
			}
			text := string(data)
			uri, fingerprint, err := a.store.WriteRaw(text)
			if err != nil {
				return err
			}
			a.log.Debug().Str("uri", uri).Msg("raw text stored")
			source := "file://" + target
			if target == "-" {
				source = "stdin://"
			}
			doc = models.Document{
				URL:         source,
				ContentType: "text",
				Text:        text,
				Fingerprint: fingerprint,
				FetchedAt:   time.Now(),
			}
		}

		uri, err := a.pipeline.ProcessDocument(cmd.Context(), doc, extractIndicators)
		if err != nil {
			return err
		}
		if uri == "" {
			color.Red("No rule candidates found in %s", target)
			return nil
		}
		color.Green("Strategy stored: %s", uri)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringSliceVarP(&extractIndicators, "indicators", "i", nil, "Indicator hints (e.g. RSI,MACD)")
	rootCmd.AddCommand(extractCmd)
}
