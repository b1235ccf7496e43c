// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	ingestDate string
	stageDate  string
)

func init() {
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "Export day as YYYY-MM-DD (default: today, UTC)")
	stageCmd.Flags().StringVar(&stageDate, "date", "", "Export day as YYYY-MM-DD (default: today, UTC)")
	rootCmd.AddCommand(ingestCmd, stageCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [--date YYYY-MM-DD]",
	Short: "Appends one day's export from the staging bucket to the raw table.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		date, err := dateFlag(ingestDate)
		if err != nil {
			return err
		}
		p, err := state.pipeline(cmd.Context(), false)
		if err != nil {
			return err
		}
		stats, err := p.Ingest(cmd.Context(), date)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if stats.NoData {
			fmt.Fprintf(out, "No export for %s (%s), nothing written\n", stats.Date, stats.Key)
			return nil
		}
		fmt.Fprintf(out, "Ingested %d records for %s into %s (version %d, %d columns)\n",
			stats.Records, stats.Date, state.cfg.Lake.RawPath, stats.Version, stats.Columns)
		return nil
	},
}

var stageCmd = &cobra.Command{
	Use:   "stage <file> [--date YYYY-MM-DD]",
	Short: "Uploads a local NDJSON export to the staging bucket.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := dateFlag(stageDate)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read export: %w", err)
		}
		p, err := state.pipeline(cmd.Context(), false)
		if err != nil {
			return err
		}
		key, err := p.Stage(cmd.Context(), date, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Staged %s as %s/%s\n", args[0], state.cfg.Blob.Bucket, key)
		return nil
	},
}
