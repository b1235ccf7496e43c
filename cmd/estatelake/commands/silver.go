// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/estatelake/internal/silver"
	"github.com/tomtom215/estatelake/internal/warehouse"
)

var (
	runDate  string
	runMerge bool
)

func init() {
	runCmd.Flags().StringVar(&runDate, "date", "", "Export day as YYYY-MM-DD (default: today, UTC)")
	runCmd.Flags().BoolVar(&runMerge, "merge", false, "Merge silver into the warehouse afterwards")
	rootCmd.AddCommand(silverCmd, mergeCmd, runCmd)
}

var silverCmd = &cobra.Command{
	Use:   "silver",
	Short: "Builds the silver tables from raw records not yet processed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := state.pipeline(cmd.Context(), false)
		if err != nil {
			return err
		}
		report, err := p.Silver(cmd.Context())
		if err != nil {
			return err
		}
		printSilver(cmd.OutOrStdout(), report)
		return nil
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Upserts every silver table into the warehouse.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := state.pipeline(cmd.Context(), true)
		if err != nil {
			return err
		}
		report, err := p.Merge(cmd.Context())
		if err != nil {
			return err
		}
		printMerge(cmd.OutOrStdout(), report)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run [--date YYYY-MM-DD] [--merge]",
	Short: "Ingests one day's export and builds silver from it.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		date, err := dateFlag(runDate)
		if err != nil {
			return err
		}
		p, err := state.pipeline(cmd.Context(), runMerge)
		if err != nil {
			return err
		}
		report, err := p.Run(cmd.Context(), date)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if report.Ingest.NoData {
			fmt.Fprintf(out, "No export for %s\n", report.Ingest.Date)
		} else {
			fmt.Fprintf(out, "Ingested %d records for %s\n", report.Ingest.Records, report.Ingest.Date)
		}
		printSilver(out, report.Silver)

		if !runMerge {
			return nil
		}
		merged, err := p.Merge(cmd.Context())
		if err != nil {
			return err
		}
		printMerge(out, merged)
		return nil
	},
}

func printSilver(out io.Writer, r *silver.Report) {
	if r.NewRecords == 0 {
		fmt.Fprintf(out, "No new records (%d raw rows, %d already in silver)\n", r.RawRows, r.Existing)
		return
	}
	fmt.Fprintf(out, "Built silver from %d new records (%d already in silver, %d without id)\n",
		r.NewRecords, r.Existing, r.MissingID)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tROWS\tVERSION\tNOTE")
	for _, t := range r.Tables {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", t.Path, t.Rows, t.Version, t.Skipped)
	}
	w.Flush()
}

func printMerge(out io.Writer, r *warehouse.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tMERGED\tBEFORE\tAFTER\tDELTA\tNOTE")
	for _, t := range r.Tables {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%+d\t%s\n", t.Table, t.Rows, t.Before, t.After, t.Delta(), t.Skipped)
	}
	w.Flush()
	fmt.Fprintf(out, "Warehouse grew by %d rows in %s\n", r.Delta(), r.Duration().Round(time.Millisecond))
}
