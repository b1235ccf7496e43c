// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package commands

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/estatelake/internal/pipeline"
	"github.com/tomtom215/estatelake/internal/runlog"
)

var historyLimit int

func init() {
	statusCmd.Flags().IntVar(&historyLimit, "history", 0, "Also list this many recent runs per stage")
	bucketCmd.AddCommand(bucketEnsureCmd)
	rootCmd.AddCommand(statusCmd, describeCmd, bucketCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [--history N]",
	Short: "Shows the last run of every stage and the size of every lake table.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		p, err := state.pipeline(ctx, false)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		stages, err := p.Status(ctx)
		switch {
		case errors.Is(err, pipeline.ErrNoLedger):
			fmt.Fprintln(out, "Run ledger disabled")
		case err != nil:
			return err
		default:
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tLAST RUN\tRESULT\tLAST SUCCESS\tROWS")
			for _, s := range stages {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					s.Stage, runTime(s.Last), result(s.Last), runTime(s.LastSuccess), rows(s.LastSuccess))
			}
			w.Flush()
		}

		if historyLimit > 0 && err == nil {
			for _, stage := range pipeline.Stages {
				runs, err := p.History(ctx, stage, historyLimit)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%s history:\n", stage)
				for _, r := range runs {
					fmt.Fprintf(out, "  %s  %s  %-8s rows=%d %s\n",
						runTime(r), r.RunID, result(r), r.Rows, r.Date)
				}
			}
		}

		tables, err := p.Tables(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LAKE TABLE\tROWS\tVERSION")
		for _, t := range tables {
			fmt.Fprintf(w, "%s\t%d\t%d\n", t.Path, t.Rows, t.Version)
		}
		return w.Flush()
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <path>",
	Short: "Shows the schema, version and commits of a lake table.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := state.pipeline(cmd.Context(), false)
		if err != nil {
			return err
		}
		info, err := p.Describe(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Path:      %s\n", info.Path)
		fmt.Fprintf(out, "Table:     %s\n", info.Table)
		fmt.Fprintf(out, "Version:   %d\n", info.Version)
		fmt.Fprintf(out, "Rows:      %d\n", info.Rows)
		if info.PartitionBy != "" {
			fmt.Fprintf(out, "Partition: %s\n", info.PartitionBy)
		}

		fmt.Fprintln(out, "\nColumns:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, c := range info.Columns {
			fmt.Fprintf(w, "  %s\t%s\n", c.Name, c.Type)
		}
		w.Flush()

		fmt.Fprintln(out, "\nCommits:")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, c := range info.Commits {
			fmt.Fprintf(w, "  v%d\t%s\t%s\t%d rows\t%s\n",
				c.Version, c.CommittedAt.UTC().Format(time.RFC3339), c.Mode, c.Rows, strings.Join(c.Partitions, ","))
		}
		return w.Flush()
	},
}

var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Manages the staging bucket.",
}

var bucketEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Creates the staging bucket unless it exists.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := state.pipeline(cmd.Context(), false)
		if err != nil {
			return err
		}
		created, err := p.EnsureBucket(cmd.Context())
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "Created bucket %s\n", state.cfg.Blob.Bucket)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Bucket %s already exists\n", state.cfg.Blob.Bucket)
		}
		return nil
	},
}

func runTime(e *runlog.Entry) string {
	if e == nil {
		return "-"
	}
	return e.StartTime.UTC().Format(time.RFC3339)
}

func result(e *runlog.Entry) string {
	switch {
	case e == nil:
		return "-"
	case e.Succeeded():
		return "ok"
	default:
		return "failed: " + e.Error
	}
}

func rows(e *runlog.Entry) string {
	if e == nil {
		return "-"
	}
	return fmt.Sprint(e.Rows)
}
