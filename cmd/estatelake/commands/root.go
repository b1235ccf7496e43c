// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/estatelake/internal/blobstore"
	"github.com/tomtom215/estatelake/internal/config"
	"github.com/tomtom215/estatelake/internal/ingest"
	"github.com/tomtom215/estatelake/internal/lake"
	"github.com/tomtom215/estatelake/internal/logging"
	"github.com/tomtom215/estatelake/internal/metrics"
	"github.com/tomtom215/estatelake/internal/pipeline"
	"github.com/tomtom215/estatelake/internal/runlog"
	"github.com/tomtom215/estatelake/internal/warehouse"
)

// app holds what the commands share. Components are opened on demand so
// commands that never touch the warehouse do not need it to be reachable.
type app struct {
	cfg     *config.Config
	closers []func() error
}

var state = &app{}

var rootCmd = &cobra.Command{
	Use:           "estatelake",
	Short:         "estatelake loads real-estate listing exports into a lake and warehouse.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logging.Init(cfg.Logging.LoggingOptions())
		state.cfg = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		pushMetrics(cmd.Context())
	},
}

// ExecuteContext runs the command line and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	state.close()
	if err != nil {
		if state.cfg != nil {
			pushMetrics(ctx)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// pipeline opens the lake, object store and ledger. The warehouse is opened
// only when withWarehouse is set.
func (a *app) pipeline(ctx context.Context, withWarehouse bool) (*pipeline.Pipeline, error) {
	blobs, err := blobstore.NewS3Store(ctx, a.cfg.Blob.S3())
	if err != nil {
		return nil, err
	}

	store, err := lake.Open(lake.Config{
		Path:      a.cfg.Lake.Path,
		Threads:   a.cfg.Lake.Threads,
		MaxMemory: a.cfg.Lake.MaxMemory,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	opts := pipeline.Options{Blobs: blobs, Lake: store}

	if a.cfg.RunLog.Enabled {
		ledger, err := runlog.Open(a.cfg.RunLog.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, ledger.Close)
		opts.Ledger = ledger
	}

	if withWarehouse {
		wh, err := warehouse.Open(ctx, warehouse.Config{
			Driver: a.cfg.Warehouse.Driver,
			DSN:    a.cfg.Warehouse.DSN,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, wh.Close)
		opts.Warehouse = wh
	}

	return pipeline.New(a.cfg, opts), nil
}

// close releases components in reverse order of opening.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logging.Error().Err(err).Msg("Error closing resource")
		}
	}
	a.closers = nil
}

func pushMetrics(ctx context.Context) {
	if state.cfg == nil || state.cfg.Metrics.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := metrics.Push(ctx, state.cfg.Metrics.PushgatewayURL, state.cfg.Metrics.Job); err != nil {
		logging.Warn().Err(err).Msg("Failed to push metrics")
	}
}

// dateFlag parses a --date value, defaulting to today in UTC.
func dateFlag(value string) (time.Time, error) {
	if value == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return ingest.ParseDate(value)
}
