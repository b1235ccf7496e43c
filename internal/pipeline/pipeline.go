// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/estatelake/internal/blobstore"
	"github.com/tomtom215/estatelake/internal/config"
	"github.com/tomtom215/estatelake/internal/ingest"
	"github.com/tomtom215/estatelake/internal/lake"
	"github.com/tomtom215/estatelake/internal/logging"
	"github.com/tomtom215/estatelake/internal/metrics"
	"github.com/tomtom215/estatelake/internal/runlog"
	"github.com/tomtom215/estatelake/internal/silver"
	"github.com/tomtom215/estatelake/internal/warehouse"
)

// Stage names used in logs, metrics and the run ledger.
const (
	StageIngest = "ingest"
	StageSilver = "silver"
	StageMerge  = "merge"
)

// Stages lists the stages in execution order.
var Stages = []string{StageIngest, StageSilver, StageMerge}

// ErrNoWarehouse is returned by Merge when no warehouse was configured.
var ErrNoWarehouse = errors.New("no warehouse configured")

// Options wires the pipeline's collaborators. Warehouse and Ledger may be nil.
type Options struct {
	Blobs     blobstore.Store
	Lake      *lake.Store
	Warehouse *warehouse.Warehouse
	Ledger    runlog.Ledger
}

// Pipeline runs stages over one lake.
type Pipeline struct {
	cfg       *config.Config
	blobs     blobstore.Store
	lake      *lake.Store
	warehouse *warehouse.Warehouse
	ledger    runlog.Ledger
	reader    *ingest.Reader
	now       func() time.Time
}

// New creates a pipeline.
func New(cfg *config.Config, opts Options) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		blobs:     opts.Blobs,
		lake:      opts.Lake,
		warehouse: opts.Warehouse,
		ledger:    opts.Ledger,
		reader:    ingest.NewReader(opts.Blobs, cfg.Blob.Bucket, cfg.Blob.ObjectTemplate),
		now:       time.Now,
	}
}

// SetClock replaces the clock used for silver ingested_at values.
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// RunReport summarizes a combined ingest and silver run.
type RunReport struct {
	RunID  string
	Ingest *ingest.Stats
	Silver *silver.Report
}

// Stage uploads an export to the staging bucket under the key for date.
func (p *Pipeline) Stage(ctx context.Context, date time.Time, data []byte) (string, error) {
	key, err := p.reader.Stage(ctx, date, data)
	if err != nil {
		return "", fmt.Errorf("stage export for %s: %w", date.Format(blobstore.DateLayout), err)
	}
	logging.Ctx(ctx).Info().
		Str("bucket", p.cfg.Blob.Bucket).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("Staged export")
	return key, nil
}

// EnsureBucket creates the staging bucket unless it exists.
func (p *Pipeline) EnsureBucket(ctx context.Context) (bool, error) {
	created, err := blobstore.EnsureBucket(ctx, p.blobs, p.cfg.Blob.Bucket)
	if err != nil {
		return false, err
	}
	logging.Ctx(ctx).Info().
		Str("bucket", p.cfg.Blob.Bucket).
		Bool("created", created).
		Msg("Bucket ready")
	return created, nil
}

// Ingest appends the export for date to the raw table.
func (p *Pipeline) Ingest(ctx context.Context, date time.Time) (*ingest.Stats, error) {
	var stats *ingest.Stats
	err := p.stage(ctx, StageIngest, date.Format(blobstore.DateLayout), func(ctx context.Context, e *runlog.Entry) error {
		ing := ingest.NewIngester(p.reader, p.lake, p.cfg.Lake.RawPath)
		var err error
		stats, err = ing.Ingest(ctx, date)
		if stats != nil {
			e.Rows = stats.Records
			e.Counts = map[string]int64{"columns": int64(stats.Columns), "version": stats.Version}
			if stats.NoData {
				e.Counts["no_data"] = 1
			}
		}
		return err
	})
	return stats, err
}

// Silver appends properties not yet in silver to every silver table.
func (p *Pipeline) Silver(ctx context.Context) (*silver.Report, error) {
	var report *silver.Report
	err := p.stage(ctx, StageSilver, "", func(ctx context.Context, e *runlog.Entry) error {
		b := silver.NewBuilder(p.lake, silver.Config{
			RawPath:         p.cfg.Lake.RawPath,
			Paths:           p.cfg.Lake.SilverPaths(),
			PropertyRoot:    p.cfg.Silver.Root(),
			PartitionColumn: ingest.PartitionColumn,
			Concurrency:     p.cfg.Silver.Concurrency,
		})
		b.SetClock(p.now)
		var err error
		report, err = b.Build(ctx)
		if report != nil {
			e.Rows = int64(report.RowsWritten())
			e.Counts = map[string]int64{
				"new_records": int64(report.NewRecords),
				"missing_id":  int64(report.MissingID),
				"duplicates":  int64(report.Duplicates),
			}
			for _, t := range report.Tables {
				e.Counts[t.Name] = int64(t.Rows)
			}
		}
		return err
	})
	return report, err
}

// Merge upserts every silver table into the warehouse.
func (p *Pipeline) Merge(ctx context.Context) (*warehouse.Report, error) {
	if p.warehouse == nil {
		return nil, ErrNoWarehouse
	}
	var report *warehouse.Report
	err := p.stage(ctx, StageMerge, "", func(ctx context.Context, e *runlog.Entry) error {
		targets := warehouse.DefaultTargets(p.cfg.Lake.SilverPaths(), p.cfg.Warehouse.TablePrefix)
		var err error
		report, err = warehouse.NewMerger(p.lake, p.warehouse, targets).Merge(ctx)
		if report != nil {
			e.Rows = report.Delta()
			e.Counts = make(map[string]int64, len(report.Tables))
			for _, t := range report.Tables {
				e.Counts[t.Name] = t.Delta()
			}
		}
		return err
	})
	return report, err
}

// Run ingests the export for date and builds silver under one run ID. The
// silver build is skipped when ingest fails.
func (p *Pipeline) Run(ctx context.Context, date time.Time) (*RunReport, error) {
	ctx = withRunID(ctx)
	report := &RunReport{RunID: logging.RunIDFromContext(ctx)}

	stats, err := p.Ingest(ctx, date)
	report.Ingest = stats
	if err != nil {
		return report, err
	}

	built, err := p.Silver(ctx)
	report.Silver = built
	return report, err
}

// stage runs fn as one recorded stage.
func (p *Pipeline) stage(ctx context.Context, name, date string, fn func(context.Context, *runlog.Entry) error) error {
	ctx = logging.ContextWithStage(withRunID(ctx), name)
	entry := &runlog.Entry{
		RunID:     logging.RunIDFromContext(ctx),
		Stage:     name,
		Date:      date,
		StartTime: time.Now().UTC(),
	}

	err := fn(ctx, entry)

	entry.EndTime = time.Now().UTC()
	if err != nil {
		entry.Error = err.Error()
		logging.Ctx(ctx).Error().Err(err).Dur("duration", entry.Duration()).Msg("Stage failed")
	} else {
		logging.Ctx(ctx).Info().Int64("rows", entry.Rows).Dur("duration", entry.Duration()).Msg("Stage finished")
	}
	metrics.RecordStage(name, entry.Duration(), err)
	p.record(ctx, entry)
	return err
}

func (p *Pipeline) record(ctx context.Context, e *runlog.Entry) {
	if p.ledger == nil {
		return
	}
	if err := p.ledger.Record(ctx, e); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to record run in ledger")
	}
}

func withRunID(ctx context.Context) context.Context {
	if logging.RunIDFromContext(ctx) != "" {
		return ctx
	}
	return logging.ContextWithRunID(ctx, logging.GenerateRunID())
}
