// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package silver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/estatelake/internal/lake"
	"github.com/tomtom215/estatelake/internal/logging"
	"github.com/tomtom215/estatelake/internal/metrics"
	"github.com/tomtom215/estatelake/internal/table"
)

// Store is the lake surface the builder needs.
type Store interface {
	Read(ctx context.Context, path string) (*table.Table, error)
	Distinct(ctx context.Context, path, column string) ([]any, error)
	WriteAll(ctx context.Context, batches []lake.Batch) ([]*lake.WriteResult, error)
}

// Config configures a Builder.
type Config struct {
	// RawPath is the lake path of the raw table.
	RawPath string

	// Paths maps silver table names to lake paths.
	Paths Paths

	// PropertyRoot locates the property object inside a raw row.
	PropertyRoot []string

	// PartitionColumn is removed from raw rows before extraction.
	PartitionColumn string

	// Concurrency bounds the extractors run at once. Values below 2 run
	// them one after another.
	Concurrency int
}

// TableReport describes the outcome for one silver table.
type TableReport struct {
	Name    string
	Path    string
	Rows    int
	Version int64

	// Skipped explains why nothing was written.
	Skipped string

	// Nulled counts source values stored as NULL per typed column.
	Nulled map[string]int
}

// Report summarizes one silver build.
type Report struct {
	IngestedAt time.Time
	RawRows    int
	NewRecords int
	Existing   int
	MissingID  int
	Duplicates int
	Tables     []TableReport
	StartTime  time.Time
	EndTime    time.Time
}

// Duration returns the build duration.
func (r *Report) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// RowsWritten returns the rows appended across all silver tables.
func (r *Report) RowsWritten() int {
	total := 0
	for _, t := range r.Tables {
		total += t.Rows
	}
	return total
}

// Builder runs incremental silver builds.
type Builder struct {
	store      Store
	cfg        Config
	extractors []Extractor
	now        func() time.Time
}

// NewBuilder creates a builder over store.
func NewBuilder(store Store, cfg Config) *Builder {
	if cfg.Paths == nil {
		cfg.Paths = DefaultPaths("silver")
	}
	return &Builder{
		store:      store,
		cfg:        cfg,
		extractors: Extractors(),
		now:        time.Now,
	}
}

// SetClock replaces the clock used for ingested_at.
func (b *Builder) SetClock(now func() time.Time) {
	b.now = now
}

// Build appends the properties not yet in silver to every silver table.
// A missing raw table or an empty delta is a no-op with a nil error.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	report := &Report{
		IngestedAt: b.now().UTC(),
		StartTime:  time.Now(),
	}
	defer func() {
		if report.EndTime.IsZero() {
			report.EndTime = time.Now()
		}
	}()
	log := logging.Ctx(ctx)

	raw, err := b.store.Read(ctx, b.cfg.RawPath)
	if errors.Is(err, lake.ErrNotFound) {
		log.Info().Str("path", b.cfg.RawPath).Msg("Raw table not found, no new records")
		metrics.DeltaRecords.Set(0)
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("read raw table %s: %w", b.cfg.RawPath, err)
	}
	report.RawRows = raw.Len()

	existing, err := b.existingIDs(ctx)
	if err != nil {
		return report, err
	}

	rows := make([]map[string]any, raw.Len())
	for i := range rows {
		rows[i] = raw.Map(i)
		if b.cfg.PartitionColumn != "" {
			delete(rows[i], b.cfg.PartitionColumn)
		}
	}

	delta := SelectDelta(rows, b.cfg.PropertyRoot, existing)
	report.NewRecords = delta.Len()
	report.Existing = delta.Existing
	report.MissingID = delta.MissingID
	report.Duplicates = delta.Duplicates
	metrics.DeltaRecords.Set(float64(delta.Len()))

	if delta.MissingID > 0 {
		log.Warn().Int("rows", delta.MissingID).Msg("Skipped raw rows without a property id")
	}
	if delta.Len() == 0 {
		log.Info().Int("raw_rows", report.RawRows).Msg("No new records")
		return report, nil
	}

	cleaned := Flatten(delta, b.cfg.PropertyRoot, report.IngestedAt)

	outputs, err := b.extract(ctx, cleaned)
	if err != nil {
		return report, err
	}

	if err := b.write(ctx, outputs, report); err != nil {
		return report, err
	}

	report.EndTime = time.Now()
	log.Info().
		Int("new_records", report.NewRecords).
		Int("rows", report.RowsWritten()).
		Dur("duration", report.Duration()).
		Msg("Silver build complete")
	return report, nil
}

// existingIDs returns the ids already in the silver property table, or nil
// on the first run.
func (b *Builder) existingIDs(ctx context.Context) (map[string]struct{}, error) {
	path := b.cfg.Paths.Path(TableProperties)
	values, err := b.store.Distinct(ctx, path, "id")
	if errors.Is(err, lake.ErrNotFound) {
		logging.Ctx(ctx).Info().Str("path", path).Msg("Silver property table not found, selecting all raw rows")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read silver ids %s: %w", path, err)
	}
	return IDSet(values), nil
}

func (b *Builder) extract(ctx context.Context, rows []Cleaned) ([]Output, error) {
	outputs := make([]Output, len(b.extractors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.cfg.Concurrency, 1))
	for i, ex := range b.extractors {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outputs[i] = ex.Extract(rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extract silver tables: %w", err)
	}
	return outputs, nil
}

// write commits every non-empty output in one lake transaction.
func (b *Builder) write(ctx context.Context, outputs []Output, report *Report) error {
	log := logging.Ctx(ctx)

	var batches []lake.Batch
	var written []int
	for _, out := range outputs {
		tr := TableReport{Name: out.Name, Path: b.cfg.Paths.Path(out.Name), Nulled: out.Nulled}
		switch {
		case out.Absent != "":
			tr.Skipped = out.Err().Error()
			metrics.ExtractorSkips.WithLabelValues(out.Name).Inc()
		case out.Empty():
			tr.Skipped = "no rows"
		default:
			written = append(written, len(report.Tables))
			batches = append(batches, lake.Batch{
				Path:  tr.Path,
				Table: out.Table,
				Options: lake.WriteOptions{
					Mode:       lake.Append,
					SchemaMode: lake.SchemaMerge,
				},
			})
		}
		report.Tables = append(report.Tables, tr)
	}

	results, err := b.store.WriteAll(ctx, batches)
	if err != nil {
		return fmt.Errorf("write silver tables: %w", err)
	}

	for n, res := range results {
		tr := &report.Tables[written[n]]
		tr.Rows = res.Rows
		tr.Version = res.Version
		metrics.RowsWritten.WithLabelValues("silver", tr.Name).Add(float64(res.Rows))
	}
	for _, tr := range report.Tables {
		for col, n := range tr.Nulled {
			metrics.ValuesNulled.WithLabelValues(tr.Name, col).Add(float64(n))
			log.Warn().Str("table", tr.Name).Str("column", col).Int("values", n).Msg("Stored unconvertible source values as NULL")
		}
		if tr.Skipped != "" {
			log.Info().Str("table", tr.Name).Str("path", tr.Path).Str("reason", tr.Skipped).Msg("Skipped silver table")
			continue
		}
		log.Info().Str("table", tr.Name).Str("path", tr.Path).Int("rows", tr.Rows).Int64("version", tr.Version).Msg("Appended silver rows")
	}
	return nil
}
