// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/estatelake/internal/blobstore"
	"github.com/tomtom215/estatelake/internal/document"
	"github.com/tomtom215/estatelake/internal/lake"
	"github.com/tomtom215/estatelake/internal/logging"
	"github.com/tomtom215/estatelake/internal/metrics"
	"github.com/tomtom215/estatelake/internal/table"
)

// PartitionColumn tags every raw row with the day it was ingested.
const PartitionColumn = "ingestion_date"

// TableWriter persists a batch to a lake path.
type TableWriter interface {
	Write(ctx context.Context, path string, tbl *table.Table, opts lake.WriteOptions) (*lake.WriteResult, error)
}

// Ingester appends daily exports to the raw table.
type Ingester struct {
	reader  *Reader
	writer  TableWriter
	rawPath string
}

// NewIngester creates an ingester writing to rawPath.
func NewIngester(reader *Reader, writer TableWriter, rawPath string) *Ingester {
	return &Ingester{reader: reader, writer: writer, rawPath: rawPath}
}

// Ingest reads the export for date and appends it to the raw table.
// A missing export yields Stats.NoData and a nil error.
func (i *Ingester) Ingest(ctx context.Context, date time.Time) (*Stats, error) {
	stats := &Stats{
		Date:      date.Format(blobstore.DateLayout),
		StartTime: time.Now(),
	}
	defer func() {
		stats.EndTime = time.Now()
	}()

	log := logging.Ctx(ctx)

	key, err := i.reader.Key(date)
	if err != nil {
		return stats, err
	}
	stats.Key = key

	docs, err := i.reader.Read(ctx, date)
	if errors.Is(err, ErrNoData) {
		stats.NoData = true
		log.Info().Str("date", stats.Date).Str("key", key).Msg("No data for date, nothing written")
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("read export %s: %w", key, err)
	}
	stats.Records = int64(len(docs))
	metrics.RecordsRead.Add(float64(len(docs)))

	if len(docs) == 0 {
		log.Info().Str("date", stats.Date).Str("key", key).Msg("Export is empty, nothing written")
		return stats, nil
	}

	tbl := BuildTable(docs, stats.Date)
	report := table.Normalize(tbl)
	stats.DroppedNull = report.DroppedNull
	stats.Coerced = report.Coerced
	stats.Columns = len(tbl.Columns)

	res, err := i.writer.Write(ctx, i.rawPath, tbl, lake.WriteOptions{
		Mode:        lake.Append,
		SchemaMode:  lake.SchemaMerge,
		PartitionBy: PartitionColumn,
	})
	if err != nil {
		return stats, fmt.Errorf("write raw table %s: %w", i.rawPath, err)
	}
	stats.Version = res.Version
	stats.NewColumns = res.NewColumns
	metrics.RowsWritten.WithLabelValues("raw", i.rawPath).Add(float64(res.Rows))

	log.Info().
		Str("path", i.rawPath).
		Str("date", stats.Date).
		Int64("rows", stats.Records).
		Int("columns", stats.Columns).
		Int("dropped_null", len(stats.DroppedNull)).
		Int("coerced", len(stats.Coerced)).
		Int64("version", stats.Version).
		Msg("Appended raw records")
	return stats, nil
}

// BuildTable turns decoded records into a raw batch tagged with date.
// Top-level keys become columns; nested values stay nested.
func BuildTable(docs []document.Document, date string) *table.Table {
	records := make([]map[string]any, len(docs))
	for n, doc := range docs {
		records[n] = document.Normalize(map[string]any(doc)).(map[string]any)
	}
	tbl := table.FromRecords(records)
	tbl.AddColumn(table.Column{Name: PartitionColumn, Type: table.Varchar}, date)
	return tbl
}
