// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/estatelake/internal/lake"
	"github.com/tomtom215/estatelake/internal/logging"
	"github.com/tomtom215/estatelake/internal/metrics"
	"github.com/tomtom215/estatelake/internal/silver"
	"github.com/tomtom215/estatelake/internal/table"
)

// Target maps one silver table to a keyed warehouse table.
type Target struct {
	// Name is the silver table name.
	Name string

	// Path is the lake path read.
	Path string

	// Table is the warehouse table written.
	Table string

	// Keys form the warehouse primary key.
	Keys []string
}

// DefaultKeys are the primary keys of the silver tables.
var DefaultKeys = map[string][]string{
	silver.TableProperties: {"id"},
	silver.TableRooms:      {"id", "room_index"},
	silver.TableImages:     {"id", "image_index"},
	silver.TableAgents:     {"negotiator_id"},
	silver.TableLocations:  {"location_id"},
	silver.TableEnergy:     {"id"},
}

// DefaultTargets returns a target per silver table. Warehouse tables are
// named prefix + silver table name.
func DefaultTargets(paths silver.Paths, prefix string) []Target {
	targets := make([]Target, 0, len(silver.Tables))
	for _, name := range silver.Tables {
		targets = append(targets, Target{
			Name:  name,
			Path:  paths.Path(name),
			Table: prefix + name,
			Keys:  DefaultKeys[name],
		})
	}
	return targets
}

// Reader reads silver tables.
type Reader interface {
	Read(ctx context.Context, path string) (*table.Table, error)
}

// TableResult is the outcome of merging one table.
type TableResult struct {
	Name  string
	Table string

	// Rows is the number of distinct keys upserted.
	Rows int

	// NullKeys counts silver rows skipped for a null key column.
	NullKeys int

	Before int64
	After  int64

	// Skipped explains why the table was not merged.
	Skipped string
}

// Delta returns the net row-count change.
func (r TableResult) Delta() int64 {
	return r.After - r.Before
}

// Report summarizes a merge.
type Report struct {
	Tables    []TableResult
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns the merge duration.
func (r *Report) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Delta returns the net row-count change across all tables.
func (r *Report) Delta() int64 {
	var total int64
	for _, t := range r.Tables {
		total += t.Delta()
	}
	return total
}

// Merger upserts silver tables into the warehouse.
type Merger struct {
	source  Reader
	wh      *Warehouse
	targets []Target
}

// NewMerger creates a merger for targets.
func NewMerger(source Reader, wh *Warehouse, targets []Target) *Merger {
	return &Merger{source: source, wh: wh, targets: targets}
}

// Merge upserts every target. Missing silver tables are skipped. The first
// failing table aborts the merge; tables already merged stay committed.
func (m *Merger) Merge(ctx context.Context) (*Report, error) {
	report := &Report{StartTime: time.Now()}
	defer func() {
		report.EndTime = time.Now()
	}()
	log := logging.Ctx(ctx)

	for _, t := range m.targets {
		res, err := m.mergeTarget(ctx, t)
		if err != nil {
			return report, fmt.Errorf("merge %s into %s: %w", t.Path, t.Table, err)
		}
		report.Tables = append(report.Tables, res)

		if res.Skipped != "" {
			log.Info().Str("table", res.Table).Str("reason", res.Skipped).Msg("Skipped warehouse table")
			continue
		}
		metrics.WarehouseRowsDelta.WithLabelValues(res.Table).Set(float64(res.Delta()))
		metrics.WarehouseRowsMerged.WithLabelValues(res.Table).Add(float64(res.Rows))
		log.Info().
			Str("table", res.Table).
			Int("rows", res.Rows).
			Int64("before", res.Before).
			Int64("after", res.After).
			Int64("delta", res.Delta()).
			Msg("Merged silver table")
	}
	return report, nil
}

func (m *Merger) mergeTarget(ctx context.Context, t Target) (res TableResult, err error) {
	res = TableResult{Name: t.Name, Table: t.Table}

	tbl, err := m.source.Read(ctx, t.Path)
	if errors.Is(err, lake.ErrNotFound) {
		res.Skipped = "silver table not found"
		return res, nil
	}
	if err != nil {
		return res, err
	}
	for _, k := range t.Keys {
		if tbl.Index(k) < 0 {
			return res, fmt.Errorf("key column %q missing from %s", k, t.Path)
		}
	}

	rows, nullKeys := latestByKey(tbl, t.Keys)
	res.NullKeys = nullKeys

	w := m.wh
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx, err)
		}
	}()

	types, err := w.ensureTable(ctx, tx, t, tbl.Columns)
	if err != nil {
		return res, err
	}
	if res.Before, err = count(ctx, tx, w.dialect, t.Table); err != nil {
		return res, err
	}

	names := tbl.Names()
	stmt, err := tx.PrepareContext(ctx, UpsertSQL(w.dialect, t.Table, names, t.Keys))
	if err != nil {
		return res, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer closeWithLog(stmt, "statement")

	args := make([]any, len(names))
	for _, row := range rows {
		for i, v := range row {
			args[i] = table.Conform(v, types[i])
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return res, fmt.Errorf("failed to upsert row: %w", err)
		}
	}
	res.Rows = len(rows)

	if res.After, err = count(ctx, tx, w.dialect, t.Table); err != nil {
		return res, err
	}
	if err = tx.Commit(); err != nil {
		return res, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return res, nil
}

// ensureTable creates the warehouse table or evolves it to hold cols. It
// returns the warehouse type of each of cols.
func (w *Warehouse) ensureTable(ctx context.Context, tx txExecer, t Target, cols []table.Column) ([]table.Type, error) {
	types := make([]table.Type, len(cols))
	for i, c := range cols {
		types[i] = storedType(c.Type)
	}

	exists, err := w.tableExists(ctx, tx, t.Table)
	if err != nil {
		return nil, err
	}
	if !exists {
		if _, err := tx.ExecContext(ctx, CreateTableSQL(w.dialect, t.Table, cols, t.Keys)); err != nil {
			return nil, fmt.Errorf("failed to create table %s: %w", t.Table, err)
		}
		logging.Info().Str("table", t.Table).Strs("keys", t.Keys).Msg("Created warehouse table")
		return types, nil
	}

	existing, err := w.columns(ctx, tx, t.Table)
	if err != nil {
		return nil, err
	}
	for i, c := range cols {
		have, ok := existing[strings.ToLower(c.Name)]
		if !ok {
			if _, err := tx.ExecContext(ctx, AddColumnSQL(w.dialect, t.Table, c)); err != nil {
				return nil, fmt.Errorf("failed to add column %s.%s: %w", t.Table, c.Name, err)
			}
			continue
		}
		widened := table.Widen(have.Type, types[i])
		if widened != have.Type {
			if _, err := tx.ExecContext(ctx, AlterTypeSQL(w.dialect, t.Table, have.Name, widened)); err != nil {
				return nil, fmt.Errorf("failed to widen column %s.%s: %w", t.Table, c.Name, err)
			}
		}
		types[i] = widened
	}
	return types, nil
}

type txExecer interface {
	querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// storedType is the warehouse representation of a lake column type.
func storedType(t table.Type) table.Type {
	if t == table.JSON || t == table.Null {
		return table.Varchar
	}
	return t
}

// latestByKey keeps the last row for each key, in order of first
// appearance. Rows with a null key column are dropped and counted.
func latestByKey(tbl *table.Table, keys []string) ([][]any, int) {
	idx := make([]int, len(keys))
	for i, k := range keys {
		idx[i] = tbl.Index(k)
	}

	pos := make(map[string]int)
	var out [][]any
	nullKeys := 0
rows:
	for _, row := range tbl.Rows {
		parts := make([]string, len(idx))
		for i, c := range idx {
			if row[c] == nil {
				nullKeys++
				continue rows
			}
			parts[i] = table.Stringify(row[c])
		}
		key := strings.Join(parts, "\x1f")
		if p, ok := pos[key]; ok {
			out[p] = row
			continue
		}
		pos[key] = len(out)
		out = append(out, row)
	}
	return out, nullKeys
}
