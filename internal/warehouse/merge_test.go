// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/estatelake/internal/lake"
	"github.com/tomtom215/estatelake/internal/silver"
	"github.com/tomtom215/estatelake/internal/table"
)

func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func setupTestLake(t *testing.T) *lake.Store {
	t.Helper()
	s, err := lake.Open(lake.Config{Path: ":memory:", MaxMemory: "512MB", Threads: 1})
	if err != nil {
		t.Fatalf("Failed to open test lake: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func setupTestWarehouse(t *testing.T) *Warehouse {
	t.Helper()
	w, err := Open(context.Background(), Config{Driver: "duckdb", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open test warehouse: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

var ts = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func appendSilver(t *testing.T, s *lake.Store, name string, cols []table.Column, rows ...[]any) {
	t.Helper()
	tbl := table.New(cols...)
	for _, r := range rows {
		checkNoError(t, tbl.AppendRow(r...))
	}
	_, err := s.Write(context.Background(), silver.DefaultPaths("silver").Path(name), tbl,
		lake.WriteOptions{Mode: lake.Append, SchemaMode: lake.SchemaMerge})
	checkNoError(t, err)
}

var propCols = []table.Column{
	{Name: "id", Type: table.Varchar},
	{Name: "price", Type: table.Double},
	{Name: "ingested_at", Type: table.Timestamp},
}

func newTestMerger(s *lake.Store, w *Warehouse) *Merger {
	return NewMerger(s, w, DefaultTargets(silver.DefaultPaths("silver"), ""))
}

func result(t *testing.T, r *Report, name string) TableResult {
	t.Helper()
	for _, tr := range r.Tables {
		if tr.Name == name {
			return tr
		}
	}
	t.Fatalf("no result for %s", name)
	return TableResult{}
}

func TestMergeInsertsThenIsIdempotent(t *testing.T) {
	s := setupTestLake(t)
	w := setupTestWarehouse(t)
	ctx := context.Background()

	appendSilver(t, s, silver.TableProperties, propCols,
		[]any{"p1", 100000.0, ts},
		[]any{"p2", 200000.0, ts})

	m := newTestMerger(s, w)
	first, err := m.Merge(ctx)
	checkNoError(t, err)
	props := result(t, first, silver.TableProperties)
	if props.Before != 0 || props.After != 2 || props.Delta() != 2 {
		t.Errorf("first merge before %d after %d", props.Before, props.After)
	}
	if rooms := result(t, first, silver.TableRooms); rooms.Skipped == "" {
		t.Error("missing silver rooms table should be skipped")
	}

	second, err := m.Merge(ctx)
	checkNoError(t, err)
	if d := second.Delta(); d != 0 {
		t.Errorf("re-merge delta = %d, want 0", d)
	}
	n, err := w.Count(ctx, silver.TableProperties)
	checkNoError(t, err)
	if n != 2 {
		t.Errorf("warehouse rows = %d, want 2", n)
	}
}

func TestMergeUpdatesExistingKeys(t *testing.T) {
	s := setupTestLake(t)
	w := setupTestWarehouse(t)
	ctx := context.Background()
	m := newTestMerger(s, w)

	appendSilver(t, s, silver.TableProperties, propCols, []any{"p1", 100000.0, ts})
	_, err := m.Merge(ctx)
	checkNoError(t, err)

	// A later silver row for the same key wins.
	appendSilver(t, s, silver.TableProperties, propCols, []any{"p1", 95000.0, ts.Add(time.Hour)})
	report, err := m.Merge(ctx)
	checkNoError(t, err)
	if d := result(t, report, silver.TableProperties).Delta(); d != 0 {
		t.Errorf("delta = %d, want 0", d)
	}

	var price float64
	err = w.db.QueryRowContext(ctx, `SELECT price FROM property_details WHERE id = 'p1'`).Scan(&price)
	checkNoError(t, err)
	if price != 95000 {
		t.Errorf("price = %v, want 95000", price)
	}
}

func TestMergeCompositeKeysAndNewColumns(t *testing.T) {
	s := setupTestLake(t)
	w := setupTestWarehouse(t)
	ctx := context.Background()
	m := newTestMerger(s, w)

	appendSilver(t, s, silver.TableRooms, []table.Column{
		{Name: "id", Type: table.Varchar},
		{Name: "room_index", Type: table.BigInt},
		{Name: "room_name", Type: table.Varchar},
	},
		[]any{"p1", int64(0), "Bed1"},
		[]any{"p1", int64(1), "Bed2"},
		[]any{"p2", int64(0), "Kitchen"})
	_, err := m.Merge(ctx)
	checkNoError(t, err)

	appendSilver(t, s, silver.TableRooms, []table.Column{
		{Name: "id", Type: table.Varchar},
		{Name: "room_index", Type: table.BigInt},
		{Name: "room_name", Type: table.Varchar},
		{Name: "description", Type: table.Varchar},
	}, []any{"p3", int64(0), "Study", "Quiet"})
	report, err := m.Merge(ctx)
	checkNoError(t, err)

	rooms := result(t, report, silver.TableRooms)
	if rooms.Before != 3 || rooms.After != 4 {
		t.Errorf("rooms before %d after %d; want 3, 4", rooms.Before, rooms.After)
	}

	var desc string
	err = w.db.QueryRowContext(ctx, `SELECT description FROM property_rooms WHERE id = 'p3'`).Scan(&desc)
	checkNoError(t, err)
	if desc != "Quiet" {
		t.Errorf("description = %q, want Quiet", desc)
	}
}

func TestMergeMonotonic(t *testing.T) {
	s := setupTestLake(t)
	w := setupTestWarehouse(t)
	ctx := context.Background()
	m := newTestMerger(s, w)

	batches := [][][]any{
		{{"p1", 1.0, ts}},
		{{"p1", 2.0, ts}, {"p2", 3.0, ts}},
		{{"p2", 4.0, ts}},
	}
	for i, rows := range batches {
		appendSilver(t, s, silver.TableProperties, propCols, rows...)
		report, err := m.Merge(ctx)
		checkNoError(t, err)
		for _, tr := range report.Tables {
			if tr.After < tr.Before {
				t.Errorf("batch %d %s shrank from %d to %d", i, tr.Name, tr.Before, tr.After)
			}
		}
	}
}

func TestLatestByKey(t *testing.T) {
	t.Parallel()

	tbl := table.New(
		table.Column{Name: "id", Type: table.Varchar},
		table.Column{Name: "v", Type: table.BigInt},
	)
	for _, r := range [][]any{{"a", int64(1)}, {"b", int64(2)}, {nil, int64(3)}, {"a", int64(4)}} {
		checkNoError(t, tbl.AppendRow(r...))
	}

	rows, nullKeys := latestByKey(tbl, []string{"id"})
	want := [][]any{{"a", int64(4)}, {"b", int64(2)}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if nullKeys != 1 {
		t.Errorf("nullKeys = %d, want 1", nullKeys)
	}
}
