// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package lake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/estatelake/internal/table"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(Config{Path: ":memory:", MaxMemory: "512MB", Threads: 1})
	if err != nil {
		t.Fatalf("Failed to open test lake: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close test lake: %v", err)
		}
	})
	return s
}

func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func mustWrite(t *testing.T, s *Store, path string, tbl *table.Table, opts WriteOptions) *WriteResult {
	t.Helper()
	res, err := s.Write(context.Background(), path, tbl, opts)
	checkNoError(t, err)
	return res
}

func appendMerge() WriteOptions {
	return WriteOptions{Mode: Append, SchemaMode: SchemaMerge}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	ts := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	tbl := table.New(
		table.Column{Name: "id", Type: table.Varchar},
		table.Column{Name: "bedroom", Type: table.BigInt},
		table.Column{Name: "latitude", Type: table.Double},
		table.Column{Name: "address", Type: table.JSON},
		table.Column{Name: "ingested_at", Type: table.Timestamp},
		table.Column{Name: "featured", Type: table.Boolean},
	)
	checkNoError(t, tbl.AppendRow("p1", int64(3), 51.5, map[string]any{"postcode": "AB1", "n": int64(1)}, ts, true))
	checkNoError(t, tbl.AppendRow("p2", nil, nil, nil, ts, false))

	res := mustWrite(t, s, "silver/property_details", tbl, appendMerge())
	if res.Version != 1 {
		t.Errorf("expected version 1, got %d", res.Version)
	}

	got, err := s.Read(ctx, "silver/property_details")
	checkNoError(t, err)

	if diff := cmp.Diff(tbl.Columns, got.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(tbl.Rows, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestReadNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Read(context.Background(), "silver/agents")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Describe(context.Background(), "silver/agents"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Describe, got %v", err)
	}
}

func TestWriteEmptyIsNoop(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	tbl := table.New(table.Column{Name: "id", Type: table.Null})
	res := mustWrite(t, s, "silver/agents", tbl, appendMerge())
	if res.Version != 0 || res.Rows != 0 {
		t.Errorf("expected no-op result, got %+v", res)
	}

	exists, err := s.Exists(ctx, "silver/agents")
	checkNoError(t, err)
	if exists {
		t.Error("expected empty write not to create a table")
	}
}

func TestAppendAccumulatesInOrder(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		tbl := table.New(table.Column{Name: "id", Type: table.Varchar})
		checkNoError(t, tbl.AppendRow(id))
		mustWrite(t, s, "raw", tbl, appendMerge())
	}

	got, err := s.Read(ctx, "raw")
	checkNoError(t, err)
	want := [][]any{{"a"}, {"b"}, {"c"}}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	version, err := s.Version(ctx, "raw")
	checkNoError(t, err)
	if version != 3 {
		t.Errorf("expected version 3, got %d", version)
	}
}

func TestSchemaMergeAddsColumns(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := table.New(table.Column{Name: "id", Type: table.Varchar})
	checkNoError(t, first.AppendRow("p1"))
	mustWrite(t, s, "raw", first, appendMerge())

	second := table.New(
		table.Column{Name: "id", Type: table.Varchar},
		table.Column{Name: "price", Type: table.BigInt},
	)
	checkNoError(t, second.AppendRow("p2", int64(250000)))
	res := mustWrite(t, s, "raw", second, appendMerge())

	if diff := cmp.Diff([]string{"price"}, res.NewColumns); diff != "" {
		t.Errorf("new columns mismatch (-want +got):\n%s", diff)
	}

	got, err := s.Read(ctx, "raw")
	checkNoError(t, err)
	want := [][]any{{"p1", nil}, {"p2", int64(250000)}}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaMergeMissingColumnsAreNull(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := table.New(
		table.Column{Name: "id", Type: table.Varchar},
		table.Column{Name: "title", Type: table.Varchar},
	)
	checkNoError(t, first.AppendRow("p1", "Flat"))
	mustWrite(t, s, "raw", first, appendMerge())

	second := table.New(table.Column{Name: "id", Type: table.Varchar})
	checkNoError(t, second.AppendRow("p2"))
	mustWrite(t, s, "raw", second, appendMerge())

	got, err := s.Read(ctx, "raw")
	checkNoError(t, err)
	if v := got.Value(1, "title"); v != nil {
		t.Errorf("expected nil title for second batch, got %v", v)
	}
}

func TestSchemaMergeWidensTypes(t *testing.T) {
	tests := []struct {
		name     string
		first    any
		firstT   table.Type
		second   any
		secondT  table.Type
		wantType table.Type
		want     [][]any
	}{
		{"bigint to double", int64(1), table.BigInt, 2.5, table.Double, table.Double, [][]any{{1.0}, {2.5}}},
		{"bigint to varchar", int64(1), table.BigInt, "two", table.Varchar, table.Varchar, [][]any{{"1"}, {"two"}}},
		{"double stays double", 1.5, table.Double, int64(2), table.BigInt, table.Double, [][]any{{1.5}, {2.0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestStore(t)
			ctx := context.Background()

			first := table.New(table.Column{Name: "v", Type: tt.firstT})
			checkNoError(t, first.AppendRow(tt.first))
			mustWrite(t, s, "raw", first, appendMerge())

			second := table.New(table.Column{Name: "v", Type: tt.secondT})
			checkNoError(t, second.AppendRow(tt.second))
			mustWrite(t, s, "raw", second, appendMerge())

			got, err := s.Read(ctx, "raw")
			checkNoError(t, err)
			if got.Columns[0].Type != tt.wantType {
				t.Errorf("expected type %s, got %s", tt.wantType, got.Columns[0].Type)
			}
			if diff := cmp.Diff(tt.want, got.Rows); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSchemaOverwriteNeedsOverwrite(t *testing.T) {
	s := setupTestStore(t)

	tbl := table.New(table.Column{Name: "id", Type: table.Varchar})
	checkNoError(t, tbl.AppendRow("p1"))

	_, err := s.Write(context.Background(), "raw", tbl, WriteOptions{Mode: Append, SchemaMode: SchemaOverwrite})
	if !errors.Is(err, ErrSchemaOverwriteNeedsOverwrite) {
		t.Fatalf("expected ErrSchemaOverwriteNeedsOverwrite, got %v", err)
	}
}

func TestOverwriteReplacesRowsAndSchema(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := table.New(
		table.Column{Name: "id", Type: table.Varchar},
		table.Column{Name: "old", Type: table.BigInt},
	)
	checkNoError(t, first.AppendRow("p1", int64(1)))
	mustWrite(t, s, "silver/agents", first, appendMerge())

	second := table.New(table.Column{Name: "negotiator_id", Type: table.Varchar})
	checkNoError(t, second.AppendRow("n1"))
	res := mustWrite(t, s, "silver/agents", second, WriteOptions{Mode: Overwrite, SchemaMode: SchemaOverwrite})
	if res.Version != 2 {
		t.Errorf("expected version 2, got %d", res.Version)
	}

	got, err := s.Read(ctx, "silver/agents")
	checkNoError(t, err)
	if diff := cmp.Diff([]string{"negotiator_id"}, got.Names()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]any{{"n1"}}, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestOverwriteKeepsMergedSchema(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := table.New(table.Column{Name: "id", Type: table.Varchar})
	checkNoError(t, first.AppendRow("p1"))
	mustWrite(t, s, "raw", first, appendMerge())

	second := table.New(table.Column{Name: "title", Type: table.Varchar})
	checkNoError(t, second.AppendRow("Flat"))
	mustWrite(t, s, "raw", second, WriteOptions{Mode: Overwrite, SchemaMode: SchemaMerge})

	got, err := s.Read(ctx, "raw")
	checkNoError(t, err)
	if diff := cmp.Diff([][]any{{nil, "Flat"}}, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestStrictRejectsSchemaChange(t *testing.T) {
	s := setupTestStore(t)

	first := table.New(table.Column{Name: "id", Type: table.Varchar})
	checkNoError(t, first.AppendRow("p1"))
	mustWrite(t, s, "raw", first, WriteOptions{Mode: Append, SchemaMode: SchemaStrict})

	second := table.New(
		table.Column{Name: "id", Type: table.Varchar},
		table.Column{Name: "extra", Type: table.Varchar},
	)
	checkNoError(t, second.AppendRow("p2", "x"))
	_, err := s.Write(context.Background(), "raw", second, WriteOptions{Mode: Append, SchemaMode: SchemaStrict})
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}

	count, err := s.Count(context.Background(), "raw")
	checkNoError(t, err)
	if count != 1 {
		t.Errorf("expected failed write to leave 1 row, got %d", count)
	}
}

func TestWriteRejectsUnnormalizedColumns(t *testing.T) {
	s := setupTestStore(t)

	tbl := table.New(table.Column{Name: "v", Type: table.Mixed})
	checkNoError(t, tbl.AppendRow("x"))
	if _, err := s.Write(context.Background(), "raw", tbl, appendMerge()); err == nil {
		t.Fatal("expected error for MIXED column")
	}
}

func TestDescribePartitionFiles(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, day := range []string{"2025-06-01", "2025-06-02"} {
		tbl := table.New(
			table.Column{Name: "_id", Type: table.Varchar},
			table.Column{Name: "ingestion_date", Type: table.Varchar},
		)
		checkNoError(t, tbl.AppendRow("p-"+day, day))
		checkNoError(t, tbl.AppendRow("q-"+day, day))
		mustWrite(t, s, "raw", tbl, WriteOptions{Mode: Append, SchemaMode: SchemaMerge, PartitionBy: "ingestion_date"})
	}

	info, err := s.Describe(ctx, "raw")
	checkNoError(t, err)

	if info.Version != 2 || info.Rows != 4 {
		t.Errorf("expected version 2 with 4 rows, got version %d rows %d", info.Version, info.Rows)
	}
	wantFiles := []string{"raw/ingestion_date=2025-06-01/v1", "raw/ingestion_date=2025-06-02/v2"}
	if diff := cmp.Diff(wantFiles, info.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if info.Commits[0].Mode != Append || info.Commits[0].Rows != 2 {
		t.Errorf("unexpected first commit: %+v", info.Commits[0])
	}
}

func TestDistinctAndReadColumns(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	tbl := table.New(
		table.Column{Name: "id", Type: table.Varchar},
		table.Column{Name: "title", Type: table.Varchar},
	)
	checkNoError(t, tbl.AppendRow("p1", "A"))
	checkNoError(t, tbl.AppendRow("p1", "B"))
	checkNoError(t, tbl.AppendRow(nil, "C"))
	mustWrite(t, s, "silver/property_details", tbl, appendMerge())

	ids, err := s.Distinct(ctx, "silver/property_details", "id")
	checkNoError(t, err)
	if diff := cmp.Diff([]any{"p1"}, ids); diff != "" {
		t.Errorf("distinct mismatch (-want +got):\n%s", diff)
	}

	missing, err := s.Distinct(ctx, "silver/property_details", "nope")
	checkNoError(t, err)
	if len(missing) != 0 {
		t.Errorf("expected no values for missing column, got %v", missing)
	}

	cols, err := s.ReadColumns(ctx, "silver/property_details", "title", "nope")
	checkNoError(t, err)
	if diff := cmp.Diff([]string{"title", "nope"}, cols.Names()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if cols.Len() != 3 {
		t.Errorf("expected 3 rows, got %d", cols.Len())
	}
}

func TestPaths(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, p := range []string{"silver/agents", "raw"} {
		tbl := table.New(table.Column{Name: "id", Type: table.Varchar})
		checkNoError(t, tbl.AppendRow("x"))
		mustWrite(t, s, p, tbl, appendMerge())
	}

	paths, err := s.Paths(ctx)
	checkNoError(t, err)
	if diff := cmp.Diff([]string{"raw", "silver/agents"}, paths); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestTableName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"raw", "raw", false},
		{"silver/property_details", "silver__property_details", false},
		{"/silver/agents/", "silver__agents", false},
		{"Delta-Table/raw", "delta_table__raw", false},
		{"2025/raw", "t2025__raw", false},
		{"_lake_tables", "t_lake_tables", false},
		{"", "", true},
		{"a//b", "", true},
	}
	for _, tt := range tests {
		got, err := TableName(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("TableName(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("TableName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestWriteAllIsAtomic(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := table.New(table.Column{Name: "id", Type: table.Varchar})
	checkNoError(t, base.AppendRow("x"))
	mustWrite(t, s, "silver/rooms", base, WriteOptions{Mode: Append})

	props := table.New(table.Column{Name: "id", Type: table.Varchar})
	checkNoError(t, props.AppendRow("p1"))
	drifted := table.New(
		table.Column{Name: "id", Type: table.Varchar},
		table.Column{Name: "room_name", Type: table.Varchar},
	)
	checkNoError(t, drifted.AppendRow("p1", "Bed1"))

	_, err := s.WriteAll(ctx, []Batch{
		{Path: "silver/properties", Table: props, Options: appendMerge()},
		{Path: "silver/rooms", Table: drifted, Options: WriteOptions{Mode: Append, SchemaMode: SchemaStrict}},
	})
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}

	exists, err := s.Exists(ctx, "silver/properties")
	checkNoError(t, err)
	if exists {
		t.Error("first batch committed despite failure of the second")
	}
	n, err := s.Count(ctx, "silver/rooms")
	checkNoError(t, err)
	if n != 1 {
		t.Errorf("rooms count = %d, want 1", n)
	}
}

func TestWriteAllSkipsEmptyBatches(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	full := table.New(table.Column{Name: "id", Type: table.Varchar})
	checkNoError(t, full.AppendRow("p1"))
	empty := table.New(table.Column{Name: "id", Type: table.Varchar})

	results, err := s.WriteAll(ctx, []Batch{
		{Path: "silver/a", Table: full, Options: appendMerge()},
		{Path: "silver/b", Table: empty, Options: appendMerge()},
	})
	checkNoError(t, err)
	if results[0].Version != 1 || results[1].Version != 0 {
		t.Errorf("versions = %d, %d; want 1, 0", results[0].Version, results[1].Version)
	}
	if exists, _ := s.Exists(ctx, "silver/b"); exists {
		t.Error("empty batch created a table")
	}
}
