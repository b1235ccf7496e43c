// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/estatelake/internal/blobstore"
	"github.com/tomtom215/estatelake/internal/lake"
)

const testBucket = "staging"

func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	checkNoError(t, err)
	return d
}

type testEnv struct {
	blobs    *blobstore.MemoryStore
	lake     *lake.Store
	reader   *Reader
	ingester *Ingester
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	blobs := blobstore.NewMemoryStore()
	checkNoError(t, blobs.CreateBucket(context.Background(), testBucket))

	store, err := lake.Open(lake.Config{Path: ":memory:", MaxMemory: "512MB", Threads: 1})
	checkNoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	reader := NewReader(blobs, testBucket, "")
	return &testEnv{
		blobs:    blobs,
		lake:     store,
		reader:   reader,
		ingester: NewIngester(reader, store, "raw"),
	}
}

func (e *testEnv) stage(t *testing.T, date, body string) {
	t.Helper()
	_, err := e.reader.Stage(context.Background(), day(t, date), []byte(body))
	checkNoError(t, err)
}

func TestParseNDJSONSkipsBlankLines(t *testing.T) {
	t.Parallel()

	docs, err := ParseNDJSON(strings.NewReader("{\"_id\":\"p1\"}\n\n   \n{\"_id\":\"p2\"}\n"))
	checkNoError(t, err)
	if len(docs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(docs))
	}
}

func TestParseNDJSONMalformedLine(t *testing.T) {
	t.Parallel()

	_, err := ParseNDJSON(strings.NewReader("{\"_id\":\"p1\"}\n{\"_id\":\n"))

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Line != 2 {
		t.Errorf("expected line 2, got %d", perr.Line)
	}
	if !errors.Is(err, ErrParse) {
		t.Error("expected errors.Is(err, ErrParse)")
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2025-06-01")
	checkNoError(t, err)
	if d.Year() != 2025 || d.Month() != time.June || d.Day() != 1 {
		t.Errorf("unexpected date %v", d)
	}

	for _, bad := range []string{"", "2025/06/01", "2025-13-01", "yesterday"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrParse) {
			t.Errorf("ParseDate(%q) expected ErrParse, got %v", bad, err)
		}
	}
}

func TestReaderNoData(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.reader.Read(context.Background(), day(t, "2025-06-01"))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestIngestAppendsDailyPartitions(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.stage(t, "2025-06-01", `{"_id":"p1","price":100,"title":"Flat"}
{"_id":"p2","price":200,"title":"House"}
`)
	env.stage(t, "2025-06-02", `{"_id":"p3","price":150.5,"bedroom":2}
`)

	first, err := env.ingester.Ingest(ctx, day(t, "2025-06-01"))
	checkNoError(t, err)
	if first.Records != 2 || first.Version != 1 {
		t.Errorf("unexpected first stats: %+v", first)
	}

	second, err := env.ingester.Ingest(ctx, day(t, "2025-06-02"))
	checkNoError(t, err)
	if diff := cmp.Diff([]string{"bedroom"}, second.NewColumns); diff != "" {
		t.Errorf("new columns mismatch (-want +got):\n%s", diff)
	}

	raw, err := env.lake.Read(ctx, "raw")
	checkNoError(t, err)
	if raw.Len() != 3 {
		t.Fatalf("expected 3 raw rows, got %d", raw.Len())
	}
	if got := raw.Value(2, PartitionColumn); got != "2025-06-02" {
		t.Errorf("expected partition 2025-06-02, got %v", got)
	}
	if got := raw.Value(0, "bedroom"); got != nil {
		t.Errorf("expected nil bedroom for first day, got %v", got)
	}
	if got := raw.Value(2, "price"); got != 150.5 {
		t.Errorf("expected widened price 150.5, got %#v", got)
	}

	info, err := env.lake.Describe(ctx, "raw")
	checkNoError(t, err)
	wantFiles := []string{"raw/ingestion_date=2025-06-01/v1", "raw/ingestion_date=2025-06-02/v2"}
	if diff := cmp.Diff(wantFiles, info.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestIngestNoDataWritesNothing(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	stats, err := env.ingester.Ingest(ctx, day(t, "2025-06-01"))
	checkNoError(t, err)
	if !stats.NoData {
		t.Error("expected NoData to be set")
	}

	exists, err := env.lake.Exists(ctx, "raw")
	checkNoError(t, err)
	if exists {
		t.Error("expected no raw table after empty run")
	}
}

func TestIngestMalformedWritesNothing(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.stage(t, "2025-06-01", "{\"_id\":\"p1\"}\nnot json\n")

	_, err := env.ingester.Ingest(ctx, day(t, "2025-06-01"))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}

	exists, err := env.lake.Exists(ctx, "raw")
	checkNoError(t, err)
	if exists {
		t.Error("expected malformed batch not to be written")
	}
}

func TestIngestNormalizesSchema(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.stage(t, "2025-06-01", `{"_id":"p1","unused":null,"reception":"one","result":{"pageContext":{"propertyData":{"_id":"p1"}}}}
{"_id":"p2","unused":null,"reception":1}
`)

	stats, err := env.ingester.Ingest(ctx, day(t, "2025-06-01"))
	checkNoError(t, err)

	if diff := cmp.Diff([]string{"unused"}, stats.DroppedNull); diff != "" {
		t.Errorf("dropped mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"reception", "result"}, stats.Coerced); diff != "" {
		t.Errorf("coerced mismatch (-want +got):\n%s", diff)
	}

	raw, err := env.lake.Read(ctx, "raw")
	checkNoError(t, err)
	if raw.Index("unused") != -1 {
		t.Error("expected all-null column to be dropped")
	}
	if got := raw.Value(1, "reception"); got != "1" {
		t.Errorf("expected reception coerced to text, got %#v", got)
	}
	nested, ok := raw.Value(0, "result").(map[string]any)
	if !ok {
		t.Fatalf("expected nested result to round-trip as object, got %T", raw.Value(0, "result"))
	}
	if _, ok := nested["pageContext"]; !ok {
		t.Errorf("expected pageContext inside result, got %v", nested)
	}
}
