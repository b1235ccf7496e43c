// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

//go:build integration

package warehouse

import (
	"context"
	"testing"

	"github.com/tomtom215/estatelake/internal/silver"
	"github.com/tomtom215/estatelake/internal/testinfra"
)

func TestMergeIntoPostgres(t *testing.T) {
	testinfra.SkipIfNoDocker(t)
	ctx := context.Background()

	pg, err := testinfra.NewPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to start Postgres: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, pg)

	w, err := Open(ctx, Config{Driver: "postgres", DSN: pg.DSN})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = w.Close() }()

	s := setupTestLake(t)
	appendSilver(t, s, silver.TableProperties, propCols,
		[]any{"p1", 100000.0, ts},
		[]any{"p2", 200000.0, ts})

	m := newTestMerger(s, w)
	first, err := m.Merge(ctx)
	checkNoError(t, err)
	if d := result(t, first, silver.TableProperties).Delta(); d != 2 {
		t.Errorf("first delta = %d, want 2", d)
	}

	second, err := m.Merge(ctx)
	checkNoError(t, err)
	if d := second.Delta(); d != 0 {
		t.Errorf("re-merge delta = %d, want 0", d)
	}
}
