// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

// Package warehouse merges the silver tables into keyed warehouse tables.
//
// Each silver table maps to a warehouse table with a declared primary key.
// A merge reads the full silver content and upserts every row: new keys are
// inserted, existing keys have every non-key column overwritten. Re-merging
// unchanged silver content leaves row counts unchanged.
//
// Two SQL dialects are supported: DuckDB (default, a local file) and
// PostgreSQL through the pgx database/sql driver.
package warehouse
