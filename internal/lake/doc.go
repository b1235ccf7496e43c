// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

// Package lake implements the versioned, schema-evolving table store backing
// the raw and silver layers.
//
// Tables are addressed by slash-separated paths ("raw", "silver/agents") and
// live in a single DuckDB database next to three catalog tables:
//
//	_lake_tables   path, physical table name, partition column
//	_lake_columns  logical schema per path (JSON kind is kept here)
//	_lake_commits  one row per write: version, mode, rows, partitions
//
// Writes are atomic. A failed write leaves neither rows, schema changes nor a
// commit behind.
package lake
