// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

// Package ingest loads one day of scraped listings from the staging object
// store into the raw lake table.
//
// The scrapers export a newline-delimited JSON file per day under a templated
// key (raw/scraped_data_{date}/scraped_data_{date}.ndjson by default). The
// Ingester reads that file, builds a table whose columns are the union of all
// top-level keys, tags every row with an ingestion_date partition value,
// normalizes the schema and appends it to the raw table with schema merge.
//
// A missing daily file is not an error: the run reports no data and writes
// nothing. A single malformed line fails the whole batch so a partial day is
// never committed.
package ingest
