// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

// Package pipeline runs the ingest, silver and merge stages against the
// configured object store, lake and warehouse.
//
// Every stage runs under a run ID carried in the context so all of its log
// lines can be correlated. A stage records its duration and outcome in the
// Prometheus stage metrics and, when a ledger is configured, appends an
// entry to the run ledger. Ledger failures are logged and never fail the
// stage.
//
// Run executes ingest followed by the silver build under one run ID. Merge
// is separate because the warehouse may live on another host and is
// refreshed on its own schedule.
package pipeline
