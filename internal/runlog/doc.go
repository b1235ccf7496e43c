// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

// Package runlog records pipeline stage runs so operators can see when each
// stage last ran and last succeeded.
//
// Entries are kept in BadgerDB under three key families:
//
//	runlog:last:<stage>                   most recent run
//	runlog:ok:<stage>                     most recent successful run
//	runlog:history:<stage>:<start>:<id>   every run, ordered by start time
//
// The ledger is advisory. Pipeline stages log, but never fail on, a ledger
// write error.
package runlog
