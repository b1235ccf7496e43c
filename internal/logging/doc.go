// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

// Package logging provides centralized zerolog-based structured logging for Estatelake.
//
// Every pipeline stage reports a single status line per step (rows written,
// rows skipped, "no new records") through this package. Lines emitted with
// Ctx carry the run_id and stage of the current run so a day's ingest,
// silver build and warehouse merge can be correlated.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	ctx = logging.ContextWithRunID(ctx, logging.GenerateRunID())
//	ctx = logging.ContextWithStage(ctx, "silver")
//	logging.Ctx(ctx).Info().Str("path", path).Int("rows", n).Msg("Appended rows")
//
// # Configuration
//
// Environment Variables:
//
//	LOG_LEVEL   - Minimum log level: trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - Output format: json, console (default: json)
//	LOG_CALLER  - Include caller file:line: true, false (default: false)
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
package logging
