// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

// Package main is the entry point for the estatelake command.
//
// estatelake moves daily real-estate listing exports from a staging bucket
// into a DuckDB lake, derives six normalized silver tables from the new
// listings and upserts them into a warehouse.
//
// # Commands
//
//	estatelake ingest [--date YYYY-MM-DD]   append one day's export to the raw table
//	estatelake stage <file> [--date ...]    upload a local export to the staging bucket
//	estatelake silver                       build silver tables from new raw records
//	estatelake merge                        upsert silver tables into the warehouse
//	estatelake run [--date ...] [--merge]   ingest then silver (then merge)
//	estatelake describe <path>              show schema and commits of a lake table
//	estatelake bucket ensure                create the staging bucket if missing
//	estatelake status                       last runs and lake table sizes
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (MINIO_ENDPOINT_URL, BUCKET_NAME, LAKE_PATH, ...)
//   - Config file (estatelake.yaml, config.yaml or CONFIG_PATH)
//   - Built-in defaults
//
// A .env file in the working directory is loaded first.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the running stage. Lake writes are
// transactional, so an interrupted stage leaves no partial commit.
//
// # Exit Codes
//
// The command exits 1 when a stage fails and 0 otherwise, including when
// there was no export for the requested day.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/estatelake/cmd/estatelake/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := commands.ExecuteContext(ctx)
	stop()
	os.Exit(code)
}
