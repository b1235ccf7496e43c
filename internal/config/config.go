// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package config

import (
	"strings"

	"github.com/tomtom215/estatelake/internal/blobstore"
	"github.com/tomtom215/estatelake/internal/logging"
	"github.com/tomtom215/estatelake/internal/silver"
)

// Config holds all pipeline configuration.
type Config struct {
	Blob      BlobConfig      `koanf:"blob"`
	Lake      LakeConfig      `koanf:"lake"`
	Silver    SilverConfig    `koanf:"silver"`
	Warehouse WarehouseConfig `koanf:"warehouse"`
	RunLog    RunLogConfig    `koanf:"runlog"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// BlobConfig locates the staging object store holding daily exports.
//
// Environment Variables:
//   - MINIO_ENDPOINT_URL: S3 API endpoint (required)
//   - MINIO_ACCESS_KEY_ID: access key (required)
//   - MINIO_SECRET_ACCESS_KEY: secret key (required)
//   - MINIO_REGION: signing region (default: us-east-1)
//   - MINIO_USE_PATH_STYLE: path-style addressing (default: true)
//   - BUCKET_NAME: bucket holding exports (default: staging)
//   - OBJECT_NAME_TEMPLATE: object key with a {date} placeholder
type BlobConfig struct {
	Endpoint        string `koanf:"endpoint" validate:"required,url"`
	Region          string `koanf:"region"`
	AccessKeyID     string `koanf:"access_key_id" validate:"required"`
	SecretAccessKey string `koanf:"secret_access_key" validate:"required"`
	UsePathStyle    bool   `koanf:"use_path_style"`
	Bucket          string `koanf:"bucket" validate:"required"`
	ObjectTemplate  string `koanf:"object_template" validate:"objecttemplate"`
}

// S3 returns the S3 client configuration.
func (c *BlobConfig) S3() blobstore.S3Config {
	return blobstore.S3Config{
		Endpoint:        c.Endpoint,
		Region:          c.Region,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		UsePathStyle:    c.UsePathStyle,
	}
}

// LakeConfig holds the DuckDB lake settings.
//
// Environment Variables:
//   - LAKE_PATH: DuckDB file backing the lake (default: data/lake.duckdb)
//   - LAKE_MAX_MEMORY: DuckDB memory cap (default: 1GB)
//   - LAKE_THREADS: DuckDB threads, 0 = all CPUs (default: 0)
//   - LAKE_RAW_PATH: raw table path (default: raw)
//   - LAKE_SILVER_PREFIX: prefix of the silver table paths (default: silver)
type LakeConfig struct {
	Path         string `koanf:"path" validate:"required"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads" validate:"min=0,max=256"`
	RawPath      string `koanf:"raw_path" validate:"lakepath"`
	SilverPrefix string `koanf:"silver_prefix" validate:"lakepath"`
}

// SilverPaths returns the lake path of every silver table.
func (c *LakeConfig) SilverPaths() silver.Paths {
	return silver.DefaultPaths(c.SilverPrefix)
}

// SilverConfig holds silver build settings.
//
// Environment Variables:
//   - SILVER_PROPERTY_ROOT: dotted path of the property object in a raw record
//     (default: result.pageContext.propertyData)
//   - SILVER_CONCURRENCY: extractors run at once (default: 1)
type SilverConfig struct {
	PropertyRoot string `koanf:"property_root"`
	Concurrency  int    `koanf:"concurrency" validate:"min=0,max=64"`
}

// Root returns the property root as path segments.
func (c *SilverConfig) Root() []string {
	if c.PropertyRoot == "" {
		return nil
	}
	return strings.Split(c.PropertyRoot, ".")
}

// WarehouseConfig selects the merge target.
//
// Environment Variables:
//   - WAREHOUSE_DRIVER: duckdb or postgres (default: duckdb)
//   - WAREHOUSE_DSN: DuckDB file or PostgreSQL URL (default: data/warehouse.duckdb)
//   - WAREHOUSE_TABLE_PREFIX: prefix added to warehouse table names
type WarehouseConfig struct {
	Driver      string `koanf:"driver" validate:"oneof=duckdb postgres"`
	DSN         string `koanf:"dsn" validate:"required"`
	TablePrefix string `koanf:"table_prefix"`
}

// RunLogConfig holds the run ledger settings.
//
// Environment Variables:
//   - RUNLOG_ENABLED: record stage runs (default: true)
//   - RUNLOG_PATH: BadgerDB directory (default: data/runlog)
type RunLogConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path" validate:"required_if=Enabled true"`
}

// MetricsConfig holds Prometheus settings.
//
// Environment Variables:
//   - PUSHGATEWAY_URL: push metrics here after each command (optional)
//   - METRICS_JOB: Pushgateway job name (default: estatelake)
type MetricsConfig struct {
	PushgatewayURL string `koanf:"pushgateway_url" validate:"omitempty,url"`
	Job            string `koanf:"job"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// LoggingOptions returns the logging package configuration.
func (c *LoggingConfig) LoggingOptions() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Level
	cfg.Format = c.Format
	cfg.Caller = c.Caller
	return cfg
}
