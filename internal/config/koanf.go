// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/estatelake/internal/blobstore"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"estatelake.yaml",
	"config.yaml",
	"config.yml",
	"/etc/estatelake/config.yaml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvFile is preloaded into the environment when present.
const DotEnvFile = ".env"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Blob: BlobConfig{
			Region:         "us-east-1",
			UsePathStyle:   true,
			Bucket:         "staging",
			ObjectTemplate: blobstore.DefaultObjectTemplate,
		},
		Lake: LakeConfig{
			Path:         "data/lake.duckdb",
			MaxMemory:    "1GB",
			Threads:      0, // 0 = use runtime.NumCPU()
			RawPath:      "raw",
			SilverPrefix: "silver",
		},
		Silver: SilverConfig{
			PropertyRoot: "result.pageContext.propertyData",
			Concurrency:  1,
		},
		Warehouse: WarehouseConfig{
			Driver: "duckdb",
			DSN:    "data/warehouse.duckdb",
		},
		RunLog: RunLogConfig{
			Enabled: true,
			Path:    "data/runlog",
		},
		Metrics: MetricsConfig{
			Job: "estatelake",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using a layered approach:
//  1. Defaults: built-in defaults
//  2. Config File: optional YAML config file (if exists)
//  3. Environment Variables: override any setting
//
// A .env file in the working directory is loaded into the environment
// first; variables already set are not overridden. The result is validated
// before it is returned.
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}
	return LoadFile(findConfigFile())
}

// LoadFile loads defaults, the YAML file at path (skipped when empty) and
// the environment.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// MINIO_ENDPOINT_URL -> blob.endpoint
	// LAKE_PATH -> lake.path
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps environment variable names (lower-cased) to config keys.
var envMappings = map[string]string{
	// Object store (names shared with the scraper)
	"minio_endpoint_url":      "blob.endpoint",
	"minio_access_key_id":     "blob.access_key_id",
	"minio_secret_access_key": "blob.secret_access_key",
	"minio_region":            "blob.region",
	"minio_use_path_style":    "blob.use_path_style",
	"bucket_name":             "blob.bucket",
	"object_name_template":    "blob.object_template",

	// Lake
	"lake_path":          "lake.path",
	"lake_max_memory":    "lake.max_memory",
	"lake_threads":       "lake.threads",
	"lake_raw_path":      "lake.raw_path",
	"lake_silver_prefix": "lake.silver_prefix",

	// Silver build
	"silver_property_root": "silver.property_root",
	"silver_concurrency":   "silver.concurrency",

	// Warehouse
	"warehouse_driver":       "warehouse.driver",
	"warehouse_dsn":          "warehouse.dsn",
	"warehouse_table_prefix": "warehouse.table_prefix",

	// Run ledger
	"runlog_enabled": "runlog.enabled",
	"runlog_path":    "runlog.path",

	// Metrics
	"pushgateway_url": "metrics.pushgateway_url",
	"metrics_job":     "metrics.job",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped so unrelated environment
// variables never reach the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
