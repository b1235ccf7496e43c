// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

// Package config loads and validates pipeline configuration.
//
// Configuration is layered with koanf: built-in defaults, then an optional
// YAML file (CONFIG_PATH, estatelake.yaml, config.yaml, config.yml or
// /etc/estatelake/config.yaml), then environment variables. A .env file in
// the working directory is loaded into the environment first without
// overriding variables that are already set.
//
// Environment variable names match those used by the scraper that produces
// the daily exports (MINIO_ENDPOINT_URL, BUCKET_NAME, OBJECT_NAME_TEMPLATE,
// ...). Only mapped variables are read.
//
// Load validates eagerly: a missing endpoint, credential or bucket fails
// before any component is constructed.
//
// Example config.yaml:
//
//	blob:
//	  endpoint: http://minio:9000
//	  bucket: staging
//	lake:
//	  path: /data/lake.duckdb
//	warehouse:
//	  driver: postgres
//	  dsn: postgres://estatelake@db/estatelake
package config
