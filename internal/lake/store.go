// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package lake

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/estatelake/internal/logging"
)

// Config configures the DuckDB file backing the lake.
type Config struct {
	// Path of the DuckDB database file. ":memory:" keeps the lake in memory.
	Path string

	// Threads used by DuckDB. Zero uses the number of CPUs.
	Threads int

	// MaxMemory caps DuckDB memory, e.g. "1GB".
	MaxMemory string
}

// Store is a versioned table store. Each lake path ("raw",
// "silver/property_details") maps to one DuckDB table. Every write is one
// transaction recorded as a commit in the catalog, so a table's version is
// its commit count.
type Store struct {
	conn *sql.DB
	cfg  Config

	// writeMu serializes writes so catalog versions stay gapless.
	writeMu sync.Mutex
}

// Open opens (or creates) the lake database and its catalog tables.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("lake path is required")
	}
	if cfg.MaxMemory == "" {
		cfg.MaxMemory = "1GB"
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	if cfg.Path != ":memory:" {
		dir := filepath.Dir(cfg.Path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create lake directory %s: %w", dir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open lake database: %w", err)
	}
	configureConnectionPool(conn)

	s := &Store{conn: conn, cfg: cfg}
	if err := s.initCatalog(context.Background()); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize lake catalog: %w", err)
	}

	logging.Debug().Str("path", cfg.Path).Msg("Lake store opened")
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close lake database: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func configureConnectionPool(conn *sql.DB) {
	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)
}

var catalogSchema = []string{
	`CREATE TABLE IF NOT EXISTS _lake_tables (
		path          VARCHAR NOT NULL,
		table_name    VARCHAR NOT NULL,
		partition_by  VARCHAR NOT NULL DEFAULT '',
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS _lake_columns (
		path      VARCHAR NOT NULL,
		name      VARCHAR NOT NULL,
		type      VARCHAR NOT NULL,
		position  INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS _lake_commits (
		path          VARCHAR NOT NULL,
		version       BIGINT NOT NULL,
		mode          VARCHAR NOT NULL,
		schema_mode   VARCHAR NOT NULL,
		rows          BIGINT NOT NULL,
		partitions    VARCHAR NOT NULL DEFAULT '',
		committed_at  TIMESTAMP NOT NULL
	)`,
}

func (s *Store) initCatalog(ctx context.Context) error {
	for _, stmt := range catalogSchema {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
