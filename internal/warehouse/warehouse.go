// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tomtom215/estatelake/internal/logging"
	"github.com/tomtom215/estatelake/internal/table"
)

// Config selects and locates the warehouse database.
type Config struct {
	// Driver is duckdb or postgres.
	Driver string

	// DSN is a DuckDB file path or a PostgreSQL connection string.
	DSN string
}

// Warehouse is a keyed SQL database receiving silver data.
type Warehouse struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the configured warehouse.
func Open(ctx context.Context, cfg Config) (*Warehouse, error) {
	d, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("warehouse dsn is required")
	}

	if d.Name == DuckDB.Name && cfg.DSN != ":memory:" {
		dir := filepath.Dir(cfg.DSN)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create warehouse directory %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open(d.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s warehouse: %w", d.Name, err)
	}
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to connect to %s warehouse: %w", d.Name, err)
	}

	logging.Debug().Str("driver", d.Name).Msg("Warehouse opened")
	return &Warehouse{db: db, dialect: d}, nil
}

// New wraps an existing connection.
func New(db *sql.DB, d Dialect) *Warehouse {
	return &Warehouse{db: db, dialect: d}
}

// Close closes the connection.
func (w *Warehouse) Close() error {
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close warehouse: %w", err)
	}
	return nil
}

// Dialect returns the warehouse dialect.
func (w *Warehouse) Dialect() Dialect {
	return w.dialect
}

// Count returns the row count of a warehouse table. A missing table counts
// as zero rows.
func (w *Warehouse) Count(ctx context.Context, name string) (int64, error) {
	exists, err := w.tableExists(ctx, w.db, name)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	return count(ctx, w.db, w.dialect, name)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func count(ctx context.Context, q querier, d Dialect, name string) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+d.Quote(name)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", name, err)
	}
	return n, nil
}

func (w *Warehouse) tableExists(ctx context.Context, q querier, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.tables
		 WHERE table_schema = current_schema() AND table_name = $1`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", name, err)
	}
	return n > 0, nil
}

// columns returns the existing columns of a table keyed by lower-case name.
func (w *Warehouse) columns(ctx context.Context, q querier, name string) (map[string]table.Column, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = $1`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}
	defer closeWithLog(rows, "rows")

	cols := make(map[string]table.Column)
	for rows.Next() {
		var col, dataType string
		if err := rows.Scan(&col, &dataType); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", name, err)
		}
		cols[strings.ToLower(col)] = table.Column{Name: col, Type: w.dialect.ParseType(dataType)}
	}
	return cols, rows.Err()
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
func closeQuietly(closer io.Closer) {
	_ = closer.Close()
}

// rollback aborts tx unless it already finished.
func rollback(tx *sql.Tx, cause error) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logging.Error().
			Err(err).
			AnErr("original_error", cause).
			Msg("Transaction rollback failed")
	}
}
