// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package lake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/estatelake/internal/table"
)

// Commit is one recorded write.
type Commit struct {
	Version     int64
	Mode        Mode
	SchemaMode  SchemaMode
	Rows        int64
	Partitions  []string
	CommittedAt time.Time
}

// Info describes a lake table.
type Info struct {
	Path        string
	Table       string
	PartitionBy string
	Version     int64
	Rows        int64
	Columns     []table.Column
	Commits     []Commit
	Files       []string
}

// meta is the catalog entry of one path.
type meta struct {
	path        string
	tableName   string
	partitionBy string
	columns     []table.Column
	version     int64
}

// index finds a column by name. DuckDB identifiers are case-insensitive.
func (m *meta) index(name string) int {
	for i, c := range m.columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// loadMeta reads the catalog entry of path. Returns ErrNotFound when the
// path has never been written.
func loadMeta(ctx context.Context, q querier, path string) (*meta, error) {
	m := &meta{path: path}
	err := q.QueryRowContext(ctx,
		`SELECT table_name, partition_by FROM _lake_tables WHERE path = ?`, path).
		Scan(&m.tableName, &m.partitionBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog for %s: %w", path, err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT name, type FROM _lake_columns WHERE path = ? ORDER BY position`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns for %s: %w", path, err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, fmt.Errorf("failed to scan column for %s: %w", path, err)
		}
		m.columns = append(m.columns, table.Column{Name: name, Type: table.Type(typ)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate columns for %s: %w", path, err)
	}

	if err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM _lake_commits WHERE path = ?`, path).
		Scan(&m.version); err != nil {
		return nil, fmt.Errorf("failed to read version for %s: %w", path, err)
	}
	return m, nil
}

// Exists reports whether path has a table.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM _lake_tables WHERE path = ?`, path).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", path, err)
	}
	return n > 0, nil
}

// Paths lists every lake path in lexical order.
func (s *Store) Paths(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT path FROM _lake_tables ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list lake paths: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan lake path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Version returns the current version of path.
func (s *Store) Version(ctx context.Context, path string) (int64, error) {
	m, err := loadMeta(ctx, s.conn, path)
	if err != nil {
		return 0, err
	}
	return m.version, nil
}

// Describe returns schema, size and commit history of path.
func (s *Store) Describe(ctx context.Context, path string) (*Info, error) {
	m, err := loadMeta(ctx, s.conn, path)
	if err != nil {
		return nil, err
	}

	info := &Info{
		Path:        path,
		Table:       m.tableName,
		PartitionBy: m.partitionBy,
		Version:     m.version,
		Columns:     m.columns,
	}

	if err := s.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(m.tableName))).Scan(&info.Rows); err != nil {
		return nil, fmt.Errorf("failed to count rows of %s: %w", path, err)
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT version, mode, schema_mode, rows, partitions, committed_at
		 FROM _lake_commits WHERE path = ? ORDER BY version`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read commits of %s: %w", path, err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var c Commit
		var mode, schemaMode, partitions string
		if err := rows.Scan(&c.Version, &mode, &schemaMode, &c.Rows, &partitions, &c.CommittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commit of %s: %w", path, err)
		}
		c.Mode = Mode(mode)
		c.SchemaMode = SchemaMode(schemaMode)
		if partitions != "" {
			c.Partitions = strings.Split(partitions, ",")
		}
		info.Commits = append(info.Commits, c)
		info.Files = append(info.Files, commitFiles(path, m.partitionBy, c)...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate commits of %s: %w", path, err)
	}
	return info, nil
}

// commitFiles names the data files a commit produced, one per partition:
// raw/ingestion_date=2025-06-01/v3.
func commitFiles(path, partitionBy string, c Commit) []string {
	if partitionBy == "" || len(c.Partitions) == 0 {
		return []string{fmt.Sprintf("%s/v%d", path, c.Version)}
	}
	files := make([]string, len(c.Partitions))
	for i, p := range c.Partitions {
		files[i] = fmt.Sprintf("%s/%s=%s/v%d", path, partitionBy, p, c.Version)
	}
	return files
}
