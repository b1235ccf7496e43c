// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package lake

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/estatelake/internal/document"
	"github.com/tomtom215/estatelake/internal/table"
)

// Read returns every row of path in insertion order.
// Returns ErrNotFound when the path has no table.
func (s *Store) Read(ctx context.Context, path string) (*table.Table, error) {
	m, err := loadMeta(ctx, s.conn, path)
	if err != nil {
		return nil, err
	}
	return s.selectColumns(ctx, m, m.columns)
}

// ReadColumns returns the named columns of path in insertion order.
// Columns the table does not have are returned as all-nil columns typed NULL.
func (s *Store) ReadColumns(ctx context.Context, path string, names ...string) (*table.Table, error) {
	m, err := loadMeta(ctx, s.conn, path)
	if err != nil {
		return nil, err
	}

	cols := make([]table.Column, 0, len(names))
	var missing []string
	for _, n := range names {
		if i := m.index(n); i >= 0 {
			cols = append(cols, m.columns[i])
		} else {
			missing = append(missing, n)
		}
	}

	tbl, err := s.selectColumns(ctx, m, cols)
	if err != nil {
		return nil, err
	}
	for _, n := range missing {
		tbl.AddColumn(table.Column{Name: n, Type: table.Null}, nil)
	}
	return tbl, nil
}

// Distinct returns the distinct non-null values of column in path.
// A column the table does not have yields no values.
func (s *Store) Distinct(ctx context.Context, path, column string) ([]any, error) {
	m, err := loadMeta(ctx, s.conn, path)
	if err != nil {
		return nil, err
	}
	if m.index(column) < 0 {
		return nil, nil
	}

	rows, err := s.conn.QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL",
		quoteIdent(column), quoteIdent(m.tableName), quoteIdent(column)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s.%s: %w", path, column, err)
	}
	defer closeWithLog(rows, "rows")

	var values []any
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s.%s: %w", path, column, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s.%s: %w", path, column, err)
	}
	return values, nil
}

// Count returns the number of rows in path.
func (s *Store) Count(ctx context.Context, path string) (int64, error) {
	m, err := loadMeta(ctx, s.conn, path)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+quoteIdent(m.tableName)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", path, err)
	}
	return n, nil
}

func (s *Store) selectColumns(ctx context.Context, m *meta, cols []table.Column) (*table.Table, error) {
	tbl := table.New(cols...)
	if len(cols) == 0 {
		return tbl, nil
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quoteIdent(c.Name)
	}
	rows, err := s.conn.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(names, ", "), quoteIdent(m.tableName), quoteIdent(seqColumn)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", m.path, err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", m.path, err)
		}
		for i, c := range cols {
			if c.Type == table.JSON {
				values[i] = decodeJSON(values[i])
			}
		}
		tbl.Rows = append(tbl.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", m.path, err)
	}
	return tbl, nil
}

// decodeJSON restores a nested value stored as JSON text. Text that does not
// parse is returned unchanged.
func decodeJSON(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	decoded, err := document.DecodeValue([]byte(s))
	if err != nil {
		return v
	}
	return document.Normalize(decoded)
}
