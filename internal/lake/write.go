// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package lake

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/estatelake/internal/logging"
	"github.com/tomtom215/estatelake/internal/table"
)

// Mode selects what happens to existing rows.
type Mode string

// Write modes.
const (
	Append    Mode = "append"
	Overwrite Mode = "overwrite"
)

// SchemaMode selects how batch columns are reconciled with the stored schema.
type SchemaMode string

// Schema modes.
const (
	// SchemaStrict rejects batches whose columns differ from the table.
	SchemaStrict SchemaMode = "strict"

	// SchemaMerge adds new columns and widens conflicting types.
	// Existing columns missing from the batch are stored as NULL.
	SchemaMerge SchemaMode = "merge"

	// SchemaOverwrite replaces the stored schema with the batch schema.
	// Only valid together with Overwrite.
	SchemaOverwrite SchemaMode = "overwrite"
)

// WriteOptions controls a single write.
type WriteOptions struct {
	Mode        Mode
	SchemaMode  SchemaMode
	PartitionBy string
}

// WriteResult reports a completed write.
type WriteResult struct {
	Path       string
	Version    int64
	Rows       int
	NewColumns []string
	Widened    []string
}

// Batch is one table destined for a lake path.
type Batch struct {
	Path    string
	Table   *table.Table
	Options WriteOptions
}

// Write stores tbl at path in a single transaction.
// A batch with no rows is a no-op and leaves the version unchanged.
func (s *Store) Write(ctx context.Context, path string, tbl *table.Table, opts WriteOptions) (*WriteResult, error) {
	results, err := s.WriteAll(ctx, []Batch{{Path: path, Table: tbl, Options: opts}})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// WriteAll stores several batches in one transaction: either every batch is
// committed or none is. Empty batches are skipped.
func (s *Store) WriteAll(ctx context.Context, batches []Batch) (results []*WriteResult, err error) {
	names := make([]string, len(batches))
	for n := range batches {
		b := &batches[n]
		if b.Options.Mode == "" {
			b.Options.Mode = Append
		}
		if b.Options.SchemaMode == "" {
			b.Options.SchemaMode = SchemaStrict
		}
		if b.Options.SchemaMode == SchemaOverwrite && b.Options.Mode != Overwrite {
			return nil, ErrSchemaOverwriteNeedsOverwrite
		}
		if names[n], err = TableName(b.Path); err != nil {
			return nil, err
		}
		if !b.Table.Empty() {
			if err := checkColumns(b.Table, b.Options.PartitionBy); err != nil {
				return nil, fmt.Errorf("cannot write %s: %w", b.Path, err)
			}
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx, err)
		}
	}()

	results = make([]*WriteResult, len(batches))
	for n, b := range batches {
		if results[n], err = writeBatch(ctx, tx, names[n], b); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, res := range results {
		if res.Rows == 0 {
			continue
		}
		logging.Debug().
			Str("path", res.Path).
			Int64("version", res.Version).
			Int("rows", res.Rows).
			Strs("new_columns", res.NewColumns).
			Msg("Lake commit")
	}
	return results, nil
}

func writeBatch(ctx context.Context, tx *sql.Tx, tableName string, b Batch) (*WriteResult, error) {
	res := &WriteResult{Path: b.Path, Rows: b.Table.Len()}

	m, err := loadMeta(ctx, tx, b.Path)
	if b.Table.Empty() {
		switch {
		case isNotFound(err):
			return res, nil
		case err != nil:
			return nil, err
		}
		res.Version = m.version
		return res, nil
	}

	switch {
	case isNotFound(err):
		m, err = createTable(ctx, tx, b.Path, tableName, b.Table.Columns, b.Options.PartitionBy)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := prepareExisting(ctx, tx, m, b.Table.Columns, b.Options, res); err != nil {
			return nil, err
		}
	}

	if err := insertRows(ctx, tx, m, b.Table); err != nil {
		return nil, err
	}

	res.Version = m.version + 1
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO _lake_commits (path, version, mode, schema_mode, rows, partitions, committed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Path, res.Version, string(b.Options.Mode), string(b.Options.SchemaMode), int64(b.Table.Len()),
		strings.Join(partitionValues(b.Table, m.partitionBy), ","), time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to record commit for %s: %w", b.Path, err)
	}
	return res, nil
}

func checkColumns(tbl *table.Table, partitionBy string) error {
	seen := make(map[string]bool, len(tbl.Columns))
	for _, c := range tbl.Columns {
		if !c.Type.Valid() {
			return fmt.Errorf("column %q has unstorable type %s", c.Name, c.Type)
		}
		key := strings.ToLower(c.Name)
		if seen[key] {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		if key == seqColumn {
			return fmt.Errorf("column name %q is reserved", c.Name)
		}
		seen[key] = true
	}
	if partitionBy != "" && !seen[strings.ToLower(partitionBy)] {
		return fmt.Errorf("partition column %q missing from batch", partitionBy)
	}
	return nil
}

func createTable(ctx context.Context, tx *sql.Tx, path, tableName string, cols []table.Column, partitionBy string) (*meta, error) {
	defs := make([]string, 0, len(cols)+1)
	defs = append(defs, quoteIdent(seqColumn)+" BIGINT NOT NULL")
	for _, c := range cols {
		defs = append(defs, quoteIdent(c.Name)+" "+physicalType(c.Type))
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)",
		quoteIdent(tableName), strings.Join(defs, ", "))); err != nil {
		return nil, fmt.Errorf("failed to create table for %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO _lake_tables (path, table_name, partition_by, created_at) VALUES (?, ?, ?, ?)`,
		path, tableName, partitionBy, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", path, err)
	}

	m := &meta{path: path, tableName: tableName, partitionBy: partitionBy}
	for _, c := range cols {
		if err := addCatalogColumn(ctx, tx, m, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// prepareExisting reconciles an existing table with the batch according to
// the write options.
func prepareExisting(ctx context.Context, tx *sql.Tx, m *meta, cols []table.Column, opts WriteOptions, res *WriteResult) error {
	if opts.Mode == Overwrite && opts.SchemaMode == SchemaOverwrite {
		if _, err := tx.ExecContext(ctx, "DROP TABLE "+quoteIdent(m.tableName)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", m.path, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM _lake_tables WHERE path = ?`, m.path); err != nil {
			return fmt.Errorf("failed to unregister %s: %w", m.path, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM _lake_columns WHERE path = ?`, m.path); err != nil {
			return fmt.Errorf("failed to clear columns of %s: %w", m.path, err)
		}
		partitionBy := opts.PartitionBy
		if partitionBy == "" {
			partitionBy = m.partitionBy
		}
		fresh, err := createTable(ctx, tx, m.path, m.tableName, cols, partitionBy)
		if err != nil {
			return err
		}
		fresh.version = m.version
		*m = *fresh
		return nil
	}

	if opts.SchemaMode == SchemaStrict {
		if err := checkStrict(m, cols); err != nil {
			return err
		}
	} else if err := mergeSchema(ctx, tx, m, cols, res); err != nil {
		return err
	}

	if opts.Mode == Overwrite {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+quoteIdent(m.tableName)); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", m.path, err)
		}
	}
	return nil
}

// mergeSchema adds missing columns and widens conflicting ones.
func mergeSchema(ctx context.Context, tx *sql.Tx, m *meta, cols []table.Column, res *WriteResult) error {
	for _, c := range cols {
		i := m.index(c.Name)
		if i < 0 {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
				quoteIdent(m.tableName), quoteIdent(c.Name), physicalType(c.Type))); err != nil {
				return fmt.Errorf("failed to add column %s to %s: %w", c.Name, m.path, err)
			}
			if err := addCatalogColumn(ctx, tx, m, c); err != nil {
				return err
			}
			res.NewColumns = append(res.NewColumns, c.Name)
			continue
		}

		current := m.columns[i].Type
		widened := table.Widen(current, c.Type)
		if widened == current {
			continue
		}
		if physicalType(widened) != physicalType(current) {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s",
				quoteIdent(m.tableName), quoteIdent(c.Name), physicalType(widened))); err != nil {
				return fmt.Errorf("failed to widen column %s of %s: %w", c.Name, m.path, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE _lake_columns SET type = ? WHERE path = ? AND name = ?`,
			string(widened), m.path, c.Name); err != nil {
			return fmt.Errorf("failed to record widened column %s of %s: %w", c.Name, m.path, err)
		}
		m.columns[i].Type = widened
		res.Widened = append(res.Widened, c.Name)
	}
	return nil
}

func checkStrict(m *meta, cols []table.Column) error {
	if len(cols) != len(m.columns) {
		return fmt.Errorf("%w: %s has %d columns, batch has %d", ErrSchemaMismatch, m.path, len(m.columns), len(cols))
	}
	for _, c := range cols {
		i := m.index(c.Name)
		if i < 0 {
			return fmt.Errorf("%w: %s has no column %q", ErrSchemaMismatch, m.path, c.Name)
		}
		if table.Widen(m.columns[i].Type, c.Type) != m.columns[i].Type {
			return fmt.Errorf("%w: column %q is %s, batch has %s", ErrSchemaMismatch, c.Name, m.columns[i].Type, c.Type)
		}
	}
	return nil
}

func addCatalogColumn(ctx context.Context, tx *sql.Tx, m *meta, c table.Column) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO _lake_columns (path, name, type, position) VALUES (?, ?, ?, ?)`,
		m.path, c.Name, string(c.Type), len(m.columns)); err != nil {
		return fmt.Errorf("failed to register column %s of %s: %w", c.Name, m.path, err)
	}
	m.columns = append(m.columns, c)
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, m *meta, tbl *table.Table) error {
	var nextSeq int64
	if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) FROM %s",
		quoteIdent(seqColumn), quoteIdent(m.tableName))).Scan(&nextSeq); err != nil {
		return fmt.Errorf("failed to read sequence of %s: %w", m.path, err)
	}

	names := make([]string, 0, len(tbl.Columns)+1)
	marks := make([]string, 0, len(tbl.Columns)+1)
	names = append(names, quoteIdent(seqColumn))
	marks = append(marks, "?")
	types := make([]table.Type, len(tbl.Columns))
	for i, c := range tbl.Columns {
		names = append(names, quoteIdent(c.Name))
		marks = append(marks, "?")
		types[i] = m.columns[m.index(c.Name)].Type
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(m.tableName), strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w", m.path, err)
	}
	defer closeWithLog(stmt, "statement")

	args := make([]any, len(tbl.Columns)+1)
	for r, row := range tbl.Rows {
		nextSeq++
		args[0] = nextSeq
		for i, v := range row {
			args[i+1] = table.Conform(v, types[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", r, m.path, err)
		}
	}
	return nil
}

// partitionValues returns the distinct partition values of the batch in order.
func partitionValues(tbl *table.Table, partitionBy string) []string {
	if partitionBy == "" {
		return nil
	}
	i := tbl.Index(partitionBy)
	if i < 0 {
		return nil
	}
	set := make(map[string]bool)
	for _, row := range tbl.Rows {
		set[table.Stringify(row[i])] = true
	}
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
