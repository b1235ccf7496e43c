// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

// Package table is the in-memory columnar batch passed between pipeline
// stages and the lake store.
//
// A Table holds an ordered column set and row-major values. Values are plain
// Go values: nil, bool, int64, float64, string, time.Time, map[string]any and
// []any. Column types follow the lake's physical types.
package table

import (
	"fmt"
	"sort"
	"time"
)

// Type is a logical column type.
type Type string

// Column types. Mixed only appears during inference and never reaches storage.
const (
	Null      Type = "NULL"
	Boolean   Type = "BOOLEAN"
	BigInt    Type = "BIGINT"
	Double    Type = "DOUBLE"
	Varchar   Type = "VARCHAR"
	JSON      Type = "JSON"
	Timestamp Type = "TIMESTAMP"
	Mixed     Type = "MIXED"
)

// Valid reports whether t is a storable column type.
func (t Type) Valid() bool {
	switch t {
	case Boolean, BigInt, Double, Varchar, JSON, Timestamp:
		return true
	}
	return false
}

// Column is a named, typed column.
type Column struct {
	Name string
	Type Type
}

// Table is an ordered set of columns and rows.
type Table struct {
	Columns []Column
	Rows    [][]any
}

// New creates an empty table with the given columns.
func New(cols ...Column) *Table {
	return &Table{Columns: append([]Column(nil), cols...)}
}

// FromRecords builds a table whose column set is the union of the record
// keys in first-seen order. Keys missing from a record are nil. Column types
// are inferred from the values.
func FromRecords(records []map[string]any) *Table {
	t := &Table{}
	index := make(map[string]int)
	for _, rec := range records {
		for _, k := range sortedKeys(rec) {
			if _, ok := index[k]; ok {
				continue
			}
			index[k] = len(t.Columns)
			t.Columns = append(t.Columns, Column{Name: k})
		}
	}

	t.Rows = make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(t.Columns))
		for k, v := range rec {
			row[index[k]] = v
		}
		t.Rows[i] = row
	}

	for i := range t.Columns {
		t.Columns[i].Type = InferType(t.columnValues(i))
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Index returns the position of the named column or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	if i := t.Index(name); i >= 0 {
		return t.Columns[i], true
	}
	return Column{}, false
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Value returns the value of the named column in row, or nil.
func (t *Table) Value(row int, name string) any {
	i := t.Index(name)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return nil
	}
	return t.Rows[row][i]
}

// Map returns row as a column-name keyed map.
func (t *Table) Map(row int) map[string]any {
	m := make(map[string]any, len(t.Columns))
	for i, c := range t.Columns {
		m[c.Name] = t.Rows[row][i]
	}
	return m
}

// AppendRow adds a row. Values must be in column order.
func (t *Table) AppendRow(values ...any) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.Columns))
	}
	t.Rows = append(t.Rows, append([]any(nil), values...))
	return nil
}

// Append adds a row from a map. Unknown keys are rejected.
func (t *Table) Append(row map[string]any) error {
	values := make([]any, len(t.Columns))
	for k, v := range row {
		i := t.Index(k)
		if i < 0 {
			return fmt.Errorf("unknown column %q", k)
		}
		values[i] = v
	}
	t.Rows = append(t.Rows, values)
	return nil
}

// AddColumn appends a column holding value in every row. An existing column
// of the same name is replaced.
func (t *Table) AddColumn(col Column, value any) {
	if i := t.Index(col.Name); i >= 0 {
		t.Columns[i] = col
		for _, row := range t.Rows {
			row[i] = value
		}
		return
	}
	t.Columns = append(t.Columns, col)
	for r := range t.Rows {
		t.Rows[r] = append(t.Rows[r], value)
	}
}

// Drop removes the named columns.
func (t *Table) Drop(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	keep := make([]int, 0, len(t.Columns))
	cols := make([]Column, 0, len(t.Columns))
	for i, c := range t.Columns {
		if !drop[c.Name] {
			keep = append(keep, i)
			cols = append(cols, c)
		}
	}
	if len(cols) == len(t.Columns) {
		return
	}

	for r, row := range t.Rows {
		out := make([]any, len(keep))
		for j, i := range keep {
			out[j] = row[i]
		}
		t.Rows[r] = out
	}
	t.Columns = cols
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	out := New(t.Columns...)
	for i, row := range t.Rows {
		if keep(i) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

func (t *Table) columnValues(i int) []any {
	values := make([]any, len(t.Rows))
	for r, row := range t.Rows {
		values[r] = row[i]
	}
	return values
}

// TypeOf returns the column type of a single value.
func TypeOf(v any) Type {
	switch v.(type) {
	case nil:
		return Null
	case bool:
		return Boolean
	case int, int32, int64:
		return BigInt
	case float32, float64:
		return Double
	case string:
		return Varchar
	case time.Time:
		return Timestamp
	case map[string]any, []any:
		return JSON
	default:
		return Mixed
	}
}

// InferType infers a column type from its values.
// All nil infers Null; any decimal among numbers infers Double; anything
// else heterogeneous infers Mixed.
func InferType(values []any) Type {
	result := Null
	for _, v := range values {
		vt := TypeOf(v)
		if vt == Null {
			continue
		}
		switch {
		case result == Null:
			result = vt
		case result == vt:
		case isNumeric(result) && isNumeric(vt):
			result = Double
		default:
			return Mixed
		}
	}
	return result
}

// Widen returns the type able to hold values of both a and b.
func Widen(a, b Type) Type {
	switch {
	case a == b:
		return a
	case a == Null:
		return b
	case b == Null:
		return a
	case isNumeric(a) && isNumeric(b):
		return Double
	default:
		return Varchar
	}
}

func isNumeric(t Type) bool {
	return t == BigInt || t == Double
}

// sortedKeys returns the keys of m in lexical order. Decoded objects carry no
// key order, so each record contributes its new keys sorted.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
