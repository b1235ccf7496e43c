// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package warehouse

import (
	"fmt"
	"strings"

	"github.com/tomtom215/estatelake/internal/table"
)

// CreateTableSQL returns the DDL for a keyed warehouse table.
func CreateTableSQL(d Dialect, name string, cols []table.Column, keys []string) string {
	defs := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		def := d.Quote(c.Name) + " " + d.ColumnType(c.Type)
		if containsFold(keys, c.Name) {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	defs = append(defs, "PRIMARY KEY ("+quoteAll(d, keys)+")")
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", d.Quote(name), strings.Join(defs, ",\n\t"))
}

// AddColumnSQL returns the DDL adding a nullable column.
func AddColumnSQL(d Dialect, name string, c table.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", d.Quote(name), d.Quote(c.Name), d.ColumnType(c.Type))
}

// AlterTypeSQL returns the DDL widening a column to typ.
func AlterTypeSQL(d Dialect, name, column string, typ table.Type) string {
	sqlType := d.ColumnType(typ)
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING CAST(%s AS %s)",
		d.Quote(name), d.Quote(column), sqlType, d.Quote(column), sqlType)
}

// UpsertSQL returns an insert that overwrites every non-key column when the
// key already exists. When every column is a key the conflict is ignored.
func UpsertSQL(d Dialect, name string, columns, keys []string) string {
	placeholders := make([]string, len(columns))
	var updates []string
	for i, c := range columns {
		placeholders[i] = d.Placeholder(i + 1)
		if !containsFold(keys, c) {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", d.Quote(c), d.Quote(c)))
		}
	}

	action := "DO NOTHING"
	if len(updates) > 0 {
		action = "DO UPDATE SET " + strings.Join(updates, ", ")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		d.Quote(name), quoteAll(d, columns), strings.Join(placeholders, ", "), quoteAll(d, keys), action)
}

func quoteAll(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.Quote(n)
	}
	return strings.Join(quoted, ", ")
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
