// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package warehouse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/estatelake/internal/table"
)

// Dialect describes the SQL differences between supported warehouses.
type Dialect struct {
	// Name is the configuration name: duckdb or postgres.
	Name string

	// Driver is the database/sql driver name.
	Driver string

	types map[table.Type]string
}

// Supported dialects.
var (
	DuckDB = Dialect{
		Name:   "duckdb",
		Driver: "duckdb",
		types: map[table.Type]string{
			table.Boolean:   "BOOLEAN",
			table.BigInt:    "BIGINT",
			table.Double:    "DOUBLE",
			table.Varchar:   "VARCHAR",
			table.JSON:      "VARCHAR",
			table.Timestamp: "TIMESTAMP",
		},
	}

	Postgres = Dialect{
		Name:   "postgres",
		Driver: "pgx",
		types: map[table.Type]string{
			table.Boolean:   "BOOLEAN",
			table.BigInt:    "BIGINT",
			table.Double:    "DOUBLE PRECISION",
			table.Varchar:   "TEXT",
			table.JSON:      "TEXT",
			table.Timestamp: "TIMESTAMPTZ",
		},
	}
)

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "duckdb":
		return DuckDB, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unsupported warehouse driver %q", name)
}

// ColumnType returns the SQL type for a column type.
func (d Dialect) ColumnType(t table.Type) string {
	if s, ok := d.types[t]; ok {
		return s
	}
	return d.types[table.Varchar]
}

// Placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// Quote quotes an identifier.
func (d Dialect) Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ParseType maps a reported information_schema data type back to a column
// type. Unknown types are treated as text.
func (d Dialect) ParseType(dataType string) table.Type {
	s := strings.ToUpper(dataType)
	switch {
	case s == "BOOLEAN":
		return table.Boolean
	case s == "BIGINT" || s == "INTEGER" || s == "SMALLINT":
		return table.BigInt
	case s == "DOUBLE" || s == "DOUBLE PRECISION" || s == "REAL" || s == "FLOAT":
		return table.Double
	case strings.HasPrefix(s, "TIMESTAMP"):
		return table.Timestamp
	}
	return table.Varchar
}
