// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package lake

import (
	"fmt"
	"strings"

	"github.com/tomtom215/estatelake/internal/table"
)

// Hidden bookkeeping column holding insertion order.
const seqColumn = "_lake_seq"

// TableName maps a lake path to its DuckDB table name:
// "silver/agents" becomes "silver__agents".
func TableName(path string) (string, error) {
	p := strings.Trim(strings.TrimSpace(path), "/")
	if p == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	var b strings.Builder
	for i, seg := range strings.Split(p, "/") {
		if seg == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		if i > 0 {
			b.WriteString("__")
		}
		for _, r := range strings.ToLower(seg) {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
				b.WriteRune(r)
			default:
				b.WriteByte('_')
			}
		}
	}

	name := b.String()
	if name[0] == '_' || (name[0] >= '0' && name[0] <= '9') {
		name = "t" + name
	}
	return name, nil
}

// quoteIdent quotes a SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// physicalType maps a logical column type to its DuckDB type.
// JSON values are stored as text; the catalog keeps the logical kind.
func physicalType(t table.Type) string {
	switch t {
	case table.Boolean:
		return "BOOLEAN"
	case table.BigInt:
		return "BIGINT"
	case table.Double:
		return "DOUBLE"
	case table.Timestamp:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}
