// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package table

import (
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// NormalizeReport describes the changes Normalize made.
type NormalizeReport struct {
	DroppedNull []string
	Coerced     []string
}

// Normalize prepares a freshly built table for storage, in order:
//  1. columns whose values are all nil are dropped
//  2. columns with no single primitive type are coerced to text
//
// Nested objects and lists keep the JSON type and are stored as JSON text.
// Integral values in Double columns are converted to float64.
func Normalize(t *Table) NormalizeReport {
	var report NormalizeReport

	var nullCols []string
	for i, c := range t.Columns {
		if InferType(t.columnValues(i)) == Null {
			nullCols = append(nullCols, c.Name)
		}
	}
	if len(nullCols) > 0 {
		t.Drop(nullCols...)
		report.DroppedNull = nullCols
	}

	for i := range t.Columns {
		typ := InferType(t.columnValues(i))
		switch typ {
		case Mixed:
			for _, row := range t.Rows {
				if row[i] != nil {
					row[i] = Stringify(row[i])
				}
			}
			t.Columns[i].Type = Varchar
			report.Coerced = append(report.Coerced, t.Columns[i].Name)
		case JSON:
			t.Columns[i].Type = JSON
			report.Coerced = append(report.Coerced, t.Columns[i].Name)
		case Double:
			for _, row := range t.Rows {
				row[i] = toFloat(row[i])
			}
			t.Columns[i].Type = Double
		default:
			t.Columns[i].Type = typ
		}
	}
	return report
}

// Conform converts v so it can be stored in a column of type typ.
func Conform(v any, typ Type) any {
	if v == nil {
		return nil
	}
	switch typ {
	case Double:
		return toFloat(v)
	case Varchar:
		if _, ok := v.(string); ok {
			return v
		}
		return Stringify(v)
	case JSON:
		if s, ok := v.(string); ok {
			return s
		}
		return Stringify(v)
	}
	return v
}

// Stringify renders a value as text. Objects and lists become JSON.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func toFloat(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	}
	return v
}
