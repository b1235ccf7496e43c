// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

// Package document provides access helpers for loosely structured scraped
// listing documents.
//
// Scraped records arrive as arbitrary JSON. Depending on the scraper version a
// nested field may be stored as a nested object ({"address": {"postcode": ..}})
// or as a flattened dotted key ({"address.postcode": ..}). Lookup resolves
// both shapes so transforms can address fields by path without caring which
// one a given record uses.
package document

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Document is one decoded JSON object.
type Document = map[string]any

// Decode parses a single JSON object. Numbers are kept as json.Number so
// integral and decimal values stay distinguishable.
func Decode(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("expected JSON object, got null")
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected trailing data after JSON object")
	}
	return doc, nil
}

// DecodeValue parses any JSON value with json.Number numbers.
func DecodeValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Lookup resolves path inside doc. At each level the longest dotted join of
// the remaining path is tried as a literal key first, then shorter joins, so
// fully nested, fully flattened and partially flattened records all resolve.
func Lookup(doc map[string]any, path ...string) (any, bool) {
	if doc == nil || len(path) == 0 {
		return nil, false
	}
	for k := len(path); k >= 1; k-- {
		v, ok := doc[strings.Join(path[:k], ".")]
		if !ok {
			continue
		}
		if k == len(path) {
			return v, v != nil
		}
		child, ok := AsMap(v)
		if !ok {
			continue
		}
		if found, ok := Lookup(child, path[k:]...); ok {
			return found, true
		}
	}
	return nil, false
}

// Object resolves a sub-object at path. When no nested object exists but the
// document carries flattened keys under the joined prefix, those keys are
// gathered into a new object with the prefix stripped.
func Object(doc map[string]any, path ...string) (map[string]any, bool) {
	if len(path) == 0 {
		return doc, doc != nil
	}
	if v, ok := Lookup(doc, path...); ok {
		if m, ok := AsMap(v); ok {
			return m, true
		}
	}

	prefix := strings.Join(path, ".") + "."
	var gathered map[string]any
	for k, v := range doc {
		if rest, ok := strings.CutPrefix(k, prefix); ok && rest != "" {
			if gathered == nil {
				gathered = make(map[string]any)
			}
			gathered[rest] = v
		}
	}
	if gathered != nil {
		return gathered, true
	}

	// Partially flattened documents: descend as far as nested objects go.
	if child, ok := AsMap(doc[path[0]]); ok {
		return Object(child, path[1:]...)
	}
	return nil, false
}

// AsMap returns v as an object. JSON text holding an object is decoded.
func AsMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if !strings.HasPrefix(s, "{") {
			return nil, false
		}
		decoded, err := Decode([]byte(s))
		if err != nil {
			return nil, false
		}
		return decoded, true
	}
	return nil, false
}

// List returns v as a list. JSON text holding a list is decoded.
func List(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, true
	case string:
		s := strings.TrimSpace(t)
		if !strings.HasPrefix(s, "[") {
			return nil, false
		}
		decoded, err := DecodeValue([]byte(s))
		if err != nil {
			return nil, false
		}
		l, ok := decoded.([]any)
		return l, ok
	}
	return nil, false
}

// String converts a scalar to text. Absent or null values report ok=false.
func String(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	default:
		return fmt.Sprint(t), true
	}
}

// Float converts a numeric scalar or numeric text to float64.
func Float(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// Int converts an integral scalar or integral text to int64.
func Int(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return floatToInt(t)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return i, err == nil
	}
	return 0, false
}

// floatToInt reports ok=false for fractional values and values outside the
// int64 range.
func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// Text returns the value at path as text, or "" when absent.
func Text(doc map[string]any, path ...string) string {
	v, ok := Lookup(doc, path...)
	if !ok {
		return ""
	}
	s, _ := String(v)
	return s
}

// Normalize converts json.Number values to int64 or float64 throughout v so
// the result can be stored in typed columns.
func Normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	}
	return v
}
