// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package silver

import (
	"github.com/tomtom215/estatelake/internal/document"
)

// IDField is the property object key holding the property id.
const IDField = "_id"

// Delta is the set of raw rows not yet present in silver.
type Delta struct {
	// Rows holds one raw row per new property id, in order of first
	// appearance. A repeated id keeps its most recently ingested row.
	Rows []map[string]any

	// IDs is parallel to Rows.
	IDs []string

	// MissingID counts raw rows without a usable property id.
	MissingID int

	// Duplicates counts new raw rows superseded by a later row with the same id.
	Duplicates int

	// Existing counts raw rows skipped because their id is already in silver.
	Existing int
}

// Len returns the number of selected rows.
func (d *Delta) Len() int {
	return len(d.Rows)
}

// IDSet builds the set of silver property ids from distinct column values.
func IDSet(values []any) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if id, ok := document.String(v); ok && id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// SelectDelta returns the raw rows whose property id is absent from existing.
// A nil existing set is the first run: every identifiable row is selected.
// Comparison is exact equality on the id text.
func SelectDelta(rows []map[string]any, root []string, existing map[string]struct{}) *Delta {
	d := &Delta{}
	pos := make(map[string]int)

	for _, row := range rows {
		id, ok := PropertyID(PropertyObject(row, root))
		if !ok {
			d.MissingID++
			continue
		}
		if _, seen := existing[id]; seen {
			d.Existing++
			continue
		}
		if i, dup := pos[id]; dup {
			d.Rows[i] = row
			d.Duplicates++
			continue
		}
		pos[id] = len(d.Rows)
		d.Rows = append(d.Rows, row)
		d.IDs = append(d.IDs, id)
	}
	return d
}

// PropertyID returns the id of a property object. Empty ids are treated as
// missing.
func PropertyID(prop map[string]any) (string, bool) {
	v, ok := document.Lookup(prop, IDField)
	if !ok {
		return "", false
	}
	id, ok := document.String(v)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// PropertyObject resolves the property object of a raw row at root. Rows
// where root does not resolve are themselves the property object.
func PropertyObject(row map[string]any, root []string) map[string]any {
	if len(root) == 0 {
		return row
	}
	if obj, ok := document.Object(row, root...); ok {
		return obj
	}
	return row
}
