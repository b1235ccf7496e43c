// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package silver

import (
	"strings"

	"github.com/tomtom215/estatelake/internal/document"
	"github.com/tomtom215/estatelake/internal/table"
)

// PropertyColumns are the typed columns of property_details. Remaining
// property fields follow them with inferred types.
var PropertyColumns = []table.Column{
	{Name: "id", Type: table.Varchar},
	{Name: "title", Type: table.Varchar},
	{Name: "full_address", Type: table.Varchar},
	{Name: "bedroom", Type: table.BigInt},
	{Name: "bathroom", Type: table.BigInt},
	{Name: "reception", Type: table.BigInt},
	{Name: "price", Type: table.Double},
	{Name: "floorarea_min", Type: table.Double},
	{Name: "accomadation_summary", Type: table.Varchar},
	{Name: "status", Type: table.Varchar},
	{Name: "latitude", Type: table.Double},
	{Name: "longitude", Type: table.Double},
	{Name: IngestedAtColumn, Type: table.Timestamp},
}

// Fields owned by other tables or replaced by typed columns.
var propertyExcluded = []string{IDField, addressField, roomsField, imagesField, extrasField}

type propertyExtractor struct{}

func (propertyExtractor) Name() string { return TableProperties }

// Extract emits one row per cleaned property. Source values that do not
// convert to a typed column are stored as NULL and counted in Output.Nulled.
func (propertyExtractor) Extract(rows []Cleaned) Output {
	tbl := table.New(PropertyColumns...)
	extra := make([]map[string]any, len(rows))
	nulled := make(map[string]int)

	for n := range rows {
		c := &rows[n]
		row := []any{
			c.ID,
			c.Text("title"),
			c.FullAddress,
			c.Int("bedroom"),
			c.Int("bathroom"),
			c.Int("reception"),
			c.Float("price"),
			c.Float("floorarea_min"),
			c.Summary,
			c.Text("status"),
			c.Float("latitude"),
			c.Float("longitude"),
			c.IngestedAt,
		}
		for i, col := range PropertyColumns {
			if row[i] != nil || (col.Type != table.BigInt && col.Type != table.Double) {
				continue
			}
			if _, ok := c.Field(col.Name); ok {
				nulled[col.Name]++
			}
		}
		tbl.Rows = append(tbl.Rows, row)
		extra[n] = passthrough(c.Property)
	}

	rest := table.FromRecords(extra)
	table.Normalize(rest)
	for i, col := range rest.Columns {
		tbl.Columns = append(tbl.Columns, col)
		for r := range tbl.Rows {
			tbl.Rows[r] = append(tbl.Rows[r], rest.Rows[r][i])
		}
	}
	out := Output{Name: TableProperties, Table: tbl}
	if len(nulled) > 0 {
		out.Nulled = nulled
	}
	return out
}

// passthrough returns the property fields not covered by a typed column or
// another table. Keys compare case-insensitively, and dotted keys under an
// excluded field are excluded with it.
func passthrough(prop map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range prop {
		if propertyOwned(k) {
			continue
		}
		out[k] = document.Normalize(v)
	}
	return out
}

func propertyOwned(key string) bool {
	lower := strings.ToLower(key)
	for _, c := range PropertyColumns {
		if lower == c.Name {
			return true
		}
	}
	for _, f := range propertyExcluded {
		f = strings.ToLower(f)
		if lower == f || strings.HasPrefix(lower, f+".") {
			return true
		}
	}
	return false
}
