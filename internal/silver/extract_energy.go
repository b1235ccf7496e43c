// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package silver

import (
	"strconv"
	"strings"

	"github.com/tomtom215/estatelake/internal/document"
	"github.com/tomtom215/estatelake/internal/table"
)

// EnergyColumns are the columns of property_energy.
var EnergyColumns = []table.Column{
	{Name: "id", Type: table.Varchar},
	{Name: "current_energy_rating", Type: table.Varchar},
	{Name: "current_energy_efficiency", Type: table.BigInt},
	{Name: "energy_performance_index", Type: table.Double},
	{Name: "rating", Type: table.Varchar},
	{Name: "recorded_at", Type: table.Varchar},
	{Name: IngestedAtColumn, Type: table.Timestamp},
}

type energyExtractor struct{}

func (energyExtractor) Name() string { return TableEnergy }

// Extract emits one row per property id. Properties without an extras
// object get null rating fields. The table is absent only when no property
// in the batch carries extras.
func (energyExtractor) Extract(rows []Cleaned) Output {
	tbl := table.New(EnergyColumns...)
	seen := false
	for n := range rows {
		c := &rows[n]
		extras, ok := c.Field(extrasField)
		if ok {
			seen = true
		}
		if c.ID == "" {
			continue
		}
		obj, _ := document.AsMap(extras)
		index, _ := document.Lookup(obj, "energy_performance_index")
		tbl.Rows = append(tbl.Rows, []any{
			c.ID,
			textAt(obj, "current_energy_rating"),
			intAt(obj, "current_energy_efficiency"),
			ParsePerformanceIndex(index),
			textAt(obj, "rating"),
			textAt(obj, "recorded_at"),
			c.IngestedAt,
		})
	}
	if !seen {
		return absent(TableEnergy, extrasField, EnergyColumns)
	}
	return Output{Name: TableEnergy, Table: tbl}
}

// ParsePerformanceIndex extracts the numeric part of a unit-suffixed value
// such as "61.51 kWh/m²/yr". Every character other than an ASCII digit or
// '.' is removed before parsing. Values with no numeric content yield nil.
func ParsePerformanceIndex(v any) any {
	s, ok := v.(string)
	if !ok {
		if f, ok := document.Float(v); ok {
			return f
		}
		return nil
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if ch := s[i]; (ch >= '0' && ch <= '9') || ch == '.' {
			b.WriteByte(ch)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return nil
	}
	return f
}
